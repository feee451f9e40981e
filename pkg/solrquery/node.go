// Package solrquery builds boolean-combinable Solr queries and renders them into
// request parameters. Raw search text never appears in the rendered q parameter:
// every leaf dereferences a placeholder parameter (v=$q0, v=$q1, ...) instead.
//
// Nodes are built with NewTermQuery and NewDisMaxQuery and combined with And, Or,
// Not and AndNot. Combinators never modify their operands, so a node can be shared
// between several trees. Boosts, local params and dismax settings may still be
// changed after construction; callers rendering a tree from several goroutines must
// not change those concurrently.
package solrquery

import (
	"fmt"
	"math"
	"strconv"
)

// Operator joins the children of a boolean node.
type Operator int

const (
	OpNone Operator = iota
	OpAnd
	OpOr
	OpNot
)

func (o Operator) String() string {
	switch o {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNot:
		return "NOT"
	}
	return ""
}

// ParseOperator maps "AND", "OR" and "NOT" to their Operator.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "AND":
		return OpAnd, nil
	case "OR":
		return OpOr, nil
	case "NOT":
		return OpNot, nil
	}
	return OpNone, fmt.Errorf("unknown operator %q: %w", s, ErrInvalidArgument)
}

// QueryType selects the Solr query parser of a leaf.
type QueryType int

const (
	QueryTypeNone QueryType = iota
	QueryTypeLucene
	QueryTypeDisMax
)

func (t QueryType) String() string {
	switch t {
	case QueryTypeLucene:
		return "lucene"
	case QueryTypeDisMax:
		return "dismax"
	}
	return ""
}

// ParseQueryType maps "lucene" and "dismax" to their QueryType.
func ParseQueryType(s string) (QueryType, error) {
	switch s {
	case "lucene":
		return QueryTypeLucene, nil
	case "dismax":
		return QueryTypeDisMax, nil
	}
	return QueryTypeNone, fmt.Errorf("unknown query type %q: %w", s, ErrInvalidArgument)
}

// Node is either a boolean node (operator set) or a leaf query (leaf set).
type Node struct {
	op    Operator
	left  *Node
	right *Node
	boost float64

	leaf *leaf
}

type leaf struct {
	kind   QueryType
	text   string
	params LocalParams

	// lucene
	defaultField string
	defaultOp    Operator

	// dismax
	fields       []FieldWeight
	phraseFields []FieldWeight
	tuning       Tuning
}

func newLeaf(kind QueryType, text string) *Node {
	return &Node{leaf: &leaf{kind: kind, text: text}}
}

// IsLeaf reports whether n is a leaf query.
func (n *Node) IsLeaf() bool { return n != nil && n.leaf != nil }

// Operator returns OpNone for leaves.
func (n *Node) Operator() Operator {
	if n == nil {
		return OpNone
	}
	return n.op
}

func (n *Node) Left() *Node {
	if n == nil {
		return nil
	}
	return n.left
}

func (n *Node) Right() *Node {
	if n == nil {
		return nil
	}
	return n.right
}

// Type returns QueryTypeNone for boolean nodes.
func (n *Node) Type() QueryType {
	if n == nil || n.leaf == nil {
		return QueryTypeNone
	}
	return n.leaf.kind
}

// Text returns the raw search text of a leaf.
func (n *Node) Text() string {
	if n == nil || n.leaf == nil {
		return ""
	}
	return n.leaf.text
}

// SetBoost sets the relevance multiplier of the node. It must be positive.
func (n *Node) SetBoost(boost float64) error {
	if n == nil {
		return fmt.Errorf("boost requires a node: %w", ErrInvalidArgument)
	}
	if math.IsNaN(boost) || math.IsInf(boost, 0) || boost <= 0 {
		return fmt.Errorf("boost must be a positive number, got %v: %w", boost, ErrInvalidArgument)
	}
	n.boost = boost
	return nil
}

func (n *Node) ClearBoost() {
	if n != nil {
		n.boost = 0
	}
}

// Boost returns the boost and whether one is set.
func (n *Node) Boost() (float64, bool) {
	if n == nil {
		return 0, false
	}
	return n.boost, n.boost > 0
}

// SetLocalParam attaches an extra local parameter to a leaf. Keys derived from the
// leaf configuration (df, q.op, qf, pf and the dismax tuning keys) are overridden at
// render time when that configuration is set.
func (n *Node) SetLocalParam(key, value string) error {
	if n == nil || n.leaf == nil {
		return fmt.Errorf("local params can only be set on leaf queries: %w", ErrInvalidArgument)
	}
	if err := validateParamKey(key); err != nil {
		return err
	}
	if err := validateParamValue(key, value); err != nil {
		return err
	}
	n.leaf.params.Set(key, value)
	return nil
}

// LocalParams returns a copy of the params set with SetLocalParam.
func (n *Node) LocalParams() LocalParams {
	if n == nil || n.leaf == nil {
		return nil
	}
	return n.leaf.params.clone()
}

// DeleteLocalParam removes a param set with SetLocalParam. Missing keys are ignored.
func (n *Node) DeleteLocalParam(key string) error {
	if n == nil || n.leaf == nil {
		return fmt.Errorf("local params can only be deleted from leaf queries: %w", ErrInvalidArgument)
	}
	n.leaf.params.Delete(key)
	return nil
}

func (n *Node) And(other *Node) (*Node, error) {
	return n.conjoin(OpAnd, other)
}

func (n *Node) Or(other *Node) (*Node, error) {
	return n.conjoin(OpOr, other)
}

// AndNot matches n but not other: (n NOT other).
func (n *Node) AndNot(other *Node) (*Node, error) {
	return n.conjoin(OpNot, other)
}

// Not negates n: (NOT n).
func (n *Node) Not() (*Node, error) {
	if n == nil {
		return nil, fmt.Errorf("NOT requires an operand: %w", ErrInvalidArgument)
	}
	return &Node{op: OpNot, right: n}, nil
}

func (n *Node) conjoin(op Operator, other *Node) (*Node, error) {
	if n == nil || other == nil {
		return nil, fmt.Errorf("%s requires two operands: %w", op, ErrInvalidArgument)
	}
	return &Node{op: op, left: n, right: other}, nil
}

// validate checks the shape of n itself, not of its children.
func (n *Node) validate() error {
	if n == nil {
		return fmt.Errorf("nil node: %w", ErrMalformedTree)
	}
	if n.leaf != nil {
		if n.op != OpNone || n.left != nil || n.right != nil {
			return fmt.Errorf("leaf query with boolean structure: %w", ErrMalformedTree)
		}
		if n.leaf.kind == QueryTypeNone {
			return fmt.Errorf("leaf query without a type: %w", ErrMalformedTree)
		}
		return nil
	}
	switch n.op {
	case OpAnd, OpOr:
		if n.left == nil || n.right == nil {
			return fmt.Errorf("%s node missing an operand: %w", n.op, ErrMalformedTree)
		}
	case OpNot:
		if n.right == nil {
			return fmt.Errorf("NOT node missing its operand: %w", ErrMalformedTree)
		}
	default:
		return fmt.Errorf("node is neither a leaf nor a boolean node: %w", ErrMalformedTree)
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
