package solrquery

import (
	"fmt"
	"strings"
)

// NewTermQuery returns a leaf handled by the standard lucene parser.
func NewTermQuery(text string) *Node {
	return newLeaf(QueryTypeLucene, text)
}

// SetDefaultField sets df. An empty field removes it.
func (n *Node) SetDefaultField(field string) error {
	if err := n.requireType(QueryTypeLucene); err != nil {
		return err
	}
	if strings.ContainsAny(field, " \t\r\n"+quoteBreaking) {
		return fmt.Errorf("invalid default field %q: %w", field, ErrInvalidArgument)
	}
	n.leaf.defaultField = field
	return nil
}

func (n *Node) DefaultField() string {
	if n == nil || n.leaf == nil {
		return ""
	}
	return n.leaf.defaultField
}

// SetDefaultOperator sets q.op, which must be "AND" or "OR".
func (n *Node) SetDefaultOperator(op string) error {
	if err := n.requireType(QueryTypeLucene); err != nil {
		return err
	}
	switch op {
	case "AND":
		n.leaf.defaultOp = OpAnd
	case "OR":
		n.leaf.defaultOp = OpOr
	default:
		return fmt.Errorf("default operator must be AND or OR, got %q: %w", op, ErrInvalidArgument)
	}
	return nil
}

// DefaultOperator returns "" when no default operator is set.
func (n *Node) DefaultOperator() string {
	if n == nil || n.leaf == nil {
		return ""
	}
	return n.leaf.defaultOp.String()
}

func (n *Node) requireType(kind QueryType) error {
	if n == nil || n.leaf == nil {
		return fmt.Errorf("%s settings require a leaf query: %w", kind, ErrInvalidArgument)
	}
	if n.leaf.kind != kind {
		return fmt.Errorf("%s settings do not apply to a %s query: %w", kind, n.leaf.kind, ErrInvalidArgument)
	}
	return nil
}

func luceneParams(l *leaf, params *LocalParams) {
	if l.defaultOp != OpNone {
		params.Set("q.op", l.defaultOp.String())
	}
	if l.defaultField != "" {
		params.Set("df", l.defaultField)
	}
}
