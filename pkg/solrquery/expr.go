package solrquery

import "fmt"

// Expr is a serializable description of a query tree, used for JSON request bodies
// and stored query definitions. A boolean Expr sets Op; a leaf sets Type.
type Expr struct {
	Op    string  `json:"op,omitempty" bson:"op,omitempty"`
	Left  *Expr   `json:"left,omitempty" bson:"left,omitempty"`
	Right *Expr   `json:"right,omitempty" bson:"right,omitempty"`
	Boost float64 `json:"boost,omitempty" bson:"boost,omitempty"`

	Type            string        `json:"type,omitempty" bson:"type,omitempty"`
	Text            string        `json:"text,omitempty" bson:"text,omitempty"`
	DefaultField    string        `json:"df,omitempty" bson:"df,omitempty"`
	DefaultOperator string        `json:"q.op,omitempty" bson:"q_op,omitempty"`
	Fields          []FieldWeight `json:"qf,omitempty" bson:"qf,omitempty"`
	PhraseFields    []FieldWeight `json:"pf,omitempty" bson:"pf,omitempty"`
	Tuning          *Tuning       `json:"tuning,omitempty" bson:"tuning,omitempty"`
	LocalParams     LocalParams   `json:"local_params,omitempty" bson:"local_params,omitempty"`
}

// Build constructs the tree described by e. All constructor validation applies.
func (e *Expr) Build() (*Node, error) {
	if e == nil {
		return nil, fmt.Errorf("empty expression: %w", ErrInvalidArgument)
	}

	var (
		n   *Node
		err error
	)
	switch {
	case e.Op != "" && e.Type != "":
		return nil, fmt.Errorf("expression sets both op %q and type %q: %w", e.Op, e.Type, ErrInvalidArgument)
	case e.Op != "":
		n, err = e.buildBoolean()
	case e.Type != "":
		n, err = e.buildLeaf()
	default:
		return nil, fmt.Errorf("expression needs either op or type: %w", ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}

	if e.Boost != 0 {
		if err := n.SetBoost(e.Boost); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (e *Expr) buildBoolean() (*Node, error) {
	op, err := ParseOperator(e.Op)
	if err != nil {
		return nil, err
	}
	if e.Right == nil {
		return nil, fmt.Errorf("%s expression without right operand: %w", op, ErrInvalidArgument)
	}
	right, err := e.Right.Build()
	if err != nil {
		return nil, err
	}

	if e.Left == nil {
		if op != OpNot {
			return nil, fmt.Errorf("%s expression without left operand: %w", op, ErrInvalidArgument)
		}
		return right.Not()
	}
	left, err := e.Left.Build()
	if err != nil {
		return nil, err
	}

	switch op {
	case OpAnd:
		return left.And(right)
	case OpOr:
		return left.Or(right)
	default:
		return left.AndNot(right)
	}
}

func (e *Expr) buildLeaf() (*Node, error) {
	kind, err := ParseQueryType(e.Type)
	if err != nil {
		return nil, err
	}
	if e.Left != nil || e.Right != nil {
		return nil, fmt.Errorf("%s expression must not have operands: %w", kind, ErrInvalidArgument)
	}

	var n *Node
	switch kind {
	case QueryTypeLucene:
		if len(e.Fields) > 0 || len(e.PhraseFields) > 0 || e.Tuning != nil {
			return nil, fmt.Errorf("qf, pf and tuning only apply to dismax: %w", ErrInvalidArgument)
		}
		n = NewTermQuery(e.Text)
		if e.DefaultField != "" {
			if err := n.SetDefaultField(e.DefaultField); err != nil {
				return nil, err
			}
		}
		if e.DefaultOperator != "" {
			if err := n.SetDefaultOperator(e.DefaultOperator); err != nil {
				return nil, err
			}
		}
	case QueryTypeDisMax:
		if e.DefaultField != "" || e.DefaultOperator != "" {
			return nil, fmt.Errorf("df and q.op only apply to lucene: %w", ErrInvalidArgument)
		}
		n, err = NewDisMaxQuery(e.Text, e.Fields, e.PhraseFields)
		if err != nil {
			return nil, err
		}
		if e.Tuning != nil {
			if err := n.SetTuning(*e.Tuning); err != nil {
				return nil, err
			}
		}
	}

	for _, p := range e.LocalParams {
		if err := n.SetLocalParam(p.Key, p.Value); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// ExprOf describes n as an Expr. Build on the result yields an equivalent tree.
func ExprOf(n *Node) (*Expr, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}

	e := &Expr{Boost: n.boost}
	if n.leaf == nil {
		e.Op = n.op.String()
		if n.left != nil {
			left, err := ExprOf(n.left)
			if err != nil {
				return nil, err
			}
			e.Left = left
		}
		right, err := ExprOf(n.right)
		if err != nil {
			return nil, err
		}
		e.Right = right
		return e, nil
	}

	l := n.leaf
	e.Type = l.kind.String()
	e.Text = l.text
	e.LocalParams = l.params.clone()
	switch l.kind {
	case QueryTypeLucene:
		e.DefaultField = l.defaultField
		e.DefaultOperator = l.defaultOp.String()
	case QueryTypeDisMax:
		e.Fields = cloneFieldWeights(l.fields)
		e.PhraseFields = cloneFieldWeights(l.phraseFields)
		if l.tuning != (Tuning{}) {
			t := l.tuning.clone()
			e.Tuning = &t
		}
	}
	return e, nil
}

// Texts returns pointers to the search text of every leaf of e, in tree order.
func (e *Expr) Texts() []*string {
	if e == nil {
		return nil
	}
	if e.Type != "" {
		return []*string{&e.Text}
	}
	return append(e.Left.Texts(), e.Right.Texts()...)
}
