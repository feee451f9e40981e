package solrquery

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FieldWeight is one entry of a qf or pf list.
type FieldWeight struct {
	Field  string  `json:"field" bson:"field"`
	Weight float64 `json:"weight" bson:"weight"`
}

func (fw FieldWeight) String() string {
	return fw.Field + "^" + formatNumber(fw.Weight)
}

// Tuning holds the optional dismax knobs. Zero values (nil pointers, empty strings)
// are left out of the rendered query.
type Tuning struct {
	PhraseSlop    *int     `json:"ps,omitempty" bson:"ps,omitempty"`
	QuerySlop     *int     `json:"qs,omitempty" bson:"qs,omitempty"`
	BoostFunction string   `json:"bf,omitempty" bson:"bf,omitempty"`
	BoostQuery    string   `json:"bq,omitempty" bson:"bq,omitempty"`
	MinimumMatch  string   `json:"mm,omitempty" bson:"mm,omitempty"`
	Tie           *float64 `json:"tie,omitempty" bson:"tie,omitempty"`
}

// mm accepts integers, percentages and conditional specs like "2<-25% 9<-3".
var minimumMatchClause = regexp.MustCompile(`^(\d+<)?-?\d+%?$`)

func (t Tuning) validate() error {
	if t.PhraseSlop != nil && *t.PhraseSlop < 0 {
		return fmt.Errorf("ps must not be negative: %w", ErrInvalidArgument)
	}
	if t.QuerySlop != nil && *t.QuerySlop < 0 {
		return fmt.Errorf("qs must not be negative: %w", ErrInvalidArgument)
	}
	if t.Tie != nil && (math.IsNaN(*t.Tie) || *t.Tie < 0 || *t.Tie > 1) {
		return fmt.Errorf("tie must be between 0 and 1: %w", ErrInvalidArgument)
	}
	if err := validateParamValue("bf", t.BoostFunction); err != nil {
		return err
	}
	if err := validateParamValue("bq", t.BoostQuery); err != nil {
		return err
	}
	if t.MinimumMatch != "" {
		for _, clause := range strings.Fields(t.MinimumMatch) {
			if !minimumMatchClause.MatchString(clause) {
				return fmt.Errorf("invalid mm %q: %w", t.MinimumMatch, ErrInvalidArgument)
			}
		}
	}
	return nil
}

func (t Tuning) clone() Tuning {
	out := t
	if t.PhraseSlop != nil {
		ps := *t.PhraseSlop
		out.PhraseSlop = &ps
	}
	if t.QuerySlop != nil {
		qs := *t.QuerySlop
		out.QuerySlop = &qs
	}
	if t.Tie != nil {
		tie := *t.Tie
		out.Tie = &tie
	}
	return out
}

func (t Tuning) apply(params *LocalParams) {
	if t.PhraseSlop != nil {
		params.Set("ps", strconv.Itoa(*t.PhraseSlop))
	}
	if t.QuerySlop != nil {
		params.Set("qs", strconv.Itoa(*t.QuerySlop))
	}
	if t.BoostFunction != "" {
		params.Set("bf", t.BoostFunction)
	}
	if t.BoostQuery != "" {
		params.Set("bq", t.BoostQuery)
	}
	if t.MinimumMatch != "" {
		params.Set("mm", t.MinimumMatch)
	}
	if t.Tie != nil {
		params.Set("tie", formatNumber(*t.Tie))
	}
}

// NewDisMaxQuery returns a leaf searching text across the weighted fields (qf) with
// optional phrase boosting fields (pf). Both lists keep their order when rendered.
func NewDisMaxQuery(text string, fields, phraseFields []FieldWeight) (*Node, error) {
	n := newLeaf(QueryTypeDisMax, text)
	if err := n.SetFields(fields); err != nil {
		return nil, err
	}
	if err := n.SetPhraseFields(phraseFields); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) SetFields(fields []FieldWeight) error {
	if err := n.requireType(QueryTypeDisMax); err != nil {
		return err
	}
	if err := validateFieldWeights("qf", fields); err != nil {
		return err
	}
	n.leaf.fields = cloneFieldWeights(fields)
	return nil
}

func (n *Node) SetPhraseFields(fields []FieldWeight) error {
	if err := n.requireType(QueryTypeDisMax); err != nil {
		return err
	}
	if err := validateFieldWeights("pf", fields); err != nil {
		return err
	}
	n.leaf.phraseFields = cloneFieldWeights(fields)
	return nil
}

func (n *Node) Fields() []FieldWeight {
	if n == nil || n.leaf == nil {
		return nil
	}
	return cloneFieldWeights(n.leaf.fields)
}

func (n *Node) PhraseFields() []FieldWeight {
	if n == nil || n.leaf == nil {
		return nil
	}
	return cloneFieldWeights(n.leaf.phraseFields)
}

// SetTuning replaces all dismax knobs at once.
func (n *Node) SetTuning(t Tuning) error {
	if err := n.requireType(QueryTypeDisMax); err != nil {
		return err
	}
	if err := t.validate(); err != nil {
		return err
	}
	n.leaf.tuning = t.clone()
	return nil
}

func (n *Node) Tuning() Tuning {
	if n == nil || n.leaf == nil {
		return Tuning{}
	}
	return n.leaf.tuning.clone()
}

func validateFieldWeights(name string, fields []FieldWeight) error {
	for _, fw := range fields {
		if fw.Field == "" || strings.ContainsAny(fw.Field, " \t\r\n^"+quoteBreaking) {
			return fmt.Errorf("%s: invalid field name %q: %w", name, fw.Field, ErrInvalidArgument)
		}
		if math.IsNaN(fw.Weight) || math.IsInf(fw.Weight, 0) || fw.Weight <= 0 {
			return fmt.Errorf("%s: weight of %s must be positive: %w", name, fw.Field, ErrInvalidArgument)
		}
	}
	return nil
}

func cloneFieldWeights(fields []FieldWeight) []FieldWeight {
	if len(fields) == 0 {
		return nil
	}
	out := make([]FieldWeight, len(fields))
	copy(out, fields)
	return out
}

func joinFieldWeights(fields []FieldWeight) string {
	parts := make([]string, len(fields))
	for i, fw := range fields {
		parts[i] = fw.String()
	}
	return strings.Join(parts, " ")
}

func dismaxParams(l *leaf, params *LocalParams) {
	if len(l.fields) > 0 {
		params.Set("qf", joinFieldWeights(l.fields))
	}
	if len(l.phraseFields) > 0 {
		params.Set("pf", joinFieldWeights(l.phraseFields))
	}
	l.tuning.apply(params)
}
