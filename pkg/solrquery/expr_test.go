package solrquery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const compoundJSON = `{
	"op": "AND",
	"boost": 10,
	"left": {"type": "lucene", "text": "solr", "df": "name", "q.op": "AND", "boost": 3},
	"right": {
		"op": "NOT",
		"right": {
			"type": "dismax",
			"text": "apache",
			"qf": [{"field": "all", "weight": 100}, {"field": "title", "weight": 200}],
			"pf": [{"field": "title", "weight": 50}],
			"tuning": {"mm": "75%"},
			"local_params": [{"key": "fq", "value": "inStock:true"}]
		}
	}
}`

func TestExprBuild(t *testing.T) {
	var e Expr
	require.NoError(t, json.Unmarshal([]byte(compoundJSON), &e))

	n, err := e.Build()
	require.NoError(t, err)

	q := mustRender(t, n)
	assert.Equal(t,
		`(_query_:"{!lucene q.op='AND' df='name' v=$q0}"^3 AND (NOT _query_:"{!dismax fq='inStock:true' qf='all^100 title^200' pf='title^50' mm='75%' v=$q1}"))^10`,
		q.Q)
	assert.Equal(t, "solr", q.Params["q0"])
	assert.Equal(t, "apache", q.Params["q1"])
}

func TestExprRoundTrip(t *testing.T) {
	var e Expr
	require.NoError(t, json.Unmarshal([]byte(compoundJSON), &e))
	n, err := e.Build()
	require.NoError(t, err)

	back, err := ExprOf(n)
	require.NoError(t, err)
	rebuilt, err := back.Build()
	require.NoError(t, err)

	assert.Equal(t, mustRender(t, n), mustRender(t, rebuilt))
}

func TestExprBuildErrors(t *testing.T) {
	testCases := map[string]string{
		"empty":             `{}`,
		"op_and_type":       `{"op": "AND", "type": "lucene", "text": "x"}`,
		"unknown_op":        `{"op": "XOR", "left": {"type": "lucene"}, "right": {"type": "lucene"}}`,
		"unknown_type":      `{"type": "edismax", "text": "x"}`,
		"and_without_left":  `{"op": "AND", "right": {"type": "lucene", "text": "x"}}`,
		"or_without_right":  `{"op": "OR", "left": {"type": "lucene", "text": "x"}}`,
		"bad_default_op":    `{"type": "lucene", "text": "x", "q.op": "NOT"}`,
		"qf_on_lucene":      `{"type": "lucene", "text": "x", "qf": [{"field": "a", "weight": 1}]}`,
		"df_on_dismax":      `{"type": "dismax", "text": "x", "df": "title"}`,
		"negative_boost":    `{"type": "lucene", "text": "x", "boost": -2}`,
		"leaf_with_operand": `{"type": "lucene", "text": "x", "right": {"type": "lucene", "text": "y"}}`,
		"bad_nested":        `{"op": "NOT", "right": {"type": "dismax", "text": "x", "qf": [{"field": "a", "weight": 0}]}}`,
	}

	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			var e Expr
			require.NoError(t, json.Unmarshal([]byte(body), &e))
			_, err := e.Build()
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestExprTexts(t *testing.T) {
	var e Expr
	require.NoError(t, json.Unmarshal([]byte(compoundJSON), &e))

	texts := e.Texts()
	require.Len(t, texts, 2)
	*texts[1] = "lucene"
	assert.Equal(t, "lucene", e.Right.Right.Text)
}
