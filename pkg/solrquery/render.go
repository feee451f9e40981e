package solrquery

import (
	"fmt"
	"net/url"
	"strings"
)

// Query is the rendered form of a tree: the q parameter plus one parameter per
// distinct search text.
type Query struct {
	Q      string
	Params map[string]string
}

// Render turns root into Solr request parameters.
func Render(root *Node) (*Query, error) {
	terms, err := CollectTerms(root)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	if err := renderNode(&sb, root, terms); err != nil {
		return nil, err
	}

	q := &Query{
		Q:      sb.String(),
		Params: make(map[string]string, terms.Len()+1),
	}
	q.Params["q"] = q.Q
	terms.Each(func(placeholder, text string) {
		q.Params[placeholder] = text
	})
	return q, nil
}

func renderNode(sb *strings.Builder, n *Node, terms *TermRegistry) error {
	if err := n.validate(); err != nil {
		return err
	}

	if n.leaf != nil {
		if err := renderLeaf(sb, n.leaf, terms); err != nil {
			return err
		}
	} else {
		sb.WriteByte('(')
		if n.left != nil {
			if err := renderNode(sb, n.left, terms); err != nil {
				return err
			}
			sb.WriteByte(' ')
		}
		sb.WriteString(n.op.String())
		sb.WriteByte(' ')
		if err := renderNode(sb, n.right, terms); err != nil {
			return err
		}
		sb.WriteByte(')')
	}

	if n.boost > 0 {
		sb.WriteByte('^')
		sb.WriteString(formatNumber(n.boost))
	}
	return nil
}

func renderLeaf(sb *strings.Builder, l *leaf, terms *TermRegistry) error {
	id, ok := terms.Placeholder(l.text)
	if !ok {
		return fmt.Errorf("no placeholder for leaf text: %w", ErrMalformedTree)
	}

	// Derived params go into a copy so repeated renders never see each other's state.
	params := l.params.clone()
	switch l.kind {
	case QueryTypeLucene:
		luceneParams(l, &params)
	case QueryTypeDisMax:
		dismaxParams(l, &params)
	}

	sb.WriteString(`_query_:"{!`)
	sb.WriteString(l.kind.String())
	if len(params) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(params.String())
	}
	sb.WriteString(" v=$")
	sb.WriteString(id)
	sb.WriteString(`}"`)
	return nil
}

// Values returns the parameters ready for an HTTP request.
func (q *Query) Values() url.Values {
	values := make(url.Values, len(q.Params))
	for k, v := range q.Params {
		values.Set(k, v)
	}
	return values
}

// Encode returns the percent-encoded parameters joined by '&', sorted by key.
func (q *Query) Encode() string {
	return q.Values().Encode()
}
