package query

import (
	"strings"

	"github.com/amankumarsingh77/solr_query/pkg/solrquery"
	"golang.org/x/text/unicode/norm"
)

// normalizeExpr rewrites every leaf text of e to NFC with surrounding and repeated
// whitespace collapsed, so visually identical texts share one placeholder and one
// cache entry. Case and punctuation are left alone; analysis is Solr's job.
func normalizeExpr(e *solrquery.Expr) {
	for _, text := range e.Texts() {
		*text = normalizeText(*text)
	}
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
