package query

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName implements `name_normalized = lowercase(NFKC(name))`, the
// same transform internal/ingest applies when writing gene_summary rows.
// Query-side lookups must use this exact function or name_normalized
// equality and prefix matches will silently never hit.
func NormalizeName(name string) string {
	return strings.ToLower(norm.NFKC.String(name))
}

// EscapeLikePrefix escapes '!', '%', and '_' with '!' so prefix can be used
// safely in a `LIKE ? ESCAPE '!'` clause.
func EscapeLikePrefix(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix))
	for _, r := range prefix {
		switch r {
		case '!', '%', '_':
			b.WriteByte('!')
		}
		b.WriteRune(r)
	}
	return b.String()
}
