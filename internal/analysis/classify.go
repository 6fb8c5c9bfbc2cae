// Package analysis classifies keyword-ranking rows against a URL path and a
// keyword list, then rolls matched traffic up through the URL path hierarchy.
package analysis

import (
	"regexp"
	"strings"

	"github.com/runnerr0/rankscope/internal/table"
)

// Derived column names inserted before the keyword column.
const (
	ColURLMatch     = "URL Match"
	ColKeywordMatch = "Translation Match"
	ColCategory     = "Category"
)

var derivedColumns = []string{ColURLMatch, ColKeywordMatch, ColCategory}

// Category is the 4-way classification of a row.
type Category int

const (
	NoMatch Category = iota
	URLOnly
	KeywordOnly
	Both
)

func (c Category) String() string {
	switch c {
	case URLOnly:
		return "URL matches only"
	case KeywordOnly:
		return "Translation matches only"
	case Both:
		return "Both matches"
	default:
		return "No Match"
	}
}

// CategoryOf derives the category from the two match flags.
func CategoryOf(urlMatch, keywordMatch bool) Category {
	switch {
	case urlMatch && keywordMatch:
		return Both
	case urlMatch:
		return URLOnly
	case keywordMatch:
		return KeywordOnly
	default:
		return NoMatch
	}
}

// MatchResult holds the per-row match flags and the derived category.
type MatchResult struct {
	URLMatch     bool
	KeywordMatch bool
	Category     Category
}

// Matcher applies the URL and keyword predicates. Both are literal,
// case-insensitive substring matches.
type Matcher struct {
	url      *regexp.Regexp
	keywords *regexp.Regexp
}

// NewMatcher compiles the criteria. It returns ErrEmptyCriteria when the
// trimmed URL query and the keyword list are both empty.
func NewMatcher(urlPathQuery string, keywords []string) (*Matcher, error) {
	m := &Matcher{}

	if q := strings.TrimSpace(urlPathQuery); q != "" {
		m.url = regexp.MustCompile("(?i)" + regexp.QuoteMeta(q))
	}

	if kws := NormalizeKeywords(keywords); len(kws) > 0 {
		quoted := make([]string, len(kws))
		for i, k := range kws {
			quoted[i] = regexp.QuoteMeta(k)
		}
		m.keywords = regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))
	}

	if m.url == nil && m.keywords == nil {
		return nil, ErrEmptyCriteria
	}
	return m, nil
}

// Match evaluates one row's URL and keyword cells. Only text cells can
// match; absent and non-text values never do.
func (m *Matcher) Match(urlValue, keywordValue any) MatchResult {
	var r MatchResult
	if s, ok := urlValue.(string); ok && m.url != nil {
		r.URLMatch = m.url.MatchString(s)
	}
	if s, ok := keywordValue.(string); ok && m.keywords != nil {
		r.KeywordMatch = m.keywords.MatchString(s)
	}
	r.Category = CategoryOf(r.URLMatch, r.KeywordMatch)
	return r
}

// SplitKeywords splits a comma-separated keyword list, trimming entries
// and dropping empty ones.
func SplitKeywords(s string) []string {
	return NormalizeKeywords([]string{s})
}

// NormalizeKeywords splits every entry on commas, trims, and drops empty
// tokens.
func NormalizeKeywords(list []string) []string {
	var out []string
	for _, entry := range list {
		for _, kw := range strings.Split(entry, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				out = append(out, kw)
			}
		}
	}
	return out
}

// Classified is the filtered, categorized table. Matches is parallel to
// Table.Rows.
type Classified struct {
	Table   *table.Table
	Matches []MatchResult
}

// Classify flags every row of t, drops rows that match neither criterion,
// and inserts the URL Match, Translation Match and Category columns
// immediately before the keyword column. t is not modified.
func Classify(t *table.Table, urlColumn, trafficColumn, keywordColumn, urlPathQuery string, keywords []string) (*Classified, error) {
	if missing := dedupe(t.Missing(urlColumn, trafficColumn, keywordColumn)); len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}
	for _, c := range []string{urlColumn, trafficColumn, keywordColumn} {
		if isDerived(c) {
			return nil, &ColumnConflictError{Column: c}
		}
	}

	m, err := NewMatcher(urlPathQuery, keywords)
	if err != nil {
		return nil, err
	}

	layout := outputLayout(t.Columns, keywordColumn)
	columns := make([]string, len(layout))
	for i, src := range layout {
		if src < 0 {
			columns[i] = derivedColumns[-src-1]
		} else {
			columns[i] = t.Columns[src]
		}
	}

	urlIx := t.Index(urlColumn)
	kwIx := t.Index(keywordColumn)

	out := &Classified{Table: table.New(columns)}
	for _, row := range t.Rows {
		res := m.Match(row.Cell(urlIx), row.Cell(kwIx))
		if res.Category == NoMatch {
			continue
		}

		vals := make([]any, len(layout))
		for i, src := range layout {
			switch src {
			case -1:
				vals[i] = res.URLMatch
			case -2:
				vals[i] = res.KeywordMatch
			case -3:
				vals[i] = res.Category.String()
			default:
				vals[i] = row.Cell(src)
			}
		}
		out.Table.Rows = append(out.Table.Rows, table.Row{Values: vals, Line: row.Line})
		out.Matches = append(out.Matches, res)
	}

	return out, nil
}

// outputLayout maps each output position to a source column index. Derived
// columns are encoded as -1, -2, -3 in derivedColumns order. Input columns
// that share a derived name are replaced by the derived column.
func outputLayout(columns []string, keywordColumn string) []int {
	var base []int
	kwPos := 0
	for i, c := range columns {
		if isDerived(c) {
			continue
		}
		if c == keywordColumn {
			kwPos = len(base)
		}
		base = append(base, i)
	}

	layout := make([]int, 0, len(base)+len(derivedColumns))
	layout = append(layout, base[:kwPos]...)
	layout = append(layout, -1, -2, -3)
	layout = append(layout, base[kwPos:]...)
	return layout
}

func isDerived(name string) bool {
	for _, d := range derivedColumns {
		if d == name {
			return true
		}
	}
	return false
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
