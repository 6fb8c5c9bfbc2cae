package analysis

import (
	"github.com/runnerr0/rankscope/internal/table"
)

// Summary dimension labels.
const (
	DimURLOnly     = "URL matches only"
	DimKeywordOnly = "Translation matches only"
	DimBoth        = "URL AND Translation matches"
	DimTotal       = "TOTAL relevant traffic (URL OR Translation)"
)

// CategoryTotal is the traffic and row count of one category.
type CategoryTotal struct {
	Traffic float64 `json:"traffic"`
	Rows    int     `json:"rows"`
}

// Summary totals traffic per category of a classified table.
type Summary struct {
	URLOnly     CategoryTotal `json:"url_only"`
	KeywordOnly CategoryTotal `json:"keyword_only"`
	Both        CategoryTotal `json:"both"`
}

// Total is the sum over the three matching categories.
func (s Summary) Total() CategoryTotal {
	return CategoryTotal{
		Traffic: s.URLOnly.Traffic + s.KeywordOnly.Traffic + s.Both.Traffic,
		Rows:    s.URLOnly.Rows + s.KeywordOnly.Rows + s.Both.Rows,
	}
}

// SummaryRow is one line of the rendered summary.
type SummaryRow struct {
	Dimension string  `json:"dimension"`
	Traffic   float64 `json:"traffic"`
	Meaning   string  `json:"meaning"`
}

// Rows returns the four summary lines in display order.
func (s Summary) Rows() []SummaryRow {
	return []SummaryRow{
		{DimURLOnly, s.URLOnly.Traffic, "Traffic where only the URL matched"},
		{DimKeywordOnly, s.KeywordOnly.Traffic, "Traffic where only the Keyword matched"},
		{DimBoth, s.Both.Traffic, "Traffic where both conditions were met"},
		{DimTotal, s.Total().Traffic, "Sum of all traffic matching either condition"},
	}
}

// Summarize totals the traffic column of c per category.
func Summarize(c *Classified, trafficColumn string) (Summary, error) {
	ix := c.Table.Index(trafficColumn)
	if ix < 0 {
		return Summary{}, &MissingColumnError{Columns: []string{trafficColumn}}
	}

	var s Summary
	for i, row := range c.Table.Rows {
		traffic := Traffic(row.Cell(ix))
		var ct *CategoryTotal
		switch c.Matches[i].Category {
		case URLOnly:
			ct = &s.URLOnly
		case KeywordOnly:
			ct = &s.KeywordOnly
		case Both:
			ct = &s.Both
		default:
			continue
		}
		ct.Traffic += traffic
		ct.Rows++
	}
	return s, nil
}

// SummaryTable renders s as a Dimension / Traffic / Meaning table. Traffic
// is truncated to a whole number.
func SummaryTable(s Summary) *table.Table {
	t := table.New([]string{"Dimension", "Traffic", "Meaning"})
	for _, r := range s.Rows() {
		t.Append(0, r.Dimension, float64(int64(r.Traffic)), r.Meaning)
	}
	return t
}
