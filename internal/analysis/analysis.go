package analysis

import (
	"log/slog"

	"github.com/runnerr0/rankscope/internal/table"
)

// Params selects the columns and criteria of one analysis pass.
type Params struct {
	URLColumn     string  `json:"url_column"`
	TrafficColumn string  `json:"traffic_column"`
	KeywordColumn string  `json:"keyword_column"`
	URLPathQuery  string  `json:"url_path"`
	Keywords      string  `json:"keywords"`
	MinTraffic    float64 `json:"min_traffic"`
}

// Report is the full result of one pass.
type Report struct {
	Params      Params
	InputRows   int
	Filtered    *table.Table
	Matches     []MatchResult
	Summary     Summary
	Paths       []PathAggregate
	Progressive []ProgressiveAggregate
	SkippedURLs []*UnparsableURLError
}

// Run classifies t, applies the optional minimum-traffic filter, then
// summarizes and aggregates the surviving rows. t is not modified.
func Run(t *table.Table, p Params) (*Report, error) {
	c, err := Classify(t, p.URLColumn, p.TrafficColumn, p.KeywordColumn, p.URLPathQuery, SplitKeywords(p.Keywords))
	if err != nil {
		return nil, err
	}

	if p.MinTraffic > 0 {
		c = c.filterTraffic(p.TrafficColumn, p.MinTraffic)
	}

	sum, err := Summarize(c, p.TrafficColumn)
	if err != nil {
		return nil, err
	}

	paths, err := aggregatePaths(c.Table, p.URLColumn, p.TrafficColumn)
	if err != nil {
		return nil, err
	}

	slog.Debug("analysis pass complete",
		"input_rows", t.Len(),
		"matched_rows", c.Table.Len(),
		"paths", len(paths.paths),
		"progressive_paths", len(paths.progressive),
		"skipped_urls", len(paths.skipped))

	return &Report{
		Params:      p,
		InputRows:   t.Len(),
		Filtered:    c.Table,
		Matches:     c.Matches,
		Summary:     sum,
		Paths:       paths.paths,
		Progressive: paths.progressive,
		SkippedURLs: paths.skipped,
	}, nil
}

// filterTraffic keeps rows whose traffic is at least threshold.
func (c *Classified) filterTraffic(trafficColumn string, threshold float64) *Classified {
	ix := c.Table.Index(trafficColumn)
	out := &Classified{Table: table.New(c.Table.Columns)}
	for i, row := range c.Table.Rows {
		if Traffic(row.Cell(ix)) >= threshold {
			out.Table.Rows = append(out.Table.Rows, row)
			out.Matches = append(out.Matches, c.Matches[i])
		}
	}
	return out
}

// Empty reports whether no row matched.
func (r *Report) Empty() bool {
	return r.Filtered.Len() == 0
}

// PathTable renders full-path aggregates with the Subfolder, Total Traffic
// and Number of URLs columns.
func PathTable(aggs []PathAggregate) *table.Table {
	t := table.New([]string{"Subfolder", "Total Traffic", "Number of URLs"})
	for _, a := range aggs {
		t.Append(0, a.Path, a.Traffic, float64(a.URLs))
	}
	return t
}

// ProgressiveTable renders progressive aggregates, adding the Traffic Split
// and URL Split percent columns.
func ProgressiveTable(aggs []ProgressiveAggregate) *table.Table {
	t := table.New([]string{"Subfolder", "Total Traffic", "Number of URLs", "Traffic Split", "URL Split"})
	for _, a := range aggs {
		t.Append(0, a.Path, a.Traffic, float64(a.URLs), a.TrafficSplit(), a.URLSplit())
	}
	return t
}
