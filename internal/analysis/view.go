package analysis

import (
	"github.com/runnerr0/rankscope/internal/table"
)

// TableView is the JSON form of a table: a header plus positional rows.
type TableView struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTableView copies t into its JSON form.
func NewTableView(t *table.Table) TableView {
	v := TableView{Columns: t.Columns, Rows: make([][]any, len(t.Rows))}
	for i, r := range t.Rows {
		v.Rows[i] = r.Values
	}
	return v
}

// ProgressiveView adds the rendered percent strings to a progressive
// aggregate.
type ProgressiveView struct {
	ProgressiveAggregate
	TrafficSplit string `json:"traffic_split"`
	URLSplit     string `json:"url_split"`
}

// SkippedURL is the JSON form of a recovered UnparsableURLError.
type SkippedURL struct {
	Line  int    `json:"line"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ReportView is the JSON document produced for a report by the CLI and the
// HTTP server.
type ReportView struct {
	RunID       string            `json:"run_id,omitempty"`
	Params      Params            `json:"params"`
	InputRows   int               `json:"input_rows"`
	MatchedRows int               `json:"matched_rows"`
	Summary     []SummaryRow      `json:"summary"`
	Categories  Summary           `json:"categories"`
	Paths       []PathAggregate   `json:"paths"`
	Progressive []ProgressiveView `json:"progressive_paths"`
	SkippedURLs []SkippedURL      `json:"skipped_urls"`
	Filtered    *TableView        `json:"filtered,omitempty"`
}

// View builds the JSON document for r. The filtered rows are included only
// when withRows is set.
func (r *Report) View(runID string, withRows bool) ReportView {
	v := ReportView{
		RunID:       runID,
		Params:      r.Params,
		InputRows:   r.InputRows,
		MatchedRows: r.Filtered.Len(),
		Summary:     r.Summary.Rows(),
		Categories:  r.Summary,
		Paths:       r.Paths,
		Progressive: make([]ProgressiveView, len(r.Progressive)),
		SkippedURLs: make([]SkippedURL, len(r.SkippedURLs)),
	}
	if v.Paths == nil {
		v.Paths = []PathAggregate{}
	}
	for i, p := range r.Progressive {
		v.Progressive[i] = ProgressiveView{ProgressiveAggregate: p, TrafficSplit: p.TrafficSplit(), URLSplit: p.URLSplit()}
	}
	for i, s := range r.SkippedURLs {
		v.SkippedURLs[i] = SkippedURL{Line: s.Line, URL: s.URL, Error: s.Err.Error()}
	}
	if withRows {
		tv := NewTableView(r.Filtered)
		v.Filtered = &tv
	}
	return v
}
