package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/rankscope/internal/analysis"
	"github.com/runnerr0/rankscope/internal/config"
	"github.com/runnerr0/rankscope/internal/storage"
	"github.com/runnerr0/rankscope/internal/table"
)

const (
	barWidth        = 30
	maxSubfolderLen = 60
)

// Path workbook sheet names.
const (
	sheetSubfolders  = "Subfolders"
	sheetProgressive = "Progressive Subfolders"
)

// analyzeJSON is the JSON output structure for the analyze command.
type analyzeJSON struct {
	analysis.ReportView
	Source  string          `json:"source"`
	Columns config.Resolved `json:"columns"`
	Outputs []string        `json:"outputs,omitempty"`
}

// Execute implements the go-flags Commander interface for AnalyzeCommand.
func (c *AnalyzeCommand) Execute(args []string) error {
	path, err := singleFile("analyze", args)
	if err != nil {
		return err
	}

	cfg, _, err := prepare(c.globals)
	if err != nil {
		return err
	}

	return c.executeWithConfig(context.Background(), cfg, path)
}

// executeWithConfig runs the analysis against a provided config (for testing).
func (c *AnalyzeCommand) executeWithConfig(ctx context.Context, cfg *config.Config, path string) error {
	t, err := table.ReadFile(path)
	if err != nil {
		return err
	}

	cols := cfg.Columns.Resolve(t.Columns, c.URLColumn, c.TrafficColumn, c.KeywordColumn)
	params := c.params(cfg, cols)

	slog.Debug("starting analysis",
		"file", path,
		"rows", t.Len(),
		"url_column", cols.URL,
		"traffic_column", cols.Traffic,
		"keyword_column", cols.Keyword)

	report, err := analysis.Run(t, params)
	if err != nil {
		return err
	}

	slog.Info("analysis complete",
		"file", filepath.Base(path),
		"input_rows", report.InputRows,
		"matched_rows", report.Filtered.Len(),
		"paths", len(report.Paths),
		"skipped_urls", len(report.SkippedURLs))

	var runID string
	var outputs []string
	if report.Empty() {
		slog.Warn("no rows matched; skipping exports", "file", path)
	} else {
		runID, outputs, err = c.export(ctx, cfg, path, report)
		if err != nil {
			return err
		}
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(analyzeJSON{
			ReportView: report.View(runID, true),
			Source:     path,
			Columns:    cols,
			Outputs:    outputs,
		})
	}
	return c.printHuman(path, report, outputs)
}

// params merges flags over the configured criteria. Flags that were not
// given keep the config values; a flag given as "" clears the criterion.
func (c *AnalyzeCommand) params(cfg *config.Config, cols config.Resolved) analysis.Params {
	p := analysis.Params{
		URLColumn:     cols.URL,
		TrafficColumn: cols.Traffic,
		KeywordColumn: cols.Keyword,
		URLPathQuery:  cfg.Criteria.URLPath,
		Keywords:      cfg.Criteria.Keywords,
		MinTraffic:    cfg.Criteria.MinTraffic,
	}
	if c.URLPath != nil {
		p.URLPathQuery = *c.URLPath
	}
	if c.Keywords != nil {
		p.Keywords = *c.Keywords
	}
	if c.MinTraffic != nil {
		p.MinTraffic = *c.MinTraffic
	}
	return p
}

// export writes the requested output files and the SQLite report. It
// returns the run ID (empty when no database was written) and the paths
// written.
func (c *AnalyzeCommand) export(ctx context.Context, cfg *config.Config, source string, r *analysis.Report) (string, []string, error) {
	var outputs []string

	if c.Out != "" {
		if err := writeTableFile(c.Out, r.Filtered, cfg.Export.SheetName); err != nil {
			return "", nil, err
		}
		outputs = append(outputs, c.Out)
	}

	if c.PathsOut != "" {
		sheets := []table.Sheet{
			{Name: sheetSubfolders, Table: analysis.PathTable(r.Paths)},
			{Name: sheetProgressive, Table: analysis.ProgressiveTable(r.Progressive)},
		}
		if err := writeWorkbookFile(c.PathsOut, sheets); err != nil {
			return "", nil, err
		}
		outputs = append(outputs, c.PathsOut)
	}

	dbPath := c.SQLite
	if dbPath == "" {
		dbPath = cfg.Export.SQLitePath
	}
	if dbPath == "" {
		return "", outputs, nil
	}

	store, err := storage.Open(ctx, dbPath, cfg.Export.SQLiteJournalMode)
	if err != nil {
		return "", nil, err
	}
	defer store.Close()

	runID, err := store.SaveReport(ctx, &storage.RunRecord{Source: filepath.Base(source), Report: r})
	if err != nil {
		return "", nil, fmt.Errorf("save report to %s: %w", dbPath, err)
	}
	slog.Info("report saved", "database", dbPath, "run_id", runID)

	return runID, append(outputs, dbPath), nil
}

// writeTableFile writes t as xlsx, or as CSV when path ends in .csv.
func writeTableFile(path string, t *table.Table, sheet string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = table.WriteCSV(f, t)
	} else {
		err = table.WriteXLSX(f, t, sheet)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func writeWorkbookFile(path string, sheets []table.Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := table.WriteWorkbook(f, sheets); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (c *AnalyzeCommand) printHuman(path string, r *analysis.Report, outputs []string) error {
	p := r.Params

	fmt.Printf("rankscope %s\n", filepath.Base(path))
	fmt.Println(strings.Repeat("=", len("rankscope ")+len(filepath.Base(path))))
	fmt.Printf("Rows:          %s (%s matched)\n", humanize.Comma(int64(r.InputRows)), humanize.Comma(int64(r.Filtered.Len())))
	fmt.Printf("Columns:       URL=%q  Traffic=%q  Keyword=%q\n", p.URLColumn, p.TrafficColumn, p.KeywordColumn)
	fmt.Printf("Criteria:      URL contains %q; keywords %q\n", p.URLPathQuery, p.Keywords)
	if p.MinTraffic > 0 {
		fmt.Printf("Min traffic:   %s\n", humanize.Ftoa(p.MinTraffic))
	}

	if r.Empty() {
		fmt.Println()
		fmt.Println("No matching data found for the given criteria.")
		return nil
	}

	fmt.Println()
	fmt.Println("Summary:")
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range r.Summary.Rows() {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", row.Dimension, formatTraffic(row.Traffic), row.Meaning)
	}
	tw.Flush()

	total := r.Summary.Total().Traffic
	fmt.Println()
	fmt.Println("Traffic by category:")
	tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range r.Summary.Rows()[:3] {
		share := 0.0
		if total != 0 {
			share = row.Traffic / total * 100
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", row.Dimension, bar(share, barWidth), analysis.FormatPercent(share))
	}
	tw.Flush()

	c.printPaths(r.Paths)
	c.printProgressive(r.Progressive)

	if n := len(r.SkippedURLs); n > 0 {
		fmt.Println()
		fmt.Printf("Skipped:       %s row(s) with unparsable URLs (see --verbose)\n", humanize.Comma(int64(n)))
	}

	if len(outputs) > 0 {
		fmt.Println()
		for _, o := range outputs {
			fmt.Printf("Wrote:         %s\n", o)
		}
	}
	return nil
}

func (c *AnalyzeCommand) limit(n int) int {
	if c.Top <= 0 || c.Top > n {
		return n
	}
	return c.Top
}

func (c *AnalyzeCommand) printPaths(paths []analysis.PathAggregate) {
	fmt.Println()
	n := c.limit(len(paths))
	fmt.Printf("Subfolders (%d of %d):\n", n, len(paths))
	if n == 0 {
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Total Traffic\tNumber of URLs\t\tSubfolder")
	for _, a := range paths[:n] {
		fmt.Fprintf(tw, "%s\t%s\t\t%s\n", formatTraffic(a.Traffic), humanize.Comma(int64(a.URLs)), truncate(a.Path, maxSubfolderLen))
	}
	tw.Flush()
}

func (c *AnalyzeCommand) printProgressive(prog []analysis.ProgressiveAggregate) {
	fmt.Println()
	n := c.limit(len(prog))
	fmt.Printf("Progressive subfolders (%d of %d):\n", n, len(prog))
	if n == 0 {
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Total Traffic\tNumber of URLs\tTraffic Split\tURL Split\t\tSubfolder")
	for _, a := range prog[:n] {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\t%s\n",
			formatTraffic(a.Traffic), humanize.Comma(int64(a.URLs)),
			a.TrafficSplit(), a.URLSplit(), truncate(a.Path, maxSubfolderLen))
	}
	tw.Flush()
}
