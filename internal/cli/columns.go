package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/runnerr0/rankscope/internal/config"
	"github.com/runnerr0/rankscope/internal/table"
)

// columnsJSON is the JSON output structure for the columns command.
type columnsJSON struct {
	Source   string          `json:"source"`
	Rows     int             `json:"rows"`
	Columns  []string        `json:"columns"`
	Resolved config.Resolved `json:"resolved"`
}

// Execute implements the go-flags Commander interface for ColumnsCommand.
func (c *ColumnsCommand) Execute(args []string) error {
	path, err := singleFile("columns", args)
	if err != nil {
		return err
	}

	cfg, _, err := prepare(c.globals)
	if err != nil {
		return err
	}

	return c.executeWithConfig(cfg, path)
}

// executeWithConfig lists columns against a provided config (for testing).
func (c *ColumnsCommand) executeWithConfig(cfg *config.Config, path string) error {
	t, err := table.ReadFile(path)
	if err != nil {
		return err
	}

	resolved := cfg.Columns.Resolve(t.Columns, "", "", "")

	if c.globals != nil && c.globals.JSON {
		return printJSON(columnsJSON{
			Source:   path,
			Rows:     t.Len(),
			Columns:  t.Columns,
			Resolved: resolved,
		})
	}

	fmt.Printf("%s: %d columns, %d rows\n\n", path, len(t.Columns), t.Len())

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, name := range t.Columns {
		fmt.Fprintf(tw, "  %d\t%s\t%s\n", i+1, name, roles(name, resolved))
	}
	return tw.Flush()
}

// roles labels the roles a column was resolved to, e.g. "<- url, keyword".
func roles(name string, r config.Resolved) string {
	var out []string
	if name == r.URL {
		out = append(out, "url")
	}
	if name == r.Traffic {
		out = append(out, "traffic")
	}
	if name == r.Keyword {
		out = append(out, "keyword")
	}
	if len(out) == 0 {
		return ""
	}
	return "<- " + strings.Join(out, ", ")
}
