package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/runnerr0/rankscope/internal/analysis"
	"github.com/runnerr0/rankscope/internal/table"
)

const maxPreviewCell = 40

// Execute implements the go-flags Commander interface for PreviewCommand.
func (c *PreviewCommand) Execute(args []string) error {
	path, err := singleFile("preview", args)
	if err != nil {
		return err
	}
	if c.Rows < 0 {
		return fmt.Errorf("--rows must not be negative")
	}

	if _, _, err := prepare(c.globals); err != nil {
		return err
	}

	return c.executeWithFile(path)
}

// executeWithFile prints the preview of path.
func (c *PreviewCommand) executeWithFile(path string) error {
	t, err := table.ReadFile(path)
	if err != nil {
		return err
	}

	head := t.Head(c.Rows)

	if c.globals != nil && c.globals.JSON {
		return printJSON(analysis.NewTableView(head))
	}

	fmt.Printf("%s: showing %d of %d rows\n\n", path, head.Len(), t.Len())

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(head.Columns, "\t"))
	cells := make([]string, len(head.Columns))
	for _, row := range head.Rows {
		for i := range cells {
			cells[i] = truncate(formatCell(row.Cell(i)), maxPreviewCell)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
