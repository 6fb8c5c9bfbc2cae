package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/rankscope/internal/analysis"
)

func TestPreview_HumanOutput(t *testing.T) {
	csvPath := writeFixture(t, "export.csv", rankingCSV)
	cmd := &PreviewCommand{Rows: 2, globals: humanGlobals()}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithFile(csvPath))
	})

	assert.Contains(t, output, "showing 2 of 5 rows")
	assert.Contains(t, output, "Traffic Index")
	assert.Contains(t, output, "1,200")
	assert.Contains(t, output, "big unit")
	assert.NotContains(t, output, "compressor tips")
}

func TestPreview_MoreRowsThanTable(t *testing.T) {
	csvPath := writeFixture(t, "export.csv", rankingCSV)
	cmd := &PreviewCommand{Rows: 100, globals: humanGlobals()}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithFile(csvPath))
	})

	assert.Contains(t, output, "showing 5 of 5 rows")
}

func TestPreview_JSON(t *testing.T) {
	csvPath := writeFixture(t, "export.csv", rankingCSV)
	cmd := &PreviewCommand{Rows: 3, globals: jsonGlobals()}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithFile(csvPath))
	})

	var view analysis.TableView
	require.NoError(t, json.Unmarshal([]byte(output), &view))
	assert.Equal(t, []string{"Keyword", "Ranking URL", "Traffic Index", "Translation"}, view.Columns)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, "k1", view.Rows[0][0])
	assert.Equal(t, 1200.0, view.Rows[0][2])
}

func TestPreview_NegativeRows(t *testing.T) {
	csvPath := writeFixture(t, "export.csv", rankingCSV)
	cmd := &PreviewCommand{Rows: -1, globals: humanGlobals()}

	err := cmd.Execute([]string{csvPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--rows")
}
