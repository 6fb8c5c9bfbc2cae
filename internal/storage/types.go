package storage

import (
	"time"

	"github.com/runnerr0/rankscope/internal/analysis"
)

// RunRecord is one analysis pass to be written to the export database.
type RunRecord struct {
	ID        string // generated when empty
	Source    string // input file name
	CreatedAt time.Time
	Report    *analysis.Report
}

// Path aggregate kinds stored in path_aggregates.kind.
const (
	KindFull        = "full"
	KindProgressive = "progressive"
)
