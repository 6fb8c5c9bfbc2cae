package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/rankscope/internal/config"
	"github.com/runnerr0/rankscope/internal/table"
)

// loadConfig loads the config named by --config, or the default config file,
// creating it with defaults on first use.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		path, err := config.ExpandPath(globals.Config)
		if err != nil {
			return nil, err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadOrCreate()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the process-wide slog logger on stderr. --verbose
// forces debug level.
func setupLogging(cfg *config.Config, globals *GlobalFlags) *slog.Logger {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if globals != nil && globals.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Logging.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// prepare loads config and logging for a command.
func prepare(globals *GlobalFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, nil, err
	}
	return cfg, setupLogging(cfg, globals), nil
}

// singleFile checks that exactly one positional FILE argument was given.
func singleFile(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s requires exactly one FILE argument (.xlsx or .csv)", cmd)
	}
	return args[0], nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatTraffic renders a traffic total as a whole number with thousands
// separators, truncating toward zero.
func formatTraffic(v float64) string {
	return humanize.Comma(int64(v))
}

// formatCell renders a table cell for terminal output.
func formatCell(v any) string {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return humanize.Comma(int64(f))
	}
	return table.Text(v)
}

// bar draws a fixed-width horizontal bar for a 0-100 share.
func bar(share float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(share / 100 * float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
