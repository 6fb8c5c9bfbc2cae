package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Columns: ColumnsConfig{
			URLCandidates:     DefaultURLCandidates(),
			TrafficCandidates: DefaultTrafficCandidates(),
			KeywordCandidates: DefaultKeywordCandidates(),
		},
		Criteria: CriteriaConfig{
			URLPath:    "/compressors",
			Keywords:   "compressor",
			MinTraffic: 0,
		},
		Export: ExportConfig{
			SheetName:         "Results",
			XLSXFile:          "rankscope_results.xlsx",
			SQLitePath:        "",
			SQLiteJournalMode: "wal",
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8722,
			MaxUploadSize:  20 << 20,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
