package config

import "strings"

// DefaultURLCandidates returns the header names tried, in order, for the
// ranking URL column. Dragon Metrics exports use "Ranking URL".
func DefaultURLCandidates() []string {
	return []string{
		"Ranking URL",
		"URL",
		"Landing Page",
		"Page",
		"Address",
	}
}

// DefaultTrafficCandidates returns the header names tried for the traffic
// column.
func DefaultTrafficCandidates() []string {
	return []string{
		"Traffic Index",
		"Traffic",
		"Estimated Traffic",
		"Est. Traffic",
		"Clicks",
		"Search Volume",
	}
}

// DefaultKeywordCandidates returns the header names tried for the
// translated keyword column.
func DefaultKeywordCandidates() []string {
	return []string{
		"Translation",
		"Keyword Translation",
		"Translated Keyword",
		"Keyword",
		"Query",
	}
}

// ResolveColumn picks a column name for one role. An explicit name always
// wins, even when the header lacks it, so the caller sees the missing
// column. Otherwise the configured name is used when present, then the
// first candidate present (case-insensitive), then the first header column.
// An empty header yields "".
func ResolveColumn(header []string, explicit, configured string, candidates []string) string {
	if explicit != "" {
		return explicit
	}
	if configured != "" {
		for _, h := range header {
			if h == configured {
				return h
			}
		}
	}
	for _, c := range candidates {
		for _, h := range header {
			if strings.EqualFold(h, c) {
				return h
			}
		}
	}
	if len(header) > 0 {
		return header[0]
	}
	return ""
}

// Resolved is the column assignment for one input table.
type Resolved struct {
	URL     string `json:"url_column"`
	Traffic string `json:"traffic_column"`
	Keyword string `json:"keyword_column"`
}

// Resolve assigns all three roles against header. Explicit names come from
// command-line flags or request parameters and may be empty.
func (c ColumnsConfig) Resolve(header []string, explicitURL, explicitTraffic, explicitKeyword string) Resolved {
	return Resolved{
		URL:     ResolveColumn(header, explicitURL, c.URL, c.URLCandidates),
		Traffic: ResolveColumn(header, explicitTraffic, c.Traffic, c.TrafficCandidates),
		Keyword: ResolveColumn(header, explicitKeyword, c.Keyword, c.KeywordCandidates),
	}
}
