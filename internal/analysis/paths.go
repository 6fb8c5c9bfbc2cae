package analysis

import (
	"errors"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/runnerr0/rankscope/internal/table"
)

// PathAggregate is the traffic and URL count for one exact URL path.
type PathAggregate struct {
	Path    string  `json:"path"`
	Traffic float64 `json:"traffic"`
	URLs    int     `json:"urls"`
}

// ProgressiveAggregate is a PathAggregate for a path prefix, plus its share
// of the total across all prefixes.
type ProgressiveAggregate struct {
	Path         string  `json:"path"`
	Traffic      float64 `json:"traffic"`
	URLs         int     `json:"urls"`
	TrafficShare float64 `json:"traffic_share"`
	URLShare     float64 `json:"url_share"`
}

// TrafficSplit renders TrafficShare as a percent string, e.g. "66.67%".
func (p ProgressiveAggregate) TrafficSplit() string { return FormatPercent(p.TrafficShare) }

// URLSplit renders URLShare as a percent string.
func (p ProgressiveAggregate) URLSplit() string { return FormatPercent(p.URLShare) }

// FormatPercent rounds v to two decimals, half to even, and renders it with
// at least one fractional digit: 100 → "100.0%", 33.333 → "33.33%".
func FormatPercent(v float64) string {
	r := math.RoundToEven(v*100) / 100
	if r == 0 {
		r = 0
	}
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s + "%"
}

// errBadHost reports an authority with an unbalanced IPv6 bracket.
var errBadHost = errors.New("invalid IPv6 host")

// URLPath extracts the path component of a URL cell exactly as written:
// percent escapes are not decoded, so "%2F" stays inside its segment.
// Scheme, authority, query and fragment are dropped. Absent and non-text
// values yield "".
func URLPath(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", nil
	}
	s = urlNoise.Replace(strings.TrimSpace(s))

	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = stripScheme(s)

	if !strings.HasPrefix(s, "//") {
		return s, nil
	}
	host, path := s[2:], ""
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host, path = host[:i], host[i:]
	}
	if strings.Contains(host, "[") != strings.Contains(host, "]") {
		return "", errBadHost
	}
	return path, nil
}

// urlNoise removes the tab and newline characters browsers ignore in URLs.
var urlNoise = strings.NewReplacer("\t", "", "\r", "", "\n", "")

// stripScheme drops a leading "scheme:" when s starts with a letter and the
// text before the first colon is made of scheme characters.
func stripScheme(s string) string {
	i := strings.IndexByte(s, ':')
	if i <= 0 || !isLetter(s[0]) {
		return s
	}
	for j := 1; j < i; j++ {
		c := s[j]
		if !isLetter(c) && !('0' <= c && c <= '9') && c != '+' && c != '-' && c != '.' {
			return s
		}
	}
	return s[i+1:]
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Segments splits a path into its non-empty components.
func Segments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Prefixes returns every cumulative prefix of segs, each with a leading and
// trailing slash: [a b] → ["/a/", "/a/b/"].
func Prefixes(segs []string) []string {
	out := make([]string, len(segs))
	var b strings.Builder
	b.WriteByte('/')
	for i, s := range segs {
		b.WriteString(s)
		b.WriteByte('/')
		out[i] = b.String()
	}
	return out
}

// Traffic reads a traffic cell; absent and non-numeric values count as 0.
func Traffic(v any) float64 {
	f, ok := table.Numeric(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// bucket accumulates traffic and row count under a key, remembering the
// order in which keys were first seen.
type bucket struct {
	key     string
	traffic float64
	urls    int
	order   int
}

type buckets struct {
	byKey map[string]*bucket
	list  []*bucket
}

func newBuckets() *buckets {
	return &buckets{byKey: make(map[string]*bucket)}
}

func (bs *buckets) add(key string, traffic float64) {
	b, ok := bs.byKey[key]
	if !ok {
		b = &bucket{key: key, order: len(bs.list)}
		bs.byKey[key] = b
		bs.list = append(bs.list, b)
	}
	b.traffic += traffic
	b.urls++
}

// sorted returns the buckets by traffic descending. Ties keep first-seen
// order.
func (bs *buckets) sorted() []*bucket {
	out := make([]*bucket, len(bs.list))
	copy(out, bs.list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].traffic > out[j].traffic
	})
	return out
}

type pathResult struct {
	paths       []PathAggregate
	progressive []ProgressiveAggregate
	skipped     []*UnparsableURLError
}

// AggregatePaths groups rows by exact URL path and by every cumulative path
// prefix. Rows with an empty or root-only path, or an unparsable URL, are
// left out of both results. Both results are sorted by traffic descending.
func AggregatePaths(t *table.Table, urlColumn, trafficColumn string) ([]PathAggregate, []ProgressiveAggregate, error) {
	res, err := aggregatePaths(t, urlColumn, trafficColumn)
	if err != nil {
		return nil, nil, err
	}
	return res.paths, res.progressive, nil
}

func aggregatePaths(t *table.Table, urlColumn, trafficColumn string) (*pathResult, error) {
	if missing := dedupe(t.Missing(urlColumn, trafficColumn)); len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}
	urlIx := t.Index(urlColumn)
	trafficIx := t.Index(trafficColumn)

	full := newBuckets()
	prog := newBuckets()
	res := &pathResult{}

	for _, row := range t.Rows {
		raw := row.Cell(urlIx)
		path, err := URLPath(raw)
		if err != nil {
			uerr := &UnparsableURLError{Line: row.Line, URL: table.Text(raw), Err: err}
			slog.Debug("skipping row with unparsable URL", "line", row.Line, "url", uerr.URL, "error", err)
			res.skipped = append(res.skipped, uerr)
			continue
		}

		segs := Segments(path)
		if len(segs) == 0 {
			continue
		}

		traffic := Traffic(row.Cell(trafficIx))
		full.add(path, traffic)
		for _, p := range Prefixes(segs) {
			prog.add(p, traffic)
		}
	}

	for _, b := range full.sorted() {
		res.paths = append(res.paths, PathAggregate{Path: b.key, Traffic: b.traffic, URLs: b.urls})
	}

	var totalTraffic float64
	var totalURLs int
	for _, b := range prog.list {
		totalTraffic += b.traffic
		totalURLs += b.urls
	}
	for _, b := range prog.sorted() {
		res.progressive = append(res.progressive, ProgressiveAggregate{
			Path:         b.key,
			Traffic:      b.traffic,
			URLs:         b.urls,
			TrafficShare: share(b.traffic, totalTraffic),
			URLShare:     share(float64(b.urls), float64(totalURLs)),
		})
	}

	return res, nil
}

func share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}
