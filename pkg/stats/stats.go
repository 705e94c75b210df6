// Package stats accumulates process-wide extraction counters and renders
// sorted operator reports over them.
package stats

import (
	"fmt"
	"io"
	"sort"
)

// Counters holds the flat per-run counters. Increment-only during the run,
// read-only once reporting begins. The pipeline touches them from a single
// logical thread, so no locking.
type Counters struct {
	Languages   map[string]int
	Sections    map[string]int
	Subsections map[string]int
}

func NewCounters() *Counters {
	return &Counters{
		Languages:   make(map[string]int),
		Sections:    make(map[string]int),
		Subsections: make(map[string]int),
	}
}

func (c *Counters) CountLanguage(name string)   { c.Languages[name]++ }
func (c *Counters) CountSection(name string)    { c.Sections[name]++ }
func (c *Counters) CountSubsection(name string) { c.Subsections[name]++ }

type kv struct {
	Key   string
	Value int
}

// sortedPairs orders a counter map by descending count; ties break on
// ascending key so reports are fully deterministic.
func sortedPairs(m map[string]int) []kv {
	ss := make([]kv, 0, len(m))
	for k, v := range m {
		ss = append(ss, kv{k, v})
	}
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Value != ss[j].Value {
			return ss[i].Value > ss[j].Value
		}
		return ss[i].Key < ss[j].Key
	})
	return ss
}

// WriteTop prints the top n keys of counts by descending count, one numbered
// line each. Every example string recorded for a key is listed under it,
// surfacing frequent-but-unexpected anomalies with concrete evidence.
// Resorts the full table on every call; snapshot-only, never incremental.
func WriteTop(w io.Writer, counts map[string]int, examples map[string][]string, n int) {
	ss := sortedPairs(counts)
	if n < len(ss) {
		ss = ss[:n]
	}
	for i, p := range ss {
		fmt.Fprintf(w, "%d. %s: %d\n", i+1, p.Key, p.Value)
		for _, ex := range examples[p.Key] {
			fmt.Fprintf(w, "   %s\n", ex)
		}
	}
}

// Samples records distinct example strings per key.
type Samples struct {
	seen map[string]map[string]bool
	m    map[string][]string
}

func NewSamples() *Samples {
	return &Samples{
		seen: make(map[string]map[string]bool),
		m:    make(map[string][]string),
	}
}

// Add records example under key, once per distinct string.
func (s *Samples) Add(key, example string) {
	if s.seen[key] == nil {
		s.seen[key] = make(map[string]bool)
	}
	if s.seen[key][example] {
		return
	}
	s.seen[key][example] = true
	s.m[key] = append(s.m[key], example)
}

// Map exposes the recorded examples keyed for WriteTop.
func (s *Samples) Map() map[string][]string { return s.m }

// FieldValueTotals is the typed language × field-name × field-value counter
// aggregate behind the two-level report.
type FieldValueTotals struct {
	counts map[string]map[string]map[string]int
}

func NewFieldValueTotals() *FieldValueTotals {
	return &FieldValueTotals{counts: make(map[string]map[string]map[string]int)}
}

// Add records one observation of value for field in lang.
func (t *FieldValueTotals) Add(lang, field, value string) {
	byField := t.counts[lang]
	if byField == nil {
		byField = make(map[string]map[string]int)
		t.counts[lang] = byField
	}
	byValue := byField[field]
	if byValue == nil {
		byValue = make(map[string]int)
		byField[field] = byValue
	}
	byValue[value]++
}

// PairTotal is one (field, value) pair with its count summed across all
// languages.
type PairTotal struct {
	Field string
	Value string
	Total int
}

// TopPairs flattens the aggregate across languages and returns the top n
// (field, value) pairs by descending total. Ties break on ascending
// field-then-value order.
func (t *FieldValueTotals) TopPairs(n int) []PairTotal {
	flat := make(map[[2]string]int)
	for _, byField := range t.counts {
		for field, byValue := range byField {
			for value, count := range byValue {
				flat[[2]string{field, value}] += count
			}
		}
	}

	pairs := make([]PairTotal, 0, len(flat))
	for k, total := range flat {
		pairs = append(pairs, PairTotal{Field: k[0], Value: k[1], Total: total})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Total != pairs[j].Total {
			return pairs[i].Total > pairs[j].Total
		}
		if pairs[i].Field != pairs[j].Field {
			return pairs[i].Field < pairs[j].Field
		}
		return pairs[i].Value < pairs[j].Value
	})

	if n < len(pairs) {
		pairs = pairs[:n]
	}
	return pairs
}

// WriteTopPairs prints the top n flattened (field, value) totals.
func (t *FieldValueTotals) WriteTopPairs(w io.Writer, n int) {
	for i, p := range t.TopPairs(n) {
		fmt.Fprintf(w, "%d. %s=%s: %d\n", i+1, p.Field, p.Value, p.Total)
	}
}
