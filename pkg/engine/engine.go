// Package engine implements the two-phase wikitext processing the pipeline
// drives: phase 1 expands markup, phase 2 structures expanded content into
// dictionary records.
package engine

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lexglot/wiktex/models"
	"github.com/lexglot/wiktex/pkg/stats"
)

const expansionCacheSize = 8192

// Emit receives one extracted record. The engine invokes it zero or more
// times per page and returns control when the page is done; invocations
// never overlap.
type Emit func(models.Entry)

// Config wires the engine to the orchestrator-owned run state.
type Config struct {
	// Overrides replaces the content of named pages before any lookup.
	// Owned by the orchestrator; consulted before dump content for the
	// remainder of the run.
	Overrides map[string]string
	// Redirects maps alias titles to canonical targets.
	Redirects map[string]string
	// Selected is the language capture scope; nil selects every language.
	Selected map[string]bool
	Capture  models.Capture
	// Threads is a parallelism hint. The current expander is synchronous,
	// so it is recorded but unused.
	Threads  int
	Issues   *models.IssueLog
	Counters *stats.Counters
}

// Engine expands wikitext and extracts dictionary records from it.
type Engine struct {
	cfg Config

	// Template and module bodies gathered during the dump scan. Override
	// content never lands here, so it keeps precedence.
	templates map[string]string

	// category name -> member titles, for the category-tree export.
	catMembers map[string]map[string]bool

	expansions     *lru.Cache[string, string]
	headingSamples *stats.Samples
	fieldTotals    *stats.FieldValueTotals
}

func New(cfg Config) (*Engine, error) {
	cache, err := lru.New[string, string](expansionCacheSize)
	if err != nil {
		return nil, err
	}
	if cfg.Issues == nil {
		cfg.Issues = &models.IssueLog{}
	}
	if cfg.Counters == nil {
		cfg.Counters = stats.NewCounters()
	}
	return &Engine{
		cfg:            cfg,
		templates:      make(map[string]string),
		catMembers:     make(map[string]map[string]bool),
		expansions:     cache,
		headingSamples: stats.NewSamples(),
		fieldTotals:    stats.NewFieldValueTotals(),
	}, nil
}

// Learn records template and module bodies seen during the dump scan so
// later expansions can substitute them. Pages with override content are
// skipped; the override stays authoritative for the whole run.
func (e *Engine) Learn(title, text string) {
	if !strings.HasPrefix(title, "Template:") && !strings.HasPrefix(title, "Module:") {
		return
	}
	if _, ok := e.cfg.Overrides[title]; ok {
		return
	}
	e.templates[title] = text
}

// resolvePage returns the effective body for a named template or module:
// override first, then redirect chase, then dump content.
func (e *Engine) resolvePage(name string) (string, bool) {
	for hops := 0; hops < 5; hops++ {
		if body, ok := e.cfg.Overrides[name]; ok {
			return body, true
		}
		if body, ok := e.templates[name]; ok {
			return body, true
		}
		target, ok := e.cfg.Redirects[name]
		if !ok {
			return "", false
		}
		name = target
	}
	return "", false
}

// Templates returns the Template: pages collected during the scan,
// including overridden ones at their effective content.
func (e *Engine) Templates() map[string]string { return e.pagesWithPrefix("Template:") }

// Modules returns the Module: pages collected during the scan.
func (e *Engine) Modules() map[string]string { return e.pagesWithPrefix("Module:") }

func (e *Engine) pagesWithPrefix(prefix string) map[string]string {
	out := make(map[string]string)
	for title, body := range e.templates {
		if strings.HasPrefix(title, prefix) {
			out[title] = body
		}
	}
	for title, body := range e.cfg.Overrides {
		if strings.HasPrefix(title, prefix) {
			out[title] = body
		}
	}
	return out
}

// Categories returns the category tree observed during extraction: category
// name to sorted member titles.
func (e *Engine) Categories() map[string][]string {
	out := make(map[string][]string, len(e.catMembers))
	for cat, members := range e.catMembers {
		names := make([]string, 0, len(members))
		for m := range members {
			names = append(names, m)
		}
		sort.Strings(names)
		out[cat] = names
	}
	return out
}

// Counters returns the flat counters fed during extraction.
func (e *Engine) Counters() *stats.Counters { return e.cfg.Counters }

// HeadingSamples returns the per-heading page-title evidence recorded during
// extraction, for the flat top-N report.
func (e *Engine) HeadingSamples() *stats.Samples { return e.headingSamples }

// FieldTotals returns the language × field × value aggregate recorded during
// extraction, for the two-level report.
func (e *Engine) FieldTotals() *stats.FieldValueTotals { return e.fieldTotals }
