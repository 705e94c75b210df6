// Package models defines the shared data types for the extraction pipeline.
package models

// RunMode selects the top-level pipeline pass. Exactly one mode is resolved
// from CLI arguments at startup; nothing downstream re-inspects flag presence.
type RunMode int

const (
	// ModeFullDump streams every page from the source dump.
	ModeFullDump RunMode = iota
	// ModeCacheReplay re-runs extraction over previously cached expansions.
	ModeCacheReplay
	// ModeSinglePage runs the full pipeline on one saved page file.
	ModeSinglePage
)

func (m RunMode) String() string {
	switch m {
	case ModeFullDump:
		return "full-dump"
	case ModeCacheReplay:
		return "cache-replay"
	case ModeSinglePage:
		return "single-page"
	}
	return "unknown"
}

// Capture holds the per-category extraction switches.
type Capture struct {
	Translations   bool
	Pronunciations bool
	Linkages       bool
	Compounds      bool
	Redirects      bool
	Examples       bool
	Etymologies    bool
	Inflections    bool
}

// AllCapture returns a Capture with every category enabled.
func AllCapture() Capture {
	return Capture{
		Translations:   true,
		Pronunciations: true,
		Linkages:       true,
		Compounds:      true,
		Redirects:      true,
		Examples:       true,
		Etymologies:    true,
		Inflections:    true,
	}
}

// RunConfig is resolved once from CLI flags before any page is processed.
// It is immutable for the duration of the run.
type RunConfig struct {
	Mode RunMode

	DumpPath    string // ModeFullDump
	PagePath    string // ModeSinglePage, or phase-1-only target in ModeFullDump
	CachePrefix string // enables the phase-1 cache; ModeCacheReplay reads it

	OutPath       string // "-" or empty for stdout
	ErrorsPath    string
	PagesDir      string // archival root; empty disables archival
	RedirectsPath string
	OverridePaths []string

	CategoriesPath string
	ModulesPath    string
	TemplatesPath  string

	// Languages is the capture scope; nil selects every language.
	Languages map[string]bool
	Capture   Capture

	NumThreads    int
	HumanReadable bool
	Profile       bool
	Statistics    bool
	Verbose       bool
}
