package pipeline

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lexglot/wiktex/pkg/stats"
)

// writeArtifacts emits the independently-triggered side artifacts after the
// main pipeline has returned: module dump, template dump, category tree and
// the error collections. Each is best-effort and logged on failure; a
// consumer may want any subset.
func (p *Pipeline) writeArtifacts() {
	if p.cfg.ModulesPath != "" {
		p.writeYAML(p.cfg.ModulesPath, p.engine.Modules())
	}
	if p.cfg.TemplatesPath != "" {
		p.writeYAML(p.cfg.TemplatesPath, p.engine.Templates())
	}
	if p.cfg.CategoriesPath != "" {
		p.writeYAML(p.cfg.CategoriesPath, p.engine.Categories())
	}
	if p.cfg.ErrorsPath != "" {
		p.writeYAML(p.cfg.ErrorsPath, p.issues)
	}
}

func (p *Pipeline) writeYAML(path string, v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		p.logger.Error("failed to marshal artifact", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.logger.Error("failed to write artifact", "path", path, "error", err)
	}
}

// WriteStatistics renders the operator-facing counter reports. Read-only
// snapshots over the full tables, resorted on every call.
func (p *Pipeline) WriteStatistics(w io.Writer, topN int) {
	counters := p.engine.Counters()
	samples := p.engine.HeadingSamples().Map()

	fmt.Fprintf(w, "Records written: %d\n", p.RecordCount())

	fmt.Fprintf(w, "\nLanguages (top %d):\n", topN)
	stats.WriteTop(w, counters.Languages, nil, topN)

	fmt.Fprintf(w, "\nSection headings (top %d):\n", topN)
	stats.WriteTop(w, counters.Sections, samples, topN)

	fmt.Fprintf(w, "\nSubsection headings (top %d):\n", topN)
	stats.WriteTop(w, counters.Subsections, samples, topN)

	fmt.Fprintf(w, "\nField values across languages (top %d):\n", topN)
	p.engine.FieldTotals().WriteTopPairs(w, topN)
}
