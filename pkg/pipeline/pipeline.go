// Package pipeline drives the record-by-record extraction run: it selects
// the pass mode, wires the classifier, engine, cache and writer together,
// and owns process-wide setup and teardown.
package pipeline

import (
	"compress/bzip2"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	wikiparse "github.com/dustin/go-wikiparse"

	"github.com/lexglot/wiktex/models"
	"github.com/lexglot/wiktex/pkg/cache"
	"github.com/lexglot/wiktex/pkg/classify"
	"github.com/lexglot/wiktex/pkg/engine"
	"github.com/lexglot/wiktex/pkg/writer"
)

const progressEvery = 1000

// Pipeline is one configured extraction run.
type Pipeline struct {
	cfg    *models.RunConfig
	logger *slog.Logger

	classifier *classify.Classifier
	engine     *engine.Engine
	issues     *models.IssueLog
	cache      *cache.Cache
	out        *writer.Writer
}

// New resolves everything that must exist before the first page is
// processed: debugging overrides, the external redirect table, the engine
// and the phase-1 cache. Any failure here is a configuration error.
func New(cfg *models.RunConfig, logger *slog.Logger) (*Pipeline, error) {
	overrides, err := loadOverrides(cfg.OverridePaths)
	if err != nil {
		return nil, err
	}
	redirects, err := loadRedirects(cfg.RedirectsPath)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:        cfg,
		logger:     logger,
		issues:     &models.IssueLog{},
		classifier: classify.New(cfg.PagesDir, logger),
	}

	p.engine, err = engine.New(engine.Config{
		Overrides: overrides,
		Redirects: redirects,
		Selected:  cfg.Languages,
		Capture:   cfg.Capture,
		Threads:   cfg.NumThreads,
		Issues:    p.issues,
	})
	if err != nil {
		return nil, fmt.Errorf("construct engine: %w", err)
	}

	if cfg.CachePrefix != "" {
		p.cache, err = cache.Open(cfg.CachePrefix)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Close releases the cache handle. The output writer is owned by Run.
func (p *Pipeline) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}

// Issues exposes the accumulated error/warning/debug collections. Safe to
// snapshot only after Run has returned.
func (p *Pipeline) Issues() *models.IssueLog { return p.issues }

// RecordCount returns the number of records emitted by the last Run.
func (p *Pipeline) RecordCount() int {
	if p.out == nil {
		return 0
	}
	return p.out.Count()
}

// Run executes the configured pass. On any failure the previous successful
// output file is left untouched; the partially written temporary is
// discarded by the writer.
func (p *Pipeline) Run() error {
	stopProfile := p.startProfile()

	out, err := writer.New(p.cfg.OutPath, p.cfg.HumanReadable)
	if err != nil {
		stopProfile(err)
		return err
	}
	p.out = out

	runErr := p.runMode()
	if closeErr := out.Close(runErr == nil); runErr == nil {
		runErr = closeErr
	}

	stopProfile(runErr)

	// Side artifacts are written even after a caught processing failure;
	// the error collections are most useful exactly then.
	p.writeArtifacts()

	if runErr == nil {
		p.logger.Info("run complete",
			"mode", p.cfg.Mode.String(),
			"records", out.Count())
	}
	return runErr
}

func (p *Pipeline) runMode() error {
	switch p.cfg.Mode {
	case models.ModeFullDump:
		return p.runFullDump()
	case models.ModeCacheReplay:
		return p.runCacheReplay()
	case models.ModeSinglePage:
		return p.runSinglePage()
	}
	return fmt.Errorf("unknown run mode %d", p.cfg.Mode)
}

// runFullDump streams every page of the source dump through the classifier
// and the engine. When a single-page debug target is also configured, only
// phase 1 runs here and its results land in the cache for later passes.
func (p *Pipeline) runFullDump() error {
	f, err := os.Open(p.cfg.DumpPath)
	if err != nil {
		return fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(p.cfg.DumpPath, ".bz2") {
		r = bzip2.NewReader(f)
	}

	parser, err := wikiparse.NewParser(r)
	if err != nil {
		return fmt.Errorf("read dump header: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.SetMeta("dump", p.cfg.DumpPath); err != nil {
			p.logger.Warn("failed to record dump path in cache", "error", err)
		}
	}

	pages := 0
	start := time.Now()
	for {
		pg, err := parser.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read dump page: %w", err)
		}

		pages++
		if pages%progressEvery == 0 {
			p.logger.Info("scanning dump",
				"pages", humanize.Comma(int64(pages)),
				"elapsed", time.Since(start).Round(time.Second).String())
		}

		rec := models.PageRecord{Model: "wikitext", Title: pg.Title, Text: pageText(pg)}
		if err := p.processPage(rec); err != nil {
			return err
		}
	}

	p.logger.Info("dump scan finished",
		"pages", humanize.Comma(int64(pages)),
		"elapsed", time.Since(start).Round(time.Second).String())
	return nil
}

// processPage runs one page through classification and, for dictionary
// entries, the two extraction phases.
func (p *Pipeline) processPage(rec models.PageRecord) error {
	p.engine.Learn(rec.Title, rec.Text)

	res := p.classifier.Classify(rec.Model, rec.Title, rec.Text)
	if !res.IsEntry {
		return nil
	}

	expanded := p.engine.Expand(rec.Title, rec.Text)
	if p.cache != nil {
		if err := p.cache.Put(rec.Title, rec.Model, expanded); err != nil {
			p.logger.Warn("failed to cache expansion", "title", rec.Title, "error", err)
		}
	}

	// Phase-1-only pass: the dump scan just primes the cache so the debug
	// target can be reprocessed without another scan.
	if p.cfg.PagePath != "" {
		return nil
	}
	return p.extract(rec.Title, expanded)
}

// runCacheReplay re-runs phase 2 over previously cached phase-1 results.
func (p *Pipeline) runCacheReplay() error {
	if p.cache == nil {
		return fmt.Errorf("cache replay requested without a cache prefix")
	}

	n, err := p.cache.Count()
	if err != nil {
		return err
	}
	p.logger.Info("replaying cache", "pages", humanize.Comma(int64(n)))

	return p.cache.Each(func(title, model, expanded string) error {
		return p.extract(title, expanded)
	})
}

// runSinglePage runs the full pipeline over one pre-saved page file. Without
// a cache hit phase 1 is re-expanded from scratch, which is slow; the cache
// is consulted first when configured.
func (p *Pipeline) runSinglePage() error {
	title, text, err := classify.ReadArchived(p.cfg.PagePath)
	if err != nil {
		return err
	}

	res := p.classifier.Classify("wikitext", title, text)
	if !res.IsEntry {
		p.logger.Warn("page is not a dictionary entry", "title", title)
		return nil
	}

	var expanded string
	if p.cache != nil {
		_, cached, ok, err := p.cache.Get(title)
		if err != nil {
			return err
		}
		if ok {
			expanded = cached
		}
	}
	if expanded == "" {
		expanded = p.engine.Expand(title, text)
	}
	return p.extract(title, expanded)
}

// extract runs phase 2 and streams resulting records to the writer. The
// emit callback is the pipeline's sole interleaving point; invocations
// never overlap, so the writer needs no locking.
func (p *Pipeline) extract(title, expanded string) error {
	var writeErr error
	p.engine.Extract(title, expanded, func(rec models.Entry) {
		if writeErr != nil {
			return
		}
		writeErr = p.out.Write(rec)
	})
	if writeErr != nil {
		return fmt.Errorf("write record for %q: %w", title, writeErr)
	}
	return nil
}

func pageText(pg *wikiparse.Page) string {
	if len(pg.Revisions) == 0 {
		return ""
	}
	return pg.Revisions[0].Text
}

// startProfile begins CPU profiling when requested. The returned stop
// function reports where the profile landed, but only after a normal
// completion; profiling failures never mask pipeline failures.
func (p *Pipeline) startProfile() func(runErr error) {
	if !p.cfg.Profile {
		return func(error) {}
	}

	const profPath = "wiktex-cpu.prof"
	f, err := os.Create(profPath)
	if err != nil {
		p.logger.Error("failed to create cpu profile", "error", err)
		return func(error) {}
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		p.logger.Error("failed to start cpu profile", "error", err)
		f.Close()
		return func(error) {}
	}

	return func(runErr error) {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			p.logger.Error("failed to close cpu profile", "error", err)
			return
		}
		if runErr == nil {
			p.logger.Info("cpu profile written", "path", profPath)
		}
	}
}

// loadOverrides reads caller-supplied replacement pages. Each file uses the
// archival format: a TITLE header line, then the page content that takes
// precedence for that name for the remainder of the run.
func loadOverrides(paths []string) (map[string]string, error) {
	overrides := make(map[string]string, len(paths))
	for _, path := range paths {
		title, text, err := classify.ReadArchived(path)
		if err != nil {
			return nil, fmt.Errorf("load override %s: %w", path, err)
		}
		overrides[title] = text
	}
	return overrides, nil
}

// loadRedirects reads the optional external alias -> target table.
func loadRedirects(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load redirects: %w", err)
	}
	redirects := make(map[string]string)
	if err := json.Unmarshal(data, &redirects); err != nil {
		return nil, fmt.Errorf("parse redirects %s: %w", path, err)
	}
	return redirects, nil
}
