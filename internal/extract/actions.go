// Package extract resolves CLI flags into a run configuration and drives
// the pipeline.
package extract

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/lexglot/wiktex/models"
	"github.com/lexglot/wiktex/pkg/langs"
	"github.com/lexglot/wiktex/pkg/pipeline"
)

const statisticsTopN = 25

// Action is the single top-level CLI action. Configuration problems exit 1
// before any page is processed; runtime failures exit 2.
func Action(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if c.Bool("list-languages") {
		for _, name := range langs.Names() {
			fmt.Println(name)
		}
		return nil
	}

	selected, err := langs.Select(c.StringSlice("language"), c.Bool("all-languages"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := &models.RunConfig{
		DumpPath:       c.Args().First(),
		PagePath:       c.String("page"),
		CachePrefix:    c.String("cache"),
		OutPath:        c.String("out"),
		ErrorsPath:     c.String("errors"),
		PagesDir:       c.String("pages-dir"),
		RedirectsPath:  c.String("redirects-file"),
		OverridePaths:  c.StringSlice("override"),
		CategoriesPath: c.String("categories-file"),
		ModulesPath:    c.String("modules-file"),
		TemplatesPath:  c.String("templates-file"),
		Languages:      selected,
		Capture:        captureFromFlags(c),
		NumThreads:     c.Int("num-threads"),
		HumanReadable:  c.Bool("human-readable"),
		Profile:        c.Bool("profile"),
		Statistics:     c.Bool("statistics"),
		Verbose:        c.Bool("verbose"),
	}

	// The mode is a tagged choice made exactly once; nothing downstream
	// re-infers it from flag presence.
	switch {
	case cfg.DumpPath != "":
		cfg.Mode = models.ModeFullDump
	case cfg.PagePath != "":
		cfg.Mode = models.ModeSinglePage
	case cfg.CachePrefix != "":
		cfg.Mode = models.ModeCacheReplay
	default:
		fmt.Fprintln(os.Stderr, "Error: no source given")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  wiktex dump.xml.bz2 --out entries.jsonl     # full dump pass")
		fmt.Fprintln(os.Stderr, "  wiktex --cache prefix --out entries.jsonl   # replay cached phase-1 results")
		fmt.Fprintln(os.Stderr, "  wiktex --page saved-page.txt                # debug one page")
		os.Exit(1)
	}

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	if err := p.Run(); err != nil {
		logger.Error("pipeline failed", "mode", cfg.Mode.String(), "error", err)
		os.Exit(2)
	}

	if cfg.Statistics {
		p.WriteStatistics(os.Stderr, statisticsTopN)
	}
	return nil
}

// captureFromFlags resolves the capture-category switches; --all turns on
// every category.
func captureFromFlags(c *cli.Context) models.Capture {
	if c.Bool("all") {
		return models.AllCapture()
	}
	return models.Capture{
		Translations:   c.Bool("translations"),
		Pronunciations: c.Bool("pronunciations"),
		Linkages:       c.Bool("linkages"),
		Compounds:      c.Bool("compounds"),
		Redirects:      c.Bool("redirects"),
		Examples:       c.Bool("examples"),
		Etymologies:    c.Bool("etymologies"),
		Inflections:    c.Bool("inflections"),
	}
}
