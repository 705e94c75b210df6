package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/lexglot/wiktex/internal/extract"
)

func main() {
	app := &cli.App{
		Name:      "wiktex",
		Usage:     "extract structured dictionary records from a Wiktionary XML dump",
		ArgsUsage: "[dump.xml[.bz2]]",
		Action:    extract.Action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Value: "-",
				Usage: "output `path` for extracted records, - for stdout",
			},
			&cli.StringFlag{
				Name:  "errors",
				Usage: "write accumulated errors/warnings/debug messages to `path`",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "phase-1 cache `prefix`; reused across runs",
			},
			&cli.StringFlag{
				Name:  "page",
				Usage: "process a single saved page file at `path`",
			},
			&cli.StringFlag{
				Name:  "pages-dir",
				Usage: "archive raw page text under `dir`",
			},
			&cli.StringFlag{
				Name:  "redirects-file",
				Usage: "JSON alias-to-target redirect table at `path`",
			},
			&cli.StringSliceFlag{
				Name:  "override",
				Usage: "replace a named page's content with `file` (repeatable)",
			},
			&cli.StringFlag{
				Name:  "categories-file",
				Usage: "write the category tree to `path`",
			},
			&cli.StringFlag{
				Name:  "modules-file",
				Usage: "write collected modules to `path`",
			},
			&cli.StringFlag{
				Name:  "templates-file",
				Usage: "write collected templates to `path`",
			},
			&cli.StringSliceFlag{
				Name:  "language",
				Usage: "capture `name` only (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "all-languages",
				Usage: "capture every language",
			},
			&cli.BoolFlag{Name: "translations", Usage: "capture translations"},
			&cli.BoolFlag{Name: "pronunciations", Usage: "capture pronunciations"},
			&cli.BoolFlag{Name: "linkages", Usage: "capture linkages (synonyms, antonyms, ...)"},
			&cli.BoolFlag{Name: "compounds", Usage: "capture compounds and derived terms"},
			&cli.BoolFlag{Name: "redirects", Usage: "capture redirect pages"},
			&cli.BoolFlag{Name: "examples", Usage: "capture usage examples"},
			&cli.BoolFlag{Name: "etymologies", Usage: "capture etymologies"},
			&cli.BoolFlag{Name: "inflections", Usage: "capture inflection tables"},
			&cli.BoolFlag{Name: "all", Usage: "capture every category"},
			&cli.IntFlag{
				Name:  "num-threads",
				Value: runtime.NumCPU(),
				Usage: "parallelism hint for page expansion",
			},
			&cli.BoolFlag{Name: "human-readable", Usage: "indented multi-line records instead of one per line"},
			&cli.BoolFlag{Name: "verbose", Usage: "debug-level logging"},
			&cli.BoolFlag{Name: "profile", Usage: "wrap the run in a CPU profiler"},
			&cli.BoolFlag{Name: "statistics", Usage: "print counter reports after the run"},
			&cli.BoolFlag{Name: "list-languages", Usage: "print the language inventory and exit"},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
