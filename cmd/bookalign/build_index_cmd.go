package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/docparse"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/text"
	"github.com/narrationlab/bookalign/internal/workspace"
)

var (
	buildIndexBook         string
	buildIndexOut          string
	buildIndexForceRefresh bool
	buildIndexAvgWPM       int
	buildIndexNoCache      bool
)

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Build a BookIndex from a manuscript file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuildIndex()
	},
}

func init() {
	buildIndexCmd.Flags().StringVar(&buildIndexBook, "book", "", "path to the book manuscript")
	buildIndexCmd.Flags().StringVar(&buildIndexOut, "out", "", "output path for book-index.json")
	buildIndexCmd.Flags().BoolVar(&buildIndexForceRefresh, "force-refresh", false, "rebuild even if a cached index matches")
	buildIndexCmd.Flags().IntVar(&buildIndexAvgWPM, "avg-wpm", 0, "average words-per-minute for duration estimates (default from config)")
	buildIndexCmd.Flags().BoolVar(&buildIndexNoCache, "no-cache", false, "bypass the BookManager cache entirely")

	_ = buildIndexCmd.MarkFlagRequired("book")
	_ = buildIndexCmd.MarkFlagRequired("out")
}

func runBuildIndex() error {
	_, cfgMgr, err := loadServices()
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	avgWPM := buildIndexAvgWPM
	if avgWPM <= 0 {
		avgWPM = int(cfg.BookIndex.AverageWPM)
	}
	stop, ok := text.Lookup(cfg.Anchor.StopwordSetID)
	if !ok {
		stop = text.Empty
	}
	opts := bookindex.Options{SourceFile: buildIndexBook, AverageWPM: avgWPM, Stopwords: stop}

	parse := func() (docparse.ParseResult, error) {
		parser, err := docparse.ForPath(buildIndexBook)
		if err != nil {
			return docparse.ParseResult{}, err
		}
		return parser.Parse(buildIndexBook)
	}

	var idx *bookindex.Index
	if buildIndexNoCache {
		parsed, err := parse()
		if err != nil {
			return err
		}
		idx, err = bookindex.Build(parsed, opts)
		if err != nil {
			return err
		}
	} else {
		bookMgr := workspace.NewBookManager()
		if buildIndexForceRefresh {
			bookMgr.Invalidate(buildIndexBook)
		}
		idx, err = bookMgr.Get(buildIndexBook, parse, opts)
		if err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return errs.New(errs.IOError, "", "cli", "failed encoding book index", err)
	}
	if err := os.WriteFile(buildIndexOut, data, 0o644); err != nil {
		return errs.New(errs.IOError, "", "cli", "failed writing "+buildIndexOut, err)
	}
	return nil
}
