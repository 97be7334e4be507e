package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/narrationlab/bookalign/internal/align"
	"github.com/narrationlab/bookalign/internal/anchor"
	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/rollup"
)

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Run anchor mining or windowed alignment directly against artifact files",
}

var (
	alignAnchorsBookIndex string
	alignAnchorsAsr       string
	alignAnchorsEmit      bool
)

var alignAnchorsCmd = &cobra.Command{
	Use:   "anchors",
	Short: "Mine anchors between a BookIndex and an AsrResponse",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAlignAnchors()
	},
}

var (
	alignTxBookIndex string
	alignTxAsr       string
	alignTxAudio     string
	alignTxOut       string
)

var alignTxCmd = &cobra.Command{
	Use:   "tx",
	Short: "Produce a TranscriptIndex from a BookIndex, AsrResponse, and audio path",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAlignTx()
	},
}

func init() {
	alignCmd.AddCommand(alignAnchorsCmd)
	alignCmd.AddCommand(alignTxCmd)

	alignAnchorsCmd.Flags().StringVar(&alignAnchorsBookIndex, "book-index", "", "path to book-index.json")
	alignAnchorsCmd.Flags().StringVar(&alignAnchorsAsr, "asr", "", "path to *.asr.json")
	alignAnchorsCmd.Flags().BoolVar(&alignAnchorsEmit, "emit-windows", false, "print the window boundaries implied by the anchors")
	_ = alignAnchorsCmd.MarkFlagRequired("book-index")
	_ = alignAnchorsCmd.MarkFlagRequired("asr")

	alignTxCmd.Flags().StringVar(&alignTxBookIndex, "book-index", "", "path to book-index.json")
	alignTxCmd.Flags().StringVar(&alignTxAsr, "asr", "", "path to *.asr.json")
	alignTxCmd.Flags().StringVar(&alignTxAudio, "audio", "", "path to the chapter's audio file")
	alignTxCmd.Flags().StringVar(&alignTxOut, "out", "", "output path for *.align.tx.json")
	_ = alignTxCmd.MarkFlagRequired("book-index")
	_ = alignTxCmd.MarkFlagRequired("asr")
	_ = alignTxCmd.MarkFlagRequired("audio")
	_ = alignTxCmd.MarkFlagRequired("out")
}

func loadBookIndex(path string) (*bookindex.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.InputMissing, "", "cli", "failed reading "+path, err)
	}
	var idx bookindex.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errs.New(errs.InputInvalid, "", "cli", "failed decoding "+path, err)
	}
	return &idx, nil
}

func loadAsrResponse(path string) (asr.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return asr.Response{}, errs.New(errs.InputMissing, "", "cli", "failed reading "+path, err)
	}
	var resp asr.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return asr.Response{}, errs.New(errs.InputInvalid, "", "cli", "failed decoding "+path, err)
	}
	return resp, nil
}

func runAlignAnchors() error {
	_, cfgMgr, err := loadServices()
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	idx, err := loadBookIndex(alignAnchorsBookIndex)
	if err != nil {
		return err
	}
	resp, err := loadAsrResponse(alignAnchorsAsr)
	if err != nil {
		return err
	}

	policy := anchor.Policy{
		NgramN:                cfg.Anchor.NgramN,
		TargetDensity:         cfg.Anchor.TargetDensity,
		MinSeparation:         cfg.Anchor.MinSeparation,
		StopwordSetID:         cfg.Anchor.StopwordSetID,
		DisallowBoundaryCross: cfg.Anchor.DisallowBoundaryCross,
	}
	doc, err := anchor.Mine(idx, resp, policy)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errs.New(errs.IOError, "", "cli", "failed encoding anchor document", err)
	}
	os.Stdout.Write(data)
	os.Stdout.WriteString("\n")

	if alignAnchorsEmit {
		for i := 1; i < len(doc.Anchors); i++ {
			prev, cur := doc.Anchors[i-1], doc.Anchors[i]
			os.Stderr.WriteString(windowLine(prev, cur))
		}
	}
	return nil
}

func windowLine(prev, cur anchor.Anchor) string {
	return "window book[" + itoa(prev.BookPosition) + "," + itoa(cur.BookPosition) +
		"] asr[" + itoa(prev.AsrPosition) + "," + itoa(cur.AsrPosition) + "]\n"
}

func itoa(v uint32) string {
	return rollupItoa(int64(v))
}

func rollupItoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func runAlignTx() error {
	_, cfgMgr, err := loadServices()
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	idx, err := loadBookIndex(alignTxBookIndex)
	if err != nil {
		return err
	}
	resp, err := loadAsrResponse(alignTxAsr)
	if err != nil {
		return err
	}

	policy := anchor.Policy{
		NgramN:                cfg.Anchor.NgramN,
		TargetDensity:         cfg.Anchor.TargetDensity,
		MinSeparation:         cfg.Anchor.MinSeparation,
		StopwordSetID:         cfg.Anchor.StopwordSetID,
		DisallowBoundaryCross: cfg.Anchor.DisallowBoundaryCross,
	}
	anchorDoc, err := anchor.Mine(idx, resp, policy)
	if err != nil {
		return err
	}

	costs := align.Costs{CostSub: cfg.Align.CostSub, CostIns: cfg.Align.CostIns, CostDel: cfg.Align.CostDel}
	ops := align.AlignWindows(idx, resp, anchorDoc, costs)

	ti := rollup.Rollup(idx, resp, ops, alignTxAudio, alignTxBookIndex, alignTxBookIndex, time.Now().UTC().Format(time.RFC3339))

	data, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return errs.New(errs.IOError, "", "cli", "failed encoding transcript index", err)
	}
	if err := os.WriteFile(alignTxOut, data, 0o644); err != nil {
		return errs.New(errs.IOError, "", "cli", "failed writing "+alignTxOut, err)
	}
	return nil
}
