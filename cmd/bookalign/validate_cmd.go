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
	"github.com/narrationlab/bookalign/internal/docparse"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/fingerprint/schema"
	"github.com/narrationlab/bookalign/internal/rollup"
	"github.com/narrationlab/bookalign/internal/text"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a script/audio/ASR triple without writing it into a chapter workspace",
}

var (
	validateAudio   string
	validateScript  string
	validateAsrJSON string
	validateOut     string
)

var validateScriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Run a dry alignment over a script, audio path, and ASR transcript, reporting schema and coverage results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidateScript()
	},
}

func init() {
	validateCmd.AddCommand(validateScriptCmd)

	validateScriptCmd.Flags().StringVar(&validateAudio, "audio", "", "path to the chapter audio")
	validateScriptCmd.Flags().StringVar(&validateScript, "script", "", "path to the book manuscript")
	validateScriptCmd.Flags().StringVar(&validateAsrJSON, "asr-json", "", "path to a pre-computed *.asr.json")
	validateScriptCmd.Flags().StringVar(&validateOut, "out", "", "output path for report.json")

	_ = validateScriptCmd.MarkFlagRequired("audio")
	_ = validateScriptCmd.MarkFlagRequired("script")
	_ = validateScriptCmd.MarkFlagRequired("asr-json")
	_ = validateScriptCmd.MarkFlagRequired("out")
}

// validateReport summarizes one validate-script run: which artifacts were
// schema-valid and what coverage the resulting alignment achieved, so an
// operator can judge whether a manuscript/audio pair is pipeline-ready
// before committing it to a full chapter run.
type validateReport struct {
	SchemaErrors      []string `json:"schema_errors,omitempty"`
	WordCount         int      `json:"word_count"`
	SentenceCount     int      `json:"sentence_count"`
	ParagraphCount    int      `json:"paragraph_count"`
	AnchorCount       int      `json:"anchor_count"`
	AnchorDensity     float64  `json:"anchor_density"`
	MatchedWords      int      `json:"matched_words"`
	SubstitutedWords  int      `json:"substituted_words"`
	InsertedWords     int      `json:"inserted_words"`
	DeletedWords      int      `json:"deleted_words"`
	Coverage          float64  `json:"coverage"`
	OK                bool     `json:"ok"`
}

func runValidateScript() error {
	_, cfgMgr, err := loadServices()
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	parser, err := docparse.ForPath(validateScript)
	if err != nil {
		return err
	}
	parsed, err := parser.Parse(validateScript)
	if err != nil {
		return err
	}

	stop, ok := text.Lookup(cfg.Anchor.StopwordSetID)
	if !ok {
		stop = text.Empty
	}
	idx, err := bookindex.Build(parsed, bookindex.Options{
		SourceFile: validateScript,
		AverageWPM: int(cfg.BookIndex.AverageWPM),
		Stopwords:  stop,
	})
	if err != nil {
		return err
	}

	asrData, err := os.ReadFile(validateAsrJSON)
	if err != nil {
		return errs.New(errs.InputMissing, "", "cli", "failed reading "+validateAsrJSON, err)
	}
	var resp asr.Response
	if err := json.Unmarshal(asrData, &resp); err != nil {
		return errs.New(errs.InputInvalid, "", "cli", "failed decoding "+validateAsrJSON, err)
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
	ti := rollup.Rollup(idx, resp, ops, validateAudio, validateScript, validateScript, time.Now().UTC().Format(time.RFC3339))

	report := validateReport{
		WordCount:      len(idx.Words),
		SentenceCount:  len(ti.Sentences),
		ParagraphCount: len(ti.Paragraphs),
		AnchorCount:    len(anchorDoc.Anchors),
		AnchorDensity:  anchorDensity(anchorDoc, idx),
	}
	for _, w := range ti.Words {
		switch w.Kind {
		case "match":
			report.MatchedWords++
		case "sub":
			report.SubstitutedWords++
		case "ins":
			report.InsertedWords++
		case "del":
			report.DeletedWords++
		}
	}
	if report.WordCount > 0 {
		report.Coverage = float64(report.MatchedWords) / float64(report.WordCount)
	}

	schemaErrors := validateArtifactSchemas(idx, resp, anchorDoc, ti)
	report.SchemaErrors = schemaErrors
	report.OK = len(schemaErrors) == 0

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errs.New(errs.IOError, "", "cli", "failed encoding validation report", err)
	}
	if err := os.WriteFile(validateOut, data, 0o644); err != nil {
		return errs.New(errs.IOError, "", "cli", "failed writing "+validateOut, err)
	}
	if !report.OK {
		return errs.New(errs.InputInvalid, "", "cli", "script validation failed schema checks", nil)
	}
	return nil
}

func anchorDensity(doc anchor.Document, idx *bookindex.Index) float64 {
	if len(idx.Words) == 0 {
		return 0
	}
	return float64(len(doc.Anchors)) / float64(len(idx.Words))
}

func validateArtifactSchemas(idx *bookindex.Index, resp asr.Response, doc anchor.Document, ti rollup.Index) []string {
	var errors []string

	registry, err := schema.NewRegistry()
	if err != nil {
		return []string{err.Error()}
	}

	check := func(artifact schema.Artifact, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			errors = append(errors, string(artifact)+": "+err.Error())
			return
		}
		if err := registry.Validate(artifact, data); err != nil {
			errors = append(errors, string(artifact)+": "+err.Error())
		}
	}

	check(schema.ArtifactBookIndex, idx)
	check(schema.ArtifactAsr, resp)
	check(schema.ArtifactAnchors, doc)
	check(schema.ArtifactTranscript, ti)

	return errors
}
