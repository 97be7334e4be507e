package schema

// builtinSchemas holds the JSON Schema (draft 2020-12 subset supported by
// jsonschema/v5) text for each persisted artifact type named in spec.md §3.
// These are intentionally permissive about optional fields: the point is to
// catch structurally broken documents (missing required keys, wrong types),
// not to fully re-validate business invariants already enforced in Go.
var builtinSchemas = map[Artifact]string{
	ArtifactBookIndex: `{
		"type": "object",
		"required": ["words", "sentences", "paragraphs", "sections", "totals"],
		"properties": {
			"words": {"type": "array", "items": {
				"type": "object",
				"required": ["index", "text", "sentence_index", "paragraph_index", "section_index"],
				"properties": {
					"index": {"type": "integer", "minimum": 0},
					"text": {"type": "string"},
					"sentence_index": {"type": "integer", "minimum": 0},
					"paragraph_index": {"type": "integer", "minimum": 0},
					"section_index": {"type": "integer", "minimum": 0}
				}
			}},
			"sentences": {"type": "array", "items": {
				"type": "object",
				"required": ["index", "start_word", "end_word"],
				"properties": {
					"index": {"type": "integer", "minimum": 0},
					"start_word": {"type": "integer", "minimum": 0},
					"end_word": {"type": "integer", "minimum": 0}
				}
			}},
			"paragraphs": {"type": "array"},
			"sections": {"type": "array"},
			"totals": {
				"type": "object",
				"required": ["words", "est_duration_sec"],
				"properties": {
					"words": {"type": "integer", "minimum": 0},
					"est_duration_sec": {"type": "number", "minimum": 0}
				}
			}
		}
	}`,
	ArtifactAsr: `{
		"type": "object",
		"required": ["model_version", "tokens"],
		"properties": {
			"model_version": {"type": "string"},
			"tokens": {"type": "array", "items": {
				"type": "object",
				"required": ["start_sec", "duration_sec", "text"],
				"properties": {
					"start_sec": {"type": "number", "minimum": 0},
					"duration_sec": {"type": "number", "minimum": 0},
					"text": {"type": "string"}
				}
			}},
			"segments": {"type": ["array", "null"]}
		}
	}`,
	ArtifactAnchors: `{
		"type": "object",
		"required": ["anchors", "policy", "stats"],
		"properties": {
			"anchors": {"type": "array", "items": {
				"type": "object",
				"required": ["book_idx", "asr_idx"],
				"properties": {
					"book_idx": {"type": "integer", "minimum": 0},
					"asr_idx": {"type": "integer", "minimum": 0}
				}
			}},
			"policy": {"type": "object"},
			"stats": {"type": "object"}
		}
	}`,
	ArtifactTranscript: `{
		"type": "object",
		"required": ["audio_path", "script_path", "book_index_path", "words", "sentences", "paragraphs", "normalization_version", "created_at"],
		"properties": {
			"audio_path": {"type": "string"},
			"script_path": {"type": "string"},
			"book_index_path": {"type": "string"},
			"normalization_version": {"type": "string"},
			"created_at": {"type": "string"},
			"words": {"type": "array"},
			"sentences": {"type": "array", "items": {
				"type": "object",
				"required": ["id", "book_range", "metrics", "timing", "status"],
				"properties": {
					"id": {"type": "integer"},
					"book_range": {"type": "object"},
					"metrics": {
						"type": "object",
						"required": ["wer", "cer", "span_wer", "missing_runs", "extra_runs"]
					},
					"timing": {"type": "object"},
					"status": {"enum": ["ok", "flagged", "unaligned"]}
				}
			}},
			"paragraphs": {"type": "array"}
		}
	}`,
	ArtifactHydrated: `{
		"type": "object",
		"required": ["sentences", "paragraphs"],
		"properties": {
			"sentences": {"type": "array", "items": {
				"type": "object",
				"required": ["id", "book_range", "metrics", "timing", "status", "words"],
				"properties": {
					"id": {"type": "integer"},
					"words": {"type": "array"},
					"diff": {"type": "string"},
					"book_text": {"type": "string"},
					"script_text": {"type": "string"}
				}
			}},
			"paragraphs": {"type": "array"}
		}
	}`,
	ArtifactTextGrid: `{
		"type": "object",
		"required": ["words"],
		"properties": {
			"words": {"type": "array", "items": {
				"type": "object",
				"required": ["text", "start_sec", "end_sec"],
				"properties": {
					"text": {"type": "string"},
					"start_sec": {"type": "number"},
					"end_sec": {"type": "number"}
				}
			}}
		}
	}`,
	ArtifactManifest: `{
		"type": "object",
		"required": ["schema_version", "chapter_id", "stages"],
		"properties": {
			"schema_version": {"type": "integer"},
			"chapter_id": {"type": "string"},
			"stages": {"type": "object"}
		}
	}`,
}
