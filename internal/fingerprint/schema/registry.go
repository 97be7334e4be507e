// Package schema holds the JSON Schema documents for each on-disk artifact
// type (spec.md §3) and a registry that compiles and validates against them,
// grounded on the teacher's jsonschema/v5 compiler usage in
// internal/providers/structured_output.go.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/narrationlab/bookalign/internal/errs"
)

// Artifact names the schema-checked document kinds, matching the
// fingerprint.StageName outputs they correspond to.
type Artifact string

const (
	ArtifactBookIndex  Artifact = "book_index"
	ArtifactAsr        Artifact = "asr"
	ArtifactAnchors    Artifact = "anchors"
	ArtifactTranscript Artifact = "transcript"
	ArtifactHydrated   Artifact = "hydrated"
	ArtifactTextGrid   Artifact = "textgrid"
	ArtifactManifest   Artifact = "manifest"
)

// Registry compiles and caches one jsonschema.Schema per Artifact.
type Registry struct {
	mu       sync.Mutex
	compiled map[Artifact]*jsonschema.Schema
}

// NewRegistry builds a Registry with all built-in artifact schemas loaded
// eagerly, so a malformed built-in schema fails fast at startup rather than
// on the first validation call.
func NewRegistry() (*Registry, error) {
	r := &Registry{compiled: make(map[Artifact]*jsonschema.Schema)}
	for artifact, raw := range builtinSchemas {
		if err := r.compile(artifact, raw); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) compile(artifact Artifact, raw string) error {
	compiler := jsonschema.NewCompiler()
	resourceName := string(artifact) + ".json"
	if err := compiler.AddResource(resourceName, bytes.NewReader([]byte(raw))); err != nil {
		return errs.New(errs.InputInvalid, "", "fingerprint/schema", "failed loading schema for "+string(artifact), err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return errs.New(errs.InputInvalid, "", "fingerprint/schema", "failed compiling schema for "+string(artifact), err)
	}
	r.compiled[artifact] = schema
	return nil
}

// Validate decodes docJSON (raw JSON bytes) into generic JSON and checks it
// against the compiled schema for artifact.
func (r *Registry) Validate(artifact Artifact, docJSON []byte) error {
	r.mu.Lock()
	schema, ok := r.compiled[artifact]
	r.mu.Unlock()
	if !ok {
		return errs.New(errs.InputInvalid, "", "fingerprint/schema", "no schema registered for artifact "+string(artifact), nil)
	}

	var doc any
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return errs.New(errs.InputInvalid, "", "fingerprint/schema", "failed decoding document for "+string(artifact)+" validation", err)
	}
	if err := schema.Validate(doc); err != nil {
		return errs.New(errs.InputInvalid, "", "fingerprint/schema", fmt.Sprintf("%s failed schema validation", artifact), err)
	}
	return nil
}
