// Package fingerprint implements input/params/tool-version hashing and
// ManifestV2 persistence (spec.md §4.9): the mechanism behind idempotent
// per-stage skipping.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/narrationlab/bookalign/internal/errs"
)

// HashFile returns the lowercase-hex SHA-256 digest of path's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.New(errs.InputMissing, "", "fingerprint", "failed reading declared input "+path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errs.New(errs.IOError, "", "fingerprint", "failed hashing "+path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the lowercase-hex SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// InputHash combines the per-file hashes of a stage's declared inputs, in
// declared order: H(concat(H(file_i) for file_i in declared_inputs))
// (spec.md §4.9).
func InputHash(fileHashes []string) string {
	h := sha256.New()
	for _, fh := range fileHashes {
		io.WriteString(h, fh)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalJSON serializes v with sorted map keys and no extraneous
// whitespace, matching the on-disk canonical format (spec.md §6).
func CanonicalJSON(v any) ([]byte, error) {
	generic, err := toGenericJSON(v)
	if err != nil {
		return nil, err
	}
	return encodeCanonical(generic)
}

// ParamsHash is the SHA-256 of the canonical serialization of a stage's
// parameter record (spec.md §4.9).
func ParamsHash(params any) (string, error) {
	data, err := CanonicalJSON(params)
	if err != nil {
		return "", errs.New(errs.IOError, "", "fingerprint", "failed canonicalizing params", err)
	}
	return HashBytes(data), nil
}

// ToolVersionsCanonical canonically serializes a tool-version map (spec.md
// §4.9: "sorted keys, no whitespace").
func ToolVersionsCanonical(versions map[string]string) (string, error) {
	data, err := CanonicalJSON(versions)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Stage computes the final stage fingerprint: H(input_hash || params_hash ||
// tool_versions_canonical) (spec.md §4.9).
func Stage(inputHash, paramsHash, toolVersionsCanonical string) string {
	h := sha256.New()
	io.WriteString(h, inputHash)
	io.WriteString(h, paramsHash)
	io.WriteString(h, toolVersionsCanonical)
	return hex.EncodeToString(h.Sum(nil))
}

func toGenericJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// encodeCanonical writes v (already decoded to generic map[string]any /
// []any / scalar form) with sorted object keys and fixed decimal number
// formatting (no exponent notation), per spec.md §6.
func encodeCanonical(v any) ([]byte, error) {
	var out []byte
	var err error
	out, err = appendCanonical(out, v)
	return out, err
}

func appendCanonical(buf []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if t {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case string:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return append(buf, b...), nil
	case float64:
		return append(buf, formatCanonicalNumber(t)...), nil
	case []any:
		buf = append(buf, '[')
		for i, elem := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendCanonical(buf, elem)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf, err = appendCanonical(buf, t[k])
			if err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return append(buf, b...), nil
	}
}

// formatCanonicalNumber renders a float64 with a point separator and no
// exponent, matching spec.md §6's "fixed decimal formatting" requirement.
// Integral values are emitted without a fractional part so that counts and
// indices round-trip as plain integers.
func formatCanonicalNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
