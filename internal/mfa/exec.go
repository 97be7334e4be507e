package mfa

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/narrationlab/bookalign/internal/errs"
)

// ExecMfa invokes a locally installed `mfa` binary directly, one workspace
// directory per concurrent chapter (spec.md §4.12).
type ExecMfa struct {
	BinPath     string // default "mfa"
	AcousticModel string // e.g. "english_us_arpa"
	Dictionary    string // base pronunciation dictionary name/path
}

// NewExecMfa resolves the mfa binary from MFA_ROOT_DIR/bin if set, else PATH.
func NewExecMfa(acousticModel, dictionary string) *ExecMfa {
	bin := "mfa"
	if root := os.Getenv("MFA_ROOT_DIR"); root != "" {
		bin = root + "/bin/mfa"
	}
	return &ExecMfa{BinPath: bin, AcousticModel: acousticModel, Dictionary: dictionary}
}

func (m *ExecMfa) Version() string {
	out, err := exec.Command(m.BinPath, "version").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func (m *ExecMfa) Validate(ctx context.Context, ws Workspace) error {
	return m.run(ctx, ws, "validate", ws.Dir, m.Dictionary, m.AcousticModel)
}

func (m *ExecMfa) G2P(ctx context.Context, words []string, outDictionary string, ws Workspace) error {
	wordlist, err := writeWordlist(ws.Dir, words)
	if err != nil {
		return err
	}
	return m.run(ctx, ws, "g2p", wordlist, m.AcousticModel+"_g2p", outDictionary)
}

func (m *ExecMfa) AddWords(ctx context.Context, dictionary string, words []string, ws Workspace) error {
	wordlist, err := writeWordlist(ws.Dir, words)
	if err != nil {
		return err
	}
	return m.run(ctx, ws, "model", "add_words", dictionary, wordlist)
}

func (m *ExecMfa) Align(ctx context.Context, req AlignRequest) error {
	dict := req.DictionaryZip
	if dict == "" {
		dict = m.Dictionary
	}
	return m.run(ctx, req.Workspace, "align",
		"--clean",
		req.CorpusDir, dict, m.AcousticModel, req.Workspace.Dir,
	)
}

func (m *ExecMfa) run(ctx context.Context, ws Workspace, args ...string) error {
	cmd := exec.CommandContext(ctx, m.BinPath, args...)
	cmd.Dir = ws.Dir
	cmd.Env = append(os.Environ(), "MFA_ROOT_DIR="+ws.Dir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errs.New(errs.Cancelled, "", "mfa", "mfa invocation cancelled", ctx.Err())
		}
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			return errs.New(errs.ToolExitNonZero, "", "mfa",
				fmt.Sprintf("mfa %s exited non-zero", args[0]),
				fmt.Errorf("%w: stdout=%s stderr=%s", err, errs.TailLines(stdout.String()), errs.TailLines(stderr.String())))
		}
		return errs.New(errs.ToolUnavailable, "", "mfa", "mfa binary could not be invoked", err)
	}
	return nil
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

func writeWordlist(dir string, words []string) (string, error) {
	path := dir + "/wordlist.txt"
	if err := os.WriteFile(path, []byte(strings.Join(words, "\n")), 0o644); err != nil {
		return "", errs.New(errs.IOError, "", "mfa", "failed writing mfa wordlist", err)
	}
	return path, nil
}

var _ Mfa = (*ExecMfa)(nil)
