package mfa

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"

	"github.com/narrationlab/bookalign/internal/errs"
)

// DockerMfaConfig configures DockerMfa, grounded on the teacher's
// DockerManager config shape for DefraDB.
type DockerMfaConfig struct {
	Image         string // default "mmcauliffe/montreal-forced-aligner:latest"
	AcousticModel string
	Dictionary    string
	Labels        map[string]string
}

const defaultMfaImage = "mmcauliffe/montreal-forced-aligner:latest"

// DockerMfa runs each MFA invocation in a short-lived container, bind
// mounting the caller's isolated workspace directory so that N chapters can
// run concurrently without colliding on MFA's shared corpus/sqlite state
// (spec.md §4.12).
type DockerMfa struct {
	cli           *client.Client
	image         string
	acousticModel string
	dictionary    string
	labels        map[string]string
}

// NewDockerMfa creates a Docker-backed MFA adapter, using the same
// client.NewClientWithOpts(FromEnv, WithAPIVersionNegotiation) convention
// as the teacher's DefraDB DockerManager.
func NewDockerMfa(cfg DockerMfaConfig) (*DockerMfa, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errs.New(errs.ToolUnavailable, "", "mfa", "failed to create docker client", err)
	}
	if cfg.Image == "" {
		cfg.Image = defaultMfaImage
	}
	labels := map[string]string{"bookalign-mfa": "true"}
	for k, v := range cfg.Labels {
		labels[k] = v
	}
	return &DockerMfa{
		cli:           cli,
		image:         cfg.Image,
		acousticModel: cfg.AcousticModel,
		dictionary:    cfg.Dictionary,
		labels:        labels,
	}, nil
}

func (m *DockerMfa) Version() string { return m.image }

func (m *DockerMfa) Validate(ctx context.Context, ws Workspace) error {
	return m.runContainer(ctx, ws, []string{"mfa", "validate", "/workspace/corpus", m.dictionary, m.acousticModel})
}

func (m *DockerMfa) G2P(ctx context.Context, words []string, outDictionary string, ws Workspace) error {
	if _, err := writeWordlist(ws.Dir, words); err != nil {
		return err
	}
	return m.runContainer(ctx, ws, []string{"mfa", "g2p", "/workspace/wordlist.txt", m.acousticModel + "_g2p", "/workspace/" + outDictionary})
}

func (m *DockerMfa) AddWords(ctx context.Context, dictionary string, words []string, ws Workspace) error {
	if _, err := writeWordlist(ws.Dir, words); err != nil {
		return err
	}
	return m.runContainer(ctx, ws, []string{"mfa", "model", "add_words", dictionary, "/workspace/wordlist.txt"})
}

func (m *DockerMfa) Align(ctx context.Context, req AlignRequest) error {
	dict := req.DictionaryZip
	if dict == "" {
		dict = m.dictionary
	}
	return m.runContainer(ctx, req.Workspace, []string{
		"mfa", "align", "--clean",
		"/workspace/corpus", dict, m.acousticModel, "/workspace/out",
	})
}

// runContainer creates, starts, waits on, and removes a single-use
// container with the workspace directory bind-mounted at /workspace,
// mirroring the teacher's create-then-start-then-wait DockerManager shape
// but for a one-shot command instead of a long-running service.
func (m *DockerMfa) runContainer(ctx context.Context, ws Workspace, cmd []string) error {
	containerCfg := &container.Config{
		Image:  m.image,
		Cmd:    cmd,
		Labels: m.labels,
	}
	hostCfg := &container.HostConfig{
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: ws.Dir, Target: "/workspace"},
		},
		AutoRemove: true,
	}

	resp, err := m.cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return errs.New(errs.ToolUnavailable, "", "mfa", "failed to create mfa container", err)
	}

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return errs.New(errs.ToolUnavailable, "", "mfa", "failed to start mfa container", err)
	}

	statusCh, errCh := m.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case <-ctx.Done():
		timeout := 10
		_ = m.cli.ContainerStop(context.Background(), resp.ID, container.StopOptions{Timeout: &timeout})
		return errs.New(errs.Cancelled, "", "mfa", "mfa container run cancelled", ctx.Err())
	case err := <-errCh:
		if err != nil {
			return errs.New(errs.ToolUnavailable, "", "mfa", "error waiting for mfa container", err)
		}
	case status := <-statusCh:
		if status.StatusCode != 0 {
			tail := m.fetchLogsTail(context.Background(), resp.ID)
			return errs.New(errs.ToolExitNonZero, "", "mfa", fmt.Sprintf("mfa container exited with status %d", status.StatusCode), fmt.Errorf("%s", tail))
		}
	}
	return nil
}

func (m *DockerMfa) fetchLogsTail(ctx context.Context, containerID string) string {
	logs, err := m.cli.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true, Tail: "40"})
	if err != nil {
		return ""
	}
	defer logs.Close()
	data, _ := io.ReadAll(logs)
	return errs.TailLines(string(data))
}

func (m *DockerMfa) Close() error { return m.cli.Close() }

var _ Mfa = (*DockerMfa)(nil)
