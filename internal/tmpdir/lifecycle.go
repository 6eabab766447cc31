package tmpdir

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/tmpwrap/internal/foundation/errors"
	"git.home.luguber.info/inful/tmpwrap/internal/logfields"
	"git.home.luguber.info/inful/tmpwrap/internal/metrics"
)

// Environment variable names injected into the build step. TEMP covers
// Windows tooling, TMPDIR the POSIX family; both are always set so behavior
// is uniform across node platforms.
const (
	EnvTemp   = "TEMP"
	EnvTmpdir = "TMPDIR"
)

// Context carries one build's lifecycle state from setup to teardown.
// It is owned by exactly one build and consumed exactly once.
type Context struct {
	// Path is the anchored, absolute temporary-directory path.
	Path string
	// LogContents requests a recursive listing of leftover files before
	// the directory is deleted.
	LogContents bool
}

// EnvPatch returns the environment entries to inject into the build step.
func (c *Context) EnvPatch() map[string]string {
	return map[string]string{
		EnvTemp:   c.Path,
		EnvTmpdir: c.Path,
	}
}

// Manager orchestrates temporary-directory setup and teardown around a build
// step. The sink receives the stable [TMPDIR] build-log lines; operational
// diagnostics go to slog.
type Manager struct {
	sink     io.Writer
	provider TempDirProvider
	recorder metrics.Recorder
}

// Option configures a Manager.
type Option func(*Manager)

// WithTempDirProvider overrides the node temp-root query. The default reads
// the local platform temp directory.
func WithTempDirProvider(p TempDirProvider) Option {
	return func(m *Manager) { m.provider = p }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// NewManager creates a lifecycle manager writing [TMPDIR] lines to sink.
func NewManager(sink io.Writer, opts ...Option) *Manager {
	m := &Manager{
		sink:     sink,
		provider: LocalTempDir,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Setup resolves, anchors, and creates the build's temporary directory.
//
// The effective template (job override or global default) is expanded against
// buildEnv, anchored to the node temp root, created together with missing
// ancestors, and restricted to owner-only permissions. On failure no
// directory context is returned and the build's setup phase must abort;
// nothing is injected into the environment.
func (m *Manager) Setup(jobTemplate, globalTemplate string, buildEnv map[string]string, logContents bool) (*Context, error) {
	start := time.Now()

	template := ResolveTemplate(jobTemplate, globalTemplate)
	resolved := ExpandTemplate(template, buildEnv)
	anchored, err := Anchor(resolved, m.provider)
	if err != nil {
		m.recordPhase(metrics.PhaseSetup, start, metrics.ResultFailed)
		return nil, err
	}

	slog.Debug("Resolved temporary directory",
		logfields.Template(template), logfields.Path(anchored))

	fmt.Fprintf(m.sink, "[TMPDIR] Creating temporary directory: %s\n", anchored)

	if err := os.MkdirAll(anchored, 0o700); err != nil {
		m.recordPhase(metrics.PhaseSetup, start, metrics.ResultFailed)
		return nil, errors.FileSystemError("failed to create temporary directory").
			WithCause(err).
			WithContext("path", anchored).
			Build()
	}
	// MkdirAll permissions are subject to the umask; chmod enforces 0700.
	if err := os.Chmod(anchored, 0o700); err != nil {
		m.recordPhase(metrics.PhaseSetup, start, metrics.ResultFailed)
		return nil, errors.FileSystemError("failed to restrict temporary directory permissions").
			WithCause(err).
			WithContext("path", anchored).
			Build()
	}

	m.recordPhase(metrics.PhaseSetup, start, metrics.ResultSuccess)
	return &Context{Path: anchored, LogContents: logContents}, nil
}

// Teardown removes the build's temporary directory.
//
// A directory already deleted by the build step is a successful no-op, which
// also makes Teardown idempotent. Listing failures are surfaced in the logs
// but never prevent the deletion attempt; only a failed deletion fails
// teardown.
func (m *Manager) Teardown(ctx *Context) error {
	start := time.Now()

	if _, err := os.Stat(ctx.Path); os.IsNotExist(err) {
		fmt.Fprintf(m.sink, "[TMPDIR] Directory %s already deleted during build, nothing to do.\n", ctx.Path)
		m.recordPhase(metrics.PhaseTeardown, start, metrics.ResultSkipped)
		return nil
	}

	if ctx.LogContents {
		m.logContents(ctx.Path)
	}

	fmt.Fprintf(m.sink, "[TMPDIR] Deleting directory: %s\n", ctx.Path)
	if err := os.RemoveAll(ctx.Path); err != nil {
		m.recordPhase(metrics.PhaseTeardown, start, metrics.ResultFailed)
		return errors.FileSystemError("failed to delete temporary directory").
			WithCause(err).
			WithContext("path", ctx.Path).
			Build()
	}

	m.recordPhase(metrics.PhaseTeardown, start, metrics.ResultSuccess)
	return nil
}

// logContents writes the leftover-file listing between the header and footer
// contract lines. The traversal is depth-first with an explicit stack so
// adversarially deep trees cannot exhaust the call stack; siblings appear in
// byte order.
func (m *Manager) logContents(root string) {
	fmt.Fprintf(m.sink, "[TMPDIR] ----- Listing leftover files in directory %s -----\n", root)

	count := 0
	stack, err := ListSorted(root)
	if err != nil {
		slog.Warn("Failed to list temporary directory", logfields.Path(root), logfields.Error(err))
	}

	for len(stack) > 0 {
		entry := stack[0]
		stack = stack[1:]
		count++

		marker, size, slash := "   ", entry.Size, ""
		if entry.IsDir {
			marker, size, slash = "DIR", 0, "/"
		}
		rel := entry.Path[min(len(root)+1, len(entry.Path)):]
		fmt.Fprintf(m.sink, "[TMPDIR]  %s  %10d B  %s%s\n", marker, size, rel, slash)

		if entry.IsDir {
			children, err := ListSorted(entry.Path)
			if err != nil {
				// Abandon this subtree, keep walking the rest.
				slog.Warn("Failed to list temporary directory", logfields.Path(entry.Path), logfields.Error(err))
				continue
			}
			stack = append(children, stack...)
		}
	}

	fmt.Fprintf(m.sink, "[TMPDIR] --------------------------------\n")
	m.recorder.AddLeftoverEntries(count)
}

func (m *Manager) recordPhase(phase metrics.PhaseLabel, start time.Time, result metrics.ResultLabel) {
	m.recorder.ObservePhaseDuration(phase, time.Since(start))
	m.recorder.IncPhaseResult(phase, result)
}
