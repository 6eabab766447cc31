// Package runner executes a build step inside a managed temporary-directory
// lifecycle: setup before the step, guaranteed teardown after it, on every
// exit path including interruption.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/tmpwrap/internal/config"
	"git.home.luguber.info/inful/tmpwrap/internal/foundation/errors"
	"git.home.luguber.info/inful/tmpwrap/internal/logfields"
	"git.home.luguber.info/inful/tmpwrap/internal/tmpdir"
)

// Runner wraps one build step invocation.
type Runner struct {
	cfg     *config.Config
	manager *tmpdir.Manager
	stdout  io.Writer
	stderr  io.Writer
}

// New creates a Runner. The manager's sink should be the build log so the
// [TMPDIR] lines interleave with the step's own output.
func New(cfg *config.Config, manager *tmpdir.Manager, stdout, stderr io.Writer) *Runner {
	return &Runner{cfg: cfg, manager: manager, stdout: stdout, stderr: stderr}
}

// Result reports how a wrapped step finished.
type Result struct {
	// ExitCode is the step's exit code; -1 when the step never ran or was
	// killed by a signal.
	ExitCode int
	// BuildTag is the tag the lifecycle used, generated when the host did
	// not provide one.
	BuildTag string
	// TmpDir is the anchored temporary-directory path the step ran with.
	TmpDir string
}

// Run executes argv as the build step with TEMP and TMPDIR pointing at a
// fresh private directory. Teardown runs regardless of the step's outcome;
// a teardown failure is returned even when the step itself succeeded.
func (r *Runner) Run(ctx context.Context, jobTemplate string, argv []string) (res Result, err error) {
	res = Result{ExitCode: -1}
	if len(argv) == 0 {
		return res, errors.ValidationError("no build step command given").Build()
	}

	buildEnv := environMap(os.Environ())
	tag, ok := buildEnv["BUILD_TAG"]
	if !ok || tag == "" {
		tag = "build-" + uuid.NewString()
		buildEnv["BUILD_TAG"] = tag
		slog.Debug("Generated build tag", logfields.BuildTag(tag))
	}
	res.BuildTag = tag

	lc, err := r.manager.Setup(jobTemplate, r.cfg.DirTemplate, buildEnv, r.cfg.LogDirContents)
	if err != nil {
		// Setup failures abort before the step starts; nothing to tear down.
		return res, err
	}
	res.TmpDir = lc.Path

	defer func() {
		if tdErr := r.manager.Teardown(lc); tdErr != nil {
			slog.Error("Teardown failed", logfields.Path(lc.Path), logfields.Error(tdErr))
			if err == nil {
				err = tdErr
			}
		}
	}()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	cmd.Env = stepEnv(buildEnv, lc.EnvPatch())

	slog.Info("Running build step",
		logfields.BuildTag(tag),
		logfields.Path(lc.Path),
		slog.String("command", strings.Join(argv, " ")))

	start := time.Now()
	runErr := cmd.Run()
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	slog.Info("Build step finished",
		logfields.BuildTag(tag),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())),
		logfields.ExitCode(res.ExitCode))

	if runErr != nil {
		if _, isExit := runErr.(*exec.ExitError); isExit {
			// Step ran and failed; the exit code carries the outcome.
			return res, nil
		}
		return res, errors.RuntimeError(fmt.Sprintf("failed to run build step %q", argv[0])).
			WithCause(runErr).
			Build()
	}
	return res, nil
}

// environMap converts os.Environ() form into a lookup map.
func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			env[kv[:idx]] = kv[idx+1:]
		}
	}
	return env
}

// stepEnv flattens the build environment plus the lifecycle patch into the
// form exec.Cmd expects. Patch entries win over inherited ones.
func stepEnv(buildEnv, patch map[string]string) []string {
	merged := make(map[string]string, len(buildEnv)+len(patch))
	for k, v := range buildEnv {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}
