package tmpdir

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fnderrors "git.home.luguber.info/inful/tmpwrap/internal/foundation/errors"
	"git.home.luguber.info/inful/tmpwrap/internal/metrics"
)

func newTestManager(t *testing.T) (*Manager, *bytes.Buffer, string) {
	t.Helper()
	root := t.TempDir()
	var sink bytes.Buffer
	mgr := NewManager(&sink, WithTempDirProvider(func() (string, error) { return root, nil }))
	return mgr, &sink, root
}

func TestSetupCreatesAnchoredDirectory(t *testing.T) {
	mgr, sink, root := newTestManager(t)
	env := map[string]string{"BUILD_TAG": "job-42"}

	ctx, err := mgr.Setup("", "${BUILD_TAG}-tmp", env, false)
	require.NoError(t, err)

	want := filepath.Join(root, "job-42-tmp")
	assert.Equal(t, want, ctx.Path)

	info, err := os.Stat(want)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	assert.Equal(t, fmt.Sprintf("[TMPDIR] Creating temporary directory: %s\n", want), sink.String())
}

func TestSetupEnvPatch(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	ctx, err := mgr.Setup("", "${BUILD_TAG}-tmp", map[string]string{"BUILD_TAG": "job-7"}, false)
	require.NoError(t, err)

	patch := ctx.EnvPatch()
	assert.Equal(t, ctx.Path, patch["TEMP"])
	assert.Equal(t, ctx.Path, patch["TMPDIR"])
	assert.Len(t, patch, 2)
}

func TestSetupJobTemplateOverride(t *testing.T) {
	mgr, _, root := newTestManager(t)

	ctx, err := mgr.Setup("override-${BUILD_TAG}", "${BUILD_TAG}-tmp", map[string]string{"BUILD_TAG": "b1"}, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "override-b1"), ctx.Path)
}

func TestSetupFailureReturnsNoContext(t *testing.T) {
	mgr, _, root := newTestManager(t)

	// A regular file where a directory is needed makes MkdirAll fail.
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	ctx, err := mgr.Setup(filepath.Join(blocker, "nested"), "", nil, false)
	require.Error(t, err)
	assert.Nil(t, ctx)
	assert.True(t, fnderrors.HasCategory(err, fnderrors.CategoryFileSystem))
}

func TestTeardownMissingPathIsNoop(t *testing.T) {
	mgr, sink, root := newTestManager(t)
	gone := filepath.Join(root, "never-created")

	err := mgr.Teardown(&Context{Path: gone, LogContents: true})
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("[TMPDIR] Directory %s already deleted during build, nothing to do.\n", gone), sink.String())
	assert.NotContains(t, sink.String(), "Deleting directory")
	assert.NotContains(t, sink.String(), "Listing leftover files")
}

func TestTeardownLogsLeftoversInOrder(t *testing.T) {
	mgr, sink, root := newTestManager(t)

	dir := filepath.Join(root, "job-42-tmp")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f1"), []byte("12345"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "f2"), nil, 0o644))

	require.NoError(t, mgr.Teardown(&Context{Path: dir, LogContents: true}))

	want := fmt.Sprintf("[TMPDIR] ----- Listing leftover files in directory %s -----\n", dir) +
		fmt.Sprintf("[TMPDIR]  %s  %10d B  %s%s\n", "   ", 5, "f1", "") +
		fmt.Sprintf("[TMPDIR]  %s  %10d B  %s%s\n", "DIR", 0, "sub", "/") +
		fmt.Sprintf("[TMPDIR]  %s  %10d B  %s%s\n", "   ", 0, "sub/f2", "") +
		"[TMPDIR] --------------------------------\n" +
		fmt.Sprintf("[TMPDIR] Deleting directory: %s\n", dir)
	assert.Equal(t, want, sink.String())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "directory must be deleted after teardown")
}

func TestTeardownWithoutListing(t *testing.T) {
	mgr, sink, root := newTestManager(t)

	dir := filepath.Join(root, "job-42-tmp")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leftover"), []byte("x"), 0o644))

	require.NoError(t, mgr.Teardown(&Context{Path: dir, LogContents: false}))

	assert.NotContains(t, sink.String(), "Listing leftover files")
	assert.Contains(t, sink.String(), fmt.Sprintf("[TMPDIR] Deleting directory: %s\n", dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestSetupTeardownRoundTrip(t *testing.T) {
	mgr, _, root := newTestManager(t)
	env := map[string]string{"BUILD_TAG": "job-42"}

	ctx, err := mgr.Setup("", "${BUILD_TAG}-tmp", env, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "job-42-tmp"), ctx.Path)
	require.DirExists(t, ctx.Path)

	require.NoError(t, mgr.Teardown(ctx))
	_, statErr := os.Stat(ctx.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTeardownIdempotent(t *testing.T) {
	mgr, sink, _ := newTestManager(t)

	ctx, err := mgr.Setup("", "${BUILD_TAG}-tmp", map[string]string{"BUILD_TAG": "job-9"}, false)
	require.NoError(t, err)

	require.NoError(t, mgr.Teardown(ctx))
	sink.Reset()

	require.NoError(t, mgr.Teardown(ctx))
	assert.Contains(t, sink.String(), "already deleted during build, nothing to do.")
}

func TestTeardownListingFailureStillDeletes(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed when running as root")
	}

	mgr, sink, root := newTestManager(t)

	// An empty unreadable directory: listing fails, removal still works.
	dir := filepath.Join(root, "job-42-tmp")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.Chmod(dir, 0o300))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	err := mgr.Teardown(&Context{Path: dir, LogContents: true})
	require.NoError(t, err)

	assert.Contains(t, sink.String(), "Listing leftover files")
	assert.Contains(t, sink.String(), "[TMPDIR] --------------------------------\n")
	assert.Contains(t, sink.String(), fmt.Sprintf("[TMPDIR] Deleting directory: %s\n", dir))
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

type countingRecorder struct {
	durations map[metrics.PhaseLabel]int
	results   map[string]int
	leftovers int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{durations: map[metrics.PhaseLabel]int{}, results: map[string]int{}}
}

func (c *countingRecorder) ObservePhaseDuration(phase metrics.PhaseLabel, _ time.Duration) {
	c.durations[phase]++
}

func (c *countingRecorder) IncPhaseResult(phase metrics.PhaseLabel, result metrics.ResultLabel) {
	c.results[string(phase)+"/"+string(result)]++
}

func (c *countingRecorder) AddLeftoverEntries(n int) { c.leftovers += n }

func TestLifecycleMetrics(t *testing.T) {
	root := t.TempDir()
	rec := newCountingRecorder()
	var sink bytes.Buffer
	mgr := NewManager(&sink,
		WithTempDirProvider(func() (string, error) { return root, nil }),
		WithRecorder(rec))

	ctx, err := mgr.Setup("", "${BUILD_TAG}-tmp", map[string]string{"BUILD_TAG": "m1"}, true)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(ctx.Path, "left"), []byte("x"), 0o644))

	require.NoError(t, mgr.Teardown(ctx))
	require.NoError(t, mgr.Teardown(ctx)) // second call records a skip

	assert.Equal(t, 1, rec.results["setup/success"])
	assert.Equal(t, 1, rec.results["teardown/success"])
	assert.Equal(t, 1, rec.results["teardown/skipped"])
	assert.Equal(t, 1, rec.leftovers)
	assert.Equal(t, 1, rec.durations[metrics.PhaseSetup])
	assert.Equal(t, 2, rec.durations[metrics.PhaseTeardown])
}

func TestDeepNestingListing(t *testing.T) {
	mgr, sink, root := newTestManager(t)

	dir := filepath.Join(root, "deep-tmp")
	nested := dir
	for range 30 {
		nested = filepath.Join(nested, "d")
	}
	require.NoError(t, os.MkdirAll(nested, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "leaf"), []byte("x"), 0o644))

	require.NoError(t, mgr.Teardown(&Context{Path: dir, LogContents: true}))

	rel := strings.TrimPrefix(nested, dir+string(filepath.Separator))
	assert.Contains(t, sink.String(), rel+"/leaf")
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
