package tmpdir

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/tmpwrap/internal/foundation/errors"
)

// TempDirProvider returns the platform temp-directory root of the node that
// executes the build. On a distributed fleet the implementation performs the
// cross-node call; locally it is a plain system read.
type TempDirProvider func() (string, error)

// LocalTempDir is the TempDirProvider for single-node execution.
func LocalTempDir() (string, error) {
	return os.TempDir(), nil
}

// Anchor normalizes a resolved template path and makes bare names absolute.
//
// A path without a parent component (a bare filename left over after
// expansion) is anchored as a child of the node's temp root. Anything that
// already carries a parent component is returned in normalized form
// unchanged, which makes Anchor idempotent: anchoring an anchored path is
// the identity.
func Anchor(resolvedPath string, provider TempDirProvider) (string, error) {
	normalized := filepath.Clean(resolvedPath)
	if filepath.Dir(normalized) != "." {
		return normalized, nil
	}

	root, err := provider()
	if err != nil {
		return "", errors.FileSystemError("failed to query node temp root").
			WithCause(err).
			WithContext("resolved_path", resolvedPath).
			Build()
	}
	return filepath.Join(root, normalized), nil
}
