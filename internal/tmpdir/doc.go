// Package tmpdir manages the per-build temporary-directory lifecycle: template
// resolution, path anchoring, creation with restrictive permissions, and
// guaranteed recursive cleanup.
//
// A build's directory path is derived from a template (job-level override or
// global default, e.g. ${BUILD_TAG}-tmp) expanded against the build
// environment. Relative results are anchored under the executing node's
// platform temp root. Setup creates the directory with mode 0700 and yields
// the TEMP/TMPDIR environment patch; teardown optionally logs the leftover
// contents in deterministic order and then deletes the directory recursively.
//
// The [TMPDIR] lines written to the build log sink are a stable contract for
// operator tooling and must not change format.
package tmpdir
