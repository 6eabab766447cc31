package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildTag   = "build_tag"
	KeyPath       = "path"
	KeyTemplate   = "template"
	KeyTmpRoot    = "tmp_root"
	KeyDurationMS = "duration_ms"
	KeyExitCode   = "exit_code"
	KeyEntries    = "entries"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildTag(tag string) slog.Attr      { return slog.String(KeyBuildTag, tag) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Template(t string) slog.Attr        { return slog.String(KeyTemplate, t) }
func TmpRoot(r string) slog.Attr         { return slog.String(KeyTmpRoot, r) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func ExitCode(code int) slog.Attr        { return slog.Int(KeyExitCode, code) }
func Entries(n int) slog.Attr            { return slog.Int(KeyEntries, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
