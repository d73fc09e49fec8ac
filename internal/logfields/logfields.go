package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyState      = "state"
	KeyPreset     = "preset"
	KeyExtension  = "extension"
	KeyBuilder    = "builder"
	KeyTarget     = "target"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyOutputDir  = "output_dir"
	KeyStaticDir  = "static_dir"
	KeyCount      = "count"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyAddr       = "addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr        { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr        { return slog.String(KeyStage, name) }
func State(name string) slog.Attr        { return slog.String(KeyState, name) }
func Preset(name string) slog.Attr       { return slog.String(KeyPreset, name) }
func Extension(name string) slog.Attr    { return slog.String(KeyExtension, name) }
func Builder(name string) slog.Attr      { return slog.String(KeyBuilder, name) }
func Target(name string) slog.Attr       { return slog.String(KeyTarget, name) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func OutputDir(p string) slog.Attr       { return slog.String(KeyOutputDir, p) }
func StaticDir(p string) slog.Attr       { return slog.String(KeyStaticDir, p) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr          { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr      { return slog.String(KeyRemoteAddr, a) }
func Addr(a string) slog.Attr            { return slog.String(KeyAddr, a) }
func Duration(d time.Duration) slog.Attr { return DurationMS(float64(d.Microseconds()) / 1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
