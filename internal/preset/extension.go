package preset

// ExtensionPoint names a hook together with the type of value threaded
// through it. Two points with the same name and different payload types
// refer to the same handlers; mixing them is reported as ErrTypeMismatch.
type ExtensionPoint[T any] struct {
	name string
}

// Point declares an extension point.
func Point[T any](name string) ExtensionPoint[T] {
	return ExtensionPoint[T]{name: name}
}

// Name returns the extension point identifier.
func (e ExtensionPoint[T]) Name() string { return e.name }

func (e ExtensionPoint[T]) String() string { return e.name }

// CoreConfig is the payload of the "core" extension point.
type CoreConfig struct {
	Builder          string         `json:"builder" yaml:"builder"`
	DisableTelemetry bool           `json:"disableTelemetry,omitempty" yaml:"disableTelemetry,omitempty"`
	Options          map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Ref is a composed external instance shown in the manager sidebar.
type Ref struct {
	ID      string `json:"id" yaml:"id"`
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
}

// TranspileOptions configures source transformation shared by all backends.
type TranspileOptions struct {
	JSX             string            `json:"jsx,omitempty" yaml:"jsx,omitempty"` // automatic|transform|preserve
	JSXImportSource string            `json:"jsxImportSource,omitempty" yaml:"jsxImportSource,omitempty"`
	Loaders         map[string]string `json:"loaders,omitempty" yaml:"loaders,omitempty"` // file extension -> loader name
	Target          []string          `json:"target,omitempty" yaml:"target,omitempty"`
}

// Well-known extension points.
var (
	Core           = Point[CoreConfig]("core")
	Entries        = Point[[]string]("entries")
	Stories        = Point[[]string]("stories")
	ManagerEntries = Point[[]string]("managerEntries")
	Refs           = Point[map[string]Ref]("refs")
	Env            = Point[map[string]string]("env")
	Transpile      = Point[TranspileOptions]("transpile")
	ManagerHead    = Point[string]("managerHead")
	PreviewHead    = Point[string]("previewHead")
	StaticDirs     = Point[[]string]("staticDirs")
)
