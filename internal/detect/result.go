package detect

// Status is the outcome of a detection.
type Status int

const (
	NotChecked Status = iota
	Verified
	NotFound
	Error
)

func (s Status) String() string {
	switch s {
	case NotChecked:
		return "not-checked"
	case Verified:
		return "verified"
	case NotFound:
		return "not-found"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Source records which probe located the tool.
type Source string

const (
	SourceNone       Source = ""
	SourcePath       Source = "path"
	SourceCommonPath Source = "common-path"
	SourceOS         Source = "os"
)

// VersionUnknown is reported when a version probe fails or its output
// cannot be parsed.
const VersionUnknown = "Unknown"

// Result is a snapshot of one detection. It is never mutated after Detect
// returns it.
type Result struct {
	Tool           string `json:"tool"`
	Installed      bool   `json:"installed"`
	Version        string `json:"version,omitempty"`
	ExecutablePath string `json:"executable_path,omitempty"`
	InstallPath    string `json:"install_path,omitempty"`
	Source         Source `json:"source,omitempty"`
	Status         Status `json:"status"`
	ErrorMessage   string `json:"error,omitempty"`
}

// Location returns the most specific path known for the tool.
func (r Result) Location() string {
	if r.ExecutablePath != "" {
		return r.ExecutablePath
	}
	return r.InstallPath
}
