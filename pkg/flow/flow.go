// Package flow handles parsing and representation of YAML test flows.
package flow

// Flow represents a parsed flow file.
type Flow struct {
	SourcePath string // Path to the source file
	Config     Config // Flow configuration (appId, tags, etc.)
	Steps      []Step // Steps to execute
}

// Config represents flow-level configuration.
type Config struct {
	AppID string            `yaml:"appId"`
	Name  string            `yaml:"name"`
	Tags  []string          `yaml:"tags"`
	Env   map[string]string `yaml:"env"`
}

// Name returns the configured name, falling back to the source path.
func (f *Flow) Name() string {
	if f.Config.Name != "" {
		return f.Config.Name
	}
	return f.SourcePath
}
