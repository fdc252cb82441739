package cli

import "github.com/dd0wney/bdi/pkg/bdiconfig"

// loadRootConfig returns bdiconfig.Default() when opts.ConfigPath is
// empty, otherwise loads and validates the YAML file at that path.
func loadRootConfig(opts *RootOptions) (*bdiconfig.Config, error) {
	if opts.ConfigPath == "" {
		return bdiconfig.Default(), nil
	}
	return bdiconfig.Load(opts.ConfigPath)
}
