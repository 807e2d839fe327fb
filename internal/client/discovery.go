package client

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecutableFinder locates a provider CLI binary on disk. An optional
// override environment variable (space-split into a leading-args form, e.g.
// "/usr/bin/env claude") is checked first, then known paths in order, then
// the process PATH.
type ExecutableFinder struct {
	name        string
	knownPaths  []string
	envOverride string
}

// ExecutableFinderOption configures an ExecutableFinder.
type ExecutableFinderOption func(*ExecutableFinder)

// WithKnownPaths adds candidate paths, checked in order before PATH lookup.
// The token "{name}" is replaced with the finder's binary name and a leading
// "~/" is expanded to the user's home directory.
func WithKnownPaths(paths ...string) ExecutableFinderOption {
	return func(f *ExecutableFinder) {
		f.knownPaths = append(f.knownPaths, paths...)
	}
}

// WithEnvOverride sets an environment variable that, when non-empty,
// overrides binary discovery entirely (e.g. ZEROSHOT_CLAUDE_COMMAND).
func WithEnvOverride(envVar string) ExecutableFinderOption {
	return func(f *ExecutableFinder) {
		f.envOverride = envVar
	}
}

// NewExecutableFinder creates a finder for the given binary name.
func NewExecutableFinder(name string, opts ...ExecutableFinderOption) *ExecutableFinder {
	f := &ExecutableFinder{name: name}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find resolves the executable path, discarding any leading args an
// env-var override may carry. Most callers want FindWithArgs instead.
func (f *ExecutableFinder) Find() (string, error) {
	path, _, err := f.FindWithArgs()
	return path, err
}

// FindWithArgs resolves the executable path and any leading arguments baked
// into an env-var override.
func (f *ExecutableFinder) FindWithArgs() (string, []string, error) {
	if f.envOverride != "" {
		if v := os.Getenv(f.envOverride); v != "" {
			fields := strings.Fields(v)
			if len(fields) == 0 {
				return "", nil, fmt.Errorf("%s: %s is set but empty", f.name, f.envOverride)
			}
			return fields[0], fields[1:], nil
		}
	}

	for _, p := range f.knownPaths {
		candidate := expandHome(strings.ReplaceAll(p, "{name}", f.name))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil, nil
		}
	}

	path, err := exec.LookPath(f.name)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w: %s", f.name, ErrProviderUnavailable, err)
	}
	return path, nil, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// BuildEnvVars returns the extra KEY=VALUE environment entries a provider
// process should be started with, on top of the inherited parent
// environment. Per the environment-variable contract, only
// ZEROSHOT_SETTINGS_FILE is forwarded when set; providers needing
// credentials read them directly from the inherited environment
// (e.g. ANTHROPIC_API_KEY).
func BuildEnvVars(cfg Config) []string {
	var env []string
	if v := os.Getenv("ZEROSHOT_SETTINGS_FILE"); v != "" {
		env = append(env, "ZEROSHOT_SETTINGS_FILE="+v)
	}
	return env
}
