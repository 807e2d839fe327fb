package gemini

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/zeroshot/zeroshot/internal/client"
)

// Process represents a headless Gemini CLI process.
// Process implements client.HeadlessProcess by embedding BaseProcess.
type Process struct {
	*client.BaseProcess
}

// ErrTimeout is returned when a Gemini process exceeds its configured timeout.
// It is the same value as client.ErrTimeout, which BaseProcess sends.
var ErrTimeout = client.ErrTimeout

// parser is the shared Gemini event parser instance.
var parser = NewParser()

// Spawn creates and starts a new headless Gemini process.
func Spawn(ctx context.Context, cfg Config) (*Process, error) {
	return spawnProcess(ctx, cfg)
}

// Resume continues an existing Gemini session.
func Resume(ctx context.Context, sessionID string, cfg Config) (*Process, error) {
	cfg.SessionID = sessionID
	return spawnProcess(ctx, cfg)
}

// spawnProcess is the internal implementation for both Spawn and Resume.
func spawnProcess(ctx context.Context, cfg Config) (*Process, error) {
	caps := client.ParseCapabilities("")
	if path, err := exec.LookPath("gemini"); err == nil {
		caps = client.ProbeCapabilities(path)
	}
	args := buildArgs(cfg, caps)

	base, err := client.NewSpawnBuilder(ctx).
		WithExecutable("gemini", args).
		WithWorkDir(cfg.WorkDir).
		WithSessionRef(cfg.SessionID).
		WithTimeout(cfg.Timeout).
		WithParser(parser).
		WithProviderName("gemini").
		Build()
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	return &Process{BaseProcess: base}, nil
}

// SessionID returns the session ID.
func (p *Process) SessionID() string {
	return p.SessionRef()
}

// Ensure Process implements client.HeadlessProcess at compile time.
var _ client.HeadlessProcess = (*Process)(nil)
