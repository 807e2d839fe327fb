package amp

import (
	"time"

	"github.com/zeroshot/zeroshot/internal/client"
)

// extAmpModeKey mirrors client.ExtAmpModel's naming convention for Amp's
// mode extension. Defined here rather than in internal/client to avoid an
// import cycle; client.NewFromClientConfigs uses the same literal.
const extAmpModeKey = "amp.mode"

// Config holds Amp-specific spawn configuration, translated from the
// provider-agnostic client.Config by configFromClient.
type Config struct {
	WorkDir         string
	Prompt          string
	ThreadID        string
	Model           string
	Mode            string
	MCPConfig       string
	SkipPermissions bool
	DisableIDE      bool
	Timeout         time.Duration
}

// configFromClient translates a provider-agnostic client.Config into an
// Amp Config. Amp has no dedicated system-prompt flag, so SystemPrompt is
// prefixed onto Prompt the same way gemini's configFromClient does.
func configFromClient(cfg client.Config) Config {
	prompt := cfg.Prompt
	if cfg.SystemPrompt != "" {
		prompt = cfg.SystemPrompt + "\n\n" + prompt
	}

	return Config{
		WorkDir:         cfg.WorkDir,
		Prompt:          prompt,
		ThreadID:        cfg.SessionID,
		Model:           cfg.AmpModel(),
		Mode:            cfg.GetExtensionString(extAmpModeKey),
		MCPConfig:       cfg.MCPConfig,
		SkipPermissions: cfg.SkipPermissions,
		DisableIDE:      true,
		Timeout:         cfg.Timeout,
	}
}
