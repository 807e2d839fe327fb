package amp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeroshot/zeroshot/internal/client"
)

var allCaps = client.Capabilities{
	SupportsAutoApprove:    true,
	SupportsConfigOverride: true,
	SupportsStreamJSON:     true,
}

func TestBuildArgs_NewSession(t *testing.T) {
	args := buildArgs(Config{Prompt: "fix the bug"}, false, allCaps)
	assert.Equal(t, []string{"--no-notifications", "--stream-json", "-x", "fix the bug"}, args)
}

func TestBuildArgs_Resume(t *testing.T) {
	args := buildArgs(Config{ThreadID: "T-abc", Prompt: "continue"}, true, allCaps)
	assert.Equal(t, []string{"threads", "continue", "T-abc", "--no-notifications", "--stream-json", "-x", "continue"}, args)
}

func TestBuildArgs_SkipPermissions(t *testing.T) {
	args := buildArgs(Config{SkipPermissions: true}, false, allCaps)
	assert.Contains(t, args, "--dangerously-allow-all")
}

func TestBuildArgs_SonnetModel(t *testing.T) {
	args := buildArgs(Config{Model: "sonnet"}, false, allCaps)
	assert.Contains(t, args, "--use-sonnet")
}

func TestBuildArgs_MCPConfig(t *testing.T) {
	args := buildArgs(Config{MCPConfig: `{"servers":{}}`}, false, allCaps)
	assert.Contains(t, args, "--mcp-config")
	assert.Contains(t, args, `{"servers":{}}`)
}

func TestBuildArgs_OmitsFlagsForUnsupportedCapabilities(t *testing.T) {
	args := buildArgs(Config{
		SkipPermissions: true,
		MCPConfig:       `{"servers":{}}`,
		Prompt:          "hello",
	}, false, client.Capabilities{})

	assert.NotContains(t, args, "--dangerously-allow-all")
	assert.NotContains(t, args, "--mcp-config")
	assert.NotContains(t, args, "--stream-json")
	assert.Equal(t, []string{"--no-notifications", "-x", "hello"}, args)
}
