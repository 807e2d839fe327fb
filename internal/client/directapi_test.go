package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type extractTarget struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
}

func TestExtractJSON_StrictParse(t *testing.T) {
	var out extractTarget
	err := ExtractJSON(`{"name":"a","ok":true}`, &out)
	require.NoError(t, err)
	require.Equal(t, "a", out.Name)
	require.True(t, out.OK)
}

func TestExtractJSON_FencedCodeBlock(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"name\":\"b\",\"ok\":true}\n```\nThanks."
	var out extractTarget
	err := ExtractJSON(raw, &out)
	require.NoError(t, err)
	require.Equal(t, "b", out.Name)
}

func TestExtractJSON_FirstBalancedObject(t *testing.T) {
	raw := `some preamble text {"name":"c","ok":false} trailing text`
	var out extractTarget
	err := ExtractJSON(raw, &out)
	require.NoError(t, err)
	require.Equal(t, "c", out.Name)
	require.False(t, out.OK)
}

func TestExtractJSON_ObjectWithNestedBraces(t *testing.T) {
	raw := `noise {"name":"{nested}","ok":true} more noise`
	var out extractTarget
	err := ExtractJSON(raw, &out)
	require.NoError(t, err)
	require.Equal(t, "{nested}", out.Name)
}

func TestExtractJSON_NoValidJSON(t *testing.T) {
	var out extractTarget
	err := ExtractJSON("no json here at all", &out)
	require.ErrorIs(t, err, ErrDirectAPIValidation)
}

func TestHasDirectAPICredential(t *testing.T) {
	present := func(string) (string, bool) { return "sk-ant-x", true }
	absent := func(string) (string, bool) { return "", false }
	require.True(t, HasDirectAPICredential(present))
	require.False(t, HasDirectAPICredential(absent))
}
