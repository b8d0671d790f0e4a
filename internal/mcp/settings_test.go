package mcp

import (
	"testing"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/agent-search-tools/library/search/gong"
)

func TestLoadToolsSettingsDefaultsToEnabled(t *testing.T) {
	settings := LoadToolsSettingsFromConfig()
	require.True(t, settings.WebSearchEnabled)
	require.True(t, settings.GongCallSearchEnabled)
}

func TestLoadToolsSettingsHonoursDisableFlags(t *testing.T) {
	gconfig.S.Set("settings.mcp.tools.web_search.enabled", false)
	gconfig.S.Set("settings.mcp.tools.gong_call_search.enabled", "no")
	defer func() {
		gconfig.S.Set("settings.mcp.tools.web_search.enabled", nil)
		gconfig.S.Set("settings.mcp.tools.gong_call_search.enabled", nil)
	}()

	settings := LoadToolsSettingsFromConfig()
	require.False(t, settings.WebSearchEnabled)
	require.False(t, settings.GongCallSearchEnabled)
}

func TestLoadGongSettingsAppliesDefaults(t *testing.T) {
	settings := LoadGongSettingsFromConfig()
	require.Equal(t, gong.DefaultBaseURL, settings.BaseURL)
	require.Equal(t, 3, settings.MaxRetries)
}

func TestLoadGongSettingsReadsOverrides(t *testing.T) {
	gconfig.S.Set("settings.search.gong.base_url", "https://eu-1.api.gong.io/")
	gconfig.S.Set("settings.search.gong.max_retries", 5)
	gconfig.S.Set("settings.search.gong.bearer_token", "  token  ")
	defer func() {
		gconfig.S.Set("settings.search.gong.base_url", nil)
		gconfig.S.Set("settings.search.gong.max_retries", nil)
		gconfig.S.Set("settings.search.gong.bearer_token", nil)
	}()

	settings := LoadGongSettingsFromConfig()
	require.Equal(t, "https://eu-1.api.gong.io/", settings.BaseURL)
	require.Equal(t, 5, settings.MaxRetries)
	require.Equal(t, "token", settings.BearerToken)
}

func TestBoolFromConfig(t *testing.T) {
	require.True(t, boolFromConfig("settings.not.set", true))
	require.False(t, boolFromConfig("settings.not.set", false))

	gconfig.S.Set("settings.test.flag", "1")
	defer gconfig.S.Set("settings.test.flag", nil)
	require.True(t, boolFromConfig("settings.test.flag", false))

	gconfig.S.Set("settings.test.flag", "FALSE")
	require.False(t, boolFromConfig("settings.test.flag", true))

	gconfig.S.Set("settings.test.flag", "maybe")
	require.True(t, boolFromConfig("settings.test.flag", true))
}
