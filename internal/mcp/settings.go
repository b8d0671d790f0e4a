// Package mcp provides the MCP server exposing the search tools.
package mcp

import (
	"strings"

	gconfig "github.com/Laisky/go-config/v2"

	"github.com/Laisky/agent-search-tools/library/search/gong"
)

// ToolsSettings captures runtime configuration for enabling or disabling individual MCP tools.
type ToolsSettings struct {
	WebSearchEnabled      bool
	GongCallSearchEnabled bool
}

// LoadToolsSettingsFromConfig reads the MCP tools configuration and returns a ToolsSettings instance.
// By default, all tools are enabled unless explicitly disabled in the configuration.
func LoadToolsSettingsFromConfig() ToolsSettings {
	return ToolsSettings{
		WebSearchEnabled:      boolFromConfig("settings.mcp.tools.web_search.enabled", true),
		GongCallSearchEnabled: boolFromConfig("settings.mcp.tools.gong_call_search.enabled", true),
	}
}

// GoogleSettings holds the Programmable Search credentials.
type GoogleSettings struct {
	APIKey string
	CX     string
}

// LoadGoogleSettingsFromConfig reads the Google Programmable Search configuration.
func LoadGoogleSettingsFromConfig() GoogleSettings {
	return GoogleSettings{
		APIKey: strings.TrimSpace(gconfig.S.GetString("settings.search.google.api_key")),
		CX:     strings.TrimSpace(gconfig.S.GetString("settings.search.google.cx")),
	}
}

// SerpSettings holds the optional SerpApi credential for the fallback web
// search engine. An empty APIKey disables the fallback tier.
type SerpSettings struct {
	APIKey string
}

// LoadSerpSettingsFromConfig reads the SerpApi configuration.
func LoadSerpSettingsFromConfig() SerpSettings {
	return SerpSettings{
		APIKey: strings.TrimSpace(gconfig.S.GetString("settings.search.serp.api_key")),
	}
}

// GongSettings holds the Gong API credentials and client tuning. Either the
// access key pair or the bearer token must be configured; the client reports
// the configuration error at invocation time, before any network call.
type GongSettings struct {
	AccessKey       string
	AccessKeySecret string
	BearerToken     string
	BaseURL         string
	MaxRetries      int
}

// LoadGongSettingsFromConfig reads the Gong configuration, applying the
// default base URL and retry cap when unset.
func LoadGongSettingsFromConfig() GongSettings {
	settings := GongSettings{
		AccessKey:       strings.TrimSpace(gconfig.S.GetString("settings.search.gong.access_key")),
		AccessKeySecret: strings.TrimSpace(gconfig.S.GetString("settings.search.gong.access_key_secret")),
		BearerToken:     strings.TrimSpace(gconfig.S.GetString("settings.search.gong.bearer_token")),
		BaseURL:         strings.TrimSpace(gconfig.S.GetString("settings.search.gong.base_url")),
		MaxRetries:      gconfig.S.GetInt("settings.search.gong.max_retries"),
	}

	if settings.BaseURL == "" {
		settings.BaseURL = gong.DefaultBaseURL
	}
	if settings.MaxRetries <= 0 {
		settings.MaxRetries = 3
	}

	return settings
}

// boolFromConfig retrieves a boolean configuration value with a default fallback.
func boolFromConfig(key string, def bool) bool {
	value := gconfig.S.Get(key)
	switch v := value.(type) {
	case nil:
		return def
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch v {
		case "true", "True", "TRUE", "1", "yes", "Yes", "YES":
			return true
		case "false", "False", "FALSE", "0", "no", "No", "NO":
			return false
		default:
			return def
		}
	default:
		return def
	}
}
