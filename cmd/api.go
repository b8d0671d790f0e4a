package cmd

import (
	"context"

	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/agent-search-tools/internal/mcp"
	"github.com/Laisky/agent-search-tools/internal/web"
	"github.com/Laisky/agent-search-tools/library/log"
	"github.com/Laisky/agent-search-tools/library/search"
	"github.com/Laisky/agent-search-tools/library/search/gong"
	"github.com/Laisky/agent-search-tools/library/search/google"
	"github.com/Laisky/agent-search-tools/library/search/serpgoogle"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `serve the search tools over MCP`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		provider := newSearchProvider()
		searcher := newGongClient()

		server, err := mcp.NewServer(provider, searcher, mcp.LoadToolsSettingsFromConfig(), log.Logger)
		if err != nil {
			log.Logger.Panic("new mcp server", zap.Error(err))
		}

		web.RunServer(gconfig.Shared.GetString("listen"), server.Handler())
	},
}

func newSearchProvider() search.Provider {
	settings := mcp.LoadGoogleSettingsFromConfig()
	engine := google.NewSearchEngine(settings.APIKey, settings.CX)

	adapter, err := search.NewGoogleEngineAdapter(engine)
	if err != nil {
		log.Logger.Panic("new google engine adapter", zap.Error(err))
	}

	tiers := [][]search.Engine{{adapter}}
	if serpSettings := mcp.LoadSerpSettingsFromConfig(); serpSettings.APIKey != "" {
		tiers = append(tiers, []search.Engine{serpgoogle.NewSearchEngine(serpSettings.APIKey)})
	}

	manager, err := search.NewManager(tiers)
	if err != nil {
		log.Logger.Panic("new search manager", zap.Error(err))
	}

	return manager
}

func newGongClient() *gong.Client {
	settings := mcp.LoadGongSettingsFromConfig()

	return gong.NewClient(
		gong.Credentials{
			AccessKey:       settings.AccessKey,
			AccessKeySecret: settings.AccessKeySecret,
			BearerToken:     settings.BearerToken,
		},
		gong.WithBaseURL(settings.BaseURL),
		gong.WithMaxRetries(settings.MaxRetries),
	)
}

func init() {
	rootCMD.AddCommand(apiCMD)
}
