package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/recall/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"RECALL_RUNTIME_PATH" envDefault:".recall"`

	// Transport flags
	EnableMCP bool `env:"ENABLE_MCP" envDefault:"true"`

	// MCP listen address; empty means stdio transport.
	MCPListenAddr string `env:"MCP_LISTEN_ADDR" envDefault:""`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "recall.db")
}

func (c AppConfig) GetKnowledgePath() string {
	return filepath.Join(c.RuntimePath, "KNOWLEDGE.md")
}

func (c AppConfig) GetDailyLogDir() string {
	return filepath.Join(c.RuntimePath, "logs")
}

func (c AppConfig) GetProfilesDir() string {
	return filepath.Join(c.RuntimePath, "profiles")
}

func (c AppConfig) GetReportsDir() string {
	return filepath.Join(c.RuntimePath, "reports")
}

func (c AppConfig) GetArchiveDir() string {
	return filepath.Join(c.RuntimePath, "archive")
}

func (c AppConfig) GetStatusPath() string {
	return filepath.Join(c.RuntimePath, "consolidation_status.json")
}

func (c AppConfig) GetVectorIndexPath() string {
	return filepath.Join(c.RuntimePath, "vectors")
}
