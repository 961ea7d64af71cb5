package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/recall/internal/config"
	"github.com/sandevgo/recall/internal/providers/summarizer"
	"github.com/sandevgo/recall/internal/providers/vector"
	"github.com/sandevgo/recall/internal/service/consolidate"
	"github.com/sandevgo/recall/internal/service/memory"
	"github.com/sandevgo/recall/internal/storage/sqlite"
	"github.com/sandevgo/recall/internal/transport/mcp"
	"github.com/sandevgo/recall/pkg/log"
	"github.com/sandevgo/recall/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	searchCfg := config.NewSearchConfig(ctx)
	vectorCfg := config.NewVectorConfig(ctx)
	sumCfg := config.NewSummarizerConfig(ctx)
	consCfg := config.NewConsolidateConfig(ctx)

	// 2. Storage
	db, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	factRepo := sqlite.NewFactRepo(db)
	entityRepo := sqlite.NewEntityRepo(db)
	prefRepo := sqlite.NewPreferenceRepo(db)
	sessionRepo := sqlite.NewSessionRepo(db)
	identityRepo := sqlite.NewIdentityRepo(db)

	// 3. Vector index (optional; recall degrades to keyword-only without it)
	vectorIndex, err := vector.NewChromemIndex(ctx, vectorCfg, appCfg.GetVectorIndexPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize vector index")
	}

	// 4. Memory engine
	mirror := memory.NewDailyLog(appCfg.GetDailyLogDir())
	mem := memory.NewService(searchCfg, factRepo, prefRepo, identityRepo, vectorIndex, mirror)
	profiles := memory.NewProfiles(appCfg.GetProfilesDir(), entityRepo, factRepo)

	// 5. Consolidation pipeline
	if consCfg.Enabled {
		sum, err := summarizer.NewSummarizer(ctx, sumCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize summarizer")
		}
		consolidator := consolidate.NewConsolidator(
			consCfg,
			factRepo, entityRepo, prefRepo,
			mem, sum, vectorIndex,
			appCfg.GetKnowledgePath(),
			appCfg.GetReportsDir(),
			appCfg.GetArchiveDir(),
			appCfg.GetStatusPath(),
		)
		services = append(services, consolidator)
	}

	// 6. Transport
	if appCfg.EnableMCP {
		services = append(services, mcp.NewServer(mem, profiles, sessionRepo, appCfg.MCPListenAddr))
	}

	return services
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, error) {
	return sqlite.NewDB(ctx, cfg.GetDatabasePath())
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", envFile).Msg("no .env file, relying on process env")
			return nil
		}
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loading .env")
	return godotenv.Load(envFile)
}
