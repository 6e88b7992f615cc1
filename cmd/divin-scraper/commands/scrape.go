package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stylae/divin-scraper/internal/core/scrape"
	openaiInfra "github.com/stylae/divin-scraper/internal/infra/openai"
	"github.com/stylae/divin-scraper/internal/infra/postgres"
	"github.com/stylae/divin-scraper/internal/infra/shopify"
	"github.com/urfave/cli/v3"
)

// ScrapeRunAction はフルパイプラインを実行するコマンドのアクション
func ScrapeRunAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	limit := int(cmd.Int("limit"))
	dryRun := cmd.Bool("dry-run")

	appCtx, err := NewAppContext(envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	cfg := appCtx.Config
	runLogger := appCtx.Logger.With("run_id", uuid.NewString())

	catalog := shopify.NewClient(
		cfg.Shop.BaseURL,
		cfg.Shop.Collections,
		cfg.Shop.PageSize,
		shopify.WithLogger(runLogger),
	)

	embedder := openaiInfra.NewEmbedder(
		cfg.Embedding.APIKey,
		openaiInfra.WithBaseURL(cfg.Embedding.BaseURL),
		openaiInfra.WithEmbeddingModel(cfg.Embedding.Model),
		openaiInfra.WithEmbeddingDimension(cfg.Embedding.Dimension),
	)

	mapper := scrape.NewMapper(scrape.MapperConfig{
		BaseURL: cfg.Shop.BaseURL,
		Source:  cfg.Source,
		Brand:   cfg.Brand,
		Gender:  cfg.Gender,
	})

	// dry-runではDB接続もストアも不要
	var store scrape.RecordStore
	if !dryRun {
		if err := appCtx.ConnectDatabase(ctx); err != nil {
			return err
		}
		store = postgres.NewRecordRepository(appCtx.Database.Pool)
	}

	service := scrape.NewService(catalog, embedder, store, mapper, scrape.WithLogger(runLogger))

	runLogger.Info("starting scrape run",
		"collections", len(cfg.Shop.Collections),
		"limit", limit,
		"dry_run", dryRun,
	)

	if _, err := service.Run(ctx, scrape.RunParams{Limit: limit, DryRun: dryRun}); err != nil {
		return fmt.Errorf("パイプラインの実行に失敗: %w", err)
	}

	return nil
}
