package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stylae/divin-scraper/internal/platform/logger"
	"github.com/stylae/divin-scraper/pkg/config"
	"github.com/stylae/divin-scraper/pkg/db"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
// データベース接続は必要なコマンドだけが ConnectDatabase で確立する
type AppContext struct {
	Config   *config.Config
	Database *db.DB
	Logger   *slog.Logger
}

// NewAppContext は設定ファイルを読み込んで AppContext を作成する
func NewAppContext(envFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.DefaultConfig())

	return &AppContext{
		Config: cfg,
		Logger: appLogger,
	}, nil
}

// ConnectDatabase はデータベース接続を確立する
func (ac *AppContext) ConnectDatabase(ctx context.Context) error {
	database, err := db.New(ctx, db.ConnectionParams{
		Host:     ac.Config.Database.Host,
		Port:     ac.Config.Database.Port,
		User:     ac.Config.Database.User,
		Password: ac.Config.Database.Password,
		DBName:   ac.Config.Database.DBName,
		SSLMode:  ac.Config.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("データベース接続に失敗: %w", err)
	}
	ac.Database = database
	return nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.Database != nil {
		ac.Database.Close()
	}
}
