package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// Embeddingサーバ設定
	Embedding EmbeddingConfig

	// 取得元ストアフロント設定
	Shop ShopConfig

	// レコードの固定属性
	Source string
	Brand  string
	Gender string
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// EmbeddingConfig はEmbeddingサーバ設定（OpenAI互換API）
type EmbeddingConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

// ShopConfig はストアフロントのカタログ取得設定
type ShopConfig struct {
	BaseURL     string
	Collections []string // 取得順を保持したコレクションハンドル一覧
	PageSize    int
}

// defaultCollections はDivinストアフロントのコレクションハンドル（取得順）
var defaultCollections = []string{
	"zips-and-hoodies",
	"denim-pants",
	"jackets",
	"t-shirts",
	"knits-and-crewnecks",
	"accessories",
	"jorts-shorts",
	"tops-shirts",
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "scraper"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "catalog"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Embedding: EmbeddingConfig{
			BaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:7997/v1"),
			APIKey:    getEnv("EMBEDDING_API_KEY", ""),
			Model:     getEnv("EMBEDDING_MODEL", "google/siglip-base-patch16-384"),
			Dimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
		},
		Shop: ShopConfig{
			BaseURL:     getEnv("SHOP_BASE_URL", "https://divinbydivin.com"),
			Collections: getEnvAsList("SHOP_COLLECTIONS", defaultCollections),
			PageSize:    getEnvAsInt("SHOP_PAGE_SIZE", 250),
		},
		Source: getEnv("RECORD_SOURCE", "scraper"),
		Brand:  getEnv("RECORD_BRAND", "Divin"),
		Gender: getEnv("RECORD_GENDER", "man"),
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList はカンマ区切りの環境変数をスライスとして取得します
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
