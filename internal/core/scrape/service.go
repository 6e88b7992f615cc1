package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RunParams はパイプライン実行のパラメータ
type RunParams struct {
	// Limit は処理する商品数の上限（0以下で無制限）
	// 画像フィルタの前にカウントされるため、保存件数はこれより少なくなりうる
	Limit int

	// DryRun が真の場合、Embedding生成と保存を行わずログ出力のみ行う
	DryRun bool
}

// RunResult はパイプライン実行のサマリ
type RunResult struct {
	Seen     int
	Skipped  int
	Failed   int
	Stored   int
	Duration time.Duration
}

// Service はfetch → filter → embed → map → storeのパイプラインを駆動する
type Service struct {
	catalog  CatalogProvider
	embedder Embedder
	store    RecordStore
	mapper   *Mapper
	logger   *slog.Logger
}

type serviceOptions struct {
	logger *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*serviceOptions)

// WithLogger は Service にロガーを設定する
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService は新しい Service を作成する
// dry-run専用の実行では store にnilを渡してよい
func NewService(catalog CatalogProvider, embedder Embedder, store RecordStore, mapper *Mapper, opts ...ServiceOption) *Service {
	options := serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	return &Service{
		catalog:  catalog,
		embedder: embedder,
		store:    store,
		mapper:   mapper,
		logger:   options.logger,
	}
}

// Run はカタログ全体を1商品ずつ順に処理する
// 取得層のエラーは致命的として即座に返し、商品単位のエラーはログに残して継続する
func (s *Service) Run(ctx context.Context, params RunParams) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	for item, err := range s.catalog.Products(ctx) {
		if err != nil {
			return nil, fmt.Errorf("catalog fetch failed: %w", err)
		}

		if params.Limit > 0 && result.Seen >= params.Limit {
			break
		}
		result.Seen++

		product := item.Product
		label := strings.TrimSpace(product.Title)
		if label == "" {
			label = product.Handle
		}

		// 画像フィルタ: プライマリ画像を解決できない商品はスキップ
		if len(product.Images) == 0 {
			s.logger.Warn("skip: no images", "item", label)
			result.Skipped++
			continue
		}
		imageURL := strings.TrimSpace(product.Images[0].Src)
		if imageURL == "" {
			s.logger.Warn("skip: empty image src", "item", label)
			result.Skipped++
			continue
		}

		if params.DryRun {
			s.logger.Info("dry-run: would process", "item", label, "collection", item.Collection)
			continue
		}

		if err := s.processItem(ctx, &product, item.Collection, imageURL); err != nil {
			s.logger.Error("item failed", "item", label, "handle", product.Handle, "error", err)
			result.Failed++
			continue
		}
		result.Stored++
	}

	result.Duration = time.Since(start)
	s.logger.Info("run finished",
		"seen", result.Seen,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"stored", result.Stored,
		"duration", result.Duration.String(),
	)
	return result, nil
}

// processItem は画像フィルタ通過後の1商品を処理する
// ここで発生するエラーはすべて回復可能な ItemError として返る
func (s *Service) processItem(ctx context.Context, product *Product, collection, imageURL string) error {
	label := strings.TrimSpace(product.Title)
	s.logger.Info("embedding image + text", "item", label, "handle", product.Handle)

	imageEmbedding, err := s.embedder.EmbedImage(ctx, imageURL)
	if err != nil {
		return &ItemError{Handle: product.Handle, Title: product.Title, Err: fmt.Errorf("embed image: %w", err)}
	}

	category := s.mapper.CategoryFor(collection)
	productURL := s.mapper.ProductURL(product.Handle)
	infoText := s.mapper.BuildInfoText(product, category, productURL)

	infoEmbedding, err := s.embedder.EmbedText(ctx, infoText)
	if err != nil {
		return &ItemError{Handle: product.Handle, Title: product.Title, Err: fmt.Errorf("embed text: %w", err)}
	}

	record := s.mapper.MapRecord(product, collection, imageEmbedding, infoEmbedding)
	if err := s.store.Upsert(ctx, record); err != nil {
		return &ItemError{Handle: product.Handle, Title: product.Title, Err: fmt.Errorf("upsert record: %w", err)}
	}

	s.logger.Info("upserted", "item", label, "id", record.ID)
	return nil
}
