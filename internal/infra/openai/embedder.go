package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stylae/divin-scraper/internal/core/scrape"
)

const (
	// DefaultEmbeddingModel はモデル未指定時のデフォルトモデル
	DefaultEmbeddingModel = "google/siglip-base-patch16-384"

	// DefaultEmbeddingDimension はSigLIP base系モデルのベクトル次元
	DefaultEmbeddingDimension = 768
)

// Embedder はOpenAI互換のEmbedding APIで画像・テキストをベクトルに変換する
// 画像とテキストを同一モデルで扱う推論サーバ（SigLIP等をホストするもの）を前提とし、
// 画像入力はリクエスト拡張フィールド modality=image で指定する
type Embedder struct {
	client    openai.Client
	model     string
	dimension int
}

type embedderOptions struct {
	baseURL   string
	model     string
	dimension int
}

// EmbedderOption は Embedder のオプション設定
type EmbedderOption func(*embedderOptions)

// WithBaseURL は推論サーバのエンドポイントを上書きする
func WithBaseURL(baseURL string) EmbedderOption {
	return func(o *embedderOptions) {
		o.baseURL = baseURL
	}
}

// WithEmbeddingModel はモデル名を上書きする
func WithEmbeddingModel(model string) EmbedderOption {
	return func(o *embedderOptions) {
		o.model = model
	}
}

// WithEmbeddingDimension は期待するベクトル次元を上書きする
func WithEmbeddingDimension(dimension int) EmbedderOption {
	return func(o *embedderOptions) {
		o.dimension = dimension
	}
}

// NewEmbedder は新しい Embedder を作成する
func NewEmbedder(apiKey string, opts ...EmbedderOption) *Embedder {
	options := embedderOptions{
		model:     DefaultEmbeddingModel,
		dimension: DefaultEmbeddingDimension,
	}
	for _, opt := range opts {
		opt(&options)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if options.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(options.baseURL))
	}

	return &Embedder{
		client:    openai.NewClient(clientOpts...),
		model:     options.model,
		dimension: options.dimension,
	}
}

// EmbedImage は画像URLからEmbeddingを生成する
// 画像の取得・デコードは推論サーバ側で行われる
func (e *Embedder) EmbedImage(ctx context.Context, imageURL string) ([]float32, error) {
	return e.embed(ctx, imageURL, option.WithJSONSet("modality", "image"))
}

// EmbedText はテキストからEmbeddingを生成する
// 空または空白のみの入力は単一スペースに置換する（サーバは非空入力を要求する）
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		text = " "
	}
	return e.embed(ctx, text)
}

func (e *Embedder) embed(ctx context.Context, input string, opts ...option.RequestOption) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(input),
		},
	}

	resp, err := e.client.Embeddings.New(ctx, params, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}

	// 次元不一致はダウンストリームに流す前に商品単位のエラーとして弾く
	if e.dimension > 0 && len(vector) != e.dimension {
		return nil, fmt.Errorf("unexpected embedding dimension: got %d, want %d", len(vector), e.dimension)
	}

	return vector, nil
}

// Dimension はベクトル次元数を返す
func (e *Embedder) Dimension() int {
	return e.dimension
}

// ModelName はモデル名を返す
func (e *Embedder) ModelName() string {
	return e.model
}

// インターフェース実装の確認
var _ scrape.Embedder = (*Embedder)(nil)
