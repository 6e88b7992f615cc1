package scrape

import (
	"context"
	"iter"
)

// CatalogProvider はストアフロントのカタログを商品単位の遅延シーケンスとして提供する
// テスト時のモック用に消費者側で定義
type CatalogProvider interface {
	// Products は設定されたコレクション順に商品を列挙する
	// シーケンスは有限・単一パスで、同一商品IDは最初のコレクションでのみ返される
	// non-nilなエラーを返した場合、シーケンスはそこで終了する（致命的エラー）
	Products(ctx context.Context) iter.Seq2[CatalogItem, error]
}

// Embedder は画像またはテキストを固定次元のベクトルに変換する
type Embedder interface {
	// EmbedImage は画像URLからEmbeddingを生成する（画像の取得・デコードはプロバイダ側）
	EmbedImage(ctx context.Context, imageURL string) ([]float32, error)

	// EmbedText はテキストからEmbeddingを生成する
	// 空または空白のみの入力は呼び出し前に単一スペースへ置換される
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// Dimension はベクトル次元数を返す
	Dimension() int
}

// RecordStore はレコードを (source, product_url) キーでinsert-or-updateする
type RecordStore interface {
	Upsert(ctx context.Context, record *Record) error
}
