package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/stylae/divin-scraper/internal/core/scrape"
)

// RecordRepository は scrape.RecordStore を実装するPostgreSQLリポジトリです
// (source, product_url) をコンフリクトキーとした全レコード置換UPSERTを行います
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository は新しい RecordRepository を作成します
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// コンパイル時の型チェック
var _ scrape.RecordStore = (*RecordRepository)(nil)

const upsertRecordSQL = `
INSERT INTO products (
	id, source, product_url, image_url, brand, title, description,
	category, gender, metadata, size, sale, image_embedding, info_embedding,
	price, additional_images, tags, created_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
)
ON CONFLICT (source, product_url) DO UPDATE SET
	id = EXCLUDED.id,
	image_url = EXCLUDED.image_url,
	brand = EXCLUDED.brand,
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	category = EXCLUDED.category,
	gender = EXCLUDED.gender,
	metadata = EXCLUDED.metadata,
	size = EXCLUDED.size,
	sale = EXCLUDED.sale,
	image_embedding = EXCLUDED.image_embedding,
	info_embedding = EXCLUDED.info_embedding,
	price = EXCLUDED.price,
	additional_images = EXCLUDED.additional_images,
	tags = EXCLUDED.tags,
	created_at = EXCLUDED.created_at
`

// Upsert はレコードをinsert-or-updateします
// created_at は保存時点のUTC秒精度タイムスタンプ（RFC3339のZ表記に対応）を刻印します
func (r *RecordRepository) Upsert(ctx context.Context, record *scrape.Record) error {
	createdAt := time.Now().UTC().Truncate(time.Second)

	_, err := r.pool.Exec(ctx, upsertRecordSQL,
		record.ID,
		record.Source,
		record.ProductURL,
		record.ImageURL,
		record.Brand,
		record.Title,
		record.Description,
		record.Category,
		record.Gender,
		record.Metadata,
		record.Size,
		record.Sale,
		pgvector.NewVector(record.ImageEmbedding),
		pgvector.NewVector(record.InfoEmbedding),
		record.Price,
		record.AdditionalImages,
		record.Tags,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", record.ID, err)
	}

	return nil
}
