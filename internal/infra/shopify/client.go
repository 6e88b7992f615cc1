package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stylae/divin-scraper/internal/core/scrape"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout はページ取得1回あたりのタイムアウト
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond はストアフロントへのリクエストレート上限
	DefaultRequestsPerSecond = 2
)

// Client はストアフロントの公開JSON APIからカタログを取得する
// コレクションごとに /collections/{handle}/products.json をページネーションする
type Client struct {
	httpClient  *http.Client
	baseURL     string
	collections []string
	pageSize    int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

type clientOptions struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// ClientOption は Client のオプション設定
type ClientOption func(*clientOptions)

// WithHTTPClient はHTTPクライアントを差し替える
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithRateLimiter はリクエストレートリミッタを差し替える
func WithRateLimiter(limiter *rate.Limiter) ClientOption {
	return func(o *clientOptions) {
		o.limiter = limiter
	}
}

// WithLogger は Client にロガーを設定する
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient は新しい Client を作成する
// collections の順序がそのまま取得順になる
func NewClient(baseURL string, collections []string, pageSize int, opts ...ClientOption) *Client {
	options := clientOptions{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{
		httpClient:  options.httpClient,
		baseURL:     baseURL,
		collections: collections,
		pageSize:    pageSize,
		limiter:     options.limiter,
		logger:      options.logger,
	}
}

// listingResponse は products.json エンドポイントのレスポンス
type listingResponse struct {
	Products []scrape.Product `json:"products"`
}

// fetchPage は1コレクションの1ページ分の商品を取得する
func (c *Client) fetchPage(ctx context.Context, handle string, page int) ([]scrape.Product, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/collections/%s/products.json", c.baseURL, handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", handle, err)
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageSize))
	query.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s page %d: %w", handle, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// ボディを読み切らないとコネクションが再利用されない
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d for %s page %d", resp.StatusCode, handle, page)
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode %s page %d: %w", handle, page, err)
	}

	return listing.Products, nil
}

// Products はコレクション横断の重複排除済み商品シーケンスを返す
// シーケンスは遅延・単一パスで、再度consumeすると全リクエストを再発行する
// ページ取得の失敗はシーケンス経由で伝播し、そこで列挙が終了する
func (c *Client) Products(ctx context.Context) iter.Seq2[scrape.CatalogItem, error] {
	return func(yield func(scrape.CatalogItem, error) bool) {
		seen := make(map[int64]struct{})
		for _, handle := range c.collections {
			for page := 1; ; page++ {
				products, err := c.fetchPage(ctx, handle, page)
				if err != nil {
					yield(scrape.CatalogItem{}, err)
					return
				}
				if len(products) == 0 {
					break
				}

				c.logger.Debug("fetched page", "collection", handle, "page", page, "count", len(products))

				for _, product := range products {
					if product.ID == 0 {
						continue
					}
					// 既に別コレクションで返した商品は二重に返さない
					if _, ok := seen[product.ID]; ok {
						continue
					}
					seen[product.ID] = struct{}{}
					if !yield(scrape.CatalogItem{Collection: handle, Product: product}, nil) {
						return
					}
				}

				// ページサイズに満たないページがコレクションの終端
				if len(products) < c.pageSize {
					break
				}
			}
		}
	}
}

// インターフェース実装の確認
var _ scrape.CatalogProvider = (*Client)(nil)
