package scrape

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// collectionCategories はコレクションハンドルからカテゴリラベルへの固定対応表
// 対応のないハンドルはそのままカテゴリとして使われる
var collectionCategories = map[string]string{
	"zips-and-hoodies":    "Zips, Hoodies",
	"denim-pants":         "Denim, Pants",
	"jackets":             "Jackets",
	"t-shirts":            "T-Shirts",
	"knits-and-crewnecks": "Knits, Crewnecks",
	"accessories":         "Accessories",
	"jorts-shorts":        "Jorts, Shorts",
	"tops-shirts":         "Tops, Shirts",
}

// sizeOptionNames はサイズ系オプションとして扱う名前（小文字比較）
var sizeOptionNames = map[string]struct{}{
	"size":   {},
	"taille": {},
}

// MapperConfig は Mapper の固定パラメータ
type MapperConfig struct {
	BaseURL string
	Source  string
	Brand   string
	Gender  string
}

// Mapper はカタログ商品とEmbeddingからストレージレコードを構築する
// すべてのメソッドは純粋で、同一入力からバイト単位で同一の出力を返す
type Mapper struct {
	cfg MapperConfig
}

// NewMapper は新しい Mapper を作成する
func NewMapper(cfg MapperConfig) *Mapper {
	return &Mapper{cfg: cfg}
}

// ProductURL はハンドルから商品ページの正規URLを導出する
// ハンドルが空の場合は空文字列を返す
func (m *Mapper) ProductURL(handle string) string {
	if handle == "" {
		return ""
	}
	return fmt.Sprintf("%s/products/%s", m.cfg.BaseURL, handle)
}

// RecordID は商品URLから決定的なレコードIDを導出する
// sha256(source ":" product_url) の16進表現を32文字に切り詰めたもの
func (m *Mapper) RecordID(productURL string) string {
	sum := sha256.Sum256([]byte(m.cfg.Source + ":" + productURL))
	return hex.EncodeToString(sum[:])[:32]
}

// CategoryFor はコレクションハンドルをカテゴリラベルに変換する
func (m *Mapper) CategoryFor(collection string) string {
	if category, ok := collectionCategories[collection]; ok {
		return category
	}
	return collection
}

// StripHTML はマークアップを除去し、テキストノードを単一スペースで連結する
func StripHTML(markup string) string {
	if markup == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var parts []string
	for _, root := range doc.Nodes {
		collectText(root, &parts)
	}
	return strings.Join(parts, " ")
}

// collectText はテキストノードを深さ優先で収集する
// 各ノードは前後の空白を除去し、空になったノードは捨てる
func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// PriceString は全バリアントの価格を "{amount}EUR" 形式で重複排除・辞書順ソートして連結する
// 価格を持つバリアントがない場合は空文字列を返す
func (m *Mapper) PriceString(product *Product) string {
	if len(product.Variants) == 0 {
		return ""
	}
	seen := make(map[string]struct{})
	for _, v := range product.Variants {
		if v.Price != "" {
			seen[v.Price+"EUR"] = struct{}{}
		}
	}
	prices := make([]string, 0, len(seen))
	for p := range seen {
		prices = append(prices, p)
	}
	sort.Strings(prices)
	return strings.Join(prices, ",")
}

// saleFlag はいずれかのバリアントにcompare_at_priceが設定されていればセール扱いとする
// 金額の大小は比較しない（観測済みの仕様として維持）
func saleFlag(product *Product) *string {
	for _, v := range product.Variants {
		if strings.TrimSpace(v.CompareAtPrice) != "" {
			sale := "true"
			return &sale
		}
	}
	return nil
}

// sizeString は名前がサイズ系に一致する最初のオプションの値をカンマで連結する
func sizeString(product *Product) *string {
	for _, opt := range product.Options {
		if _, ok := sizeOptionNames[strings.ToLower(opt.Name)]; !ok {
			continue
		}
		if len(opt.Values) == 0 {
			return nil
		}
		size := strings.Join(opt.Values, ",")
		return &size
	}
	return nil
}

// recordMetadata はメタデータJSONのフィールド（順序固定）
type recordMetadata struct {
	ShopifyID    int64    `json:"shopify_id"`
	Handle       string   `json:"handle"`
	Vendor       string   `json:"vendor"`
	ProductType  string   `json:"product_type"`
	Tags         []string `json:"tags"`
	Category     string   `json:"category"`
	Options      []string `json:"options"`
	VariantCount int      `json:"variant_count"`
}

// MetadataJSON は商品のメタデータをJSON文字列として構築する
// 非ASCII文字はエスケープせずそのまま保持する
func (m *Mapper) MetadataJSON(product *Product, category string) string {
	tags := product.Tags
	if tags == nil {
		tags = []string{}
	}
	options := make([]string, 0, len(product.Options))
	for _, opt := range product.Options {
		options = append(options, opt.Name)
	}

	meta := recordMetadata{
		ShopifyID:    product.ID,
		Handle:       product.Handle,
		Vendor:       product.Vendor,
		ProductType:  product.ProductType,
		Tags:         tags,
		Category:     category,
		Options:      options,
		VariantCount: len(product.Variants),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(meta); err != nil {
		// 固定構造のためエンコードは失敗しない
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}

// BuildInfoText はテキストEmbeddingの入力となる文字列を構築する
// フィールド順は固定で、同一入力からバイト単位で同一の出力を返す
// 空の説明文はフィールドごと省略される
func (m *Mapper) BuildInfoText(product *Product, category, productURL string) string {
	title := strings.TrimSpace(product.Title)
	body := StripHTML(product.BodyHTML)

	parts := []string{
		"Title: " + title,
		"Category: " + category,
		"Gender: " + m.cfg.Gender,
		"Price: " + m.PriceString(product),
		"URL: " + productURL,
	}
	if body != "" {
		parts = append(parts, "Description: "+body)
	}
	parts = append(parts, "Metadata: "+m.MetadataJSON(product, category))

	return strings.Join(parts, " ")
}

// MapRecord はカタログ商品とEmbeddingペアからストレージレコードを構築する
func (m *Mapper) MapRecord(product *Product, collection string, imageEmbedding, infoEmbedding []float32) *Record {
	productURL := m.ProductURL(product.Handle)
	category := m.CategoryFor(collection)

	imageURL := ""
	var additionalURLs []string
	if len(product.Images) > 0 {
		imageURL = strings.TrimSpace(product.Images[0].Src)
		for _, img := range product.Images[1:] {
			if src := strings.TrimSpace(img.Src); src != "" {
				additionalURLs = append(additionalURLs, src)
			}
		}
	}
	var additionalImages *string
	if len(additionalURLs) > 0 {
		joined := strings.Join(additionalURLs, ", ")
		additionalImages = &joined
	}

	title := strings.TrimSpace(product.Title)
	if title == "" {
		title = "Untitled"
	}

	var description *string
	if body := StripHTML(product.BodyHTML); body != "" {
		description = &body
	}

	var price *string
	if priceStr := m.PriceString(product); priceStr != "" {
		price = &priceStr
	}

	// タグなし（空スライス含む）は NULL として保存する
	var tags []string
	if len(product.Tags) > 0 {
		tags = product.Tags
	}

	return &Record{
		ID:               m.RecordID(productURL),
		Source:           m.cfg.Source,
		ProductURL:       productURL,
		ImageURL:         imageURL,
		Brand:            m.cfg.Brand,
		Title:            title,
		Description:      description,
		Category:         category,
		Gender:           m.cfg.Gender,
		Metadata:         m.MetadataJSON(product, category),
		Size:             sizeString(product),
		Sale:             saleFlag(product),
		ImageEmbedding:   imageEmbedding,
		InfoEmbedding:    infoEmbedding,
		Price:            price,
		AdditionalImages: additionalImages,
		Tags:             tags,
	}
}
