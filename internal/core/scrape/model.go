package scrape

// Product はストアフロントのカタログAPIが返す商品を表す
// 同一商品が複数コレクションに属することがあり、identityは数値IDである
type Product struct {
	ID          int64            `json:"id"`
	Handle      string           `json:"handle"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        []string         `json:"tags"`
	Options     []ProductOption  `json:"options"`
	Variants    []ProductVariant `json:"variants"`
	Images      []ProductImage   `json:"images"`
}

// ProductOption は商品のオプショングループ（サイズ・カラー等）を表す
type ProductOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ProductVariant は商品バリアントの価格情報を表す
type ProductVariant struct {
	Price          string `json:"price"`
	CompareAtPrice string `json:"compare_at_price"`
}

// ProductImage は商品画像を表す（先頭がプライマリ画像）
type ProductImage struct {
	Src string `json:"src"`
}

// CatalogItem は取得元コレクションのハンドル付きの商品を表す
type CatalogItem struct {
	Collection string
	Product    Product
}

// Record は1商品URLごとのストレージレコードを表す
// (source, product_url) をキーとした全置換UPSERTで永続化される
type Record struct {
	ID               string
	Source           string
	ProductURL       string
	ImageURL         string
	Brand            string
	Title            string
	Description      *string
	Category         string
	Gender           string
	Metadata         string
	Size             *string
	Sale             *string
	ImageEmbedding   []float32
	InfoEmbedding    []float32
	Price            *string
	AdditionalImages *string
	Tags             []string
}
