package scrape_test

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stylae/divin-scraper/internal/core/scrape"
)

func newTestMapper() *scrape.Mapper {
	return scrape.NewMapper(scrape.MapperConfig{
		BaseURL: "https://divinbydivin.com",
		Source:  "scraper",
		Brand:   "Divin",
		Gender:  "man",
	})
}

func TestMapper_RecordID_Deterministic(t *testing.T) {
	mapper := newTestMapper()

	url := "https://divinbydivin.com/products/red-tee"
	id1 := mapper.RecordID(url)
	id2 := mapper.RecordID(url)

	assert.Equal(t, id1, id2)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), id1)
}

func TestMapper_RecordID_DistinctURLs(t *testing.T) {
	mapper := newTestMapper()

	id1 := mapper.RecordID("https://divinbydivin.com/products/red-tee")
	id2 := mapper.RecordID("https://divinbydivin.com/products/blue-tee")

	assert.NotEqual(t, id1, id2)
}

func TestMapper_ProductURL(t *testing.T) {
	mapper := newTestMapper()

	assert.Equal(t, "https://divinbydivin.com/products/red-tee", mapper.ProductURL("red-tee"))
	assert.Equal(t, "", mapper.ProductURL(""))
}

func TestMapper_CategoryFor(t *testing.T) {
	mapper := newTestMapper()

	assert.Equal(t, "T-Shirts", mapper.CategoryFor("t-shirts"))
	assert.Equal(t, "Zips, Hoodies", mapper.CategoryFor("zips-and-hoodies"))
	// 対応表にないハンドルはそのまま通す
	assert.Equal(t, "limited-drop", mapper.CategoryFor("limited-drop"))
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "tags removed and nodes joined",
			markup: "<p>Hello <b>world</b></p>",
			want:   "Hello world",
		},
		{
			name:   "nested elements",
			markup: "<div><p>Oversized fit.</p><ul><li>100% cotton</li><li>Made in Portugal</li></ul></div>",
			want:   "Oversized fit. 100% cotton Made in Portugal",
		},
		{
			name:   "empty input",
			markup: "",
			want:   "",
		},
		{
			name:   "whitespace-only nodes dropped",
			markup: "<p>  </p><p>a</p>",
			want:   "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scrape.StripHTML(tt.markup))
		})
	}
}

func TestMapper_PriceString(t *testing.T) {
	mapper := newTestMapper()

	t.Run("sorted and deduplicated", func(t *testing.T) {
		product := &scrape.Product{
			Variants: []scrape.ProductVariant{
				{Price: "89.95"},
				{Price: "49.95"},
				{Price: "89.95"},
			},
		}
		assert.Equal(t, "49.95EUR,89.95EUR", mapper.PriceString(product))
	})

	t.Run("no variants", func(t *testing.T) {
		assert.Equal(t, "", mapper.PriceString(&scrape.Product{}))
	})

	t.Run("variants without price", func(t *testing.T) {
		product := &scrape.Product{
			Variants: []scrape.ProductVariant{{Price: ""}},
		}
		assert.Equal(t, "", mapper.PriceString(product))
	})
}

func TestMapRecord_Sale(t *testing.T) {
	mapper := newTestMapper()

	t.Run("compare_at_price present", func(t *testing.T) {
		product := &scrape.Product{
			Handle: "sale-item",
			Variants: []scrape.ProductVariant{
				{Price: "49.95", CompareAtPrice: "79.95"},
			},
		}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		require.NotNil(t, record.Sale)
		assert.Equal(t, "true", *record.Sale)
	})

	t.Run("no compare_at_price", func(t *testing.T) {
		product := &scrape.Product{
			Handle:   "full-price",
			Variants: []scrape.ProductVariant{{Price: "49.95"}},
		}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		assert.Nil(t, record.Sale)
	})

	t.Run("blank compare_at_price", func(t *testing.T) {
		product := &scrape.Product{
			Handle:   "blank-compare",
			Variants: []scrape.ProductVariant{{Price: "49.95", CompareAtPrice: "  "}},
		}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		assert.Nil(t, record.Sale)
	})
}

func TestMapRecord_Size(t *testing.T) {
	mapper := newTestMapper()

	t.Run("size option", func(t *testing.T) {
		product := &scrape.Product{
			Handle: "tee",
			Options: []scrape.ProductOption{
				{Name: "Color", Values: []string{"Black"}},
				{Name: "Size", Values: []string{"S", "M", "L"}},
			},
		}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		require.NotNil(t, record.Size)
		assert.Equal(t, "S,M,L", *record.Size)
	})

	t.Run("french option name case-insensitive", func(t *testing.T) {
		product := &scrape.Product{
			Handle: "tee",
			Options: []scrape.ProductOption{
				{Name: "TAILLE", Values: []string{"Unique"}},
			},
		}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		require.NotNil(t, record.Size)
		assert.Equal(t, "Unique", *record.Size)
	})

	t.Run("no size option", func(t *testing.T) {
		product := &scrape.Product{
			Handle: "tee",
			Options: []scrape.ProductOption{
				{Name: "Color", Values: []string{"Black"}},
			},
		}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		assert.Nil(t, record.Size)
	})
}

func TestMapper_MetadataJSON(t *testing.T) {
	mapper := newTestMapper()

	t.Run("fixed key order", func(t *testing.T) {
		product := &scrape.Product{
			ID:          42,
			Handle:      "red-tee",
			Vendor:      "Divin",
			ProductType: "Tee",
			Tags:        []string{"new", "summer"},
			Options:     []scrape.ProductOption{{Name: "Size"}},
			Variants:    []scrape.ProductVariant{{Price: "49.95"}},
		}
		want := `{"shopify_id":42,"handle":"red-tee","vendor":"Divin","product_type":"Tee",` +
			`"tags":["new","summer"],"category":"T-Shirts","options":["Size"],"variant_count":1}`
		assert.Equal(t, want, mapper.MetadataJSON(product, "T-Shirts"))
	})

	t.Run("non-ascii preserved", func(t *testing.T) {
		product := &scrape.Product{
			ID:     7,
			Handle: "veste",
			Title:  "Veste matelassée",
			Vendor: "Divin – Paris",
		}
		got := mapper.MetadataJSON(product, "Jackets")
		assert.Contains(t, got, "Divin – Paris")
		assert.NotContains(t, got, `\u`)
	})

	t.Run("nil tags serialized as empty array", func(t *testing.T) {
		product := &scrape.Product{ID: 9, Handle: "x"}
		got := mapper.MetadataJSON(product, "x")
		assert.Contains(t, got, `"tags":[]`)
	})
}

func TestMapper_BuildInfoText(t *testing.T) {
	mapper := newTestMapper()

	product := &scrape.Product{
		ID:       42,
		Handle:   "red-tee",
		Title:    "  Red Tee  ",
		BodyHTML: "<p>Soft cotton tee.</p>",
		Variants: []scrape.ProductVariant{{Price: "49.95"}},
	}
	category := "T-Shirts"
	productURL := "https://divinbydivin.com/products/red-tee"

	t.Run("deterministic across calls", func(t *testing.T) {
		first := mapper.BuildInfoText(product, category, productURL)
		second := mapper.BuildInfoText(product, category, productURL)
		assert.Equal(t, first, second)
	})

	t.Run("fixed field order", func(t *testing.T) {
		got := mapper.BuildInfoText(product, category, productURL)
		want := "Title: Red Tee Category: T-Shirts Gender: man Price: 49.95EUR " +
			"URL: https://divinbydivin.com/products/red-tee " +
			"Description: Soft cotton tee. " +
			"Metadata: " + mapper.MetadataJSON(product, category)
		assert.Equal(t, want, got)
	})

	t.Run("description omitted when body empty", func(t *testing.T) {
		bare := &scrape.Product{ID: 42, Handle: "red-tee", Title: "Red Tee"}
		got := mapper.BuildInfoText(bare, category, productURL)
		assert.NotContains(t, got, "Description:")
		assert.Contains(t, got, "URL: "+productURL+" Metadata: ")
	})
}

func TestMapRecord_EndToEnd(t *testing.T) {
	mapper := newTestMapper()

	product := &scrape.Product{
		ID:       42,
		Handle:   "red-tee",
		Title:    "Red Tee",
		Images:   []scrape.ProductImage{{Src: "http://x/a.jpg"}},
		Variants: []scrape.ProductVariant{{Price: "49.95"}},
		Options:  []scrape.ProductOption{{Name: "Size", Values: []string{"S", "M"}}},
	}
	imageVec := []float32{0.1, 0.2}
	infoVec := []float32{0.3, 0.4}

	record := mapper.MapRecord(product, "t-shirts", imageVec, infoVec)

	assert.Equal(t, "scraper", record.Source)
	assert.Equal(t, "https://divinbydivin.com/products/red-tee", record.ProductURL)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), record.ID)
	assert.Equal(t, "http://x/a.jpg", record.ImageURL)
	assert.Equal(t, "Divin", record.Brand)
	assert.Equal(t, "Red Tee", record.Title)
	assert.Nil(t, record.Description)
	assert.Equal(t, "T-Shirts", record.Category)
	assert.Equal(t, "man", record.Gender)
	require.NotNil(t, record.Price)
	assert.Equal(t, "49.95EUR", *record.Price)
	require.NotNil(t, record.Size)
	assert.Equal(t, "S,M", *record.Size)
	assert.Nil(t, record.Sale)
	assert.Nil(t, record.AdditionalImages)
	assert.Equal(t, imageVec, record.ImageEmbedding)
	assert.Equal(t, infoVec, record.InfoEmbedding)

	// 同一入力からの再マッピングは全フィールドが一致する（冪等性）
	again := mapper.MapRecord(product, "t-shirts", imageVec, infoVec)
	assert.Equal(t, record, again)
}

func TestMapRecord_EdgeCases(t *testing.T) {
	mapper := newTestMapper()

	t.Run("blank title falls back to Untitled", func(t *testing.T) {
		product := &scrape.Product{ID: 1, Handle: "no-title", Title: "   "}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		assert.Equal(t, "Untitled", record.Title)
	})

	t.Run("additional images skip empty src", func(t *testing.T) {
		product := &scrape.Product{
			ID:     2,
			Handle: "multi-image",
			Images: []scrape.ProductImage{
				{Src: "http://x/a.jpg"},
				{Src: "http://x/b.jpg"},
				{Src: "  "},
				{Src: "http://x/c.jpg"},
			},
		}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		require.NotNil(t, record.AdditionalImages)
		assert.Equal(t, "http://x/b.jpg, http://x/c.jpg", *record.AdditionalImages)
	})

	t.Run("empty handle yields empty url and still a stable id", func(t *testing.T) {
		product := &scrape.Product{ID: 3}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		assert.Equal(t, "", record.ProductURL)
		assert.Equal(t, mapper.RecordID(""), record.ID)
	})

	t.Run("empty tags array maps to nil", func(t *testing.T) {
		// Shopify はタグなしを "tags": [] で返すため、デコード後は非 nil の空スライスになる
		var product scrape.Product
		require.NoError(t, json.Unmarshal([]byte(`{"id":4,"handle":"no-tags","tags":[]}`), &product))
		require.NotNil(t, product.Tags)

		record := mapper.MapRecord(&product, "t-shirts", nil, nil)
		assert.Nil(t, record.Tags)
	})

	t.Run("non-empty tags preserved", func(t *testing.T) {
		product := &scrape.Product{ID: 5, Handle: "tagged", Tags: []string{"new", "summer"}}
		record := mapper.MapRecord(product, "t-shirts", nil, nil)
		assert.Equal(t, []string{"new", "summer"}, record.Tags)
	})
}
