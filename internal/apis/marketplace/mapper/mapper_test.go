package mapper_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buscalisto/internal/apis/marketplace/mapper"
	"buscalisto/internal/apis/marketplace/responses"
	"buscalisto/internal/domain/models"
	"buscalisto/internal/taxonomy"
)

func decodeProduct(t *testing.T, s string) responses.Product {
	t.Helper()
	var p responses.Product
	require.NoError(t, json.Unmarshal([]byte(s), &p))
	return p
}

func TestProduct(t *testing.T) {
	m := mapper.New(taxonomy.Default(), nil)

	p := m.Product(decodeProduct(t, `{
		"id": 12, "name": " Jarabe ", "brandId": 3, "brandName": "Genfar",
		"category": "Medicamentos", "price": 100, "offerPrice": 70,
		"image": "a.jpg", "images": ["a.jpg", "b.jpg"], "createdAt": "2024-05-01T10:00:00Z"
	}`))

	assert.Equal(t, models.ProductID("12"), p.ID)
	assert.Equal(t, "Jarabe", p.Name)
	assert.Equal(t, models.BrandRef{ID: 3, Name: "Genfar"}, p.Brand)
	assert.Equal(t, "medicamentos", p.Category)
	assert.True(t, p.Active)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.Images)
	assert.Equal(t, 30, p.DiscountPercent())
	assert.Equal(t, 2024, p.CreatedAt.Year())
}

func TestProductDropsInvalidOffer(t *testing.T) {
	var buf bytes.Buffer
	m := mapper.New(nil, slog.New(slog.NewTextHandler(&buf, nil)))

	p := m.Product(decodeProduct(t, `{"id":"5","name":"X","price":10,"offerPrice":12,"offerDescription":"2x1","isActive":false}`))

	assert.Nil(t, p.OfferPrice)
	assert.Empty(t, p.OfferDescription)
	assert.False(t, p.Active)
	assert.Contains(t, buf.String(), "live offer above base price dropped")
}

func TestPage(t *testing.T) {
	m := mapper.New(nil, nil)
	ps := []responses.Product{{ID: "1", Price: decimal.NewFromInt(1)}, {ID: "2", Price: decimal.NewFromInt(2)}}

	t.Run("upstream pagination", func(t *testing.T) {
		pg := m.Page(ps, &responses.Pagination{Page: 2, Limit: 2, Total: 5}, models.ProductQuery{})
		assert.Equal(t, 2, pg.Page)
		assert.Equal(t, 3, pg.TotalPages)
		assert.Len(t, pg.Items, 2)
	})

	t.Run("derived", func(t *testing.T) {
		pg := m.Page(ps, nil, models.ProductQuery{Page: 0, Limit: 8})
		assert.Equal(t, 1, pg.Page)
		assert.Equal(t, 8, pg.Limit)
		assert.Equal(t, 2, pg.Total)
		assert.Equal(t, 1, pg.TotalPages)
	})

	t.Run("empty", func(t *testing.T) {
		pg := m.Page(nil, nil, models.ProductQuery{})
		assert.NotNil(t, pg.Items)
		assert.Zero(t, pg.TotalPages)
	})
}

func TestDealDiscountFallsBackToProducts(t *testing.T) {
	m := mapper.New(nil, nil)
	offer := decimal.NewFromInt(60)

	d := m.Deal(responses.Deal{
		ID:       "d1",
		Title:    "Semana del bebé",
		Products: []responses.Product{{ID: "1", Price: decimal.NewFromInt(100), OfferPrice: &offer}},
	})
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, 40, d.DiscountPercent)
}

func TestCategoriesUseTaxonomyNames(t *testing.T) {
	m := mapper.New(taxonomy.Default(), nil)

	cats := m.Categories([]responses.Category{{Key: "bebes"}, {Key: " "}, {Key: "mascotas", Name: "Mascotas"}})
	assert.Equal(t, []models.Category{
		{Key: "bebes", Name: "Bebés"},
		{Key: "mascotas", Name: "Mascotas"},
	}, cats)

	pop := m.PopularCategories([]responses.PopularCategory{{ID: 1, Key: "belleza"}})
	require.Len(t, pop, 1)
	assert.Equal(t, "Belleza", pop[0].Name)
	assert.NotNil(t, pop[0].Images)
}

func TestStoreBranchCount(t *testing.T) {
	m := mapper.New(nil, nil)
	var s responses.Store
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"La Salud","branches":[{"id":21,"name":"Centro"}]}`), &s))

	out := m.Store(s)
	assert.Equal(t, 1, out.BranchCount)
	assert.Equal(t, "Centro", out.Branches[0].Name)
}
