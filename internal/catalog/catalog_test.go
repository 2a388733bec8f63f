package catalog_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buscalisto/internal/catalog"
	"buscalisto/internal/domain/models"
	"buscalisto/internal/taxonomy"
)

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// medicamentos builds a single-branch dataset with n medicamento products
// named "Producto 01".."Producto n".
func medicamentos(n int) catalog.Dataset {
	ps := make([]catalog.DatasetProduct, 0, n)
	for i := 1; i <= n; i++ {
		ps = append(ps, catalog.DatasetProduct{
			Name:     fmt.Sprintf("Producto %02d", i),
			Brand:    "Genven",
			Category: "medicamentos",
			Price:    price(int64(10 * i)),
			Views:    i,
		})
	}
	return catalog.Dataset{Suppliers: []catalog.DatasetSupplier{{
		ID:   1,
		Name: "Farmacia Uno",
		Branches: []catalog.DatasetBranch{{
			ID:       10,
			Name:     "Centro",
			Products: ps,
		}},
	}}}
}

func mixedDataset() catalog.Dataset {
	return catalog.Dataset{Suppliers: []catalog.DatasetSupplier{
		{
			ID:   1,
			Name: "Farmacia Santa Ana",
			Branches: []catalog.DatasetBranch{
				{ID: 11, Name: "Chacao", Products: []catalog.DatasetProduct{
					{Name: "Ibuprofeno", Brand: "Calox", Category: "medicamentos", Subcategory: "analgesicos", Price: price(150), OfferPrice: price(120), Views: 50, CreatedAt: "2024-06-11", Image: "/a.jpg"},
					{Name: "Vitamina C", Brand: "Redoxon", Category: "nutricion", Price: nil, Views: 5},
					{Name: "crema dental", Brand: "Colgate", Category: "cuidado-personal", Subcategory: "bucal", Price: price(80), OfferPrice: price(70), Views: 90, CreatedAt: "2024-06-30"},
				}},
				{ID: 12, Name: "Altamira", Products: []catalog.DatasetProduct{
					{Name: "Amoxicilina", Brand: "Genven", Category: "medicamentos", Subcategory: "antibioticos", Price: price(310), Views: 10, CreatedAt: "2024-07-01T10:00:00Z", Image: "/b.jpg"},
					{Name: "Pañales", Brand: "Huggies", Category: "bebes", Price: price(720), OfferPrice: price(800), Views: 70, CreatedAt: "2024-05-25"},
				}},
			},
		},
		{
			ID:   2,
			Name: "Farmacia La Salud",
			Branches: []catalog.DatasetBranch{
				{ID: 21, Name: "Centro", Products: []catalog.DatasetProduct{
					{Name: "Acetaminofén", Brand: "Atamel", Category: "Medicamentos", Price: price(95), Views: 90, CreatedAt: "2024-06-18"},
					{Name: "Glucómetro", Brand: "Accu-Chek", Category: "equipos-medicos"},
				}},
			},
		},
	}}
}

func TestNewSynthesis(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	c := catalog.New(mixedDataset(), taxonomy.Default(), log)

	ps := c.Products()
	require.Len(t, ps, 5)
	for i, p := range ps {
		assert.Equal(t, models.ProductID(strconv.Itoa(i+1)), p.ID, "ids are sequential from 1")
	}

	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	assert.NotContains(t, names, "Vitamina C")
	assert.NotContains(t, names, "Glucómetro")

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "dataset product without base price skipped"))
	assert.Contains(t, out, "product=\"Vitamina C\"")
	assert.Contains(t, out, "Glucómetro")

	acet, ok := c.Find("5")
	require.True(t, ok)
	assert.Equal(t, "medicamentos", acet.Category, "category keys are normalised")
	assert.Equal(t, "Farmacia La Salud", acet.Supplier.Name)
	assert.Equal(t, 21, acet.Supplier.BranchID)
	assert.True(t, acet.Active)
}

func TestOfferAbovePriceIsDropped(t *testing.T) {
	var buf bytes.Buffer
	c := catalog.New(mixedDataset(), taxonomy.Default(), slog.New(slog.NewTextHandler(&buf, nil)))

	p, ok := c.Find("4")
	require.True(t, ok)
	assert.Equal(t, "Pañales", p.Name)
	assert.False(t, p.HasOffer())
	assert.Contains(t, buf.String(), "dataset offer above base price dropped")
}

func TestFilterCategoryProperty(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())
	all := c.Products()

	for _, cat := range taxonomy.Default().All() {
		got := catalog.FilterCategory(all, cat.Key)
		for _, p := range got {
			assert.Equal(t, cat.Key, p.Category)
		}
	}
	assert.Equal(t, all, catalog.FilterCategory(all, models.AllCategories))
	assert.Equal(t, all, catalog.FilterCategory(all, ""))
	assert.Len(t, catalog.FilterCategory(all, "MEDICAMENTOS"), 3)
}

func TestSearchProperty(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())
	all := c.Products()

	for _, term := range []string{"ibu", "CALOX", "medica", "BUCAL", "acetaminofén", "ACETAMINOFÉN", "zzz"} {
		got := catalog.Search(all, term)
		in := make(map[models.ProductID]bool, len(got))
		for _, p := range got {
			in[p.ID] = true
		}
		needle := strings.ToLower(term)
		for _, p := range all {
			want := strings.Contains(strings.ToLower(p.Name), needle) ||
				strings.Contains(strings.ToLower(p.Brand.Name), needle) ||
				strings.Contains(strings.ToLower(p.Category), needle) ||
				strings.Contains(strings.ToLower(p.Subcategory), needle)
			assert.Equal(t, want, in[p.ID], "term=%q product=%q", term, p.Name)
		}
	}
	assert.Equal(t, all, catalog.Search(all, "  "))
}

func TestSortProperty(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())
	all := c.Products()

	keys := []models.SortKey{models.SortPrice, models.SortName, models.SortPopularity}
	orders := []models.SortOrder{models.Asc, models.Desc}

	for _, k := range keys {
		for _, o := range orders {
			t.Run(string(k)+"/"+string(o), func(t *testing.T) {
				got := catalog.Sort(all, k, o)
				require.Len(t, got, len(all))
				for i := 1; i < len(got); i++ {
					a, b := got[i-1], got[i]
					var n int
					switch k {
					case models.SortPrice:
						n = a.Price.Cmp(b.Price)
					case models.SortName:
						n = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
					case models.SortPopularity:
						n = a.Views - b.Views
					}
					if o == models.Desc {
						n = -n
					}
					assert.LessOrEqual(t, n, 0, "%q before %q", a.Name, b.Name)
				}
				assert.Equal(t, got, catalog.Sort(got, k, o), "sorting is idempotent")
			})
		}
	}
}

func TestSortIsStable(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())
	got := catalog.Sort(c.Products(), models.SortPopularity, models.Desc)

	// "crema dental" (id 2) and "Acetaminofén" (id 5) both have 90 views.
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, models.ProductID("2"), got[0].ID)
	assert.Equal(t, models.ProductID("5"), got[1].ID)
}

func TestSortUnknownKeyKeepsOrder(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())
	assert.Equal(t, c.Products(), catalog.Sort(c.Products(), models.SortNone, models.Desc))
}

func TestPaginateProperty(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 20} {
		for _, size := range []int{1, 3, 8} {
			t.Run(fmt.Sprintf("n=%d/size=%d", n, size), func(t *testing.T) {
				all := catalog.New(medicamentos(n), nil, discardLogger()).Products()

				first := catalog.Paginate(all, 1, size)
				assert.Equal(t, (n+size-1)/size, first.TotalPages)
				assert.Equal(t, n, first.Total)

				var joined []models.Product
				for page := 1; page <= first.TotalPages; page++ {
					pg := catalog.Paginate(all, page, size)
					if page == first.TotalPages {
						want := n % size
						if want == 0 {
							want = size
						}
						assert.Len(t, pg.Items, want, "last page size")
					}
					joined = append(joined, pg.Items...)
				}
				if n == 0 {
					assert.Empty(t, joined)
				} else {
					assert.Equal(t, all, joined)
				}

				past := catalog.Paginate(all, first.TotalPages+1, size)
				assert.Empty(t, past.Items)
				assert.NotNil(t, past.Items)
			})
		}
	}
}

func TestPaginateDefaults(t *testing.T) {
	all := catalog.New(medicamentos(30), nil, discardLogger()).Products()
	pg := catalog.Paginate(all, 0, 0)
	assert.Equal(t, 1, pg.Page)
	assert.Equal(t, catalog.DefaultPageSize, pg.Limit)
	assert.Len(t, pg.Items, catalog.DefaultPageSize)
}

func TestScenarioSecondPageOfTwenty(t *testing.T) {
	c := catalog.New(medicamentos(20), nil, discardLogger())

	pg := c.Query(models.ProductQuery{Category: "medicamentos", Page: 2, Limit: 8})

	assert.Equal(t, 3, pg.TotalPages)
	assert.Equal(t, 20, pg.Total)
	require.Len(t, pg.Items, 8)
	for i, p := range pg.Items {
		assert.Equal(t, models.ProductID(strconv.Itoa(9+i)), p.ID)
	}
}

func TestScenarioBrandSearchIgnoresAllCategory(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())

	pg := c.Query(models.ProductQuery{Category: models.AllCategories, Term: "colg"})

	require.Len(t, pg.Items, 1)
	assert.Equal(t, "crema dental", pg.Items[0].Name)
}

func TestQueryPriceRangeUsesOfferPrice(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())

	pg := c.Query(models.ProductQuery{MinPrice: price(100), MaxPrice: price(130), Limit: 50})

	require.Len(t, pg.Items, 1)
	assert.Equal(t, "Ibuprofeno", pg.Items[0].Name, "offer 120 is inside the range")
}

func TestRecentAndMostViewed(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())

	recent := c.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "Amoxicilina", recent[0].Name)
	assert.Equal(t, "crema dental", recent[1].Name)

	top := c.MostViewed(1)
	require.Len(t, top, 1)
	assert.Equal(t, "crema dental", top[0].Name)

	assert.Len(t, c.MostViewed(0), c.Len())
}

func TestSynthesizedDeals(t *testing.T) {
	ds := medicamentos(6)
	for i := range ds.Suppliers[0].Branches[0].Products {
		p := &ds.Suppliers[0].Branches[0].Products[i]
		p.OfferPrice = price(p.Price.IntPart() / 2)
	}
	c := catalog.New(ds, nil, discardLogger())

	deals := c.Deals(0)
	require.Len(t, deals, 2)
	assert.Len(t, deals[0].Products, catalog.DealGroupSize)
	assert.Len(t, deals[1].Products, 2)
	assert.Equal(t, "Ofertas en Medicamentos", deals[0].Title)
	assert.Equal(t, 50, deals[0].DiscountPercent)

	assert.Len(t, c.Deals(1), 1)
}

func TestStaticDeals(t *testing.T) {
	ds := mixedDataset()
	ds.Deals = []catalog.DatasetDeal{{ID: "verano", Title: "Verano", ProductIDs: []int{1, 2, 99}}}
	c := catalog.New(ds, taxonomy.Default(), discardLogger())

	deals := c.Deals(0)
	require.Len(t, deals, 1)
	assert.Equal(t, "verano", deals[0].ID)
	assert.Len(t, deals[0].Products, 2)
	assert.Equal(t, 20, deals[0].DiscountPercent)
}

func TestPopularCategories(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())

	got := c.PopularCategories(2)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, "medicamentos", got[0].Key)
	assert.Equal(t, "Medicamentos", got[0].Name)
	assert.Equal(t, 3, got[0].ProductCount)
	assert.Equal(t, []string{"/a.jpg", "/b.jpg"}, got[0].Images)

	// one product each: cuidado-personal comes before bebes in the taxonomy
	assert.Equal(t, "cuidado-personal", got[1].Key)
	assert.NotNil(t, got[1].Images)
}

func TestStores(t *testing.T) {
	c := catalog.New(mixedDataset(), taxonomy.Default(), discardLogger())

	s, ok := c.StoreByName("  farmacia SANTA ana ")
	require.True(t, ok)
	assert.Equal(t, 1, s.ID)
	assert.Equal(t, 2, s.BranchCount)
	assert.Equal(t, 4, s.ProductCount)

	_, ok = c.StoreByName("nope")
	assert.False(t, ok)
	_, ok = c.StoreByName("")
	assert.False(t, ok)

	assert.Len(t, c.Stores(), 2)
}

func TestLoadDefault(t *testing.T) {
	c, err := catalog.LoadDefault(taxonomy.Default(), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 19, c.Len())
	assert.NotEmpty(t, c.Deals(0))
	assert.NotEmpty(t, c.PopularCategories(0))
}

func TestLoadRejectsBadJSON(t *testing.T) {
	_, err := catalog.Load(strings.NewReader("{"), nil, discardLogger())
	require.Error(t, err)
}

func TestPlans(t *testing.T) {
	ps := catalog.Plans()
	require.Len(t, ps, 3)
	assert.Equal(t, []string{"basic", "medium", "premium"}, []string{ps[0].ID, ps[1].ID, ps[2].ID})

	ps[2].Features.Extras[0] = "changed"
	p, ok := catalog.PlanByID("premium")
	require.True(t, ok)
	assert.Equal(t, "Logo destacado", p.Features.Extras[0])
}

func TestRegroupRoundTrip(t *testing.T) {
	src, err := catalog.LoadDefault(taxonomy.Default(), discardLogger())
	require.NoError(t, err)

	ps := src.Products()
	ds := catalog.Regroup(append(ps, ps[0]))

	again := catalog.New(ds, taxonomy.Default(), discardLogger())
	require.Equal(t, src.Len(), again.Len())
	assert.Equal(t, len(src.Stores()), len(again.Stores()))

	for i, p := range again.Products() {
		want := ps[i]
		assert.Equal(t, want.Name, p.Name)
		assert.Equal(t, want.Category, p.Category)
		assert.True(t, want.Price.Equal(p.Price), want.Name)
		assert.Equal(t, want.HasOffer(), p.HasOffer(), want.Name)
		assert.Equal(t, want.Supplier, p.Supplier)
	}
}
