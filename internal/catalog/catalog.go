package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"buscalisto/internal/domain/models"
	"buscalisto/internal/taxonomy"
)

const (
	DealGroupSize     = 4
	popularImageLimit = 4
)

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) Taxonomy() *taxonomy.Taxonomy { return c.tax }

// Products returns every product in synthesis order.
func (c *Catalog) Products() []models.Product {
	return slices.Clone(c.products)
}

func (c *Catalog) Find(id models.ProductID) (models.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Product{}, false
	}
	return c.products[i], true
}

// Recent orders by creation time, newest first.
func (c *Catalog) Recent(limit int) []models.Product {
	out := slices.Clone(c.products)
	slices.SortStableFunc(out, func(a, b models.Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return take(out, limit)
}

func (c *Catalog) MostViewed(limit int) []models.Product {
	return take(Sort(c.products, models.SortPopularity, models.Desc), limit)
}

func (c *Catalog) ByCategory(key string, limit int) []models.Product {
	return take(FilterCategory(c.products, key), limit)
}

func (c *Catalog) Query(q models.ProductQuery) models.Page[models.Product] {
	return Apply(c.products, q)
}

// Deals returns the curated deals from the dataset when it has any.
// Otherwise products carrying an offer are grouped per category in chunks
// of DealGroupSize. limit caps the number of deals.
func (c *Catalog) Deals(limit int) []models.Deal {
	deals := c.deals
	if len(deals) == 0 {
		deals = c.synthesizeDeals()
	}
	if limit > 0 && limit < len(deals) {
		deals = deals[:limit]
	}
	out := make([]models.Deal, len(deals))
	for i, d := range deals {
		d.Products = slices.Clone(d.Products)
		out[i] = d
	}
	return out
}

func (c *Catalog) synthesizeDeals() []models.Deal {
	byCat := make(map[string][]models.Product)
	var order []string
	for _, p := range c.products {
		if !p.HasOffer() {
			continue
		}
		if _, seen := byCat[p.Category]; !seen {
			order = append(order, p.Category)
		}
		byCat[p.Category] = append(byCat[p.Category], p)
	}

	var out []models.Deal
	for _, cat := range order {
		offered := byCat[cat]
		for chunk := range slices.Chunk(offered, DealGroupSize) {
			d := models.Deal{
				ID:       fmt.Sprintf("deal-%d", len(out)+1),
				Title:    "Ofertas en " + c.tax.Name(cat),
				Products: slices.Clone(chunk),
			}
			for _, p := range chunk {
				d.DiscountPercent = max(d.DiscountPercent, p.DiscountPercent())
			}
			d.Description = fmt.Sprintf("Hasta %d%% de descuento", d.DiscountPercent)
			out = append(out, d)
		}
	}
	return out
}

// PopularCategories ranks categories by product count. Ties keep taxonomy
// order, then first appearance. IDs are the 1-based rank.
func (c *Catalog) PopularCategories(limit int) []models.PopularCategory {
	type bucket struct {
		key    string
		first  int
		count  int
		images []string
	}
	buckets := make(map[string]*bucket)
	for i, p := range c.products {
		b, ok := buckets[p.Category]
		if !ok {
			b = &bucket{key: p.Category, first: i}
			buckets[p.Category] = b
		}
		b.count++
		if len(b.images) < popularImageLimit && len(p.Images) > 0 {
			b.images = append(b.images, p.Images[0])
		}
	}

	list := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		list = append(list, b)
	}
	rank := func(key string) int {
		if i := c.tax.Index(key); i >= 0 {
			return i
		}
		return c.tax.Len()
	}
	slices.SortFunc(list, func(a, b *bucket) int {
		if n := cmp.Compare(b.count, a.count); n != 0 {
			return n
		}
		if n := cmp.Compare(rank(a.key), rank(b.key)); n != 0 {
			return n
		}
		return cmp.Compare(a.first, b.first)
	})

	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	out := make([]models.PopularCategory, 0, len(list))
	for i, b := range list {
		images := b.images
		if images == nil {
			images = []string{}
		}
		out = append(out, models.PopularCategory{
			ID:           i + 1,
			Key:          b.key,
			Name:         c.tax.Name(b.key),
			Description:  fmt.Sprintf("%d productos disponibles", b.count),
			Images:       images,
			ProductCount: b.count,
		})
	}
	return out
}

// Stores lists suppliers in dataset order.
func (c *Catalog) Stores() []models.Store {
	out := make([]models.Store, len(c.stores))
	for i, s := range c.stores {
		s.Branches = slices.Clone(s.Branches)
		out[i] = s
	}
	return out
}

// StoreByName matches supplier names ignoring case and surrounding spaces.
func (c *Catalog) StoreByName(name string) (models.Store, bool) {
	want := fold(strings.TrimSpace(name))
	if want == "" {
		return models.Store{}, false
	}
	for _, s := range c.stores {
		if fold(strings.TrimSpace(s.Name)) == want {
			s.Branches = slices.Clone(s.Branches)
			return s, true
		}
	}
	return models.Store{}, false
}
