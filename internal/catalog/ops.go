package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"buscalisto/internal/domain/models"
	"buscalisto/internal/taxonomy"
)

const DefaultPageSize = 12

// fold returns the case-folded form used for search and name ordering.
// A Caser keeps state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// FilterCategory keeps products whose category equals key. "all" and the
// empty key return ps unchanged.
func FilterCategory(ps []models.Product, key string) []models.Product {
	key = taxonomy.Normalize(key)
	if key == "" || key == models.AllCategories {
		return ps
	}
	out := make([]models.Product, 0, len(ps))
	for _, p := range ps {
		if taxonomy.Normalize(p.Category) == key {
			out = append(out, p)
		}
	}
	return out
}

// Search keeps products whose name, brand, category or subcategory contains
// term, ignoring case.
func Search(ps []models.Product, term string) []models.Product {
	term = strings.TrimSpace(term)
	if term == "" {
		return ps
	}
	needle := fold(term)
	out := make([]models.Product, 0, len(ps))
	for _, p := range ps {
		if matches(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p models.Product, needle string) bool {
	for _, field := range [...]string{p.Name, p.Brand.Name, p.Category, p.Subcategory} {
		if field != "" && strings.Contains(fold(field), needle) {
			return true
		}
	}
	return false
}

// FilterPrice keeps products whose effective price lies in [min, max].
// Nil bounds are open.
func FilterPrice(ps []models.Product, lo, hi *decimal.Decimal) []models.Product {
	if lo == nil && hi == nil {
		return ps
	}
	out := make([]models.Product, 0, len(ps))
	for _, p := range ps {
		price := effectivePrice(p)
		if lo != nil && price.LessThan(*lo) {
			continue
		}
		if hi != nil && price.GreaterThan(*hi) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func effectivePrice(p models.Product) decimal.Decimal {
	if p.OfferPrice != nil {
		return *p.OfferPrice
	}
	return p.Price
}

// Sort returns a sorted copy. Ties keep their input order. An unknown key
// returns a copy in input order.
func Sort(ps []models.Product, by models.SortKey, order models.SortOrder) []models.Product {
	out := slices.Clone(ps)
	var less func(a, b models.Product) int
	switch by {
	case models.SortPrice:
		less = func(a, b models.Product) int { return a.Price.Cmp(b.Price) }
	case models.SortName:
		less = func(a, b models.Product) int { return strings.Compare(fold(a.Name), fold(b.Name)) }
	case models.SortPopularity:
		less = func(a, b models.Product) int { return cmp.Compare(a.Views, b.Views) }
	default:
		return out
	}
	if order == models.Desc {
		asc := less
		less = func(a, b models.Product) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, less)
	return out
}

// Paginate slices one page out of ps. page < 1 is treated as 1 and a
// non-positive size uses DefaultPageSize. Pages past the end are empty.
func Paginate(ps []models.Product, page, size int) models.Page[models.Product] {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(ps)
	res := models.Page[models.Product]{
		Items:      []models.Product{},
		Page:       page,
		Limit:      size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}
	start := (page - 1) * size
	if start >= total {
		return res
	}
	end := min(start+size, total)
	res.Items = slices.Clone(ps[start:end])
	return res
}

// Apply runs the full pipeline used by search, listing and filtering:
// category, term, price range, sort, paginate.
func Apply(ps []models.Product, q models.ProductQuery) models.Page[models.Product] {
	out := FilterCategory(ps, q.Category)
	out = Search(out, q.Term)
	out = FilterPrice(out, q.MinPrice, q.MaxPrice)
	out = Sort(out, q.SortBy, q.Order)
	return Paginate(out, q.Page, q.Limit)
}

func take(ps []models.Product, limit int) []models.Product {
	if limit <= 0 || limit >= len(ps) {
		return slices.Clone(ps)
	}
	return slices.Clone(ps[:limit])
}
