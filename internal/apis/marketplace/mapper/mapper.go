package mapper

import (
	"log/slog"
	"strings"

	"buscalisto/internal/apis/marketplace/responses"
	"buscalisto/internal/domain/models"
	"buscalisto/internal/taxonomy"
)

// Mapper converts wire payloads into domain values. Offers above the base
// price are dropped here so nothing past this point sees them.
type Mapper struct {
	tax *taxonomy.Taxonomy
	log *slog.Logger
}

func New(tax *taxonomy.Taxonomy, log *slog.Logger) *Mapper {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Mapper{tax: tax, log: log}
}

func (m *Mapper) Product(p responses.Product) models.Product {
	out := models.Product{
		ID:                   p.ID,
		Name:                 strings.TrimSpace(p.Name),
		Brand:                models.BrandRef{ID: p.BrandID, Name: strings.TrimSpace(p.BrandName)},
		Category:             taxonomy.Normalize(p.Category),
		Subcategory:          strings.TrimSpace(p.Subcategory),
		Price:                p.Price,
		PriceUSD:             p.PriceUSD,
		OfferDescription:     p.OfferDescription,
		Stock:                p.Stock,
		Active:               p.IsActive == nil || *p.IsActive,
		RequiresPrescription: p.RequiresPrescription,
		Images:               images(p.Image, p.Images),
		Views:                p.Views,
		Supplier: models.SupplierRef{
			ID:         p.SupplierID,
			Name:       p.SupplierName,
			BranchID:   p.BranchID,
			BranchName: p.BranchName,
		},
	}
	if p.CreatedAt != nil {
		out.CreatedAt = *p.CreatedAt
	}

	if p.OfferPrice != nil {
		if models.ValidOffer(p.Price, *p.OfferPrice) {
			offer := *p.OfferPrice
			out.OfferPrice = &offer
		} else {
			out.OfferDescription = ""
			m.log.Warn("live offer above base price dropped",
				"product_id", p.ID.String(),
				"price", p.Price.String(),
				"offer", p.OfferPrice.String(),
			)
		}
	}
	return out
}

func (m *Mapper) Products(ps []responses.Product) []models.Product {
	out := make([]models.Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, m.Product(p))
	}
	return out
}

// Page builds a domain page. Without upstream pagination the page is
// derived from the request and the number of items returned.
func (m *Mapper) Page(ps []responses.Product, pg *responses.Pagination, q models.ProductQuery) models.Page[models.Product] {
	items := m.Products(ps)
	if pg != nil {
		out := models.Page[models.Product]{
			Items:      items,
			Page:       pg.Page,
			Limit:      pg.Limit,
			Total:      pg.Total,
			TotalPages: pg.TotalPages,
		}
		if out.Page < 1 {
			out.Page = max(q.Page, 1)
		}
		if out.Limit <= 0 {
			out.Limit = q.Limit
		}
		if out.TotalPages == 0 && out.Limit > 0 {
			out.TotalPages = (out.Total + out.Limit - 1) / out.Limit
		}
		return out
	}

	limit := q.Limit
	if limit <= 0 {
		limit = len(items)
	}
	total := len(items)
	pages := 0
	if total > 0 {
		pages = 1
	}
	return models.Page[models.Product]{
		Items:      items,
		Page:       max(q.Page, 1),
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
	}
}

func (m *Mapper) Deal(d responses.Deal) models.Deal {
	out := models.Deal{
		ID:              string(d.ID),
		Title:           d.Title,
		Description:     d.Description,
		DiscountPercent: d.Discount,
		Products:        m.Products(d.Products),
	}
	if out.DiscountPercent == 0 {
		for _, p := range out.Products {
			out.DiscountPercent = max(out.DiscountPercent, p.DiscountPercent())
		}
	}
	return out
}

func (m *Mapper) Deals(ds []responses.Deal) []models.Deal {
	out := make([]models.Deal, 0, len(ds))
	for _, d := range ds {
		out = append(out, m.Deal(d))
	}
	return out
}

func (m *Mapper) PopularCategories(cs []responses.PopularCategory) []models.PopularCategory {
	out := make([]models.PopularCategory, 0, len(cs))
	for _, c := range cs {
		key := taxonomy.Normalize(c.Key)
		name := c.Name
		if name == "" && key != "" {
			name = m.tax.Name(key)
		}
		imgs := c.Images
		if imgs == nil {
			imgs = []string{}
		}
		out = append(out, models.PopularCategory{
			ID:          c.ID,
			Key:         key,
			Name:        name,
			Description: c.Description,
			Images:      imgs,
		})
	}
	return out
}

// Categories keeps the upstream order and fills missing names from the
// taxonomy. Keys the taxonomy does not know are logged and kept.
func (m *Mapper) Categories(cs []responses.Category) []models.Category {
	out := make([]models.Category, 0, len(cs))
	for _, c := range cs {
		key := taxonomy.Normalize(c.Key)
		if key == "" {
			continue
		}
		if !m.tax.Has(key) {
			m.log.Debug("live category outside taxonomy", "category", key)
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = m.tax.Name(key)
		}
		out = append(out, models.Category{Key: key, Name: name})
	}
	return out
}

func (m *Mapper) Store(s responses.Store) models.Store {
	out := models.Store{
		ID:           s.ID,
		Name:         s.Name,
		Logo:         s.Logo,
		Location:     s.Location,
		BranchCount:  s.BranchCount,
		ProductCount: s.ProductCount,
	}
	for _, b := range s.Branches {
		out.Branches = append(out.Branches, models.Branch{ID: b.ID, Name: b.Name, Address: b.Address})
	}
	if out.BranchCount == 0 {
		out.BranchCount = len(out.Branches)
	}
	return out
}

func images(first string, rest []string) []string {
	out := make([]string, 0, len(rest)+1)
	seen := make(map[string]struct{}, len(rest)+1)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	add(first)
	for _, s := range rest {
		add(s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
