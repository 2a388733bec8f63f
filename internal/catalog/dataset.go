package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"buscalisto/internal/domain/models"
	"buscalisto/internal/taxonomy"
)

//go:embed data/catalogo.json
var bundled []byte

// Dataset is the on-disk shape of the fallback catalogue: suppliers
// (pharmacies) own branches, branches own products. Keys follow the
// marketplace's Spanish naming.
type Dataset struct {
	Suppliers []DatasetSupplier `json:"farmacias"`
	Deals     []DatasetDeal     `json:"ofertas,omitempty"`
}

type DatasetSupplier struct {
	ID       int             `json:"id"`
	Name     string          `json:"nombre"`
	Logo     string          `json:"logo,omitempty"`
	Location string          `json:"ubicacion,omitempty"`
	Branches []DatasetBranch `json:"sucursales"`
}

type DatasetBranch struct {
	ID       int              `json:"id"`
	Name     string           `json:"nombre"`
	Address  string           `json:"direccion,omitempty"`
	Products []DatasetProduct `json:"productos"`
}

type DatasetProduct struct {
	Name             string           `json:"nombre"`
	BrandID          int              `json:"marcaId,omitempty"`
	Brand            string           `json:"marca,omitempty"`
	Category         string           `json:"categoria"`
	Subcategory      string           `json:"subcategoria,omitempty"`
	Price            *decimal.Decimal `json:"precio"`
	PriceUSD         *decimal.Decimal `json:"precioUSD,omitempty"`
	OfferPrice       *decimal.Decimal `json:"precioOferta,omitempty"`
	OfferDescription string           `json:"descripcionOferta,omitempty"`
	Stock            int              `json:"stock"`
	Active           *bool            `json:"activo,omitempty"`
	Prescription     bool             `json:"requiereReceta,omitempty"`
	Image            string           `json:"imagen,omitempty"`
	Images           []string         `json:"imagenes,omitempty"`
	Views            int              `json:"vistas,omitempty"`
	CreatedAt        string           `json:"fechaCreacion,omitempty"`
}

// DatasetDeal is a hand-curated deal. ProductIDs refer to the sequential
// ids assigned during synthesis.
type DatasetDeal struct {
	ID          string `json:"id"`
	Title       string `json:"titulo"`
	Description string `json:"descripcion,omitempty"`
	ProductIDs  []int  `json:"productoIds"`
}

// Catalog is the synthesized fallback dataset. It is immutable after
// construction; every accessor hands out copies.
type Catalog struct {
	products []models.Product
	byID     map[models.ProductID]int
	stores   []models.Store
	deals    []models.Deal
	tax      *taxonomy.Taxonomy
	log      *slog.Logger
}

// LoadDefault synthesizes the catalogue bundled with the binary.
func LoadDefault(tax *taxonomy.Taxonomy, log *slog.Logger) (*Catalog, error) {
	return Load(bytes.NewReader(bundled), tax, log)
}

func LoadFile(path string, tax *taxonomy.Taxonomy, log *slog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Load(f, tax, log)
}

func Load(r io.Reader, tax *taxonomy.Taxonomy, log *slog.Logger) (*Catalog, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return New(ds, tax, log), nil
}

// New flattens ds into a catalogue. Products without a base price are
// skipped with a warning; the rest get ids "1", "2", ... in document order.
func New(ds Dataset, tax *taxonomy.Taxonomy, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	if tax == nil {
		tax = taxonomy.Default()
	}

	c := &Catalog{
		products: make([]models.Product, 0, 256),
		byID:     make(map[models.ProductID]int, 256),
		stores:   make([]models.Store, 0, len(ds.Suppliers)),
		tax:      tax,
		log:      log,
	}

	next := 1
	skipped := 0
	for _, s := range ds.Suppliers {
		store := models.Store{
			ID:          s.ID,
			Name:        s.Name,
			Logo:        s.Logo,
			Location:    s.Location,
			BranchCount: len(s.Branches),
			Branches:    make([]models.Branch, 0, len(s.Branches)),
		}
		for _, b := range s.Branches {
			store.Branches = append(store.Branches, models.Branch{ID: b.ID, Name: b.Name, Address: b.Address})

			for _, dp := range b.Products {
				if dp.Price == nil {
					skipped++
					log.Warn("dataset product without base price skipped",
						"supplier", s.Name,
						"branch", b.Name,
						"product", dp.Name,
					)
					continue
				}

				p := toProduct(dp, s, b, log)
				p.ID = models.ProductID(strconv.Itoa(next))
				next++

				if !tax.Has(p.Category) {
					log.Debug("dataset product outside taxonomy", "product", p.Name, "category", p.Category)
				}

				c.byID[p.ID] = len(c.products)
				c.products = append(c.products, p)
				store.ProductCount++
			}
		}
		c.stores = append(c.stores, store)
	}

	c.deals = c.resolveDeals(ds.Deals)

	log.Info("fallback dataset ready",
		"products", len(c.products),
		"stores", len(c.stores),
		"skipped", skipped,
		"static_deals", len(c.deals),
	)
	return c
}

func toProduct(dp DatasetProduct, s DatasetSupplier, b DatasetBranch, log *slog.Logger) models.Product {
	p := models.Product{
		Name:                 strings.TrimSpace(dp.Name),
		Brand:                models.BrandRef{ID: dp.BrandID, Name: dp.Brand},
		Category:             taxonomy.Normalize(dp.Category),
		Subcategory:          dp.Subcategory,
		Price:                *dp.Price,
		OfferDescription:     dp.OfferDescription,
		Stock:                dp.Stock,
		Active:               dp.Active == nil || *dp.Active,
		RequiresPrescription: dp.Prescription,
		Views:                dp.Views,
		CreatedAt:            parseDate(dp.CreatedAt),
		Supplier: models.SupplierRef{
			ID:         s.ID,
			Name:       s.Name,
			BranchID:   b.ID,
			BranchName: b.Name,
		},
	}
	if dp.PriceUSD != nil {
		p.PriceUSD = *dp.PriceUSD
	}
	if dp.OfferPrice != nil {
		if models.ValidOffer(p.Price, *dp.OfferPrice) {
			offer := *dp.OfferPrice
			p.OfferPrice = &offer
		} else {
			log.Warn("dataset offer above base price dropped",
				"product", p.Name,
				"price", p.Price.String(),
				"offer", dp.OfferPrice.String(),
			)
			p.OfferDescription = ""
		}
	}
	if dp.Image != "" {
		p.Images = append(p.Images, dp.Image)
	}
	p.Images = append(p.Images, dp.Images...)
	return p
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (c *Catalog) resolveDeals(in []DatasetDeal) []models.Deal {
	out := make([]models.Deal, 0, len(in))
	for _, d := range in {
		deal := models.Deal{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Products:    make([]models.Product, 0, len(d.ProductIDs)),
		}
		for _, id := range d.ProductIDs {
			p, ok := c.Find(models.ProductID(strconv.Itoa(id)))
			if !ok {
				c.log.Warn("static deal references unknown product", "deal", d.ID, "product_id", id)
				continue
			}
			deal.Products = append(deal.Products, p)
			deal.DiscountPercent = max(deal.DiscountPercent, p.DiscountPercent())
		}
		if len(deal.Products) > 0 {
			out = append(out, deal)
		}
	}
	return out
}
