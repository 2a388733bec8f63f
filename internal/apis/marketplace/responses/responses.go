package responses

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"buscalisto/internal/domain/models"
)

type Product struct {
	ID                   models.ProductID `json:"id"`
	Name                 string           `json:"name"`
	BrandID              int              `json:"brandId"`
	BrandName            string           `json:"brandName"`
	Category             string           `json:"category"`
	Subcategory          string           `json:"subcategory"`
	Price                decimal.Decimal  `json:"price"`
	PriceUSD             decimal.Decimal  `json:"priceUSD"`
	OfferPrice           *decimal.Decimal `json:"offerPrice"`
	OfferDescription     string           `json:"offerDescription"`
	Stock                int              `json:"stock"`
	IsActive             *bool            `json:"isActive"`
	RequiresPrescription bool             `json:"requiresPrescription"`
	Image                string           `json:"image"`
	Images               []string         `json:"images"`
	CreatedAt            *time.Time       `json:"createdAt"`
	Views                int              `json:"views"`
	SupplierID           int              `json:"supplierId"`
	SupplierName         string           `json:"supplierName"`
	BranchID             int              `json:"branchId"`
	BranchName           string           `json:"branchName"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// FlexID accepts numeric or string identifiers.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	var p models.ProductID
	if err := p.UnmarshalJSON(b); err != nil {
		return err
	}
	*id = FlexID(p)
	return nil
}

type Deal struct {
	ID          FlexID    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Discount    int       `json:"discount"`
	Products    []Product `json:"products"`
}

type PopularCategory struct {
	ID          int      `json:"id"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// Category is either a bare key string or an object with key and name.
type Category struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

func (c *Category) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Category{Key: s}
		return nil
	}
	type plain Category
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Category(p)
	return nil
}

type Store struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Logo         string `json:"logo"`
	Location     string `json:"location"`
	BranchCount  int    `json:"branchCount"`
	ProductCount int    `json:"productCount"`
	Branches     []struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"branches"`
}
