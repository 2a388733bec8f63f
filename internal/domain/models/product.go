package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductID is the single identifier type for products. Upstream payloads
// carry ids as numbers or strings; both are converted once on decode.
type ProductID string

func (id ProductID) String() string { return string(id) }

func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("product id: %w", err)
		}
		*id = ProductID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

type BrandRef struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type SupplierRef struct {
	ID         int    `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	BranchID   int    `json:"branchId,omitempty"`
	BranchName string `json:"branchName,omitempty"`
}

type Product struct {
	ID                   ProductID        `json:"id"`
	Name                 string           `json:"name"`
	Brand                BrandRef         `json:"brand"`
	Category             string           `json:"category"`
	Subcategory          string           `json:"subcategory,omitempty"`
	Price                decimal.Decimal  `json:"price"`
	PriceUSD             decimal.Decimal  `json:"priceUSD"`
	OfferPrice           *decimal.Decimal `json:"offerPrice,omitempty"`
	OfferDescription     string           `json:"offerDescription,omitempty"`
	Stock                int              `json:"stock"`
	Active               bool             `json:"active"`
	RequiresPrescription bool             `json:"requiresPrescription"`
	Images               []string         `json:"images,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
	Views                int              `json:"views"`
	Supplier             SupplierRef      `json:"supplier"`
}

func (p Product) HasOffer() bool {
	return p.OfferPrice != nil
}

// DiscountPercent is zero for products without a valid offer.
func (p Product) DiscountPercent() int {
	if p.OfferPrice == nil {
		return 0
	}
	return DiscountPercent(p.Price, *p.OfferPrice)
}

// ValidOffer reports whether offer is usable against price (offer <= price).
func ValidOffer(price, offer decimal.Decimal) bool {
	return !offer.IsNegative() && offer.LessThanOrEqual(price)
}

// DiscountPercent returns the rounded percentage saved by paying offer
// instead of price. Non-positive prices and offers above price yield 0.
func DiscountPercent(price, offer decimal.Decimal) int {
	if !price.IsPositive() || offer.GreaterThanOrEqual(price) || offer.IsNegative() {
		return 0
	}
	pct := price.Sub(offer).Div(price).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}
