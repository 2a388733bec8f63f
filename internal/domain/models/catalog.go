package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategories selects every category in filters.
const AllCategories = "all"

type Category struct {
	Key  string `json:"key" yaml:"key"`
	Name string `json:"name" yaml:"name"`
}

type PopularCategory struct {
	ID           int      `json:"id"`
	Key          string   `json:"key,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Images       []string `json:"images"`
	ProductCount int      `json:"productCount,omitempty"`
}

type Deal struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DiscountPercent int       `json:"discountPercent"`
	Products        []Product `json:"products"`
}

type Branch struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type Store struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Logo         string   `json:"logo,omitempty"`
	Location     string   `json:"location,omitempty"`
	BranchCount  int      `json:"branchCount"`
	ProductCount int      `json:"productCount"`
	Branches     []Branch `json:"branches,omitempty"`
}

type PlanFeatures struct {
	ProductQuota     int      `json:"productQuota"`
	Ads              bool     `json:"ads"`
	ListingPriority  string   `json:"listingPriority"`
	LocationExposure string   `json:"locationExposure"`
	Statistics       bool     `json:"statistics"`
	Support          string   `json:"support"`
	Extras           []string `json:"extras"`
}

type Plan struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	PriceUSD decimal.Decimal `json:"priceUSD"`
	Features PlanFeatures    `json:"features"`
}

type SortKey string

const (
	SortNone       SortKey = ""
	SortPrice      SortKey = "price"
	SortName       SortKey = "name"
	SortPopularity SortKey = "popularity"
)

// ParseSortKey accepts the English keys and the Spanish aliases used by
// older clients. Unknown values map to SortNone.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price", "precio":
		return SortPrice
	case "name", "nombre":
		return SortName
	case "popularity", "popularidad", "views", "vistas":
		return SortPopularity
	default:
		return SortNone
	}
}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

func ParseSortOrder(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descendente":
		return Desc
	default:
		return Asc
	}
}

// ProductQuery drives search, listing and filtering. Zero values mean
// "no constraint"; Page and Limit are normalised by the consumer.
type ProductQuery struct {
	Category string
	Term     string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
	Limit    int
	SortBy   SortKey
	Order    SortOrder
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func (p Page[T]) Empty() bool { return len(p.Items) == 0 }
