package catalog

import (
	"time"

	"buscalisto/internal/domain/models"
)

// Regroup nests flat products back into the dataset format, keeping
// suppliers, branches and products in first-seen order. Products repeated
// by id are kept once.
func Regroup(ps []models.Product) Dataset {
	type branchKey struct{ supplier, branch int }

	var ds Dataset
	supplierAt := make(map[int]int)
	branchAt := make(map[branchKey]int)
	seen := make(map[models.ProductID]struct{}, len(ps))

	for _, p := range ps {
		if p.ID != "" {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
		}

		si, ok := supplierAt[p.Supplier.ID]
		if !ok {
			si = len(ds.Suppliers)
			supplierAt[p.Supplier.ID] = si
			ds.Suppliers = append(ds.Suppliers, DatasetSupplier{ID: p.Supplier.ID, Name: p.Supplier.Name})
		}
		s := &ds.Suppliers[si]

		bk := branchKey{p.Supplier.ID, p.Supplier.BranchID}
		bi, ok := branchAt[bk]
		if !ok {
			bi = len(s.Branches)
			branchAt[bk] = bi
			s.Branches = append(s.Branches, DatasetBranch{ID: p.Supplier.BranchID, Name: p.Supplier.BranchName})
		}
		b := &s.Branches[bi]

		b.Products = append(b.Products, fromProduct(p))
	}
	return ds
}

func fromProduct(p models.Product) DatasetProduct {
	price := p.Price
	active := p.Active
	dp := DatasetProduct{
		Name:             p.Name,
		BrandID:          p.Brand.ID,
		Brand:            p.Brand.Name,
		Category:         p.Category,
		Subcategory:      p.Subcategory,
		Price:            &price,
		OfferDescription: p.OfferDescription,
		Stock:            p.Stock,
		Active:           &active,
		Prescription:     p.RequiresPrescription,
		Images:           p.Images,
		Views:            p.Views,
	}
	if !p.PriceUSD.IsZero() {
		usd := p.PriceUSD
		dp.PriceUSD = &usd
	}
	if p.OfferPrice != nil {
		offer := *p.OfferPrice
		dp.OfferPrice = &offer
	}
	if !p.CreatedAt.IsZero() {
		dp.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dp
}
