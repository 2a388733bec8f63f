package catalog

import (
	"slices"

	"github.com/shopspring/decimal"

	"buscalisto/internal/domain/models"
)

var plans = []models.Plan{
	{
		ID:       "basic",
		Name:     "Básico",
		PriceUSD: decimal.Zero,
		Features: models.PlanFeatures{
			ProductQuota:     50,
			Ads:              false,
			ListingPriority:  "standard",
			LocationExposure: "local",
			Statistics:       false,
			Support:          "email",
			Extras:           []string{},
		},
	},
	{
		ID:       "medium",
		Name:     "Intermedio",
		PriceUSD: decimal.NewFromInt(15),
		Features: models.PlanFeatures{
			ProductQuota:     500,
			Ads:              true,
			ListingPriority:  "high",
			LocationExposure: "regional",
			Statistics:       true,
			Support:          "chat",
			Extras:           []string{"Logo destacado"},
		},
	},
	{
		ID:       "premium",
		Name:     "Premium",
		PriceUSD: decimal.NewFromInt(40),
		Features: models.PlanFeatures{
			ProductQuota:     -1,
			Ads:              true,
			ListingPriority:  "top",
			LocationExposure: "national",
			Statistics:       true,
			Support:          "dedicated",
			Extras:           []string{"Logo destacado", "Banner en portada", "Reportes mensuales"},
		},
	},
}

// Plans is the static subscription catalogue shown during store
// registration. ProductQuota -1 means unlimited.
func Plans() []models.Plan {
	out := make([]models.Plan, len(plans))
	for i, p := range plans {
		p.Features.Extras = slices.Clone(p.Features.Extras)
		out[i] = p
	}
	return out
}

func PlanByID(id string) (models.Plan, bool) {
	for _, p := range Plans() {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}
