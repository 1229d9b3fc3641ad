package admin

import (
	"github.com/terra-clan/symposium-registry/internal/models"
)

// VariantStats aggregates one collection
type VariantStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Verified int `json:"verified"`
	Entered  int `json:"entered"`
	Revenue  int `json:"revenue"`
}

// Stats are the combined and per-variant aggregates
type Stats struct {
	Combined VariantStats                    `json:"combined"`
	Variants map[models.Variant]VariantStats `json:"variants"`
}

// ComputeStats counts rows by payment and entry state. Revenue is the
// verified count times the variant's price.
func ComputeStats(rows []models.RegistrationSummary, prices Prices) Stats {
	st := Stats{Variants: make(map[models.Variant]VariantStats, len(models.Variants))}
	for _, v := range models.Variants {
		st.Variants[v] = VariantStats{}
	}

	for _, r := range rows {
		vs := st.Variants[r.Variant]
		vs.Total++
		if r.PaymentVerified {
			vs.Verified++
			vs.Revenue += prices.For(r.Variant)
		} else {
			vs.Pending++
		}
		if r.EntryConfirmed {
			vs.Entered++
		}
		st.Variants[r.Variant] = vs
	}

	for _, vs := range st.Variants {
		st.Combined.Total += vs.Total
		st.Combined.Pending += vs.Pending
		st.Combined.Verified += vs.Verified
		st.Combined.Entered += vs.Entered
		st.Combined.Revenue += vs.Revenue
	}
	return st
}
