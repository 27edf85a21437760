package economy

import (
	"cmp"
	"math"
	"slices"
)

// Holder is the part of an actor the tax assessment needs.
type Holder struct {
	ID        string
	Role      Role
	RegionID  string
	Resources Resources
}

// TaxAssessment is what one peasant owes the baron of their region.
type TaxAssessment struct {
	PayerID     string
	CollectorID string
	Gold        float64
	Grain       float64
}

// AssessTaxes computes, for every peasant whose region has a baron, the gold and
// grain owed at rate, rounded up but never more than the peasant holds. Peasants
// without a baron or with nothing to pay are skipped. The result is ordered by payer
// id.
func AssessTaxes(holders []Holder, rate float64) []TaxAssessment {
	if rate <= 0 {
		return nil
	}

	sorted := slices.Clone(holders)
	slices.SortFunc(sorted, func(a, b Holder) int { return cmp.Compare(a.ID, b.ID) })

	barons := map[string]string{}
	for _, h := range sorted {
		if h.Role != RoleBaron {
			continue
		}
		if _, ok := barons[h.RegionID]; !ok {
			barons[h.RegionID] = h.ID
		}
	}

	var out []TaxAssessment
	for _, h := range sorted {
		if h.Role != RolePeasant {
			continue
		}
		baron, ok := barons[h.RegionID]
		if !ok {
			continue
		}
		gold := owed(h.Resources.Get(Gold), rate)
		grain := owed(h.Resources.Get(Grain), rate)
		if gold <= 0 && grain <= 0 {
			continue
		}
		out = append(out, TaxAssessment{
			PayerID:     h.ID,
			CollectorID: baron,
			Gold:        gold,
			Grain:       grain,
		})
	}
	return out
}

func owed(held, rate float64) float64 {
	if held <= 0 {
		return 0
	}
	return math.Min(math.Ceil(held*rate), held)
}
