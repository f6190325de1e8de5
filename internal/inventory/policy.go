package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// LocationPolicy picks the record to draw from when a line is not pinned to a
// location. Candidates all hold at least the requested quantity.
type LocationPolicy interface {
	Name() string
	Choose(candidates []models.InventoryRecord, minQty int) *models.InventoryRecord
}

const (
	PolicyLeastExcess = "least_excess"
	PolicyMostStock   = "most_stock"
	PolicyFirstMatch  = "first_match"
)

// ParsePolicy resolves a configured policy name. Empty selects least_excess.
func ParsePolicy(name string) (LocationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyLeastExcess:
		return LeastExcessPolicy{}, nil
	case PolicyMostStock:
		return MostStockPolicy{}, nil
	case PolicyFirstMatch:
		return FirstMatchPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown location policy %q", name)
	}
}

// LeastExcessPolicy drains the location whose stock most closely fits the
// request, leaving deeper pools intact. Ties go to the lowest location id.
type LeastExcessPolicy struct{}

func (LeastExcessPolicy) Name() string { return PolicyLeastExcess }

func (LeastExcessPolicy) Choose(candidates []models.InventoryRecord, minQty int) *models.InventoryRecord {
	return pick(candidates, func(a, b models.InventoryRecord) bool {
		excessA, excessB := a.Quantity-minQty, b.Quantity-minQty
		if excessA != excessB {
			return excessA < excessB
		}
		return a.LocationID.String() < b.LocationID.String()
	})
}

// MostStockPolicy draws from the deepest pool. Ties go to the lowest location id.
type MostStockPolicy struct{}

func (MostStockPolicy) Name() string { return PolicyMostStock }

func (MostStockPolicy) Choose(candidates []models.InventoryRecord, _ int) *models.InventoryRecord {
	return pick(candidates, func(a, b models.InventoryRecord) bool {
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.LocationID.String() < b.LocationID.String()
	})
}

// FirstMatchPolicy takes candidates in the order storage returned them.
type FirstMatchPolicy struct{}

func (FirstMatchPolicy) Name() string { return PolicyFirstMatch }

func (FirstMatchPolicy) Choose(candidates []models.InventoryRecord, _ int) *models.InventoryRecord {
	if len(candidates) == 0 {
		return nil
	}
	chosen := candidates[0]
	return &chosen
}

func pick(candidates []models.InventoryRecord, less func(a, b models.InventoryRecord) bool) *models.InventoryRecord {
	if len(candidates) == 0 {
		return nil
	}
	sorted := append([]models.InventoryRecord(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	chosen := sorted[0]
	return &chosen
}
