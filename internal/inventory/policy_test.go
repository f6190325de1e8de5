package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func fixedLocation(t *testing.T, value string) uuid.UUID {
	t.Helper()
	return uuid.MustParse(value)
}

func TestLeastExcessPolicyPrefersTightestFit(t *testing.T) {
	locA := fixedLocation(t, "00000000-0000-0000-0000-00000000000a")
	locB := fixedLocation(t, "00000000-0000-0000-0000-00000000000b")
	locC := fixedLocation(t, "00000000-0000-0000-0000-00000000000c")

	chosen := LeastExcessPolicy{}.Choose([]models.InventoryRecord{
		{LocationID: locA, Quantity: 40},
		{LocationID: locB, Quantity: 3},
		{LocationID: locC, Quantity: 12},
	}, 2)
	require.NotNil(t, chosen)
	require.Equal(t, locB, chosen.LocationID)
}

func TestLeastExcessPolicyBreaksTiesByLocationID(t *testing.T) {
	locA := fixedLocation(t, "00000000-0000-0000-0000-00000000000a")
	locB := fixedLocation(t, "00000000-0000-0000-0000-00000000000b")

	chosen := LeastExcessPolicy{}.Choose([]models.InventoryRecord{
		{LocationID: locB, Quantity: 5},
		{LocationID: locA, Quantity: 5},
	}, 1)
	require.Equal(t, locA, chosen.LocationID)
}

func TestMostStockPolicyPrefersDeepestPool(t *testing.T) {
	locA := fixedLocation(t, "00000000-0000-0000-0000-00000000000a")
	locB := fixedLocation(t, "00000000-0000-0000-0000-00000000000b")

	chosen := MostStockPolicy{}.Choose([]models.InventoryRecord{
		{LocationID: locA, Quantity: 5},
		{LocationID: locB, Quantity: 9},
	}, 1)
	require.Equal(t, locB, chosen.LocationID)
}

func TestFirstMatchPolicyKeepsStorageOrder(t *testing.T) {
	locA := fixedLocation(t, "00000000-0000-0000-0000-00000000000a")
	locB := fixedLocation(t, "00000000-0000-0000-0000-00000000000b")

	chosen := FirstMatchPolicy{}.Choose([]models.InventoryRecord{
		{LocationID: locB, Quantity: 1},
		{LocationID: locA, Quantity: 9},
	}, 1)
	require.Equal(t, locB, chosen.LocationID)
}

func TestPoliciesReturnNilWithoutCandidates(t *testing.T) {
	for _, policy := range []LocationPolicy{LeastExcessPolicy{}, MostStockPolicy{}, FirstMatchPolicy{}} {
		require.Nil(t, policy.Choose(nil, 1), policy.Name())
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]string{
		"":             PolicyLeastExcess,
		"least_excess": PolicyLeastExcess,
		" MOST_STOCK ": PolicyMostStock,
		"first_match":  PolicyFirstMatch,
	}
	for input, want := range cases {
		policy, err := ParsePolicy(input)
		require.NoError(t, err, input)
		require.Equal(t, want, policy.Name())
	}

	_, err := ParsePolicy("nearest")
	require.Error(t, err)
}
