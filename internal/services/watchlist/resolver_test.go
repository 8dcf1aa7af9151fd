package watchlist

import (
	"net/http"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/rye/pkg/models"
)

func TestValidatePLU(t *testing.T) {
	tests := []struct {
		name    string
		plu     int
		wantErr bool
	}{
		{name: "lower bound", plu: 10000},
		{name: "upper bound", plu: 65000},
		{name: "typical code", plu: 42315},
		{name: "below range", plu: 9999, wantErr: true},
		{name: "above range", plu: 65001, wantErr: true},
		{name: "zero", plu: 0, wantErr: true},
		{name: "negative", plu: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePLU(tt.plu)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		})
	}
}

func TestCombineDefaultsOnly(t *testing.T) {
	defaults := []*models.Product{
		{PLU: 20001, BrandName: "Blanton's", Tier: models.TierAllocation},
		{PLU: 20002, BrandName: "Weller 12", Tier: models.TierLimited},
	}

	entries := Combine(defaults, nil)

	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "default", entry.Source)
		assert.True(t, entry.NotifyEmail)
	}
}

func TestCombineExclusionRemovesDefault(t *testing.T) {
	defaults := []*models.Product{
		{PLU: 20001, BrandName: "Blanton's"},
		{PLU: 20002, BrandName: "Weller 12"},
	}
	prefs := []*models.Preference{
		{PLU: 20001, Interest: models.InterestNotInterested},
	}

	entries := Combine(defaults, prefs)

	require.Len(t, entries, 1)
	assert.Equal(t, 20002, entries[0].PLU)
}

func TestCombineCustomAddition(t *testing.T) {
	defaults := []*models.Product{
		{PLU: 20001, BrandName: "Blanton's"},
	}
	prefs := []*models.Preference{
		{
			PLU:          30001,
			Interest:     models.InterestInterested,
			CustomName:   "Four Roses Single Barrel",
			CustomPrice:  49.95,
			CustomSizeML: 750,
			WatchID:      7,
			NotifyEmail:  true,
			NotifyText:   true,
		},
	}

	entries := Combine(defaults, prefs)

	require.Len(t, entries, 2)

	var custom *models.WatchlistEntry
	for i := range entries {
		if entries[i].PLU == 30001 {
			custom = &entries[i]
		}
	}
	require.NotNil(t, custom)
	assert.Equal(t, models.SourceCustom, custom.Source)
	assert.Equal(t, "Four Roses Single Barrel", custom.Name)
	assert.Equal(t, 49.95, custom.RetailPrice)
	assert.Equal(t, 750, custom.SizeML)
	assert.Equal(t, int64(7), custom.WatchID)
	assert.True(t, custom.NotifyText)
}

func TestCombineCollisionCustomNameWins(t *testing.T) {
	defaults := []*models.Product{
		{PLU: 20001, BrandName: "Blanton's", Tier: models.TierAllocation, RetailPrice: 74.99},
	}
	prefs := []*models.Preference{
		{PLU: 20001, Interest: models.InterestInterested, CustomName: "My Unicorn", WatchID: 3},
	}

	entries := Combine(defaults, prefs)

	require.Len(t, entries, 1)
	// still the default row, renamed, not a duplicate
	assert.Equal(t, models.SourceDefault, entries[0].Source)
	assert.Equal(t, "My Unicorn", entries[0].Name)
	assert.Equal(t, 74.99, entries[0].RetailPrice)
	assert.Equal(t, int64(3), entries[0].WatchID)
}

func TestCombineCollisionWithoutCustomNameKeepsBrand(t *testing.T) {
	defaults := []*models.Product{
		{PLU: 20001, BrandName: "Blanton's"},
	}
	prefs := []*models.Preference{
		{PLU: 20001, Interest: models.InterestInterested, NotifyEmail: false},
	}

	entries := Combine(defaults, prefs)

	require.Len(t, entries, 1)
	assert.Equal(t, "Blanton's", entries[0].Name)
	assert.False(t, entries[0].NotifyEmail)
}

func TestCombineFallbackName(t *testing.T) {
	prefs := []*models.Preference{
		{PLU: 30001, Interest: models.InterestInterested},
	}

	entries := Combine(nil, prefs)

	require.Len(t, entries, 1)
	assert.Equal(t, "PLU 30001", entries[0].Name)
}

func TestCombineSortsByNameCaseInsensitive(t *testing.T) {
	defaults := []*models.Product{
		{PLU: 20003, BrandName: "weller 12"},
		{PLU: 20001, BrandName: "Blanton's"},
		{PLU: 20002, BrandName: "EH Taylor"},
	}

	entries := Combine(defaults, nil)

	require.Len(t, entries, 3)
	names := []string{entries[0].Name, entries[1].Name, entries[2].Name}
	assert.Equal(t, []string{"Blanton's", "EH Taylor", "weller 12"}, names)
}

func TestCombineSortTieBreaksOnPLU(t *testing.T) {
	defaults := []*models.Product{
		{PLU: 20002, BrandName: "Blanton's"},
		{PLU: 20001, BrandName: "blanton's"},
	}

	entries := Combine(defaults, nil)

	require.Len(t, entries, 2)
	assert.Equal(t, 20001, entries[0].PLU)
	assert.Equal(t, 20002, entries[1].PLU)
}

func TestCombineExclusionOfUnknownPLUIsNoop(t *testing.T) {
	defaults := []*models.Product{
		{PLU: 20001, BrandName: "Blanton's"},
	}
	prefs := []*models.Preference{
		{PLU: 59999, Interest: models.InterestNotInterested},
	}

	entries := Combine(defaults, prefs)

	assert.Len(t, entries, 1)
}

func TestFallbackName(t *testing.T) {
	name := FallbackName(31415)
	assert.Equal(t, "PLU 31415", name)
	assert.True(t, strings.HasPrefix(name, "PLU "))
}
