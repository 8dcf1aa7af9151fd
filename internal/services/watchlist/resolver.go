package watchlist

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/rye/pkg/models"
)

// PLU codes are five digits; codes above 65000 are reserved ranges that never
// appear in retail listings.
const (
	MinPLU = 10000
	MaxPLU = 65000
)

// MaxCustomNameLength caps the display name on custom watchlist items.
const MaxCustomNameLength = 100

// ValidatePLU rejects PLU codes outside the retail range.
func ValidatePLU(plu int) error {
	if plu < MinPLU || plu > MaxPLU {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "plu must be between %d and %d", MinPLU, MaxPLU)
	}
	return nil
}

// FallbackName is the display name for a custom item with no custom name.
func FallbackName(plu int) string {
	return fmt.Sprintf("PLU %d", plu)
}

// Combine resolves a user's effective watchlist from the shared defaults and
// the user's preferences:
//
//  1. every default-tracked product is included
//  2. not_interested preferences remove their PLU from the defaults
//  3. interested preferences add their PLU; on collision with a default the
//     preference's custom fields win
//  4. the result is deduplicated by PLU and sorted by display name,
//     case-insensitively, with ties broken by PLU
//
// Only active preferences participate; callers pass the active set.
func Combine(defaults []*models.Product, prefs []*models.Preference) []models.WatchlistEntry {
	entries := make(map[int]models.WatchlistEntry, len(defaults))

	for _, product := range defaults {
		entries[product.PLU] = models.WatchlistEntry{
			PLU:         product.PLU,
			Name:        product.BrandName,
			Source:      models.SourceDefault,
			Tier:        product.Tier,
			RetailPrice: product.RetailPrice,
			SizeML:      product.SizeML,
			ImagePath:   product.ImagePath,
			NotifyEmail: true,
		}
	}

	for _, pref := range prefs {
		if pref.Interest == models.InterestNotInterested {
			delete(entries, pref.PLU)
		}
	}

	for _, pref := range prefs {
		if pref.Interest != models.InterestInterested {
			continue
		}

		entry, isDefault := entries[pref.PLU]
		if !isDefault {
			entry = models.WatchlistEntry{
				PLU:         pref.PLU,
				Source:      models.SourceCustom,
				RetailPrice: pref.CustomPrice,
				SizeML:      pref.CustomSizeML,
			}
		}

		entry.WatchID = pref.WatchID
		entry.NotifyEmail = pref.NotifyEmail
		entry.NotifyText = pref.NotifyText
		if pref.CustomName != "" {
			entry.Name = pref.CustomName
		}
		if entry.Name == "" {
			entry.Name = FallbackName(pref.PLU)
		}

		entries[pref.PLU] = entry
	}

	result := make([]models.WatchlistEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry)
	}

	sort.Slice(result, func(i, j int) bool {
		a := strings.ToLower(result[i].Name)
		b := strings.ToLower(result[j].Name)
		if a != b {
			return a < b
		}
		return result[i].PLU < result[j].PLU
	})

	return result
}
