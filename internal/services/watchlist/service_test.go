package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/rye/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type fakeCatalogRepo struct {
	products []*models.Product
}

func (f *fakeCatalogRepo) GetByPLU(ctx context.Context, plu int) (*models.Product, error) {
	for _, p := range f.products {
		if p.PLU == plu {
			return p, nil
		}
	}
	return nil, httperror.NewHTTPError(http.StatusNotFound, "product not found")
}

func (f *fakeCatalogRepo) ListByTiers(ctx context.Context, tiers []string) ([]*models.Product, error) {
	tierSet := make(map[string]bool, len(tiers))
	for _, tier := range tiers {
		tierSet[tier] = true
	}
	var result []*models.Product
	for _, p := range f.products {
		if tierSet[p.Tier] {
			result = append(result, p)
		}
	}
	return result, nil
}

func (f *fakeCatalogRepo) Search(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	return f.products, nil
}

func (f *fakeCatalogRepo) ExistingPLUs(ctx context.Context, plus []int) (map[int]bool, error) {
	existing := make(map[int]bool)
	for _, plu := range plus {
		for _, p := range f.products {
			if p.PLU == plu {
				existing[plu] = true
			}
		}
	}
	return existing, nil
}

type fakePrefRepo struct {
	prefs     map[string]map[int]*models.Preference
	nextID    int64
	bulkCalls [][]int
	getErr    error
}

func newFakePrefRepo() *fakePrefRepo {
	return &fakePrefRepo{prefs: make(map[string]map[int]*models.Preference)}
}

func (f *fakePrefRepo) userPrefs(userID string) map[int]*models.Preference {
	if f.prefs[userID] == nil {
		f.prefs[userID] = make(map[int]*models.Preference)
	}
	return f.prefs[userID]
}

func (f *fakePrefRepo) ListActive(ctx context.Context, userID string) ([]*models.Preference, error) {
	var result []*models.Preference
	for _, pref := range f.userPrefs(userID) {
		if pref.Active {
			result = append(result, pref)
		}
	}
	return result, nil
}

func (f *fakePrefRepo) Get(ctx context.Context, userID string, plu int) (*models.Preference, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if pref, ok := f.userPrefs(userID)[plu]; ok && pref.Active {
		return pref, nil
	}
	return nil, httperror.NewHTTPError(http.StatusNotFound, "preference not found")
}

func (f *fakePrefRepo) Upsert(ctx context.Context, pref *models.Preference) (*models.Preference, error) {
	stored := *pref
	if existing, ok := f.userPrefs(pref.UserID)[pref.PLU]; ok {
		stored.WatchID = existing.WatchID
	} else {
		f.nextID++
		stored.WatchID = f.nextID
	}
	stored.Active = true
	f.userPrefs(pref.UserID)[pref.PLU] = &stored
	return &stored, nil
}

func (f *fakePrefRepo) Update(ctx context.Context, userID string, watchID int64, updates *models.Preference) (*models.Preference, error) {
	for _, pref := range f.userPrefs(userID) {
		if pref.WatchID == watchID && pref.Active {
			pref.CustomName = updates.CustomName
			pref.CustomPrice = updates.CustomPrice
			pref.CustomSizeML = updates.CustomSizeML
			pref.NotifyEmail = updates.NotifyEmail
			pref.NotifyText = updates.NotifyText
			return pref, nil
		}
	}
	return nil, httperror.NewHTTPError(http.StatusNotFound, "preference not found")
}

func (f *fakePrefRepo) Remove(ctx context.Context, userID string, plu int) error {
	if pref, ok := f.userPrefs(userID)[plu]; ok && pref.Active {
		pref.Active = false
		return nil
	}
	return httperror.NewHTTPError(http.StatusNotFound, "preference not found")
}

func (f *fakePrefRepo) BulkSetInterest(ctx context.Context, userID string, plus []int, interest models.InterestType) error {
	f.bulkCalls = append(f.bulkCalls, plus)
	for _, plu := range plus {
		f.Upsert(ctx, &models.Preference{UserID: userID, PLU: plu, Interest: interest})
	}
	return nil
}

func (f *fakePrefRepo) InsertIfAbsent(ctx context.Context, pref *models.Preference) (bool, error) {
	if _, ok := f.userPrefs(pref.UserID)[pref.PLU]; ok {
		return false, nil
	}
	_, err := f.Upsert(ctx, pref)
	return err == nil, err
}

func (f *fakePrefRepo) DeactivateAll(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, pref := range f.userPrefs(userID) {
		if pref.Active {
			pref.Active = false
			count++
		}
	}
	return count, nil
}

type fakeAuditSink struct {
	entries []*models.AuditEntry
}

func (f *fakeAuditSink) Append(ctx context.Context, entry *models.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

var errCacheMiss = errors.New("cache miss")

type fakeCache struct {
	values   map[string][]byte
	deleted  []string
	setCount int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, ok := f.values[key]
	if !ok {
		return errCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = data
	f.setCount++
	return nil
}

func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	f.deleted = append(f.deleted, pattern)
	count := len(f.values)
	f.values = make(map[string][]byte)
	return count, nil
}

func newTestService(catalogRepo *fakeCatalogRepo, prefRepo *fakePrefRepo, audit *fakeAuditSink, cache *fakeCache) *Service {
	var viewCache ViewCache
	if cache != nil {
		viewCache = cache
	}
	var sink AuditSink
	if audit != nil {
		sink = audit
	}
	return NewService(catalogRepo, prefRepo, sink, viewCache, Config{}, getTestLogger())
}

func catalogWithDefaults() *fakeCatalogRepo {
	return &fakeCatalogRepo{products: []*models.Product{
		{PLU: 20001, BrandName: "Blanton's", Tier: models.TierAllocation},
		{PLU: 20002, BrandName: "Weller 12", Tier: models.TierLimited},
	}}
}

func TestServiceAddRejectsInvalidPLU(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 999, Interest: models.InterestInterested})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestServiceAddRejectsInvalidInterest(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: "maybe"})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestServiceAddRequiresCustomNameOffCatalog(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 30001, Interest: models.InterestInterested})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	// an exclusion never needs a name
	_, err = svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})
	assert.NoError(t, err)
}

func TestServiceAddRejectsLongCustomName(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	longName := make([]byte, MaxCustomNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}

	_, err := svc.Add(context.Background(), "user-1", AddRequest{
		PLU:        30001,
		Interest:   models.InterestInterested,
		CustomName: string(longName),
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestServiceAddDuplicateMarkerConflicts(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	req := AddRequest{PLU: 30001, Interest: models.InterestInterested, CustomName: "Stagg Jr"}
	_, err := svc.Add(context.Background(), "user-1", req)
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), "user-1", req)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestServiceAddPropagatesLookupFailure(t *testing.T) {
	prefRepo := newFakePrefRepo()
	prefRepo.getErr = httperror.NewHTTPError(http.StatusInternalServerError, "failed to get preference")
	svc := newTestService(catalogWithDefaults(), prefRepo, nil, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	assert.Empty(t, prefRepo.userPrefs("user-1"), "no upsert after a failed lookup")
}

func TestServiceAddFlippingMarkerIsNotAConflict(t *testing.T) {
	prefRepo := newFakePrefRepo()
	svc := newTestService(catalogWithDefaults(), prefRepo, nil, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})
	require.NoError(t, err)

	pref, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestInterested})
	require.NoError(t, err)
	assert.Equal(t, models.InterestInterested, pref.Interest)
}

func TestServiceAddDefaultsNotifyEmail(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	pref, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})
	require.NoError(t, err)
	assert.True(t, pref.NotifyEmail)
	assert.False(t, pref.NotifyText)

	off := false
	pref2, err := svc.Add(context.Background(), "user-1", AddRequest{
		PLU:         20002,
		Interest:    models.InterestNotInterested,
		NotifyEmail: &off,
	})
	require.NoError(t, err)
	assert.False(t, pref2.NotifyEmail)
}

func TestServiceRemoveTwiceReturnsNotFound(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), "user-1", 20001))

	err = svc.Remove(context.Background(), "user-1", 20001)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestServiceBulkToggleCapsBatchSize(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	plus := make([]int, MaxBulkTogglePLUs+1)
	for i := range plus {
		plus[i] = MinPLU + i
	}

	err := svc.BulkToggle(context.Background(), "user-1", BulkToggleRequest{
		PLUs:     plus,
		Interest: models.InterestNotInterested,
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestServiceBulkToggleValidatesEveryPLU(t *testing.T) {
	prefRepo := newFakePrefRepo()
	svc := newTestService(catalogWithDefaults(), prefRepo, nil, nil)

	err := svc.BulkToggle(context.Background(), "user-1", BulkToggleRequest{
		PLUs:     []int{20001, 999},
		Interest: models.InterestNotInterested,
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	assert.Empty(t, prefRepo.bulkCalls, "no writes when any plu is invalid")
}

func TestServiceImportCountsSkips(t *testing.T) {
	prefRepo := newFakePrefRepo()
	svc := newTestService(catalogWithDefaults(), prefRepo, nil, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})
	require.NoError(t, err)

	result, err := svc.Import(context.Background(), "user-1", []*models.Preference{
		{PLU: 20001, Interest: models.InterestInterested},                          // already present
		{PLU: 30001, Interest: models.InterestInterested, CustomName: "Stagg Jr"}, // new
		{PLU: 999, Interest: models.InterestInterested},                           // invalid plu
		{PLU: 30002, Interest: "maybe"},                                           // invalid marker
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 3, result.Skipped)
}

func TestServiceResetDeactivatesAndReportsCount(t *testing.T) {
	prefRepo := newFakePrefRepo()
	svc := newTestService(catalogWithDefaults(), prefRepo, nil, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "user-1", AddRequest{PLU: 30001, Interest: models.InterestInterested, CustomName: "Stagg Jr"})
	require.NoError(t, err)

	count, err := svc.Reset(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	entries, err := svc.Resolve(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "back to the shared defaults")
	for _, entry := range entries {
		assert.Equal(t, models.SourceDefault, entry.Source)
	}
}

func TestServiceListUsesCache(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, cache)

	first, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.setCount, "miss populates the cache")

	second, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.setCount, "hit does not rewrite the cache")
	assert.Equal(t, first, second)
}

func TestServiceMutationsInvalidateCache(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, cache)

	_, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})
	require.NoError(t, err)

	require.Len(t, cache.deleted, 1)
	assert.Equal(t, "*:user-1", cache.deleted[0])

	entries, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rebuilt view reflects the exclusion")
}

func TestServiceCatalogViewToggleState(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "user-1", AddRequest{PLU: 30001, Interest: models.InterestInterested, CustomName: "Stagg Jr"})
	require.NoError(t, err)

	view, err := svc.Catalog(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, view.Products, 2)
	for _, entry := range view.Products {
		switch entry.PLU {
		case 20001:
			assert.False(t, entry.IsWatching)
		case 20002:
			assert.True(t, entry.IsWatching)
		}
	}

	require.Len(t, view.Custom, 1)
	assert.Equal(t, 30001, view.Custom[0].PLU)
	assert.Equal(t, "Stagg Jr", view.Custom[0].Name)

	assert.Equal(t, 1, view.TierCounts[models.TierAllocation])
	assert.Equal(t, 1, view.TierCounts[models.TierLimited])
}

func TestServiceSearchRequiresQuery(t *testing.T) {
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), nil, nil)

	_, err := svc.Search(context.Background(), "")

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestServiceMutationsAreAudited(t *testing.T) {
	audit := &fakeAuditSink{}
	svc := newTestService(catalogWithDefaults(), newFakePrefRepo(), audit, nil)

	_, err := svc.Add(context.Background(), "user-1", AddRequest{PLU: 20001, Interest: models.InterestNotInterested})
	require.NoError(t, err)
	require.NoError(t, svc.Remove(context.Background(), "user-1", 20001))

	require.Len(t, audit.entries, 2)
	assert.Equal(t, models.AuditActionAdd, audit.entries[0].Action)
	assert.Equal(t, models.AuditActionRemove, audit.entries[1].Action)
	assert.Equal(t, "user-1", audit.entries[0].UserID)
}
