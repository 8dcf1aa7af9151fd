package watchlist

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/rye/internal/repositories/catalog"
	"github.com/Ramsey-B/rye/internal/repositories/preference"
	appctx "github.com/Ramsey-B/rye/pkg/context"
	"github.com/Ramsey-B/rye/pkg/metrics"
	"github.com/Ramsey-B/rye/pkg/models"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

// MaxBulkTogglePLUs caps how many PLUs one bulk toggle may touch.
const MaxBulkTogglePLUs = 50

// SearchLimit caps catalog search results.
const SearchLimit = 20

// AuditSink records watchlist mutations. Failures must not fail the mutation.
type AuditSink interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// ViewCache caches rendered watchlist views. A nil cache disables caching.
type ViewCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// Config holds watchlist service settings
type Config struct {
	WatchlistTTL time.Duration
	CatalogTTL   time.Duration
}

// Service resolves effective watchlists and applies preference mutations
type Service struct {
	catalogRepo catalog.CatalogRepository
	prefRepo    preference.PreferenceRepository
	auditSink   AuditSink
	cache       ViewCache
	config      Config
	logger      ectologger.Logger
}

// NewService creates a new watchlist service
func NewService(
	catalogRepo catalog.CatalogRepository,
	prefRepo preference.PreferenceRepository,
	auditSink AuditSink,
	cache ViewCache,
	config Config,
	logger ectologger.Logger,
) *Service {
	if config.WatchlistTTL <= 0 {
		config.WatchlistTTL = time.Hour
	}
	if config.CatalogTTL <= 0 {
		config.CatalogTTL = 30 * time.Minute
	}
	return &Service{
		catalogRepo: catalogRepo,
		prefRepo:    prefRepo,
		auditSink:   auditSink,
		cache:       cache,
		config:      config,
		logger:      logger,
	}
}

// Resolve computes the user's effective watchlist without caching. The
// notifier uses this path so a batch run always sees current preferences.
func (s *Service) Resolve(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.Resolve")
	defer span.End()

	defaults, err := s.catalogRepo.ListByTiers(ctx, models.TrackedTiers())
	if err != nil {
		return nil, err
	}

	prefs, err := s.prefRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	return Combine(defaults, prefs), nil
}

// List returns the user's effective watchlist, served from the view cache
// when possible
func (s *Service) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.List")
	defer span.End()

	key := "active:" + userID
	if s.cache != nil {
		var cached []models.WatchlistEntry
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			metrics.RecordCacheRequest("watchlist", "hit")
			return cached, nil
		}
		metrics.RecordCacheRequest("watchlist", "miss")
	}

	entries, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, entries, s.config.WatchlistTTL); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to cache watchlist view")
		}
	}

	return entries, nil
}

// CatalogView is the catalog browse response: every default-tracked product
// with the caller's toggle state, plus the caller's custom items.
type CatalogView struct {
	Products   []models.CatalogEntry   `json:"products"`
	Custom     []models.WatchlistEntry `json:"custom"`
	TierCounts map[string]int          `json:"tier_counts"`
}

// Catalog returns the catalog browse view for a user
func (s *Service) Catalog(ctx context.Context, userID string) (*CatalogView, error) {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.Catalog")
	defer span.End()

	key := "catalog:" + userID
	if s.cache != nil {
		var cached CatalogView
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			metrics.RecordCacheRequest("catalog", "hit")
			return &cached, nil
		}
		metrics.RecordCacheRequest("catalog", "miss")
	}

	defaults, err := s.catalogRepo.ListByTiers(ctx, models.TrackedTiers())
	if err != nil {
		return nil, err
	}

	prefs, err := s.prefRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefsByPLU := make(map[int]*models.Preference, len(prefs))
	for _, pref := range prefs {
		prefsByPLU[pref.PLU] = pref
	}

	defaultPLUs := make(map[int]bool, len(defaults))
	for _, product := range defaults {
		defaultPLUs[product.PLU] = true
	}

	view := &CatalogView{
		Products:   make([]models.CatalogEntry, 0, len(defaults)),
		TierCounts: make(map[string]int),
	}

	for _, product := range defaults {
		view.TierCounts[product.Tier]++
		entry := models.CatalogEntry{
			Product:    *product,
			IsWatching: true,
			CanToggle:  true,
		}
		if pref, ok := prefsByPLU[product.PLU]; ok {
			entry.WatchID = pref.WatchID
			entry.IsWatching = pref.Interest != models.InterestNotInterested
		}
		view.Products = append(view.Products, entry)
	}

	for _, pref := range prefs {
		if pref.Interest != models.InterestInterested {
			continue
		}
		if defaultPLUs[pref.PLU] {
			continue
		}

		name := pref.CustomName
		if name == "" {
			name = FallbackName(pref.PLU)
		}
		view.Custom = append(view.Custom, models.WatchlistEntry{
			PLU:         pref.PLU,
			Name:        name,
			Source:      models.SourceCustom,
			RetailPrice: pref.CustomPrice,
			SizeML:      pref.CustomSizeML,
			WatchID:     pref.WatchID,
			NotifyEmail: pref.NotifyEmail,
			NotifyText:  pref.NotifyText,
		})
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, view, s.config.CatalogTTL); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to cache catalog view")
		}
	}

	return view, nil
}

// Search finds catalog items by brand name or PLU substring
func (s *Service) Search(ctx context.Context, query string) ([]*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.Search")
	defer span.End()

	if query == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	return s.catalogRepo.Search(ctx, query, SearchLimit)
}

// AddRequest is the payload for adding a watchlist preference
type AddRequest struct {
	PLU          int                 `json:"plu" validate:"required"`
	Interest     models.InterestType `json:"interest_type" validate:"required"`
	CustomName   string              `json:"custom_name,omitempty"`
	CustomPrice  float64             `json:"custom_price,omitempty" validate:"omitempty,gte=0"`
	CustomSizeML int                 `json:"custom_size_ml,omitempty" validate:"omitempty,gte=0"`
	NotifyEmail  *bool               `json:"notify_email,omitempty"`
	NotifyText   *bool               `json:"notify_text,omitempty"`
}

// Add places a marker on a PLU for the user. Adding a PLU that already has
// an active preference with the same marker is a conflict.
func (s *Service) Add(ctx context.Context, userID string, req AddRequest) (*models.Preference, error) {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.Add")
	defer span.End()

	if err := ValidatePLU(req.PLU); err != nil {
		return nil, err
	}
	if !req.Interest.Valid() {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "interest_type must be interested or not_interested")
	}
	if len(req.CustomName) > MaxCustomNameLength {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "custom_name must be at most %d characters", MaxCustomNameLength)
	}

	inCatalog, err := s.catalogRepo.ExistingPLUs(ctx, []int{req.PLU})
	if err != nil {
		return nil, err
	}
	if !inCatalog[req.PLU] && req.Interest == models.InterestInterested && req.CustomName == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "custom_name is required for products not in the catalog")
	}

	existing, err := s.prefRepo.Get(ctx, userID, req.PLU)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil && existing.Interest == req.Interest {
		return nil, httperror.NewHTTPError(http.StatusConflict, "preference already exists for this product")
	}

	notifyEmail := true
	if req.NotifyEmail != nil {
		notifyEmail = *req.NotifyEmail
	}
	notifyText := false
	if req.NotifyText != nil {
		notifyText = *req.NotifyText
	}

	pref, err := s.prefRepo.Upsert(ctx, &models.Preference{
		UserID:       userID,
		PLU:          req.PLU,
		Interest:     req.Interest,
		CustomName:   req.CustomName,
		CustomPrice:  req.CustomPrice,
		CustomSizeML: req.CustomSizeML,
		NotifyEmail:  notifyEmail,
		NotifyText:   notifyText,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, userID, models.AuditActionAdd, req.PLU, map[string]any{
		"interest_type": req.Interest,
		"custom_name":   req.CustomName,
	})
	s.invalidate(ctx, userID)

	return pref, nil
}

// UpdateRequest is the payload for updating a watchlist preference
type UpdateRequest struct {
	CustomName   string  `json:"custom_name,omitempty"`
	CustomPrice  float64 `json:"custom_price,omitempty" validate:"omitempty,gte=0"`
	CustomSizeML int     `json:"custom_size_ml,omitempty" validate:"omitempty,gte=0"`
	NotifyEmail  bool    `json:"notify_email"`
	NotifyText   bool    `json:"notify_text"`
}

// Update mutates custom fields and notify flags on an owned preference
func (s *Service) Update(ctx context.Context, userID string, watchID int64, req UpdateRequest) (*models.Preference, error) {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.Update")
	defer span.End()

	if len(req.CustomName) > MaxCustomNameLength {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "custom_name must be at most %d characters", MaxCustomNameLength)
	}

	pref, err := s.prefRepo.Update(ctx, userID, watchID, &models.Preference{
		CustomName:   req.CustomName,
		CustomPrice:  req.CustomPrice,
		CustomSizeML: req.CustomSizeML,
		NotifyEmail:  req.NotifyEmail,
		NotifyText:   req.NotifyText,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, userID, models.AuditActionUpdate, pref.PLU, map[string]any{
		"watch_id": watchID,
	})
	s.invalidate(ctx, userID)

	return pref, nil
}

// Remove soft deletes the user's preference on a PLU
func (s *Service) Remove(ctx context.Context, userID string, plu int) error {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.Remove")
	defer span.End()

	if err := ValidatePLU(plu); err != nil {
		return err
	}

	if err := s.prefRepo.Remove(ctx, userID, plu); err != nil {
		return err
	}

	s.audit(ctx, userID, models.AuditActionRemove, plu, nil)
	s.invalidate(ctx, userID)

	return nil
}

// BulkToggleRequest is the payload for a bulk marker toggle
type BulkToggleRequest struct {
	PLUs     []int               `json:"plus" validate:"required,min=1"`
	Interest models.InterestType `json:"interest_type" validate:"required"`
}

// BulkToggle applies the same marker to up to MaxBulkTogglePLUs PLUs at once
func (s *Service) BulkToggle(ctx context.Context, userID string, req BulkToggleRequest) error {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.BulkToggle")
	defer span.End()

	if len(req.PLUs) > MaxBulkTogglePLUs {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "at most %d plus per bulk toggle", MaxBulkTogglePLUs)
	}
	if !req.Interest.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "interest_type must be interested or not_interested")
	}
	for _, plu := range req.PLUs {
		if err := ValidatePLU(plu); err != nil {
			return err
		}
	}

	if err := s.prefRepo.BulkSetInterest(ctx, userID, req.PLUs, req.Interest); err != nil {
		return err
	}

	s.audit(ctx, userID, models.AuditActionBulkToggle, 0, map[string]any{
		"plus":          req.PLUs,
		"interest_type": req.Interest,
	})
	s.invalidate(ctx, userID)

	return nil
}

// ExportSnapshot is a portable dump of a user's active preferences
type ExportSnapshot struct {
	ExportedAt  time.Time            `json:"exported_at"`
	Preferences []*models.Preference `json:"preferences"`
}

// Export returns the user's active preferences as a snapshot
func (s *Service) Export(ctx context.Context, userID string) (*ExportSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.Export")
	defer span.End()

	prefs, err := s.prefRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ExportSnapshot{
		ExportedAt:  time.Now().UTC(),
		Preferences: prefs,
	}, nil
}

// ImportResult reports the outcome of an import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import inserts preferences from a snapshot, skipping PLUs the user already
// has a preference for
func (s *Service) Import(ctx context.Context, userID string, prefs []*models.Preference) (*ImportResult, error) {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.Import")
	defer span.End()

	result := &ImportResult{}
	for _, pref := range prefs {
		if err := ValidatePLU(pref.PLU); err != nil {
			result.Skipped++
			continue
		}
		if !pref.Interest.Valid() || len(pref.CustomName) > MaxCustomNameLength {
			result.Skipped++
			continue
		}

		inserted, err := s.prefRepo.InsertIfAbsent(ctx, &models.Preference{
			UserID:       userID,
			PLU:          pref.PLU,
			Interest:     pref.Interest,
			CustomName:   pref.CustomName,
			CustomPrice:  pref.CustomPrice,
			CustomSizeML: pref.CustomSizeML,
			NotifyEmail:  pref.NotifyEmail,
			NotifyText:   pref.NotifyText,
		})
		if err != nil {
			return nil, err
		}
		if inserted {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	s.audit(ctx, userID, models.AuditActionImport, 0, map[string]any{
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
	s.invalidate(ctx, userID)

	return result, nil
}

// Reset deactivates every preference for the user, returning them to the
// shared defaults
func (s *Service) Reset(ctx context.Context, userID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "WatchlistService.Reset")
	defer span.End()

	count, err := s.prefRepo.DeactivateAll(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.audit(ctx, userID, models.AuditActionReset, 0, map[string]any{
		"deactivated": count,
	})
	s.invalidate(ctx, userID)

	return count, nil
}

func isNotFound(err error) bool {
	return httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound
}

func (s *Service) audit(ctx context.Context, userID, action string, plu int, details map[string]any) {
	if s.auditSink == nil {
		return
	}

	_ = s.auditSink.Append(ctx, &models.AuditEntry{
		UserID:    userID,
		Action:    action,
		PLU:       plu,
		Details:   details,
		IPAddress: appctx.GetRemoteIP(ctx),
		UserAgent: appctx.GetUserAgent(ctx),
	})
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}

	if _, err := s.cache.DeletePattern(ctx, "*:"+userID); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to invalidate watchlist cache")
	}
}
