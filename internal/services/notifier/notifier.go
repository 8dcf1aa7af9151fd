package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/rye/internal/repositories/changefeed"
	"github.com/Ramsey-B/rye/internal/repositories/store"
	"github.com/Ramsey-B/rye/internal/repositories/user"
	"github.com/Ramsey-B/rye/internal/repositories/watermark"
	"github.com/Ramsey-B/rye/pkg/email"
	"github.com/Ramsey-B/rye/pkg/metrics"
	"github.com/Ramsey-B/rye/pkg/models"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

// ErrRunInProgress is returned when a batch run is requested while another
// run is still active. Runs are never queued.
var ErrRunInProgress = errors.New("notification run already in progress")

const (
	// DefaultLookback is the watermark window for users with no recorded
	// watermark on a PLU
	DefaultLookback = time.Hour

	// DefaultMaxEventsPerProduct caps events reported per product per run
	DefaultMaxEventsPerProduct = 10
)

// WatchlistResolver resolves a user's effective watchlist
type WatchlistResolver interface {
	Resolve(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
}

// Config holds notifier settings
type Config struct {
	// Lookback window for PLUs without a watermark
	DefaultLookback time.Duration

	// Maximum change events reported per product per run
	MaxEventsPerProduct int

	// Base URL used in digest footer links
	FrontendURL string
}

// Notifier runs the notification batch: resolve each eligible user's
// watchlist, collect unseen change events, send one digest email, and
// advance the user's watermarks.
type Notifier struct {
	users      user.UserRepository
	watermarks watermark.WatermarkRepository
	changes    changefeed.ChangeFeedRepository
	stores     store.StoreRepository
	resolver   WatchlistResolver
	sender     email.Sender
	config     Config
	logger     ectologger.Logger

	mu      sync.Mutex
	running bool
}

// NewNotifier creates a new notifier
func NewNotifier(
	users user.UserRepository,
	watermarks watermark.WatermarkRepository,
	changes changefeed.ChangeFeedRepository,
	stores store.StoreRepository,
	resolver WatchlistResolver,
	sender email.Sender,
	config Config,
	logger ectologger.Logger,
) *Notifier {
	if config.DefaultLookback <= 0 {
		config.DefaultLookback = DefaultLookback
	}
	if config.MaxEventsPerProduct <= 0 {
		config.MaxEventsPerProduct = DefaultMaxEventsPerProduct
	}

	return &Notifier{
		users:      users,
		watermarks: watermarks,
		changes:    changes,
		stores:     stores,
		resolver:   resolver,
		sender:     sender,
		config:     config,
		logger:     logger,
	}
}

// IsRunning reports whether a batch run is active
func (n *Notifier) IsRunning() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// Run executes one notification batch. At most one run is active per
// process; a second call while running returns ErrRunInProgress.
func (n *Notifier) Run(ctx context.Context) error {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return ErrRunInProgress
	}
	n.running = true
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
	}()

	ctx, span := tracing.StartSpan(ctx, "Notifier.Run")
	defer span.End()

	start := time.Now()
	n.logger.WithContext(ctx).Info("Starting notification run")

	users, err := n.users.ListNotifiable(ctx, models.FrequencyHourly)
	if err != nil {
		n.logger.WithContext(ctx).WithError(err).Error("Failed to list notifiable users")
		metrics.RecordNotificationRun("failed", time.Since(start).Seconds())
		return err
	}

	if len(users) == 0 {
		n.logger.WithContext(ctx).Info("No notifiable users")
		metrics.RecordNotificationRun("empty", time.Since(start).Seconds())
		return nil
	}

	storeNames, err := n.storeNames(ctx)
	if err != nil {
		n.logger.WithContext(ctx).WithError(err).Error("Failed to load store directory")
		metrics.RecordNotificationRun("failed", time.Since(start).Seconds())
		return err
	}

	notified := 0
	skipped := 0
	failed := 0
	for _, u := range users {
		sent, err := n.processUser(ctx, u, storeNames)
		if err != nil {
			// one user's failure never aborts the batch
			n.logger.WithContext(ctx).WithError(err).WithField("user_id", u.ID).Error("Failed to process user")
			metrics.RecordUserProcessed("failed")
			failed++
			continue
		}
		if sent {
			metrics.RecordUserProcessed("notified")
			notified++
		} else {
			metrics.RecordUserProcessed("skipped")
			skipped++
		}
	}

	duration := time.Since(start)
	n.logger.WithContext(ctx).Infof("Notification run completed: notified=%d skipped=%d failed=%d duration=%s",
		notified, skipped, failed, duration)
	metrics.RecordNotificationRun("completed", duration.Seconds())

	return nil
}

// processUser handles one user's batch step. Returns whether a digest was
// sent. When no unseen events exist, nothing is sent and no watermark moves.
func (n *Notifier) processUser(ctx context.Context, u *models.User, storeNames map[int]string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "Notifier.processUser")
	defer span.End()

	entries, err := n.resolver.Resolve(ctx, u.ID)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, nil
	}

	marks, err := n.watermarks.ListByUser(ctx, u.ID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	digest := &models.Digest{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
	}

	for _, entry := range entries {
		since := now.Add(-n.config.DefaultLookback)
		if mark, ok := marks[entry.PLU]; ok {
			since = mark.LastNotified
		}

		events, err := n.changes.ListSince(ctx, entry.PLU, since, n.config.MaxEventsPerProduct)
		if err != nil {
			return false, err
		}
		if len(events) == 0 {
			continue
		}

		section := models.ProductDigest{
			PLU:  entry.PLU,
			Name: entry.Name,
		}
		for _, event := range events {
			section.Events = append(section.Events, *event)
		}
		digest.Products = append(digest.Products, section)
	}

	if len(digest.Products) == 0 {
		return false, nil
	}

	body, err := RenderDigest(digest, storeNames, n.config.FrontendURL)
	if err != nil {
		return false, err
	}

	if err := n.sender.Send(ctx, u.Email, Subject(len(digest.Products)), body); err != nil {
		metrics.RecordEmailSent("failed")
		return false, err
	}
	metrics.RecordEmailSent("sent")

	// The send succeeded, so every watched PLU moves forward, including
	// PLUs with no events this cycle.
	for _, entry := range entries {
		if err := n.watermarks.Advance(ctx, u.ID, entry.PLU, now); err != nil {
			n.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"user_id": u.ID,
				"plu":     entry.PLU,
			}).Error("Failed to advance watermark")
			continue
		}
		metrics.WatermarkAdvancesTotal.Inc()
	}

	n.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id":  u.ID,
		"products": len(digest.Products),
	}).Info("Sent watchlist digest")

	return true, nil
}

func (n *Notifier) storeNames(ctx context.Context) (map[int]string, error) {
	stores, err := n.stores.List(ctx, "")
	if err != nil {
		return nil, err
	}

	names := make(map[int]string, len(stores))
	for _, s := range stores {
		names[s.StoreID] = s.DisplayName()
	}
	return names, nil
}
