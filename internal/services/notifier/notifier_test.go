package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

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

type fakeUserRepo struct {
	users []*models.User
}

func (f *fakeUserRepo) ListNotifiable(ctx context.Context, frequency string) ([]*models.User, error) {
	return f.users, nil
}

type fakeWatermarkRepo struct {
	mu       sync.Mutex
	marks    map[string]map[int]*models.Watermark
	advances []string
}

func newFakeWatermarkRepo() *fakeWatermarkRepo {
	return &fakeWatermarkRepo{marks: make(map[string]map[int]*models.Watermark)}
}

func (f *fakeWatermarkRepo) ListByUser(ctx context.Context, userID string) (map[int]*models.Watermark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[int]*models.Watermark)
	for plu, mark := range f.marks[userID] {
		result[plu] = mark
	}
	return result, nil
}

func (f *fakeWatermarkRepo) Advance(ctx context.Context, userID string, plu int, notifiedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marks[userID] == nil {
		f.marks[userID] = make(map[int]*models.Watermark)
	}
	mark := f.marks[userID][plu]
	if mark == nil {
		mark = &models.Watermark{UserID: userID, PLU: plu}
		f.marks[userID][plu] = mark
	}
	mark.LastNotified = notifiedAt
	mark.NotificationCount++
	f.advances = append(f.advances, userID)
	return nil
}

func (f *fakeWatermarkRepo) advanceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.advances)
}

type fakeChangeFeed struct {
	events map[int][]*models.ChangeEvent
	since  map[int]time.Time
}

func newFakeChangeFeed() *fakeChangeFeed {
	return &fakeChangeFeed{
		events: make(map[int][]*models.ChangeEvent),
		since:  make(map[int]time.Time),
	}
}

func (f *fakeChangeFeed) ListSince(ctx context.Context, plu int, since time.Time, limit int) ([]*models.ChangeEvent, error) {
	f.since[plu] = since
	var result []*models.ChangeEvent
	for _, event := range f.events[plu] {
		if event.CheckTime.After(since) {
			result = append(result, event)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

type fakeStoreRepo struct {
	stores []*models.Store
}

func (f *fakeStoreRepo) List(ctx context.Context, region string) ([]*models.Store, error) {
	return f.stores, nil
}

type fakeResolver struct {
	entries map[string][]models.WatchlistEntry
	err     error
}

func (f *fakeResolver) Resolve(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[userID], nil
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []sentEmail
	fail  bool
	block chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if f.block != nil {
		<-f.block
	}
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type testFixture struct {
	users      *fakeUserRepo
	watermarks *fakeWatermarkRepo
	changes    *fakeChangeFeed
	stores     *fakeStoreRepo
	resolver   *fakeResolver
	sender     *fakeSender
	notifier   *Notifier
}

func newFixture() *testFixture {
	f := &testFixture{
		users:      &fakeUserRepo{},
		watermarks: newFakeWatermarkRepo(),
		changes:    newFakeChangeFeed(),
		stores:     &fakeStoreRepo{},
		resolver:   &fakeResolver{entries: make(map[string][]models.WatchlistEntry)},
		sender:     &fakeSender{},
	}
	f.notifier = NewNotifier(f.users, f.watermarks, f.changes, f.stores, f.resolver, f.sender, Config{
		FrontendURL: "http://localhost:5173",
	}, getTestLogger())
	return f
}

func (f *testFixture) addUser(id, email string) {
	f.users.users = append(f.users.users, &models.User{
		ID:              id,
		Email:           email,
		NotifyEmail:     true,
		NotifyFrequency: models.FrequencyHourly,
		Status:          "active",
	})
}

func TestRunSendsDigestAndAdvancesAllWatchedPLUs(t *testing.T) {
	f := newFixture()
	f.addUser("user-1", "u1@example.com")
	f.resolver.entries["user-1"] = []models.WatchlistEntry{
		{PLU: 20001, Name: "Blanton's"},
		{PLU: 20002, Name: "Weller 12"},
	}
	// only one of the two watched products has activity
	f.changes.events[20001] = []*models.ChangeEvent{
		{PLU: 20001, StoreID: 5, CheckTime: time.Now().UTC(), OldQty: 0, NewQty: 6, ChangeType: models.ChangeTypeFirst},
	}

	require.NoError(t, f.notifier.Run(context.Background()))

	require.Equal(t, 1, f.sender.sentCount())
	assert.Equal(t, "u1@example.com", f.sender.sent[0].to)
	assert.Equal(t, "Watchlist Update - 1 Product", f.sender.sent[0].subject)

	// the quiet PLU moves forward too so it is not re-reported later
	assert.Equal(t, 2, f.watermarks.advanceCount())
	assert.Equal(t, 1, f.watermarks.marks["user-1"][20001].NotificationCount)
	assert.Equal(t, 1, f.watermarks.marks["user-1"][20002].NotificationCount)
}

func TestRunNoEventsSendsNothingAndHoldsWatermarks(t *testing.T) {
	f := newFixture()
	f.addUser("user-1", "u1@example.com")
	f.resolver.entries["user-1"] = []models.WatchlistEntry{
		{PLU: 20001, Name: "Blanton's"},
	}

	require.NoError(t, f.notifier.Run(context.Background()))

	assert.Equal(t, 0, f.sender.sentCount())
	assert.Equal(t, 0, f.watermarks.advanceCount())
}

func TestRunEmptyWatchlistSkipsUser(t *testing.T) {
	f := newFixture()
	f.addUser("user-1", "u1@example.com")

	require.NoError(t, f.notifier.Run(context.Background()))

	assert.Equal(t, 0, f.sender.sentCount())
}

func TestRunSendFailureHoldsWatermarks(t *testing.T) {
	f := newFixture()
	f.addUser("user-1", "u1@example.com")
	f.resolver.entries["user-1"] = []models.WatchlistEntry{
		{PLU: 20001, Name: "Blanton's"},
	}
	f.changes.events[20001] = []*models.ChangeEvent{
		{PLU: 20001, StoreID: 5, CheckTime: time.Now().UTC(), NewQty: 6, ChangeType: models.ChangeTypeFirst},
	}
	f.sender.fail = true

	require.NoError(t, f.notifier.Run(context.Background()), "one user's failure never fails the run")

	assert.Equal(t, 0, f.watermarks.advanceCount(), "an unsent digest must be retried next run")
}

func TestRunOneUserFailureDoesNotAbortOthers(t *testing.T) {
	f := newFixture()
	f.addUser("user-1", "u1@example.com")
	f.addUser("user-2", "u2@example.com")
	// user-1 resolves to nothing, user-2 has activity
	f.resolver.entries["user-2"] = []models.WatchlistEntry{
		{PLU: 20001, Name: "Blanton's"},
	}
	f.changes.events[20001] = []*models.ChangeEvent{
		{PLU: 20001, StoreID: 5, CheckTime: time.Now().UTC(), NewQty: 6, ChangeType: models.ChangeTypeFirst},
	}

	require.NoError(t, f.notifier.Run(context.Background()))

	require.Equal(t, 1, f.sender.sentCount())
	assert.Equal(t, "u2@example.com", f.sender.sent[0].to)
}

func TestRunUsesWatermarkAsSinceFilter(t *testing.T) {
	f := newFixture()
	f.addUser("user-1", "u1@example.com")
	f.resolver.entries["user-1"] = []models.WatchlistEntry{
		{PLU: 20001, Name: "Blanton's"},
		{PLU: 20002, Name: "Weller 12"},
	}

	lastNotified := time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, f.watermarks.Advance(context.Background(), "user-1", 20001, lastNotified))
	f.watermarks.advances = nil

	require.NoError(t, f.notifier.Run(context.Background()))

	assert.Equal(t, lastNotified, f.changes.since[20001], "recorded watermark bounds the query")

	// no watermark falls back to the lookback window
	defaultSince := f.changes.since[20002]
	assert.WithinDuration(t, time.Now().UTC().Add(-DefaultLookback), defaultSince, 5*time.Second)
}

func TestRunSecondCallWhileRunningReturnsErrRunInProgress(t *testing.T) {
	f := newFixture()
	f.addUser("user-1", "u1@example.com")
	f.resolver.entries["user-1"] = []models.WatchlistEntry{
		{PLU: 20001, Name: "Blanton's"},
	}
	f.changes.events[20001] = []*models.ChangeEvent{
		{PLU: 20001, StoreID: 5, CheckTime: time.Now().UTC(), NewQty: 6, ChangeType: models.ChangeTypeFirst},
	}
	f.sender.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- f.notifier.Run(context.Background())
	}()

	// wait until the first run is inside the send
	require.Eventually(t, f.notifier.IsRunning, time.Second, 5*time.Millisecond)

	err := f.notifier.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(f.sender.block)
	require.NoError(t, <-done)

	// the guard clears once the run finishes
	require.Eventually(t, func() bool { return !f.notifier.IsRunning() }, time.Second, 5*time.Millisecond)
	require.NoError(t, f.notifier.Run(context.Background()))
}

func TestRunDigestBodyContainsStoreAndChange(t *testing.T) {
	f := newFixture()
	f.addUser("user-1", "u1@example.com")
	f.stores.stores = []*models.Store{
		{StoreID: 5, StoreNumber: "214", Nickname: "Downtown"},
	}
	f.resolver.entries["user-1"] = []models.WatchlistEntry{
		{PLU: 20001, Name: "Blanton's"},
	}
	f.changes.events[20001] = []*models.ChangeEvent{
		{PLU: 20001, StoreID: 5, CheckTime: time.Now().UTC(), OldQty: 2, NewQty: 8, ChangeType: models.ChangeTypeUp},
	}

	require.NoError(t, f.notifier.Run(context.Background()))

	require.Equal(t, 1, f.sender.sentCount())
	body := f.sender.sent[0].body
	assert.Contains(t, body, "Blanton&#39;s")
	assert.Contains(t, body, "Downtown")
	// the template escapes "+" to its entity in text context
	assert.Contains(t, body, "Inventory increased from 2 to 8 (&#43;6 bottles)")
	assert.Contains(t, body, "http://localhost:5173/watchlist")
}
