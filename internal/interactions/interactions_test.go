package interactions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kind-match/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type pair struct {
	userID    int64
	listingID string
}

type memRepo struct {
	mu    sync.Mutex
	items map[pair]*models.Interaction
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[pair]*models.Interaction)}
}

func (m *memRepo) HasInteraction(_ context.Context, userID int64, listingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.items[pair{userID, listingID}]
	return ok, nil
}

func (m *memRepo) InsertInteraction(_ context.Context, i *models.Interaction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pair{i.UserID, i.ListingID}
	if _, ok := m.items[key]; ok {
		return false, nil
	}
	cp := *i
	m.items[key] = &cp
	return true, nil
}

func (m *memRepo) DeleteMostRecentInteraction(_ context.Context, userID int64) (*models.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var newest *models.Interaction
	for k, i := range m.items {
		if k.userID != userID {
			continue
		}
		if newest == nil || i.CreatedAt.After(newest.CreatedAt) {
			newest = i
		}
	}
	if newest == nil {
		return nil, nil
	}
	delete(m.items, pair{newest.UserID, newest.ListingID})
	return newest, nil
}

func (m *memRepo) DeleteInteraction(_ context.Context, interactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, i := range m.items {
		if i.ID == interactionID {
			delete(m.items, k)
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ListInteractedListingIDs(_ context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for k := range m.items {
		if k.userID == userID {
			ids = append(ids, k.listingID)
		}
	}
	return ids, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newRecorder(repo Repository) *Recorder {
	r := New(repo, zap.NewNop())
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r.now = c.now
	return r
}

func TestRecordIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemRepo()
	rec := newRecorder(repo)

	first, err := rec.Record(ctx, 1, "l-1", models.ActionApply)
	if err != nil || !first.Recorded || first.InteractionID == "" {
		t.Fatalf("unexpected first result %+v, err %v", first, err)
	}

	second, err := rec.Record(ctx, 1, "l-1", models.ActionSkip)
	if err != nil {
		t.Fatalf("duplicate record must not fail: %v", err)
	}
	if second.Recorded || second.InteractionID != "" {
		t.Fatalf("expected no-op result, got %+v", second)
	}

	if repo.count() != 1 {
		t.Fatalf("expected 1 interaction, got %d", repo.count())
	}

	ok, err := rec.HasInteracted(ctx, 1, "l-1")
	if err != nil || !ok {
		t.Fatalf("expected interaction to exist, got %v, %v", ok, err)
	}
}

func TestRecordConcurrentDuplicates(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	rec := New(repo, zap.NewNop())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		recorded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := rec.Record(context.Background(), 5, "l-9", models.ActionApply)
			if err == nil && res.Recorded {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if recorded != 1 || repo.count() != 1 {
		t.Fatalf("expected exactly one recorded interaction, got %d (rows %d)", recorded, repo.count())
	}
}

func TestRecordValidation(t *testing.T) {
	t.Parallel()

	rec := newRecorder(newMemRepo())

	if _, err := rec.Record(context.Background(), 1, "l-1", "superlike"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown action, got %v", err)
	}
	if _, err := rec.Record(context.Background(), 1, "", models.ActionSkip); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty listing, got %v", err)
	}
}

func TestRewindMostRecentIsGlobalAndScopedToUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemRepo()
	rec := newRecorder(repo)

	for _, step := range []struct {
		user    int64
		listing string
	}{
		{1, "a"}, {1, "b"}, {2, "c"}, {1, "d"}, {2, "e"},
	} {
		if _, err := rec.Record(ctx, step.user, step.listing, models.ActionSkip); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	res, err := rec.RewindMostRecent(ctx, 1)
	if err != nil {
		t.Fatalf("rewind: %v", err)
	}
	if res.ListingID != "d" {
		t.Fatalf("expected listing d to be freed, got %s", res.ListingID)
	}

	if ok, _ := rec.HasInteracted(ctx, 2, "e"); !ok {
		t.Fatalf("another user's interaction must not be removed")
	}
	if repo.count() != 4 {
		t.Fatalf("expected 4 interactions left, got %d", repo.count())
	}

	res, err = rec.RewindMostRecent(ctx, 1)
	if err != nil || res.ListingID != "b" {
		t.Fatalf("expected b next, got %+v, %v", res, err)
	}
}

func TestRewindWithoutInteractions(t *testing.T) {
	t.Parallel()

	rec := newRecorder(newMemRepo())

	if _, err := rec.RewindMostRecent(context.Background(), 3); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordLogsNoop(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)
	rec := New(newMemRepo(), zap.New(core))

	ctx := context.Background()
	_, _ = rec.Record(ctx, 1, "l-1", models.ActionApply)
	_, _ = rec.Record(ctx, 1, "l-1", models.ActionApply)

	if n := observed.FilterMessage("interaction already recorded").Len(); n != 1 {
		t.Fatalf("expected one no-op log entry, got %d", n)
	}
	if n := observed.FilterMessage("interaction recorded").Len(); n != 1 {
		t.Fatalf("expected one recorded log entry, got %d", n)
	}
}

func TestForgetRemovesOnlyThatInteraction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemRepo()
	rec := newRecorder(repo)

	kept, err := rec.Record(ctx, 1, "a", models.ActionSkip)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	dropped, err := rec.Record(ctx, 1, "b", models.ActionApply)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := rec.Forget(ctx, dropped.InteractionID); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if err := rec.Forget(ctx, dropped.InteractionID); err != nil {
		t.Fatalf("forgetting twice must not fail: %v", err)
	}

	if ok, _ := rec.HasInteracted(ctx, 1, "b"); ok {
		t.Fatal("forgotten interaction still present")
	}
	if ok, _ := rec.HasInteracted(ctx, 1, "a"); !ok || kept.InteractionID == "" {
		t.Fatal("unrelated interaction was removed")
	}
	if repo.count() != 1 {
		t.Fatalf("expected 1 interaction, got %d", repo.count())
	}
}
