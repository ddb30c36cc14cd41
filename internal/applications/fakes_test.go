package applications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"kind-match/internal/matches"
	"kind-match/internal/models"
)

type memRepo struct {
	mu      sync.Mutex
	apps    map[string]*models.Application
	matched map[string]bool
	// failRevert makes approved -> pending transitions fail.
	failRevert bool
}

func newMemRepo() *memRepo {
	return &memRepo{apps: make(map[string]*models.Application), matched: make(map[string]bool)}
}

func (m *memRepo) InsertApplication(_ context.Context, app *models.Application) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.apps {
		if existing.ListingID == app.ListingID && existing.WorkerID == app.WorkerID {
			return false, nil
		}
	}
	cp := *app
	m.apps[app.ID] = &cp
	return true, nil
}

func (m *memRepo) GetApplication(_ context.Context, id string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return nil, nil
	}
	cp := *app
	return &cp, nil
}

func (m *memRepo) TransitionApplication(_ context.Context, id string, from, to models.ApplicationStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failRevert && from == models.ApplicationApproved {
		return false, errors.New("connection reset")
	}

	app, ok := m.apps[id]
	if !ok || app.Status != from {
		return false, nil
	}
	app.Status = to
	app.UpdatedAt = at
	return true, nil
}

func (m *memRepo) ListPendingApplications(_ context.Context, listingIDs []string) ([]models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool)
	for _, id := range listingIDs {
		wanted[id] = true
	}

	var out []models.Application
	for _, app := range m.apps {
		if wanted[app.ListingID] && app.Status == models.ApplicationPending {
			out = append(out, *app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) ListApprovedWithoutMatch(_ context.Context, before time.Time, limit int) ([]models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Application
	for _, app := range m.apps {
		if app.Status == models.ApplicationApproved && !m.matched[app.ID] && app.UpdatedAt.Before(before) {
			out = append(out, *app)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) count(listingID string, workerID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, app := range m.apps {
		if app.ListingID == listingID && app.WorkerID == workerID {
			n++
		}
	}
	return n
}

func (m *memRepo) status(id string) models.ApplicationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apps[id].Status
}

type memListings map[string]*models.Listing

func (m memListings) GetByID(_ context.Context, id string) (*models.Listing, error) {
	return m[id], nil
}

func (m memListings) ListActiveByOwner(_ context.Context, employerID int64) ([]*models.Listing, error) {
	var out []*models.Listing
	for _, l := range m {
		if l.EmployerID == employerID && l.Status == models.ListingActive {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memProfiles struct {
	users    map[int64]*models.User
	profiles map[int64]*models.WorkerProfile
	history  map[int64][]models.WorkHistory
	brokenID int64
}

func (m *memProfiles) GetUser(_ context.Context, id int64) (*models.User, error) {
	if id == m.brokenID {
		return nil, errors.New("profile store unavailable")
	}
	return m.users[id], nil
}

func (m *memProfiles) GetWorkerProfile(_ context.Context, id int64) (*models.WorkerProfile, error) {
	if id == m.brokenID {
		return nil, errors.New("profile store unavailable")
	}
	return m.profiles[id], nil
}

func (m *memProfiles) GetWorkHistory(_ context.Context, id int64) ([]models.WorkHistory, error) {
	if id == m.brokenID {
		return nil, errors.New("profile store unavailable")
	}
	return m.history[id], nil
}

type fakeMatches struct {
	mu      sync.Mutex
	repo    *memRepo
	byKey   map[string]*models.Match
	fail    bool
	created int
	// concurrentWin stores the match even when fail is set, as if another
	// approval of the same application created it first.
	concurrentWin bool
}

func (f *fakeMatches) Find(_ context.Context, listingID string, employerID, workerID int64) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byKey[fmt.Sprintf("%s/%d/%d", listingID, employerID, workerID)], nil
}

func (f *fakeMatches) CreateMatch(_ context.Context, listingID string, employerID, workerID int64) (matches.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.byKey == nil {
		f.byKey = make(map[string]*models.Match)
	}
	key := fmt.Sprintf("%s/%d/%d", listingID, employerID, workerID)

	if f.fail {
		if f.concurrentWin {
			f.byKey[key] = &models.Match{ID: "m-" + listingID, ListingID: listingID, EmployerID: employerID, WorkerID: workerID}
		}
		return matches.CreateResult{}, errors.New("matches table locked")
	}

	if m, ok := f.byKey[key]; ok {
		return matches.CreateResult{Match: m}, nil
	}

	m := &models.Match{
		ID:         "m-" + listingID,
		ListingID:  listingID,
		EmployerID: employerID,
		WorkerID:   workerID,
	}
	f.byKey[key] = m
	f.created++

	if f.repo != nil {
		f.repo.mu.Lock()
		for _, app := range f.repo.apps {
			if app.ListingID == listingID && app.WorkerID == workerID {
				f.repo.matched[app.ID] = true
			}
		}
		f.repo.mu.Unlock()
	}

	return matches.CreateResult{Match: m, Created: true}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
	users  []int64
}

func (n *recordingNotifier) Notify(_ context.Context, userID int64, event models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	n.events = append(n.events, event)
}
