package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"kind-match/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	employerID int64 = 100
	otherOwner int64 = 200
	workerA    int64 = 1
	workerB    int64 = 2
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *memRepo
	listings  memListings
	profiles  *memProfiles
	matches   *fakeMatches
	notifier  *recordingNotifier
	lifecycle *Lifecycle
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemRepo()
	listings := memListings{
		"l-1": {ID: "l-1", EmployerID: employerID, Title: "Nanny", Status: models.ListingActive, JobType: "nanny"},
		"l-2": {ID: "l-2", EmployerID: employerID, Title: "Cook", Status: models.ListingActive, JobType: "cook"},
		"l-9": {ID: "l-9", EmployerID: otherOwner, Title: "Driver", Status: models.ListingActive, JobType: "driver"},
		"l-x": {ID: "l-x", EmployerID: employerID, Title: "Closed", Status: models.ListingInactive},
	}
	profiles := &memProfiles{
		users: map[int64]*models.User{
			employerID: {ID: employerID, Role: models.RoleEmployer},
			workerA:    {ID: workerA, Role: models.RoleWorker},
			workerB:    {ID: workerB, Role: models.RoleWorker},
		},
		profiles: map[int64]*models.WorkerProfile{
			workerA: {UserID: workerA, PreferredJobTypes: []string{"nanny"}},
			workerB: {UserID: workerB, PreferredJobTypes: []string{"cook"}},
		},
		history: map[int64][]models.WorkHistory{},
	}
	matchCreator := &fakeMatches{repo: repo}
	notifier := &recordingNotifier{}

	core, logs := observer.New(zapcore.DebugLevel)
	lc := New(repo, listings, profiles, matchCreator, notifier, zap.New(core))
	lc.now = func() time.Time { return testNow }

	return &fixture{
		repo:      repo,
		listings:  listings,
		profiles:  profiles,
		matches:   matchCreator,
		notifier:  notifier,
		lifecycle: lc,
		logs:      logs,
	}
}

func (f *fixture) apply(t *testing.T, workerID int64, listingID string) *models.Application {
	t.Helper()

	app, err := f.lifecycle.Apply(context.Background(), workerID, listingID, nil)
	if err != nil {
		t.Fatalf("Apply(%d, %s): %v", workerID, listingID, err)
	}
	return app
}

func TestApplyTwiceKeepsOneRow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	app := f.apply(t, workerA, "l-1")
	if app.Status != models.ApplicationPending {
		t.Fatalf("status = %s, want pending", app.Status)
	}

	_, err := f.lifecycle.Apply(context.Background(), workerA, "l-1", nil)
	if !errors.Is(err, models.ErrAlreadyApplied) {
		t.Fatalf("second Apply error = %v, want ErrAlreadyApplied", err)
	}
	if n := f.repo.count("l-1", workerA); n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}

	if len(f.notifier.users) != 1 || f.notifier.users[0] != employerID {
		t.Fatalf("notified %v, want only employer %d", f.notifier.users, employerID)
	}
	if f.notifier.events[0].Type != models.EventNewApplication {
		t.Fatalf("event = %s, want %s", f.notifier.events[0].Type, models.EventNewApplication)
	}
}

func TestApplyAfterTerminalStatusStillRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	app := f.apply(t, workerA, "l-1")
	if err := f.lifecycle.Reject(context.Background(), app.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	_, err := f.lifecycle.Apply(context.Background(), workerA, "l-1", nil)
	if !errors.Is(err, models.ErrAlreadyApplied) {
		t.Fatalf("Apply after reject error = %v, want ErrAlreadyApplied", err)
	}
}

func TestApplyValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		workerID  int64
		listingID string
		want      error
	}{
		{name: "unknown user", workerID: 42, listingID: "l-1", want: models.ErrNotFound},
		{name: "employer cannot apply", workerID: employerID, listingID: "l-1", want: models.ErrValidation},
		{name: "unknown listing", workerID: workerA, listingID: "missing", want: models.ErrNotFound},
		{name: "inactive listing", workerID: workerA, listingID: "l-x", want: models.ErrValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			_, err := f.lifecycle.Apply(context.Background(), tt.workerID, tt.listingID, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Apply error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApproveCreatesMatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	app := f.apply(t, workerA, "l-1")

	res, err := f.lifecycle.Approve(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.MatchID == "" || res.ApplicationID != app.ID {
		t.Fatalf("result = %+v", res)
	}
	if got := f.repo.status(app.ID); got != models.ApplicationApproved {
		t.Fatalf("status = %s, want approved", got)
	}
	if f.matches.created != 1 {
		t.Fatalf("matches created = %d, want 1", f.matches.created)
	}

	last := f.notifier.events[len(f.notifier.events)-1]
	if last.Type != models.EventApplicationApproved || last.MatchID != res.MatchID {
		t.Fatalf("last event = %+v", last)
	}
}

func TestApproveTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	app := f.apply(t, workerA, "l-1")

	first, err := f.lifecycle.Approve(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	second, err := f.lifecycle.Approve(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if first.MatchID != second.MatchID {
		t.Fatalf("match ids differ: %s vs %s", first.MatchID, second.MatchID)
	}
	if f.matches.created != 1 {
		t.Fatalf("matches created = %d, want 1", f.matches.created)
	}
}

func TestApproveRollsBackWhenMatchFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	app := f.apply(t, workerA, "l-1")
	f.matches.fail = true

	if _, err := f.lifecycle.Approve(context.Background(), app.ID); err == nil {
		t.Fatal("Approve succeeded, want error")
	}
	if got := f.repo.status(app.ID); got != models.ApplicationPending {
		t.Fatalf("status = %s, want pending after rollback", got)
	}
	if f.logs.FilterMessage("approval rolled back after match failure").Len() != 1 {
		t.Fatal("expected rollback warning")
	}

	f.matches.fail = false
	if _, err := f.lifecycle.Approve(context.Background(), app.ID); err != nil {
		t.Fatalf("retry Approve: %v", err)
	}
}

func TestApproveKeepsApprovalWhenMatchCreatedConcurrently(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	app := f.apply(t, workerA, "l-1")
	f.matches.fail = true
	f.matches.concurrentWin = true

	if _, err := f.lifecycle.Approve(context.Background(), app.ID); err == nil {
		t.Fatal("Approve succeeded, want error")
	}
	if got := f.repo.status(app.ID); got != models.ApplicationApproved {
		t.Fatalf("status = %s, want approved since the match exists", got)
	}
	if f.logs.FilterMessage("approval rolled back after match failure").Len() != 0 {
		t.Fatal("approval rolled back although the match exists")
	}
	if f.logs.FilterMessage("match created concurrently, approval kept").Len() != 1 {
		t.Fatal("expected concurrent match log")
	}
}

func TestReconcileRepairsApprovedWithoutMatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	app := f.apply(t, workerA, "l-1")
	f.matches.fail = true
	f.repo.failRevert = true

	if _, err := f.lifecycle.Approve(context.Background(), app.ID); err == nil {
		t.Fatal("Approve succeeded, want error")
	}
	if got := f.repo.status(app.ID); got != models.ApplicationApproved {
		t.Fatalf("status = %s, want approved when rollback fails", got)
	}
	if f.logs.FilterMessage("application left approved without match").Len() != 1 {
		t.Fatal("expected stuck approval error log")
	}

	f.matches.fail = false
	f.lifecycle.now = func() time.Time { return testNow.Add(time.Hour) }

	repaired, err := f.lifecycle.Reconcile(context.Background(), time.Minute, 50)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if repaired != 1 || f.matches.created != 1 {
		t.Fatalf("repaired = %d, created = %d, want 1 and 1", repaired, f.matches.created)
	}

	repaired, err = f.lifecycle.Reconcile(context.Background(), time.Minute, 50)
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if repaired != 0 {
		t.Fatalf("second pass repaired = %d, want 0", repaired)
	}
}

func TestTerminalTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		first   func(*Lifecycle, string) error
		second  func(*Lifecycle, string) error
		wantErr error
	}{
		{
			name:   "reject twice",
			first:  func(l *Lifecycle, id string) error { return l.Reject(context.Background(), id) },
			second: func(l *Lifecycle, id string) error { return l.Reject(context.Background(), id) },
		},
		{
			name:   "skip twice",
			first:  func(l *Lifecycle, id string) error { return l.Skip(context.Background(), id) },
			second: func(l *Lifecycle, id string) error { return l.Skip(context.Background(), id) },
		},
		{
			name:    "skip after reject",
			first:   func(l *Lifecycle, id string) error { return l.Reject(context.Background(), id) },
			second:  func(l *Lifecycle, id string) error { return l.Skip(context.Background(), id) },
			wantErr: models.ErrInvalidTransition,
		},
		{
			name:    "approve after skip",
			first:   func(l *Lifecycle, id string) error { return l.Skip(context.Background(), id) },
			second:  func(l *Lifecycle, id string) error { _, err := l.Approve(context.Background(), id); return err },
			wantErr: models.ErrInvalidTransition,
		},
		{
			name:    "reject after approve",
			first:   func(l *Lifecycle, id string) error { _, err := l.Approve(context.Background(), id); return err },
			second:  func(l *Lifecycle, id string) error { return l.Reject(context.Background(), id) },
			wantErr: models.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			app := f.apply(t, workerA, "l-1")

			if err := tt.first(f.lifecycle, app.ID); err != nil {
				t.Fatalf("first transition: %v", err)
			}
			err := tt.second(f.lifecycle, app.ID)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("second transition: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("second transition error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRejectAndSkipHaveNoSideEffects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		finish func(*Lifecycle, context.Context, string) error
	}{
		{"reject", (*Lifecycle).Reject},
		{"skip", (*Lifecycle).Skip},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			app := f.apply(t, workerA, "l-1")
			sent := len(f.notifier.events)

			if err := tt.finish(f.lifecycle, context.Background(), app.ID); err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if len(f.notifier.events) != sent {
				t.Fatalf("notifications = %d, want %d", len(f.notifier.events), sent)
			}
			if f.matches.created != 0 {
				t.Fatalf("matches created = %d, want 0", f.matches.created)
			}
		})
	}
}

func TestAuthorizeEmployer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	own := f.apply(t, workerA, "l-1")
	foreign := f.apply(t, workerA, "l-9")

	if _, err := f.lifecycle.AuthorizeEmployer(context.Background(), employerID, own.ID); err != nil {
		t.Fatalf("AuthorizeEmployer own: %v", err)
	}
	if _, err := f.lifecycle.AuthorizeEmployer(context.Background(), employerID, foreign.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("AuthorizeEmployer foreign error = %v, want ErrNotFound", err)
	}
	if _, err := f.lifecycle.AuthorizeEmployer(context.Background(), employerID, "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("AuthorizeEmployer missing error = %v, want ErrNotFound", err)
	}
}
