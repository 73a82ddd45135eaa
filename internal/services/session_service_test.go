package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/repo"
	"github.com/tbourn/go-alignment-backend/internal/wizard"
)

func newSessionSvc(t *testing.T) (*SessionService, func() time.Time) {
	t.Helper()
	db := newTestDB(t)
	svc := NewSessionService(db, testCatalog(t), NewPropagator())
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return fixed }
	return svc, svc.Now
}

// confirmedOn seeds a confirmed latest session for u1 on the given step.
func confirmedOn(t *testing.T, svc *SessionService, slug string, step int) *domain.Session {
	t.Helper()
	p, _ := svc.Catalog.Get(slug)
	return seedSession(t, svc.DB, &domain.Session{
		UserID: "u1", ProductSlug: slug, CurrentStep: step, TotalSteps: p.TotalSteps(),
		Placements: leo(), PlacementsConfirmed: true, IsLatestVersion: true,
	})
}

func TestSessionService_LoadCreatesFirstVersion(t *testing.T) {
	svc, _ := newSessionSvc(t)
	ctx := context.Background()

	v, err := svc.Load(ctx, "u1", "personal")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !v.Created || v.Session.Version != 1 || !v.Session.IsLatestVersion || v.Session.TotalSteps != 3 {
		t.Fatalf("unexpected first load: created=%v %+v", v.Created, v.Session)
	}
	if !v.NeedsConfirmation || v.Step1State != wizard.Welcome {
		t.Fatalf("needs=%v state=%s", v.NeedsConfirmation, v.Step1State)
	}

	again, err := svc.Load(ctx, "u1", "personal")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again.Created || again.Session.ID != v.Session.ID {
		t.Fatalf("second load created another session: %+v", again.Session)
	}
}

// Scenario A through Load: the new product's session is seeded from the
// user's confirmed session of another product.
func TestSessionService_LoadPropagates(t *testing.T) {
	svc, _ := newSessionSvc(t)
	confirmedOn(t, svc, "personal", 2)

	v, err := svc.Load(context.Background(), "u1", "business")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.SeededFrom != SourceSession {
		t.Fatalf("SeededFrom = %q", v.SeededFrom)
	}
	if v.Session.Placements.Astrology["sun"] != "Leo" || v.Session.PlacementsConfirmed {
		t.Fatalf("propagated session = %+v", v.Session)
	}
	if !v.NeedsConfirmation || v.Step1State != wizard.Confirmation {
		t.Fatalf("needs=%v state=%s, want confirmation", v.NeedsConfirmation, v.Step1State)
	}
}

// Scenario B through Load.
func TestSessionService_LoadEnforcesGate(t *testing.T) {
	svc, _ := newSessionSvc(t)
	s := seedSession(t, svc.DB, &domain.Session{
		UserID: "u1", ProductSlug: "personal", CurrentStep: 3, CurrentSection: 4,
		Placements: leo(), IsLatestVersion: true,
	})

	v, err := svc.Load(context.Background(), "u1", "personal")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.Session.ID != s.ID || !v.RolledBack {
		t.Fatalf("rolled=%v id=%s", v.RolledBack, v.Session.ID)
	}
	got := mustGet(t, svc.DB, s.ID, "u1")
	if got.CurrentStep != 1 || got.CurrentSection != 1 || got.Placements.Astrology["sun"] != "Leo" {
		t.Fatalf("after load: %+v", got)
	}
}

func TestSessionService_LoadUnknownProduct(t *testing.T) {
	svc, _ := newSessionSvc(t)
	if _, err := svc.Load(context.Background(), "u1", "nope"); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("err = %v, want ErrUnknownProduct", err)
	}
}

func TestSessionService_GetForeignUser(t *testing.T) {
	svc, _ := newSessionSvc(t)
	s := confirmedOn(t, svc, "personal", 2)
	if _, err := svc.Get(context.Background(), "u2", s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionService_PatchPlacementsClearsConfirmation(t *testing.T) {
	svc, _ := newSessionSvc(t)
	ctx := context.Background()
	s := confirmedOn(t, svc, "personal", 1)

	next := &placements.Placements{Astrology: map[string]string{"sun": "Virgo"}}
	got, err := svc.Patch(ctx, "u1", s.ID, SessionPatch{Placements: next})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if got.PlacementsConfirmed || got.Placements.Astrology["sun"] != "Virgo" {
		t.Fatalf("patched = %+v", got)
	}

	yes := true
	got, err = svc.Patch(ctx, "u1", s.ID, SessionPatch{Placements: leo(), PlacementsConfirmed: &yes})
	if err != nil || !got.PlacementsConfirmed {
		t.Fatalf("Patch confirm = (%+v, %v)", got, err)
	}
}

func TestSessionService_PatchValidation(t *testing.T) {
	svc, _ := newSessionSvc(t)
	ctx := context.Background()
	unconfirmed := seedSession(t, svc.DB, &domain.Session{
		UserID: "u1", ProductSlug: "personal", Placements: leo(), IsLatestVersion: true,
	})
	two, zero, nine := 2, 0, 9
	yes := true
	empty := ""

	cases := []struct {
		name  string
		patch SessionPatch
		want  error
	}{
		{"past gate while unconfirmed", SessionPatch{CurrentStep: &two}, ErrConfirmationRequired},
		{"step zero", SessionPatch{CurrentStep: &zero}, ErrStepOutOfRange},
		{"step beyond total", SessionPatch{CurrentStep: &nine}, ErrStepOutOfRange},
		{"section zero", SessionPatch{CurrentSection: &zero}, ErrInvalidInput},
		{"confirm empty", SessionPatch{Placements: placements.Skeleton(), PlacementsConfirmed: &yes}, ErrEmptyPlacements},
		{"complete without deliverable", SessionPatch{IsComplete: &yes, DeliverableContent: &empty}, ErrConfirmationRequired},
	}
	for _, tc := range cases {
		if _, err := svc.Patch(ctx, "u1", unconfirmed.ID, tc.patch); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
	if got := mustGet(t, svc.DB, unconfirmed.ID, "u1"); got.CurrentStep != 1 || got.PlacementsConfirmed {
		t.Fatalf("rejected patches mutated the row: %+v", got)
	}

	if _, err := svc.Patch(ctx, "u2", unconfirmed.ID, SessionPatch{CurrentSection: &two}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("foreign patch err = %v", err)
	}
}

func TestSessionService_Advance(t *testing.T) {
	svc, _ := newSessionSvc(t)
	ctx := context.Background()
	s := confirmedOn(t, svc, "personal", 2)

	got, err := svc.Advance(ctx, "u1", s.ID, 2)
	if err != nil || got.CurrentStep != 3 {
		t.Fatalf("Advance = (%+v, %v)", got, err)
	}
	if _, err := svc.Advance(ctx, "u1", s.ID, 2); !errors.Is(err, ErrStaleStep) {
		t.Fatalf("stale advance err = %v", err)
	}
	if _, err := svc.Advance(ctx, "u1", s.ID, 3); !errors.Is(err, ErrStepOutOfRange) {
		t.Fatalf("advance past last err = %v", err)
	}
	if got := mustGet(t, svc.DB, s.ID, "u1"); got.CurrentStep != 3 {
		t.Fatalf("step = %d, want 3 (never clamped past total)", got.CurrentStep)
	}
}

func TestSessionService_AdvanceRequiresConfirmation(t *testing.T) {
	svc, _ := newSessionSvc(t)
	s := seedSession(t, svc.DB, &domain.Session{UserID: "u1", ProductSlug: "personal", Placements: leo()})
	if _, err := svc.Advance(context.Background(), "u1", s.ID, 1); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("err = %v", err)
	}
}

func TestSessionService_RecordFollowUp(t *testing.T) {
	svc, _ := newSessionSvc(t)
	ctx := context.Background()
	s := confirmedOn(t, svc, "personal", 2)

	for want := 1; want <= 2; want++ {
		n, err := svc.RecordFollowUp(ctx, "u1", s.ID, fmt.Sprintf("question %d", want))
		if err != nil || n != want {
			t.Fatalf("RecordFollowUp #%d = (%d, %v)", want, n, err)
		}
	}
	if _, err := svc.RecordFollowUp(ctx, "u1", s.ID, "one more"); !errors.Is(err, ErrFollowUpLimit) {
		t.Fatalf("over limit err = %v", err)
	}
	if n, err := repo.CountStepMessages(ctx, svc.DB, s.ID, 2, domain.RoleUser, domain.KindFollowUp); err != nil || n != 2 {
		t.Fatalf("stored follow-ups = (%d, %v)", n, err)
	}

	// The counter starts over on the next step.
	if _, err := svc.Advance(ctx, "u1", s.ID, 2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if n, err := svc.RecordFollowUp(ctx, "u1", s.ID, "and on step 3?"); err != nil || n != 1 {
		t.Fatalf("follow-up on step 3 = (%d, %v)", n, err)
	}
}

func TestSessionService_RecordFollowUpNotAllowed(t *testing.T) {
	svc, _ := newSessionSvc(t)
	s := confirmedOn(t, svc, "personal", 1)
	if _, err := svc.RecordFollowUp(context.Background(), "u1", s.ID, "why?"); !errors.Is(err, ErrFollowUpsNotAllowed) {
		t.Fatalf("err = %v", err)
	}
}

func TestSessionService_RecordFollowUpValidatesQuestion(t *testing.T) {
	svc, _ := newSessionSvc(t)
	svc.MaxMessageRunes = 5
	ctx := context.Background()
	s := confirmedOn(t, svc, "personal", 2)

	if _, err := svc.RecordFollowUp(ctx, "u1", s.ID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank question err = %v", err)
	}
	if _, err := svc.RecordFollowUp(ctx, "u1", s.ID, "toolong"); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("long question err = %v", err)
	}
	if n, _ := repo.CountStepMessages(ctx, svc.DB, s.ID, 2, "", ""); n != 0 {
		t.Fatalf("rejected questions were stored: %d", n)
	}
}

// Advancing, asking follow-ups and resetting a confirmed step-2 session all
// write to the session row and must succeed against the migrated schema.
func TestSessionService_ProgressThenResetClearsConversations(t *testing.T) {
	svc, _ := newSessionSvc(t)
	ctx := context.Background()
	s := confirmedOn(t, svc, "personal", 2)

	if n, err := svc.RecordFollowUp(ctx, "u1", s.ID, "what about money?"); err != nil || n != 1 {
		t.Fatalf("RecordFollowUp = (%d, %v)", n, err)
	}
	adv, err := svc.Advance(ctx, "u1", s.ID, 2)
	if err != nil || adv.CurrentStep != 3 {
		t.Fatalf("Advance = (%+v, %v)", adv, err)
	}
	if n, err := svc.RecordFollowUp(ctx, "u1", s.ID, "and the vision?"); err != nil || n != 1 {
		t.Fatalf("RecordFollowUp on step 3 = (%d, %v)", n, err)
	}

	reset, err := svc.Reset(ctx, "u1", s.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if reset.CurrentStep != 1 || reset.PlacementsConfirmed {
		t.Fatalf("reset = %+v", reset)
	}
	for _, step := range []int{2, 3} {
		if n, err := repo.CountStepMessages(ctx, svc.DB, s.ID, step, "", ""); err != nil || n != 0 {
			t.Fatalf("step %d messages after reset = (%d, %v)", step, n, err)
		}
	}
}

func TestSessionService_GetEnforcesGate(t *testing.T) {
	svc, _ := newSessionSvc(t)
	s := seedSession(t, svc.DB, &domain.Session{
		UserID: "u1", ProductSlug: "personal", CurrentStep: 3, CurrentSection: 2,
		Placements: leo(), IsLatestVersion: true,
	})

	got, err := svc.Get(context.Background(), "u1", s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CurrentStep != 1 || got.CurrentSection != 1 {
		t.Fatalf("served step %d/%d while confirmation is owed", got.CurrentStep, got.CurrentSection)
	}
	if stored := mustGet(t, svc.DB, s.ID, "u1"); stored.CurrentStep != 1 || stored.Placements == nil {
		t.Fatalf("stored = %+v", stored)
	}

	ok := confirmedOn(t, svc, "business", 2)
	if got, err := svc.Get(context.Background(), "u1", ok.ID); err != nil || got.CurrentStep != 2 {
		t.Fatalf("confirmed session Get = (%+v, %v)", got, err)
	}
}

func TestSessionService_CompleteAndReset(t *testing.T) {
	svc, now := newSessionSvc(t)
	ctx := context.Background()
	s := confirmedOn(t, svc, "personal", 2)

	if _, err := svc.Complete(ctx, "u1", s.ID, "report"); !errors.Is(err, ErrNotLastStep) {
		t.Fatalf("early complete err = %v", err)
	}
	if _, err := svc.Advance(ctx, "u1", s.ID, 2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := svc.Complete(ctx, "u1", s.ID, "   "); !errors.Is(err, ErrEmptyDeliverable) {
		t.Fatalf("blank deliverable err = %v", err)
	}
	done, err := svc.Complete(ctx, "u1", s.ID, "  report  ")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !done.IsComplete || *done.DeliverableContent != "report" || !done.CompletedAt.Equal(now()) {
		t.Fatalf("completed = %+v", done)
	}
	if _, err := svc.Complete(ctx, "u1", s.ID, "again"); !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("repeat complete err = %v", err)
	}

	reset, err := svc.Reset(ctx, "u1", s.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if reset.IsComplete || reset.CompletedAt != nil || reset.DeliverableContent != nil ||
		reset.CurrentStep != 1 || reset.PlacementsConfirmed || reset.Placements.Astrology["sun"] != "Leo" {
		t.Fatalf("reset = %+v", reset)
	}
}
