package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-alignment-backend/internal/catalog"
	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/http/middleware"
	"github.com/tbourn/go-alignment-backend/internal/placements"
	"github.com/tbourn/go-alignment-backend/internal/repo"
	"github.com/tbourn/go-alignment-backend/internal/services"
)

// ---------- test plumbing ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	two := 2
	cat, err := catalog.New(
		&catalog.Product{
			Slug:             "personal",
			Name:             "Personal",
			ShowInstructions: true,
			Steps: []catalog.Step{
				{Number: 1, Title: "Upload", AllowFileUpload: true},
				{Number: 2, Title: "Values", AllowFollowUp: true, MaxFollowUps: 1},
				{Number: 3, Title: "Vision"},
			},
		},
		&catalog.Product{
			Slug:         "business",
			Name:         "Business",
			FreeAttempts: &two,
			Steps: []catalog.Step{
				{Number: 1, Title: "Upload", AllowFileUpload: true},
				{Number: 2, Title: "Offer"},
			},
		},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

type testServer struct {
	r  *gin.Engine
	db *gorm.DB
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cat := testCatalog(t)
	prop := services.NewPropagator()
	profiles := &services.ProfileService{DB: db}
	h := New(
		cat,
		services.NewSessionService(db, cat, prop),
		&services.WizardService{DB: db, Catalog: cat, Profiles: profiles, ExtractionTimeout: time.Second},
		services.NewConversationService(db, 0),
		services.NewVersionService(db, cat, prop, 5, nil, time.Hour),
		profiles,
	)
	r := gin.New()
	r.Use(middleware.Identity(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	h.Mount(r.Group("/api/v1", middleware.RequireUser()))
	return &testServer{r: r, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "u1")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *testServer) seed(t *testing.T, sess *domain.Session) *domain.Session {
	t.Helper()
	if sess.UserID == "" {
		sess.UserID = "u1"
	}
	if sess.Version == 0 {
		sess.Version = 1
	}
	if sess.CurrentStep == 0 {
		sess.CurrentStep = 1
	}
	sess.CurrentSection = 1
	sess.IsLatestVersion = true
	if err := repo.CreateSession(context.Background(), s.db, sess); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return sess
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return v
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d body=%s", w.Code, status, w.Body.String())
	}
	if code != "" {
		if er := decode[ErrorResponse](t, w); er.Code != code {
			t.Fatalf("code=%q want %q", er.Code, code)
		}
	}
}

func leo() *placements.Placements {
	return &placements.Placements{Astrology: map[string]string{"sun": "Leo"}}
}

// ---------- tests ----------

func TestRequireUser(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	expectCode(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestListProducts(t *testing.T) {
	s := newServer(t)
	w := s.do(t, http.MethodGet, "/products", nil)
	expectCode(t, w, http.StatusOK, "")
	resp := decode[ListProductsResponse](t, w)
	if len(resp.Products) != 2 {
		t.Fatalf("products=%d", len(resp.Products))
	}
}

func TestLoadSession_CreatesFirstVersion(t *testing.T) {
	s := newServer(t)
	w := s.do(t, http.MethodGet, "/products/personal/session", nil)
	expectCode(t, w, http.StatusOK, "")
	resp := decode[SessionResponse](t, w)
	if !resp.Created || resp.Session.Version != 1 || resp.Session.CurrentStep != 1 || resp.Step1State != "WELCOME" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// Second load returns the same session.
	again := decode[SessionResponse](t, s.do(t, http.MethodGet, "/products/personal/session", nil))
	if again.Created || again.Session.ID != resp.Session.ID {
		t.Fatalf("reload: %+v", again)
	}

	expectCode(t, s.do(t, http.MethodGet, "/products/nope/session", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestLoadSession_RollsBackUnconfirmed(t *testing.T) {
	s := newServer(t)
	sess := s.seed(t, &domain.Session{ProductSlug: "business", CurrentStep: 2, TotalSteps: 2, Placements: leo()})

	w := s.do(t, http.MethodGet, "/products/business/session", nil)
	expectCode(t, w, http.StatusOK, "")
	resp := decode[SessionResponse](t, w)
	if resp.Session.ID != sess.ID || !resp.RolledBack || resp.Session.CurrentStep != 1 {
		t.Fatalf("not rolled back: %+v", resp)
	}
	if !resp.NeedsConfirmation || resp.Step1State != "CONFIRMATION" {
		t.Fatalf("step1 state: %+v", resp)
	}
}

func TestStep1_AcceptExistingThenProgress(t *testing.T) {
	s := newServer(t)
	sess := s.seed(t, &domain.Session{ProductSlug: "personal", TotalSteps: 3, Placements: leo()})
	path := "/sessions/" + sess.ID

	// Unknown state names are a transition error.
	expectCode(t, s.do(t, http.MethodPost, path+"/step1", gin.H{"state": "bogus", "event": "edit"}),
		http.StatusUnprocessableEntity, ErrCodeInvalidTransition)

	// Advancing before confirmation is refused.
	expectCode(t, s.do(t, http.MethodPost, path+"/advance", gin.H{"from_step": 1}),
		http.StatusConflict, ErrCodeConfirmationRequired)

	w := s.do(t, http.MethodPost, path+"/step1", gin.H{"state": "CONFIRMATION", "event": "accept_existing"})
	expectCode(t, w, http.StatusOK, "")
	res := decode[Step1Response](t, w)
	if res.State != "READY" || !res.Advanced || res.Session.CurrentStep != 2 || !res.Session.PlacementsConfirmed {
		t.Fatalf("step1 result: %+v", res)
	}

	expectCode(t, s.do(t, http.MethodPost, path+"/step1", gin.H{"state": "CONFIRMATION", "event": "accept_existing"}),
		http.StatusConflict, ErrCodeNotOnStepOne)

	// Follow-ups: step 2 allows one, and each is stored in the step conversation.
	expectCode(t, s.do(t, http.MethodPost, path+"/follow-ups", nil), http.StatusBadRequest, ErrCodeBadRequest)
	w = s.do(t, http.MethodPost, path+"/follow-ups", gin.H{"question": "How do I use this?"})
	expectCode(t, w, http.StatusOK, "")
	if fu := decode[FollowUpResponse](t, w); fu.FollowUpsUsed != 1 {
		t.Fatalf("follow-ups: %+v", fu)
	}
	expectCode(t, s.do(t, http.MethodPost, path+"/follow-ups", gin.H{"question": "And again?"}),
		http.StatusConflict, ErrCodeFollowUpLimit)
	w = s.do(t, http.MethodGet, path+"/steps/2/messages", nil)
	expectCode(t, w, http.StatusOK, "")
	if msgs := decode[ListMessagesResponse](t, w); msgs.Pagination.Total != 1 || msgs.Messages[0].Kind != domain.KindFollowUp {
		t.Fatalf("step 2 conversation: %+v", msgs)
	}

	// Stale view of the step.
	expectCode(t, s.do(t, http.MethodPost, path+"/advance", gin.H{"from_step": 1}), http.StatusConflict, ErrCodeStaleStep)

	w = s.do(t, http.MethodPost, path+"/advance", gin.H{"from_step": 2})
	expectCode(t, w, http.StatusOK, "")
	if got := decode[domain.Session](t, w); got.CurrentStep != 3 {
		t.Fatalf("advance: step=%d", got.CurrentStep)
	}
	expectCode(t, s.do(t, http.MethodPost, path+"/advance", gin.H{"from_step": 3}), http.StatusConflict, ErrCodeStepOutOfRange)

	expectCode(t, s.do(t, http.MethodPost, path+"/complete", gin.H{"deliverable_content": "  "}), http.StatusBadRequest, ErrCodeBadRequest)
	w = s.do(t, http.MethodPost, path+"/complete", gin.H{"deliverable_content": "# Plan"})
	expectCode(t, w, http.StatusOK, "")
	if got := decode[domain.Session](t, w); !got.IsComplete || got.DeliverableContent == nil || *got.DeliverableContent != "# Plan" {
		t.Fatalf("complete: %+v", got)
	}
	expectCode(t, s.do(t, http.MethodPost, path+"/complete", gin.H{"deliverable_content": "again"}), http.StatusConflict, ErrCodeAlreadyComplete)
}

func TestStepMessages(t *testing.T) {
	s := newServer(t)
	sess := s.seed(t, &domain.Session{
		ProductSlug: "personal", TotalSteps: 3, CurrentStep: 2,
		Placements: leo(), PlacementsConfirmed: true,
	})
	path := "/sessions/" + sess.ID + "/steps/"

	expectCode(t, s.do(t, http.MethodGet, path+"zero/messages", nil), http.StatusBadRequest, ErrCodeBadRequest)
	expectCode(t, s.do(t, http.MethodPost, path+"2/messages", gin.H{"role": "user", "kind": "follow_up", "content": "q"}),
		http.StatusBadRequest, ErrCodeBadRequest)
	expectCode(t, s.do(t, http.MethodPost, path+"3/messages", gin.H{"role": "user", "kind": "answer", "content": "early"}),
		http.StatusConflict, ErrCodeStepOutOfRange)

	for _, m := range []gin.H{
		{"role": "user", "kind": "answer", "content": "Freedom"},
		{"role": "assistant", "kind": "insight", "content": "Leo sun"},
		{"role": "assistant", "kind": "follow_up_reply", "content": "Try one offer"},
	} {
		w := s.do(t, http.MethodPost, path+"2/messages", m)
		expectCode(t, w, http.StatusCreated, "")
		if got := decode[domain.StepMessage](t, w); got.Content != m["content"] {
			t.Fatalf("stored %+v", got)
		}
	}

	w := s.do(t, http.MethodGet, path+"2/messages?page=2&page_size=2", nil)
	expectCode(t, w, http.StatusOK, "")
	list := decode[ListMessagesResponse](t, w)
	if len(list.Messages) != 1 || list.Messages[0].Kind != domain.KindFollowUpReply ||
		list.Pagination.Total != 3 || list.Pagination.TotalPages != 2 || list.Pagination.HasNext {
		t.Fatalf("page 2: %+v", list)
	}
}

func TestGetSession_AppliesGate(t *testing.T) {
	s := newServer(t)
	sess := s.seed(t, &domain.Session{ProductSlug: "personal", TotalSteps: 3, CurrentStep: 3, Placements: leo()})
	w := s.do(t, http.MethodGet, "/sessions/"+sess.ID, nil)
	expectCode(t, w, http.StatusOK, "")
	if got := decode[domain.Session](t, w); got.CurrentStep != 1 || got.PlacementsConfirmed {
		t.Fatalf("unconfirmed session served at step %d", got.CurrentStep)
	}
}

func TestStep1_SubmitFilesWithoutExtractorFallsBack(t *testing.T) {
	s := newServer(t)
	sess := s.seed(t, &domain.Session{ProductSlug: "business", TotalSteps: 2})

	w := s.do(t, http.MethodPost, "/sessions/"+sess.ID+"/step1", gin.H{
		"state": "UPLOAD", "event": "submit_files", "files": []string{"chart.pdf"},
	})
	expectCode(t, w, http.StatusOK, "")
	res := decode[Step1Response](t, w)
	if res.State != "UPLOAD" || res.ErrorCode != services.CodeExtractionFailed {
		t.Fatalf("fallback: %+v", res)
	}
}

func TestSessionRoutes_BadIDAndForeignSession(t *testing.T) {
	s := newServer(t)
	expectCode(t, s.do(t, http.MethodGet, "/sessions/not-a-uuid", nil), http.StatusBadRequest, ErrCodeBadRequest)

	other := s.seed(t, &domain.Session{UserID: "u2", ProductSlug: "business", TotalSteps: 2})
	expectCode(t, s.do(t, http.MethodGet, "/sessions/"+other.ID, nil), http.StatusNotFound, ErrCodeNotFound)
	expectCode(t, s.do(t, http.MethodPatch, "/sessions/"+other.ID, gin.H{"current_section": 2}), http.StatusNotFound, ErrCodeNotFound)
}

func TestPatchSession(t *testing.T) {
	s := newServer(t)
	sess := s.seed(t, &domain.Session{ProductSlug: "business", TotalSteps: 2, Placements: leo()})
	path := "/sessions/" + sess.ID

	expectCode(t, s.do(t, http.MethodPatch, path, gin.H{"current_step": 2}), http.StatusConflict, ErrCodeConfirmationRequired)

	w := s.do(t, http.MethodPatch, path, gin.H{"placements_confirmed": true, "current_step": 2})
	expectCode(t, w, http.StatusOK, "")
	if got := decode[domain.Session](t, w); !got.PlacementsConfirmed || got.CurrentStep != 2 {
		t.Fatalf("patch: %+v", got)
	}

	expectCode(t, s.do(t, http.MethodPatch, path, gin.H{"current_step": 9}), http.StatusConflict, ErrCodeStepOutOfRange)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1"+path, strings.NewReader("{"))
	req.Header.Set(middleware.HeaderUserID, "u1")
	bad := httptest.NewRecorder()
	s.r.ServeHTTP(bad, req)
	expectCode(t, bad, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestVersions_CreateReplayQuotaAndList(t *testing.T) {
	s := newServer(t)
	v1 := s.seed(t, &domain.Session{ProductSlug: "business", TotalSteps: 2, Placements: leo(), PlacementsConfirmed: true})

	w := s.do(t, http.MethodGet, "/products/business/attempts", nil)
	expectCode(t, w, http.StatusOK, "")
	if q := decode[services.QuotaStatus](t, w); !q.CanCreate || q.AttemptsLimit != 2 || q.AttemptsUsed != 0 {
		t.Fatalf("quota: %+v", q)
	}

	w = s.do(t, http.MethodPost, "/products/business/versions", gin.H{"parent_session_id": v1.ID}, middleware.HeaderIdempotencyKey, "retry-1")
	expectCode(t, w, http.StatusCreated, "")
	v2 := decode[domain.Session](t, w)
	if v2.Version != 2 || v2.PlacementsConfirmed || v2.CurrentStep != 1 {
		t.Fatalf("v2: %+v", v2)
	}

	w = s.do(t, http.MethodPost, "/products/business/versions", gin.H{"parent_session_id": v1.ID}, middleware.HeaderIdempotencyKey, "retry-1")
	expectCode(t, w, http.StatusOK, "")
	if w.Header().Get("Idempotency-Replayed") != "true" || decode[domain.Session](t, w).ID != v2.ID {
		t.Fatalf("replay: %s %s", w.Header(), w.Body.String())
	}

	expectCode(t, s.do(t, http.MethodPost, "/products/business/versions", gin.H{"parent_session_id": v1.ID}),
		http.StatusConflict, ErrCodeParentNotLatest)
	expectCode(t, s.do(t, http.MethodPost, "/products/business/versions", gin.H{"parent_session_id": "x"}),
		http.StatusBadRequest, ErrCodeBadRequest)

	w = s.do(t, http.MethodPost, "/products/business/versions", gin.H{"parent_session_id": v2.ID})
	expectCode(t, w, http.StatusCreated, "")
	v3 := decode[domain.Session](t, w)

	w = s.do(t, http.MethodPost, "/products/business/versions", gin.H{"parent_session_id": v3.ID})
	expectCode(t, w, http.StatusForbidden, ErrCodeRequiresPurchase)
	if qr := decode[QuotaErrorResponse](t, w); !qr.RequiresPurchase || qr.AttemptsUsed != 2 || qr.AttemptsLimit != 2 {
		t.Fatalf("quota error: %+v", qr)
	}

	w = s.do(t, http.MethodGet, "/products/business/versions?page_size=2", nil)
	expectCode(t, w, http.StatusOK, "")
	list := decode[ListVersionsResponse](t, w)
	if len(list.Versions) != 2 || list.Versions[0].Version != 3 || list.Pagination.Total != 3 || !list.Pagination.HasNext {
		t.Fatalf("list: %+v", list)
	}
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"versions:u1:business:3:`) {
		t.Fatalf("etag=%q", etag)
	}
	w = s.do(t, http.MethodGet, "/products/business/versions?page_size=2", nil, "If-None-Match", etag)
	if w.Code != http.StatusNotModified {
		t.Fatalf("status=%d want 304", w.Code)
	}
	// A different page is a different representation.
	w = s.do(t, http.MethodGet, "/products/business/versions?page=2&page_size=2", nil, "If-None-Match", etag)
	expectCode(t, w, http.StatusOK, "")
	if page2 := decode[ListVersionsResponse](t, w); len(page2.Versions) != 1 || page2.Versions[0].Version != 1 {
		t.Fatalf("page 2: %+v", page2)
	}
}

func TestProfilePlacements(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/profile/placements", nil)
	expectCode(t, w, http.StatusOK, "")
	if p := decode[domain.UserProfile](t, w); p.Placements != nil || p.PlacementsConfirmed {
		t.Fatalf("empty profile: %+v", p)
	}

	expectCode(t, s.do(t, http.MethodPut, "/profile/placements", gin.H{"placements": placements.Skeleton()}),
		http.StatusBadRequest, ErrCodeEmptyPlacements)

	w = s.do(t, http.MethodPut, "/profile/placements", gin.H{"placements": leo()})
	expectCode(t, w, http.StatusOK, "")
	if p := decode[domain.UserProfile](t, w); !p.PlacementsConfirmed || p.Placements.Astrology["sun"] != "Leo" {
		t.Fatalf("put: %+v", p)
	}

	// A new product session is seeded from the profile cache.
	resp := decode[SessionResponse](t, s.do(t, http.MethodGet, "/products/business/session", nil))
	if resp.SeededFrom != "profile" || resp.Step1State != "CONFIRMATION" {
		t.Fatalf("seeded session: %+v", resp)
	}

	w = s.do(t, http.MethodDelete, "/profile/placements", nil)
	expectCode(t, w, http.StatusNoContent, "")
}
