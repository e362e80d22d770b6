package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/analytics"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/auth"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/httpapi"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/notify"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/progress"
)

// harness is a fully wired server over memory stores with helpers for
// authenticated requests.
type harness struct {
	t       *testing.T
	handler http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	users := learner.NewMemoryStore()
	contentStore := content.NewMemoryStore()
	notifyStore := notify.NewMemoryStore()

	engine := notify.NewEngine(notifyStore, users, nil, nil)
	authSvc := auth.NewService(users, auth.NewTokenIssuer("test-secret"), engine)
	progressSvc := progress.NewService(contentStore, users)
	analyticsSvc := analytics.NewService(users, contentStore, nil)

	server := httpapi.NewServer(httpapi.Config{
		Auth:      authSvc,
		Users:     users,
		Content:   contentStore,
		Progress:  progressSvc,
		Notify:    engine,
		Analytics: analyticsSvc,
	})
	return &harness{t: t, handler: server.Handler()}
}

// do performs a request and returns the recorder. A non-empty token is
// sent as a bearer credential.
func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) decode(rec *httptest.ResponseRecorder, dest any) {
	h.t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		h.t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// register creates an account and returns its token.
func (h *harness) register(username, role string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter22",
		"role":     role,
	})
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("register %s: status = %d, body = %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	h.decode(rec, &resp)
	return resp.Token
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	var resp map[string]string
	h.decode(rec, &resp)
	if resp["message"] == "" {
		t.Errorf("error body = %s, want a message field", rec.Body.String())
	}

	rec = h.do(http.MethodGet, "/api/auth/me", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestAdminRequired(t *testing.T) {
	h := newHarness(t)
	userToken := h.register("alice", "")
	adminToken := h.register("root", "admin")

	rec := h.do(http.MethodGet, "/api/admin/users", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", rec.Code)
	}

	rec = h.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterLoginMeFlow(t *testing.T) {
	h := newHarness(t)
	h.register("alice", "")

	rec := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	h.decode(rec, &login)
	if login.User.Username != "alice" {
		t.Errorf("username = %q, want alice", login.User.Username)
	}

	rec = h.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.register("alice", "")

	rec := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestContentAndProgressFlow(t *testing.T) {
	h := newHarness(t)
	adminToken := h.register("root", "admin")
	userToken := h.register("alice", "")

	for _, id := range []string{"A", "B", "C"} {
		rec := h.do(http.MethodPost, "/api/admin/topics", adminToken, content.Topic{ID: id, Title: "Topic " + id})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create topic %s: status = %d: %s", id, rec.Code, rec.Body.String())
		}
	}
	rec := h.do(http.MethodPost, "/api/admin/courses", adminToken, content.Course{
		ID:         "c1",
		Title:      "Fundamentals",
		Topics:     []string{"A", "B", "C"},
		FirstTopic: "A",
		Dependencies: map[string][]string{
			"B": {"A"},
			"C": {"B"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create course: status = %d: %s", rec.Code, rec.Body.String())
	}

	// B is locked until A is completed.
	var unlocked map[string]bool
	rec = h.do(http.MethodGet, "/api/user/courses/c1/subjects/B/unlocked", userToken, nil)
	h.decode(rec, &unlocked)
	if unlocked["unlocked"] {
		t.Error("B unlocked before completing A")
	}

	rec = h.do(http.MethodPost, "/api/user/subjects/A/complete", userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete A: status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = h.do(http.MethodGet, "/api/user/courses/c1/subjects/B/unlocked", userToken, nil)
	h.decode(rec, &unlocked)
	if !unlocked["unlocked"] {
		t.Error("B still locked after completing A")
	}

	// Viewing two of three topics puts course progress at 67%.
	for _, id := range []string{"A", "B"} {
		rec = h.do(http.MethodPost, "/api/user/topics/"+id+"/viewed", userToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("view %s: status = %d", id, rec.Code)
		}
	}
	var rows []progress.CourseProgress
	rec = h.do(http.MethodGet, "/api/user/progress/courses", userToken, nil)
	h.decode(rec, &rows)
	if len(rows) != 1 || rows[0].Percentage != 67 {
		t.Errorf("course progress = %+v, want one row at 67%%", rows)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t)
	token := h.register("alice", "")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown topic", http.MethodGet, "/api/topics/ghost", nil, http.StatusNotFound},
		{"unknown course progress target", http.MethodPost, "/api/user/quiz-score", map[string]any{"courseId": "ghost", "score": 50}, http.StatusNotFound},
		{"missing quiz course", http.MethodPost, "/api/user/quiz-score", map[string]any{"score": 50}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(tt.method, tt.path, token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			var resp map[string]any
			h.decode(rec, &resp)
			if _, ok := resp["message"]; !ok {
				t.Errorf("error body = %s, want a message field", rec.Body.String())
			}
		})
	}
}

func TestTopicListingHidesDrafts(t *testing.T) {
	h := newHarness(t)
	adminToken := h.register("root", "admin")
	userToken := h.register("alice", "")

	h.do(http.MethodPost, "/api/admin/topics", adminToken, content.Topic{ID: "pub", Title: "Published"})
	h.do(http.MethodPost, "/api/admin/topics", adminToken, content.Topic{ID: "dr", Title: "Draft", Status: content.StatusDraft})

	var topics []content.Topic
	rec := h.do(http.MethodGet, "/api/topics?status="+content.StatusDraft, userToken, nil)
	h.decode(rec, &topics)
	for _, topic := range topics {
		if topic.Status != content.StatusPublished {
			t.Errorf("non-admin sees %q topic %s", topic.Status, topic.ID)
		}
	}

	rec = h.do(http.MethodGet, "/api/topics?status="+content.StatusDraft, adminToken, nil)
	h.decode(rec, &topics)
	if len(topics) != 1 || topics[0].ID != "dr" {
		t.Errorf("admin draft listing = %+v, want the draft topic", topics)
	}
}

func TestCourseCreationCaps(t *testing.T) {
	h := newHarness(t)
	adminToken := h.register("root", "admin")

	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("t%d", i)
		h.do(http.MethodPost, "/api/admin/topics", adminToken, content.Topic{ID: id, Title: "T" + id})
		ids = append(ids, id)
	}

	rec := h.do(http.MethodPost, "/api/admin/courses", adminToken, content.Course{
		Title:  "Too Big",
		Topics: ids,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized course status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestNotificationFlow(t *testing.T) {
	h := newHarness(t)
	adminToken := h.register("root", "admin")
	userToken := h.register("alice", "")

	rec := h.do(http.MethodPost, "/api/admin/notifications", adminToken, map[string]string{
		"message": "maintenance tonight",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("broadcast status = %d: %s", rec.Code, rec.Body.String())
	}

	var feed []notify.Notification
	rec = h.do(http.MethodGet, "/api/user/notifications", userToken, nil)
	h.decode(rec, &feed)

	var broadcastID string
	for _, n := range feed {
		if n.Message == "maintenance tonight" {
			broadcastID = n.ID
		}
	}
	if broadcastID == "" {
		t.Fatalf("broadcast missing from feed: %+v", feed)
	}

	rec = h.do(http.MethodPost, "/api/user/notifications/"+broadcastID+"/read", userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(http.MethodGet, "/api/user/notifications", userToken, nil)
	h.decode(rec, &feed)
	for _, n := range feed {
		if n.ID == broadcastID {
			t.Error("read notification still in feed")
		}
	}
}

func TestQuizGenerate_Unconfigured(t *testing.T) {
	h := newHarness(t)
	token := h.register("alice", "")

	rec := h.do(http.MethodPost, "/api/quiz/generate", token, map[string]string{"courseId": "c1"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	h := newHarness(t)
	adminToken := h.register("root", "admin")

	for _, path := range []string{
		"/api/admin/analytics/user-signups",
		"/api/admin/analytics/popular-topics",
		"/api/admin/analytics/course-completion",
		"/api/admin/analytics/retention",
		"/api/admin/analytics/engagement",
	} {
		rec := h.do(http.MethodGet, path, adminToken, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d: %s", path, rec.Code, rec.Body.String())
		}
	}

	rec := h.do(http.MethodGet, "/api/admin/analytics/export", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("export Content-Type = %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("export body is empty")
	}
}

// failingChecker always reports the backend down.
type failingChecker struct{}

func (failingChecker) HealthCheck(context.Context) error { return errors.New("down") }

func TestReadyz(t *testing.T) {
	ok := httpapi.NewServer(httpapi.Config{})
	rec := httptest.NewRecorder()
	ok.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz with no backends status = %d, want 200", rec.Code)
	}

	bad := httpapi.NewServer(httpapi.Config{DB: failingChecker{}})
	rec = httptest.NewRecorder()
	bad.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing database status = %d, want 503", rec.Code)
	}
}
