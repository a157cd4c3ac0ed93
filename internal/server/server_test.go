package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hanweng/lingtutor/internal/db"
	"github.com/hanweng/lingtutor/internal/lesson"
)

type staticInterpreter struct{}

func (staticInterpreter) Interpret(ctx context.Context, situation, statedIntent, clarification string) (string, error) {
	return "I see that you are trying to " + statedIntent + ". Is this correct?", nil
}

type staticGenerator struct{}

func (staticGenerator) Generate(ctx context.Context, situation, resolvedIntent string) (lesson.Correction, error) {
	return lesson.Correction{Corrected: "我想要牛肉面", Notes: "ok"}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	sessions := lesson.NewManager(staticInterpreter{}, staticGenerator{}, lesson.NewStore(database))
	s := New(Config{Port: 0, AllowAll: true}, database, sessions)

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestLessonRoutesMounted(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/session", "application/json",
		strings.NewReader(`{"user_id":"alice"}`))
	if err != nil {
		t.Fatalf("POST /api/session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var view lesson.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.SessionID == "" || view.State != lesson.StateInput {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestHistoryRoutesMounted(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/lessons")
	if err != nil {
		t.Fatalf("GET /api/lessons: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
