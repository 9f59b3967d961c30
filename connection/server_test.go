package connection

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"projectboard/config"
	"projectboard/model"
	"projectboard/repositories"
	"projectboard/services"
)

type stubVerifier map[string]model.Identity

func (s stubVerifier) Verify(_ context.Context, idToken string) (model.Identity, error) {
	id, ok := s[idToken]
	if !ok {
		return model.Identity{}, services.ErrInvalidIdentity
	}
	return id, nil
}

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositories.NewMemoryStore()
	tokens := services.NewTokenService(services.TokenConfig{
		AccessSecret:  []byte("a"),
		RefreshSecret: []byte("r"),
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
	})
	verifier := stubVerifier{
		"alice-token": {UserID: "u-alice", Name: "Alice", Email: "alice@example.com"},
		"bob-token":   {UserID: "u-bob", Name: "Bob", Email: "bob@example.com"},
	}
	router := NewRouter(Deps{
		Config:   &config.Config{CORSAllowedOrigins: []string{"*"}},
		Session:  services.NewSession(verifier, store, nil, tokens),
		Projects: services.NewProjectService(store, nil),
		Users:    services.NewUserService(store),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, router: router}
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("%s %s: invalid JSON %q", method, path, w.Body.String())
		}
	}
	return w.Code, out
}

func (s *testServer) signIn(idToken string) (string, string) {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/auth/google", "", map[string]string{"idToken": idToken})
	if code != http.StatusOK {
		s.t.Fatalf("sign in: %d %v", code, body)
	}
	token := body["token"].(map[string]any)
	return token["accessToken"].(string), token["refreshToken"].(string)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(http.MethodGet, "/", "", nil)
	if code != http.StatusOK || body["message"] != "Api is running!" {
		t.Errorf("got %d %v", code, body)
	}
}

func TestRouter_AuthFlow(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(http.MethodPost, "/auth/google", "", map[string]string{"idToken": "forged"}); code != http.StatusUnauthorized {
		t.Errorf("forged id token: status %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/auth/google", "", map[string]string{}); code != http.StatusBadRequest {
		t.Errorf("missing id token: status %d", code)
	}

	access, refresh := s.signIn("alice-token")

	code, me := s.do(http.MethodGet, "/user/me", access, nil)
	if code != http.StatusOK || me["email"] != "alice@example.com" {
		t.Errorf("me: %d %v", code, me)
	}

	code, body := s.do(http.MethodPost, "/auth/refresh", refresh, nil)
	if code != http.StatusOK {
		t.Fatalf("refresh: %d %v", code, body)
	}
	newRefresh := body["refreshToken"].(string)

	if code, _ := s.do(http.MethodPost, "/auth/signout", access, nil); code != http.StatusOK {
		t.Errorf("signout: status %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/auth/refresh", newRefresh, nil); code != http.StatusUnauthorized {
		t.Errorf("refresh after signout: status %d", code)
	}
}

func TestRouter_ProjectLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.signIn("alice-token")
	bob, _ := s.signIn("bob-token")

	if code, _ := s.do(http.MethodGet, "/projects", "", nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous list: status %d", code)
	}

	code, created := s.do(http.MethodPost, "/projects", alice, nil)
	if code != http.StatusCreated {
		t.Fatalf("create: %d %v", code, created)
	}
	id := created["id"].(string)
	if created["name"] != "New Project" || created["status"] != "Not Started" || created["tone"] != "red" {
		t.Errorf("created = %v", created)
	}

	path := "/projects/" + id
	if code, body := s.do(http.MethodGet, path, bob, nil); code != http.StatusForbidden ||
		body["error"] != "You do not have permission to access this project" {
		t.Errorf("bob before invite: %d %v", code, body)
	}
	if code, body := s.do(http.MethodGet, "/projects/missing", alice, nil); code != http.StatusNotFound ||
		body["error"] != "Project not found" {
		t.Errorf("missing: %d %v", code, body)
	}

	if code, body := s.do(http.MethodPost, path+"/members", alice, map[string]string{"email": "not-an-email"}); code != http.StatusBadRequest ||
		body["error"] != "Please enter a valid email address" {
		t.Errorf("bad invite: %d %v", code, body)
	}
	if code, _ := s.do(http.MethodPost, path+"/members", alice, map[string]string{"email": "bob@example.com"}); code != http.StatusOK {
		t.Fatalf("invite: status %d", code)
	}
	if code, body := s.do(http.MethodPost, path+"/members", alice, map[string]string{"email": "BOB@example.com"}); code != http.StatusConflict ||
		body["error"] != "This email is already a team member" {
		t.Errorf("duplicate invite: %d %v", code, body)
	}

	code, p := s.do(http.MethodPost, path+"/tasks", bob, map[string]string{"name": "write tests"})
	if code != http.StatusCreated {
		t.Fatalf("add task: %d %v", code, p)
	}
	_, p = s.do(http.MethodPost, path+"/tasks", bob, map[string]string{"name": "ship", "status": "ongoing"})
	tasks := p["tasks"].([]any)
	if len(tasks) != 2 {
		t.Fatalf("tasks = %v", tasks)
	}
	firstID := tasks[0].(map[string]any)["id"].(string)

	if code, _ := s.do(http.MethodPost, path+"/tasks", bob, map[string]string{"name": "x", "status": "blocked"}); code != http.StatusBadRequest {
		t.Errorf("invalid status: %d", code)
	}

	code, p = s.do(http.MethodPost, path+"/tasks/"+firstID+"/move", alice, map[string]any{
		"sourceStatus": "pending", "targetStatus": "completed", "sourceIndex": 0, "targetIndex": 0,
	})
	if code != http.StatusOK || p["progress"] != float64(50) || p["status"] != "Nearly Complete" || p["tone"] != "blue" {
		t.Errorf("move: %d progress=%v status=%v tone=%v", code, p["progress"], p["status"], p["tone"])
	}
	columns := p["columns"].(map[string]any)
	if len(columns["completed"].([]any)) != 1 || len(columns["pending"].([]any)) != 0 {
		t.Errorf("columns = %v", columns)
	}

	code, list := s.do(http.MethodGet, "/projects", bob, nil)
	if code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}
	summary := list["summary"].(map[string]any)
	if summary["total"] != float64(1) || summary["nearlyComplete"] != float64(1) {
		t.Errorf("summary = %v", summary)
	}

	code, p = s.do(http.MethodPatch, path, alice, map[string]string{"name": "Launch"})
	if code != http.StatusOK || p["name"] != "Launch" {
		t.Errorf("rename: %d %v", code, p["name"])
	}
	if code, _ := s.do(http.MethodPatch, path, alice, map[string]string{"name": "  "}); code != http.StatusBadRequest {
		t.Errorf("blank rename: %d", code)
	}

	if code, _ := s.do(http.MethodDelete, path+"/tasks/"+firstID, alice, nil); code != http.StatusPreconditionRequired {
		t.Errorf("unconfirmed task delete: %d", code)
	}
	code, p = s.do(http.MethodDelete, path+"/tasks/"+firstID+"?confirm=true", alice, nil)
	if code != http.StatusOK || p["progress"] != float64(0) {
		t.Errorf("task delete: %d progress=%v", code, p["progress"])
	}

	if code, _ := s.do(http.MethodDelete, path, alice, nil); code != http.StatusPreconditionRequired {
		t.Errorf("unconfirmed delete: %d", code)
	}
	if code, _ := s.do(http.MethodDelete, path+"?confirm=true", alice, nil); code != http.StatusOK {
		t.Errorf("delete: %d", code)
	}
	if code, _ := s.do(http.MethodGet, path, alice, nil); code != http.StatusNotFound {
		t.Errorf("after delete: %d", code)
	}
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestRouter_WatchStream(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.signIn("alice-token")
	bob, _ := s.signIn("bob-token")

	_, created := s.do(http.MethodPost, "/projects", alice, map[string]string{"name": "Live"})
	id := created["id"].(string)
	s.do(http.MethodPost, "/projects/"+id+"/members", alice, map[string]string{"email": "bob@example.com"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.srv.URL+"/projects/"+id+"/watch", nil)
	req.Header.Set("Authorization", "Bearer "+bob)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("watch status = %d", resp.StatusCode)
	}
	stream := bufio.NewReader(resp.Body)

	name, data := readEvent(t, stream)
	if name != "snapshot" || !strings.Contains(data, `"name":"Live"`) {
		t.Fatalf("first event = %s %s", name, data)
	}

	s.do(http.MethodPost, "/projects/"+id+"/tasks", alice, map[string]string{"name": "pushed"})
	name, data = readEvent(t, stream)
	if name != "snapshot" || !strings.Contains(data, `"name":"pushed"`) {
		t.Fatalf("update event = %s %s", name, data)
	}

	s.do(http.MethodDelete, "/projects/"+id+"?confirm=true", alice, nil)
	name, _ = readEvent(t, stream)
	if name != "not-found" {
		t.Fatalf("event = %s, want not-found", name)
	}
}
