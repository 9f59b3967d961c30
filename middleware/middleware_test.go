package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"projectboard/model"
	"projectboard/services"
)

type mockAuthenticator struct {
	AuthenticateFunc func(token string) (model.Identity, error)
}

func (m *mockAuthenticator) Authenticate(token string) (model.Identity, error) {
	return m.AuthenticateFunc(token)
}

type mockAccessor struct {
	AccessFunc func(ctx context.Context, id, email string) (*model.Project, error)
}

func (m *mockAccessor) Access(ctx context.Context, id, email string) (*model.Project, error) {
	return m.AccessFunc(ctx, id, email)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(auth Authenticator, projects ProjectAccessor) *gin.Engine {
	r := gin.New()
	r.GET("/refresh", RefreshTokenMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, RefreshToken(c))
	})
	authed := r.Group("/", AccessTokenMiddleware(auth))
	authed.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentIdentity(c).Email)
	})
	authed.GET("/projects/:id", ProjectAccess(projects), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentProject(c).Name)
	})
	return r
}

func TestAccessTokenMiddleware(t *testing.T) {
	auth := &mockAuthenticator{AuthenticateFunc: func(token string) (model.Identity, error) {
		if token != "valid" {
			return model.Identity{}, services.ErrInvalidToken
		}
		return model.Identity{UserID: "u1", Email: "a@x.io"}, nil
	}}
	r := newRouter(auth, nil)

	tests := []struct {
		name   string
		header string
		want   int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, `{"error":"Authorization header is missing"}`},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, `{"error":"Invalid token format"}`},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, `{"error":"token is expired or invalid"}`},
		{"valid token", "Bearer valid", http.StatusOK, "a@x.io"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if w.Body.String() != tt.body {
				t.Errorf("body = %s, want %s", w.Body.String(), tt.body)
			}
		})
	}
}

func TestRefreshTokenMiddleware(t *testing.T) {
	r := newRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
	req.Header.Set("Authorization", "Bearer refresh-value")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "refresh-value" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/refresh", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d", w.Code)
	}
}

func TestProjectAccess(t *testing.T) {
	auth := &mockAuthenticator{AuthenticateFunc: func(string) (model.Identity, error) {
		return model.Identity{UserID: "u1", Email: "a@x.io"}, nil
	}}
	projects := &mockAccessor{AccessFunc: func(_ context.Context, id, email string) (*model.Project, error) {
		if email != "a@x.io" {
			t.Errorf("email = %q", email)
		}
		switch id {
		case "mine":
			return &model.Project{ProjectID: id, Name: "Mine"}, nil
		case "theirs":
			return nil, services.ErrAccessDenied
		case "broken":
			return nil, errors.New("backend down")
		default:
			return nil, services.ErrProjectNotFound
		}
	}}
	r := newRouter(auth, projects)

	tests := []struct {
		id   string
		want int
		body string
	}{
		{"mine", http.StatusOK, "Mine"},
		{"theirs", http.StatusForbidden, `{"error":"You do not have permission to access this project"}`},
		{"gone", http.StatusNotFound, `{"error":"Project not found"}`},
		{"broken", http.StatusInternalServerError, `{"error":"Failed to load project"}`},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/projects/"+tt.id, nil)
			req.Header.Set("Authorization", "Bearer any")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want || w.Body.String() != tt.body {
				t.Errorf("got %d %s, want %d %s", w.Code, w.Body.String(), tt.want, tt.body)
			}
		})
	}
}
