package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kkuzmin/gabble/internal/adapters/ws"
	"github.com/kkuzmin/gabble/internal/app"
	"github.com/kkuzmin/gabble/internal/auth"
	"github.com/kkuzmin/gabble/internal/config"
	"github.com/kkuzmin/gabble/internal/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	timeout := 3 * time.Second
	users := store.NewUserStore(db, timeout)
	rooms := store.NewRoomStore(db, timeout)

	tokens := auth.NewTokenManager("test-secret", "gabble")
	svc := auth.NewService(users, auth.NewPasswordHasher(), tokens)

	reg := app.NewRegistry()
	coord := app.NewCoordinator(rooms, reg)
	disp := app.NewDispatcher(reg)
	ctl := ws.NewController(coord, reg, disp, ws.Options{})

	cfg := &config.Config{Mode: "release"}
	return SetupRouter(context.Background(), cfg, svc, tokens, coord, ctl)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func TestPing(t *testing.T) {
	r := newTestRouter(t)
	w, body := doJSON(t, r, http.MethodGet, "/ping", "", nil)
	if w.Code != http.StatusOK || body["message"] != "Server is running!" {
		t.Errorf("unexpected ping response: %d %v", w.Code, body)
	}
}

func TestRegister(t *testing.T) {
	r := newTestRouter(t)
	w, body := doJSON(t, r, http.MethodPost, "/register", "", map[string]string{
		"username":         "alice",
		"password":         "supersecret",
		"confirm_password": "supersecret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, body)
	}
	if body["username"] != "alice" || body["access_token"] == "" {
		t.Errorf("expected a token for alice, got %v", body)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name string
		req  map[string]string
		want string
	}{
		{
			name: "short username",
			req:  map[string]string{"username": "al", "password": "supersecret", "confirm_password": "supersecret"},
			want: "username length should be between 4 to 10 characters",
		},
		{
			name: "weak password",
			req:  map[string]string{"username": "alice", "password": "short", "confirm_password": "short"},
			want: "password length must be greater than 8",
		},
		{
			name: "mismatched confirmation",
			req:  map[string]string{"username": "alice", "password": "supersecret", "confirm_password": "different1"},
			want: "passwords must match",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := doJSON(t, r, http.MethodPost, "/register", "", tc.req)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if body["error"] != true || body["message"] != tc.want {
				t.Errorf("expected %q, got %v", tc.want, body)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRouter(t)
	req := map[string]string{"username": "alice", "password": "supersecret", "confirm_password": "supersecret"}

	if w, _ := doJSON(t, r, http.MethodPost, "/register", "", req); w.Code != http.StatusOK {
		t.Fatalf("first register failed: %d", w.Code)
	}
	_, body := doJSON(t, r, http.MethodPost, "/register", "", req)
	if body["error"] != true || body["message"] != "Username already exists!" {
		t.Errorf("expected duplicate notice, got %v", body)
	}
}

func TestLogin(t *testing.T) {
	r := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "password": "supersecret", "confirm_password": "supersecret",
	})

	_, body := doJSON(t, r, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "supersecret",
	})
	if body["access_token"] == "" || body["error"] == true {
		t.Errorf("expected successful login, got %v", body)
	}

	_, body = doJSON(t, r, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "wrongwrong",
	})
	if body["error"] != true || body["message"] != "Please check username or password!" {
		t.Errorf("expected credential notice, got %v", body)
	}
}

func TestRoomsRequiresAuth(t *testing.T) {
	r := newTestRouter(t)
	w, body := doJSON(t, r, http.MethodPost, "/rooms", "", nil)
	if w.Code != http.StatusUnauthorized || body["message"] != "Unauthorized" {
		t.Errorf("expected 401 Unauthorized, got %d %v", w.Code, body)
	}
}

func TestRoomsListing(t *testing.T) {
	r := newTestRouter(t)
	_, reg := doJSON(t, r, http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "password": "supersecret", "confirm_password": "supersecret",
	})
	token, _ := reg["access_token"].(string)
	if token == "" {
		t.Fatal("registration did not return a token")
	}

	w, body := doJSON(t, r, http.MethodPost, "/rooms", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, body)
	}
	// A fresh account sees empty groups, not nulls.
	if own, ok := body["own"].([]any); !ok || len(own) != 0 {
		t.Errorf("expected empty own list, got %v", body["own"])
	}
	if others, ok := body["others"].([]any); !ok || len(others) != 0 {
		t.Errorf("expected empty others list, got %v", body["others"])
	}
}
