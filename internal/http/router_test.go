package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dm-backend/internal/auth"
	"github.com/tbourn/go-dm-backend/internal/blob"
	"github.com/tbourn/go-dm-backend/internal/config"
	"github.com/tbourn/go-dm-backend/internal/repo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	return config.Config{
		Port:      "0",
		GinMode:   "test",
		RateRPS:   1000,
		RateBurst: 1000,
		Auth: config.AuthConfig{
			JWTSecret: "router-test-secret",
			TokenTTL:  time.Hour,
		},
		OTEL: config.OTELConfig{ServiceName: "go-dm-backend"},
	}
}

// newEngine wires a full router over a throwaway database and upload dir.
func newEngine(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	blobs, err := blob.NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	cfg := testConfig()
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	r := gin.New()
	RegisterRoutes(r, db, blobs, tokens, cfg)
	return r
}

func request(r *gin.Engine, method, target, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r := newEngine(t)
	if w := request(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health = %d, want 200", w.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newEngine(t)
	if w := request(r, http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK {
		t.Fatalf("metrics = %d, want 200", w.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	r := newEngine(t)
	w := request(r, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("not_found")) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRouter_GuardedRoutesNeedToken(t *testing.T) {
	r := newEngine(t)
	for _, target := range []string{"/user/me", "/user?search=x", "/chat/all"} {
		if w := request(r, http.MethodGet, target, "", nil); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s = %d, want 401", target, w.Code)
		}
	}
	if w := request(r, http.MethodPost, "/chat/create", "", gin.H{"contactId": "x"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("chat/create = %d, want 401", w.Code)
	}
}

// TestRouter_AuthMount pins the public account routes under /auth; the old
// /user prefix must not answer them.
func TestRouter_AuthMount(t *testing.T) {
	r := newEngine(t)

	body := gin.H{"username": "zoe", "email": "zoe@example.com", "password": "pw"}
	if w := request(r, http.MethodPost, "/auth/signup", "", body); w.Code != http.StatusOK {
		t.Fatalf("POST /auth/signup = %d: %s", w.Code, w.Body.String())
	}
	if w := request(r, http.MethodPost, "/user/signup", "", body); w.Code != http.StatusNotFound {
		t.Fatalf("POST /user/signup = %d, want 404", w.Code)
	}
	login := gin.H{"email": "zoe@example.com", "password": "pw"}
	if w := request(r, http.MethodPost, "/auth/login", "", login); w.Code != http.StatusOK {
		t.Fatalf("POST /auth/login = %d: %s", w.Code, w.Body.String())
	}
}

// TestRouter_SignupLoginFlow drives the full account lifecycle through the
// wired stack: signup, login, then an authenticated profile fetch and chat
// creation against a second account.
func TestRouter_SignupLoginFlow(t *testing.T) {
	r := newEngine(t)

	w := request(r, http.MethodPost, "/auth/signup", "",
		gin.H{"username": "alice", "email": "alice@example.com", "password": "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("signup = %d: %s", w.Code, w.Body.String())
	}

	w = request(r, http.MethodPost, "/auth/signup", "",
		gin.H{"username": "bob", "email": "bob@example.com", "password": "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("signup bob = %d: %s", w.Code, w.Body.String())
	}
	var bobEnv struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &bobEnv); err != nil {
		t.Fatalf("decode bob: %v", err)
	}
	if bobEnv.Data.ID == "" {
		t.Fatal("signup data must be the created account")
	}

	w = request(r, http.MethodPost, "/auth/login", "",
		gin.H{"email": "alice@example.com", "password": "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", w.Code, w.Body.String())
	}
	var loginEnv struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &loginEnv); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	token := loginEnv.Data.Token
	if token == "" {
		t.Fatal("login returned no token")
	}

	if w = request(r, http.MethodGet, "/user/me", token, nil); w.Code != http.StatusOK {
		t.Fatalf("me = %d: %s", w.Code, w.Body.String())
	}

	w = request(r, http.MethodPost, "/chat/create", token, gin.H{"contactId": bobEnv.Data.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("chat create = %d: %s", w.Code, w.Body.String())
	}

	// Duplicate pair is rejected.
	w = request(r, http.MethodPost, "/chat/create", token, gin.H{"contactId": bobEnv.Data.ID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate chat = %d, want 400", w.Code)
	}

	// The directory now shows the chat as a bare array, with an ETag for
	// revalidation.
	w = request(r, http.MethodGet, "/chat/all", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("chat/all = %d: %s", w.Code, w.Body.String())
	}
	var listEnv struct {
		Data []struct {
			ContactID string `json:"contactId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listEnv); err != nil {
		t.Fatalf("decode chat/all: %v", err)
	}
	if len(listEnv.Data) != 1 || listEnv.Data[0].ContactID != bobEnv.Data.ID {
		t.Fatalf("chat/all data = %+v, want one chat with bob", listEnv.Data)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("chat/all must answer with an ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/chat/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusNotModified {
		t.Fatalf("revalidation = %d, want 304", w2.Code)
	}
}
