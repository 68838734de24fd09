package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/handler"
	"github.com/msomdec/design-gallery/internal/repository/sqlite"
	"github.com/msomdec/design-gallery/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testEnv struct {
	srv     *httptest.Server
	db      *sqlite.DB
	auth    *service.AuthService
	designs *service.DesignService
	editor  *service.EditorService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db}
	env.auth = service.NewAuthService(db.Users(), testJWTSecret, 4)
	env.designs = service.NewDesignService(db.Designs(), db.FileStore())
	env.editor = service.NewEditorService(env.designs, time.Hour)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, env.auth, env.designs, env.editor, db.FileStore(), db,
		service.NewTokenBucket(100, 100), service.NewTokenBucket(100, 100), false)
	env.srv = httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(env.srv.Close)
	return env
}

// newClient returns an HTTP client with its own cookie jar that does not
// follow redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postJSON(t *testing.T, c *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := c.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// signIn registers a user with the given role through the API, logs in with
// c and returns the user and bearer token.
func (env *testEnv) signIn(t *testing.T, c *http.Client, email string, role domain.Role) (*domain.User, string) {
	t.Helper()
	ctx := context.Background()

	// Admins cannot self-register; promote a user instead.
	if role == domain.RoleAdmin {
		u, err := env.auth.Register(ctx, email, email, "password123", "password123", domain.RoleUser)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if _, err := env.auth.GrantRole(ctx, u.Email, domain.RoleAdmin); err != nil {
			t.Fatalf("promote admin: %v", err)
		}
	} else {
		resp := postJSON(t, c, env.srv.URL+"/api/auth/register", map[string]string{
			"email": email, "displayName": email, "password": "password123",
			"confirmPassword": "password123", "role": string(role),
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("register %s: expected 201, got %d", email, resp.StatusCode)
		}
	}

	resp := postJSON(t, c, env.srv.URL+"/api/auth/login", map[string]string{
		"email": email, "password": "password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", email, resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, resp, &out)

	u, err := env.db.Users().GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	return u, out.Token
}

type upload struct {
	field, name, contentType string
	data                     []byte
}

func multipartBody(t *testing.T, uploads []upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, u := range uploads {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+u.field+`"; filename="`+u.name+`"`)
		h.Set("Content-Type", u.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(u.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-png-body")
