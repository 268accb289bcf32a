package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/baechuer/account-service/internal/application/account"
	"github.com/baechuer/account-service/internal/infrastructure/memory"
	"github.com/baechuer/account-service/internal/infrastructure/security"
	"github.com/baechuer/account-service/internal/transport/http/middleware"
	"github.com/baechuer/account-service/internal/transport/http/response"
	"github.com/baechuer/account-service/internal/transport/http/router"
)

// ---- fakes ----

type captureMailer struct {
	mu   sync.Mutex
	sent []account.EmailMessage
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg account.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// lastLinkSecret returns the final path segment of the link in the most
// recent mail with the given subject.
func (m *captureMailer) lastLinkSecret(t *testing.T, subject string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Subject == subject {
			body := strings.TrimSpace(m.sent[i].Body)
			return body[strings.LastIndex(body, "/")+1:]
		}
	}
	t.Fatalf("no mail with subject %q", subject)
	return ""
}

type fakeAvatars struct {
	uploaded []string
	deleted  []string
}

func (f *fakeAvatars) Upload(_ context.Context, file account.AvatarFile, folder string) (string, error) {
	_, _ = io.Copy(io.Discard, file.Body)
	f.uploaded = append(f.uploaded, file.Filename)
	return "https://cdn.example.com/" + folder + "/" + file.Filename, nil
}

func (f *fakeAvatars) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

// ---- harness ----

type testServer struct {
	h       http.Handler
	repo    *memory.AccountRepo
	mailer  *captureMailer
	avatars *fakeAvatars
	svc     *account.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := memory.NewAccountRepo()
	mailer := &captureMailer{}
	avatars := &fakeAvatars{}
	svc := account.NewService(
		repo,
		security.NewBcryptHasher(4),
		security.NewSecrets(),
		security.NewJWTSigner("test-secret", "account-service"),
		mailer,
		avatars,
		account.Config{FrontendBaseURL: "http://app.test"},
	)
	t.Cleanup(svc.Wait)

	h, err := router.New(router.Deps{
		Health:  NewHealthHandler(nil),
		Account: NewAccountHandler(svc),
		AuthMW:  middleware.Auth(svc, response.WriteError),
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &testServer{h: h, repo: repo, mailer: mailer, avatars: avatars, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		r = mustJSONBody(t, body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.h.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) register(t *testing.T, email, password string) {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/user/create", map[string]string{
		"fName": "Ada", "lName": "Lovelace", "email": email, "phoneNumber": "555-0100", "password": password,
	}, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	s.svc.Wait()
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": email, "password": password}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	mustReadJSON(t, rr.Body, &out)
	return out.Token
}

// mustJSONBody marshals v to JSON and returns an io.Reader for request body.
func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

// mustReadJSON decodes the {"data": ...} envelope into out.
func mustReadJSON(t *testing.T, r io.Reader, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Data) == 0 {
		t.Fatalf("decode envelope failed; body=%s", string(raw))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v; body=%s", err, string(raw))
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) response.ErrorPayload {
	t.Helper()
	var body response.ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v; body=%s", err, rr.Body.String())
	}
	return body.Error
}
