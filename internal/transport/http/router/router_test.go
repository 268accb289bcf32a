package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// ---------- fakes ----------

type fakeHealth struct{}

func (fakeHealth) Healthz(w http.ResponseWriter, r *http.Request) { write(w, 200, "ok") }
func (fakeHealth) Readyz(w http.ResponseWriter, r *http.Request)  { write(w, 200, "ready") }

type fakeAccount struct{}

func write(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}

func (fakeAccount) Register(w http.ResponseWriter, r *http.Request)     { write(w, 201, "create") }
func (fakeAccount) VerifyByCode(w http.ResponseWriter, r *http.Request) { write(w, 200, "verify") }
func (fakeAccount) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	write(w, 200, "send_verification")
}
func (fakeAccount) VerifyByToken(w http.ResponseWriter, r *http.Request) { write(w, 200, "verify_email") }
func (fakeAccount) Login(w http.ResponseWriter, r *http.Request)         { write(w, 200, "login") }
func (fakeAccount) ForgotPassword(w http.ResponseWriter, r *http.Request) { write(w, 200, "forgot") }
func (fakeAccount) ResetPassword(w http.ResponseWriter, r *http.Request)  { write(w, 200, "reset") }
func (fakeAccount) GetProfile(w http.ResponseWriter, r *http.Request)     { write(w, 200, "get") }
func (fakeAccount) UpdateProfile(w http.ResponseWriter, r *http.Request)  { write(w, 200, "update") }

// denyAll stands in for the session middleware.
func denyAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			write(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newTestRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	h, err := New(deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func serve(h http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatal("expected error for nil health")
	}
	if _, err := New(Deps{Health: fakeHealth{}}); err == nil {
		t.Fatal("expected error for nil account handler")
	}
	if _, err := New(Deps{Health: fakeHealth{}, Account: fakeAccount{}}); err == nil {
		t.Fatal("expected error for nil auth middleware")
	}
}

func TestRoutes(t *testing.T) {
	h := newTestRouter(t, Deps{Health: fakeHealth{}, Account: fakeAccount{}, AuthMW: denyAll})

	cases := []struct {
		method, path, auth string
		status             int
		body               string
	}{
		{http.MethodGet, "/healthz", "", 200, "ok"},
		{http.MethodGet, "/readyz", "", 200, "ready"},
		{http.MethodPost, "/api/user/create", "", 201, "create"},
		{http.MethodGet, "/api/user/verify/12345", "", 200, "verify"},
		{http.MethodPost, "/api/user/send-verification-email", "", 200, "send_verification"},
		{http.MethodGet, "/api/user/verify-email/abc", "", 200, "verify_email"},
		{http.MethodPost, "/api/user/login", "", 200, "login"},
		{http.MethodPost, "/api/user/forgot/password", "", 200, "forgot"},
		{http.MethodPut, "/api/user/password/reset/abc", "", 200, "reset"},
		{http.MethodGet, "/api/user/getUsers", "", 401, "unauthorized"},
		{http.MethodGet, "/api/user/getUsers", "Bearer x", 200, "get"},
		{http.MethodGet, "/api/user/getUsers/u2", "Bearer x", 200, "get"},
		{http.MethodPatch, "/api/user/updateUser", "", 401, "unauthorized"},
		{http.MethodPatch, "/api/user/updateUser/u2", "Bearer x", 200, "update"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := serve(h, tc.method, tc.path, tc.auth)
			if rr.Code != tc.status {
				t.Fatalf("status=%d want %d", rr.Code, tc.status)
			}
			if rr.Body.String() != tc.body {
				t.Fatalf("body=%q want %q", rr.Body.String(), tc.body)
			}
		})
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, Deps{Health: fakeHealth{}, Account: fakeAccount{}, AuthMW: denyAll})

	rr := serve(h, http.MethodGet, "/api/user/login", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, Deps{Health: fakeHealth{}, Account: fakeAccount{}, AuthMW: denyAll})

	rr := serve(h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestRateLimitersApplyToExpectedRoutes(t *testing.T) {
	var global, auth int
	count := func(n *int) Mw {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				*n++
				next.ServeHTTP(w, r)
			})
		}
	}
	h := newTestRouter(t, Deps{
		Health: fakeHealth{}, Account: fakeAccount{}, AuthMW: denyAll,
		GlobalRL: count(&global), AuthRL: count(&auth),
	})

	serve(h, http.MethodGet, "/healthz", "")
	serve(h, http.MethodPost, "/api/user/login", "")
	serve(h, http.MethodGet, "/api/user/verify/1", "")

	if global != 2 {
		t.Fatalf("global limiter hits=%d want 2", global)
	}
	if auth != 1 {
		t.Fatalf("auth limiter hits=%d want 1", auth)
	}
}
