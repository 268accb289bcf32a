package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/account-service/internal/transport/http/middleware"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AccountHandler interface {
	// Registration & verification
	Register(w http.ResponseWriter, r *http.Request)
	VerifyByCode(w http.ResponseWriter, r *http.Request)
	SendVerificationEmail(w http.ResponseWriter, r *http.Request)
	VerifyByToken(w http.ResponseWriter, r *http.Request)

	// Login
	Login(w http.ResponseWriter, r *http.Request)

	// Password reset
	ForgotPassword(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)

	// Profile (session required)
	GetProfile(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
}

type Mw = func(http.Handler) http.Handler

type Deps struct {
	Health  HealthHandler
	Account AccountHandler

	AuthMW Mw

	// Optional; nil means pass-through.
	CORS      Mw
	BodyLimit Mw
	GlobalRL  Mw // every /api request
	AuthRL    Mw // login, create, forgot/reset, send-verification
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Account == nil {
		return nil, fmt.Errorf("nil Account handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(orPass(deps.CORS))

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/user", func(r chi.Router) {
		r.Use(orPass(deps.GlobalRL))
		r.Use(orPass(deps.BodyLimit))

		authRL := orPass(deps.AuthRL)

		// --- Registration & verification ---
		r.With(authRL).Post("/create", deps.Account.Register)
		r.Get("/verify/{code}", deps.Account.VerifyByCode)
		r.With(authRL).Post("/send-verification-email", deps.Account.SendVerificationEmail)
		r.Get("/verify-email/{token}", deps.Account.VerifyByToken)

		// --- Login ---
		r.With(authRL).Post("/login", deps.Account.Login)

		// --- Password reset ---
		r.With(authRL).Post("/forgot/password", deps.Account.ForgotPassword)
		r.With(authRL).Put("/password/reset/{token}", deps.Account.ResetPassword)

		// --- Profile ---
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMW)
			r.Get("/getUsers", deps.Account.GetProfile)
			r.Get("/getUsers/{id}", deps.Account.GetProfile)
			r.Patch("/updateUser", deps.Account.UpdateProfile)
			r.Patch("/updateUser/{id}", deps.Account.UpdateProfile)
		})
	})

	return r, nil
}

func orPass(mw Mw) Mw {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
