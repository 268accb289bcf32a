package http_handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/account-service/internal/application/account"
	"github.com/baechuer/account-service/internal/domain"
	"github.com/baechuer/account-service/internal/logger"
	"github.com/baechuer/account-service/internal/transport/http/dto"
	"github.com/baechuer/account-service/internal/transport/http/middleware"
	"github.com/baechuer/account-service/internal/transport/http/response"
)

// multipart parts beyond this are spooled to disk by net/http
const multipartMemory = 5 << 20

type AccountHandler struct {
	svc *account.Service
}

func NewAccountHandler(svc *account.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// POST /api/user/create
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	p, err := h.svc.Register(r.Context(), req.Input())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Str("user_id", p.ID).Msg("user_registered")

	response.Created(w, dto.RegisterResponse{
		Message: "User registered. Please check your email to verify your account.",
		User:    dto.NewUserView(p),
	})
}

// GET /api/user/verify/{code}
func (h *AccountHandler) VerifyByCode(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.VerifyByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.RegisterResponse{Message: "Email verified successfully", User: dto.NewUserView(p)})
}

// POST /api/user/send-verification-email
func (h *AccountHandler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.RequestVerificationToken(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.MessageResponse{Message: "Email sent to " + req.Email})
}

// GET /api/user/verify-email/{token}
func (h *AccountHandler) VerifyByToken(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.VerifyByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.RegisterResponse{Message: "Email verified successfully", User: dto.NewUserView(p)})
}

// POST /api/user/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	middleware.LoginAttemptsTotal.WithLabelValues(loginOutcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.NewLoginResponse(res))
}

func loginOutcome(err error) string {
	if err == nil {
		return "success"
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "error"
}

// POST /api/user/forgot/password
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.MessageResponse{Message: "Email sent to " + req.Email})
}

// PUT /api/user/password/reset/{token}
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.MessageResponse{Message: "Password updated"})
}

// GET /api/user/getUsers and /api/user/getUsers/{id}
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := targetAccountID(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	p, err := h.svc.GetProfile(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserView(p))
}

// PATCH /api/user/updateUser and /api/user/updateUser/{id}
// Accepts JSON, or multipart/form-data with an optional "avatar" file part.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := targetAccountID(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	var (
		req    dto.UpdateProfileRequest
		avatar *account.AvatarFile
	)
	if isMultipart(r) {
		file, cleanup, err := decodeMultipartProfile(r, &req)
		if err != nil {
			response.WriteError(w, r, err)
			return
		}
		defer cleanup()
		avatar = file
	} else if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	p, err := h.svc.UpdateProfile(r.Context(), id, req.Patch(), avatar)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserView(p))
}

// targetAccountID resolves whose profile a request addresses: the {id} path
// param when present, else the session's own account. Addressing another
// account needs the admin flag.
func targetAccountID(r *http.Request) (string, error) {
	self, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return "", domain.ErrTokenInvalid()
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" || id == self {
		return self, nil
	}
	if !middleware.IsAdminFromContext(r.Context()) {
		return "", domain.ErrForbidden()
	}
	return id, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func decodeMultipartProfile(r *http.Request, req *dto.UpdateProfileRequest) (*account.AvatarFile, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, domain.ErrInvalidField("body", "too large")
		}
		return nil, noop, domain.ErrInvalidField("body", "invalid multipart form")
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	values := r.MultipartForm.Value
	field := func(key string) *string {
		if v, ok := values[key]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}
	req.FirstName = field("fName")
	req.LastName = field("lName")
	req.Email = field("email")
	req.PhoneNumber = field("phoneNumber")
	req.Address = field("address")
	req.Avatar = field("avatar")

	f, hdr, err := r.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, cleanup, nil
	}
	if err != nil {
		cleanup()
		return nil, noop, domain.ErrInvalidField("avatar", "unreadable file")
	}

	// the uploaded file wins over an avatar URL field
	req.Avatar = nil
	return &account.AvatarFile{
			Filename:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Size:        hdr.Size,
			Body:        f,
		}, func() {
			_ = f.Close()
			cleanup()
		}, nil
}
