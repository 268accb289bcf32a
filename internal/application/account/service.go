package account

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/baechuer/account-service/internal/domain"
)

const (
	defaultSessionTTL      = time.Hour
	defaultTokenTTL        = 10 * time.Minute
	defaultMailSendTimeout = 10 * time.Second
	defaultAvatarFolder    = "avatars"
)

type Service struct {
	repo    AccountRepo
	creds   *Credentials
	secrets SecretGenerator
	signer  SessionIssuer
	mailer  Mailer
	avatars AvatarStore

	sessionTTL  time.Duration
	tokenTTL    time.Duration
	codeTTL     time.Duration
	lockout     domain.LockoutPolicy
	mailTimeout time.Duration

	// Links sent by email are built as <frontendBaseURL>/<path>/<secret>.
	frontendBaseURL string
	avatarFolder    string

	audit func(action string, fields map[string]string)
	now   func() time.Time

	// in-flight async sends (registration email)
	inflight sync.WaitGroup
}

type Config struct {
	SessionTTL          time.Duration
	TokenTTL            time.Duration
	VerificationCodeTTL time.Duration // 0 disables code expiry
	Lockout             domain.LockoutPolicy
	FrontendBaseURL     string
	AvatarFolder        string
	MailSendTimeout     time.Duration
}

func NewService(
	repo AccountRepo,
	hasher PasswordHasher,
	secrets SecretGenerator,
	signer SessionIssuer,
	mailer Mailer,
	avatars AvatarStore,
	cfg Config,
) *Service {
	auditFn := func(string, map[string]string) {}

	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	codeTTL := cfg.VerificationCodeTTL
	if codeTTL < 0 {
		codeTTL = 0
	}
	mailTimeout := cfg.MailSendTimeout
	if mailTimeout <= 0 {
		mailTimeout = defaultMailSendTimeout
	}
	folder := strings.Trim(cfg.AvatarFolder, "/")
	if folder == "" {
		folder = defaultAvatarFolder
	}

	return &Service{
		repo:    repo,
		creds:   NewCredentials(repo, hasher),
		secrets: secrets,
		signer:  signer,
		mailer:  mailer,
		avatars: avatars,

		sessionTTL:  sessionTTL,
		tokenTTL:    tokenTTL,
		codeTTL:     codeTTL,
		lockout:     cfg.Lockout.Normalize(),
		mailTimeout: mailTimeout,

		frontendBaseURL: strings.TrimRight(cfg.FrontendBaseURL, "/"),
		avatarFolder:    folder,

		audit: auditFn,
		now:   time.Now,
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// WithClock overrides the time source. Tests use it to step across expiries.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Wait blocks until every asynchronous email send has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// LoginResult is the common output for handlers/DTO mapping.
type LoginResult struct {
	Profile   domain.Profile
	Token     string
	TokenType string // "Bearer"
	ExpiresIn int64  // seconds
}

// link builds <frontendBaseURL>/<path>/<secret>.
func (s *Service) link(path, secret string) string {
	return s.frontendBaseURL + "/" + strings.Trim(path, "/") + "/" + url.PathEscape(secret)
}

// dispatchAsync sends msg without blocking the caller. The request context
// only contributes values; cancellation is detached and bounded by mailTimeout.
func (s *Service) dispatchAsync(ctx context.Context, msg EmailMessage, onErr func(error)) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
		defer cancel()

		if err := s.mailer.Send(sendCtx, msg); err != nil && onErr != nil {
			onErr(err)
		}
	}()
}

// send delivers msg synchronously within mailTimeout.
func (s *Service) send(ctx context.Context, msg EmailMessage) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()
	return s.mailer.Send(sendCtx, msg)
}

func isAccountNotFound(err error) bool {
	return domain.Is(err, "account_not_found")
}
