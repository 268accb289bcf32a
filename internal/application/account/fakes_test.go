package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/account-service/internal/domain"
	"github.com/baechuer/account-service/internal/infrastructure/memory"
)

var _ AccountRepo = (*memory.AccountRepo)(nil)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Fakes for ports
*/

// fakeRepo is the in-memory store with injectable failures.
type fakeRepo struct {
	*memory.AccountRepo

	createErr        error
	getByEmailErr    error
	setResetErr      error
	clearResetErr    error
	clearVerifyErr   error
	updateErr        error
	recordFailureErr error

	clearResetCalls int
}

func (f *fakeRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	if f.createErr != nil {
		return domain.Account{}, f.createErr
	}
	return f.AccountRepo.Create(ctx, a)
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	if f.getByEmailErr != nil {
		return domain.Account{}, f.getByEmailErr
	}
	return f.AccountRepo.GetByEmail(ctx, email)
}

func (f *fakeRepo) SetResetToken(ctx context.Context, id, hash string, exp time.Time) error {
	if f.setResetErr != nil {
		return f.setResetErr
	}
	return f.AccountRepo.SetResetToken(ctx, id, hash, exp)
}

func (f *fakeRepo) ClearResetToken(ctx context.Context, id string) error {
	f.clearResetCalls++
	if f.clearResetErr != nil {
		return f.clearResetErr
	}
	return f.AccountRepo.ClearResetToken(ctx, id)
}

func (f *fakeRepo) ClearVerificationToken(ctx context.Context, id string) error {
	if f.clearVerifyErr != nil {
		return f.clearVerifyErr
	}
	return f.AccountRepo.ClearVerificationToken(ctx, id)
}

func (f *fakeRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfilePatch, now time.Time) (domain.Account, error) {
	if f.updateErr != nil {
		return domain.Account{}, f.updateErr
	}
	return f.AccountRepo.UpdateProfile(ctx, id, p, now)
}

func (f *fakeRepo) RecordLoginFailure(ctx context.Context, id string, p domain.LockoutPolicy, now time.Time) (domain.LoginState, error) {
	if f.recordFailureErr != nil {
		return domain.LoginState{}, f.recordFailureErr
	}
	return f.AccountRepo.RecordLoginFailure(ctx, id, p, now)
}

type fakeHasher struct {
	mu           sync.Mutex
	hashFn       func(pw string) (string, error)
	compareCalls int
}

func (h *fakeHasher) Hash(pw string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(pw)
	}
	return "hashed:" + pw, nil
}

func (h *fakeHasher) Compare(hash, pw string) error {
	h.mu.Lock()
	h.compareCalls++
	h.mu.Unlock()
	if hash != "hashed:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

func (h *fakeHasher) compares() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.compareCalls
}

type fakeSecrets struct {
	mu     sync.Mutex
	n      int
	code   int
	err    error
	tokens []string
}

func (s *fakeSecrets) VerificationCode() (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.code != 0 {
		return s.code, nil
	}
	return 12345, nil
}

func (s *fakeSecrets) OpaqueToken() (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	raw := fmt.Sprintf("raw-token-%d", s.n)
	s.tokens = append(s.tokens, raw)
	return raw, s.HashToken(raw), nil
}

func (s *fakeSecrets) HashToken(raw string) string { return "sha:" + raw }

func (s *fakeSecrets) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tokens) == 0 {
		return ""
	}
	return s.tokens[len(s.tokens)-1]
}

type fakeSigner struct {
	signErr error
	lastTTL time.Duration
}

func (f *fakeSigner) Sign(id string, admin bool, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	f.lastTTL = ttl
	return fmt.Sprintf("session:%s:%t", id, admin), nil
}

func (f *fakeSigner) Verify(tok string) (SessionClaims, error) {
	parts := strings.Split(tok, ":")
	if len(parts) != 3 || parts[0] != "session" {
		return SessionClaims{}, errors.New("bad token")
	}
	return SessionClaims{AccountID: parts[1], IsAdmin: parts[2] == "true"}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

type fakeAvatars struct {
	err       error
	deleteErr error
	folders   []string
	deleted   []string
}

func (f *fakeAvatars) Upload(ctx context.Context, file AvatarFile, folder string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.folders = append(f.folders, folder)
	return "https://cdn.example.com/" + folder + "/" + file.Filename, nil
}

func (f *fakeAvatars) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return f.deleteErr
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

/*
Harness
*/

type harness struct {
	svc     *Service
	repo    *fakeRepo
	hasher  *fakeHasher
	secrets *fakeSecrets
	signer  *fakeSigner
	mailer  *fakeMailer
	avatars *fakeAvatars
	clock   *fakeClock

	auditMu sync.Mutex
	audits  []auditEntry
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		repo:    &fakeRepo{AccountRepo: memory.NewAccountRepo()},
		hasher:  &fakeHasher{},
		secrets: &fakeSecrets{},
		signer:  &fakeSigner{},
		mailer:  &fakeMailer{},
		avatars: &fakeAvatars{},
		clock:   &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	h.svc = NewService(h.repo, h.hasher, h.secrets, h.signer, h.mailer, h.avatars, Config{
		FrontendBaseURL: "http://localhost:3000/",
	}).WithClock(h.clock.Now).WithAudit(func(action string, fields map[string]string) {
		h.auditMu.Lock()
		h.audits = append(h.audits, auditEntry{action: action, fields: fields})
		h.auditMu.Unlock()
	})

	t.Cleanup(h.svc.Wait)
	return h
}

func (h *harness) audited(action string) bool {
	h.auditMu.Lock()
	defer h.auditMu.Unlock()
	for _, a := range h.audits {
		if a.action == action {
			return true
		}
	}
	return false
}

// register creates a verified-or-not account with password "pw".
func (h *harness) register(t *testing.T, email string) domain.Profile {
	t.Helper()
	p, err := h.svc.Register(context.Background(), RegisterInput{
		FirstName: "Ann", LastName: "Lee", Email: email, PhoneNumber: "555-0100", Password: "pw",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	h.svc.Wait()
	return p
}

func requireErrCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error code=%q, got nil", code)
	}
	if !domain.Is(err, code) {
		t.Fatalf("expected code=%q, got err=%v", code, err)
	}
}

func requireKind(t *testing.T, err error, kind domain.ErrKind) {
	t.Helper()
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected domain error of kind %q, got %v", kind, err)
	}
	if de.Kind != kind {
		t.Fatalf("expected kind %q, got %q (%v)", kind, de.Kind, err)
	}
}
