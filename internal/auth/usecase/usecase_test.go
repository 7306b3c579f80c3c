package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/config"
	"github.com/verifeed/accounts/internal/pkg/goerror"
	"github.com/verifeed/accounts/internal/pkg/goroutine"
	"github.com/verifeed/accounts/internal/pkg/idempotency"
	"github.com/verifeed/accounts/internal/pkg/instrument"
	"github.com/verifeed/accounts/internal/pkg/jwt"
	"github.com/verifeed/accounts/internal/pkg/validator"
)

var testNow = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

const testConfigYAML = `
modules:
  auth:
    otp_ttl_minutes: 5
    otp_max_attempts: 5
    otp_issue_lock_seconds: 60
    refresh_token_ttl_days: 30
    avatar_bucket: "avatars"
    avatar_base_url: "https://cdn.example.com/avatars"
    avatar_max_size_bytes: 2097152
`

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// fakeHash prefixes the plaintext so tests can assert on stored values.
type fakeHash struct{ err error }

func (h *fakeHash) Hash(plaintext string) ([]byte, error) {
	if h.err != nil {
		return nil, h.err
	}
	return []byte("h:" + plaintext), nil
}

func (h *fakeHash) Verify(hashed, plaintext string) bool {
	return hashed == "h:"+plaintext
}

type fakeGenerator struct {
	code string
	err  error
}

func (g *fakeGenerator) Generate() (string, error) { return g.code, g.err }

type fakeNumberID struct{ next int64 }

func (f *fakeNumberID) Generate() int64 {
	f.next++
	return f.next
}

type fakeStringID struct {
	prefix string
	next   int
}

func (f *fakeStringID) Generate() string {
	f.next++
	return fmt.Sprintf("%s-%d", f.prefix, f.next)
}

// fakeTokenID yields deterministic 64-char tokens, matching the length of the
// production opaque token generator.
type fakeTokenID struct{ next int }

func (f *fakeTokenID) Generate() string {
	f.next++
	return testToken(f.next)
}

func testToken(n int) string {
	return fmt.Sprintf("tok%061d", n)
}

type fakeJWT struct{ err error }

func (j *fakeJWT) Generate(uid int64, email string) (string, error) {
	if j.err != nil {
		return "", j.err
	}
	return fmt.Sprintf("jwt-%d", uid), nil
}

func (j *fakeJWT) Verify(string) (jwt.Claims, error) { return jwt.Claims{}, nil }

// fakeIdempotency mimics the redis SetNX semantics with an in-memory map.
type fakeIdempotency struct {
	mu       sync.Mutex
	held     map[string]idempotency.State
	acquires int
	releases []string
	err      error
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{held: map[string]idempotency.State{}}
}

func (f *fakeIdempotency) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return idempotency.StateError, f.err
	}

	f.acquires++
	if state, ok := f.held[key]; ok {
		return state, nil
	}
	f.held[key] = idempotency.StateInProgress

	return idempotency.StateNone, nil
}

func (f *fakeIdempotency) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releases = append(f.releases, key)
	delete(f.held, key)

	return nil
}

func (f *fakeIdempotency) MarkCompleted(context.Context, string, time.Duration) error { return nil }
func (f *fakeIdempotency) MarkFailed(context.Context, string, time.Duration) error    { return nil }
func (f *fakeIdempotency) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...idempotency.Option) error {
	return fn(ctx)
}

type fakeMail struct {
	sent []SendOtpCodeInput
	err  error
}

func (m *fakeMail) SendOtpCode(_ context.Context, in SendOtpCodeInput) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, in)
	return nil
}

type fakeMessaging struct {
	published []OtpVerifiedEvent
	err       error
}

func (m *fakeMessaging) PublishOtpVerified(_ context.Context, msg OtpVerifiedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

type tokenRow struct {
	entity.RefreshToken
	revoked    bool
	replacedBy *int64
}

// memRepo is an in-memory repoDB with the same conditional-update semantics as
// the postgres implementation.
type memRepo struct {
	users      map[int64]*entity.UserLoginInfo
	challenges map[int64]*entity.OtpChallenge
	tokens     map[int64]*tokenRow
	activated  []int64

	replaceErr error
	consumeErr error
}

func newMemRepo(users ...*entity.UserLoginInfo) *memRepo {
	r := &memRepo{
		users:      map[int64]*entity.UserLoginInfo{},
		challenges: map[int64]*entity.OtpChallenge{},
		tokens:     map[int64]*tokenRow{},
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memRepo) GetUserLoginInfoByEmail(_ context.Context, email string) (*entity.UserLoginInfo, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *memRepo) GetUserLoginInfoByUsername(_ context.Context, username string) (*entity.UserLoginInfo, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *memRepo) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return &entity.User{
				ID:           u.ID,
				Username:     u.Username,
				Email:        u.Email,
				FullName:     u.FullName,
				TwoFAEnabled: u.TwoFAEnabled,
				Status:       u.Status,
			}, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *memRepo) GetUserRefreshToken(_ context.Context, token string) (*entity.UserRefreshToken, error) {
	for _, row := range r.tokens {
		if row.Token == token {
			u, ok := r.users[row.UserID]
			if !ok {
				return nil, goerror.ErrNotFound
			}
			return &entity.UserRefreshToken{
				RefreshID:                row.ID,
				RefreshRevoked:           row.revoked,
				RefreshReplacedByTokenID: row.replacedBy,
				RefreshExpiresAt:         row.ExpiresAt,
				UserID:                   u.ID,
				UserEmail:                u.Email,
				UserStatus:               u.Status,
			}, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *memRepo) GetActiveOtpChallenge(_ context.Context, userID int64, purpose entity.OtpPurpose) (*entity.OtpChallenge, error) {
	var latest *entity.OtpChallenge
	for _, ch := range r.challenges {
		if ch.UserID != userID || ch.Purpose != purpose || ch.IsUsed || !ch.ExpiresAt.After(testNow) {
			continue
		}
		if latest == nil || ch.CreatedAt.After(latest.CreatedAt) {
			latest = ch
		}
	}
	if latest == nil {
		return nil, goerror.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *memRepo) NewUser(_ context.Context, user entity.NewUser, hash string) error {
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return goerror.ErrConflict
		}
	}
	r.users[user.ID] = &entity.UserLoginInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Status:   user.Status,
		Password: hash,
	}
	return nil
}

func (r *memRepo) ReplaceOtpChallenge(_ context.Context, in entity.OtpChallenge) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	for _, ch := range r.challenges {
		if ch.UserID == in.UserID && ch.Purpose == in.Purpose && !ch.IsUsed {
			ch.IsUsed = true
		}
	}
	cp := in
	r.challenges[in.ID] = &cp
	return nil
}

func (r *memRepo) IncrementOtpFailedAttempts(_ context.Context, id int64, maxAttempts int16) (int16, error) {
	ch, ok := r.challenges[id]
	if !ok || ch.IsUsed || ch.FailedAttempts >= maxAttempts {
		return 0, goerror.ErrNotFound
	}
	ch.FailedAttempts++
	return ch.FailedAttempts, nil
}

func (r *memRepo) ConsumeOtpChallenge(_ context.Context, id int64, maxAttempts int16) error {
	if r.consumeErr != nil {
		return r.consumeErr
	}
	ch, ok := r.challenges[id]
	if !ok || ch.IsUsed || ch.FailedAttempts >= maxAttempts || !ch.ExpiresAt.After(testNow) {
		return goerror.ErrNotFound
	}
	ch.IsUsed = true
	return nil
}

func (r *memRepo) CreateRefreshToken(_ context.Context, in entity.RefreshToken) error {
	r.tokens[in.ID] = &tokenRow{RefreshToken: in}
	return nil
}

func (r *memRepo) RotateRefreshToken(_ context.Context, ro entity.RotateRefreshToken) error {
	old, ok := r.tokens[ro.OldID]
	if !ok || old.revoked {
		return goerror.ErrNotFound
	}
	old.revoked = true
	old.replacedBy = &ro.NewID
	r.tokens[ro.NewID] = &tokenRow{RefreshToken: entity.RefreshToken{
		ID:        ro.NewID,
		UserID:    ro.UserID,
		Token:     ro.NewToken,
		ExpiresAt: ro.NewExpiresAt,
	}}
	return nil
}

func (r *memRepo) RevokeRefreshToken(_ context.Context, token string) error {
	for _, row := range r.tokens {
		if row.Token == token {
			row.revoked = true
		}
	}
	return nil
}

func (r *memRepo) RevokeAllRefreshToken(_ context.Context, userID int64) error {
	for _, row := range r.tokens {
		if row.UserID == userID {
			row.revoked = true
		}
	}
	return nil
}

func (r *memRepo) UpdateUserTwoFA(_ context.Context, userID int64, enabled bool) error {
	u, ok := r.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	u.TwoFAEnabled = enabled
	return nil
}

func (r *memRepo) ActivateUser(_ context.Context, userID int64) error {
	u, ok := r.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	if u.Status == entity.UserStatusUnverified {
		u.Status = entity.UserStatusActive
	}
	r.activated = append(r.activated, userID)
	return nil
}

func (r *memRepo) UpdateUserAvatar(_ context.Context, id int64, avatarURL string) error { return nil }

func (r *memRepo) UpdateUserCredential(_ context.Context, userID int64, hash string) error {
	u, ok := r.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	u.Password = hash
	return nil
}

type testEnv struct {
	uc    *Usecase
	repo  *memRepo
	mail  *fakeMail
	msg   *fakeMessaging
	idemp *fakeIdempotency
	otp   *fakeGenerator
	gm    *goroutine.Manager
}

func newTestEnv(t *testing.T, users ...*entity.UserLoginInfo) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("build config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}

	env := &testEnv{
		repo:  newMemRepo(users...),
		mail:  &fakeMail{},
		msg:   &fakeMessaging{},
		idemp: newFakeIdempotency(),
		otp:   &fakeGenerator{code: "123456"},
		gm:    goroutine.NewManager(4),
	}

	env.uc = New(Dependency{
		RepoDB:        env.repo,
		RepoMessaging: env.msg,
		RepoMail:      env.mail,
		Idempotency:   env.idemp,
		Validator:     v10,
		Config:        cfg,
		HMAC:          &fakeHash{},
		Password:      &fakeHash{},
		OtpCode:       env.otp,
		UID:           &fakeNumberID{},
		UUID:          &fakeStringID{prefix: "uuid"},
		OID:           &fakeTokenID{},
		Clock:         &fakeClock{now: testNow},
		JWT:           &fakeJWT{},
		Instrument:    instrument.NewNoop(),
		Goroutine:     env.gm,
	})

	return env
}

func activeUser(id int64, twoFA bool) *entity.UserLoginInfo {
	return &entity.UserLoginInfo{
		ID:           id,
		Username:     "janedoe",
		Email:        "jane.doe@example.com",
		FullName:     "Jane Doe",
		TwoFAEnabled: twoFA,
		Status:       entity.UserStatusActive,
		Password:     "h:Secret123!",
	}
}

func assertBusinessCode(t *testing.T, err error, want goerror.Code) *goerror.Error {
	t.Helper()

	if err == nil {
		t.Fatal("expected an error, got nil")
	}

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	if gerr.Code() != want {
		t.Fatalf("expected code %v, got %v (message %q)", want, gerr.Code(), gerr.Msg())
	}

	return gerr
}

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"jane.doe@example.com", "jan***@example.com"},
		{"ab@example.com", "ab***@example.com"},
		{"abc@example.com", "abc***@example.com"},
		{"not-an-email", "not-an-email"},
	}

	for _, tc := range cases {
		if got := maskEmail(tc.in); got != tc.want {
			t.Errorf("maskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
