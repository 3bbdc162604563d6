package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/session"
)

var (
	errNotReady      = errors.New("not ready")
	errWeak          = errors.New("weak")
	errDuplicate     = errors.New("duplicate")
	errInvalidCreds  = errors.New("invalid credentials")
	errInvalidToken  = errors.New("invalid token")
	errNotFound      = errors.New("not found")
	errForbidden     = errors.New("forbidden")
	errInternal      = errors.New("internal")
	errStoreDup      = errors.New("store duplicate")
	errStoreNotFound = errors.New("store not found")
	errStoreBadID    = errors.New("store invalid identity")
)

type fakeSessions struct {
	byToken   map[string]*session.Session
	issued    []string
	err       error
	revokeErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: map[string]*session.Session{}}
}

func (f *fakeSessions) add(token, userID string) {
	f.byToken[token] = &session.Session{ID: "sid-" + token, Token: token, UserID: userID}
}

func (f *fakeSessions) Issue(_ context.Context, userID string) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.issued = append(f.issued, userID)
	return &session.Session{ID: "new", Token: "tok", UserID: userID}, nil
}

func (f *fakeSessions) Validate(_ context.Context, token string) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byToken[token]
	if !ok {
		return nil, session.ErrInvalidToken
	}
	return s, nil
}

func (f *fakeSessions) Revoke(_ context.Context, token string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	if _, ok := f.byToken[token]; !ok {
		return session.ErrInvalidToken
	}
	delete(f.byToken, token)
	return nil
}

func (f *fakeSessions) RevokeAll(_ context.Context, userID string) (int, error) {
	if f.revokeErr != nil {
		return 0, f.revokeErr
	}
	n := 0
	for token, s := range f.byToken {
		if s.UserID == userID {
			delete(f.byToken, token)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) List(_ context.Context, userID string) ([]*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*session.Session
	for _, s := range f.byToken {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessions) Ping(context.Context) (time.Duration, error) {
	return time.Millisecond, f.err
}

type failureLog struct {
	ops []string
}

func (l *failureLog) log(_ context.Context, op string, _ error) {
	l.ops = append(l.ops, op)
}

type metricCounts map[int]int

func (m metricCounts) inc(id int) { m[id]++ }

func registerDeps(metrics metricCounts, log *failureLog) RegisterDeps {
	return RegisterDeps{
		MaxIdentityLength: 10,
		NormalizeIdentity: func(s string) string { return s },
		CheckPassword: func(p string) error {
			if len(p) < 4 {
				return errors.New("too short")
			}
			return nil
		},
		HashPassword: func(p string) (string, error) { return "h:" + p, nil },
		CreateUser: func(_ context.Context, identity, hash string) (UserRecord, error) {
			if identity == "taken" {
				return UserRecord{}, errStoreDup
			}
			return UserRecord{ID: "u1", Identity: identity, PasswordHash: hash}, nil
		},
		MetricInc:  metrics.inc,
		LogFailure: log.log,
		Metrics:    RegisterMetrics{RegisterSuccess: 1, RegisterDuplicate: 2, RegisterRejected: 3},
		Errors: RegisterErrors{
			EngineNotReady:       errNotReady,
			WeakCredential:       errWeak,
			DuplicateIdentity:    errDuplicate,
			Internal:             errInternal,
			StoreDuplicate:       errStoreDup,
			StoreInvalidIdentity: errStoreBadID,
		},
	}
}

func TestRunRegister(t *testing.T) {
	metrics := metricCounts{}
	log := &failureLog{}
	deps := registerDeps(metrics, log)

	user, err := RunRegister(context.Background(), "alice", "pass", deps)
	if err != nil {
		t.Fatalf("RunRegister error: %v", err)
	}
	if user.PasswordHash != "h:pass" {
		t.Fatalf("expected hashed password, got %q", user.PasswordHash)
	}

	cases := []struct {
		identity, password string
		want               error
	}{
		{"", "pass", errWeak},
		{"longer-than-ten", "pass", errWeak},
		{"bob", "abc", errWeak},
		{"taken", "pass", errDuplicate},
	}
	for _, tc := range cases {
		if _, err := RunRegister(context.Background(), tc.identity, tc.password, deps); !errors.Is(err, tc.want) {
			t.Fatalf("RunRegister(%q, %q): expected %v, got %v", tc.identity, tc.password, tc.want, err)
		}
	}

	if metrics[1] != 1 || metrics[2] != 1 || metrics[3] != 3 {
		t.Fatalf("unexpected metrics: %v", metrics)
	}
	if len(log.ops) != 0 {
		t.Fatalf("domain failures must not be logged, got %v", log.ops)
	}
}

func TestRunRegisterHidesStoreFailure(t *testing.T) {
	log := &failureLog{}
	deps := registerDeps(metricCounts{}, log)
	deps.CreateUser = func(context.Context, string, string) (UserRecord, error) {
		return UserRecord{}, errors.New("connection refused")
	}

	_, err := RunRegister(context.Background(), "alice", "pass", deps)
	if err != errInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(log.ops) != 1 || log.ops[0] != "register.create" {
		t.Fatalf("expected register.create to be logged, got %v", log.ops)
	}

	deps.CreateUser = func(context.Context, string, string) (UserRecord, error) {
		return UserRecord{}, errStoreBadID
	}
	if _, err := RunRegister(context.Background(), "alice", "pass", deps); !errors.Is(err, errWeak) {
		t.Fatalf("expected store identity rejection to be weak credential, got %v", err)
	}
}

func TestRunRegisterNotReady(t *testing.T) {
	if _, err := RunRegister(context.Background(), "a", "b", RegisterDeps{Errors: RegisterErrors{EngineNotReady: errNotReady}}); err != errNotReady {
		t.Fatalf("expected not ready, got %v", err)
	}
}

type loginFixture struct {
	deps     LoginDeps
	sessions *fakeSessions
	metrics  metricCounts
	verified []string
	updated  map[string]string
	log      *failureLog
}

func newLoginFixture() *loginFixture {
	f := &loginFixture{
		sessions: newFakeSessions(),
		metrics:  metricCounts{},
		updated:  map[string]string{},
		log:      &failureLog{},
	}
	f.deps = LoginDeps{
		NormalizeIdentity: func(s string) string { return s },
		FindUser: func(_ context.Context, identity string) (UserRecord, error) {
			if identity == "alice" {
				return UserRecord{ID: "u1", Identity: "alice", PasswordHash: "old:secret"}, nil
			}
			return UserRecord{}, errStoreNotFound
		},
		VerifyPassword: func(password, hash string) bool {
			f.verified = append(f.verified, hash)
			return hash == "old:"+password || hash == "new:"+password
		},
		DecoyHash:    "decoy",
		NeedsUpgrade: func(hash string) bool { return hash[:4] == "old:" },
		HashPassword: func(p string) (string, error) { return "new:" + p, nil },
		UpdatePasswordHash: func(_ context.Context, id, hash string) error {
			f.updated[id] = hash
			return nil
		},
		Sessions:   f.sessions,
		MetricInc:  f.metrics.inc,
		LogFailure: f.log.log,
		LogWarning: f.log.log,
		Metrics:    LoginMetrics{LoginSuccess: 1, LoginFailure: 2, SessionCreated: 3, PasswordUpgraded: 4},
		Errors: LoginErrors{
			EngineNotReady:     errNotReady,
			InvalidCredentials: errInvalidCreds,
			Internal:           errInternal,
			StoreNotFound:      errStoreNotFound,
		},
	}
	return f
}

func TestRunLoginSuccessUpgradesHash(t *testing.T) {
	f := newLoginFixture()

	sess, err := RunLogin(context.Background(), "alice", "secret", f.deps)
	if err != nil {
		t.Fatalf("RunLogin error: %v", err)
	}
	if sess.UserID != "u1" {
		t.Fatalf("expected session for u1, got %q", sess.UserID)
	}
	if f.updated["u1"] != "new:secret" {
		t.Fatalf("expected upgraded hash, got %q", f.updated["u1"])
	}
	if f.metrics[1] != 1 || f.metrics[3] != 1 || f.metrics[4] != 1 {
		t.Fatalf("unexpected metrics: %v", f.metrics)
	}
}

func TestRunLoginUnknownUserUsesDecoy(t *testing.T) {
	f := newLoginFixture()

	for _, identity := range []string{"mallory", ""} {
		f.verified = nil
		if _, err := RunLogin(context.Background(), identity, "secret", f.deps); err != errInvalidCreds {
			t.Fatalf("expected invalid credentials for %q, got %v", identity, err)
		}
		if len(f.verified) != 1 || f.verified[0] != "decoy" {
			t.Fatalf("expected one decoy comparison for %q, got %v", identity, f.verified)
		}
	}

	if _, err := RunLogin(context.Background(), "alice", "wrong", f.deps); err != errInvalidCreds {
		t.Fatalf("expected invalid credentials for wrong password, got %v", err)
	}
	if f.metrics[2] != 3 {
		t.Fatalf("expected 3 login failures, got %d", f.metrics[2])
	}
	if len(f.sessions.issued) != 0 {
		t.Fatal("no session may be issued on failure")
	}
}

func TestRunLoginUpgradeFailureIsBestEffort(t *testing.T) {
	f := newLoginFixture()
	f.deps.UpdatePasswordHash = func(context.Context, string, string) error {
		return errors.New("read only")
	}

	if _, err := RunLogin(context.Background(), "alice", "secret", f.deps); err != nil {
		t.Fatalf("expected login to succeed despite upgrade failure: %v", err)
	}
	if len(f.log.ops) != 1 || f.log.ops[0] != "login.upgrade_hash" {
		t.Fatalf("expected upgrade failure to be logged, got %v", f.log.ops)
	}
	if f.metrics[4] != 0 {
		t.Fatal("failed upgrade must not count")
	}
}

func TestRunLoginInternalFailures(t *testing.T) {
	f := newLoginFixture()
	f.sessions.err = errors.New("redis down")
	if _, err := RunLogin(context.Background(), "alice", "secret", f.deps); err != errInternal {
		t.Fatalf("expected internal error on issue failure, got %v", err)
	}

	f = newLoginFixture()
	f.deps.FindUser = func(context.Context, string) (UserRecord, error) {
		return UserRecord{}, errors.New("db down")
	}
	if _, err := RunLogin(context.Background(), "alice", "secret", f.deps); err != errInternal {
		t.Fatalf("expected internal error on lookup failure, got %v", err)
	}
}

func logoutDeps(s *fakeSessions, metrics metricCounts) LogoutDeps {
	return LogoutDeps{
		Sessions:  s,
		MetricInc: metrics.inc,
		Metrics:   LogoutMetrics{Logout: 1, LogoutAll: 2},
		Errors: LogoutErrors{
			EngineNotReady: errNotReady,
			InvalidToken:   errInvalidToken,
			Internal:       errInternal,
		},
	}
}

func TestRunLogout(t *testing.T) {
	s := newFakeSessions()
	s.add("t1", "u1")
	metrics := metricCounts{}
	deps := logoutDeps(s, metrics)

	if err := RunLogout(context.Background(), "t1", deps); err != nil {
		t.Fatalf("RunLogout error: %v", err)
	}
	if err := RunLogout(context.Background(), "t1", deps); err != errInvalidToken {
		t.Fatalf("expected invalid token on second logout, got %v", err)
	}
	if metrics[1] != 1 {
		t.Fatalf("expected one logout metric, got %d", metrics[1])
	}

	s.revokeErr = errors.New("redis down")
	if err := RunLogout(context.Background(), "t1", deps); err != errInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestRunLogoutAll(t *testing.T) {
	s := newFakeSessions()
	s.add("t1", "u1")
	s.add("t2", "u1")
	s.add("t3", "u2")
	deps := logoutDeps(s, metricCounts{})

	n, err := RunLogoutAll(context.Background(), "t1", deps)
	if err != nil {
		t.Fatalf("RunLogoutAll error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 revoked, got %d", n)
	}
	if _, ok := s.byToken["t3"]; !ok {
		t.Fatal("other users' sessions must survive")
	}
	if _, err := RunLogoutAll(context.Background(), "t1", deps); err != errInvalidToken {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestRunValidate(t *testing.T) {
	s := newFakeSessions()
	s.add("t1", "u1")
	metrics := metricCounts{}
	observed := 0
	deps := ValidateDeps{
		Sessions:  s,
		MetricInc: metrics.inc,
		Observe:   func(int, time.Duration) { observed++ },
		Metrics:   ValidateMetrics{ValidateSuccess: 1, ValidateFailure: 2, ValidateLatency: 3},
		Errors:    ValidateErrors{EngineNotReady: errNotReady, InvalidToken: errInvalidToken, Internal: errInternal},
	}

	if _, err := RunValidate(context.Background(), "t1", deps); err != nil {
		t.Fatalf("RunValidate error: %v", err)
	}
	if _, err := RunValidate(context.Background(), "nope", deps); err != errInvalidToken {
		t.Fatalf("expected invalid token, got %v", err)
	}
	s.err = errors.New("redis down")
	if _, err := RunValidate(context.Background(), "t1", deps); err != errInternal {
		t.Fatalf("expected internal, got %v", err)
	}

	if metrics[1] != 1 || metrics[2] != 1 {
		t.Fatalf("unexpected metrics: %v", metrics)
	}
	if observed != 3 {
		t.Fatalf("expected 3 latency observations, got %d", observed)
	}
}

func accessDeps(s *fakeSessions, users map[string]UserRecord, adminRole string) AccessDeps {
	return AccessDeps{
		Sessions: s,
		FindUserByID: func(_ context.Context, id string) (UserRecord, error) {
			u, ok := users[id]
			if !ok {
				return UserRecord{}, errStoreNotFound
			}
			return u, nil
		},
		AdminRole: adminRole,
		Errors: AccessErrors{
			EngineNotReady: errNotReady,
			InvalidToken:   errInvalidToken,
			NotFound:       errNotFound,
			Forbidden:      errForbidden,
			Internal:       errInternal,
			StoreNotFound:  errStoreNotFound,
		},
	}
}

func TestRunGetUserByID(t *testing.T) {
	s := newFakeSessions()
	s.add("alice-token", "a")
	s.add("root-token", "r")
	users := map[string]UserRecord{
		"a": {ID: "a", Identity: "alice"},
		"b": {ID: "b", Identity: "bob"},
		"r": {ID: "r", Identity: "root", Role: "admin"},
	}

	cases := []struct {
		name, token, id, adminRole string
		want                       error
	}{
		{"self", "alice-token", "a", "", nil},
		{"other user", "alice-token", "b", "", errForbidden},
		{"unknown user", "alice-token", "zzz", "", errNotFound},
		{"bad token hides existence", "bogus", "b", "", errInvalidToken},
		{"bad token unknown user", "bogus", "zzz", "", errInvalidToken},
		{"admin disabled", "root-token", "b", "", errForbidden},
		{"admin enabled", "root-token", "b", "admin", nil},
		{"non admin with role enabled", "alice-token", "b", "admin", errForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := RunGetUserByID(context.Background(), tc.token, tc.id, accessDeps(s, users, tc.adminRole))
			if err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if err == nil && user.ID != tc.id {
				t.Fatalf("expected user %q, got %q", tc.id, user.ID)
			}
		})
	}
}

func TestRunGetUserByIDCallerDeleted(t *testing.T) {
	s := newFakeSessions()
	s.add("ghost-token", "ghost")
	users := map[string]UserRecord{"b": {ID: "b"}}

	if _, err := RunGetUserByID(context.Background(), "ghost-token", "b", accessDeps(s, users, "admin")); err != errForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRunListSessionsAndHealth(t *testing.T) {
	s := newFakeSessions()
	s.add("t1", "u1")
	s.add("t2", "u1")
	deps := IntrospectionDeps{
		Sessions: s,
		Errors:   IntrospectionErrors{EngineNotReady: errNotReady, InvalidToken: errInvalidToken, Internal: errInternal},
	}

	list, err := RunListSessions(context.Background(), "t1", deps)
	if err != nil {
		t.Fatalf("RunListSessions error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if _, err := RunListSessions(context.Background(), "nope", deps); err != errInvalidToken {
		t.Fatalf("expected invalid token, got %v", err)
	}

	if h := RunHealth(context.Background(), deps); !h.Available {
		t.Fatal("expected healthy backend")
	}
	s.err = errors.New("down")
	if h := RunHealth(context.Background(), deps); h.Available {
		t.Fatal("expected unhealthy backend")
	}
	if h := RunHealth(context.Background(), IntrospectionDeps{}); h.Available {
		t.Fatal("expected unwired deps to report unavailable")
	}
}

func TestServiceInitialized(t *testing.T) {
	if New(Deps{}).Initialized() {
		t.Fatal("empty service must not report initialized")
	}
	if !New(Deps{Validate: ValidateDeps{Sessions: newFakeSessions()}}).Initialized() {
		t.Fatal("expected initialized service")
	}
}
