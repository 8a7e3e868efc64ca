package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ngo-backend/internal/chat"
	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/repository/memory"
	"ngo-backend/internal/security"
	"ngo-backend/internal/service"
	"ngo-backend/internal/state"
)

type fakeEmail struct {
	err      error
	contacts []domain.ContactEmail
}

func (f *fakeEmail) SendContact(_ context.Context, msg domain.ContactEmail) error {
	f.contacts = append(f.contacts, msg)
	return f.err
}

func (f *fakeEmail) SendStatement(context.Context, []string, string, ledger.Statement) error {
	return f.err
}

// recordingChat answers every message and keeps the access it was given.
type recordingChat struct {
	accesses []chat.Access
}

func (c *recordingChat) Reply(_ context.Context, access chat.Access, _ []domain.ChatMessage, _ string) (*chat.Reply, error) {
	c.accesses = append(c.accesses, access)
	return &chat.Reply{Text: "ok"}, nil
}

type testEnv struct {
	router *mux.Router
	store  *memory.Store
	state  *state.AppState
	tokens security.TokenManager
	email  *fakeEmail
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithChat(t, nil)
}

func newTestEnvWithChat(t *testing.T, chatSvc service.ChatService) *testEnv {
	t.Helper()
	store := memory.NewStore()
	st := state.New(store, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = st.Run(ctx) }()
	require.Eventually(t, st.Ready, time.Second, 5*time.Millisecond)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	tokens := security.NewTokenManager("test-secret", time.Hour)
	email := &fakeEmail{}
	svcs := Services{
		Ledger:  service.NewLedgerService(store.Transactions(), st, nil),
		Members: service.NewMemberService(store.Members(), st, nil),
		Notices: service.NewNoticeService(store.Notices(), st, nil),
		Email:   email,
		Chat:    chatSvc,
		Auth:    service.NewAuthService(store.Members(), tokens, "admin@ngo.org", string(hash)),
	}
	return &testEnv{
		router: NewRouter(NewHandler(svcs, st, time.UTC), tokens),
		store:  store,
		state:  st,
		tokens: tokens,
		email:  email,
	}
}

func (e *testEnv) adminToken(t *testing.T) string {
	token, err := e.tokens.GenerateAccessToken("admin@ngo.org", "admin@ngo.org", []string{security.RoleAdmin}, nil)
	require.NoError(t, err)
	return token
}

// moderator stores an active moderator and waits until the state has it.
func (e *testEnv) moderator(t *testing.T, perms ...domain.Permission) *domain.Member {
	t.Helper()
	m := &domain.Member{
		Name:        "Moderator",
		Email:       "mod@ngo.org",
		Status:      domain.MemberStatusActive,
		Role:        domain.MemberRoleModerator,
		Permissions: perms,
		JoinDate:    time.Now(),
	}
	require.NoError(t, e.store.Members().Create(context.Background(), m))
	require.Eventually(t, func() bool {
		for _, got := range e.state.Members() {
			if got.ID == m.ID {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	return m
}

func (e *testEnv) sessionToken(t *testing.T, m *domain.Member) string {
	var p []string
	for _, perm := range m.Permissions {
		p = append(p, string(perm))
	}
	token, err := e.tokens.GenerateAccessToken(m.ID, m.Email, []string{security.RoleModerator}, p)
	require.NoError(t, err)
	return token
}

func (e *testEnv) moderatorToken(t *testing.T, perms ...domain.Permission) string {
	return e.sessionToken(t, e.moderator(t, perms...))
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	st := state.New(memory.NewStore(), time.UTC)
	router := NewRouter(NewHandler(Services{}, st, nil), security.NewTokenManager("x", time.Hour))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	st.SetTransactions(nil)
	st.SetMembers(nil)
	st.SetNotices(nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Email: "admin@ngo.org", Password: "admin-pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := env.tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(security.RoleAdmin))

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Email: "admin@ngo.org", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"a","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactions_Authorization(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]any{"type": "donation", "amount": "500"}

	rec := env.do(t, http.MethodPost, "/api/v1/transactions", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/transactions", "garbage", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/transactions", env.moderatorToken(t, domain.PermissionManageNotices), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/transactions", env.moderatorToken(t, domain.PermissionManageTransactions), body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Clearing the ledger is admin only, whatever the permissions.
	rec = env.do(t, http.MethodDelete, "/api/v1/transactions", env.moderatorToken(t, domain.PermissionManageTransactions), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTransactions_AppendAndStats(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	for _, body := range []map[string]any{
		{"type": "donation", "amount": 50000, "member_name": "Anika"},
		{"type": "donation", "amount": "25000.00"},
		{"type": "withdrawal", "amount": 10000, "description": "Flood relief"},
	} {
		rec := env.do(t, http.MethodPost, "/api/v1/transactions", admin, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, "/api/v1/transactions", admin, map[string]any{"type": "donation", "amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "amount")

	rec = env.do(t, http.MethodPost, "/api/v1/transactions", admin, `{"type": "donation", "amount": 0.004}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "decimal places")

	rec = env.do(t, http.MethodPost, "/api/v1/transactions", admin, map[string]any{"type": "refund", "amount": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Eventually(t, func() bool { return len(env.state.Transactions()) == 3 }, time.Second, 5*time.Millisecond)

	rec = env.do(t, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Totals struct {
			Donations    string `json:"donations"`
			Withdrawals  string `json:"withdrawals"`
			CurrentFunds string `json:"current_funds"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "75000", stats.Totals.Donations)
	assert.Equal(t, "10000", stats.Totals.Withdrawals)
	assert.Equal(t, "65000", stats.Totals.CurrentFunds)

	rec = env.do(t, http.MethodDelete, "/api/v1/transactions", admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Eventually(t, func() bool { return env.state.Stats().Totals.CurrentFunds.IsZero() }, time.Second, 5*time.Millisecond)
}

func TestStatement(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/v1/transactions", admin, map[string]any{"type": "donation", "amount": 1200, "member_name": "Anika"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Eventually(t, func() bool { return len(env.state.Transactions()) == 1 }, time.Second, 5*time.Millisecond)

	month := time.Now().UTC().Format("2006-01")
	rec = env.do(t, http.MethodGet, "/api/v1/statements?from="+month+"&to="+month, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st ledger.Statement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Len(t, st.Transactions, 1)
	assert.Equal(t, "1200", st.ClosingBalance.String())

	rec = env.do(t, http.MethodGet, "/api/v1/statements?from="+month+"&to="+month+"&format=csv", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Equal(t, "date,type,description,member_name,transaction_id,amount", lines[0])
	assert.Contains(t, lines[1], "donation,Donation,Anika,,1200.00")
	assert.Equal(t, "closing_balance,1200.00", lines[len(lines)-1])

	rec = env.do(t, http.MethodGet, "/api/v1/statements?from=2024-07&to=2024-06", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/statements?from=June&to=2024-06", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMembers(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/v1/members/register", "", service.MemberInput{Name: "Anika", Email: "anika@example.org"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered domain.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	assert.Equal(t, domain.MemberStatusInactive, registered.Status)

	rec = env.do(t, http.MethodGet, "/api/v1/members", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/members/"+registered.ID+"/toggle-status", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"active"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/members/unknown", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/members/"+registered.ID+"/role", admin,
		roleRequest{Role: domain.MemberRoleModerator, Permissions: []domain.Permission{domain.PermissionManageNotices}})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/members/"+registered.ID+"/session", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var session tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	// The moderator session may post notices but not manage members.
	rec = env.do(t, http.MethodPost, "/api/v1/notices", session.AccessToken, noticeRequest{Message: "General meeting"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/members/"+registered.ID, session.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/members/"+registered.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/members/"+registered.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMemberHistory(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/v1/members", admin, service.MemberInput{Name: "Rahim Uddin"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/transactions", admin, map[string]any{"type": "donation", "amount": 300, "member_name": "rahim uddin"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Eventually(t, func() bool {
		return len(env.state.Members()) == 1 && len(env.state.Transactions()) == 1
	}, time.Second, 5*time.Millisecond)

	rec = env.do(t, http.MethodGet, "/api/v1/members/by-name/RAHIM%20UDDIN/history", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Rahim Uddin", resp.MemberName)
	assert.Equal(t, 1, resp.Matches)
	require.Len(t, resp.History, 1)
	assert.Equal(t, "300", resp.History[0].Amount.String())

	rec = env.do(t, http.MethodGet, "/api/v1/members/by-name/Ghost/history", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotices(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/v1/notices", admin, noticeRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/notices", admin, noticeRequest{Message: "Eid gathering"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Eventually(t, func() bool { return len(env.state.Notices()) == 1 }, time.Second, 5*time.Millisecond)

	rec = env.do(t, http.MethodGet, "/api/v1/notices", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notices []domain.Notice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notices))
	require.Len(t, notices, 1)

	rec = env.do(t, http.MethodDelete, "/api/v1/notices/"+notices[0].ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/notices/"+notices[0].ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContactAndChat(t *testing.T) {
	env := newTestEnv(t)

	msg := domain.ContactEmail{From: "v@example.org", Name: "Visitor", Message: "Hello", Language: "bn"}
	rec := env.do(t, http.MethodPost, "/api/v1/contact", "", msg)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, env.email.contacts, 1)
	assert.Equal(t, "bn", env.email.contacts[0].Language)

	env.email.err = fmt.Errorf("%w: sendgrid down", domain.ErrExternal)
	rec = env.do(t, http.MethodPost, "/api/v1/contact", "", msg)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sendgrid down")

	rec = env.do(t, http.MethodPost, "/api/v1/chat", "", chatRequest{Message: "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRouteDefaultsToAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/api/v1/internal/debug", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	rec := env.do(t, http.MethodGet, "/api/v1/internal/debug", env.moderatorToken(t, domain.PermissionManageMembers), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/internal/debug", env.adminToken(t), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_ToolAccessFollowsCaller(t *testing.T) {
	recorder := &recordingChat{}
	env := newTestEnvWithChat(t, recorder)
	msg := chatRequest{Message: "who donated this month?"}

	rec := env.do(t, http.MethodPost, "/api/v1/chat", "", msg)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/api/v1/chat", "not-a-token", msg)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/chat", env.adminToken(t), msg)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/chat", env.moderatorToken(t, domain.PermissionManageMembers), msg)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []chat.Access{
		{},
		{},
		chat.FullAccess,
		{Members: true},
	}, recorder.accesses)
}

func TestModeratorSession_FollowsDirectory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.moderator(t, domain.PermissionManageNotices, domain.PermissionManageTransactions)
	token := env.sessionToken(t, mod)

	rec := env.do(t, http.MethodGet, "/api/v1/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Dropping a permission applies to the token already issued.
	require.NoError(t, env.store.Members().UpdateRole(ctx, mod.ID, domain.MemberRoleModerator, []domain.Permission{domain.PermissionManageNotices}))
	require.Eventually(t, func() bool {
		return env.do(t, http.MethodGet, "/api/v1/transactions", token, nil).Code == http.StatusForbidden
	}, time.Second, 5*time.Millisecond)

	rec = env.do(t, http.MethodPost, "/api/v1/notices", token, map[string]string{"message": "Meeting on Friday"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NoError(t, env.store.Members().UpdateStatus(ctx, mod.ID, domain.MemberStatusInactive))
	require.Eventually(t, func() bool {
		return env.do(t, http.MethodPost, "/api/v1/notices", token, map[string]string{"message": "again"}).Code == http.StatusUnauthorized
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, env.store.Members().Delete(ctx, mod.ID))
	require.Eventually(t, func() bool {
		return env.do(t, http.MethodGet, "/api/v1/transactions", token, nil).Code == http.StatusUnauthorized
	}, time.Second, 5*time.Millisecond)
}
