package handlers_test

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

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/oakline/staffdesk/internal/domain"
	"github.com/oakline/staffdesk/internal/http/handlers"
	authmw "github.com/oakline/staffdesk/internal/http/middleware"
	"github.com/oakline/staffdesk/internal/platform/auth"
	"github.com/oakline/staffdesk/internal/repo/postgres"
)

// ---------- Mocks ----------

type mockUsersRepo struct {
	nextID int64
	users  map[int64]*domain.User
}

func newMockUsersRepo() *mockUsersRepo {
	return &mockUsersRepo{nextID: 1, users: make(map[int64]*domain.User)}
}

func (m *mockUsersRepo) add(email, name, role, passwordHash string) *domain.User {
	u := &domain.User{
		ID:           m.nextID,
		Role:         role,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		IsVerified:   true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	m.nextID++
	return u
}

func (m *mockUsersRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	var out []domain.User
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	// Mirror the store contract: limit <= 0 means everything.
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockUsersRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUsersRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUsersRepo) Update(_ context.Context, id int64, req *domain.UpdateUserRequest) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Designation != nil {
		u.Designation = *req.Designation
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsVerified != nil {
		u.IsVerified = *req.IsVerified
	}
	u.UpdatedAt = time.Now()
	return u, nil
}

func (m *mockUsersRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

type resetRecord struct {
	userID    int64
	expiresAt time.Time
	used      bool
}

type mockResetRepo struct {
	tokens map[string]*resetRecord // token hash -> record
}

func newMockResetRepo() *mockResetRepo {
	return &mockResetRepo{tokens: make(map[string]*resetRecord)}
}

func (m *mockResetRepo) Create(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	for _, rec := range m.tokens {
		if rec.userID == userID && !rec.used {
			rec.used = true
		}
	}
	m.tokens[tokenHash] = &resetRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *mockResetRepo) Consume(_ context.Context, tokenHash string) (int64, error) {
	rec, ok := m.tokens[tokenHash]
	if !ok || rec.used || time.Now().After(rec.expiresAt) {
		return 0, nil
	}
	rec.used = true
	return rec.userID, nil
}

func (m *mockResetRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

func (m *mockResetRepo) activeCount() int {
	n := 0
	for _, rec := range m.tokens {
		if !rec.used {
			n++
		}
	}
	return n
}

type mockRequestsRepo struct {
	items []domain.RequestItem
}

func (m *mockRequestsRepo) Create(_ context.Context, item *domain.RequestItem) (*domain.RequestItem, error) {
	stored := *item
	stored.CreatedAt = time.Now().UTC()
	m.items = append(m.items, stored)
	return &stored, nil
}

func (m *mockRequestsRepo) List(context.Context) ([]domain.RequestItem, error) {
	return append([]domain.RequestItem{}, m.items...), nil
}

func (m *mockRequestsRepo) ListByTarget(_ context.Context, target string) ([]domain.RequestItem, error) {
	out := make([]domain.RequestItem, 0)
	for _, it := range m.items {
		if it.Target == target {
			out = append(out, it)
		}
	}
	return out, nil
}

type mockInquiriesRepo struct {
	inqs []domain.Inquiry
}

func (m *mockInquiriesRepo) Create(_ context.Context, inq *domain.Inquiry) (*domain.Inquiry, error) {
	stored := *inq
	stored.CreatedAt = time.Now().UTC()
	// newest first
	m.inqs = append([]domain.Inquiry{stored}, m.inqs...)
	return &stored, nil
}

func (m *mockInquiriesRepo) List(context.Context) ([]domain.Inquiry, error) {
	return append([]domain.Inquiry{}, m.inqs...), nil
}

func (m *mockInquiriesRepo) CountByStatus(_ context.Context, status domain.InquiryStatus) (int, error) {
	n := 0
	for _, inq := range m.inqs {
		if inq.Status == status {
			n++
		}
	}
	return n, nil
}

type mockLedgerRepo struct {
	snap *domain.LedgerSnapshot
	err  error
}

func (m *mockLedgerRepo) Snapshot(context.Context) (*domain.LedgerSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snap, nil
}

type mockMailer struct {
	resetTo   string
	resetURL  string
	resetSent int
	sendErr   error
}

func (m *mockMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	return "mock-id", m.sendErr
}

func (m *mockMailer) SendPasswordReset(email, name, resetURL string) error {
	m.resetTo = email
	m.resetURL = resetURL
	m.resetSent++
	return m.sendErr
}

func (m *mockMailer) SendInquiryNotice(inbox, guestName, subject, inquiryID string) error {
	return m.sendErr
}

type mockBus struct {
	subjects []string
}

func (m *mockBus) Publish(_ context.Context, subject string, _ interface{}) error {
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockBus) Close() error { return nil }

// ---------- Test setup ----------

const testJWTSecret = "test-secret"

type testEnv struct {
	server   *httptest.Server
	users    *mockUsersRepo
	resets   *mockResetRepo
	requests *mockRequestsRepo
	inqs     *mockInquiriesRepo
	ledger   *mockLedgerRepo
	mailer   *mockMailer
	bus      *mockBus
}

func setupTestServer(t *testing.T, exposeReset bool) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    newMockUsersRepo(),
		resets:   newMockResetRepo(),
		requests: &mockRequestsRepo{},
		inqs:     &mockInquiriesRepo{},
		ledger:   &mockLedgerRepo{snap: &domain.LedgerSnapshot{AsOf: time.Now()}},
		mailer:   &mockMailer{},
		bus:      &mockBus{},
	}

	authHandler := handlers.NewAuthHandler(
		env.users, env.resets, env.mailer, env.bus,
		testJWTSecret, "http://localhost:3000", 15*time.Minute, time.Hour, exposeReset,
	)
	adminHandler := handlers.NewAdminUsersHandler(env.users)
	requestsHandler := handlers.NewRequestsHandler(env.requests, env.bus)
	inquiriesHandler := handlers.NewInquiriesHandler(env.inqs, env.bus)
	ledgerHandler := handlers.NewLedgerHandler(env.ledger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRole("admin", testJWTSecret))
			r.Mount("/admin/users", adminHandler.Routes())
		})
		r.Mount("/requests", requestsHandler.Routes())
		r.Mount("/guest-inquiries", inquiriesHandler.DashboardRoutes())
		r.Mount("/guest/inquiry", inquiriesHandler.GuestRoutes())
		r.Mount("/company-ledger", ledgerHandler.Routes())
	})

	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)
	return env
}

func adminToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.NewAccessToken(1, "admin@example.com", "admin", auth.ScopeForRole("admin"), testJWTSecret, time.Minute)
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}
	return tok
}

var _ postgres.UsersRepo = (*mockUsersRepo)(nil)
var _ postgres.ResetRepo = (*mockResetRepo)(nil)
var _ postgres.RequestsRepo = (*mockRequestsRepo)(nil)
var _ postgres.InquiriesRepo = (*mockInquiriesRepo)(nil)
var _ postgres.LedgerRepo = (*mockLedgerRepo)(nil)

// ---------- Admin users ----------

func TestAdminUsers_List_StripsSensitiveFields(t *testing.T) {
	env := setupTestServer(t, true)
	env.users.add("alice@example.com", "Alice", "admin", "argon2-hash-a")
	env.users.add("bob@example.com", "Bob", "staff", "argon2-hash-b")

	resp := authedGet(t, env.server.URL+"/api/admin/users", adminToken(t), http.StatusOK)
	defer resp.Body.Close()

	var result struct {
		Success bool                     `json:"success"`
		Users   []map[string]interface{} `json:"users"`
	}
	decode(t, resp, &result)

	if !result.Success || len(result.Users) != 2 {
		t.Fatalf("expected success with 2 users, got %+v", result)
	}

	for _, u := range result.Users {
		for key := range u {
			lower := strings.ToLower(key)
			if strings.Contains(lower, "password") || strings.Contains(lower, "token") || strings.Contains(lower, "reset") {
				t.Fatalf("sensitive field %q leaked in user payload", key)
			}
		}
	}
}

func TestAdminUsers_List_ReturnsEveryUser(t *testing.T) {
	env := setupTestServer(t, true)
	for i := 0; i < 60; i++ {
		env.users.add(fmt.Sprintf("user%d@example.com", i), fmt.Sprintf("User %d", i), "staff", "hash")
	}

	// A bare list returns every record; no implicit page size.
	resp := authedGet(t, env.server.URL+"/api/admin/users", adminToken(t), http.StatusOK)
	var result struct {
		Users []map[string]interface{} `json:"users"`
	}
	decode(t, resp, &result)
	resp.Body.Close()

	if len(result.Users) != 60 {
		t.Fatalf("expected all 60 users, got %d", len(result.Users))
	}

	// Explicit pagination still applies.
	resp = authedGet(t, env.server.URL+"/api/admin/users?limit=10", adminToken(t), http.StatusOK)
	decode(t, resp, &result)
	resp.Body.Close()

	if len(result.Users) != 10 {
		t.Fatalf("expected 10 users with limit=10, got %d", len(result.Users))
	}
}

func TestAdminUsers_RequiresAdminToken(t *testing.T) {
	env := setupTestServer(t, true)

	// No token
	get(t, env.server.URL+"/api/admin/users", http.StatusUnauthorized)

	// Non-admin token
	staffTok, _ := auth.NewAccessToken(2, "staff@example.com", "staff", "", testJWTSecret, time.Minute)
	authedGet(t, env.server.URL+"/api/admin/users", staffTok, http.StatusForbidden)
}

func TestAdminUsers_Patch(t *testing.T) {
	env := setupTestServer(t, true)
	u := env.users.add("alice@example.com", "Alice", "staff", "hash")

	body := map[string]interface{}{
		"userId":  u.ID,
		"updates": map[string]interface{}{"role": "hr", "designation": "HR Generalist"},
	}
	resp := authedPatch(t, env.server.URL+"/api/admin/users", adminToken(t), body, http.StatusOK)
	resp.Body.Close()

	if u.Role != "hr" || u.Designation != "HR Generalist" {
		t.Fatalf("patch not applied: role=%s designation=%s", u.Role, u.Designation)
	}
}

func TestAdminUsers_Patch_CannotTouchPasswordHash(t *testing.T) {
	env := setupTestServer(t, true)
	u := env.users.add("alice@example.com", "Alice", "staff", "original-hash")

	body := map[string]interface{}{
		"userId": u.ID,
		"updates": map[string]interface{}{
			"name":          "Alice2",
			"password_hash": "evil-hash",
			"passwordHash":  "evil-hash",
		},
	}
	resp := authedPatch(t, env.server.URL+"/api/admin/users", adminToken(t), body, http.StatusOK)
	resp.Body.Close()

	if u.PasswordHash != "original-hash" {
		t.Fatalf("password hash overwritten through admin patch: %s", u.PasswordHash)
	}
	if u.Name != "Alice2" {
		t.Fatalf("whitelisted field not applied, name=%s", u.Name)
	}
}

func TestAdminUsers_Patch_Errors(t *testing.T) {
	env := setupTestServer(t, true)
	env.users.add("alice@example.com", "Alice", "staff", "hash")
	tok := adminToken(t)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"missing userId", map[string]interface{}{"updates": map[string]interface{}{"name": "X"}}, http.StatusBadRequest},
		{"missing updates", map[string]interface{}{"userId": 1}, http.StatusBadRequest},
		{"empty updates", map[string]interface{}{"userId": 1, "updates": map[string]interface{}{}}, http.StatusBadRequest},
		{"invalid role", map[string]interface{}{"userId": 1, "updates": map[string]interface{}{"role": "superuser"}}, http.StatusBadRequest},
		{"unknown user", map[string]interface{}{"userId": 999, "updates": map[string]interface{}{"name": "X"}}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := authedPatch(t, env.server.URL+"/api/admin/users", tok, tt.body, tt.status)
			resp.Body.Close()
		})
	}
}

// ---------- Password reset ----------

func TestForgotPassword_UnknownAccount_NoStateChange(t *testing.T) {
	env := setupTestServer(t, true)

	resp := postJSON(t, env.server.URL+"/api/auth/forgot-password",
		map[string]string{"email": "missing@x.com"}, http.StatusOK)
	defer resp.Body.Close()

	var result map[string]interface{}
	decode(t, resp, &result)

	if result["success"] != true {
		t.Fatal("expected success:true for unknown account")
	}
	if _, ok := result["resetToken"]; ok {
		t.Fatal("reset token revealed for unknown account")
	}
	if len(env.resets.tokens) != 0 {
		t.Fatal("state changed for unknown account")
	}
	if env.mailer.resetSent != 0 {
		t.Fatal("email sent for unknown account")
	}
}

func TestForgotPassword_MissingEmail(t *testing.T) {
	env := setupTestServer(t, true)
	resp := postJSON(t, env.server.URL+"/api/auth/forgot-password",
		map[string]string{}, http.StatusBadRequest)
	resp.Body.Close()
}

func TestForgotPassword_IssuesHashedTokenWithExpiry(t *testing.T) {
	env := setupTestServer(t, true)
	u := env.users.add("alice@example.com", "Alice", "staff", "hash")

	before := time.Now()
	resp := postJSON(t, env.server.URL+"/api/auth/forgot-password",
		map[string]string{"email": "alice@example.com"}, http.StatusOK)
	defer resp.Body.Close()

	var result map[string]interface{}
	decode(t, resp, &result)

	rawToken, _ := result["resetToken"].(string)
	if rawToken == "" {
		t.Fatal("expected resetToken in dev-mode response")
	}
	if url, _ := result["resetUrl"].(string); !strings.Contains(url, rawToken) {
		t.Fatalf("resetUrl does not embed token: %v", result["resetUrl"])
	}

	if env.mailer.resetTo != "alice@example.com" {
		t.Fatalf("reset email went to %q", env.mailer.resetTo)
	}
	if !strings.Contains(env.mailer.resetURL, rawToken) {
		t.Fatal("email link does not carry the token")
	}

	// Stored under hash, not raw
	if _, ok := env.resets.tokens[rawToken]; ok {
		t.Fatal("raw token stored; expected only the hash")
	}
	rec, ok := env.resets.tokens[auth.HashToken(rawToken)]
	if !ok {
		t.Fatal("hashed token not stored")
	}
	if rec.userID != u.ID {
		t.Fatalf("token bound to wrong user %d", rec.userID)
	}

	wantExpiry := before.Add(time.Hour)
	if rec.expiresAt.Before(wantExpiry.Add(-time.Minute)) || rec.expiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Fatalf("expiry %v not ~1h out", rec.expiresAt)
	}
}

func TestForgotPassword_SecondRequestSupersedesFirst(t *testing.T) {
	env := setupTestServer(t, true)
	env.users.add("alice@example.com", "Alice", "staff", "hash")

	resp1 := postJSON(t, env.server.URL+"/api/auth/forgot-password",
		map[string]string{"email": "alice@example.com"}, http.StatusOK)
	var r1 map[string]interface{}
	decode(t, resp1, &r1)
	resp1.Body.Close()
	first := r1["resetToken"].(string)

	resp2 := postJSON(t, env.server.URL+"/api/auth/forgot-password",
		map[string]string{"email": "alice@example.com"}, http.StatusOK)
	var r2 map[string]interface{}
	decode(t, resp2, &r2)
	resp2.Body.Close()
	second := r2["resetToken"].(string)

	if first == second {
		t.Fatal("expected a fresh token on second request")
	}
	if env.resets.activeCount() != 1 {
		t.Fatalf("expected exactly one active token, got %d", env.resets.activeCount())
	}

	// First token is dead, second works.
	resp := postJSON(t, env.server.URL+"/api/auth/reset-password",
		map[string]string{"token": first, "newPassword": "newpassword1"}, http.StatusBadRequest)
	resp.Body.Close()
	resp = postJSON(t, env.server.URL+"/api/auth/reset-password",
		map[string]string{"token": second, "newPassword": "newpassword1"}, http.StatusOK)
	resp.Body.Close()
}

func TestForgotPassword_ProductionHidesToken(t *testing.T) {
	env := setupTestServer(t, false)
	env.users.add("alice@example.com", "Alice", "staff", "hash")

	resp := postJSON(t, env.server.URL+"/api/auth/forgot-password",
		map[string]string{"email": "alice@example.com"}, http.StatusOK)
	defer resp.Body.Close()

	var result map[string]interface{}
	decode(t, resp, &result)

	if result["success"] != true {
		t.Fatal("expected success:true")
	}
	if _, ok := result["resetToken"]; ok {
		t.Fatal("resetToken exposed outside development")
	}
	if _, ok := result["resetUrl"]; ok {
		t.Fatal("resetUrl exposed outside development")
	}
	if env.mailer.resetSent != 1 {
		t.Fatal("expected reset email to be sent")
	}
}

func TestResetPassword_ConsumeOnce(t *testing.T) {
	env := setupTestServer(t, true)
	u := env.users.add("alice@example.com", "Alice", "staff", "old-hash")

	resp := postJSON(t, env.server.URL+"/api/auth/forgot-password",
		map[string]string{"email": "alice@example.com"}, http.StatusOK)
	var r map[string]interface{}
	decode(t, resp, &r)
	resp.Body.Close()
	token := r["resetToken"].(string)

	resp = postJSON(t, env.server.URL+"/api/auth/reset-password",
		map[string]string{"token": token, "newPassword": "brand-new-pass"}, http.StatusOK)
	resp.Body.Close()

	ok, err := argon2id.ComparePasswordAndHash("brand-new-pass", u.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("password not updated to a valid argon2id hash (ok=%v err=%v)", ok, err)
	}

	// Token is single-use.
	resp = postJSON(t, env.server.URL+"/api/auth/reset-password",
		map[string]string{"token": token, "newPassword": "another-pass-1"}, http.StatusBadRequest)
	resp.Body.Close()
}

func TestResetPassword_Invalid(t *testing.T) {
	env := setupTestServer(t, true)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"unknown token", map[string]string{"token": "nope", "newPassword": "longenough1"}},
		{"missing token", map[string]string{"newPassword": "longenough1"}},
		{"short password", map[string]string{"token": "whatever", "newPassword": "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, env.server.URL+"/api/auth/reset-password", tt.body, http.StatusBadRequest)
			resp.Body.Close()
		})
	}
}

// ---------- Login ----------

func TestLogin(t *testing.T) {
	env := setupTestServer(t, true)
	hash, err := argon2id.CreateHash("correct-horse-1", argon2id.DefaultParams)
	if err != nil {
		t.Fatal(err)
	}
	env.users.add("alice@example.com", "Alice", "admin", hash)

	resp := postJSON(t, env.server.URL+"/api/auth/login",
		map[string]string{"email": "alice@example.com", "password": "correct-horse-1"}, http.StatusOK)
	var result struct {
		Success bool                  `json:"success"`
		Login   *domain.LoginResponse `json:"login"`
	}
	decode(t, resp, &result)
	resp.Body.Close()

	if !result.Success || result.Login == nil || result.Login.AccessToken == "" {
		t.Fatalf("expected access token, got %+v", result)
	}

	claims, err := auth.Parse(result.Login.AccessToken, testJWTSecret)
	if err != nil {
		t.Fatalf("mint produced unparsable token: %v", err)
	}
	if claims.Role != "admin" || claims.Email != "alice@example.com" {
		t.Fatalf("wrong claims: %+v", claims)
	}

	// Wrong password
	resp = postJSON(t, env.server.URL+"/api/auth/login",
		map[string]string{"email": "alice@example.com", "password": "wrong"}, http.StatusUnauthorized)
	resp.Body.Close()

	// Unknown user
	resp = postJSON(t, env.server.URL+"/api/auth/login",
		map[string]string{"email": "nobody@example.com", "password": "whatever"}, http.StatusUnauthorized)
	resp.Body.Close()
}

// ---------- Requests ----------

func TestRequests_Create(t *testing.T) {
	env := setupTestServer(t, true)

	body := map[string]interface{}{
		"type":      "leave",
		"title":     "Leave",
		"createdBy": "alice",
		"payload":   map[string]interface{}{"days": 2},
		"target":    "admin",
	}
	resp := postJSON(t, env.server.URL+"/api/requests", body, http.StatusOK)
	defer resp.Body.Close()

	var result struct {
		Success bool               `json:"success"`
		Request domain.RequestItem `json:"request"`
	}
	decode(t, resp, &result)

	if !result.Success {
		t.Fatal("expected success")
	}
	if result.Request.Status != domain.RequestPending {
		t.Fatalf("expected pending status, got %s", result.Request.Status)
	}
	if !strings.HasPrefix(result.Request.ID, "req-") {
		t.Fatalf("expected req- id prefix, got %s", result.Request.ID)
	}
	if result.Request.CreatedAt.IsZero() {
		t.Fatal("expected a createdAt timestamp")
	}
	if len(env.requests.items) != 1 {
		t.Fatalf("expected 1 stored ticket, got %d", len(env.requests.items))
	}
	if got := env.bus.subjects; len(got) != 1 || got[0] != "request.created" {
		t.Fatalf("expected request.created event, got %v", got)
	}
}

func TestRequests_CreatedAtIsISO8601(t *testing.T) {
	env := setupTestServer(t, true)

	body := map[string]interface{}{
		"type": "leave", "title": "Leave", "createdBy": "alice",
		"payload": map[string]interface{}{"days": 2}, "target": "admin",
	}
	resp := postJSON(t, env.server.URL+"/api/requests", body, http.StatusOK)
	defer resp.Body.Close()

	var raw struct {
		Request map[string]interface{} `json:"request"`
	}
	decode(t, resp, &raw)

	createdAt, _ := raw.Request["createdAt"].(string)
	if _, err := time.Parse(time.RFC3339, createdAt); err != nil {
		t.Fatalf("createdAt %q is not RFC3339: %v", createdAt, err)
	}
}

func TestRequests_Create_MissingFields(t *testing.T) {
	env := setupTestServer(t, true)

	full := func() map[string]interface{} {
		return map[string]interface{}{
			"type": "leave", "title": "Leave", "createdBy": "alice",
			"payload": map[string]interface{}{"days": 2}, "target": "admin",
		}
	}

	for _, field := range []string{"type", "title", "createdBy", "payload", "target"} {
		t.Run("missing "+field, func(t *testing.T) {
			body := full()
			delete(body, field)
			resp := postJSON(t, env.server.URL+"/api/requests", body, http.StatusBadRequest)
			resp.Body.Close()
		})
	}

	if len(env.requests.items) != 0 {
		t.Fatalf("invalid submissions appended %d tickets", len(env.requests.items))
	}
}

func TestRequests_ListByTarget(t *testing.T) {
	env := setupTestServer(t, true)

	body := map[string]interface{}{
		"type": "leave", "title": "Leave", "createdBy": "alice",
		"payload": map[string]interface{}{"days": 2}, "target": "admin",
	}
	resp := postJSON(t, env.server.URL+"/api/requests", body, http.StatusOK)
	resp.Body.Close()

	// Tickets targeted elsewhere never surface in the hr view.
	resp = get(t, env.server.URL+"/api/requests?target=hr", http.StatusOK)
	var result struct {
		Success  bool                 `json:"success"`
		Requests []domain.RequestItem `json:"requests"`
	}
	decode(t, resp, &result)
	resp.Body.Close()

	if !result.Success || len(result.Requests) != 0 {
		t.Fatalf("expected empty hr list, got %+v", result)
	}

	resp = get(t, env.server.URL+"/api/requests?target=admin", http.StatusOK)
	decode(t, resp, &result)
	resp.Body.Close()

	if len(result.Requests) != 1 {
		t.Fatalf("expected 1 admin ticket, got %d", len(result.Requests))
	}
}

func TestRequests_TargetSetIsOpen(t *testing.T) {
	env := setupTestServer(t, true)

	// Audiences beyond the well-known three are accepted as-is.
	body := map[string]interface{}{
		"type": "budget", "title": "Q3 budget", "createdBy": "alice",
		"payload": map[string]interface{}{"amount": 1000}, "target": "finance",
	}
	resp := postJSON(t, env.server.URL+"/api/requests", body, http.StatusOK)
	var created struct {
		Success bool               `json:"success"`
		Request domain.RequestItem `json:"request"`
	}
	decode(t, resp, &created)
	resp.Body.Close()

	if !created.Success || created.Request.Status != domain.RequestPending {
		t.Fatalf("expected pending ticket, got %+v", created)
	}

	resp = get(t, env.server.URL+"/api/requests?target=finance", http.StatusOK)
	var listed struct {
		Success  bool                 `json:"success"`
		Requests []domain.RequestItem `json:"requests"`
	}
	decode(t, resp, &listed)
	resp.Body.Close()

	if len(listed.Requests) != 1 {
		t.Fatalf("expected 1 finance ticket, got %d", len(listed.Requests))
	}

	// An audience nothing was addressed to lists empty rather than erroring.
	resp = get(t, env.server.URL+"/api/requests?target=facilities", http.StatusOK)
	decode(t, resp, &listed)
	resp.Body.Close()

	if !listed.Success || len(listed.Requests) != 0 {
		t.Fatalf("expected empty facilities list, got %+v", listed)
	}
}

// ---------- Inquiries ----------

func TestInquiries_CreateDashboardFlavor(t *testing.T) {
	env := setupTestServer(t, true)

	body := map[string]string{
		"guestName": "Pat Guest",
		"email":     "pat@example.com",
		"subject":   "Room question",
		"message":   "Is late checkout possible?",
	}
	resp := postJSON(t, env.server.URL+"/api/guest-inquiries", body, http.StatusOK)
	defer resp.Body.Close()

	var result struct {
		Success bool           `json:"success"`
		Inquiry domain.Inquiry `json:"inquiry"`
	}
	decode(t, resp, &result)

	if !result.Success {
		t.Fatal("expected success")
	}
	if result.Inquiry.Status != domain.InquiryNew {
		t.Fatalf("expected status new, got %s", result.Inquiry.Status)
	}
	if !strings.HasPrefix(result.Inquiry.ID, "inq-") {
		t.Fatalf("expected inq- id prefix, got %s", result.Inquiry.ID)
	}
	if len(env.inqs.inqs) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(env.inqs.inqs))
	}
}

func TestInquiries_GuestFlavor(t *testing.T) {
	env := setupTestServer(t, true)

	body := map[string]string{
		"guestId":    "guest-42",
		"guestName":  "Pat Guest",
		"guestEmail": "pat@example.com",
		"subject":    "Parking",
		"message":    "Where do I park?",
		"timestamp":  "2026-01-02T10:00:00Z",
	}
	resp := postJSON(t, env.server.URL+"/api/guest/inquiry", body, http.StatusCreated)
	var created struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Inquiry domain.Inquiry `json:"inquiry"`
	}
	decode(t, resp, &created)
	resp.Body.Close()

	if !created.Success || created.Message == "" {
		t.Fatalf("expected success with message, got %+v", created)
	}

	resp = get(t, env.server.URL+"/api/guest/inquiry", http.StatusOK)
	var listed struct {
		Inquiries []domain.Inquiry `json:"inquiries"`
		Total     int              `json:"total"`
		NewCount  int              `json:"newCount"`
	}
	decode(t, resp, &listed)
	resp.Body.Close()

	if listed.Total != 1 || listed.NewCount != 1 || len(listed.Inquiries) != 1 {
		t.Fatalf("unexpected list result: %+v", listed)
	}
}

func TestInquiries_UniqueIDs(t *testing.T) {
	env := setupTestServer(t, true)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		body := map[string]string{
			"guestName": "Pat Guest",
			"email":     "pat@example.com",
			"subject":   fmt.Sprintf("Subject %d", i),
			"message":   "Hello",
		}
		resp := postJSON(t, env.server.URL+"/api/guest-inquiries", body, http.StatusOK)
		var result struct {
			Inquiry domain.Inquiry `json:"inquiry"`
		}
		decode(t, resp, &result)
		resp.Body.Close()

		if seen[result.Inquiry.ID] {
			t.Fatalf("duplicate inquiry id %s", result.Inquiry.ID)
		}
		seen[result.Inquiry.ID] = true
	}
}

func TestInquiries_Validation(t *testing.T) {
	env := setupTestServer(t, true)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "p@x.com", "subject": "S", "message": "M"}},
		{"missing subject", map[string]string{"guestName": "P", "email": "p@x.com", "message": "M"}},
		{"missing message", map[string]string{"guestName": "P", "email": "p@x.com", "subject": "S"}},
		{"no email or id", map[string]string{"guestName": "P", "subject": "S", "message": "M"}},
		{"bad email", map[string]string{"guestName": "P", "email": "not-an-email", "subject": "S", "message": "M"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, env.server.URL+"/api/guest-inquiries", tt.body, http.StatusBadRequest)
			resp.Body.Close()
		})
	}

	if len(env.inqs.inqs) != 0 {
		t.Fatalf("invalid submissions stored %d inquiries", len(env.inqs.inqs))
	}
}

// ---------- Ledger ----------

func TestLedger_Snapshot(t *testing.T) {
	env := setupTestServer(t, true)
	env.ledger.snap = &domain.LedgerSnapshot{
		Entries: []domain.LedgerEntry{
			{ID: 1, Account: "revenue", Credit: 5000, Currency: "USD"},
			{ID: 2, Account: "supplies", Debit: 1200, Currency: "USD"},
		},
		Totals: domain.LedgerTotals{Debit: 1200, Credit: 5000, Balance: 3800},
		AsOf:   time.Now(),
	}

	resp := get(t, env.server.URL+"/api/company-ledger", http.StatusOK)
	defer resp.Body.Close()

	var result struct {
		Success bool                  `json:"success"`
		Ledger  domain.LedgerSnapshot `json:"ledger"`
	}
	decode(t, resp, &result)

	if !result.Success || len(result.Ledger.Entries) != 2 {
		t.Fatalf("unexpected ledger payload: %+v", result)
	}
	if result.Ledger.Totals.Balance != 3800 {
		t.Fatalf("unexpected balance %d", result.Ledger.Totals.Balance)
	}
}

func TestLedger_ReadFaultIsGeneric500(t *testing.T) {
	env := setupTestServer(t, true)
	env.ledger.err = fmt.Errorf("relation ledger_entries does not exist")

	resp := get(t, env.server.URL+"/api/company-ledger", http.StatusInternalServerError)
	defer resp.Body.Close()

	var result map[string]interface{}
	decode(t, resp, &result)

	if msg, _ := result["error"].(string); strings.Contains(msg, "relation") {
		t.Fatalf("internal detail leaked to caller: %q", msg)
	}
}

// ---------- Helpers ----------

func postJSON(t *testing.T, url string, data interface{}, expectedStatus int) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonBytes(t, data)))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	if resp.StatusCode != expectedStatus {
		t.Fatalf("POST %s: expected status %d, got %d", url, expectedStatus, resp.StatusCode)
	}
	return resp
}

func get(t *testing.T, url string, expectedStatus int) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	if resp.StatusCode != expectedStatus {
		t.Fatalf("GET %s: expected status %d, got %d", url, expectedStatus, resp.StatusCode)
	}
	return resp
}

func authedGet(t *testing.T, url, token string, expectedStatus int) *http.Response {
	t.Helper()

	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	if resp.StatusCode != expectedStatus {
		t.Fatalf("GET %s: expected status %d, got %d", url, expectedStatus, resp.StatusCode)
	}
	return resp
}

func authedPatch(t *testing.T, url, token string, data interface{}, expectedStatus int) *http.Response {
	t.Helper()

	req, _ := http.NewRequest("PATCH", url, bytes.NewBuffer(jsonBytes(t, data)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH %s failed: %v", url, err)
	}
	if resp.StatusCode != expectedStatus {
		t.Fatalf("PATCH %s: expected status %d, got %d", url, expectedStatus, resp.StatusCode)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func jsonBytes(t *testing.T, data interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
