package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// --- モック ---

type mockAccountService struct {
	registerFn      func(ctx context.Context, in auth.RegisterInput) (int64, error)
	loginFn         func(ctx context.Context, username, password string) (*model.User, error)
	updateProfileFn func(ctx context.Context, userID int64, in auth.ProfileUpdateInput) (*model.User, error)
	deleteAccountFn func(ctx context.Context, userID int64) error
}

func (m *mockAccountService) Register(ctx context.Context, in auth.RegisterInput) (int64, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return 1, nil
}
func (m *mockAccountService) Login(ctx context.Context, username, password string) (*model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, model.NewInvalidCredentialsError()
}
func (m *mockAccountService) UpdateProfile(ctx context.Context, userID int64, in auth.ProfileUpdateInput) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, in)
	}
	return nil, nil
}
func (m *mockAccountService) DeleteAccount(ctx context.Context, userID int64) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, userID)
	}
	return nil
}

type mockTokenIssuer struct {
	issueFn func(claims model.Claims) (string, error)
}

func (m *mockTokenIssuer) Issue(claims model.Claims) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(claims)
	}
	return "test-token", nil
}

type mockAuthRecorder struct {
	loginSuccess  int
	loginFailure  int
	registrations int
}

func (m *mockAuthRecorder) RecordLogin(success bool) {
	if success {
		m.loginSuccess++
	} else {
		m.loginFailure++
	}
}
func (m *mockAuthRecorder) RecordRegistration() {
	m.registrations++
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer returned error: %v", err)
	}
	return renderer
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// --- テスト ---

// ログイン成功でセッションCookieが設定され、商品一覧へリダイレクトされることを検証
func TestAccountHandler_Login_Success(t *testing.T) {
	service := &mockAccountService{
		loginFn: func(ctx context.Context, username, password string) (*model.User, error) {
			return &model.User{ID: 1, Username: "alice", Email: "alice@example.com"}, nil
		},
	}
	recorder := &mockAuthRecorder{}
	h := NewAccountHandler(service, &mockTokenIssuer{}, middleware.CookieConfig{MaxAge: 3600}, newTestRenderer(t), recorder)

	form := url.Values{"username": {"alice"}, "password": {"secret"}}
	rec := httptest.NewRecorder()
	h.Login(rec, postForm("/account/login", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/products" {
		t.Errorf("Location = %q, want /products", loc)
	}

	var sessionSet bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.Value == "test-token" {
			sessionSet = true
			if !c.HttpOnly {
				t.Error("session cookie should be HttpOnly")
			}
		}
	}
	if !sessionSet {
		t.Error("expected session cookie to be set")
	}
	if recorder.loginSuccess != 1 {
		t.Errorf("loginSuccess = %d, want 1", recorder.loginSuccess)
	}
}

// ログイン失敗でフォームが再描画され、Cookieが設定されないことを検証
func TestAccountHandler_Login_Failure(t *testing.T) {
	recorder := &mockAuthRecorder{}
	h := NewAccountHandler(&mockAccountService{}, &mockTokenIssuer{}, middleware.CookieConfig{}, newTestRenderer(t), recorder)

	form := url.Values{"username": {"alice"}, "password": {"wrong"}}
	rec := httptest.NewRecorder()
	h.Login(rec, postForm("/account/login", form))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			t.Error("session cookie should not be set on failure")
		}
	}
	if !strings.Contains(rec.Body.String(), "ユーザー名またはパスワードが正しくありません。") {
		t.Error("expected generic credentials error in response body")
	}
	if recorder.loginFailure != 1 {
		t.Errorf("loginFailure = %d, want 1", recorder.loginFailure)
	}
}

// ユーザー名不存在とパスワード不一致でレスポンス本文が同一であることを検証
func TestAccountHandler_Login_IndistinguishableFailures(t *testing.T) {
	unknownUser := &mockAccountService{
		loginFn: func(ctx context.Context, username, password string) (*model.User, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	wrongPassword := &mockAccountService{
		loginFn: func(ctx context.Context, username, password string) (*model.User, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}

	renderer := newTestRenderer(t)
	bodies := make([]string, 0, 2)
	for _, service := range []*mockAccountService{unknownUser, wrongPassword} {
		h := NewAccountHandler(service, &mockTokenIssuer{}, middleware.CookieConfig{}, renderer, &mockAuthRecorder{})
		form := url.Values{"username": {"alice"}, "password": {"x"}}
		rec := httptest.NewRecorder()
		h.Login(rec, postForm("/account/login", form))
		bodies = append(bodies, rec.Body.String())
	}

	if bodies[0] != bodies[1] {
		t.Error("failure responses should be identical for unknown user and wrong password")
	}
}

// 登録成功でログインページへリダイレクトされることを検証
func TestAccountHandler_Register_Success(t *testing.T) {
	recorder := &mockAuthRecorder{}
	h := NewAccountHandler(&mockAccountService{}, &mockTokenIssuer{}, middleware.CookieConfig{}, newTestRenderer(t), recorder)

	form := url.Values{"username": {"alice"}, "email": {"alice@example.com"}, "password": {"secret"}}
	rec := httptest.NewRecorder()
	h.Register(rec, postForm("/account/register", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/account/login" {
		t.Errorf("Location = %q, want /account/login", loc)
	}
	if recorder.registrations != 1 {
		t.Errorf("registrations = %d, want 1", recorder.registrations)
	}
}

// ユーザー名重複で入力値を保持したままフォームが再描画されることを検証
func TestAccountHandler_Register_Duplicate(t *testing.T) {
	service := &mockAccountService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (int64, error) {
			return 0, model.NewDuplicateUsernameError()
		},
	}
	h := NewAccountHandler(service, &mockTokenIssuer{}, middleware.CookieConfig{}, newTestRenderer(t), &mockAuthRecorder{})

	form := url.Values{"username": {"alice"}, "email": {"alice@example.com"}, "password": {"secret"}}
	rec := httptest.NewRecorder()
	h.Register(rec, postForm("/account/register", form))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "alice@example.com") {
		t.Error("expected submitted email to be preserved in form")
	}
	if strings.Contains(body, "secret") {
		t.Error("password must not appear in response body")
	}
}

// プロフィール更新成功でクレームセットが再発行されることを検証
func TestAccountHandler_UpdateProfile_ReissuesToken(t *testing.T) {
	service := &mockAccountService{
		updateProfileFn: func(ctx context.Context, userID int64, in auth.ProfileUpdateInput) (*model.User, error) {
			return &model.User{ID: userID, Username: "alice", Email: in.Email}, nil
		},
	}
	var issued *model.Claims
	issuer := &mockTokenIssuer{
		issueFn: func(claims model.Claims) (string, error) {
			issued = &claims
			return "new-token", nil
		},
	}
	h := NewAccountHandler(service, issuer, middleware.CookieConfig{MaxAge: 3600}, newTestRenderer(t), &mockAuthRecorder{})

	form := url.Values{
		"current_password": {"secret"},
		"email":            {"new@example.com"},
	}
	req := postForm("/account/profile", form)
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), &model.Claims{UserID: 1, Username: "alice", Email: "old@example.com"}))
	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if issued == nil || issued.Email != "new@example.com" {
		t.Errorf("issued claims = %+v, want email new@example.com", issued)
	}
}

// 現在のパスワードが違う場合にフォームが再描画されることを検証
func TestAccountHandler_UpdateProfile_WrongCurrentPassword(t *testing.T) {
	service := &mockAccountService{
		updateProfileFn: func(ctx context.Context, userID int64, in auth.ProfileUpdateInput) (*model.User, error) {
			return nil, model.NewWrongCurrentPasswordError()
		},
	}
	h := NewAccountHandler(service, &mockTokenIssuer{}, middleware.CookieConfig{}, newTestRenderer(t), &mockAuthRecorder{})

	form := url.Values{"current_password": {"wrong"}, "email": {"a@example.com"}}
	req := postForm("/account/profile", form)
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), &model.Claims{UserID: 1, Username: "alice"}))
	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

// アカウント削除でCookieが破棄されログインページへリダイレクトされることを検証
func TestAccountHandler_DeleteAccount(t *testing.T) {
	var deletedID int64
	service := &mockAccountService{
		deleteAccountFn: func(ctx context.Context, userID int64) error {
			deletedID = userID
			return nil
		},
	}
	h := NewAccountHandler(service, &mockTokenIssuer{}, middleware.CookieConfig{}, newTestRenderer(t), &mockAuthRecorder{})

	req := postForm("/account/delete", url.Values{})
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), &model.Claims{UserID: 7, Username: "alice"}))
	rec := httptest.NewRecorder()
	h.DeleteAccount(rec, req)

	if deletedID != 7 {
		t.Errorf("deleted user ID = %d, want 7", deletedID)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

// ログアウトでCookieが破棄されることを検証
func TestAccountHandler_Logout(t *testing.T) {
	h := NewAccountHandler(&mockAccountService{}, &mockTokenIssuer{}, middleware.CookieConfig{}, newTestRenderer(t), &mockAuthRecorder{})

	rec := httptest.NewRecorder()
	h.Logout(rec, postForm("/account/logout", url.Values{}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}
