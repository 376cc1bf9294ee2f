package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// --- モック ---

type mockTokens struct {
	verifyFn        func(tokenString string) (*model.Claims, time.Time, error)
	issueFn         func(claims model.Claims) (string, error)
	shouldRefreshFn func(issuedAt time.Time) bool
}

func (m *mockTokens) Verify(tokenString string) (*model.Claims, time.Time, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return nil, time.Time{}, fmt.Errorf("invalid token")
}

func (m *mockTokens) Issue(claims model.Claims) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(claims)
	}
	return "issued-token", nil
}

func (m *mockTokens) ShouldRefresh(issuedAt time.Time) bool {
	if m.shouldRefreshFn != nil {
		return m.shouldRefreshFn(issuedAt)
	}
	return false
}

var _ SessionTokens = (*mockTokens)(nil)

func validTokens() *mockTokens {
	return &mockTokens{
		verifyFn: func(tokenString string) (*model.Claims, time.Time, error) {
			if tokenString != "valid-token" {
				return nil, time.Time{}, fmt.Errorf("invalid token")
			}
			return &model.Claims{UserID: 1, Username: "alice", Email: "alice@example.com"}, time.Now(), nil
		},
	}
}

// --- テスト ---

// Cookieなしのリクエストがログインページへリダイレクトされることを検証
func TestSessionMiddleware_NoCookie_RedirectsToLogin(t *testing.T) {
	mw := NewSessionMiddleware(validTokens(), CookieConfig{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/account/login" {
		t.Errorf("Location = %q, want /account/login", loc)
	}
}

// 有効なトークンでクレームセットがコンテキストに注入されることを検証
func TestSessionMiddleware_ValidToken_InjectsClaims(t *testing.T) {
	mw := NewSessionMiddleware(validTokens(), CookieConfig{})

	var got *model.Claims
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ClaimsFromContext(r.Context())
		if err != nil {
			t.Fatalf("ClaimsFromContext returned error: %v", err)
		}
		got = claims
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got == nil || got.UserID != 1 || got.Username != "alice" {
		t.Errorf("claims = %+v, want UserID=1 Username=alice", got)
	}
}

// 無効なトークンでCookieが削除されリダイレクトされることを検証
func TestSessionMiddleware_InvalidToken_ClearsCookieAndRedirects(t *testing.T) {
	mw := NewSessionMiddleware(validTokens(), CookieConfig{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tampered-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

// 再発行間隔を超えたトークンが新しいCookieで再発行されることを検証
func TestSessionMiddleware_Refresh_ReissuesCookie(t *testing.T) {
	tokens := validTokens()
	tokens.shouldRefreshFn = func(issuedAt time.Time) bool { return true }
	tokens.issueFn = func(claims model.Claims) (string, error) {
		return "refreshed-token", nil
	}

	mw := NewSessionMiddleware(tokens, CookieConfig{MaxAge: 3600})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var refreshed bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value == "refreshed-token" {
			refreshed = true
			if !c.HttpOnly {
				t.Error("session cookie should be HttpOnly")
			}
		}
	}
	if !refreshed {
		t.Error("expected refreshed session cookie to be set")
	}
}

// 再発行間隔内のトークンではCookieが再発行されないことを検証
func TestSessionMiddleware_NoRefreshWithinInterval(t *testing.T) {
	mw := NewSessionMiddleware(validTokens(), CookieConfig{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			t.Errorf("unexpected session cookie set: %q", c.Value)
		}
	}
}

// コンテキストにクレームセットがない場合にエラーになることを検証
func TestClaimsFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := ClaimsFromContext(req.Context()); err == nil {
		t.Error("expected error for missing claims")
	}
}
