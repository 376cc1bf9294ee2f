package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
)

type mockRoleChecker struct {
	hasRoleFn func(ctx context.Context, userID int64, roleName string) (bool, error)
}

func (m *mockRoleChecker) HasRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	if m.hasRoleFn != nil {
		return m.hasRoleFn(ctx, userID, roleName)
	}
	return false, nil
}

func requestWithClaims(userID int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	claims := &model.Claims{UserID: userID, Username: "alice"}
	return req.WithContext(ContextWithClaims(req.Context(), claims))
}

// ロールを保持するユーザーが通過できることを検証
func TestRequireRoleMiddleware_HasRole_Passes(t *testing.T) {
	checker := &mockRoleChecker{
		hasRoleFn: func(ctx context.Context, userID int64, roleName string) (bool, error) {
			return userID == 1 && roleName == model.AdminRoleName, nil
		},
	}

	mw := NewRequireRoleMiddleware(checker, model.AdminRoleName)
	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims(1))

	if !called {
		t.Error("handler should be called for admin user")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// ロールを保持しないユーザーが403で拒否されることを検証
func TestRequireRoleMiddleware_NoRole_Forbidden(t *testing.T) {
	mw := NewRequireRoleMiddleware(&mockRoleChecker{}, model.AdminRoleName)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims(2))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// 未認証リクエストがログインページへリダイレクトされることを検証
func TestRequireRoleMiddleware_Unauthenticated_Redirects(t *testing.T) {
	mw := NewRequireRoleMiddleware(&mockRoleChecker{}, model.AdminRoleName)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

// ロール確認の失敗が500になることを検証
func TestRequireRoleMiddleware_CheckError(t *testing.T) {
	checker := &mockRoleChecker{
		hasRoleFn: func(ctx context.Context, userID int64, roleName string) (bool, error) {
			return false, fmt.Errorf("db down")
		},
	}

	mw := NewRequireRoleMiddleware(checker, model.AdminRoleName)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims(1))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
