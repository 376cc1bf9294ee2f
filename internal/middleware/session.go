// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// SessionCookieName はクレームセットを運ぶCookieの名前。
const SessionCookieName = "session_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストにクレームセットを格納するためのキー。
var claimsContextKey = contextKey("claims")

// SessionTokens はセッショントークンの検証と再発行に必要なインターフェース。
// auth.TokenManagerの部分集合として定義する。
type SessionTokens interface {
	// Verify はトークンを検証し、クレームセットと発行時刻を返す。
	Verify(tokenString string) (*model.Claims, time.Time, error)
	// Issue はクレームセットから署名付きトークンを発行する。
	Issue(claims model.Claims) (string, error)
	// ShouldRefresh は発行から再発行間隔を超えている場合にtrueを返す。
	ShouldRefresh(issuedAt time.Time) bool
}

// CookieConfig はセッションCookieの属性設定。
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge int // 秒
}

// SetSessionCookie はセッショントークンをHTTP Only Cookieとして設定する。
func SetSessionCookie(w http.ResponseWriter, config CookieConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   config.MaxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie はセッションCookieを削除する。
// ログアウトおよび自アカウント削除時に使用する。
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// NewSessionMiddleware はCookieからセッショントークンを読み取り、
// 署名とアイドルタイムアウトを検証するミドルウェアを返す。
// 検証済みクレームセットをリクエストコンテキストに注入する。
// 再発行間隔を超えたトークンは新しい発行時刻で再発行し、スライディング延長する。
// 未認証リクエストはログインページへリダイレクトする。
func NewSessionMiddleware(tokens SessionTokens, config CookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからトークンを取得
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, "/account/login", http.StatusSeeOther)
				return
			}

			// 2. トークンの検証
			claims, issuedAt, err := tokens.Verify(cookie.Value)
			if err != nil {
				slog.Warn("session verification failed",
					slog.String("error", err.Error()),
				)
				ClearSessionCookie(w, config)
				http.Redirect(w, r, "/account/login", http.StatusSeeOther)
				return
			}

			// 3. スライディング延長: 再発行間隔を超えていればトークンを再発行
			if tokens.ShouldRefresh(issuedAt) {
				refreshed, err := tokens.Issue(*claims)
				if err != nil {
					slog.Error("failed to refresh session token",
						slog.String("error", err.Error()),
					)
				} else {
					SetSessionCookie(w, config, refreshed)
				}
			}

			// 4. 検証済みクレームセットをコンテキストに注入
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext はリクエストコンテキストからクレームセットを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*model.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*model.Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("claims not found in context")
	}
	return claims, nil
}

// ContextWithClaims はコンテキストにクレームセットを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *model.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
