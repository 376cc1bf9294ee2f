package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// RoleChecker はユーザーのロール保持確認に必要なインターフェース。
// repository.PostgresUserRoleRepoの部分集合として定義する。
type RoleChecker interface {
	HasRole(ctx context.Context, userID int64, roleName string) (bool, error)
}

// NewRequireRoleMiddleware は指定ロールを保持する認証済みユーザーのみを
// 通過させるミドルウェアを返す。
// セッションミドルウェアの後に配置すること。
// ロールを保持しない呼び出しには403 Forbiddenを返す。
func NewRequireRoleMiddleware(checker RoleChecker, roleName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ClaimsFromContext(r.Context())
			if err != nil {
				http.Redirect(w, r, "/account/login", http.StatusSeeOther)
				return
			}

			ok, err := checker.HasRole(r.Context(), claims.UserID, roleName)
			if err != nil {
				slog.Error("failed to check role",
					slog.Int64("user_id", claims.UserID),
					slog.String("role", roleName),
					slog.String("error", err.Error()),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if !ok {
				slog.Warn("role check denied",
					slog.Int64("user_id", claims.UserID),
					slog.String("role", roleName),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
