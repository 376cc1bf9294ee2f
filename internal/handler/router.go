package handler

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

//go:embed static
var staticFS embed.FS

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// セッション・セキュリティ
	SessionTokens middleware.SessionTokens
	CookieConfig  middleware.CookieConfig
	CSRFConfig    middleware.CSRFConfig
	RateLimiter   *middleware.RateLimiter
	RoleChecker   middleware.RoleChecker

	// メトリクス
	RequestRecorder middleware.RequestRecorder
	AuthRecorder    AuthRecorder
	Gatherer        prometheus.Gatherer

	// サービス
	AccountService AccountServiceInterface
	UserService    AdminUserServiceInterface
	RoleService    RoleServiceInterface
	ProductService ProductServiceInterface

	// ヘルスチェック
	DB Pinger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → CSRF
//
// 認証が必要なルートにはさらにSession → RateLimit(General)が、
// 管理ルートにはRequireRole(admin)が加わる。
// ログインPOSTにはIP単位のレート制限を適用する。
func NewRouter(deps *RouterDeps, renderer *Renderer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.RequestRecorder))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	accountHandler := NewAccountHandler(deps.AccountService, deps.SessionTokens, deps.CookieConfig, renderer, deps.AuthRecorder)
	adminHandler := NewAdminHandler(deps.UserService, deps.RoleService, renderer)
	productHandler := NewProductHandler(deps.ProductService, renderer)

	// --- 認証不要のルート ---

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/products", http.StatusSeeOther)
	})

	r.Route("/account", func(r chi.Router) {
		r.Get("/register", accountHandler.ShowRegister)
		r.Post("/register", accountHandler.Register)
		r.Get("/login", accountHandler.ShowLogin)
		// ログイン試行はIP単位のレート制限を追加
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", accountHandler.Login)
	})

	r.Get("/health", NewHealthHandler(deps.DB))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	staticRoot, err := fs.Sub(staticFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionTokens, deps.CookieConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/account/profile", func(r chi.Router) {
			r.Get("/", accountHandler.ShowProfile)
			r.Post("/", accountHandler.UpdateProfile)
		})
		r.Post("/account/logout", accountHandler.Logout)
		r.Post("/account/delete", accountHandler.DeleteAccount)

		// 商品カタログ
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/new", productHandler.ShowCreate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.Show)
				r.Post("/", productHandler.Update)
				r.Get("/edit", productHandler.ShowEdit)
				r.Post("/delete", productHandler.Delete)
			})
		})

		// --- 管理ルート: adminロールを要求 ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireRoleMiddleware(deps.RoleChecker, model.AdminRoleName))

			r.Route("/admin/users", func(r chi.Router) {
				r.Get("/", adminHandler.ListUsers)
				r.Post("/", adminHandler.CreateUser)
				r.Get("/new", adminHandler.ShowCreateUser)

				r.Route("/{id}", func(r chi.Router) {
					r.Post("/", adminHandler.UpdateUser)
					r.Get("/edit", adminHandler.ShowEditUser)
					r.Post("/delete", adminHandler.DeleteUser)

					r.Get("/roles", adminHandler.ShowUserRoles)
					r.Post("/roles/assign", adminHandler.AssignRole)
					r.Post("/roles/remove", adminHandler.RemoveRole)
				})
			})

			r.Route("/admin/roles", func(r chi.Router) {
				r.Get("/", adminHandler.ListRoles)
				r.Post("/", adminHandler.CreateRole)
				r.Post("/{id}/delete", adminHandler.DeleteRole)
			})
		})
	})

	return r
}
