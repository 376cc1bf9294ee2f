package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (int64, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, in auth.ProfileUpdateInput) (*model.User, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

// TokenIssuer はログイン成功時のトークン発行に必要なインターフェース。
type TokenIssuer interface {
	Issue(claims model.Claims) (string, error)
}

// AuthRecorder は認証イベントのメトリクス記録に必要なインターフェース。
type AuthRecorder interface {
	RecordLogin(success bool)
	RecordRegistration()
}

// AccountHandler は登録・ログイン・プロフィール管理のHTTPハンドラー。
type AccountHandler struct {
	service  AccountServiceInterface
	tokens   TokenIssuer
	cookie   middleware.CookieConfig
	renderer *Renderer
	metrics  AuthRecorder
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(
	service AccountServiceInterface,
	tokens TokenIssuer,
	cookie middleware.CookieConfig,
	renderer *Renderer,
	metrics AuthRecorder,
) *AccountHandler {
	return &AccountHandler{
		service:  service,
		tokens:   tokens,
		cookie:   cookie,
		renderer: renderer,
		metrics:  metrics,
	}
}

// registerForm は登録フォームの再描画用データ。
type registerForm struct {
	Username string
	Email    string
}

// loginForm はログインフォームの再描画用データ。
type loginForm struct {
	Username string
}

// profileForm はプロフィールフォームの描画用データ。
type profileForm struct {
	Email string
}

// ShowRegister は登録フォームを表示する。
// GET /account/register
func (h *AccountHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "register", ViewData{
		Title:     "ユーザー登録",
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data:      registerForm{},
	})
}

// Register は登録フォームの送信を処理する。
// POST /account/register
// 成功時はログインページへリダイレクトする。
// ユーザー名重複などの業務エラーは入力値を保持したままフォームを再描画する。
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	in := auth.RegisterInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	if _, err := h.service.Register(r.Context(), in); err != nil {
		message, fieldErrors, ok := formError(err)
		if !ok {
			internalError(w, "failed to register user", err)
			return
		}
		h.renderer.Render(w, http.StatusUnprocessableEntity, "register", ViewData{
			Title:        "ユーザー登録",
			CSRFToken:    middleware.CSRFTokenFromRequest(r),
			ErrorMessage: message,
			FieldErrors:  fieldErrors,
			Data:         registerForm{Username: in.Username, Email: in.Email},
		})
		return
	}

	h.metrics.RecordRegistration()
	http.Redirect(w, r, "/account/login", http.StatusSeeOther)
}

// ShowLogin はログインフォームを表示する。
// GET /account/login
func (h *AccountHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "login", ViewData{
		Title:     "ログイン",
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data:      loginForm{},
	})
}

// Login はログインフォームの送信を処理する。
// POST /account/login
// 成功時はクレームセットを署名してCookieに設定し、商品一覧へリダイレクトする。
// 失敗時はユーザー名不存在・パスワード不一致を区別しないメッセージで再描画する。
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		message, _, ok := formError(err)
		if !ok {
			internalError(w, "failed to login", err)
			return
		}
		h.metrics.RecordLogin(false)
		h.renderer.Render(w, http.StatusUnauthorized, "login", ViewData{
			Title:        "ログイン",
			CSRFToken:    middleware.CSRFTokenFromRequest(r),
			ErrorMessage: message,
			Data:         loginForm{Username: username},
		})
		return
	}

	token, err := h.tokens.Issue(model.ClaimsFromUser(user))
	if err != nil {
		internalError(w, "failed to issue session token", err)
		return
	}

	h.metrics.RecordLogin(true)
	middleware.SetSessionCookie(w, h.cookie, token)
	http.Redirect(w, r, "/products", http.StatusSeeOther)
}

// Logout はセッションCookieを削除する。
// POST /account/logout
// トークンはステートレスなため、サーバー側に破棄すべき状態はない。
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, h.cookie)
	http.Redirect(w, r, "/account/login", http.StatusSeeOther)
}

// ShowProfile はプロフィール編集フォームを表示する。
// GET /account/profile
func (h *AccountHandler) ShowProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/account/login", http.StatusSeeOther)
		return
	}

	h.renderer.Render(w, http.StatusOK, "profile", ViewData{
		Title:     "プロフィール",
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data:      profileForm{Email: claims.Email},
	})
}

// UpdateProfile はプロフィール編集フォームの送信を処理する。
// POST /account/profile
// 成功時は更新後のユーザーでクレームセットを再発行する。
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/account/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	in := auth.ProfileUpdateInput{
		CurrentPassword:    r.PostFormValue("current_password"),
		Email:              r.PostFormValue("email"),
		NewPassword:        r.PostFormValue("new_password"),
		ConfirmNewPassword: r.PostFormValue("confirm_new_password"),
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.UserID, in)
	if err != nil {
		message, fieldErrors, ok := formError(err)
		if !ok {
			internalError(w, "failed to update profile", err)
			return
		}
		h.renderer.Render(w, http.StatusUnprocessableEntity, "profile", ViewData{
			Title:        "プロフィール",
			Claims:       claims,
			CSRFToken:    middleware.CSRFTokenFromRequest(r),
			ErrorMessage: message,
			FieldErrors:  fieldErrors,
			Data:         profileForm{Email: in.Email},
		})
		return
	}

	// メールアドレスが変わった可能性があるため、クレームセットを再発行する
	token, err := h.tokens.Issue(model.ClaimsFromUser(user))
	if err != nil {
		internalError(w, "failed to reissue session token", err)
		return
	}
	middleware.SetSessionCookie(w, h.cookie, token)

	http.Redirect(w, r, "/account/profile", http.StatusSeeOther)
}

// DeleteAccount は自アカウントを削除し、セッションCookieを破棄する。
// POST /account/delete
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/account/login", http.StatusSeeOther)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), claims.UserID); err != nil {
		internalError(w, "failed to delete account", err)
		return
	}

	middleware.ClearSessionCookie(w, h.cookie)
	http.Redirect(w, r, "/account/login", http.StatusSeeOther)
}
