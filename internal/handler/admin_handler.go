package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/user"
)

// AdminUserServiceInterface は管理画面のユーザー管理に必要なサービスインターフェース。
type AdminUserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, in user.CreateInput) (int64, error)
	Update(ctx context.Context, id int64, in user.UpdateInput) error
	Delete(ctx context.Context, id int64) error
}

// RoleServiceInterface は管理画面のロール管理に必要なサービスインターフェース。
type RoleServiceInterface interface {
	List(ctx context.Context) ([]*model.Role, error)
	Create(ctx context.Context, name string) (int64, error)
	Delete(ctx context.Context, id int64) error
	RolesOfUser(ctx context.Context, userID int64) ([]*model.Role, error)
	Assign(ctx context.Context, userID, roleID int64) error
	Remove(ctx context.Context, userID, roleID int64) error
}

// AdminHandler は管理画面のHTTPハンドラー。
// 全エンドポイントはadminロールを要求するミドルウェアの背後に配置される。
type AdminHandler struct {
	users    AdminUserServiceInterface
	roles    RoleServiceInterface
	renderer *Renderer
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(users AdminUserServiceInterface, roles RoleServiceInterface, renderer *Renderer) *AdminHandler {
	return &AdminHandler{users: users, roles: roles, renderer: renderer}
}

// adminUserForm はユーザーフォームの描画用データ。
type adminUserForm struct {
	Action   string
	ID       int64
	Username string
	Email    string
	IsNew    bool
}

// userRolesView はロール割り当てページの描画用データ。
type userRolesView struct {
	User     *model.User
	Assigned []*model.Role
	AllRoles []*model.Role
}

// --- ユーザー管理 ---

// ListUsers はユーザー一覧ページを表示する。
// GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		internalError(w, "failed to list users", err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "admin_users", ViewData{
		Title:     "ユーザー管理",
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data:      users,
	})
}

// ShowCreateUser はユーザー作成フォームを表示する。
// GET /admin/users/new
func (h *AdminHandler) ShowCreateUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "admin_user_form", ViewData{
		Title:     "ユーザーの作成",
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data:      adminUserForm{Action: "/admin/users", IsNew: true},
	})
}

// CreateUser はユーザー作成フォームの送信を処理する。
// POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	in := user.CreateInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	if _, err := h.users.Create(r.Context(), in); err != nil {
		message, fieldErrors, ok := formError(err)
		if !ok {
			internalError(w, "failed to create user", err)
			return
		}
		claims, _ := middleware.ClaimsFromContext(r.Context())
		h.renderer.Render(w, http.StatusUnprocessableEntity, "admin_user_form", ViewData{
			Title:        "ユーザーの作成",
			Claims:       claims,
			CSRFToken:    middleware.CSRFTokenFromRequest(r),
			ErrorMessage: message,
			FieldErrors:  fieldErrors,
			Data:         adminUserForm{Action: "/admin/users", Username: in.Username, Email: in.Email, IsNew: true},
		})
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// ShowEditUser はユーザー編集フォームを表示する。
// GET /admin/users/{id}/edit
func (h *AdminHandler) ShowEditUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		if _, _, ok := formError(err); ok {
			http.NotFound(w, r)
			return
		}
		internalError(w, "failed to get user", err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "admin_user_form", ViewData{
		Title:     "ユーザーの編集",
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data: adminUserForm{
			Action:   fmt.Sprintf("/admin/users/%d", id),
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
		},
	})
}

// UpdateUser はユーザー編集フォームの送信を処理する。
// POST /admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	in := user.UpdateInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
	}

	if err := h.users.Update(r.Context(), id, in); err != nil {
		message, fieldErrors, ok := formError(err)
		if !ok {
			internalError(w, "failed to update user", err)
			return
		}
		claims, _ := middleware.ClaimsFromContext(r.Context())
		h.renderer.Render(w, http.StatusUnprocessableEntity, "admin_user_form", ViewData{
			Title:        "ユーザーの編集",
			Claims:       claims,
			CSRFToken:    middleware.CSRFTokenFromRequest(r),
			ErrorMessage: message,
			FieldErrors:  fieldErrors,
			Data: adminUserForm{
				Action:   fmt.Sprintf("/admin/users/%d", id),
				ID:       id,
				Username: in.Username,
				Email:    in.Email,
			},
		})
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// DeleteUser はユーザーを削除する。
// POST /admin/users/{id}/delete
// ロール割り当てはCASCADEで同時に削除される。
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if _, _, ok := formError(err); ok {
			http.NotFound(w, r)
			return
		}
		internalError(w, "failed to delete user", err)
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// --- ロール管理 ---

// ListRoles はロール一覧と作成フォームを表示する。
// GET /admin/roles
func (h *AdminHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		internalError(w, "failed to list roles", err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "admin_roles", ViewData{
		Title:     "ロール管理",
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data:      roles,
	})
}

// CreateRole はロール作成フォームの送信を処理する。
// POST /admin/roles
func (h *AdminHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	name := r.PostFormValue("name")
	if _, err := h.roles.Create(r.Context(), name); err != nil {
		message, _, ok := formError(err)
		if !ok {
			internalError(w, "failed to create role", err)
			return
		}
		roles, listErr := h.roles.List(r.Context())
		if listErr != nil {
			internalError(w, "failed to list roles", listErr)
			return
		}
		claims, _ := middleware.ClaimsFromContext(r.Context())
		h.renderer.Render(w, http.StatusUnprocessableEntity, "admin_roles", ViewData{
			Title:        "ロール管理",
			Claims:       claims,
			CSRFToken:    middleware.CSRFTokenFromRequest(r),
			ErrorMessage: message,
			Data:         roles,
		})
		return
	}

	http.Redirect(w, r, "/admin/roles", http.StatusSeeOther)
}

// DeleteRole はロールを削除する。
// POST /admin/roles/{id}/delete
// 割り当て済みのuser_roles行はCASCADEで同時に削除される。
func (h *AdminHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.roles.Delete(r.Context(), id); err != nil {
		if _, _, ok := formError(err); ok {
			http.NotFound(w, r)
			return
		}
		internalError(w, "failed to delete role", err)
		return
	}

	http.Redirect(w, r, "/admin/roles", http.StatusSeeOther)
}

// --- ロール割り当て ---

// ShowUserRoles はユーザーのロール割り当てページを表示する。
// GET /admin/users/{id}/roles
func (h *AdminHandler) ShowUserRoles(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		if _, _, ok := formError(err); ok {
			http.NotFound(w, r)
			return
		}
		internalError(w, "failed to get user", err)
		return
	}

	assigned, err := h.roles.RolesOfUser(r.Context(), id)
	if err != nil {
		internalError(w, "failed to get user roles", err)
		return
	}

	allRoles, err := h.roles.List(r.Context())
	if err != nil {
		internalError(w, "failed to list roles", err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "admin_user_roles", ViewData{
		Title:     "ロール割り当て",
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data: userRolesView{
			User:     u,
			Assigned: assigned,
			AllRoles: allRoles,
		},
	})
}

// AssignRole はユーザーへのロール割り当てを処理する。
// POST /admin/users/{id}/roles/assign
// 割り当て済みのロールを再度割り当てても冪等に成功する。
func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.roles.Assign, "failed to assign role")
}

// RemoveRole はユーザーからのロール除去を処理する。
// POST /admin/users/{id}/roles/remove
func (h *AdminHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.roles.Remove, "failed to remove role")
}

// changeRole はロールの割り当て・除去に共通するフォーム処理。
func (h *AdminHandler) changeRole(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID, roleID int64) error,
	logMsg string,
) {
	userID, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	roleID, err := strconv.ParseInt(r.PostFormValue("role_id"), 10, 64)
	if err != nil || roleID <= 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := op(r.Context(), userID, roleID); err != nil {
		if _, _, ok := formError(err); ok {
			http.NotFound(w, r)
			return
		}
		internalError(w, logMsg, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/admin/users/%d/roles", userID), http.StatusSeeOther)
}
