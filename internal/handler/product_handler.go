package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/product"
)

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	List(ctx context.Context) ([]*model.Product, error)
	Get(ctx context.Context, id int64) (*model.Product, error)
	Create(ctx context.Context, in product.Input) (int64, error)
	Update(ctx context.Context, id int64, in product.Input) error
	Delete(ctx context.Context, id int64) error
}

// ProductHandler は商品カタログのHTTPハンドラー。
type ProductHandler struct {
	service  ProductServiceInterface
	renderer *Renderer
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface, renderer *Renderer) *ProductHandler {
	return &ProductHandler{service: service, renderer: renderer}
}

// productForm は商品フォームの描画用データ。
// Priceは入力値をそのまま再表示するため文字列で保持する。
type productForm struct {
	Action      string
	Name        string
	Price       string
	Description string
}

// idParam はURLパスの{id}を解析する。
func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", raw)
	}
	return id, nil
}

// List は商品一覧ページを表示する。
// GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		internalError(w, "failed to list products", err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "products_list", ViewData{
		Title:     "商品一覧",
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data:      products,
	})
}

// Show は商品詳細ページを表示する。
// GET /products/{id}
func (h *ProductHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if _, _, ok := formError(err); ok {
			http.NotFound(w, r)
			return
		}
		internalError(w, "failed to get product", err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "product_detail", ViewData{
		Title:     p.Name,
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data:      p,
	})
}

// ShowCreate は商品作成フォームを表示する。
// GET /products/new
func (h *ProductHandler) ShowCreate(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "product_form", ViewData{
		Title:     "商品の作成",
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data:      productForm{Action: "/products"},
	})
}

// Create は商品作成フォームの送信を処理する。
// POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, form, appErr := h.parseProductForm(r, "/products")
	if appErr != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, "商品の作成", form, appErr)
		return
	}

	id, err := h.service.Create(r.Context(), in)
	if err != nil {
		message, fieldErrors, ok := formError(err)
		if !ok {
			internalError(w, "failed to create product", err)
			return
		}
		h.renderFormErrors(w, r, "商品の作成", form, message, fieldErrors)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/products/%d", id), http.StatusSeeOther)
}

// ShowEdit は商品編集フォームを表示する。
// GET /products/{id}/edit
func (h *ProductHandler) ShowEdit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if _, _, ok := formError(err); ok {
			http.NotFound(w, r)
			return
		}
		internalError(w, "failed to get product", err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "product_form", ViewData{
		Title:     "商品の編集",
		Claims:    claims,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Data: productForm{
			Action:      fmt.Sprintf("/products/%d", id),
			Name:        p.Name,
			Price:       strconv.FormatFloat(p.Price, 'f', 2, 64),
			Description: p.Description,
		},
	})
}

// Update は商品編集フォームの送信を処理する。
// POST /products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	in, form, appErr := h.parseProductForm(r, fmt.Sprintf("/products/%d", id))
	if appErr != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, "商品の編集", form, appErr)
		return
	}

	if err := h.service.Update(r.Context(), id, in); err != nil {
		message, fieldErrors, ok := formError(err)
		if !ok {
			internalError(w, "failed to update product", err)
			return
		}
		h.renderFormErrors(w, r, "商品の編集", form, message, fieldErrors)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/products/%d", id), http.StatusSeeOther)
}

// Delete は商品を削除する。
// POST /products/{id}/delete
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if _, _, ok := formError(err); ok {
			http.NotFound(w, r)
			return
		}
		internalError(w, "failed to delete product", err)
		return
	}

	http.Redirect(w, r, "/products", http.StatusSeeOther)
}

// parseProductForm はフォーム入力を解析する。
// 価格が数値として解釈できない場合はバリデーションエラーを返す。
func (h *ProductHandler) parseProductForm(r *http.Request, action string) (product.Input, productForm, *model.AppError) {
	if err := r.ParseForm(); err != nil {
		return product.Input{}, productForm{Action: action},
			model.NewValidationError("name", "フォームの解析に失敗しました。")
	}

	form := productForm{
		Action:      action,
		Name:        r.PostFormValue("name"),
		Price:       r.PostFormValue("price"),
		Description: r.PostFormValue("description"),
	}

	price, err := strconv.ParseFloat(form.Price, 64)
	if err != nil {
		return product.Input{}, form,
			model.NewValidationError("price", "価格は0以上の数値で入力してください。")
	}

	return product.Input{
		Name:        form.Name,
		Price:       price,
		Description: form.Description,
	}, form, nil
}

// renderForm はバリデーションエラー付きでフォームを再描画する。
func (h *ProductHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, title string, form productForm, appErr *model.AppError) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, status, "product_form", ViewData{
		Title:       title,
		Claims:      claims,
		CSRFToken:   middleware.CSRFTokenFromRequest(r),
		FieldErrors: map[string]string{appErr.Field: appErr.Message},
		Data:        form,
	})
}

// renderFormErrors はサービス層のエラー付きでフォームを再描画する。
func (h *ProductHandler) renderFormErrors(w http.ResponseWriter, r *http.Request, title string, form productForm, message string, fieldErrors map[string]string) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.renderer.Render(w, http.StatusUnprocessableEntity, "product_form", ViewData{
		Title:        title,
		Claims:       claims,
		CSRFToken:    middleware.CSRFTokenFromRequest(r),
		ErrorMessage: message,
		FieldErrors:  fieldErrors,
		Data:         form,
	})
}
