// Package handler はHTTPハンドラーとHTMLレンダリングを提供する。
package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames はlayoutと組み合わせて事前パースするページテンプレートの一覧。
var pageNames = []string{
	"register",
	"login",
	"profile",
	"products_list",
	"product_detail",
	"product_form",
	"admin_users",
	"admin_user_form",
	"admin_user_roles",
	"admin_roles",
}

// templateFuncs はテンプレートから使用するヘルパー関数。
var templateFuncs = template.FuncMap{
	"price": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	// sanitize済みの説明文をHTMLとして描画する
	"safeHTML": func(s string) template.HTML {
		return template.HTML(s)
	},
}

// ViewData は全ページ共通のテンプレートデータ。
type ViewData struct {
	Title        string
	Claims       *model.Claims     // 未認証ページではnil
	CSRFToken    string            // フォームの隠しフィールドに埋め込む
	ErrorMessage string            // ページ上部に表示する全体エラー
	FieldErrors  map[string]string // フィールド名→エラーメッセージ
	Data         any               // ページ固有のデータ
}

// Renderer は事前パース済みテンプレートでHTMLを描画する。
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer は埋め込みテンプレートをパースしてRendererを生成する。
func NewRenderer() (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pageNames))
	for _, page := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", page, err)
		}
		templates[page] = t
	}
	return &Renderer{templates: templates}, nil
}

// Render は指定ページをレイアウトに埋め込んで描画する。
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data ViewData) {
	t, ok := rd.templates[page]
	if !ok {
		slog.Error("unknown template", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		slog.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

// formError はサービス層のエラーをフォーム再描画用に変換する。
// AppErrorの場合はユーザー向けメッセージとフィールドエラーを返す。
// それ以外（内部エラー）の場合はok=falseを返し、呼び出し側は500を返すこと。
func formError(err error) (message string, fieldErrors map[string]string, ok bool) {
	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		return "", nil, false
	}
	if appErr.Field != "" {
		return "", map[string]string{appErr.Field: appErr.Message}, true
	}
	return appErr.Message, nil, true
}

// internalError は内部エラーをログに記録し、500レスポンスを返す。
func internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
