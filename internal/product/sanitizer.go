package product

import "github.com/microcosm-cc/bluemonday"

// DescriptionSanitizer は商品説明のサニタイズ機能のインターフェースを定義する。
// 説明文はサーバーレンダリングされたページに表示されるため、保存前に使用する。
type DescriptionSanitizer interface {
	// Sanitize は説明文をサニタイズして安全なHTMLを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// descriptionSanitizer はDescriptionSanitizerの実装。
// bluemondayの許可リストベースのポリシーを保持し、スレッドセーフに処理する。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はDescriptionSanitizerの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, ul, ol, li, strong, em
//   - script, iframe, style および全てのon*イベント属性は許可リスト外のため除去される
//   - リンクや画像は商品説明には不要なため許可しない
func NewDescriptionSanitizer() *descriptionSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")

	return &descriptionSanitizer{
		policy: p,
	}
}

// Sanitize は説明文をサニタイズして安全なHTMLを返す。
func (s *descriptionSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
