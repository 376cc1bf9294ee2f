package model

// Product はカタログ上の商品を表す。
// 他のエンティティとの関連は持たない独立エンティティ。
type Product struct {
	ID          int64
	Name        string
	Price       float64
	Description string
}

// 商品フィールドの制約値。
const (
	ProductNameMaxLen        = 200
	ProductDescriptionMaxLen = 2000
)
