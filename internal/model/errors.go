// Package model はドメインモデルを定義する。
package model

import "fmt"

// AppError は統一エラーフォーマットを表す。
// フォームに再表示する原因カテゴリと対象フィールドを含む。
type AppError struct {
	Code     string // エラーコード
	Message  string // ユーザー向けエラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, system
	Field    string // フィールド単位のエラーの場合の対象フィールド名（フォーム全体の場合は空）
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDuplicateUsername    = "DUPLICATE_USERNAME"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeWrongCurrentPassword = "WRONG_CURRENT_PASSWORD"
	ErrCodePasswordMismatch     = "PASSWORD_MISMATCH"
	ErrCodeDuplicateRole        = "DUPLICATE_ROLE"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeRoleNotFound         = "ROLE_NOT_FOUND"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeValidation           = "VALIDATION_FAILED"
)

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
// 事前チェックとUNIQUE制約違反のどちらの経路でも同一のエラーを返す。
func NewDuplicateUsernameError() *AppError {
	return &AppError{
		Code:     ErrCodeDuplicateUsername,
		Message:  "このユーザー名は既に使用されています。",
		Category: "auth",
		Field:    "username",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー名不存在とパスワード不一致を区別しない（ユーザー名列挙を防ぐ）。
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
	}
}

// NewWrongCurrentPasswordError は現在のパスワード不一致エラーを生成する。
func NewWrongCurrentPasswordError() *AppError {
	return &AppError{
		Code:     ErrCodeWrongCurrentPassword,
		Message:  "現在のパスワードが正しくありません。",
		Category: "auth",
		Field:    "current_password",
	}
}

// NewPasswordMismatchError は新パスワードと確認入力の不一致エラーを生成する。
func NewPasswordMismatchError() *AppError {
	return &AppError{
		Code:     ErrCodePasswordMismatch,
		Message:  "新しいパスワードが確認入力と一致しません。",
		Category: "auth",
		Field:    "new_password",
	}
}

// NewDuplicateRoleError はロール名重複エラーを生成する。
func NewDuplicateRoleError() *AppError {
	return &AppError{
		Code:     ErrCodeDuplicateRole,
		Message:  "このロール名は既に存在します。",
		Category: "validation",
		Field:    "name",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *AppError {
	return &AppError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
	}
}

// NewRoleNotFoundError はロールが見つからない場合のエラーを生成する。
func NewRoleNotFoundError() *AppError {
	return &AppError{
		Code:     ErrCodeRoleNotFound,
		Message:  "指定されたロールが見つかりません。",
		Category: "auth",
	}
}

// NewProductNotFoundError は商品が見つからない場合のエラーを生成する。
func NewProductNotFoundError() *AppError {
	return &AppError{
		Code:     ErrCodeProductNotFound,
		Message:  "指定された商品が見つかりません。",
		Category: "catalog",
	}
}

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Field:    field,
	}
}
