// Package model はドメインモデルを定義する。
package model

import "time"

// User はアプリケーション利用ユーザーを表す。
// PasswordHashはbcryptハッシュのみを保持し、平文パスワードは保存しない。
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Role は管理者が付与する権限ロールを表す。
type Role struct {
	ID   int64
	Name string
}

// AdminRoleName は管理画面へのアクセスに必要なロール名。
const AdminRoleName = "admin"
