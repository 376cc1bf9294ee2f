// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/storefront/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// ExistsByUsername は指定ユーザー名のユーザーが存在するかを返す。
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// List は全ユーザーをID昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成し、採番されたIDを返す。
	// ユーザー名が既に存在する場合はErrDuplicateをラップしたエラーを返す。
	Create(ctx context.Context, user *model.User) (int64, error)

	// Update はユーザー名・メールアドレス・パスワードハッシュを更新する。
	// ユーザー名が他ユーザーと衝突する場合はErrDuplicateをラップしたエラーを返す。
	Update(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するuser_roles行はCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// RoleRepository はロールデータの永続化インターフェース。
type RoleRepository interface {
	// List は全ロールをID昇順で返す。
	List(ctx context.Context) ([]*model.Role, error)

	// FindByID は指定IDのロールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Role, error)

	// Create はロールを作成し、採番されたIDを返す。
	// ロール名が既に存在する場合はErrDuplicateをラップしたエラーを返す。
	Create(ctx context.Context, name string) (int64, error)

	// DeleteByID は指定IDのロールを削除する。
	// 関連するuser_roles行はCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// UserRoleRepository はユーザー・ロール関連の永続化インターフェース。
type UserRoleRepository interface {
	// RolesByUserID は指定ユーザーが保持するロール一覧を返す。
	RolesByUserID(ctx context.Context, userID int64) ([]*model.Role, error)

	// Assign はユーザーにロールを割り当てる。
	// 既に割り当て済みの場合は何もしない（冪等）。
	Assign(ctx context.Context, userID, roleID int64) error

	// Remove はユーザーからロールを除去する。
	Remove(ctx context.Context, userID, roleID int64) error
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// List は全商品をID昇順で返す。
	List(ctx context.Context) ([]*model.Product, error)

	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Product, error)

	// Create は商品を作成し、採番されたIDを返す。
	Create(ctx context.Context, product *model.Product) (int64, error)

	// Update は商品の全フィールドを更新する。
	Update(ctx context.Context, product *model.Product) error

	// DeleteByID は指定IDの商品を削除する。
	DeleteByID(ctx context.Context, id int64) error
}
