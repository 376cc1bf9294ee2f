package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresUserRoleRepo はPostgreSQLを使用したユーザー・ロール関連リポジトリ。
type PostgresUserRoleRepo struct {
	db *sql.DB
}

// NewPostgresUserRoleRepo はPostgresUserRoleRepoを生成する。
func NewPostgresUserRoleRepo(db *sql.DB) *PostgresUserRoleRepo {
	return &PostgresUserRoleRepo{db: db}
}

// RolesByUserID は指定ユーザーが保持するロール一覧を返す。
// 関連テーブルの複合主キーにより、同一ロールは高々1回しか現れない。
func (r *PostgresUserRoleRepo) RolesByUserID(ctx context.Context, userID int64) ([]*model.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.name
		 FROM roles r
		 JOIN user_roles ur ON r.id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY r.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles by user: %w", err)
	}
	defer rows.Close()

	var roles []*model.Role
	for rows.Next() {
		role := &model.Role{}
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	return roles, nil
}

// Assign はユーザーにロールを割り当てる。
// ON CONFLICT DO NOTHINGにより、既に割り当て済みの場合は冪等な無操作となる。
func (r *PostgresUserRoleRepo) Assign(ctx context.Context, userID, roleID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID, roleID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// Remove はユーザーからロールを除去する。
func (r *PostgresUserRoleRepo) Remove(ctx context.Context, userID, roleID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID, roleID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return nil
}

// HasRole は指定ユーザーが指定名のロールを保持しているかを返す。
// 管理エンドポイントのロールチェックで使用する。
func (r *PostgresUserRoleRepo) HasRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM user_roles ur
		   JOIN roles r ON r.id = ur.role_id
		   WHERE ur.user_id = $1 AND r.name = $2
		 )`,
		userID, roleName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ UserRoleRepository = (*PostgresUserRoleRepo)(nil)
