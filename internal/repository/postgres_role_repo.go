package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresRoleRepo はPostgreSQLを使用したロールリポジトリ。
type PostgresRoleRepo struct {
	db *sql.DB
}

// NewPostgresRoleRepo はPostgresRoleRepoを生成する。
func NewPostgresRoleRepo(db *sql.DB) *PostgresRoleRepo {
	return &PostgresRoleRepo{db: db}
}

// List は全ロールをID昇順で返す。
func (r *PostgresRoleRepo) List(ctx context.Context) ([]*model.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM roles ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
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

// FindByID は指定IDのロールを取得する。見つからない場合はnilを返す。
func (r *PostgresRoleRepo) FindByID(ctx context.Context, id int64) (*model.Role, error) {
	role := &model.Role{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM roles WHERE id = $1`,
		id,
	).Scan(&role.ID, &role.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find role by ID: %w", err)
	}

	return role, nil
}

// Create はロールを作成し、採番されたIDを返す。
// ロール名のUNIQUE制約違反はErrDuplicateをラップしたエラーとして返す。
func (r *PostgresRoleRepo) Create(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("role %q: %w", name, ErrDuplicate)
		}
		return 0, fmt.Errorf("failed to insert role: %w", err)
	}

	return id, nil
}

// DeleteByID は指定IDのロールを削除する。
// 関連するuser_roles行はCASCADE削除される。
func (r *PostgresRoleRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM roles WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("role not found: %d", id)
	}
	return nil
}

// compile-time interface check
var _ RoleRepository = (*PostgresRoleRepo)(nil)
