// Package role はロール管理とユーザーへのロール割り当てのドメインロジックを提供する。
package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service はロール管理のサービス層。
type Service struct {
	roleRepo     repository.RoleRepository
	userRoleRepo repository.UserRoleRepository
	userRepo     repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(
	roleRepo repository.RoleRepository,
	userRoleRepo repository.UserRoleRepository,
	userRepo repository.UserRepository,
) *Service {
	return &Service{
		roleRepo:     roleRepo,
		userRoleRepo: userRoleRepo,
		userRepo:     userRepo,
	}
}

// List は全ロールを返す。
func (s *Service) List(ctx context.Context) ([]*model.Role, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ロール一覧の取得に失敗しました: %w", err)
	}
	return roles, nil
}

// Create は新規ロールを作成する。
// ロール名が既に存在する場合はDuplicateRoleエラーを返す。
func (s *Service) Create(ctx context.Context, name string) (int64, error) {
	id, err := s.roleRepo.Create(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, model.NewDuplicateRoleError()
		}
		return 0, fmt.Errorf("ロールの作成に失敗しました: %w", err)
	}

	slog.Info("role created",
		slog.Int64("role_id", id),
		slog.String("name", name),
	)

	return id, nil
}

// Delete は指定IDのロールを削除する。
// 割り当て済みのuser_roles行はストレージ層でCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id int64) error {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ロールの取得に失敗しました: %w", err)
	}
	if role == nil {
		return model.NewRoleNotFoundError()
	}

	if err := s.roleRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("ロールの削除に失敗しました: %w", err)
	}

	slog.Info("role deleted",
		slog.Int64("role_id", id),
		slog.String("name", role.Name),
	)

	return nil
}

// RolesOfUser は指定ユーザーが保持するロール一覧を返す。
func (s *Service) RolesOfUser(ctx context.Context, userID int64) ([]*model.Role, error) {
	roles, err := s.userRoleRepo.RolesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーのロール取得に失敗しました: %w", err)
	}
	return roles, nil
}

// Assign はユーザーにロールを割り当てる。
// ユーザー・ロールの存在を確認したうえで1行挿入する。
// 既に割り当て済みの場合は冪等な無操作となり、関連が重複することはない。
func (s *Service) Assign(ctx context.Context, userID, roleID int64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("ロールの取得に失敗しました: %w", err)
	}
	if role == nil {
		return model.NewRoleNotFoundError()
	}

	if err := s.userRoleRepo.Assign(ctx, userID, roleID); err != nil {
		return fmt.Errorf("ロールの割り当てに失敗しました: %w", err)
	}

	slog.Info("role assigned",
		slog.Int64("user_id", userID),
		slog.Int64("role_id", roleID),
		slog.String("role", role.Name),
	)

	return nil
}

// Remove はユーザーからロールを除去する。
func (s *Service) Remove(ctx context.Context, userID, roleID int64) error {
	if err := s.userRoleRepo.Remove(ctx, userID, roleID); err != nil {
		return fmt.Errorf("ロールの除去に失敗しました: %w", err)
	}

	slog.Info("role removed",
		slog.Int64("user_id", userID),
		slog.Int64("role_id", roleID),
	)

	return nil
}
