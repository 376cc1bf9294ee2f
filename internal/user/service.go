// Package user は管理者によるユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service はユーザー管理のサービス層。
// 管理画面からのユーザー一覧・作成・編集・削除を提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Get は指定IDのユーザーを返す。見つからない場合はUserNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// CreateInput は管理者によるユーザー作成フォームの入力値。
type CreateInput struct {
	Username string
	Email    string
	Password string
}

// Create は管理者操作で新規ユーザーを作成する。
// ユーザー名の重複は登録時と同じくUNIQUE制約を正とする。
func (s *Service) Create(ctx context.Context, in CreateInput) (int64, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return 0, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, model.NewDuplicateUsernameError()
		}
		return 0, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("user created by admin",
		slog.Int64("user_id", id),
		slog.String("username", in.Username),
	)

	return id, nil
}

// UpdateInput は管理者によるユーザー編集フォームの入力値。
type UpdateInput struct {
	Username string
	Email    string
}

// Update はユーザー名とメールアドレスを更新する。
// パスワードハッシュは変更しない。
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	user.Username = in.Username
	user.Email = in.Email

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.NewDuplicateUsernameError()
		}
		return fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}

	slog.Info("user updated by admin",
		slog.Int64("user_id", id),
		slog.String("username", in.Username),
	)

	return nil
}

// Delete は指定IDのユーザーを削除する。
// ロール割り当てはストレージ層でCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id int64) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("user deleted by admin",
		slog.Int64("user_id", id),
		slog.String("username", user.Username),
	)

	return nil
}
