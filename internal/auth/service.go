// Package auth はユーザー登録・ログイン・プロフィール管理とセッショントークンを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service は認証・アカウント管理のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// RegisterInput は登録フォームの入力値。
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register は新規ユーザーを登録する。
// ユーザー名が既に存在する場合はDuplicateUsernameエラーを返す。
// 事前チェックは同時登録のレースを防げないため、INSERT時のUNIQUE制約違反も
// 同じDuplicateUsernameエラーに正規化する。制約が最終的な一意性の保証となる。
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return 0, fmt.Errorf("ユーザーの存在確認に失敗しました: %w", err)
	}
	if exists {
		return 0, model.NewDuplicateUsernameError()
	}

	hash, err := HashPassword(in.Password)
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

	slog.Info("user registered",
		slog.Int64("user_id", id),
		slog.String("username", in.Username),
	)

	return id, nil
}

// Login はユーザー名とパスワードを検証し、認証されたユーザーを返す。
// ユーザー名不存在とパスワード不一致は同一のInvalidCredentialsエラーを返し、
// ユーザー名の列挙を防ぐ。
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// ProfileUpdateInput はプロフィール編集フォームの入力値。
type ProfileUpdateInput struct {
	CurrentPassword    string
	Email              string
	NewPassword        string
	ConfirmNewPassword string
}

// UpdateProfile はメールアドレスとパスワードを更新する。
// 現在のパスワードの再入力を必須とし、パスワード変更時は確認入力との一致を検証する。
// 更新後のユーザーを返すので、呼び出し側はクレームセットを再発行すること。
func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdateInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if !CheckPassword(in.CurrentPassword, user.PasswordHash) {
		return nil, model.NewWrongCurrentPasswordError()
	}

	user.Email = in.Email

	if in.NewPassword != "" {
		if in.NewPassword != in.ConfirmNewPassword {
			return nil, model.NewPasswordMismatchError()
		}
		hash, err := HashPassword(in.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}

	slog.Info("profile updated",
		slog.Int64("user_id", user.ID),
		slog.Bool("password_changed", in.NewPassword != ""),
	)

	return user, nil
}

// DeleteAccount はユーザー自身のアカウントを削除する。
// 関連するロール割り当てはストレージ層でCASCADE削除される。
// セッションの破棄（Cookieのクリア）は呼び出し側のハンドラーが行う。
func (s *Service) DeleteAccount(ctx context.Context, userID int64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("account deleted",
		slog.Int64("user_id", userID),
		slog.String("username", user.Username),
	)

	return nil
}
