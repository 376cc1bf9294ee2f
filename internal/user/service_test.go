package user

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// --- モック ---

type mockUserRepo struct {
	listFn       func(ctx context.Context) ([]*model.User, error)
	findByIDFn   func(ctx context.Context, id int64) (*model.User, error)
	createFn     func(ctx context.Context, user *model.User) (int64, error)
	updateFn     func(ctx context.Context, user *model.User) error
	deleteByIDFn func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, nil
}
func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return 1, nil
}
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

// --- テスト ---

// 管理者によるユーザー作成でパスワードがハッシュ化されることを検証
func TestService_Create_HashesPassword(t *testing.T) {
	var stored *model.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) (int64, error) {
			stored = user
			return 5, nil
		},
	}

	svc := NewService(repo)
	id, err := svc.Create(context.Background(), CreateInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "initial-pass",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id != 5 {
		t.Errorf("id = %d, want 5", id)
	}
	if stored.PasswordHash == "initial-pass" {
		t.Error("password stored in plaintext")
	}
	if !auth.CheckPassword("initial-pass", stored.PasswordHash) {
		t.Error("stored hash does not verify")
	}
}

// UNIQUE制約違反がDuplicateUsernameエラーに正規化されることを検証
func TestService_Create_DuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) (int64, error) {
			return 0, fmt.Errorf("username %q: %w", user.Username, repository.ErrDuplicate)
		},
	}

	svc := NewService(repo)
	_, err := svc.Create(context.Background(), CreateInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "pass",
	})

	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeDuplicateUsername {
		t.Fatalf("expected DuplicateUsername error, got %v", err)
	}
}

// ユーザー編集がユーザー名とメールアドレスのみ更新し、
// パスワードハッシュを保持することを検証
func TestService_Update_KeepsPasswordHash(t *testing.T) {
	var updated *model.User
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Username: "bob", Email: "bob@example.com", PasswordHash: "hash123"}, nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			updated = user
			return nil
		},
	}

	svc := NewService(repo)
	err := svc.Update(context.Background(), 1, UpdateInput{
		Username: "robert",
		Email:    "robert@example.com",
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Username != "robert" {
		t.Errorf("Username = %q, want %q", updated.Username, "robert")
	}
	if updated.Email != "robert@example.com" {
		t.Errorf("Email = %q, want %q", updated.Email, "robert@example.com")
	}
	if updated.PasswordHash != "hash123" {
		t.Error("password hash changed on admin edit")
	}
}

// 存在しないユーザーの編集がエラーになることを検証
func TestService_Update_UserNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{})

	err := svc.Update(context.Background(), 99, UpdateInput{Username: "x", Email: "x@example.com"})

	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("expected UserNotFound error, got %v", err)
	}
}

// ユーザー名の衝突する編集がDuplicateUsernameエラーになることを検証
func TestService_Update_DuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Username: "bob"}, nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			return fmt.Errorf("username %q: %w", user.Username, repository.ErrDuplicate)
		},
	}

	svc := NewService(repo)
	err := svc.Update(context.Background(), 1, UpdateInput{Username: "alice", Email: "b@example.com"})

	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeDuplicateUsername {
		t.Fatalf("expected DuplicateUsername error, got %v", err)
	}
}

// 削除が該当ユーザーのみを対象にすることを検証
func TestService_Delete(t *testing.T) {
	var deletedID int64
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Username: "bob"}, nil
		},
		deleteByIDFn: func(ctx context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}

	svc := NewService(repo)
	if err := svc.Delete(context.Background(), 7); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deletedID != 7 {
		t.Errorf("deleted ID = %d, want 7", deletedID)
	}
}

// 存在しないユーザーの取得がUserNotFoundになることを検証
func TestService_Get_UserNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{})

	_, err := svc.Get(context.Background(), 99)

	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("expected UserNotFound error, got %v", err)
	}
}
