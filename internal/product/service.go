// Package product は商品カタログのドメインロジックを提供する。
package product

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"unicode/utf8"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service は商品カタログのサービス層。
// フィールド制約の検証と説明文のサニタイズを行ったうえでリポジトリに委譲する。
type Service struct {
	productRepo repository.ProductRepository
	sanitizer   DescriptionSanitizer
}

// NewService はServiceを生成する。
func NewService(productRepo repository.ProductRepository, sanitizer DescriptionSanitizer) *Service {
	return &Service{
		productRepo: productRepo,
		sanitizer:   sanitizer,
	}
}

// Input は商品の作成・編集フォームの入力値。
type Input struct {
	Name        string
	Price       float64
	Description string
}

// validate は商品フィールドの制約を検証する。
// name: 必須、200文字以内。price: 非負の有限値。description: 2000文字以内。
func validate(in Input) *model.AppError {
	if in.Name == "" {
		return model.NewValidationError("name", "商品名は必須です。")
	}
	if utf8.RuneCountInString(in.Name) > model.ProductNameMaxLen {
		return model.NewValidationError("name",
			fmt.Sprintf("商品名は%d文字以内で入力してください。", model.ProductNameMaxLen))
	}
	if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return model.NewValidationError("price", "価格は0以上の数値で入力してください。")
	}
	if utf8.RuneCountInString(in.Description) > model.ProductDescriptionMaxLen {
		return model.NewValidationError("description",
			fmt.Sprintf("説明は%d文字以内で入力してください。", model.ProductDescriptionMaxLen))
	}
	return nil
}

// List は全商品を返す。
func (s *Service) List(ctx context.Context) ([]*model.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}
	return products, nil
}

// Get は指定IDの商品を返す。見つからない場合はProductNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError()
	}
	return product, nil
}

// Create は商品を作成し、採番されたIDを返す。
// 説明文はサーバーレンダリングされるため、保存前にサニタイズする。
func (s *Service) Create(ctx context.Context, in Input) (int64, error) {
	if appErr := validate(in); appErr != nil {
		return 0, appErr
	}

	product := &model.Product{
		Name:        in.Name,
		Price:       in.Price,
		Description: s.sanitizer.Sanitize(in.Description),
	}

	id, err := s.productRepo.Create(ctx, product)
	if err != nil {
		return 0, fmt.Errorf("商品の作成に失敗しました: %w", err)
	}

	slog.Info("product created",
		slog.Int64("product_id", id),
		slog.String("name", in.Name),
	)

	return id, nil
}

// Update は指定IDの商品を更新する。
func (s *Service) Update(ctx context.Context, id int64, in Input) error {
	if appErr := validate(in); appErr != nil {
		return appErr
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return model.NewProductNotFoundError()
	}

	product.Name = in.Name
	product.Price = in.Price
	product.Description = s.sanitizer.Sanitize(in.Description)

	if err := s.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("商品の更新に失敗しました: %w", err)
	}

	slog.Info("product updated",
		slog.Int64("product_id", id),
		slog.String("name", in.Name),
	)

	return nil
}

// Delete は指定IDの商品を削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return model.NewProductNotFoundError()
	}

	if err := s.productRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("商品の削除に失敗しました: %w", err)
	}

	slog.Info("product deleted",
		slog.Int64("product_id", id),
		slog.String("name", product.Name),
	)

	return nil
}
