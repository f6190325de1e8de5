package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service manages the product catalog.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, params pagination.Params) (*ProductList, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockSeeder opens inventory for new variants inside the catalog transaction.
type stockSeeder interface {
	Seed(ctx context.Context, tx *gorm.DB, locationID, variantID uuid.UUID, qty int) (*models.InventoryRecord, error)
}

type service struct {
	repo  *Repository
	tx    txRunner
	stock stockSeeder
	logg  *logger.Logger
}

// NewService wires the catalog service.
func NewService(repo *Repository, tx txRunner, stock stockSeeder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock seeder required")
	}
	return &service{repo: repo, tx: tx, stock: stock, logg: logg}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateProductFields(input.Name, input.Price); err != nil {
		return nil, err
	}
	locationIDs, err := validateVariants(input.Variants)
	if err != nil {
		return nil, err
	}

	var productID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		known, err := txRepo.LocationIDs(ctx, locationIDs)
		if err != nil {
			return err
		}
		for _, id := range locationIDs {
			if _, ok := known[id]; !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "location not found").
					WithDetails(map[string]any{"location_id": id})
			}
		}

		product := &models.Product{
			Name:        strings.TrimSpace(input.Name),
			Description: input.Description,
			Price:       input.Price,
			Category:    input.Category,
			Brand:       input.Brand,
			Images:      normalizeImages(input.Images),
		}
		if err := txRepo.CreateProduct(ctx, product); err != nil {
			return err
		}
		productID = product.ID

		for _, v := range input.Variants {
			variant := &models.ProductVariant{
				ProductID: product.ID,
				Size:      strings.TrimSpace(v.Size),
				Color:     strings.TrimSpace(v.Color),
			}
			if err := txRepo.CreateVariant(ctx, variant); err != nil {
				return err
			}
			for _, stock := range v.Inventory {
				if _, err := s.stock.Seed(ctx, tx, stock.LocationID, variant.ID, stock.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create product")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id": productID.String(),
			"variants":   len(input.Variants),
		})
		s.logg.Info(logCtx, "product created")
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := validateProductFields(input.Name, input.Price); err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.Category = input.Category
	product.Brand = input.Brand
	product.Images = normalizeImages(input.Images)

	if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update product")
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) (*ProductList, error) {
	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	list := &ProductList{Products: make([]ProductDTO, 0, len(rows))}
	for i := range rows {
		list.Products = append(list.Products, *NewProductDTO(&rows[i]))
	}
	if next != nil {
		list.NextCursor = next.Encode()
	}
	return list, nil
}

func validateProductFields(name string, price decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must have at most two decimal places")
	}
	return nil
}

// validateVariants returns the distinct location ids referenced by the stock rows.
func validateVariants(variants []VariantInput) ([]uuid.UUID, error) {
	seenVariant := map[string]struct{}{}
	seenLocation := map[uuid.UUID]struct{}{}
	var locations []uuid.UUID
	for i, v := range variants {
		size := strings.TrimSpace(v.Size)
		color := strings.TrimSpace(v.Color)
		if size == "" || color == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variant %d requires size and color", i))
		}
		key := strings.ToLower(size) + "|" + strings.ToLower(color)
		if _, dup := seenVariant[key]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate variant %s/%s", size, color))
		}
		seenVariant[key] = struct{}{}

		perVariant := map[uuid.UUID]struct{}{}
		for _, stock := range v.Inventory {
			if stock.LocationID == uuid.Nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "location_id is required")
			}
			if stock.Quantity < 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
			}
			if _, dup := perVariant[stock.LocationID]; dup {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "location listed twice for one variant")
			}
			perVariant[stock.LocationID] = struct{}{}
			if _, ok := seenLocation[stock.LocationID]; !ok {
				seenLocation[stock.LocationID] = struct{}{}
				locations = append(locations, stock.LocationID)
			}
		}
	}
	return locations, nil
}

func normalizeImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
