package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type catalogReader interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*products.ProductDTO, error)
	ListProducts(ctx context.Context, params pagination.Params) (*products.ProductList, error)
}

type catalogWriter interface {
	CreateProduct(ctx context.Context, input products.CreateProductInput) (*products.ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input products.UpdateProductInput) (*products.ProductDTO, error)
}

const catalogDependency = "product service"

// ProductList pages through the catalog.
func ProductList(svc catalogReader, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, catalogDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		page, err := pageParams(r)
		if err != nil {
			return fail(err)
		}
		return ok(svc.ListProducts(r.Context(), page))
	})
}

// ProductDetail returns a product with its variants.
func ProductDetail(svc catalogReader, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, catalogDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		productID, err := uuidParam(r, "productId", "product id")
		if err != nil {
			return fail(err)
		}
		return ok(svc.GetProduct(r.Context(), productID))
	})
}

// AdminProductCreate creates a product with variants and opening stock.
func AdminProductCreate(svc catalogWriter, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, catalogDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		input, err := decode[products.CreateProductInput](r)
		if err != nil {
			return fail(err)
		}
		return created(svc.CreateProduct(r.Context(), input))
	})
}

// AdminProductUpdate edits the product header fields.
func AdminProductUpdate(svc catalogWriter, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, catalogDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		productID, err := uuidParam(r, "productId", "product id")
		if err != nil {
			return fail(err)
		}
		input, err := decode[products.UpdateProductInput](r)
		if err != nil {
			return fail(err)
		}
		return ok(svc.UpdateProduct(r.Context(), productID, input))
	})
}
