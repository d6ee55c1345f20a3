package service

import (
	"context"
	"testing"

	"shop-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogListsActiveProductsFeaturedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catalog := NewCatalogService(f.products, nil)

	plain := f.product(t, 1000, 1)
	featured := f.product(t, 2000, 1)
	require.NoError(t, f.db.Model(featured).Update("is_featured", true).Error)
	hidden := f.product(t, 3000, 1)
	require.NoError(t, f.db.Model(hidden).Update("status", model.ProductInactive).Error)

	all, err := catalog.ListProducts(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, featured.ID, all[0].ID)
	assert.Equal(t, plain.ID, all[1].ID)

	onlyFeatured, err := catalog.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, onlyFeatured, 1)
	assert.Equal(t, featured.ID, onlyFeatured[0].ID)

	// Detail still answers for inactive products so old links show the status
	detail, err := catalog.GetProduct(ctx, hidden.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductInactive, detail.Status)

	_, err = catalog.GetProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catalog := NewCatalogService(f.products, nil)

	req := CreateProductRequest{SKU: "MUG-001", Name: "Mug", Price: decimal.NewFromInt(12000), Stock: 5}
	product, err := catalog.CreateProduct(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.ProductActive, product.Status)

	_, err = catalog.CreateProduct(ctx, req)
	assert.ErrorIs(t, err, ErrSKUExists)

	req.SKU = "MUG-002"
	sale := decimal.NewFromInt(13000)
	req.SalePrice = &sale
	_, err = catalog.CreateProduct(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidInput, "sale price above list price")
}
