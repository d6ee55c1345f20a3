package service

import (
	"context"
	"errors"
	"fmt"

	"shop-api/internal/model"
	"shop-api/internal/repository"
	"shop-api/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddCartItemRequest) error
	SetItemQuantity(ctx context.Context, userID, cartItemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, cartItemID uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID) (*CartView, error)
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"min=1,max=999"`
}

// CartView is the cart with live product data joined in.
type CartView struct {
	CartID uuid.UUID  `json:"cartId"`
	Items  []CartLine `json:"items"`
}

type CartLine struct {
	CartItemID   uuid.UUID           `json:"cartItemId"`
	ProductID    uuid.UUID           `json:"productId"`
	SKU          string              `json:"sku"`
	Name         string              `json:"name"`
	Price        decimal.Decimal     `json:"price"`
	SalePrice    decimal.NullDecimal `json:"salePrice"`
	UnitPrice    decimal.Decimal     `json:"unitPrice"`
	Stock        int                 `json:"stock"`
	Status       model.ProductStatus `json:"status"`
	ThumbnailURL string              `json:"thumbnailUrl"`
	Quantity     int                 `json:"quantity"`
	LineTotal    decimal.Decimal     `json:"lineTotal"`
}

type cartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(db *gorm.DB, cRepo repository.CartRepository, pRepo repository.ProductRepository) CartService {
	return &cartService{db: db, cartRepo: cRepo, productRepo: pRepo}
}

func (s *cartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.cartRepo.CreateIfMissing(ctx, userID); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return s.cartRepo.FindByUser(ctx, userID)
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req AddCartItemRequest) error {
	if err := validate(&req); err != nil {
		return err
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if !product.IsActive() {
		return ErrProductInactive
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}

	// The cart row lock serialises concurrent adds for the same user so the
	// additive quantity is never lost.
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		if _, err := s.cartRepo.LockByID(tx, cart.ID); err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}

		item, err := s.cartRepo.FindItem(tx, cart.ID, product.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			item = &model.CartItem{CartID: cart.ID, ProductID: product.ID}
		} else if err != nil {
			return err
		}

		wanted := item.Quantity + req.Quantity
		if wanted > product.Stock {
			return &StockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   wanted,
				Available:   product.Stock,
			}
		}

		item.Quantity = wanted
		return s.cartRepo.SaveItem(tx, item)
	})
}

func (s *cartService) SetItemQuantity(ctx context.Context, userID, cartItemID uuid.UUID, quantity int) error {
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if quantity <= 0 {
			return nil
		}
		return ErrCartItemNotFound
	}
	if err != nil {
		return err
	}

	if quantity <= 0 {
		return s.cartRepo.DeleteItem(ctx, cart.ID, cartItemID)
	}

	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		if _, err := s.cartRepo.LockByID(tx, cart.ID); err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}

		item, err := s.cartRepo.FindItemWithProduct(tx, cart.ID, cartItemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		if err != nil {
			return err
		}

		if quantity > item.Product.Stock {
			return &StockError{
				ProductID:   item.Product.ID,
				ProductName: item.Product.Name,
				Requested:   quantity,
				Available:   item.Product.Stock,
			}
		}

		item.Quantity = quantity
		return s.cartRepo.SaveItem(tx, item)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, userID, cartItemID uuid.UUID) error {
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.cartRepo.DeleteItem(ctx, cart.ID, cartItemID)
}

func (s *cartService) ListItems(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	view := &CartView{CartID: cart.ID, Items: make([]CartLine, 0, len(items))}
	for _, item := range items {
		unit := item.Product.EffectivePrice()
		view.Items = append(view.Items, CartLine{
			CartItemID:   item.ID,
			ProductID:    item.ProductID,
			SKU:          item.Product.SKU,
			Name:         item.Product.Name,
			Price:        item.Product.Price,
			SalePrice:    item.Product.SalePrice,
			UnitPrice:    unit,
			Stock:        item.Product.Stock,
			Status:       item.Product.Status,
			ThumbnailURL: item.Product.ThumbnailURL,
			Quantity:     item.Quantity,
			LineTotal:    lineTotal(unit, item.Quantity),
		})
	}
	return view, nil
}
