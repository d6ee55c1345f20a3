package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"shop-api/internal/model"
	"shop-api/internal/repository"
	"shop-api/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	myOrdersLimit    = 50
	adminOrdersLimit = 200
)

type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, info ShippingInfo) (*CheckoutResult, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	GetMyOrder(ctx context.Context, userID uuid.UUID, orderNo string) (*model.Order, error)
	AdminListOrders(ctx context.Context, status string) ([]model.Order, error)
	AdminGetOrder(ctx context.Context, orderNo string) (*model.Order, error)
}

type ShippingInfo struct {
	RecipientName string `json:"recipientName" validate:"notblank,max=100"`
	Phone         string `json:"phone" validate:"notblank,max=30"`
	Zipcode       string `json:"zipcode" validate:"notblank,max=10"`
	Address1      string `json:"address1" validate:"notblank,max=255"`
	Address2      string `json:"address2" validate:"max=255"`
	Memo          string `json:"memo" validate:"max=255"`
}

type CheckoutResult struct {
	OrderNo     string            `json:"orderNo"`
	Status      model.OrderStatus `json:"status"`
	ItemsTotal  decimal.Decimal   `json:"itemsTotal"`
	ShippingFee decimal.Decimal   `json:"shippingFee"`
	GrandTotal  decimal.Decimal   `json:"grandTotal"`
}

type CheckoutConfig struct {
	Pricing            Pricing
	OrderNoMaxAttempts int
	MaxRetries         int
	Now                func() time.Time
	NewOrderNo         OrderNumberFunc
}

type orderService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	events      Publisher
	cfg         CheckoutConfig
}

func NewOrderService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	cRepo repository.CartRepository,
	oRepo repository.OrderRepository,
	events Publisher,
	cfg CheckoutConfig,
) OrderService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewOrderNo == nil {
		cfg.NewOrderNo = NewOrderNumberFunc("KY")
	}
	if cfg.OrderNoMaxAttempts <= 0 {
		cfg.OrderNoMaxAttempts = 5
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &orderService{
		db:          db,
		productRepo: pRepo,
		cartRepo:    cRepo,
		orderRepo:   oRepo,
		events:      publisherOrNoop(events),
		cfg:         cfg,
	}
}

// placedLine is one priced cart line, ready to be written as an OrderItem.
type placedLine struct {
	product  *model.Product
	quantity int
}

func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID, info ShippingInfo) (*CheckoutResult, error) {
	// 1. Validate shipping info before any transaction opens
	if err := validate(&info); err != nil {
		return nil, err
	}

	// 2. Resolve cart
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}

	opts := database.DefaultTxOptions()
	opts.MaxRetries = s.cfg.MaxRetries

	var (
		order     *model.Order
		remaining map[uuid.UUID]int
	)
	err = database.WithRetry(ctx, s.db, opts, func(tx *gorm.DB) error {
		var txErr error
		order, remaining, txErr = s.placeOrder(tx, cart.ID, userID, info)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderCreated(order, remaining)

	return &CheckoutResult{
		OrderNo:     order.OrderNo,
		Status:      order.Status,
		ItemsTotal:  order.ItemsTotal,
		ShippingFee: order.ShippingFee,
		GrandTotal:  order.GrandTotal,
	}, nil
}

// placeOrder runs steps 3 to 9 of checkout on tx. It may run more than once
// when the transaction is retried, so it keeps no state outside tx.
func (s *orderService) placeOrder(tx *gorm.DB, cartID, userID uuid.UUID, info ShippingInfo) (*model.Order, map[uuid.UUID]int, error) {
	// 3. Lock the cart, then every product it references in id order
	if _, err := s.cartRepo.LockByID(tx, cartID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrEmptyCart
		}
		return nil, nil, fmt.Errorf("lock cart: %w", err)
	}

	items, err := s.cartRepo.ItemsForCheckout(tx, cartID)
	if err != nil {
		return nil, nil, fmt.Errorf("read cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, nil, ErrEmptyCart
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	locked, err := s.productRepo.LockByIDs(tx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("lock products: %w", err)
	}
	products := make(map[uuid.UUID]*model.Product, len(locked))
	for i := range locked {
		products[locked[i].ID] = &locked[i]
	}

	// 4. Verify each line against the locked stock
	lines := make([]placedLine, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: cart item %s has quantity %d", ErrInvalidInput, item.ID, item.Quantity)
		}
		product, ok := products[item.ProductID]
		if !ok {
			return nil, nil, ErrProductNotFound
		}
		if item.Quantity > product.Stock {
			return nil, nil, &StockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Stock,
			}
		}
		lines = append(lines, placedLine{product: product, quantity: item.Quantity})
	}

	// 5. Totals
	order := &model.Order{
		UserID:        userID,
		Status:        model.OrderPending,
		RecipientName: info.RecipientName,
		Phone:         info.Phone,
		Zipcode:       info.Zipcode,
		Address1:      info.Address1,
		Address2:      info.Address2,
		Memo:          info.Memo,
		Items:         make([]model.OrderItem, 0, len(lines)),
	}
	itemsTotal := decimal.Zero
	for _, line := range lines {
		unit := line.product.EffectivePrice()
		total := lineTotal(unit, line.quantity)
		itemsTotal = itemsTotal.Add(total)
		order.Items = append(order.Items, model.OrderItem{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			UnitPrice:   unit,
			Quantity:    line.quantity,
			LineTotal:   total,
		})
	}
	order.ItemsTotal = itemsTotal
	order.ShippingFee, order.GrandTotal = s.cfg.Pricing.Totals(itemsTotal)

	// 6 + 7. Allocate an order number and insert the order with its items
	if err := s.insertOrder(tx, order); err != nil {
		return nil, nil, err
	}

	// 8. Decrement stock on the rows locked in step 3
	remaining := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if err := s.productRepo.DecrementStock(tx, line.product.ID, line.quantity); err != nil {
			if errors.Is(err, repository.ErrStockGuard) {
				return nil, nil, &StockError{
					ProductID:   line.product.ID,
					ProductName: line.product.Name,
					Requested:   line.quantity,
					Available:   line.product.Stock,
				}
			}
			return nil, nil, fmt.Errorf("decrement stock: %w", err)
		}
		remaining[line.product.ID] = line.product.Stock - line.quantity
	}

	// 9. Empty the cart, keeping the cart row
	if err := s.cartRepo.ClearItems(tx, cartID); err != nil {
		return nil, nil, fmt.Errorf("clear cart: %w", err)
	}

	return order, remaining, nil
}

// insertOrder writes order inside a savepoint so that an order number
// collision only rolls back the insert, not the locks already held.
func (s *orderService) insertOrder(tx *gorm.DB, order *model.Order) error {
	for attempt := 1; attempt <= s.cfg.OrderNoMaxAttempts; attempt++ {
		orderNo, err := s.cfg.NewOrderNo(s.cfg.Now())
		if err != nil {
			return err
		}
		order.OrderNo = orderNo

		err = tx.Transaction(func(sp *gorm.DB) error {
			return s.orderRepo.Create(sp, order)
		})
		if err == nil {
			return nil
		}
		if !database.IsUniqueViolation(err) {
			return fmt.Errorf("insert order: %w", err)
		}

		log.Printf("checkout: order number %s collided (attempt %d/%d)", orderNo, attempt, s.cfg.OrderNoMaxAttempts)
		resetOrderIDs(order)
	}
	return ErrOrderCreationFailed
}

// resetOrderIDs clears ids assigned by a rolled back insert.
func resetOrderIDs(order *model.Order) {
	order.ID = uuid.Nil
	for i := range order.Items {
		order.Items[i].ID = uuid.Nil
		order.Items[i].OrderID = uuid.Nil
	}
}

func (s *orderService) publishOrderCreated(order *model.Order, remaining map[uuid.UUID]int) {
	stock := make([]map[string]interface{}, 0, len(remaining))
	for id, left := range remaining {
		stock = append(stock, map[string]interface{}{"product_id": id, "stock": left})
	}
	s.events.Publish(map[string]interface{}{
		"type":        "order_created",
		"order_no":    order.OrderNo,
		"user_id":     order.UserID,
		"grand_total": order.GrandTotal,
		"stock":       stock,
	})
}

func (s *orderService) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.FindByUser(ctx, userID, myOrdersLimit)
}

func (s *orderService) GetMyOrder(ctx context.Context, userID uuid.UUID, orderNo string) (*model.Order, error) {
	order, err := s.orderRepo.FindByUserAndNo(ctx, userID, orderNo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *orderService) AdminListOrders(ctx context.Context, status string) ([]model.Order, error) {
	if status != "" {
		if _, ok := model.ParseOrderStatus(status); !ok {
			return nil, ErrInvalidStatus
		}
	}
	return s.orderRepo.FindAll(ctx, status, adminOrdersLimit)
}

func (s *orderService) AdminGetOrder(ctx context.Context, orderNo string) (*model.Order, error) {
	order, err := s.orderRepo.FindByNo(ctx, orderNo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}
