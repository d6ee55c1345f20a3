package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"shop-api/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCheckoutTwoBuyersCompeteForStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.orderService(nil)

	product := f.product(t, 5000, 5)
	buyers := []*model.User{f.user(t), f.user(t)}
	for _, b := range buyers {
		require.NoError(t, f.cart.AddItem(ctx, b.ID, AddCartItemRequest{ProductID: product.ID, Quantity: 3}))
	}

	var (
		wg      sync.WaitGroup
		results = make([]*CheckoutResult, len(buyers))
		errs    = make([]error, len(buyers))
	)
	for i, b := range buyers {
		wg.Add(1)
		go func(i int, b *model.User) {
			defer wg.Done()
			results[i], errs[i] = svc.Checkout(ctx, b.ID, shipTo())
		}(i, b)
	}
	wg.Wait()

	var succeeded, failed int
	for i := range buyers {
		if errs[i] == nil {
			succeeded++
			res := results[i]
			assert.Equal(t, model.OrderPending, res.Status)
			assert.True(t, res.ItemsTotal.Equal(decimal.NewFromInt(15000)))
			assert.True(t, res.ShippingFee.Equal(decimal.NewFromInt(3000)))
			assert.True(t, res.GrandTotal.Equal(decimal.NewFromInt(18000)))
			continue
		}
		failed++
		var stockErr *StockError
		require.ErrorAs(t, errs[i], &stockErr)
		assert.Equal(t, product.ID, stockErr.ProductID)
		assert.Equal(t, product.Name, stockErr.ProductName)
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, f.stock(t, product.ID))
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
}

func TestCheckoutNeverOversells(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.orderService(nil)

	const initialStock = 10
	product := f.product(t, 1000, initialStock)

	quantities := []int{3, 2, 4, 1, 3, 2, 4, 3}
	buyers := make([]*model.User, len(quantities))
	for i, qty := range quantities {
		buyers[i] = f.user(t)
		require.NoError(t, f.cart.AddItem(ctx, buyers[i].ID, AddCartItemRequest{ProductID: product.ID, Quantity: qty}))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ordered int
		orders  int
	)
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Checkout(ctx, buyers[i].ID, shipTo())
			if err != nil {
				assert.ErrorIs(t, err, ErrInsufficientStock)
				return
			}
			mu.Lock()
			ordered += quantities[i]
			orders++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, ordered, initialStock)
	assert.Equal(t, initialStock-ordered, f.stock(t, product.ID))
	assert.Equal(t, int64(orders), f.count(t, &model.Order{}))
}

func TestCheckoutComputesFreeShippingAndSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.orderService(nil)
	buyer := f.user(t)

	onSale := f.product(t, 20000, 5)
	require.NoError(t, f.db.Model(onSale).Update("sale_price", decimal.NewFromInt(15000)).Error)
	regular := f.product(t, 8000, 5)

	require.NoError(t, f.cart.AddItem(ctx, buyer.ID, AddCartItemRequest{ProductID: onSale.ID, Quantity: 1}))
	require.NoError(t, f.cart.AddItem(ctx, buyer.ID, AddCartItemRequest{ProductID: regular.ID, Quantity: 2}))

	res, err := svc.Checkout(ctx, buyer.ID, shipTo())
	require.NoError(t, err)
	assert.True(t, res.ItemsTotal.Equal(decimal.NewFromInt(31000)))
	assert.True(t, res.ShippingFee.IsZero())
	assert.True(t, res.GrandTotal.Equal(decimal.NewFromInt(31000)))

	view, err := f.cart.ListItems(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items, "checkout empties the cart")
	assert.Equal(t, int64(1), f.count(t, &model.Cart{}), "cart row persists")

	// Later price edits must not reach the order
	require.NoError(t, f.db.Model(regular).Updates(map[string]interface{}{"price": 99999, "name": "Renamed"}).Error)

	order, err := svc.GetMyOrder(ctx, buyer.ID, res.OrderNo)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		if item.ProductID == regular.ID {
			assert.Equal(t, regular.Name, item.ProductName)
			assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(8000)))
			assert.True(t, item.LineTotal.Equal(decimal.NewFromInt(16000)))
		} else {
			assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(15000)))
		}
	}
}

func TestCheckoutAcceptsProductDeactivatedAfterAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.orderService(nil)
	buyer := f.user(t)
	product := f.product(t, 12000, 4)

	require.NoError(t, f.cart.AddItem(ctx, buyer.ID, AddCartItemRequest{ProductID: product.ID, Quantity: 3}))
	require.NoError(t, f.db.Model(product).Update("status", model.ProductInactive).Error)

	res, err := svc.Checkout(ctx, buyer.ID, shipTo())
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, res.Status)
	assert.True(t, res.ItemsTotal.Equal(decimal.NewFromInt(36000)))
	assert.Equal(t, 1, f.stock(t, product.ID))

	// Adding the same product again is still refused
	err = f.cart.AddItem(ctx, buyer.ID, AddCartItemRequest{ProductID: product.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductInactive)
}

func TestCheckoutRejectsBadInputAndEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.orderService(nil)
	buyer := f.user(t)

	info := shipTo()
	info.Address1 = "  "
	_, err := svc.Checkout(ctx, buyer.ID, info)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Checkout(ctx, buyer.ID, shipTo())
	assert.ErrorIs(t, err, ErrEmptyCart, "no cart yet")

	_, err = f.cart.GetOrCreateCart(ctx, buyer.ID)
	require.NoError(t, err)
	_, err = svc.Checkout(ctx, buyer.ID, shipTo())
	assert.ErrorIs(t, err, ErrEmptyCart, "cart without items")
}

func TestCheckoutRollsBackWhenCartClearFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.orderService(nil)
	buyer := f.user(t)
	product := f.product(t, 4000, 5)
	require.NoError(t, f.cart.AddItem(ctx, buyer.ID, AddCartItemRequest{ProductID: product.ID, Quantity: 2}))

	injected := errors.New("injected cart clear failure")
	const name = "test:fail_cart_clear"
	require.NoError(t, f.db.Callback().Delete().Before("gorm:delete").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == "cart_items" {
			tx.AddError(injected)
		}
	}))
	t.Cleanup(func() { f.db.Callback().Delete().Remove(name) })

	_, err := svc.Checkout(ctx, buyer.ID, shipTo())
	require.ErrorIs(t, err, injected)

	assert.Equal(t, 5, f.stock(t, product.ID), "stock decrement rolled back")
	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
	assert.Equal(t, int64(0), f.count(t, &model.OrderItem{}))
	assert.Equal(t, int64(1), f.count(t, &model.CartItem{}), "cart untouched")
}

func TestCheckoutRegeneratesOrderNumberOnCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, 1000, 10)

	first, second := f.user(t), f.user(t)
	for _, u := range []*model.User{first, second} {
		require.NoError(t, f.cart.AddItem(ctx, u.ID, AddCartItemRequest{ProductID: product.ID, Quantity: 1}))
	}

	res, err := f.orderService(fixedOrderNumbers("KY20261016000001")).Checkout(ctx, first.ID, shipTo())
	require.NoError(t, err)
	require.Equal(t, "KY20261016000001", res.OrderNo)

	res, err = f.orderService(fixedOrderNumbers("KY20261016000001", "KY20261016000002")).Checkout(ctx, second.ID, shipTo())
	require.NoError(t, err)
	assert.Equal(t, "KY20261016000002", res.OrderNo)
	assert.Equal(t, 8, f.stock(t, product.ID))
}

func TestCheckoutFailsWhenOrderNumbersExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, 1000, 10)
	first, second := f.user(t), f.user(t)
	for _, u := range []*model.User{first, second} {
		require.NoError(t, f.cart.AddItem(ctx, u.ID, AddCartItemRequest{ProductID: product.ID, Quantity: 1}))
	}

	taken := fixedOrderNumbers("KY20261016999999")
	_, err := f.orderService(taken).Checkout(ctx, first.ID, shipTo())
	require.NoError(t, err)

	_, err = f.orderService(taken).Checkout(ctx, second.ID, shipTo())
	require.ErrorIs(t, err, ErrOrderCreationFailed)

	assert.Equal(t, 9, f.stock(t, product.ID))
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
	assert.Equal(t, int64(1), f.count(t, &model.CartItem{}), "second buyer keeps the cart")
}

func TestOrderQueriesEnforceOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.orderService(nil)
	owner, stranger := f.user(t), f.user(t)
	product := f.product(t, 1000, 10)
	require.NoError(t, f.cart.AddItem(ctx, owner.ID, AddCartItemRequest{ProductID: product.ID, Quantity: 1}))

	res, err := svc.Checkout(ctx, owner.ID, shipTo())
	require.NoError(t, err)

	_, err = svc.GetMyOrder(ctx, stranger.ID, res.OrderNo)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	mine, err := svc.ListMyOrders(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ListMyOrders(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	order, err := svc.AdminGetOrder(ctx, res.OrderNo)
	require.NoError(t, err)
	require.NotNil(t, order.User)
	assert.Equal(t, owner.Email, order.User.Email)

	pending, err := svc.AdminListOrders(ctx, "PENDING")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = svc.AdminListOrders(ctx, "LOST")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
