package service

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"shop-api/internal/model"
	"shop-api/internal/repository"
	"shop-api/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var (
	pgOnce      sync.Once
	pgContainer testcontainers.Container
	pgDB        *gorm.DB
	pgErr       error
)

func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()
	if pgContainer != nil {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}
	os.Exit(code)
}

func startPostgres() (*gorm.DB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "shop_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}
	pgContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("container port: %w", err)
	}

	db, err := database.ConnectDB(database.Options{
		DSN:          fmt.Sprintf("postgres://testuser:testpass@%s:%s/shop_test?sslmode=disable", host, port.Port()),
		MaxOpenConns: 20,
		MaxIdleConns: 5,
	})
	if err != nil {
		return nil, err
	}

	if err := model.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// setupTestDB returns a shared database with every table emptied.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in -short mode")
	}

	pgOnce.Do(func() {
		pgDB, pgErr = startPostgres()
	})
	require.NoError(t, pgErr)

	require.NoError(t, pgDB.Exec(
		"TRUNCATE order_status_logs, order_items, orders, cart_items, carts, products, categories, users CASCADE",
	).Error)
	return pgDB
}

type fixture struct {
	db       *gorm.DB
	products repository.ProductRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
	logs     repository.OrderStatusLogRepository
	cart     CartService
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	f := &fixture{
		db:       db,
		products: repository.NewProductRepo(db),
		carts:    repository.NewCartRepo(db),
		orders:   repository.NewOrderRepo(db),
		logs:     repository.NewOrderStatusLogRepo(db),
	}
	f.cart = NewCartService(db, f.carts, f.products)
	return f
}

func (f *fixture) orderService(gen OrderNumberFunc) OrderService {
	return NewOrderService(f.db, f.products, f.carts, f.orders, nil, CheckoutConfig{
		Pricing:            testPricing(),
		OrderNoMaxAttempts: 5,
		MaxRetries:         3,
		NewOrderNo:         gen,
	})
}

func (f *fixture) statusService(strict bool) OrderStatusService {
	return NewOrderStatusService(f.db, f.orders, f.logs, nil, strict)
}

func (f *fixture) user(t *testing.T) *model.User {
	t.Helper()
	u := &model.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Name:         "Buyer",
		Role:         model.RoleUser,
		Status:       model.UserActive,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) product(t *testing.T, price int64, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:    "SKU-" + uuid.NewString()[:8],
		Name:   "Product " + uuid.NewString()[:4],
		Price:  decimal.NewFromInt(price),
		Stock:  stock,
		Status: model.ProductActive,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, f.db.First(&p, "id = ?", productID).Error)
	return p.Stock
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func shipTo() ShippingInfo {
	return ShippingInfo{
		RecipientName: "Kim Minji",
		Phone:         "010-1234-5678",
		Zipcode:       "06236",
		Address1:      "123 Teheran-ro",
	}
}

// fixedOrderNumbers replays numbers in order, repeating the last one.
func fixedOrderNumbers(numbers ...string) OrderNumberFunc {
	var mu sync.Mutex
	i := 0
	return func(time.Time) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n := numbers[i]
		if i < len(numbers)-1 {
			i++
		}
		return n, nil
	}
}
