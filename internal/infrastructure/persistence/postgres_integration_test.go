//go:build integration

package persistence_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	appdistribution "github.com/retailops/backend/internal/application/distribution"
	appfinance "github.com/retailops/backend/internal/application/finance"
	appinventory "github.com/retailops/backend/internal/application/inventory"
	"github.com/retailops/backend/internal/domain/catalog"
	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/cache"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/lock"
	"github.com/retailops/backend/internal/infrastructure/migration"
	"github.com/retailops/backend/internal/infrastructure/persistence"
	"github.com/retailops/backend/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// pgFixture is a migrated Postgres database in its own container
type pgFixture struct {
	db       *gorm.DB
	dsn      string
	receipts *appinventory.ReceiptService
	dists    *appdistribution.DistributionService
	payments *appfinance.PaymentService
	invoices *appfinance.InvoiceService
	cards    *appfinance.GiftCardService
	buckets  *persistence.GormBucketRepository
	products *persistence.GormProductRepository
}

func newPostgres(t *testing.T) *pgFixture {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("retailops_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// The migrator closes the *sql.DB it is given.
	migrateDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(migrateDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, m.Close())

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Host:         host,
		Port:         port.Int(),
		User:         "postgres",
		Password:     "postgres",
		DBName:       "retailops_test",
		SSLMode:      "disable",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.Ping(ctx))

	db := database.DB
	txScope := persistence.NewGormTransactionScope(db)
	store := appinventory.NewBucketStore(nil)
	memory := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = memory.Close() })

	f := &pgFixture{
		db:       db,
		dsn:      dsn,
		buckets:  persistence.NewGormBucketRepository(db),
		products: persistence.NewGormProductRepository(db),
	}
	f.receipts = appinventory.NewReceiptService(persistence.NewGormReceiptRepository(db), f.products, txScope, store, nil)
	f.dists = appdistribution.NewDistributionService(
		persistence.NewGormDistributionRepository(db),
		persistence.NewGormLedgerRepository(db),
		txScope, store, nil,
	)
	f.payments = appfinance.NewPaymentService(txScope, lock.NopLocker{}, cache.NewContext(memory, time.Hour, nil), time.Second, nil)
	f.invoices = appfinance.NewInvoiceService(persistence.NewGormInvoiceRepository(db), persistence.NewGormTransactionRepository(db))
	f.cards = appfinance.NewGiftCardService(persistence.NewGormGiftCardRepository(db))
	return f
}

func (f *pgFixture) stock(t *testing.T, p shared.Principal, sku string, qty int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	product, err := catalog.NewProduct("Product "+sku, sku, "", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, f.products.Create(ctx, product))
	receipt, err := f.receipts.Submit(ctx, p, appinventory.SubmitReceiptInput{ProductID: product.ID, ReceivedQuantity: qty})
	require.NoError(t, err)
	_, err = f.receipts.Decide(ctx, p, receipt.ID, appinventory.DecideReceiptInput{Decision: inventory.DecisionApprove})
	require.NoError(t, err)
	return product.ID
}

func TestPostgres_ConcurrentDistributionsNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newPostgres(t)
	retailer := shared.NewPrincipal(uuid.New(), shared.RetailerRole{RetailerID: uuid.New()})
	productID := f.stock(t, retailer, "RACE-1", 10)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.dists.Distribute(ctx, retailer, appdistribution.DistributeInput{
				ShopID: uuid.New(),
				Lines: []appdistribution.DistributeLine{{
					ProductID: productID, Quantity: 3, UnitPrice: decimal.NewFromInt(5),
				}},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	}
	assert.Equal(t, 3, succeeded)

	bucket, err := f.buckets.Find(ctx, retailer.Owner(), productID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bucket.AvailableStock)
	assert.Equal(t, int64(9), bucket.AllocatedStock)
	assert.Equal(t, bucket.TotalStock, bucket.AvailableStock+bucket.AllocatedStock)
}

func TestPostgres_OpposingLineOrdersDoNotDeadlock(t *testing.T) {
	ctx := context.Background()
	f := newPostgres(t)
	retailer := shared.NewPrincipal(uuid.New(), shared.RetailerRole{RetailerID: uuid.New()})
	a := f.stock(t, retailer, "ORD-A", 100)
	b := f.stock(t, retailer, "ORD-B", 100)

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		first, second := a, b
		if i%2 == 1 {
			first, second = b, a
		}
		wg.Add(1)
		go func(i int, first, second uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.dists.Distribute(ctx, retailer, appdistribution.DistributeInput{
				ShopID: uuid.New(),
				Lines: []appdistribution.DistributeLine{
					{ProductID: first, Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
					{ProductID: second, Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
				},
			})
		}(i, first, second)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	for _, id := range []uuid.UUID{a, b} {
		bucket, err := f.buckets.Find(ctx, retailer.Owner(), id)
		require.NoError(t, err)
		assert.Equal(t, int64(workers), bucket.AllocatedStock)
	}
}

func TestPostgres_ConcurrentGiftCardRedemptions(t *testing.T) {
	ctx := context.Background()
	f := newPostgres(t)
	owner := shared.NewPrincipal(uuid.New(), shared.DoctorRole{DoctorID: uuid.New()})
	_, err := f.cards.Issue(ctx, owner, "GC-PG", decimal.NewFromInt(100))
	require.NoError(t, err)

	const workers = 6
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		inv, err := f.invoices.Create(ctx, owner, decimal.NewFromInt(100), "INV-PG")
		require.NoError(t, err)
		wg.Add(1)
		go func(i int, invoiceID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.payments.RecordPayment(ctx, owner, appfinance.RecordPaymentInput{
				InvoiceID: invoiceID,
				Amount:    decimal.NewFromInt(30),
				Method:    finance.GiftCard{Code: "GC-PG"},
			})
		}(i, inv.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	}
	assert.Equal(t, 3, succeeded)

	card, err := f.cards.Get(ctx, owner, "GC-PG")
	require.NoError(t, err)
	assert.True(t, card.Balance.Equal(decimal.NewFromInt(10)), "balance %s", card.Balance)
}

func TestPostgres_AuditTablesAreAppendOnly(t *testing.T) {
	f := newPostgres(t)
	retailer := shared.NewPrincipal(uuid.New(), shared.RetailerRole{RetailerID: uuid.New()})
	f.stock(t, retailer, "AUDIT-1", 2)

	for _, stmt := range []string{
		"UPDATE stock_movements SET reason = 'tampered'",
		"DELETE FROM stock_movements",
	} {
		err := f.db.Exec(stmt).Error
		require.Error(t, err, stmt)
		assert.Contains(t, err.Error(), "append-only")
	}
}

func TestPostgres_MigrationsRollBackCleanly(t *testing.T) {
	f := newPostgres(t)

	db, err := sql.Open("postgres", f.dsn)
	require.NoError(t, err)
	m, err := migration.New(db, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	require.NoError(t, m.Down())
	_, _, err = m.Version()
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, _, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
