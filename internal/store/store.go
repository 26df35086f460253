// Package store defines the datastore abstraction for the sales
// forecaster. Business logic depends on the Store interface, never on
// concrete implementations, so it can be tested without a database.
//
// The store spans two schemas: the host commerce platform's catalog,
// discount, and order tables (read only), and the forecaster's own
// tables (settings, pending jobs, job runs) created by Migrate.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ProductQuery defines the product search filters.
type ProductQuery struct {
	CategoryIDs    []int64
	ManufacturerID int64
	Keywords       string
	Published      *bool
	Limit          int // default 1000
	Offset         int
}

// Store defines all data access operations for the sales forecaster.
type Store interface {
	// Catalog (host tables, read only)
	SearchProducts(ctx context.Context, q *ProductQuery) ([]domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	ChildCategoryIDs(ctx context.Context, parentID int64) ([]int64, error)
	ProductIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error)
	ManufacturerIDsByProducts(ctx context.Context, productIDs []int64) (map[int64][]int64, error)

	// Discounts (host tables, read only)
	ListDiscounts(ctx context.Context, showHidden bool) ([]domain.Discount, error)
	GetDiscountsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Discount, error)
	SKUDiscountMappings(ctx context.Context, productIDs []int64) (map[int64][]int64, error)
	CategoryDiscountMappings(ctx context.Context, discountIDs []int64) (map[int64][]int64, error)
	ManufacturerDiscountMappings(ctx context.Context, discountIDs []int64) (map[int64][]int64, error)

	// Order history (host tables, read only)
	SalesHistory(ctx context.Context, productIDs []int64) ([]domain.Sale, error)

	// Settings (forecaster tables)
	GetSettings(ctx context.Context) (*domain.Settings, error)
	SaveSettings(ctx context.Context, s *domain.Settings) error

	// Pending job (forecaster tables; at most one row)
	GetPendingJob(ctx context.Context) (*domain.PendingJob, error)
	SavePendingJob(ctx context.Context, j *domain.PendingJob) error
	MarkJobReady(ctx context.Context, forecastID string) error
	DeletePendingJob(ctx context.Context) error
	PruneStaleJobs(ctx context.Context, olderThan time.Duration) (int, error)

	// Scheduler bookkeeping (forecaster tables)
	InsertJobRun(ctx context.Context, jobName string) (id string, err error)
	CompleteJobRun(ctx context.Context, id string, status string, errText string) error
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
