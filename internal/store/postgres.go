package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled
// PostgreSQL). It connects to the host commerce database; the
// forecaster's own tables live in the same database under their own
// names and are created by Migrate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Exec runs arbitrary SQL. Used by tests to install fixtures.
func (s *PostgresStore) Exec(ctx context.Context, sql string) error {
	_, err := s.pool.Exec(ctx, sql)
	return err
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// SearchProducts queries catalog products with the given filters.
func (s *PostgresStore) SearchProducts(ctx context.Context, q *ProductQuery) ([]domain.Product, error) {
	sql, args := q.ToSQL()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetProductsByIDs fetches catalog products by id, skipping unknown ids.
func (s *PostgresStore) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, queryProductsByIDs, ids)
	if err != nil {
		return nil, fmt.Errorf("querying products by ids: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Published, &p.HasDiscounts); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

// ChildCategoryIDs returns all descendant category ids of the given parent.
func (s *PostgresStore) ChildCategoryIDs(ctx context.Context, parentID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx, queryChildCategoryIDs, parentID)
	if err != nil {
		return nil, fmt.Errorf("querying child categories: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// ProductIDsByCategories returns the distinct product ids assigned to any
// of the given categories.
func (s *PostgresStore) ProductIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, queryProductIDsByCategories, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("querying products by categories: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// ManufacturerIDsByProducts returns manufacturer ids keyed by product id.
// Products without a manufacturer association are absent from the map.
func (s *PostgresStore) ManufacturerIDsByProducts(
	ctx context.Context,
	productIDs []int64,
) (map[int64][]int64, error) {
	if len(productIDs) == 0 {
		return map[int64][]int64{}, nil
	}

	rows, err := s.pool.Query(ctx, queryManufacturerIDsByProducts, productIDs)
	if err != nil {
		return nil, fmt.Errorf("querying product manufacturers: %w", err)
	}
	defer rows.Close()

	return scanIDPairs(rows)
}

// ListDiscounts returns all discount rules. With showHidden, rules whose
// validity window excludes the present are included as well — required
// for forward-looking forecasts.
func (s *PostgresStore) ListDiscounts(ctx context.Context, showHidden bool) ([]domain.Discount, error) {
	sql := queryListVisibleDiscounts
	if showHidden {
		sql = queryListDiscounts
	}

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("querying discounts: %w", err)
	}
	defer rows.Close()

	var discounts []domain.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating discounts: %w", err)
	}
	return discounts, nil
}

// GetDiscountsByIDs returns discount rules keyed by id.
func (s *PostgresStore) GetDiscountsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Discount, error) {
	if len(ids) == 0 {
		return map[int64]domain.Discount{}, nil
	}

	rows, err := s.pool.Query(ctx, queryDiscountsByIDs, ids)
	if err != nil {
		return nil, fmt.Errorf("querying discounts by ids: %w", err)
	}
	defer rows.Close()

	discounts := make(map[int64]domain.Discount, len(ids))
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		discounts[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating discounts: %w", err)
	}
	return discounts, nil
}

func scanDiscount(rows pgx.Rows) (domain.Discount, error) {
	var d domain.Discount
	err := rows.Scan(
		&d.ID, &d.Name, &d.Type, &d.UsePercentage, &d.Percentage,
		&d.Amount, &d.Cumulative, &d.AppliedToSubCategories,
		&d.StartUTC, &d.EndUTC,
	)
	if err != nil {
		return domain.Discount{}, fmt.Errorf("scanning discount: %w", err)
	}
	return d, nil
}

// SKUDiscountMappings returns discount ids keyed by product id from the
// direct product-discount association table.
func (s *PostgresStore) SKUDiscountMappings(
	ctx context.Context,
	productIDs []int64,
) (map[int64][]int64, error) {
	if len(productIDs) == 0 {
		return map[int64][]int64{}, nil
	}

	rows, err := s.pool.Query(ctx, querySKUDiscountMappings, productIDs)
	if err != nil {
		return nil, fmt.Errorf("querying product discount mappings: %w", err)
	}
	defer rows.Close()

	return scanIDPairs(rows)
}

// CategoryDiscountMappings returns category ids keyed by discount id.
func (s *PostgresStore) CategoryDiscountMappings(
	ctx context.Context,
	discountIDs []int64,
) (map[int64][]int64, error) {
	if len(discountIDs) == 0 {
		return map[int64][]int64{}, nil
	}

	rows, err := s.pool.Query(ctx, queryCategoryDiscountMappings, discountIDs)
	if err != nil {
		return nil, fmt.Errorf("querying category discount mappings: %w", err)
	}
	defer rows.Close()

	return scanIDPairs(rows)
}

// ManufacturerDiscountMappings returns manufacturer ids keyed by discount id.
func (s *PostgresStore) ManufacturerDiscountMappings(
	ctx context.Context,
	discountIDs []int64,
) (map[int64][]int64, error) {
	if len(discountIDs) == 0 {
		return map[int64][]int64{}, nil
	}

	rows, err := s.pool.Query(ctx, queryManufacturerDiscountMappings, discountIDs)
	if err != nil {
		return nil, fmt.Errorf("querying manufacturer discount mappings: %w", err)
	}
	defer rows.Close()

	return scanIDPairs(rows)
}

// SalesHistory returns the historical sale lines for the given products,
// excluding cancelled orders.
func (s *PostgresStore) SalesHistory(ctx context.Context, productIDs []int64) ([]domain.Sale, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, querySalesHistory, productIDs)
	if err != nil {
		return nil, fmt.Errorf("querying sales history: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var (
			sale      domain.Sale
			productID int64
		)
		if err := rows.Scan(&productID, &sale.Created, &sale.Quantity, &sale.Discount); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		sale.ProductID = domain.FormatProductID(productID)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sales: %w", err)
	}
	return sales, nil
}

// GetSettings loads the single settings row. A fresh install without a
// saved row returns zero-valued settings rather than an error.
func (s *PostgresStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	settings := &domain.Settings{}
	err := s.pool.QueryRow(ctx, queryGetSettings).Scan(
		&settings.APIKey, &settings.Quantile, &settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts the single settings row.
func (s *PostgresStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	args := pgx.NamedArgs{
		"api_key":  settings.APIKey,
		"quantile": settings.Quantile,
	}
	if err := s.pool.QueryRow(ctx, querySaveSettings, args).Scan(&settings.UpdatedAt); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// GetPendingJob returns the outstanding forecast job, or ErrNotFound when
// none is in flight.
func (s *PostgresStore) GetPendingJob(ctx context.Context) (*domain.PendingJob, error) {
	j := &domain.PendingJob{}
	var params []byte
	err := s.pool.QueryRow(ctx, queryGetPendingJob).Scan(
		&j.ForecastID, &params, &j.PeriodLength, &j.SubmittedAt, &j.Ready,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying pending job: %w", err)
	}
	if err := json.Unmarshal(params, &j.Search); err != nil {
		return nil, fmt.Errorf("decoding search params: %w", err)
	}
	return j, nil
}

// SavePendingJob replaces any existing pending job with j. The delete
// and insert run in one transaction so the at-most-one invariant holds
// even if the insert fails.
func (s *PostgresStore) SavePendingJob(ctx context.Context, j *domain.PendingJob) error {
	params, err := json.Marshal(j.Search)
	if err != nil {
		return fmt.Errorf("encoding search params: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, queryDeleteAllPendingJobs); err != nil {
		return fmt.Errorf("clearing previous job: %w", err)
	}

	args := pgx.NamedArgs{
		"forecast_id":   j.ForecastID,
		"search_params": params,
		"period_length": j.PeriodLength,
	}
	if err := tx.QueryRow(ctx, querySavePendingJob, args).Scan(&j.SubmittedAt); err != nil {
		return fmt.Errorf("saving pending job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing pending job: %w", err)
	}
	return nil
}

// MarkJobReady flags the pending job as completed by the remote engine.
func (s *PostgresStore) MarkJobReady(ctx context.Context, forecastID string) error {
	tag, err := s.pool.Exec(ctx, queryMarkJobReady, forecastID)
	if err != nil {
		return fmt.Errorf("marking job ready: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePendingJob clears the outstanding job record.
func (s *PostgresStore) DeletePendingJob(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, queryDeleteAllPendingJobs); err != nil {
		return fmt.Errorf("deleting pending job: %w", err)
	}
	return nil
}

// PruneStaleJobs removes pending jobs older than the given age and
// returns how many were removed.
func (s *PostgresStore) PruneStaleJobs(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, queryPruneStaleJobs, olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("pruning stale jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// InsertJobRun records the start of a scheduled job execution.
func (s *PostgresStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	id := uuid.NewString()
	if _, err := s.pool.Exec(ctx, queryInsertJobRun, id, jobName); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return id, nil
}

// CompleteJobRun finalizes a job run with its status and error text.
func (s *PostgresStore) CompleteJobRun(ctx context.Context, id, status, errText string) error {
	if _, err := s.pool.Exec(ctx, queryCompleteJobRun, id, status, errText); err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	return nil
}

// ListLatestJobRuns returns the most recent run per distinct job name.
func (s *PostgresStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListLatestJobRuns)
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.JobRun
	for rows.Next() {
		var r domain.JobRun
		if err := rows.Scan(&r.ID, &r.JobName, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job runs: %w", err)
	}
	return runs, nil
}

// scanIDs collects a single-column id result set.
func scanIDs(rows pgx.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}

// scanIDPairs collects a (key, value) id result set into a multimap.
func scanIDPairs(rows pgx.Rows) (map[int64][]int64, error) {
	pairs := make(map[int64][]int64)
	for rows.Next() {
		var k, v int64
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning id pair: %w", err)
		}
		pairs[k] = append(pairs[k], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating id pairs: %w", err)
	}
	return pairs, nil
}
