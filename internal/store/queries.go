package store

// SQL statement constants organized by entity.
// All SQL lives here — PostgresStore methods reference these constants.

// Catalog queries (host tables).
const (
	queryProductsByIDs = `
		SELECT p.id, p.name, p.sku, p.price, p.published, p.has_discounts_applied
		FROM products p
		WHERE p.id = ANY($1) AND NOT p.deleted`

	queryChildCategoryIDs = `
		WITH RECURSIVE descendants AS (
			SELECT id FROM categories WHERE parent_category_id = $1 AND NOT deleted
			UNION ALL
			SELECT c.id FROM categories c
			JOIN descendants d ON c.parent_category_id = d.id
			WHERE NOT c.deleted
		)
		SELECT id FROM descendants`

	queryProductIDsByCategories = `
		SELECT DISTINCT product_id
		FROM product_categories
		WHERE category_id = ANY($1)`

	queryManufacturerIDsByProducts = `
		SELECT product_id, manufacturer_id
		FROM product_manufacturers
		WHERE product_id = ANY($1)`
)

// Discount queries (host tables).
const (
	queryListDiscounts = `
		SELECT id, name, discount_type, use_percentage, discount_percentage,
			discount_amount, is_cumulative, applied_to_sub_categories,
			start_date_utc, end_date_utc
		FROM discounts`

	queryListVisibleDiscounts = queryListDiscounts + `
		WHERE (start_date_utc IS NULL OR start_date_utc <= now())
		  AND (end_date_utc IS NULL OR end_date_utc >= now())`

	queryDiscountsByIDs = queryListDiscounts + `
		WHERE id = ANY($1)`

	querySKUDiscountMappings = `
		SELECT dp.product_id, dp.discount_id
		FROM discount_products dp
		WHERE dp.product_id = ANY($1)`

	queryCategoryDiscountMappings = `
		SELECT dc.discount_id, dc.category_id
		FROM discount_categories dc
		WHERE dc.discount_id = ANY($1)`

	queryManufacturerDiscountMappings = `
		SELECT dm.discount_id, dm.manufacturer_id
		FROM discount_manufacturers dm
		WHERE dm.discount_id = ANY($1)`
)

// Order history queries (host tables).
const (
	// Cancelled orders are excluded from the training series. The
	// per-line discount is normalized by the line price; a zero price
	// yields a zero fraction.
	querySalesHistory = `
		SELECT oi.product_id, o.created_on_utc, oi.quantity,
			CASE WHEN oi.price_excl_tax > 0
				THEN oi.discount_amount_excl_tax / oi.price_excl_tax
				ELSE 0
			END AS discount
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.product_id = ANY($1)
		  AND o.order_status <> 'cancelled'
		ORDER BY o.created_on_utc, oi.id`
)

// Settings queries (forecaster tables). The settings table holds a
// single row enforced by a fixed primary key.
const (
	queryGetSettings = `
		SELECT api_key, quantile, updated_at
		FROM forecast_settings
		WHERE id = 1`

	querySaveSettings = `
		INSERT INTO forecast_settings (id, api_key, quantile, updated_at)
		VALUES (1, @api_key, @quantile, now())
		ON CONFLICT (id) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			quantile = EXCLUDED.quantile,
			updated_at = now()
		RETURNING updated_at`
)

// Pending job queries (forecaster tables). At most one pending job
// exists; a new submission replaces the previous record.
const (
	queryGetPendingJob = `
		SELECT forecast_id, search_params, period_length, submitted_at, ready
		FROM forecast_jobs
		ORDER BY submitted_at DESC
		LIMIT 1`

	querySavePendingJob = `
		INSERT INTO forecast_jobs (forecast_id, search_params, period_length, submitted_at, ready)
		VALUES (@forecast_id, @search_params, @period_length, now(), false)
		RETURNING submitted_at`

	queryDeleteAllPendingJobs = `DELETE FROM forecast_jobs`

	queryMarkJobReady = `
		UPDATE forecast_jobs SET ready = true WHERE forecast_id = $1`

	queryPruneStaleJobs = `
		DELETE FROM forecast_jobs WHERE submitted_at < now() - $1::interval`
)

// Job run queries (forecaster tables).
const (
	queryInsertJobRun = `
		INSERT INTO forecast_job_runs (id, job_name, status, started_at)
		VALUES ($1, $2, 'running', now())`

	queryCompleteJobRun = `
		UPDATE forecast_job_runs
		SET status = $2, error = $3, finished_at = now()
		WHERE id = $1`

	queryListLatestJobRuns = `
		SELECT DISTINCT ON (job_name)
			id, job_name, status, COALESCE(error, ''), started_at, finished_at
		FROM forecast_job_runs
		ORDER BY job_name, started_at DESC`
)
