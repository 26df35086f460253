package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/majako/sales-forecaster/internal/i18n"
	"github.com/majako/sales-forecaster/internal/majako"
	"github.com/majako/sales-forecaster/internal/metrics"
	"github.com/majako/sales-forecaster/internal/notify"
	"github.com/majako/sales-forecaster/internal/store"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// Sentinel errors surfaced to the admin API.
var (
	// ErrNoForecast means no forecast job has been submitted.
	ErrNoForecast = errors.New("no forecast requested")

	// ErrNotReady means the outstanding job is still computing.
	ErrNotReady = errors.New("forecast not ready")

	// ErrForecastExpired means the remote job id is no longer known to
	// the remote engine; the pending job has been cleared.
	ErrForecastExpired = errors.New("forecast expired")
)

// PreliminaryForecast is the discount preview shown to the admin before
// submission: the matched products and the discounts resolved for each.
type PreliminaryForecast struct {
	Products     []domain.Product
	Discounts    map[int64][]domain.Discount
	PeriodLength int
	Window       Window
}

// Submission is one forecast job request. DiscountsByProduct carries
// the admin's (possibly pruned) discount selection per product from the
// preliminary preview. A non-nil BlanketDiscount bypasses the selection
// and assigns the same fraction to every product.
type Submission struct {
	Search             domain.SearchParams
	PeriodLength       int
	DiscountsByProduct map[int64][]int64
	BlanketDiscount    *float64
}

// Service orchestrates the forecasting pipeline end to end.
type Service struct {
	store      store.Store
	client     majako.Client
	supervisor *Supervisor
	resolver   *Resolver
	engine     PreferenceEngine
	notifier   notify.Notifier
	messages   *i18n.Bundle
	log        *slog.Logger
	now        func() time.Time
}

// NewService creates a Service with injected dependencies.
func NewService(
	s store.Store,
	client majako.Client,
	supervisor *Supervisor,
	notifier notify.Notifier,
	messages *i18n.Bundle,
	opts ...ServiceOption,
) *Service {
	svc := &Service{
		store:      s,
		client:     client,
		supervisor: supervisor,
		resolver:   NewResolver(s),
		engine:     NewStackingEngine(),
		notifier:   notifier,
		messages:   messages,
		log:        slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithServiceLogger sets a custom logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = l
	}
}

// WithPreferenceEngine replaces the default discount selection rules.
func WithPreferenceEngine(e PreferenceEngine) ServiceOption {
	return func(s *Service) {
		s.engine = e
	}
}

// WithNowFunc overrides the clock.
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// Preliminary resolves the products matching the search and the
// discounts applicable to each during the forecast window, for the
// admin to review before submitting.
func (s *Service) Preliminary(
	ctx context.Context,
	search domain.SearchParams,
) (*PreliminaryForecast, error) {
	products, err := s.searchProducts(ctx, search)
	if err != nil {
		return nil, err
	}

	w := NewWindow(s.now(), search.PeriodLength)
	index, err := s.resolver.Resolve(ctx, products, w)
	if err != nil {
		return nil, fmt.Errorf("resolving discounts: %w", err)
	}

	return &PreliminaryForecast{
		Products:     products,
		Discounts:    index,
		PeriodLength: search.PeriodLength,
		Window:       w,
	}, nil
}

// Submit creates a remote forecast job from the submission. With no
// historical sales for the selected products the submission is skipped
// entirely and no job is created; the false return distinguishes that
// from a successful submission.
func (s *Service) Submit(ctx context.Context, sub *Submission) (bool, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return false, fmt.Errorf("loading settings: %w", err)
	}

	productIDs := make([]int64, 0, len(sub.DiscountsByProduct))
	for pid := range sub.DiscountsByProduct {
		productIDs = append(productIDs, pid)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	sales, err := s.store.SalesHistory(ctx, productIDs)
	if err != nil {
		return false, fmt.Errorf("loading sales history: %w", err)
	}
	if len(sales) == 0 {
		s.log.Info("submission skipped, no historical sales", "products", len(productIDs))
		metrics.SubmissionsSkippedTotal.Inc()
		return false, nil
	}

	var discounts map[string]float64
	if sub.BlanketDiscount != nil {
		discounts = BlanketDiscounts(productIDs, *sub.BlanketDiscount)
	} else {
		discounts, err = s.forwardDiscounts(ctx, sub, productIDs)
		if err != nil {
			return false, err
		}
	}

	req := BuildRequest(sales, sub.PeriodLength, discounts, settings.Quantile)
	forecastID, err := s.client.Submit(ctx, req)
	if err != nil {
		metrics.SubmissionErrorsTotal.Inc()
		return false, fmt.Errorf("submitting forecast: %w", err)
	}

	job := &domain.PendingJob{
		ForecastID:   forecastID,
		Search:       sub.Search,
		PeriodLength: sub.PeriodLength,
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.store.SavePendingJob(ctx, job); err != nil {
		return false, fmt.Errorf("saving pending job: %w", err)
	}

	s.supervisor.StartJob(forecastID)

	metrics.SubmissionsTotal.Inc()
	metrics.SubmissionSalesRows.Observe(float64(len(sales)))
	s.log.Info("forecast submitted",
		"forecast_id", forecastID,
		"products", len(productIDs),
		"sales_rows", len(sales),
		"period_days", sub.PeriodLength,
	)
	return true, nil
}

// forwardDiscounts blends the admin's discount selection into the
// per-product fractions for the payload.
func (s *Service) forwardDiscounts(
	ctx context.Context,
	sub *Submission,
	productIDs []int64,
) (map[string]float64, error) {
	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	seen := make(map[int64]struct{})
	var discountIDs []int64
	for _, ids := range sub.DiscountsByProduct {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			discountIDs = append(discountIDs, id)
		}
	}

	byID, err := s.store.GetDiscountsByIDs(ctx, discountIDs)
	if err != nil {
		return nil, fmt.Errorf("loading discounts: %w", err)
	}

	// Rebuild the per-product index from the selection. Ids the host no
	// longer knows are dropped silently; repeated selections are kept.
	index := make(map[int64][]domain.Discount, len(sub.DiscountsByProduct))
	for pid, ids := range sub.DiscountsByProduct {
		ds := make([]domain.Discount, 0, len(ids))
		for _, id := range ids {
			if d, ok := byID[id]; ok {
				ds = append(ds, d)
			}
		}
		index[pid] = ds
	}

	w := NewWindow(s.now(), sub.PeriodLength)
	return ForwardDiscounts(products, index, w, s.engine), nil
}

// Results fetches the outstanding job's predictions and maps them onto
// the product list from the originating search. A job unknown to the
// remote engine clears the pending record and starts the flow over,
// surfaced as ErrForecastExpired with a warning notification.
func (s *Service) Results(ctx context.Context) ([]domain.ForecastResult, error) {
	job, err := s.store.GetPendingJob(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoForecast
		}
		return nil, fmt.Errorf("loading pending job: %w", err)
	}

	status, err := s.client.Status(ctx, job.ForecastID)
	if err != nil {
		if errors.Is(err, majako.ErrJobNotFound) {
			return nil, s.expireJob(ctx, job.ForecastID)
		}
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	if !status.Ready {
		return nil, ErrNotReady
	}

	products, err := s.searchProducts(ctx, job.Search)
	if err != nil {
		return nil, err
	}
	return MapResponse(products, status.Predictions), nil
}

// SalesForSearch returns the historical sales rows for the products
// matching the search, for export.
func (s *Service) SalesForSearch(
	ctx context.Context,
	search domain.SearchParams,
) ([]domain.Sale, error) {
	products, err := s.searchProducts(ctx, search)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	sales, err := s.store.SalesHistory(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading sales history: %w", err)
	}
	return sales, nil
}

// Reset cancels polling and clears the pending job, returning the
// lifecycle to idle.
func (s *Service) Reset(ctx context.Context) error {
	s.supervisor.CancelCurrent()
	if err := s.store.DeletePendingJob(ctx); err != nil {
		return fmt.Errorf("clearing pending job: %w", err)
	}
	s.log.Info("forecast state reset")
	return nil
}

// Resume re-attaches polling to a pending job with no active loop,
// typically after a process restart.
func (s *Service) Resume(ctx context.Context) error {
	job, err := s.store.GetPendingJob(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading pending job: %w", err)
	}
	if job.Ready || s.supervisor.Active() {
		return nil
	}

	s.log.Info("resuming polling for pending job", "forecast_id", job.ForecastID)
	s.supervisor.StartJob(job.ForecastID)
	return nil
}

func (s *Service) expireJob(ctx context.Context, forecastID string) error {
	s.supervisor.CancelCurrent()
	if err := s.store.DeletePendingJob(ctx); err != nil {
		s.log.Error("clearing expired job failed", "forecast_id", forecastID, "error", err)
	}

	nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.notifier.Send(nctx, notify.Event{
		Level:      notify.LevelWarning,
		Message:    s.messages.T("notify.forecast_expired"),
		ForecastID: forecastID,
	}); err != nil {
		s.log.Error("notification delivery failed", "error", err)
	}

	return ErrForecastExpired
}

// searchProducts expands the category filter (including descendants
// when requested) and runs the product search.
func (s *Service) searchProducts(
	ctx context.Context,
	search domain.SearchParams,
) ([]domain.Product, error) {
	var categoryIDs []int64
	if search.CategoryID > 0 {
		categoryIDs = append(categoryIDs, search.CategoryID)
		if search.IncludeSubCategories {
			children, err := s.store.ChildCategoryIDs(ctx, search.CategoryID)
			if err != nil {
				return nil, fmt.Errorf("expanding categories: %w", err)
			}
			categoryIDs = append(categoryIDs, children...)
		}
	}

	products, err := s.store.SearchProducts(ctx, &store.ProductQuery{
		CategoryIDs:    categoryIDs,
		ManufacturerID: search.ManufacturerID,
		Keywords:       search.Keywords,
		Published:      search.Published,
		Limit:          10000,
	})
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	return products, nil
}
