package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/pkg/model"
	"github.com/deporate/crawler/internal/pkg/normalize"
)

const (
	JobPending     JobState = "pending"
	JobDiscovering JobState = "discovering"
	JobFetching    JobState = "fetching"
	JobExtracting  JobState = "extracting"
	JobNormalizing JobState = "normalizing"
	JobDone        JobState = "done"
	JobFailed      JobState = "failed"
)

type JobState string

// Store appends one run's merged records to a durable target and returns
// the persisted target. A store error is the only fatal run outcome.
type Store interface {
	Append(ctx context.Context, records []model.CanonicalRecord) (string, error)
}

// Job is one bank's full discover→fetch→extract→normalize unit of work.
type Job struct {
	Adapter SiteAdapter
	Fetcher Fetcher
	Timeout time.Duration
}

// Service schedules adapter jobs with bounded concurrency, contains their
// failures and hands the merged record set to the stores.
type Service struct {
	stores      []Store
	jobs        []Job
	maxParallel int
	logger      *zap.Logger
}

func NewService(stores []Store, jobs []Job, maxParallel int, logger *zap.Logger) *Service {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Service{
		stores:      stores,
		jobs:        jobs,
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// Run executes all jobs and persists whatever they produced. At most
// maxParallel jobs run at once; inside one job products are processed one at
// a time so a single host is never hammered. Cancelling ctx stops new jobs
// from being scheduled, lets running ones finish their current product and
// still persists the partial result. Every record of the run carries the
// same capture timestamp.
func (s *Service) Run(ctx context.Context) ([]model.CanonicalRecord, error) {
	capturedAt := time.Now()

	// merged in job start order, regardless of completion order
	results := make([][]model.CanonicalRecord, len(s.jobs))
	slots := make(chan struct{}, s.maxParallel)
	var wg sync.WaitGroup

scheduling:
	for i, job := range s.jobs {
		// checked before the select: when a slot is free and ctx is done at
		// the same time the select would pick a branch at random
		if ctx.Err() != nil {
			s.logger.Warn("run cancelled, not scheduling remaining jobs",
				zap.Int("remaining", len(s.jobs)-i))
			break scheduling
		}
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			s.logger.Warn("run cancelled, not scheduling remaining jobs",
				zap.Int("remaining", len(s.jobs)-i))
			break scheduling
		}

		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			defer func() { <-slots }()
			results[i] = s.runJob(ctx, job, capturedAt)
		}(i, job)
	}

	wg.Wait()

	var merged []model.CanonicalRecord
	for _, records := range results {
		merged = append(merged, records...)
	}
	s.logger.Info("all jobs finished", zap.Int("records", len(merged)))

	for _, store := range s.stores {
		target, err := store.Append(context.WithoutCancel(ctx), merged)
		if err != nil {
			s.logger.Error("sink failed", zap.Error(err))
			return merged, err
		}
		s.logger.Info("persisted run", zap.String("target", target))
	}
	return merged, nil
}

// runJob drives one adapter through its state machine. It never returns an
// error: any failure is logged, the job yields what it managed to collect
// and sibling jobs are unaffected.
func (s *Service) runJob(ctx context.Context, job Job, capturedAt time.Time) []model.CanonicalRecord {
	bank := job.Adapter.Bank()
	logger := s.logger.With(zap.String("bank", bank.ID))
	logger.Info("job state", zap.String("state", string(JobDiscovering)))

	listingHTML, err := job.Fetcher.Fetch(ctx, bank.ListingURL, job.Timeout)
	if err != nil {
		s.logFailure(logger, asFailure(model.FailureFetch, bank.ID, "", err), JobFailed)
		return nil
	}

	products, err := job.Adapter.DiscoverProducts(listingHTML)
	if err != nil {
		s.logFailure(logger, asFailure(model.FailureDiscovery, bank.ID, "", err), JobFailed)
		return nil
	}
	products = dedupProducts(products)
	if len(products) == 0 {
		logger.Warn("no products discovered")
	}

	var records []model.CanonicalRecord
	for i, product := range products {
		if ctx.Err() != nil {
			logger.Warn("job cancelled", zap.Int("processed", i), zap.Int("total", len(products)))
			break
		}
		records = append(records, s.runProduct(ctx, job, bank, product, capturedAt, logger)...)
	}

	logger.Info("job state", zap.String("state", string(JobDone)), zap.Int("records", len(records)))
	return records
}

// runProduct handles one product sequentially: fetch the detail document,
// extract raw rows, normalize each row. A failure at any step skips the
// affected scope (row or whole product) and the loop continues.
func (s *Service) runProduct(ctx context.Context, job Job, bank model.Bank, product model.DiscoveredProduct, capturedAt time.Time, logger *zap.Logger) []model.CanonicalRecord {
	logger = logger.With(zap.String("product", product.Name))
	logger.Debug("job state", zap.String("state", string(JobFetching)))

	detailHTML, err := job.Fetcher.Fetch(ctx, product.DetailURL, job.Timeout)
	if err != nil {
		s.logFailure(logger, asFailure(model.FailureFetch, bank.ID, product.Name, err), JobFetching)
		return nil
	}

	logger.Debug("job state", zap.String("state", string(JobExtracting)))
	rawRows, err := job.Adapter.ExtractRates(ctx, product, detailHTML)
	if err != nil {
		s.logFailure(logger, asFailure(model.FailureExtraction, bank.ID, product.Name, err), JobExtracting)
		return nil
	}

	sourceURL := product.SourceURL
	if sourceURL == "" {
		sourceURL = product.DetailURL
	}

	logger.Debug("job state", zap.String("state", string(JobNormalizing)), zap.Int("rows", len(rawRows)))
	var records []model.CanonicalRecord
	for _, raw := range rawRows {
		record, err := normalize.Normalize(bank, product.Name, sourceURL, capturedAt, raw)
		if err != nil {
			s.logFailure(logger, asFailure(model.FailureBadTerm, bank.ID, product.Name, err), JobNormalizing)
			continue
		}
		records = append(records, record)
	}
	return records
}

func (s *Service) logFailure(logger *zap.Logger, failure *model.Failure, state JobState) {
	logger.Warn("skipping failed unit",
		zap.String("state", string(state)),
		zap.String("kind", string(failure.Kind)),
		zap.Error(failure))
}

// asFailure keeps an already-typed failure as is and wraps anything else
// with the given default kind.
func asFailure(kind model.FailureKind, bank, product string, err error) *model.Failure {
	var failure *model.Failure
	if errors.As(err, &failure) {
		return failure
	}
	return model.NewFailure(kind, bank, product, err)
}

// dedupProducts enforces unique product names within one discovery result:
// the last occurrence wins, the first occurrence keeps its position, so the
// output is deterministic for identical input.
func dedupProducts(products []model.DiscoveredProduct) []model.DiscoveredProduct {
	seen := make(map[string]int, len(products))
	out := make([]model.DiscoveredProduct, 0, len(products))
	for _, product := range products {
		if product.Name == "" {
			continue
		}
		if i, ok := seen[product.Name]; ok {
			out[i] = product
			continue
		}
		seen[product.Name] = len(out)
		out = append(out, product)
	}
	return out
}
