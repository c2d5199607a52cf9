package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"poolfinder/internal/client/publicdata"
	"poolfinder/internal/metrics"
	"poolfinder/internal/models"
	"poolfinder/internal/repository"
)

const (
	SourceAll = "all"

	resourceFacilities = "national_facility"
	resourceDetails    = "facility_detail"
	resourceLocalData  = "local_data"
)

// FacilitySource is the subset of the public data client the sync needs.
type FacilitySource interface {
	FetchNationalFacilities(ctx context.Context, page, perPage int) (publicdata.Page[publicdata.FacilityItem], error)
	FetchFacilityDetails(ctx context.Context, page, perPage int) (publicdata.Page[publicdata.FacilityDetailItem], error)
	FetchLocalData(ctx context.Context, page, perPage int) (publicdata.Page[publicdata.LocalDataItem], error)
}

type PoolSyncStore interface {
	repository.PoolRepository
	repository.SyncStateRepository
}

var (
	// ErrSyncRunning is returned when a sync is requested while one is running.
	ErrSyncRunning       = errors.New("pool sync already running")
	ErrUnsupportedSource = errors.New("unsupported source")
)

type PoolSyncService struct {
	Store   PoolSyncStore
	Client  FacilitySource
	Metrics *metrics.SyncMetrics
	Logger  *zap.Logger

	running atomic.Bool
}

type SyncOptions struct {
	Source          string
	NaturalKey      NaturalKey
	PerPage         int
	PageDelay       time.Duration
	MaxPages        int
	MaxLoggedErrors int
	SkipDetails     bool
}

type SyncResult struct {
	Source        string    `json:"source"`
	Pages         int       `json:"pages"`
	Fetched       int       `json:"fetched"`
	Matched       int       `json:"matched"`
	Details       int       `json:"details"`
	Skipped       int       `json:"skipped"`
	Inserted      int       `json:"inserted"`
	Updated       int       `json:"updated"`
	Errors        int       `json:"errors"`
	Disambiguated int       `json:"disambiguated"`
	FetchErrors   []string  `json:"fetch_errors,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

func (r *SyncResult) merge(o SyncResult) {
	r.Pages += o.Pages
	r.Fetched += o.Fetched
	r.Matched += o.Matched
	r.Details += o.Details
	r.Skipped += o.Skipped
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Errors += o.Errors
	r.Disambiguated += o.Disambiguated
	r.FetchErrors = append(r.FetchErrors, o.FetchErrors...)
}

// Sync runs fetch, filter, normalize and upsert for one source or all of
// them. Only a failure on the first page of a primary resource is returned;
// later page failures end that resource's pagination and are reported in
// the result.
func (s *PoolSyncService) Sync(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	if s == nil || s.Store == nil || s.Client == nil {
		return SyncResult{}, errors.New("pool sync is not configured")
	}
	if !s.running.CompareAndSwap(false, true) {
		return SyncResult{}, ErrSyncRunning
	}
	defer s.running.Store(false)

	source := strings.ToLower(strings.TrimSpace(opts.Source))
	if source == "" {
		source = models.SourceNationalFacility
	}
	switch source {
	case models.SourceNationalFacility:
		return s.run(ctx, source, opts, s.syncNational)
	case models.SourceLocalData:
		return s.run(ctx, source, opts, s.syncLocal)
	case SourceAll:
		result := SyncResult{Source: SourceAll, StartedAt: time.Now().UTC()}
		res, err := s.run(ctx, models.SourceNationalFacility, opts, s.syncNational)
		result.merge(res)
		if err != nil {
			result.FinishedAt = time.Now().UTC()
			return result, err
		}
		res, err = s.run(ctx, models.SourceLocalData, opts, s.syncLocal)
		result.merge(res)
		result.FinishedAt = time.Now().UTC()
		return result, err
	default:
		return SyncResult{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}

// Running reports whether a sync is in progress.
func (s *PoolSyncService) Running() bool {
	return s != nil && s.running.Load()
}

func (s *PoolSyncService) States(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.Store == nil {
		return nil, nil
	}
	return s.Store.ListSyncStates(ctx)
}

type syncFunc func(ctx context.Context, opts SyncOptions, result *SyncResult) error

func (s *PoolSyncService) run(ctx context.Context, source string, opts SyncOptions, fn syncFunc) (SyncResult, error) {
	started := time.Now().UTC()
	result := SyncResult{Source: source, StartedAt: started}
	err := fn(ctx, opts, &result)
	result.FinishedAt = time.Now().UTC()

	s.Metrics.RecordOutcome(source, metrics.OutcomeInserted, result.Inserted)
	s.Metrics.RecordOutcome(source, metrics.OutcomeUpdated, result.Updated)
	s.Metrics.RecordOutcome(source, metrics.OutcomeError, result.Errors)
	s.Metrics.RecordOutcome(source, metrics.OutcomeSkipped, result.Skipped)
	s.Metrics.ObserveRun(source, started, err == nil)

	if err != nil {
		s.writeSyncError(ctx, source, result, err)
		return result, err
	}
	s.writeSyncSuccess(ctx, source, result)
	if s.Logger != nil {
		s.Logger.Info("pool sync finished",
			zap.String("source", source),
			zap.Int("pages", result.Pages),
			zap.Int("fetched", result.Fetched),
			zap.Int("matched", result.Matched),
			zap.Int("inserted", result.Inserted),
			zap.Int("updated", result.Updated),
			zap.Int("errors", result.Errors),
			zap.Int("skipped", result.Skipped),
			zap.Duration("elapsed", result.FinishedAt.Sub(started)),
		)
	}
	return result, nil
}

func (s *PoolSyncService) syncNational(ctx context.Context, opts SyncOptions, result *SyncResult) error {
	facilities, stats := FetchAll(ctx, s.Client.FetchNationalFacilities, s.pageOptions(resourceFacilities, opts, false))
	result.Pages += stats.Pages
	result.Fetched += len(facilities)
	if err := s.checkFetch(stats, result, true); err != nil {
		return err
	}

	pools := make([]publicdata.FacilityItem, 0, len(facilities))
	for _, item := range facilities {
		if IsSwimmingPool(item) {
			pools = append(pools, item)
		}
	}
	result.Matched = len(pools)

	var details map[string]publicdata.FacilityDetailItem
	if !opts.SkipDetails && len(pools) > 0 {
		rows, dstats := FetchAll(ctx, s.Client.FetchFacilityDetails, s.pageOptions(resourceDetails, opts, false))
		result.Pages += dstats.Pages
		result.Details = len(rows)
		// Details only enrich records, so a failure here is never fatal.
		_ = s.checkFetch(dstats, result, false)
		details = IndexDetails(rows)
	}

	records := make([]PoolRecord, 0, len(pools))
	for _, item := range pools {
		var detail *publicdata.FacilityDetailItem
		if d, ok := details[item.FacltNm.String()]; ok {
			detail = &d
		}
		rec, err := NormalizeFacility(item, detail)
		if err != nil {
			s.skip(result, opts, item.FacltNm.String(), err)
			continue
		}
		records = append(records, rec)
	}
	s.upsert(ctx, opts, records, result)
	return nil
}

func (s *PoolSyncService) syncLocal(ctx context.Context, opts SyncOptions, result *SyncResult) error {
	rows, stats := FetchAll(ctx, s.Client.FetchLocalData, s.pageOptions(resourceLocalData, opts, true))
	result.Pages += stats.Pages
	result.Fetched += len(rows)
	if err := s.checkFetch(stats, result, true); err != nil {
		return err
	}

	records := make([]PoolRecord, 0, len(rows))
	for _, item := range rows {
		if !IsOperatingLocal(item) {
			continue
		}
		result.Matched++
		rec, err := NormalizeLocal(item)
		if err != nil {
			s.skip(result, opts, item.BplcNm.String(), err)
			continue
		}
		records = append(records, rec)
	}
	s.upsert(ctx, opts, records, result)
	return nil
}

func (s *PoolSyncService) upsert(ctx context.Context, opts SyncOptions, records []PoolRecord, result *SyncResult) {
	u := &Upserter{
		Store:           s.Store,
		Logger:          s.Logger,
		Key:             opts.NaturalKey,
		MaxLoggedErrors: opts.MaxLoggedErrors,
	}
	res := u.Upsert(ctx, records)
	result.Inserted += res.Inserted
	result.Updated += res.Updated
	result.Errors += res.Errors
	result.Disambiguated += res.Disambiguated
}

func (s *PoolSyncService) pageOptions(resource string, opts SyncOptions, countDriven bool) PageOptions {
	return PageOptions{
		Resource:    resource,
		PerPage:     opts.PerPage,
		Delay:       opts.PageDelay,
		MaxPages:    opts.MaxPages,
		CountDriven: countDriven,
		OnPage: func(resource string, page, items int) {
			s.Metrics.PageFetched(resource)
			if s.Logger != nil {
				s.Logger.Debug("page fetched", zap.String("resource", resource), zap.Int("page", page), zap.Int("items", items))
			}
		},
	}
}

// checkFetch returns an error only when the first page of a primary
// resource failed.
func (s *PoolSyncService) checkFetch(stats PageStats, result *SyncResult, primary bool) error {
	if stats.Err == nil {
		return nil
	}
	s.Metrics.FetchFailed(stats.Resource)
	if primary && stats.Pages == 0 && stats.FailedPage <= 1 {
		return fmt.Errorf("fetch %s: %w", stats.Resource, stats.Err)
	}
	result.FetchErrors = append(result.FetchErrors, fmt.Sprintf("%s page %d: %v", stats.Resource, stats.FailedPage, stats.Err))
	if s.Logger != nil {
		s.Logger.Warn("pagination stopped early",
			zap.String("resource", stats.Resource),
			zap.Int("page", stats.FailedPage),
			zap.Int("pages_kept", stats.Pages),
			zap.Error(stats.Err),
		)
	}
	return nil
}

func (s *PoolSyncService) skip(result *SyncResult, opts SyncOptions, name string, err error) {
	result.Skipped++
	limit := opts.MaxLoggedErrors
	if limit <= 0 {
		limit = 5
	}
	if s.Logger != nil && result.Skipped <= limit {
		s.Logger.Warn("record skipped", zap.String("name", name), zap.Error(err))
	}
}

func (s *PoolSyncService) writeSyncSuccess(ctx context.Context, source string, result SyncResult) {
	now := time.Now().UTC()
	state := &models.SyncState{
		Source:        source,
		Pages:         result.Pages,
		LastAttemptAt: &now,
		LastSuccessAt: &now,
		LastError:     strPtr(strings.Join(result.FetchErrors, "; ")),
		StatsJSON: statsJSON(map[string]int{
			"fetched":       result.Fetched,
			"matched":       result.Matched,
			"details":       result.Details,
			"skipped":       result.Skipped,
			"inserted":      result.Inserted,
			"updated":       result.Updated,
			"errors":        result.Errors,
			"disambiguated": result.Disambiguated,
		}),
	}
	if err := s.Store.SaveSyncState(ctx, state); err != nil && s.Logger != nil {
		s.Logger.Warn("save sync state failed", zap.String("source", source), zap.Error(err))
	}
}

func (s *PoolSyncService) writeSyncError(ctx context.Context, source string, result SyncResult, err error) {
	if s.Logger != nil {
		s.Logger.Warn("pool sync failed", zap.String("source", source), zap.Error(err))
	}
	now := time.Now().UTC()
	state := &models.SyncState{
		Source:        source,
		Pages:         result.Pages,
		LastAttemptAt: &now,
		LastError:     strPtr(err.Error()),
	}
	if prev, perr := s.Store.GetSyncState(ctx, source); perr == nil && prev != nil {
		state.LastSuccessAt = prev.LastSuccessAt
		state.StatsJSON = prev.StatsJSON
	}
	_ = s.Store.SaveSyncState(ctx, state)
}
