package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"poolfinder/internal/models"
	"poolfinder/internal/region"
	"poolfinder/internal/repository"
)

// NaturalKey selects how an incoming record is matched to an existing row.
type NaturalKey string

const (
	NaturalKeySlug     NaturalKey = "slug"
	NaturalKeySourceID NaturalKey = "source_id"
)

const slugSuffixLen = 6

func ParseNaturalKey(raw string) (NaturalKey, error) {
	switch NaturalKey(strings.ToLower(strings.TrimSpace(raw))) {
	case "", NaturalKeySlug:
		return NaturalKeySlug, nil
	case NaturalKeySourceID, "source", "sourceid":
		return NaturalKeySourceID, nil
	default:
		return "", fmt.Errorf("unsupported natural key: %s", raw)
	}
}

type UpsertResult struct {
	Inserted      int `json:"inserted"`
	Updated       int `json:"updated"`
	Errors        int `json:"errors"`
	Disambiguated int `json:"disambiguated"`
}

// Upserter writes normalized records one at a time. Each record is an
// independent find-then-write, so only one Upserter may run against a
// table at a time.
type Upserter struct {
	Store           repository.PoolRepository
	Logger          *zap.Logger
	Key             NaturalKey
	MaxLoggedErrors int
	Now             func() time.Time
}

type upsertOutcome int

const (
	outcomeInserted upsertOutcome = iota
	outcomeUpdated
	outcomeDisambiguated
)

// Upsert never aborts on a per-record failure; failures are counted and the
// first MaxLoggedErrors are logged.
func (u *Upserter) Upsert(ctx context.Context, records []PoolRecord) UpsertResult {
	var result UpsertResult
	if u == nil || u.Store == nil {
		result.Errors = len(records)
		return result
	}
	for i := range records {
		if ctx.Err() != nil {
			result.Errors += len(records) - i
			u.logError(result.Errors, records[i], ctx.Err())
			break
		}
		outcome, err := u.upsertOne(ctx, records[i])
		if err != nil {
			result.Errors++
			u.logError(result.Errors, records[i], err)
			continue
		}
		switch outcome {
		case outcomeInserted:
			result.Inserted++
		case outcomeDisambiguated:
			result.Inserted++
			result.Disambiguated++
		case outcomeUpdated:
			result.Updated++
		}
	}
	return result
}

func (u *Upserter) upsertOne(ctx context.Context, rec PoolRecord) (upsertOutcome, error) {
	if strings.TrimSpace(rec.Slug) == "" {
		return 0, errors.New("record has an empty slug")
	}
	now := u.now()
	existing, err := u.find(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("lookup %s: %w", rec.Slug, err)
	}

	pool := rec.toModel(now)
	if existing != nil {
		pool.ID = existing.ID
		pool.CreatedAt = existing.CreatedAt
		// Source-keyed rows keep their first slug so links stay stable.
		if u.key() == NaturalKeySourceID {
			pool.Slug = existing.Slug
		}
		if err := u.Store.UpdatePool(ctx, pool); err != nil {
			return 0, fmt.Errorf("update %s: %w", pool.Slug, err)
		}
		return outcomeUpdated, nil
	}

	pool.CreatedAt = now
	err = u.Store.InsertPool(ctx, pool)
	if err == nil {
		return outcomeInserted, nil
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		return 0, fmt.Errorf("insert %s: %w", pool.Slug, err)
	}

	alt := DisambiguateSlug(rec.Slug, rec.SourceID)
	if alt == rec.Slug {
		return 0, fmt.Errorf("insert %s: %w", pool.Slug, err)
	}
	pool.ID = ""
	pool.Slug = alt
	if err := u.Store.InsertPool(ctx, pool); err != nil {
		return 0, fmt.Errorf("insert %s after slug retry: %w", alt, err)
	}
	return outcomeDisambiguated, nil
}

func (u *Upserter) find(ctx context.Context, rec PoolRecord) (*models.Pool, error) {
	if u.key() == NaturalKeySourceID {
		if strings.TrimSpace(rec.SourceID) == "" {
			return nil, ErrMissingSourceID
		}
		return u.Store.FindPoolBySource(ctx, rec.SourceAPI, rec.SourceID)
	}
	return u.Store.FindPoolBySlug(ctx, rec.Slug)
}

func (u *Upserter) key() NaturalKey {
	if u.Key == "" {
		return NaturalKeySlug
	}
	return u.Key
}

func (u *Upserter) now() time.Time {
	if u.Now != nil {
		return u.Now().UTC()
	}
	return time.Now().UTC()
}

func (u *Upserter) logError(count int, rec PoolRecord, err error) {
	limit := u.MaxLoggedErrors
	if limit <= 0 {
		limit = 5
	}
	if u.Logger == nil || count > limit {
		return
	}
	u.Logger.Warn("pool upsert failed",
		zap.String("name", rec.Name),
		zap.String("slug", rec.Slug),
		zap.String("source_id", rec.SourceID),
		zap.Int("error_no", count),
		zap.Error(err),
	)
}

// DisambiguateSlug appends the first six slug-safe runes of the source id.
// The result is not guaranteed unique.
func DisambiguateSlug(slug, sourceID string) string {
	frag := []rune(region.ToSlug(sourceID))
	if len(frag) == 0 {
		return slug
	}
	if len(frag) > slugSuffixLen {
		frag = frag[:slugSuffixLen]
	}
	return slug + "-" + string(frag)
}
