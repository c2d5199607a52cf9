package service

import (
	"context"
	"time"

	"poolfinder/internal/client/publicdata"
)

const (
	defaultPerPage   = 1000
	defaultPageDelay = 300 * time.Millisecond
)

// PageFunc fetches one page of a paginated resource.
type PageFunc[T any] func(ctx context.Context, page, perPage int) (publicdata.Page[T], error)

type PageOptions struct {
	Resource string
	PerPage  int
	// Delay is slept between consecutive requests. Negative disables it.
	Delay    time.Duration
	MaxPages int
	// CountDriven stops after ceil(totalCount/perPage) pages when the first
	// page reports a total.
	CountDriven bool
	OnPage      func(resource string, page, items int)
}

type PageStats struct {
	Resource   string
	Pages      int
	TotalCount int
	FailedPage int
	Err        error
}

// FetchAll walks pages 1.. until an empty page, the page budget or an error.
// Items collected before an error are kept and the error is reported in
// PageStats.Err.
func FetchAll[T any](ctx context.Context, fetch PageFunc[T], opts PageOptions) ([]T, PageStats) {
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	delay := opts.Delay
	if delay == 0 {
		delay = defaultPageDelay
	}
	stats := PageStats{Resource: opts.Resource}
	var out []T
	totalPages := 0

	for page := 1; ; page++ {
		if opts.MaxPages > 0 && page > opts.MaxPages {
			break
		}
		if totalPages > 0 && page > totalPages {
			break
		}
		if page > 1 && delay > 0 {
			if err := sleepCtx(ctx, delay); err != nil {
				stats.Err = err
				stats.FailedPage = page
				break
			}
		}

		res, err := fetch(ctx, page, perPage)
		if err != nil {
			stats.Err = err
			stats.FailedPage = page
			break
		}
		if len(res.Items) == 0 {
			break
		}
		out = append(out, res.Items...)
		stats.Pages++
		if opts.OnPage != nil {
			opts.OnPage(opts.Resource, page, len(res.Items))
		}
		if page == 1 && res.TotalCount > 0 {
			stats.TotalCount = res.TotalCount
			if opts.CountDriven {
				totalPages = ceilDiv(res.TotalCount, perPage)
			}
		}
	}
	return out, stats
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
