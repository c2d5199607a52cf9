package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"poolfinder/internal/client/publicdata"
)

type pageScript struct {
	pages [][]int
	total int
	fail  map[int]error
	calls []int
}

func (p *pageScript) fetch(_ context.Context, page, _ int) (publicdata.Page[int], error) {
	p.calls = append(p.calls, page)
	if err, ok := p.fail[page]; ok {
		return publicdata.Page[int]{}, err
	}
	res := publicdata.Page[int]{PageNo: page, TotalCount: p.total}
	if page-1 < len(p.pages) {
		res.Items = p.pages[page-1]
	}
	return res, nil
}

func TestFetchAll_StopsOnEmptyPage(t *testing.T) {
	script := &pageScript{pages: [][]int{{1, 2}, {3}, {}}}
	items, stats := FetchAll(context.Background(), script.fetch, PageOptions{PerPage: 2, Delay: -1})
	if len(items) != 3 {
		t.Fatalf("items=%v want 3", items)
	}
	if stats.Pages != 2 || stats.Err != nil {
		t.Fatalf("stats=%+v", stats)
	}
	if len(script.calls) != 3 {
		t.Fatalf("calls=%v want pages 1..3 only", script.calls)
	}
}

func TestFetchAll_CountDrivenStopsAtCeil(t *testing.T) {
	// The fake would keep serving pages; the total must bound the walk.
	script := &pageScript{pages: [][]int{{1, 2}, {3, 4}, {5}, {6}, {7}}, total: 5}
	items, stats := FetchAll(context.Background(), script.fetch, PageOptions{PerPage: 2, Delay: -1, CountDriven: true})
	if len(script.calls) != 3 {
		t.Fatalf("calls=%v want 3", script.calls)
	}
	if len(items) != 5 || stats.TotalCount != 5 {
		t.Fatalf("items=%v stats=%+v", items, stats)
	}
}

func TestFetchAll_CountDrivenWithoutTotalIsOpenEnded(t *testing.T) {
	script := &pageScript{pages: [][]int{{1}, {2}, {}}}
	_, stats := FetchAll(context.Background(), script.fetch, PageOptions{PerPage: 1, Delay: -1, CountDriven: true})
	if stats.Pages != 2 || len(script.calls) != 3 {
		t.Fatalf("stats=%+v calls=%v", stats, script.calls)
	}
}

func TestFetchAll_ErrorKeepsCollectedPages(t *testing.T) {
	boom := &publicdata.APIError{Status: 500, Body: "down"}
	script := &pageScript{pages: [][]int{{1, 2}, {3, 4}, {5}}, fail: map[int]error{3: boom}}
	items, stats := FetchAll(context.Background(), script.fetch, PageOptions{PerPage: 2, Delay: -1})
	if len(items) != 4 {
		t.Fatalf("items=%v want 4", items)
	}
	var apiErr *publicdata.APIError
	if !errors.As(stats.Err, &apiErr) || stats.FailedPage != 3 || stats.Pages != 2 {
		t.Fatalf("stats=%+v", stats)
	}
	if len(script.calls) != 3 {
		t.Fatalf("no page after a failure: calls=%v", script.calls)
	}
}

func TestFetchAll_MaxPages(t *testing.T) {
	script := &pageScript{pages: [][]int{{1}, {2}, {3}}}
	items, _ := FetchAll(context.Background(), script.fetch, PageOptions{PerPage: 1, Delay: -1, MaxPages: 2})
	if len(items) != 2 || len(script.calls) != 2 {
		t.Fatalf("items=%v calls=%v", items, script.calls)
	}
}

func TestFetchAll_DelayHonoursContext(t *testing.T) {
	script := &pageScript{pages: [][]int{{1}, {2}}}
	ctx, cancel := context.WithCancel(context.Background())
	var seen []int
	opts := PageOptions{PerPage: 1, Delay: time.Hour, OnPage: func(_ string, page, _ int) {
		seen = append(seen, page)
		cancel()
	}}
	items, stats := FetchAll(ctx, script.fetch, opts)
	if len(items) != 1 || !errors.Is(stats.Err, context.Canceled) {
		t.Fatalf("items=%v stats=%+v", items, stats)
	}
	if len(seen) != 1 || len(script.calls) != 1 {
		t.Fatalf("seen=%v calls=%v", seen, script.calls)
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{{0, 10, 0}, {1, 10, 1}, {10, 10, 1}, {11, 10, 2}, {5, 0, 0}}
	for _, c := range cases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Fatalf("ceilDiv(%d,%d)=%d want=%d", c.a, c.b, got, c.want)
		}
	}
}
