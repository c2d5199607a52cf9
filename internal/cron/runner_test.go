package cronrunner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddRejectsBadSpec(t *testing.T) {
	r := New(zap.NewNop(), context.Background())
	_, err := r.Add("pool_sync", "every day", func(context.Context) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool_sync")
}

func TestJobGetsBaseContextAndSurvivesPanic(t *testing.T) {
	type key struct{}
	base := context.WithValue(context.Background(), key{}, "base")
	r := New(nil, base)

	var got any
	id, err := r.Add("capture", "0 0 4 * * *", func(ctx context.Context) { got = ctx.Value(key{}) })
	require.NoError(t, err)
	r.cron.Entry(id).Job.Run()
	assert.Equal(t, "base", got)

	id, err = r.Add("boom", "*/5 * * * * *", func(context.Context) { panic("boom") })
	require.NoError(t, err)
	assert.NotPanics(t, func() { r.cron.Entry(id).Job.Run() })
}

func TestJobSkippedAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(zap.NewNop(), ctx)
	ran := false
	id, err := r.Add("late", "0 0 4 * * *", func(context.Context) { ran = true })
	require.NoError(t, err)
	cancel()
	r.cron.Entry(id).Job.Run()
	assert.False(t, ran)
}

func TestNilRunner(t *testing.T) {
	var r *Runner
	_, err := r.Add("x", "* * * * * *", func(context.Context) {})
	assert.Error(t, err)
	r.Start()
	r.Stop()
}
