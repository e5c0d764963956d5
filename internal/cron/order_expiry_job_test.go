package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dispensary-pos/internal/orders"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

type fakeExpirer struct {
	results []orders.ExpireResult
	errs    []error
	cutoffs []time.Time
}

func (f *fakeExpirer) ExpireStale(_ context.Context, cutoff time.Time) (orders.ExpireResult, error) {
	i := len(f.cutoffs)
	f.cutoffs = append(f.cutoffs, cutoff)
	var (
		res orders.ExpireResult
		err error
	)
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestOrderExpiryJobDisabledWithoutTTL(t *testing.T) {
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{Logger: quietLogger(), Orders: &fakeExpirer{}})
	require.NoError(t, err)
	assert.Nil(t, job)

	registry := mustRegistry(t, job)
	assert.Empty(t, registry.Jobs())
}

func TestOrderExpiryJobDrainsBatches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{results: []orders.ExpireResult{
		{Scanned: 200, Cancelled: 200},
		{Scanned: 3, Cancelled: 3},
		{},
	}}
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger: quietLogger(),
		Orders: expirer,
		TTL:    48 * time.Hour,
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)
	assert.Equal(t, "order-expiry", job.Name())

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, expirer.cutoffs, 3)
	assert.Equal(t, now.Add(-48*time.Hour), expirer.cutoffs[0])
}

func TestOrderExpiryJobCombinesErrors(t *testing.T) {
	expirer := &fakeExpirer{
		results: []orders.ExpireResult{{Scanned: 2, Cancelled: 1, Failed: 1}, {Scanned: 1, Failed: 1}},
		errs:    []error{errors.New("order a"), errors.New("order b")},
	}
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{Logger: quietLogger(), Orders: expirer, TTL: time.Hour})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order a")
	assert.Contains(t, err.Error(), "order b")
}
