package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/dispensary-pos/internal/orders"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

// maxExpiryRounds bounds how many batches one run drains.
const maxExpiryRounds = 10

type staleOrderExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (orders.ExpireResult, error)
}

// OrderExpiryJobParams configure the pending order expiry job.
type OrderExpiryJobParams struct {
	Logger *logger.Logger
	Orders staleOrderExpirer
	TTL    time.Duration
	Now    func() time.Time
}

type orderExpiryJob struct {
	logg   *logger.Logger
	orders staleOrderExpirer
	ttl    time.Duration
	now    func() time.Time
}

// NewOrderExpiryJob builds the job that cancels pending orders older than TTL
// and releases their reserved stock. It returns nil when TTL is not positive,
// which the registry skips.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.TTL <= 0 {
		return nil, nil
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &orderExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    params.TTL,
		now:    now,
	}, nil
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	var (
		errs  error
		total orders.ExpireResult
	)
	for round := 0; round < maxExpiryRounds; round++ {
		result, err := j.orders.ExpireStale(ctx, cutoff)
		total.Scanned += result.Scanned
		total.Cancelled += result.Cancelled
		total.Failed += result.Failed
		errs = multierr.Append(errs, err)
		if result.Cancelled == 0 || ctx.Err() != nil {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"scanned":   total.Scanned,
		"cancelled": total.Cancelled,
		"failed":    total.Failed,
	})
	j.logg.Info(logCtx, "order expiry complete")
	return errs
}
