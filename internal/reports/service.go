package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/money"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

const narrativeInstruction = "You are a retail analyst. Write a short plain-language summary of this point-of-sale report for the shop owner. Mention totals, the strongest payment method and the best-selling items."

// Service builds sales reports.
type Service interface {
	Summary(ctx context.Context, from, to time.Time) (*Summary, error)
	Narrative(ctx context.Context, from, to time.Time) (*Narrative, error)
}

// TextGenerator produces prose for a structured input.
type TextGenerator interface {
	Generate(ctx context.Context, instruction, input string) (string, error)
}

type service struct {
	repo     *Repository
	textgen  TextGenerator
	topItems int
}

// NewService builds the reports service. textgen may be nil, in which case
// Narrative reports a dependency error.
func NewService(repo *Repository, textgen TextGenerator, topItems int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if topItems <= 0 {
		topItems = 10
	}
	return &service{repo: repo, textgen: textgen, topItems: topItems}, nil
}

func (s *service) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	if !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}

	var (
		totals  totalsRow
		buckets []PaymentBucket
		lines   []types.TransactionItems
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.repo.Totals(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		buckets, err = s.repo.ByPaymentMethod(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		lines, err = s.repo.LineItems(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate sales")
	}

	cost, top := itemStats(lines, s.topItems)
	net := totals.Gross.Sub(totals.Discounts)
	for i := range buckets {
		buckets[i].Total = money.Round(buckets[i].Total)
	}
	if buckets == nil {
		buckets = []PaymentBucket{}
	}

	return &Summary{
		From:             from,
		To:               to,
		TransactionCount: totals.Count,
		GrossSales:       money.Round(totals.Gross),
		Discounts:        money.Round(totals.Discounts),
		NetSales:         money.Round(net),
		Tax:              money.Round(totals.Tax),
		Collected:        money.Round(totals.Collected),
		CostOfGoods:      money.Round(cost),
		GrossProfit:      money.Round(net.Sub(cost)),
		ByPaymentMethod:  buckets,
		TopItems:         top,
	}, nil
}

func (s *service) Narrative(ctx context.Context, from, to time.Time) (*Narrative, error) {
	if s.textgen == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "text generation not configured")
	}
	summary, err := s.Summary(ctx, from, to)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode summary")
	}
	text, err := s.textgen.Generate(ctx, narrativeInstruction, string(payload))
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "generate narrative")
	}
	return &Narrative{Summary: *summary, Text: text}, nil
}

// itemStats returns cost of goods (itemCost × quantity) and the best sellers
// by quantity, ties broken by revenue then name.
func itemStats(lines []types.TransactionItems, limit int) (decimal.Decimal, []ItemPerformance) {
	cost := decimal.Zero
	byItem := map[uuid.UUID]*ItemPerformance{}
	for _, items := range lines {
		for _, item := range items {
			qty := decimal.NewFromInt(int64(item.Quantity))
			cost = cost.Add(item.ItemCost.Mul(qty))

			perf, ok := byItem[item.ItemID]
			if !ok {
				perf = &ItemPerformance{ItemID: item.ItemID, Name: item.Name, Revenue: decimal.Zero}
				byItem[item.ItemID] = perf
			}
			perf.Quantity += item.Quantity
			perf.Revenue = perf.Revenue.Add(item.Price.Mul(qty))
		}
	}

	top := make([]ItemPerformance, 0, len(byItem))
	for _, perf := range byItem {
		perf.Revenue = money.Round(perf.Revenue)
		top = append(top, *perf)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		if !top[i].Revenue.Equal(top[j].Revenue) {
			return top[i].Revenue.GreaterThan(top[j].Revenue)
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return cost, top
}
