package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/pkg/enums"
)

// Summary aggregates completed transactions in [From, To).
type Summary struct {
	From             time.Time         `json:"from"`
	To               time.Time         `json:"to"`
	TransactionCount int64             `json:"transactionCount"`
	GrossSales       decimal.Decimal   `json:"grossSales"`
	Discounts        decimal.Decimal   `json:"discounts"`
	NetSales         decimal.Decimal   `json:"netSales"`
	Tax              decimal.Decimal   `json:"tax"`
	Collected        decimal.Decimal   `json:"collected"`
	CostOfGoods      decimal.Decimal   `json:"costOfGoods"`
	GrossProfit      decimal.Decimal   `json:"grossProfit"`
	ByPaymentMethod  []PaymentBucket   `json:"byPaymentMethod"`
	TopItems         []ItemPerformance `json:"topItems"`
}

type PaymentBucket struct {
	Method enums.PaymentMethod `json:"method"`
	Count  int64               `json:"count"`
	Total  decimal.Decimal     `json:"total"`
}

type ItemPerformance struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// Narrative is generated prose about a Summary.
type Narrative struct {
	Summary Summary `json:"summary"`
	Text    string  `json:"text"`
}
