package stock

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/metrics"
)

// Op names a stock movement.
type Op string

const (
	// OpReserve moves units from available to reserved.
	OpReserve Op = "reserve"
	// OpRelease moves units from reserved back to available.
	OpRelease Op = "release"
	// OpFulfill consumes reserved units.
	OpFulfill Op = "fulfill"
	// OpConsume sells available units directly.
	OpConsume Op = "consume"
)

// Line is a quantity of one inventory item.
type Line struct {
	ItemID   uuid.UUID `json:"itemId"`
	Quantity int       `json:"quantity"`
}

// Shortage describes an item whose counter cannot cover the request.
type Shortage struct {
	ItemID    uuid.UUID `json:"itemId"`
	Name      string    `json:"name,omitempty"`
	Counter   string    `json:"counter"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Ledger applies stock movements to inventory_items. Every method requires a
// transaction handle owned by the caller; a returned error means the caller
// must roll back.
type Ledger struct {
	metrics *metrics.POSMetrics
}

func NewLedger(m *metrics.POSMetrics) *Ledger {
	return &Ledger{metrics: m}
}

func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, lines []Line) error {
	return l.apply(ctx, tx, OpReserve, lines)
}

func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, lines []Line) error {
	return l.apply(ctx, tx, OpRelease, lines)
}

func (l *Ledger) Fulfill(ctx context.Context, tx *gorm.DB, lines []Line) error {
	return l.apply(ctx, tx, OpFulfill, lines)
}

func (l *Ledger) Consume(ctx context.Context, tx *gorm.DB, lines []Line) error {
	return l.apply(ctx, tx, OpConsume, lines)
}

type movement struct {
	counter string
	sql     string
}

var movements = map[Op]movement{
	OpReserve: {
		counter: "available_stock",
		sql: `UPDATE inventory_items
			SET available_stock = available_stock - ?,
				reserved_stock = reserved_stock + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND available_stock >= ?`,
	},
	OpRelease: {
		counter: "reserved_stock",
		sql: `UPDATE inventory_items
			SET available_stock = available_stock + ?,
				reserved_stock = reserved_stock - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND reserved_stock >= ?`,
	},
	OpFulfill: {
		counter: "reserved_stock",
		sql: `UPDATE inventory_items
			SET reserved_stock = reserved_stock - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND reserved_stock >= ?`,
	},
	OpConsume: {
		counter: "available_stock",
		sql: `UPDATE inventory_items
			SET available_stock = available_stock - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND available_stock >= ?`,
	},
}

func (l *Ledger) apply(ctx context.Context, tx *gorm.DB, op Op, lines []Line) (err error) {
	units := 0
	defer func() {
		l.metrics.ObserveStockOp(string(op), units, err)
	}()

	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock update")
	}
	mv, ok := movements[op]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInternal, "unknown stock operation")
	}

	wanted, err := Aggregate(lines)
	if err != nil {
		return err
	}
	if len(wanted) == 0 {
		return nil
	}

	items, err := loadItems(ctx, tx, wanted)
	if err != nil {
		return err
	}

	var shortages []Shortage
	for _, w := range wanted {
		item := items[w.ItemID]
		if have := counterValue(item, mv.counter); have < w.Quantity {
			shortages = append(shortages, Shortage{
				ItemID:    w.ItemID,
				Name:      item.Name,
				Counter:   mv.counter,
				Requested: w.Quantity,
				Available: have,
			})
		}
	}
	if len(shortages) > 0 {
		return insufficient(shortages)
	}

	for _, w := range wanted {
		res := tx.WithContext(ctx).Exec(mv.sql, updateArgs(op, w)...)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update stock")
		}
		if res.RowsAffected == 0 {
			// Counter moved between the read and the conditional update.
			item := items[w.ItemID]
			return insufficient([]Shortage{{
				ItemID:    w.ItemID,
				Name:      item.Name,
				Counter:   mv.counter,
				Requested: w.Quantity,
				Available: counterValue(item, mv.counter),
			}})
		}
		units += w.Quantity
	}
	return nil
}

// Aggregate validates lines and merges duplicates, returning one line per
// item ordered by item id so concurrent callers touch rows in the same order.
func Aggregate(lines []Line) ([]Line, error) {
	totals := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.ItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").
				WithDetails(map[string]any{"itemId": line.ItemID, "quantity": line.Quantity})
		}
		totals[line.ItemID] += line.Quantity
	}

	out := make([]Line, 0, len(totals))
	for id, qty := range totals {
		out = append(out, Line{ItemID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ItemID.String() < out[j].ItemID.String()
	})
	return out, nil
}

func loadItems(ctx context.Context, tx *gorm.DB, wanted []Line) (map[uuid.UUID]models.InventoryItem, error) {
	ids := make([]uuid.UUID, 0, len(wanted))
	for _, w := range wanted {
		ids = append(ids, w.ItemID)
	}

	var rows []models.InventoryItem
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory items")
	}

	byID := make(map[uuid.UUID]models.InventoryItem, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found").
			WithDetails(map[string]any{"itemIds": missing})
	}
	return byID, nil
}

func counterValue(item models.InventoryItem, counter string) int {
	if counter == "reserved_stock" {
		return item.ReservedStock
	}
	return item.AvailableStock
}

func updateArgs(op Op, w Line) []any {
	switch op {
	case OpReserve, OpRelease:
		return []any{w.Quantity, w.Quantity, w.ItemID, w.Quantity}
	default:
		return []any{w.Quantity, w.ItemID, w.Quantity}
	}
}

func insufficient(shortages []Shortage) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{"items": shortages})
}
