package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonValue encodes v for a jsonb column; nil slices are stored as [].
func jsonValue(v any, empty bool) (driver.Value, error) {
	if empty {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb scan type %T", src)
	}
}

func (p PricingOptions) Value() (driver.Value, error) { return jsonValue(p, len(p) == 0) }

func (p *PricingOptions) Scan(src any) error { return jsonScan(src, p) }

func (o OrderItems) Value() (driver.Value, error) { return jsonValue(o, len(o) == 0) }

func (o *OrderItems) Scan(src any) error { return jsonScan(src, o) }

func (t TransactionItems) Value() (driver.Value, error) { return jsonValue(t, len(t) == 0) }

func (t *TransactionItems) Scan(src any) error { return jsonScan(src, t) }

func (i InvoiceItems) Value() (driver.Value, error) { return jsonValue(i, len(i) == 0) }

func (i *InvoiceItems) Scan(src any) error { return jsonScan(src, i) }
