package totals

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/money"
)

// rateScale is the precision persisted for discount and tax rates.
const rateScale = 4

var hundred = decimal.NewFromInt(100)

// Line is one priced cart line.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Discount is the single discount selected for a sale.
type Discount struct {
	Mode       enums.DiscountMode
	MemberRate decimal.Decimal
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// Totals holds the sale arithmetic. Values are full precision until Rounded.
type Totals struct {
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountMode   enums.DiscountMode `json:"discountMode"`
	DiscountRate   decimal.Decimal    `json:"discountRate"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	Taxable        decimal.Decimal    `json:"taxable"`
	TaxRate        decimal.Decimal    `json:"taxRate"`
	TaxAmount      decimal.Decimal    `json:"taxAmount"`
	FinalTotal     decimal.Decimal    `json:"finalTotal"`
}

// Compute prices lines, applies the discount clamped to the subtotal and taxes
// what remains.
func Compute(lines []Line, discount Discount, taxRate decimal.Decimal) (Totals, error) {
	if err := discount.Validate(); err != nil {
		return Totals{}, err
	}
	if !money.IsRate(taxRate) {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 1")
	}

	subtotal, err := Subtotal(lines)
	if err != nil {
		return Totals{}, err
	}

	chosen, rate := discount.resolve(subtotal)
	amount := money.Min(chosen, subtotal)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if discount.Mode == enums.DiscountModeCustomAmount {
		rate = ratio(amount, subtotal)
	}

	taxable := subtotal.Sub(amount)
	tax := taxable.Mul(taxRate)

	mode := discount.Mode
	if mode == "" {
		mode = enums.DiscountModeNone
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountMode:   mode,
		DiscountRate:   rate,
		DiscountAmount: amount,
		Taxable:        taxable,
		TaxRate:        taxRate,
		TaxAmount:      tax,
		FinalTotal:     taxable.Add(tax),
	}, nil
}

// Subtotal sums price × quantity. Prices must be non-negative and
// quantities positive.
func Subtotal(lines []Line) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
		}
		if line.Price.IsNegative() {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return subtotal, nil
}

// Rounded rounds currency values to two places. FinalTotal and Taxable are
// rebuilt from the rounded parts so final = subtotal - discount + tax holds
// exactly.
func (t Totals) Rounded() Totals {
	out := t
	out.Subtotal = money.Round(t.Subtotal)
	out.DiscountAmount = money.Round(t.DiscountAmount)
	out.TaxAmount = money.Round(t.TaxAmount)
	out.Taxable = out.Subtotal.Sub(out.DiscountAmount)
	out.FinalTotal = out.Taxable.Add(out.TaxAmount)
	out.DiscountRate = t.DiscountRate.Round(rateScale)
	out.TaxRate = t.TaxRate.Round(rateScale)
	return out
}

func (d Discount) Validate() error {
	switch d.Mode {
	case "", enums.DiscountModeNone:
		return nil
	case enums.DiscountModeMember:
		if !money.IsRate(d.MemberRate) {
			return pkgerrors.New(pkgerrors.CodeValidation, "member rate must be between 0 and 1")
		}
	case enums.DiscountModeCustomAmount:
		if d.Amount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount amount cannot be negative")
		}
	case enums.DiscountModeCustomPercentage:
		if d.Percentage.IsNegative() || d.Percentage.GreaterThan(hundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be between 0 and 100")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount mode")
	}
	return nil
}

// resolve returns the unclamped discount and the rate recorded for it.
func (d Discount) resolve(subtotal decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	switch d.Mode {
	case enums.DiscountModeMember:
		return subtotal.Mul(d.MemberRate), d.MemberRate
	case enums.DiscountModeCustomPercentage:
		rate := money.FromPercent(d.Percentage)
		return subtotal.Mul(rate), rate
	case enums.DiscountModeCustomAmount:
		return d.Amount, decimal.Zero
	default:
		return decimal.Zero, decimal.Zero
	}
}

func ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole)
}
