package totals

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/pkg/enums"
)

// DiscountState tracks the discount chosen at the register. Member and custom
// discounts are mutually exclusive and the most recent choice wins.
type DiscountState struct {
	current Discount
}

func (s *DiscountState) ApplyMember(rate decimal.Decimal) {
	s.current = Discount{Mode: enums.DiscountModeMember, MemberRate: rate}
}

func (s *DiscountState) ApplyCustomAmount(amount decimal.Decimal) {
	s.current = Discount{Mode: enums.DiscountModeCustomAmount, Amount: amount}
}

func (s *DiscountState) ApplyCustomPercentage(pct decimal.Decimal) {
	s.current = Discount{Mode: enums.DiscountModeCustomPercentage, Percentage: pct}
}

func (s *DiscountState) Clear() {
	s.current = Discount{Mode: enums.DiscountModeNone}
}

func (s *DiscountState) MemberApplied() bool {
	return s.current.Mode == enums.DiscountModeMember
}

func (s *DiscountState) CustomApplied() bool {
	return s.current.Mode == enums.DiscountModeCustomAmount || s.current.Mode == enums.DiscountModeCustomPercentage
}

// Discount returns the active selection.
func (s *DiscountState) Discount() Discount {
	if s.current.Mode == "" {
		return Discount{Mode: enums.DiscountModeNone}
	}
	return s.current
}
