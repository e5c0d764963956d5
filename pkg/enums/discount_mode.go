package enums

// DiscountMode selects which discount applies to a sale. None and the two
// custom modes are chosen by the dealer; member uses the member's tier rate.
type DiscountMode string

const (
	DiscountModeNone             DiscountMode = "none"
	DiscountModeMember           DiscountMode = "member"
	DiscountModeCustomAmount     DiscountMode = "custom_amount"
	DiscountModeCustomPercentage DiscountMode = "custom_percentage"
)

var DiscountModes = newSet("discount mode",
	DiscountModeNone,
	DiscountModeMember,
	DiscountModeCustomAmount,
	DiscountModeCustomPercentage,
)

func (d DiscountMode) String() string { return string(d) }

// IsValid reports whether d is a known mode. The empty string is not.
func (d DiscountMode) IsValid() bool { return DiscountModes.has(d) }

func ParseDiscountMode(value string) (DiscountMode, error) {
	return DiscountModes.parse(value)
}
