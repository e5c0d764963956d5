package enums

// PaymentMethod describes how a customer settled a sale.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

var PaymentMethods = newSet("payment method", PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer)

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return PaymentMethods.has(p) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return PaymentMethods.parse(value)
}
