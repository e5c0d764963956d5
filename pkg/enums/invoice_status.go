package enums

// InvoiceStatus tracks whether an invoice is open, settled or voided.
type InvoiceStatus string

const (
	InvoiceStatusIssued InvoiceStatus = "issued"
	InvoiceStatusPaid   InvoiceStatus = "paid"
	InvoiceStatusVoid   InvoiceStatus = "void"
)

var InvoiceStatuses = newSet("invoice status", InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusVoid)

func (i InvoiceStatus) String() string { return string(i) }

func (i InvoiceStatus) IsValid() bool { return InvoiceStatuses.has(i) }

func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	return InvoiceStatuses.parse(value)
}
