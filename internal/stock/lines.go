package stock

import "github.com/angelmondragon/dispensary-pos/pkg/types"

func FromOrderItems(items types.OrderItems) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	return lines
}

func FromInvoiceItems(items types.InvoiceItems) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	return lines
}

func FromTransactionItems(items types.TransactionItems) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	return lines
}
