package orders

import (
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
)

// CanTransition reports whether an order may move from one status to another.
// Only pending orders move, and only to fulfilled or cancelled.
func CanTransition(from, to enums.OrderStatus) bool {
	if from != enums.OrderStatusPending {
		return false
	}
	return to == enums.OrderStatusFulfilled || to == enums.OrderStatusCancelled
}

func transitionError(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
		WithDetails(map[string]any{"from": from, "to": to})
}
