package builtin

import (
	"fmt"

	"eventcore/internal/eventable"
	"eventcore/internal/offline"
)

// OrderPlacedEvent fires when checkout completes. Args: order id.
type OrderPlacedEvent struct{ *eventable.Event }

func (OrderPlacedEvent) EventName() string { return "OrderPlaced" }

func (OrderPlacedEvent) Wrap(base *eventable.Event) eventable.Envelope {
	return &OrderPlacedEvent{Event: base}
}

func (e *OrderPlacedEvent) OrderID() string { return argString(e, 0) }

// SendReceiptListener mails the receipt for an order.
type SendReceiptListener struct{ offline.BaseListener }

func (SendReceiptListener) EventName() string { return "OrderPlaced" }

func (SendReceiptListener) Handle(ev eventable.Envelope, _ ...any) error {
	id := argString(ev, 0)
	if id == "" {
		return fmt.Errorf("send receipt: missing order id")
	}
	zlog.Info().Str("order", id).Msg("receipt sent")
	printf("receipt: order %s\n", id)
	return nil
}
