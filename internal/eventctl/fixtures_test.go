package eventctl

import (
	"eventcore/internal/eventable"
	"eventcore/internal/offline"
)

type orphanListener struct{ offline.BaseListener }

func (orphanListener) EventName() string { return "OrderRefunded" }

func (orphanListener) Handle(eventable.Envelope, ...any) error { return nil }
