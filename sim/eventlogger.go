package sim

import (
	"fmt"
	"log"
	"reflect"
)

// EventLogger is an hook that prints the event information
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a new EventLogger which will write in to the logger
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	if s, ok := evt.(fmt.Stringer); ok {
		h.Printf("%d, %s", evt.Time(), s.String())
		return
	}

	h.Printf("%d, %s", evt.Time(), reflect.TypeOf(evt))
}
