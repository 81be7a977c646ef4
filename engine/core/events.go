package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Window resized/resolution changed.
	/* Context usage:
	 * window_width = data.WindowWidth;
	 * window_height = data.WindowHeight;
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x02

	// Debug-config reload (graph validation or dump toggles changed on disk).
	EVENT_CODE_DEBUG_CONFIG_CHANGED SystemEventCode = 0x03

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

type OnEvent func(context EventContext)

type eventSystem struct {
	registered map[SystemEventCode][]OnEvent
	queue      chan EventContext
	done       chan struct{}
	closeOnce  sync.Once
}

var eventOnce sync.Once
var events *eventSystem

func EventSystemInitialize() bool {
	eventOnce.Do(func() {
		events = &eventSystem{
			registered: make(map[SystemEventCode][]OnEvent),
			queue:      make(chan EventContext, 256),
			done:       make(chan struct{}),
		}
	})
	return events != nil
}

// EventSystemShutdown stops event delivery. Safe to call more than once; the
// signal handler and the run loop exit may race to it.
func EventSystemShutdown() error {
	events.closeOnce.Do(func() {
		close(events.done)
	})
	return nil
}

// EventRegister subscribes the listener to the given code. Listeners are
// invoked from the ProcessEvents goroutine, not from the firing call site.
func EventRegister(code SystemEventCode, listener OnEvent) {
	events.registered[code] = append(events.registered[code], listener)
}

func EventFire(context EventContext) {
	select {
	case events.queue <- context:
	default:
		LogWarn("event queue full, dropping event %d", context.Type)
	}
}

func ProcessEvents() {
	for {
		select {
		case <-events.done:
			return
		case ctx := <-events.queue:
			for _, listener := range events.registered[ctx.Type] {
				listener(ctx)
			}
		}
	}
}
