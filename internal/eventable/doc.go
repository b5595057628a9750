// Package eventable implements the in-process, synchronous event layer.
//
// An Eventable is one subject's dispatcher: it owns a listener Registry, an
// ignore-list and a one-way disable latch. Trigger invokes the listeners
// registered for an event name in registration order, handing each the
// envelope followed by the trigger's positional arguments. A listener may
// cancel the envelope, which stops the loop after it returns. Listener errors
// and panics propagate unchanged to the caller of Trigger.
//
// Files by concern:
//
//   - listener.go: Callback, Listener and the id Sequence.
//   - registry.go: namespaced name -> ordered listeners.
//   - event.go: the Event envelope and the Envelope interface typed events satisfy.
//   - eventable.go: Eventable, options, ignore/disable and the Trigger loop.
//   - default.go: the process-wide subject for events not tied to any object.
//
// Nothing here is safe for concurrent use. Dispatch is single-threaded and
// nested triggers are plain recursion.
package eventable
