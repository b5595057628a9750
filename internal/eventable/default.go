package eventable

// Default is the process-wide subject for events not tied to any object.
var Default = New(WithLogIdentifier("EventHandler"))

// On adds a listener to the Default subject.
func On(name string, cb Callback) *Listener { return Default.AddListener(name, cb) }

// Off removes a listener from the Default subject.
func Off(l *Listener) { Default.RemoveListener(l) }

// Emit triggers name on the Default subject.
func Emit(name string, args ...any) (Envelope, error) { return Default.Trigger(name, args...) }
