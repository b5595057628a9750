// Package builtin registers the sample offline event and listener classes
// shipped with eventctl. Importing it for side effects fills
// registry.Default:
//
//	import _ "eventcore/internal/builtin"
package builtin

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"eventcore/internal/eventable"
	"eventcore/internal/offline"
	"eventcore/internal/registry"
)

// Catalog locations of the built-in classes.
const (
	LocationUsers = "builtin/users"
	LocationShop  = "builtin/shop"
)

var zlog = zerolog.Nop()

// SetLogger installs the logger the sample listeners write to.
func SetLogger(l zerolog.Logger) { zlog = l }

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// SetOutput redirects the user-facing lines printed by the sample listeners.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

func printf(format string, a ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, format, a...)
}

func init() {
	Register(registry.Default)
}

// Register adds every built-in class to c.
func Register(c *registry.Catalog) {
	c.MustRegister(LocationUsers, "UserCreatedEvent", func() any { return &UserCreatedEvent{} })
	c.MustRegister(LocationUsers, "AuditListener", func() any { return &AuditListener{} })
	c.MustRegister(LocationUsers, "WelcomeListener", func() any { return &WelcomeListener{} })
	c.MustRegister(LocationShop, "OrderPlacedEvent", func() any { return &OrderPlacedEvent{} })
	c.MustRegister(LocationShop, "SendReceiptListener", func() any { return &SendReceiptListener{} })
}

// argString returns argument i as a string, or "" when absent.
func argString(ev eventable.Envelope, i int) string {
	if v := ev.Arg(i); v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

var (
	_ offline.EventClass = (*UserCreatedEvent)(nil)
	_ offline.EventClass = (*OrderPlacedEvent)(nil)
	_ offline.Listener   = (*AuditListener)(nil)
	_ offline.Listener   = (*WelcomeListener)(nil)
	_ offline.Listener   = (*SendReceiptListener)(nil)
)
