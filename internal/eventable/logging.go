package eventable

import "github.com/rs/zerolog"

// zlog is the logger used by Eventables created without WithLogger.
var zlog = zerolog.Nop()

// SetLogger installs the package default logger. Eventables without their own
// logger pick it up on their next log line.
func SetLogger(l zerolog.Logger) { zlog = l }
