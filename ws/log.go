package ws

import (
	"os"

	"github.com/rs/zerolog"
)

// defaultLogger is used by an Endpoint that was not given one via
// Config.Logger. It writes leveled, structured lines to stderr, following
// the chained-call style used throughout the example pack's websocket
// client (zerolog.Logger.Err(...).Str(...).Msg(...)).
var defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
