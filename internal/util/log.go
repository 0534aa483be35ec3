package util

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFromContext returns the logger attached to ctx, falling back to the
// global logger.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := log.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = &log.Logger
	}

	return l
}

type componentKey struct{}

// tagged is the logger a component tag was added to, kept so nested tags
// replace the field instead of repeating it.
type tagged struct {
	base zerolog.Logger
	name string
}

// WithComponent attaches a sub-logger tagged with component to ctx. Nested
// calls extend the tag as "outer/inner".
func WithComponent(ctx context.Context, component string) context.Context {
	base := *LogFromContext(ctx)
	if t, ok := ctx.Value(componentKey{}).(tagged); ok {
		base = t.base
		component = t.name + "/" + component
	}

	l := base.With().Str("component", component).Logger()
	ctx = context.WithValue(ctx, componentKey{}, tagged{base: base, name: component})
	return l.WithContext(ctx)
}

// ConfigureLogger sets the global level and output. An unknown level falls
// back to info.
func ConfigureLogger(level string, prettyPrintConsole bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stderr
	if prettyPrintConsole {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if err != nil {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
	}
}
