package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App is attached to every entry of the process logger.
const App = "jobthai-scout"

// Component names of the sub-loggers a run is wired with. They show up under
// the "component" key.
const (
	ComponentBuilder  = "builder"
	ComponentPortal   = "jobthai"
	ComponentPacing   = "pacing"
	ComponentRouter   = "router"
	ComponentNotify   = "notify"
	ComponentEmail    = "email"
	ComponentTelegram = "telegram"
	ComponentRecorder = "recorder"
)

// Options configure the process logger.
type Options struct {
	JSON  bool
	Debug bool
	// Version is logged with every entry when set.
	Version string
	// OutputPaths default to stdout.
	OutputPaths []string
}

// New builds the process logger: console or JSON output, debug level when
// requested.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if opts.JSON {
		encoding = "json"
	}

	if opts.Debug {
		level = zapcore.DebugLevel
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    initialFields(opts.Version),
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "event",
			NameKey:    "component",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	return cfg.Build()
}

// Component returns the named sub-logger of one part of a run.
func Component(logger *zap.Logger, name string) *zap.Logger {
	return OrNop(logger).Named(name)
}

func initialFields(version string) map[string]any {
	fields := map[string]any{"app": App}
	if version != "" {
		fields["version"] = version
	}
	return fields
}
