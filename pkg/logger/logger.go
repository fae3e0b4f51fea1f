package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance.
// It is a no-op logger until Init is called so packages and tests can log freely.
var Log = zap.NewNop()

// Options controls how Init builds the global logger.
type Options struct {
	// Development: colorful console output with debug level.
	// Otherwise JSON structured logging at Level (default info).
	Development bool
	Level       string

	// FilePath, when set, sends logs to a rotating file instead of stdout.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init initializes the global logger
func Init(opts Options) error {
	var encoderCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	level := zapcore.InfoLevel

	if opts.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
		level = zapcore.DebugLevel
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return err
		}
	}

	core := zapcore.NewCore(encoder, writeSyncer(opts), zap.NewAtomicLevelAt(level))

	Log = zap.New(core,
		zap.AddCaller(),                   // file:line
		zap.AddStacktrace(zap.ErrorLevel), // stack trace for errors
	)
	return nil
}

func writeSyncer(opts Options) zapcore.WriteSyncer {
	if opts.FilePath == "" {
		return zapcore.AddSync(os.Stdout)
	}

	maxSize := opts.MaxSizeMB
	if maxSize == 0 {
		maxSize = 100
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = 3
	}
	maxAge := opts.MaxAgeDays
	if maxAge == 0 {
		maxAge = 7
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	})
}

// Sync flushes any buffered log entries
// Should be called before application exits
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
