package logger

import (
	"fmt"
	"io"
	"sync/atomic"

	echolog "github.com/labstack/gommon/log"
)

// EchoAdapter routes Echo's own log calls, such as the stack traces printed
// by the Recover middleware, into a module logger.
//
//	e := echo.New()
//	e.Logger = logger.NewEchoAdapter(log.Module("echo"))
type EchoAdapter struct {
	logger Logger
	level  atomic.Uint32
	prefix atomic.Value
}

// NewEchoAdapter creates an echo.Logger on top of l. A nil l discards output.
func NewEchoAdapter(l Logger) *EchoAdapter {
	if l == nil {
		l = NewSlogLogger(nil, LogLevelInfo, nil)
	}
	a := &EchoAdapter{logger: l}
	a.level.Store(uint32(echolog.DEBUG))
	a.prefix.Store("")
	return a
}

// echoLevels maps Echo levels onto ours. Fatal and panic both log as errors.
var echoLevels = map[echolog.Lvl]LogLevel{
	echolog.DEBUG: LogLevelDebug,
	echolog.INFO:  LogLevelInfo,
	echolog.WARN:  LogLevelWarn,
	echolog.ERROR: LogLevelError,
}

func (a *EchoAdapter) emit(lvl echolog.Lvl, msg string, fields ...Field) {
	if lvl < a.Level() {
		return
	}
	level, ok := echoLevels[lvl]
	if !ok {
		level = LogLevelError
	}
	a.logger.Log(level, msg, fields...)
}

// Output returns io.Discard; output is owned by the wrapped logger.
func (a *EchoAdapter) Output() io.Writer { return io.Discard }

// SetOutput is ignored.
func (a *EchoAdapter) SetOutput(io.Writer) {}

// Prefix returns the prefix last set by Echo. It is not written to the log.
func (a *EchoAdapter) Prefix() string { return a.prefix.Load().(string) }

// SetPrefix stores p for Prefix.
func (a *EchoAdapter) SetPrefix(p string) { a.prefix.Store(p) }

// Level returns the minimum Echo level that is forwarded.
func (a *EchoAdapter) Level() echolog.Lvl { return echolog.Lvl(a.level.Load()) }

// SetLevel sets the minimum Echo level that is forwarded. The wrapped
// logger still applies its own level.
func (a *EchoAdapter) SetLevel(v echolog.Lvl) { a.level.Store(uint32(v)) }

// SetHeader is ignored; formatting is owned by the wrapped logger.
func (a *EchoAdapter) SetHeader(string) {}

func (a *EchoAdapter) Print(i ...any)                 { a.emit(echolog.INFO, fmt.Sprint(i...)) }
func (a *EchoAdapter) Printf(format string, v ...any) { a.emit(echolog.INFO, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Printj(j echolog.JSON)          { a.emit(echolog.INFO, "echo", Any("data", j)) }

func (a *EchoAdapter) Debug(i ...any)                 { a.emit(echolog.DEBUG, fmt.Sprint(i...)) }
func (a *EchoAdapter) Debugf(format string, v ...any) { a.emit(echolog.DEBUG, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Debugj(j echolog.JSON)          { a.emit(echolog.DEBUG, "echo", Any("data", j)) }

func (a *EchoAdapter) Info(i ...any)                 { a.emit(echolog.INFO, fmt.Sprint(i...)) }
func (a *EchoAdapter) Infof(format string, v ...any) { a.emit(echolog.INFO, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Infoj(j echolog.JSON)          { a.emit(echolog.INFO, "echo", Any("data", j)) }

func (a *EchoAdapter) Warn(i ...any)                 { a.emit(echolog.WARN, fmt.Sprint(i...)) }
func (a *EchoAdapter) Warnf(format string, v ...any) { a.emit(echolog.WARN, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Warnj(j echolog.JSON)          { a.emit(echolog.WARN, "echo", Any("data", j)) }

func (a *EchoAdapter) Error(i ...any)                 { a.emit(echolog.ERROR, fmt.Sprint(i...)) }
func (a *EchoAdapter) Errorf(format string, v ...any) { a.emit(echolog.ERROR, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Errorj(j echolog.JSON)          { a.emit(echolog.ERROR, "echo", Any("data", j)) }

// Fatal logs and panics instead of exiting, so deferred shutdown still runs.
func (a *EchoAdapter) Fatal(i ...any) { a.Panic(i...) }

// Fatalf logs and panics instead of exiting.
func (a *EchoAdapter) Fatalf(format string, v ...any) { a.Panicf(format, v...) }

// Fatalj logs and panics instead of exiting.
func (a *EchoAdapter) Fatalj(j echolog.JSON) { a.Panicj(j) }

func (a *EchoAdapter) Panic(i ...any) {
	msg := fmt.Sprint(i...)
	a.logger.Error(msg)
	panic(msg)
}

func (a *EchoAdapter) Panicf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	a.logger.Error(msg)
	panic(msg)
}

func (a *EchoAdapter) Panicj(j echolog.JSON) {
	a.logger.Error("echo", Any("data", j))
	panic(fmt.Sprint(j))
}
