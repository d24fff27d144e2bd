// Package log provides a small leveled logger for the harness.
//
// Time/date are omitted by default because most deployments run this under
// a supervisor (systemd, a CI runner) that already timestamps stdout; call
// SetDateTime(true) to re-enable it (the CLI has no flag for this). Uses the systemd numeric-prefix convention:
// https://www.freedesktop.org/software/systemd/man/sd-daemon.html
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
)

var (
	DebugPrefix = "<7>[DEBUG]  "
	InfoPrefix  = "<6>[INFO]   "
	WarnPrefix  = "<4>[WARNING]"
	ErrPrefix   = "<3>[ERROR]  "
)

var (
	DebugLog *log.Logger = log.New(DebugWriter, DebugPrefix+" ", 0)
	InfoLog  *log.Logger = log.New(InfoWriter, InfoPrefix+" ", 0)
	WarnLog  *log.Logger = log.New(WarnWriter, WarnPrefix+" ", log.Lshortfile)
	ErrLog   *log.Logger = log.New(ErrWriter, ErrPrefix+" ", log.Llongfile)

	DebugTimeLog *log.Logger = log.New(DebugWriter, DebugPrefix+" ", log.LstdFlags)
	InfoTimeLog  *log.Logger = log.New(InfoWriter, InfoPrefix+" ", log.LstdFlags)
	WarnTimeLog  *log.Logger = log.New(WarnWriter, WarnPrefix+" ", log.LstdFlags|log.Lshortfile)
	ErrTimeLog   *log.Logger = log.New(ErrWriter, ErrPrefix+" ", log.LstdFlags|log.Llongfile)
)

// SetLevel discards writers below lvl ("debug", "info", "warn", "err").
// Unknown values fall back to "info".
func SetLevel(lvl string) {
	switch lvl {
	case "err", "error":
		WarnWriter = io.Discard
		fallthrough
	case "warn", "warning":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
		// nothing discarded
	default:
		fmt.Fprintf(os.Stderr, "log: unknown level %q, defaulting to info\n", lvl)
		SetLevel("info")
	}
}

// SetDateTime toggles a standard timestamp prefix on every line.
func SetDateTime(on bool) {
	logDateTime = on
}

func Debug(v ...any) { emit(DebugWriter, DebugLog, DebugTimeLog, fmt.Sprint(v...)) }
func Info(v ...any)  { emit(InfoWriter, InfoLog, InfoTimeLog, fmt.Sprint(v...)) }
func Warn(v ...any)  { emit(WarnWriter, WarnLog, WarnTimeLog, fmt.Sprint(v...)) }
func Error(v ...any) { emit(ErrWriter, ErrLog, ErrTimeLog, fmt.Sprint(v...)) }

func Debugf(format string, v ...any) { emit(DebugWriter, DebugLog, DebugTimeLog, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { emit(InfoWriter, InfoLog, InfoTimeLog, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { emit(WarnWriter, WarnLog, WarnTimeLog, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { emit(ErrWriter, ErrLog, ErrTimeLog, fmt.Sprintf(format, v...)) }

// Fatalf logs at error level and terminates the process. Reserved for
// configuration/connect failures per the harness's exit-code contract.
func Fatalf(format string, v ...any) {
	Errorf(format, v...)
	os.Exit(1)
}

func emit(w io.Writer, plain, timed *log.Logger, out string) {
	if w == io.Discard {
		return
	}
	if logDateTime {
		timed.Output(3, out)
	} else {
		plain.Output(3, out)
	}
}
