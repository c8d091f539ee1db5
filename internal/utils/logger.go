package utils

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

type LogLevel int

const (
	Info LogLevel = iota
	Warning
	Error
	Success
	Debug
)

var (
	infoColor    = color.New(color.FgBlue)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	debugColor   = color.New(color.FgHiBlack)
)

// Thread-safe output
var (
	mu      sync.Mutex
	out     io.Writer = color.Error
	silent  bool
	verbose bool
)

// SetOutput redirects diagnostics. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetSilent drops everything except errors and successes.
func SetSilent(v bool) {
	mu.Lock()
	defer mu.Unlock()
	silent = v
}

func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

func PrintBanner() {
	banner := `
 __   __   _    _ ___
 \ \ / /__(_)__| | __|_ _ _  _ _ __
  \ V / _ \ / _' | _|| ' \ || | '  \
   \_/\___/_\__,_|___|_||_\_,_|_|_|_|
                              v1.0.0
`
	mu.Lock()
	defer mu.Unlock()
	color.New(color.FgMagenta).Fprint(out, banner)
	color.New(color.FgHiBlack).Fprintln(out, "    :: Passive Subdomain Discovery :: VoidEnum")
	fmt.Fprintln(out, "")
}

func Log(level LogLevel, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if silent && (level == Info || level == Warning || level == Debug) {
		return
	}
	if level == Debug && !verbose {
		return
	}

	msg := fmt.Sprintf(format, args...)
	switch level {
	case Info:
		fmt.Fprintf(out, "%s %s\n", infoColor.Sprint("[INF]"), msg)
	case Warning:
		fmt.Fprintf(out, "%s %s\n", warningColor.Sprint("[WRN]"), msg)
	case Error:
		fmt.Fprintf(out, "%s %s\n", errorColor.Sprint("[ERR]"), msg)
	case Success:
		fmt.Fprintf(out, "%s %s\n", successColor.Sprint("[+]"), msg)
	case Debug:
		fmt.Fprintf(out, "%s %s\n", debugColor.Sprint("[DBG]"), msg)
	}
}
