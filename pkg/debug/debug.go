// Package debug holds zerolog hooks shared by the console and the editor
// log forwarder.
package debug

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.0000Z"

// skipFrames reads the event's unexported skipFrame counter so the caller
// hook honours CallerSkipFrame.
func skipFrames(e *zerolog.Event) int {
	field := reflect.ValueOf(e).Elem().FieldByName("skipFrame")
	if field.IsValid() {
		return int(field.Int())
	}
	return 0
}

// TimeHook stamps each record with a millisecond precision time.
type TimeHook struct {
	Format string
}

func (h TimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := h.Format
	if format == "" {
		format = timeFormat
	}
	e.Str("time", time.Now().Format(format))
}

// CallerHook adds a short "pkg:file.go:line" caller field.
type CallerHook struct {
	WithColor bool
}

func (h CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(skipFrames(e) + 3)
	if !ok {
		return
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}

	pkg, _ := SplitFuncName(fn.Name())
	e.Str("caller", FormatCaller(pkg, file, line, h.WithColor))
}

// SplitFuncName splits a runtime function name into its package path and
// the function or method name.
func SplitFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}

	dot := strings.IndexByte(name[lastSlash:], '.')
	if dot < 0 {
		return name, ""
	}
	dot += lastSlash

	pkg, function = name[:dot], name[dot+1:]

	if before, after, found := strings.Cut(pkg, ".("); found {
		pkg = before
		function = "(" + after + "." + function
	}

	return pkg, function
}

func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := path[strings.LastIndexByte(path, '/')+1:]
	pkg = pkg[strings.LastIndexByte(pkg, '/')+1:]

	if colorize {
		sep := color.New(color.Faint).Sprint(":")
		return fmt.Sprintf("%s%s%s%s%s", pkg, sep,
			color.New(color.Bold).Sprint(file), sep,
			color.New(color.FgHiRed, color.Bold).Sprintf("%d", line))
	}

	return fmt.Sprintf("%s:%s:%d", pkg, file, line)
}
