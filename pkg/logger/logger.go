package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Component-tagged leveled logger. Every line carries the subsystem
// name so gateway, resolver, and channel output can be filtered apart.

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var levelNames = map[level]string{
	levelDebug: "DEBUG",
	levelInfo:  "INFO",
	levelWarn:  "WARN",
	levelError: "ERROR",
}

var (
	mu    sync.Mutex
	out   = os.Stderr
	debug bool
)

// SetDebug enables debug-level output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = enabled
}

func emit(lvl level, component, msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()

	if lvl == levelDebug && !debug {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05.000Z07:00"))
	b.WriteString(" [")
	b.WriteString(levelNames[lvl])
	b.WriteString("] [")
	b.WriteString(component)
	b.WriteString("] ")
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}

	fmt.Fprintln(out, b.String())
}

func DebugC(component, msg string)                    { emit(levelDebug, component, msg, nil) }
func DebugCF(component, msg string, f map[string]any) { emit(levelDebug, component, msg, f) }
func InfoC(component, msg string)                     { emit(levelInfo, component, msg, nil) }
func InfoCF(component, msg string, f map[string]any)  { emit(levelInfo, component, msg, f) }
func WarnC(component, msg string)                     { emit(levelWarn, component, msg, nil) }
func WarnCF(component, msg string, f map[string]any)  { emit(levelWarn, component, msg, f) }
func ErrorC(component, msg string)                    { emit(levelError, component, msg, nil) }
func ErrorCF(component, msg string, f map[string]any) { emit(levelError, component, msg, f) }
