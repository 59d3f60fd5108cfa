package logging

import (
	"fmt"
	"maps"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultLogger writes leveled, timestamped lines to stderr.
type DefaultLogger struct {
	mu     sync.Mutex
	level  Level
	preset Fields
}

// NewDefaultLogger creates a stderr logger at InfoLevel.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{level: InfoLevel}
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields []Fields) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if level < d.level {
		return
	}

	merged := make(Fields, len(d.preset))
	maps.Copy(merged, d.preset)
	for _, f := range fields {
		maps.Copy(merged, f)
	}
	if err != nil {
		merged["error"] = err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", time.Now().Format(time.RFC3339), level, msg)
	if len(merged) > 0 {
		keys := make([]string, 0, len(merged))
		for k := range merged {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, merged[k])
		}
	}
	fmt.Fprintln(os.Stderr, b.String())
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	d.mu.Lock()
	defer d.mu.Unlock()
	merged := make(Fields, len(d.preset)+len(fields))
	maps.Copy(merged, d.preset)
	maps.Copy(merged, fields)
	return &DefaultLogger{level: d.level, preset: merged}
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level = level
}
