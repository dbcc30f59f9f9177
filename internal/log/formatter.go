package log

import (
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	defaultPattern    = "%time [%level] %msg %field\n"
	defaultTimeLayout = "2006-01-02 15:04:05.000"
)

// contextKeys lead every %field rendering in this order; the remaining
// fields follow sorted by key.
var contextKeys = []string{"session", "source", "device"}

// formatter renders entries through a pattern of %time, %level, %caller,
// %msg and %field tokens.
type formatter struct {
	pattern string
	time    string
}

func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	pattern := f.pattern
	if pattern == "" {
		pattern = defaultPattern
	}
	layout := f.time
	if layout == "" {
		layout = defaultTimeLayout
	}
	r := strings.NewReplacer(
		"%time", entry.Time.Format(layout),
		"%level", entry.Level.String(),
		"%caller", caller(entry),
		"%msg", entry.Message,
		"%field", fields(entry.Data),
	)
	return []byte(r.Replace(pattern)), nil
}

// caller renders the logging call site as pkg/file.go:line.
func caller(entry *logrus.Entry) string {
	if !entry.HasCaller() {
		return "-"
	}
	fn := entry.Caller.Function
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	pkg, _, _ := strings.Cut(fn, ".")
	return fmt.Sprintf("%s/%s:%d", pkg, path.Base(entry.Caller.File), entry.Caller.Line)
}

func fields(data logrus.Fields) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if !slices.Contains(contextKeys, k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var b strings.Builder
	put := func(k string, v any) {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		s := fmt.Sprint(v)
		if strings.ContainsAny(s, " ,=\"") {
			s = strconv.Quote(s)
		}
		b.WriteString(s)
	}
	for _, k := range contextKeys {
		if v, ok := data[k]; ok {
			put(k, v)
		}
	}
	for _, k := range keys {
		put(k, data[k])
	}
	return b.String()
}
