package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestLogBuffer collects log output in tests. It is safe for concurrent
// writers, which matters for the job runner's worker pool.
type TestLogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entry is one decoded JSON log record.
type Entry struct {
	Level   string
	Message string
	Attrs   map[string]any
}

// Entries decodes every captured record. Lines that are not JSON are skipped.
func (b *TestLogBuffer) Entries() []Entry {
	var entries []Entry
	sc := bufio.NewScanner(strings.NewReader(b.String()))
	for sc.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(sc.Bytes(), &raw); err != nil {
			continue
		}
		e := Entry{Attrs: raw}
		e.Level, _ = raw[slog.LevelKey].(string)
		e.Message, _ = raw[slog.MessageKey].(string)
		entries = append(entries, e)
	}
	return entries
}

// Find returns the first entry with the given message.
func (b *TestLogBuffer) Find(message string) (Entry, bool) {
	for _, e := range b.Entries() {
		if e.Message == message {
			return e, true
		}
	}
	return Entry{}, false
}

// NewTestLogger returns a debug-level JSON logger writing into a buffer.
func NewTestLogger(t *testing.T) (*TestLogBuffer, *slog.Logger) {
	t.Helper()
	buf := &TestLogBuffer{}
	return buf, slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// AssertLogContains fails the test if the captured output does not contain content.
func AssertLogContains(t *testing.T, buf *TestLogBuffer, content string) {
	t.Helper()
	if logs := buf.String(); !strings.Contains(logs, content) {
		t.Errorf("expected logs to contain %q\nlogs:\n%s", content, logs)
	}
}
