package notfound

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pandeptwidyaop/simple404/internal/options"
	pkgerrors "github.com/pandeptwidyaop/simple404/pkg/errors"
)

// Entry is the latest hit recorded for one URL.
type Entry struct {
	ClientAddress string
	// LastSeen is nil when the stored record carries no timestamp.
	LastSeen *int64
}

// Log maps canonical URLs to their latest hit. Keys keep their first
// insertion order; updating an existing key does not move it.
type Log struct {
	urls    []string
	entries map[string]Entry
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{entries: make(map[string]Entry)}
}

// Len returns the number of URLs.
func (l *Log) Len() int {
	return len(l.urls)
}

// Get returns the entry for url.
func (l *Log) Get(url string) (Entry, bool) {
	e, ok := l.entries[url]
	return e, ok
}

// Set inserts or replaces the entry for url.
func (l *Log) Set(url string, e Entry) {
	if _, ok := l.entries[url]; !ok {
		l.urls = append(l.urls, url)
	}
	l.entries[url] = e
}

// Each calls fn for every URL in log order.
func (l *Log) Each(fn func(url string, e Entry)) {
	for _, url := range l.urls {
		fn(url, l.entries[url])
	}
}

// MarshalJSON encodes the log as {"url":["ip",timestamp],...} in log order.
func (l *Log) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, url := range l.urls {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(url)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		e := l.entries[url]
		record := []any{e.ClientAddress}
		if e.LastSeen != nil {
			record = append(record, *e.LastSeen)
		}
		value, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a stored log. A null or empty value, or an empty
// array, is an empty log. Records shorter than two fields decode with the
// missing fields unset.
func (l *Log) UnmarshalJSON(data []byte) error {
	*l = Log{entries: make(map[string]Entry)}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case json.Delim('{'):
	case json.Delim('['):
		// an empty list is what some writers store for an empty map
		if dec.More() {
			return fmt.Errorf("404 log: expected object, got non-empty array")
		}
		return nil
	default:
		return fmt.Errorf("404 log: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		url, ok := tok.(string)
		if !ok {
			return fmt.Errorf("404 log: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		l.Set(url, decodeEntry(raw))
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func decodeEntry(raw json.RawMessage) Entry {
	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Entry{}
	}

	var e Entry
	if len(fields) > 0 {
		var addr string
		if err := json.Unmarshal(fields[0], &addr); err == nil {
			e.ClientAddress = addr
		}
	}
	if len(fields) > 1 && !bytes.Equal(bytes.TrimSpace(fields[1]), []byte("null")) {
		var n json.Number
		if err := json.Unmarshal(fields[1], &n); err == nil {
			ts := absint(n.String())
			e.LastSeen = &ts
		}
	}
	return e
}

// LoadLog reads the named option. A missing option is an empty log.
func LoadLog(ctx context.Context, store options.Store, name string) (*Log, error) {
	raw, err := store.Get(ctx, name)
	if errors.Is(err, pkgerrors.ErrOptionNotFound) {
		return NewLog(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read 404 log")
	}

	log := NewLog()
	if err := log.UnmarshalJSON(raw); err != nil {
		return nil, pkgerrors.Wrap(err, "decode 404 log")
	}
	return log, nil
}

// SaveLog replaces the named option with log.
func SaveLog(ctx context.Context, store options.Store, name string, log *Log) error {
	raw, err := log.MarshalJSON()
	if err != nil {
		return pkgerrors.Wrap(err, "encode 404 log")
	}
	if err := store.Set(ctx, name, raw); err != nil {
		return pkgerrors.Wrap(err, "write 404 log")
	}
	return nil
}
