package notfound

import (
	"context"
	"fmt"
	"sync"

	"github.com/pandeptwidyaop/simple404/internal/options"
	"github.com/pandeptwidyaop/simple404/pkg/logger"
)

// Recorder writes the latest hit per URL into a single option.
//
// Each event is one read of the whole log and one whole-value write.
// Without WithSerializedWrites, concurrent events race and the last writer
// wins; an update from a concurrent event may be lost.
type Recorder struct {
	store              options.Store
	option             string
	trustForwardedHost bool
	mu                 *sync.Mutex
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithTrustForwardedHost makes X-Forwarded-Host take precedence over Host.
func WithTrustForwardedHost(trust bool) RecorderOption {
	return func(r *Recorder) {
		r.trustForwardedHost = trust
	}
}

// WithSerializedWrites serializes read-modify-write cycles within this
// process. Writers in other processes are not covered.
func WithSerializedWrites() RecorderOption {
	return func(r *Recorder) {
		r.mu = &sync.Mutex{}
	}
}

// NewRecorder returns a Recorder writing to the option called name.
func NewRecorder(store options.Store, name string, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, option: name}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stores meta as the latest hit for its canonical URL. Events with
// an invalid client address are dropped without touching the store.
func (r *Recorder) Record(ctx context.Context, meta Meta) error {
	url := CanonicalURL(meta, r.trustForwardedHost)

	if !ValidClientAddress(meta.ClientAddress) {
		return nil
	}
	ts := absint(meta.RequestTime)

	if r.mu != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
	}

	log, err := LoadLog(ctx, r.store, r.option)
	if err != nil {
		return err
	}
	log.Set(url, Entry{ClientAddress: meta.ClientAddress, LastSeen: &ts})

	return SaveLog(ctx, r.store, r.option, log)
}

// NotFound implements Hook. Failures are logged and never reach the caller.
func (r *Recorder) NotFound(ctx context.Context, meta Meta) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorEvent().
				Str("uri", meta.RequestURI).
				Str("panic", fmt.Sprint(rec)).
				Msg("404 recorder panicked")
		}
	}()

	if err := r.Record(ctx, meta); err != nil {
		logger.WarnEvent().
			Err(err).
			Str("uri", meta.RequestURI).
			Str("client", meta.ClientAddress).
			Msg("Failed to record 404")
	}
}
