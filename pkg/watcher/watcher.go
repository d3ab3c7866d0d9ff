// Package watcher propagates policy change notifications between
// instances. A Watcher carries opaque payloads; the Reloader turns them
// into store reloads that atomically swap a live list's entries.
package watcher

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/guard/pkg/pool"
	"github.com/kart-io/guard/pkg/utils/json"
)

// Watcher delivers change payloads across instances. Subscribe registers
// the callback invoked for payloads published by other instances; Publish
// announces a change to everyone else.
type Watcher interface {
	Subscribe(cb func(payload string)) error
	Publish(ctx context.Context, payload string) error
	Close() error
}

// message is the wire envelope. The instance field lets subscribers skip
// their own announcements. Payloads that do not parse as an envelope are
// delivered as-is, so plain publishers interoperate.
type message struct {
	Instance string `json:"instance"`
	Payload  string `json:"payload"`
}

func encodeMessage(instance, payload string) string {
	data, err := json.Marshal(message{Instance: instance, Payload: payload})
	if err != nil {
		return payload
	}
	return string(data)
}

// decodeMessage unpacks an envelope. Non-envelope payloads come back
// unchanged with an empty instance.
func decodeMessage(raw string) (instance, payload string) {
	var m message
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m.Instance == "" {
		return "", raw
	}
	return m.Instance, m.Payload
}

// dispatch runs the callback on the pool, falling back to a plain
// goroutine when the pool is unavailable. The subscription loop never
// blocks on a slow callback.
func dispatch(p *pool.Pool, cb func(string), payload string) {
	if cb == nil {
		return
	}

	task := func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("Recovered from panic in watcher callback",
					"panic", r,
					"payload", payload,
				)
			}
		}()
		cb(payload)
	}

	if p != nil {
		err := p.Submit(task)
		if err == nil {
			return
		}
		logger.Warnw("Failed to submit watcher callback to pool, falling back to goroutine",
			"error", err.Error(),
		)
	}
	go task()
}
