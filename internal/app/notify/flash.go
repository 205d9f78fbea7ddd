package notify

import (
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Flash is a message popped from the session.
type Flash struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Flasher stores one-shot messages for the acting user in the cookie session.
type Flasher struct {
	store sessions.Store
	name  string
	log   *zap.Logger
}

// NewFlasher uses the session named name in store.
func NewFlasher(store sessions.Store, name string, log *zap.Logger) *Flasher {
	return &Flasher{store: store, name: name, log: log}
}

// Add queues the message for k. Session failures are logged; a lost flash
// never fails the request.
func (f *Flasher) Add(w http.ResponseWriter, r *http.Request, k Kind, args ...any) {
	sess, err := f.store.Get(r, f.name)
	if err != nil && sess == nil {
		f.log.Warn("flash: session unavailable", zap.Error(err))
		return
	}
	sess.AddFlash(Message(k, args...), string(LevelOf(k)))
	if err := sess.Save(r, w); err != nil {
		f.log.Warn("flash: save failed", zap.Error(err))
	}
}

// Pop returns and clears the queued messages, errors first.
func (f *Flasher) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	sess, err := f.store.Get(r, f.name)
	if err != nil && sess == nil {
		f.log.Warn("flash: session unavailable", zap.Error(err))
		return nil
	}
	var out []Flash
	for _, lvl := range []Level{Error, Info, Success} {
		for _, v := range sess.Flashes(string(lvl)) {
			if s, ok := v.(string); ok {
				out = append(out, Flash{Level: lvl, Text: s})
			}
		}
	}
	if len(out) > 0 {
		if err := sess.Save(r, w); err != nil {
			f.log.Warn("flash: save failed", zap.Error(err))
		}
	}
	return out
}
