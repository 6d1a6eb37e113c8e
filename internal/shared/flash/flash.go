// Package flash carries one-shot messages to the next rendered page.
package flash

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/andrasnagy-data/gatehouse/internal/shared/config"
	"github.com/andrasnagy-data/gatehouse/internal/shared/cookie"
)

const cookieName = "flash"

type (
	Category string

	Message struct {
		Category Category `json:"c"`
		Text     string   `json:"t"`
	}

	// Store keeps pending messages in an encrypted session cookie.
	Store struct {
		codec *cookie.Codec
	}
)

const (
	Success Category = "success"
	Danger  Category = "danger"
	Info    Category = "info"
)

func NewStore(cfg *config.Config) (*Store, error) {
	secret, err := cfg.Secret()
	if err != nil {
		return nil, err
	}
	return New(secret, cfg.CookieSecure)
}

func New(secret []byte, secure bool) (*Store, error) {
	codec, err := cookie.NewCodec(secret, cookie.Options{Secure: secure})
	if err != nil {
		return nil, err
	}
	return &Store{codec: codec}, nil
}

// Add queues msgs for the next page, keeping any still pending on r.
// A message already pending is not queued twice.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, msgs ...Message) error {
	pending := s.peek(r)
	for _, m := range msgs {
		if !slices.Contains(pending, m) {
			pending = append(pending, m)
		}
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return s.codec.Write(w, cookieName, string(raw))
}

// Pop returns pending messages and clears them.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	msgs := s.peek(r)
	if _, err := r.Cookie(cookieName); err == nil {
		s.codec.Clear(w, cookieName)
	}
	return msgs
}

func (s *Store) peek(r *http.Request) []Message {
	raw, err := s.codec.Read(r, cookieName)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil
	}
	return msgs
}
