package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// Browsers reject cookies larger than 4096 bytes.
const maxCookieSize = 4096

var (
	ErrValueTooLong = errors.New("cookie value too long")
	ErrInvalidValue = errors.New("invalid cookie value")
)

// Options control the attributes of written cookies.
type Options struct {
	Secure bool
	MaxAge time.Duration
}

// Codec encrypts and authenticates cookie values with AES-GCM.
type Codec struct {
	aead cipher.AEAD
	opts Options
}

// NewCodec builds a codec from a 16, 24 or 32 byte AES key.
func NewCodec(secret []byte, opts Options) (*Codec, error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead, opts: opts}, nil
}

// Encode seals "{name}:{value}" so a value cannot be replayed under another
// cookie name. The output is base64("{nonce}{ciphertext}").
func (c *Codec) Encode(name, value string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// ':' cannot appear in a cookie name
	plaintext := name + ":" + value
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	encoded := base64.URLEncoding.EncodeToString(sealed)
	if len(name)+len(encoded)+1 > maxCookieSize {
		return "", ErrValueTooLong
	}
	return encoded, nil
}

// Decode opens a value produced by Encode and checks it was issued for name.
func (c *Codec) Decode(name, encoded string) (string, error) {
	sealed, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidValue
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", ErrInvalidValue
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidValue
	}

	actualName, value, ok := strings.Cut(string(plaintext), ":")
	if !ok || actualName != name {
		return "", ErrInvalidValue
	}
	return value, nil
}

// Read returns the decoded value of the named request cookie.
func (c *Codec) Read(r *http.Request, name string) (string, error) {
	ck, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return c.Decode(name, ck.Value)
}

// Write sets the named cookie to the encoded value.
func (c *Codec) Write(w http.ResponseWriter, name, value string) error {
	encoded, err := c.Encode(name, value)
	if err != nil {
		return err
	}

	ck := &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.opts.MaxAge > 0 {
		ck.MaxAge = int(c.opts.MaxAge.Seconds())
		ck.Expires = time.Now().Add(c.opts.MaxAge)
	}
	http.SetCookie(w, ck)
	return nil
}

// Clear instructs the client to drop the named cookie.
func (c *Codec) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
