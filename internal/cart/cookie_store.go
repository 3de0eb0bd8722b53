package cart

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dukerupert/loomworks/internal/cookie"
)

const cartMaxAge = 30 * 24 * 60 * 60

// CookieStore persists a Cart in a browser cookie.
type CookieStore struct {
	cookies *cookie.Config
	name    string
}

// NewCookieStore creates a cart adapter that writes through cfg.
func NewCookieStore(cfg *cookie.Config) *CookieStore {
	return &CookieStore{cookies: cfg, name: cookie.CartCookieName}
}

// Load reads the cart from the request. A missing or unreadable cookie
// yields an empty cart.
func (s *CookieStore) Load(r *http.Request) Cart {
	c, err := Decode(cookie.Get(r, s.name))
	if err != nil {
		return Cart{}
	}
	return c
}

// Save writes the cart to the response. An empty cart clears the cookie.
func (s *CookieStore) Save(w http.ResponseWriter, c Cart) error {
	if c.IsEmpty() {
		s.cookies.Clear(w, s.name)
		return nil
	}
	value, err := Encode(c)
	if err != nil {
		return err
	}
	s.cookies.Set(w, s.name, value, cartMaxAge)
	return nil
}

// Clear removes the cart cookie.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	s.cookies.Clear(w, s.name)
}

// Encode serializes a cart into a cookie-safe string.
func Encode(c Cart) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a value produced by Encode. The empty string is an empty cart.
func Decode(value string) (Cart, error) {
	var c Cart
	if value == "" {
		return c, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return c, fmt.Errorf("decode cart: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}
