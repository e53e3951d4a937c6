package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	service = "skillportal-cli"
)

// ErrNotLoggedIn is returned when no cookies are stored for a server
var ErrNotLoggedIn = errors.New("not authenticated. Please run 'portal login' first")

// getKeyringKey returns a unique key for storing session cookies per server
func getKeyringKey(serverURL string) string {
	return fmt.Sprintf("cookies-%s", serverURL)
}

// storedCookie is the subset of http.Cookie worth carrying across runs
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// SaveCookies persists the session cookies securely in the OS keychain/credential manager
func SaveCookies(serverURL string, cookies []*http.Cookie) error {
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if err := keyring.Set(service, getKeyringKey(serverURL), string(data)); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	return nil
}

// LoadCookies retrieves the session cookies from the OS keychain/credential manager.
// Cookies whose expiry has passed are dropped.
func LoadCookies(serverURL string) ([]*http.Cookie, error) {
	data, err := keyring.Get(service, getKeyringKey(serverURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cookies: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		if !s.Expires.IsZero() && s.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     s.Name,
			Value:    s.Value,
			Path:     s.Path,
			Domain:   s.Domain,
			Expires:  s.Expires,
			Secure:   s.Secure,
			HttpOnly: s.HttpOnly,
		})
	}
	if len(cookies) == 0 {
		return nil, ErrNotLoggedIn
	}
	return cookies, nil
}

// DeleteCookies removes the session cookies from the OS keychain/credential manager
func DeleteCookies(serverURL string) error {
	if err := keyring.Delete(service, getKeyringKey(serverURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete cookies: %w", err)
	}
	return nil
}
