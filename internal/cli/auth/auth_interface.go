package auth

import "net/http"

// CookieStore defines the interface for cookie storage operations
// This allows us to mock the keyring in tests
type CookieStore interface {
	SaveCookies(serverURL string, cookies []*http.Cookie) error
	LoadCookies(serverURL string) ([]*http.Cookie, error)
	DeleteCookies(serverURL string) error
}

// defaultCookieStore implements CookieStore using the OS keyring
type defaultCookieStore struct{}

var Default CookieStore = &defaultCookieStore{}

func (d *defaultCookieStore) SaveCookies(serverURL string, cookies []*http.Cookie) error {
	return SaveCookies(serverURL, cookies)
}

func (d *defaultCookieStore) LoadCookies(serverURL string) ([]*http.Cookie, error) {
	return LoadCookies(serverURL)
}

func (d *defaultCookieStore) DeleteCookies(serverURL string) error {
	return DeleteCookies(serverURL)
}
