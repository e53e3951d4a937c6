package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"
)

// cookieJar is a cookiejar.Jar that also remembers the attributes the
// stdlib jar drops when it hands cookies back, so saved cookies keep their
// expiry.
type cookieJar struct {
	*cookiejar.Jar
	now func() time.Time

	mu    sync.Mutex
	attrs map[string]cookieAttrs
}

type cookieAttrs struct {
	expires  time.Time
	secure   bool
	httpOnly bool
}

func newCookieJar(now func() time.Time) (*cookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &cookieJar{Jar: jar, now: now, attrs: make(map[string]cookieAttrs)}, nil
}

// SetCookies stores cookies in the underlying jar and records their expiry.
// Max-Age wins over Expires, as in the jar itself.
func (j *cookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		a := cookieAttrs{secure: c.Secure, httpOnly: c.HttpOnly}
		switch {
		case c.MaxAge < 0:
			delete(j.attrs, c.Name)
			continue
		case c.MaxAge > 0:
			a.expires = j.now().Add(time.Duration(c.MaxAge) * time.Second)
		default:
			a.expires = c.Expires
		}
		j.attrs[c.Name] = a
	}
}

// annotate fills in the attributes recorded for each cookie.
func (j *cookieJar) annotate(cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		a, ok := j.attrs[c.Name]
		if !ok {
			continue
		}
		c.Path = "/"
		c.Expires = a.expires
		c.Secure = a.secure
		c.HttpOnly = a.httpOnly
	}
}
