package shell

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/skillportal/skillportal/internal/cli/client"
	"github.com/skillportal/skillportal/internal/session"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter answers prompts from a fixed script. Each answer must
// match the kind of prompt asked; running out of answers quits.
type scriptedPrompter struct {
	t       *testing.T
	answers  []any
	labels   []string
	defaults map[string]string
}

type password string

func script(t *testing.T, answers ...any) *scriptedPrompter {
	return &scriptedPrompter{t: t, answers: answers}
}

func (p *scriptedPrompter) next(label string) (any, bool) {
	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return nil, false
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, true
}

func (p *scriptedPrompter) Input(label, def string) (string, error) {
	if p.defaults == nil {
		p.defaults = make(map[string]string)
	}
	p.defaults[label] = def
	a, ok := p.next(label)
	if !ok {
		return "", ErrQuit
	}
	s, ok := a.(string)
	require.Truef(p.t, ok, "prompt %q wants a string, script has %T", label, a)
	return s, nil
}

func (p *scriptedPrompter) Password(label string) (string, error) {
	a, ok := p.next(label)
	if !ok {
		return "", ErrQuit
	}
	s, ok := a.(password)
	require.Truef(p.t, ok, "prompt %q wants a password, script has %T", label, a)
	return string(s), nil
}

func (p *scriptedPrompter) Select(label string, items []string) (int, error) {
	a, ok := p.next(label)
	if !ok {
		return -1, ErrQuit
	}
	switch v := a.(type) {
	case int:
		require.Lessf(p.t, v, len(items), "prompt %q has %d items", label, len(items))
		return v, nil
	case choice:
		for i, item := range items {
			if item == string(v) {
				return i, nil
			}
		}
		p.t.Fatalf("prompt %q has no item %q (items: %v)", label, v, items)
	default:
		p.t.Fatalf("prompt %q wants a selection, script has %T", label, a)
	}
	return -1, nil
}

func (p *scriptedPrompter) Confirm(label string) (bool, error) {
	a, ok := p.next(label)
	if !ok {
		return false, ErrQuit
	}
	b, ok := a.(bool)
	require.Truef(p.t, ok, "prompt %q wants a confirmation, script has %T", label, a)
	return b, nil
}

// choice selects an item by its label
type choice string

type memoryCookies struct {
	mu      sync.Mutex
	saved   map[string][]*http.Cookie
	deletes int
}

func newMemoryCookies() *memoryCookies {
	return &memoryCookies{saved: map[string][]*http.Cookie{}}
}

func (m *memoryCookies) SaveCookies(serverURL string, cookies []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[serverURL] = cookies
	return nil
}

func (m *memoryCookies) LoadCookies(serverURL string) ([]*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.saved[serverURL]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return c, nil
}

func (m *memoryCookies) DeleteCookies(serverURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, serverURL)
	m.deletes++
	return nil
}

// fakeAPI is a small in-memory portal API
type fakeAPI struct {
	mu sync.Mutex

	role        string
	loginUser   map[string]any
	loginStatus int
	logoutFails bool

	skills    []map[string]any
	attempts  []map[string]any
	questions []map[string]any
	quizFails bool
	score     int

	probes    int
	logouts   int
	submitted []client.SubmitRequest
	deleted   []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/user/auth/session", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.probes++
		if _, err := r.Cookie("portal_session"); err != nil || f.role == "" {
			writeJSON(w, http.StatusOK, map[string]any{"user": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 1, "email": "ana@example.com", "role": f.role}})
	})

	login := func(role string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.loginStatus != 0 {
				writeJSON(w, f.loginStatus, map[string]any{"message": "Invalid credentials"})
				return
			}
			user := f.loginUser
			if user == nil {
				user = map[string]any{"id": 1, "name": "Ana"}
			}
			if confirmed, ok := user["role"].(string); ok {
				role = confirmed
			}
			f.role = role
			http.SetCookie(w, &http.Cookie{Name: "portal_session", Value: "token", Path: "/", HttpOnly: true})
			writeJSON(w, http.StatusOK, map[string]any{"user": user})
		}
	}
	mux.HandleFunc("POST /api/user/auth/login", login("user"))
	mux.HandleFunc("POST /api/admin/auth/login", login("admin"))

	mux.HandleFunc("POST /api/user/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"message": "ok"})
	})

	mux.HandleFunc("POST /api/user/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.logouts++
		if f.logoutFails {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
			return
		}
		f.role = ""
		writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
	})

	mux.HandleFunc("GET /api/user/dashboard/skills", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"skills": f.skills})
	})
	mux.HandleFunc("GET /api/user/dashboard/history", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"attempts": f.attempts})
	})

	mux.HandleFunc("GET /api/user/quiz/questions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.quizFails {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "db down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": f.questions})
	})
	mux.HandleFunc("POST /api/user/quiz/submit", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var req client.SubmitRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.submitted = append(f.submitted, req)
		writeJSON(w, http.StatusOK, map[string]any{"score": f.score, "total": len(req.Answers)})
	})

	mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"users": []map[string]any{
			{"id": 5, "name": "Bo", "email": "bo@example.com", "role": "user"},
		}})
	})
	mux.HandleFunc("DELETE /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deleted = append(f.deleted, r.PathValue("id"))
		writeJSON(w, http.StatusOK, map[string]any{"message": "deleted"})
	})
	mux.HandleFunc("GET /api/admin/reports/skill-gap", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"skills": []map[string]any{
			{"skill": "Go", "avg_score": 4},
			{"skill": "SQL", "avg_score": 2},
		}})
	})

	return mux
}

func (f *fakeAPI) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

func (f *fakeAPI) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

func (f *fakeAPI) submissions() []client.SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.SubmitRequest(nil), f.submitted...)
}

func (f *fakeAPI) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	shell   *Shell
	api     *fakeAPI
	store   *session.Store
	cookies *memoryCookies
	out     *bytes.Buffer
}

func newHarness(t *testing.T, api *fakeAPI, prompt Prompter, opts ...Option) *harness {
	t.Helper()

	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	apiClient, err := client.New(server.URL)
	require.NoError(t, err)

	resolver := session.NewHTTPResolver(server.URL, apiClient.HTTPClient())
	store := session.NewStore(resolver)
	guard := session.NewGuard(resolver)
	cookies := newMemoryCookies()
	out := &bytes.Buffer{}

	opts = append([]Option{
		WithPrompter(prompt),
		WithOutput(out),
		WithCookieStore(cookies),
	}, opts...)
	sh := New(apiClient, store, guard, opts...)
	return &harness{shell: sh, api: api, store: store, cookies: cookies, out: out}
}

// loginAs puts both the server and the client into a logged-in state
func (h *harness) loginAs(t *testing.T, role session.Role) {
	t.Helper()
	_, err := h.shell.api.Login(t.Context(), role, "ana@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, h.store.SetAuthenticated(session.User{ID: "1", Email: "ana@example.com", Role: role}))
}
