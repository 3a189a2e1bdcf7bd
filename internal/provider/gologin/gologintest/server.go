// Package gologintest is an in-memory GoLogin API for tests and local runs.
package gologintest

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"profile_sync/internal/model"
)

// Op names one API operation for fault injection and call counting.
type Op string

const (
	OpList       Op = "list"
	OpGet        Op = "get"
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpSetCookies Op = "set_cookies"
	OpGetCookies Op = "get_cookies"
)

type Profile struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Notes   string         `json:"notes,omitempty"`
	Proxy   *model.Proxy   `json:"proxy,omitempty"`
	Spec    map[string]any `json:"-"`
	Cookies []model.Cookie `json:"-"`
}

type Server struct {
	token string
	mux   *http.ServeMux

	mu       sync.Mutex
	order    []string
	profiles map[string]*Profile
	failures map[Op]int
	calls    map[Op]int
}

// NewServer returns a fake that requires "Bearer token" when token is set.
func NewServer(token string) *Server {
	s := &Server{
		token:    token,
		mux:      http.NewServeMux(),
		profiles: make(map[string]*Profile),
		failures: make(map[Op]int),
		calls:    make(map[Op]int),
	}
	s.mux.HandleFunc("GET /browser/v2", s.handle(OpList, s.list))
	s.mux.HandleFunc("GET /browser/custom/{id}", s.handle(OpGet, s.get))
	s.mux.HandleFunc("POST /browser", s.handle(OpCreate, s.create))
	s.mux.HandleFunc("PUT /browser/{id}", s.handle(OpUpdate, s.update))
	s.mux.HandleFunc("DELETE /browser/custom/{id}", s.handle(OpDelete, s.delete))
	s.mux.HandleFunc("POST /browser/{id}/cookies", s.handle(OpSetCookies, s.setCookies))
	s.mux.HandleFunc("GET /browser/custom/{id}/cookies", s.handle(OpGetCookies, s.getCookies))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Fail makes every following call of op answer with status until Reset.
func (s *Server) Fail(op Op, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = status
}

// Reset clears injected failures and call counters. Profiles are kept.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[Op]int)
	s.calls = make(map[Op]int)
}

func (s *Server) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Mutations counts calls that could change remote state.
func (s *Server) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[OpCreate] + s.calls[OpUpdate] + s.calls[OpDelete] + s.calls[OpSetCookies]
}

// Seed adds a profile directly and returns its id.
func (s *Server) Seed(name string, proxy *model.Proxy) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(&Profile{Name: name, Proxy: proxy})
}

// Profile returns a copy of the stored profile.
func (s *Server) Profile(id string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, false
	}
	cp := *p
	cp.Cookies = append([]model.Cookie(nil), p.Cookies...)
	return cp, true
}

func (s *Server) Profiles() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.profiles[id])
	}
	return out
}

func (s *Server) insert(p *Profile) string {
	p.ID = strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	s.profiles[p.ID] = p
	s.order = append(s.order, p.ID)
	return p.ID
}

func (s *Server) handle(op Op, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		s.mu.Lock()
		s.calls[op]++
		status := s.failures[op]
		s.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]any{"message": "injected failure", "op": op})
			return
		}
		next(w, r)
	}
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"profiles": s.Profiles(), "allProfilesCount": len(s.order)})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Profile, bool) {
	p, ok := s.profiles[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Profile not found"})
	}
	return p, ok
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var spec map[string]any
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	for _, field := range []string{"browserType", "os", "navigator"} {
		if _, ok := spec[field]; !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": field + " is required"})
			return
		}
	}
	p := &Profile{Spec: spec}
	p.Name, _ = spec["name"].(string)
	p.Notes, _ = spec["notes"].(string)
	if raw, ok := spec["proxy"]; ok {
		p.Proxy = decodeProxy(raw)
	}

	s.mu.Lock()
	id := s.insert(p)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": p.Name})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		Name  *string      `json:"name"`
		Notes *string      `json:"notes"`
		Proxy *model.Proxy `json:"proxy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	if patch.Proxy != nil {
		p.Proxy = patch.Proxy
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	delete(s.profiles, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setCookies(w http.ResponseWriter, r *http.Request) {
	var cookies []model.Cookie
	if err := json.NewDecoder(r.Body).Decode(&cookies); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	p.Cookies = cookies
	writeJSON(w, http.StatusOK, map[string]any{"count": len(cookies)})
}

func (s *Server) getCookies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	out := p.Cookies
	if out == nil {
		out = []model.Cookie{}
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeProxy(raw any) *model.Proxy {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var p model.Proxy
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	return &p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
