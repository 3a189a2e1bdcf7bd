package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"profile_sync/internal/accounts"
	"profile_sync/internal/config"
	"profile_sync/internal/export"
	"profile_sync/internal/logbus"
	"profile_sync/internal/model"
	"profile_sync/internal/provider"
	"profile_sync/internal/provider/gologin"
	"profile_sync/internal/ws"
)

// Accounts reads account data and writes profile ids back.
type Accounts interface {
	FetchUserData(ctx context.Context, network model.Network, usernames []string) (map[string]model.AccountResult, error)
	WriteBack(ctx context.Context, network model.Network, username, profileID string) error
}

// Runner provisions a batch of usernames.
type Runner interface {
	Run(ctx context.Context, network model.Network, usernames []string, force bool) (model.BatchSummary, error)
}

type Options struct {
	Cfg      config.Config
	Bus      *logbus.Bus
	Accounts Accounts
	Runner   Runner
	API      provider.ProfileAPI
	// Exporter is optional; when set, fetch requests may ask for export files.
	Exporter *export.Writer
}

type Server struct {
	cfg      config.Config
	bus      *logbus.Bus
	accounts Accounts
	runner   Runner
	api      provider.ProfileAPI
	exporter *export.Writer
	ws       *ws.Handler
}

func New(opts Options) *Server {
	return &Server{
		cfg:      opts.Cfg,
		bus:      opts.Bus,
		accounts: opts.Accounts,
		runner:   opts.Runner,
		api:      opts.API,
		exporter: opts.Exporter,
		ws:       ws.NewHandler(opts.Bus, opts.Cfg.Server.Cors.AllowOrigins),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/ws", s.ws)

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/fetch", s.handleFetch)
	api.HandleFunc("/api/v1/provision", s.handleProvision)
	api.HandleFunc("/api/v1/writeback", s.handleWriteBack)
	api.HandleFunc("/api/v1/profiles", s.handleProfiles)
	api.HandleFunc("/api/v1/profiles/cookies", s.handleProfileCookies)

	mux.Handle("/api/", corsMiddleware(s.cfg.Server.Cors, api))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type batchPayload struct {
	Network   string   `json:"network"`
	Usernames []string `json:"usernames"`
	Force     bool     `json:"force,omitempty"`
	Export    bool     `json:"export,omitempty"`
}

func (p batchPayload) parse() (model.Network, []string, error) {
	network, err := model.ParseNetwork(p.Network)
	if err != nil {
		return "", nil, err
	}
	usernames := accounts.Usernames(p.Usernames)
	if len(usernames) == 0 {
		return "", nil, errors.New("usernames is required")
	}
	return network, usernames, nil
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	var body batchPayload
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	network, usernames, err := body.parse()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	results, err := s.accounts.FetchUserData(r.Context(), network, usernames)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{"data": results, "summary": accounts.Summarize(results)}
	if body.Export {
		if s.exporter == nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "export is not configured"})
			return
		}
		paths, err := s.exporter.WriteAll(network, results)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		resp["files"] = paths
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	var body batchPayload
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	network, usernames, err := body.parse()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	summary, err := s.runner.Run(r.Context(), network, usernames, body.Force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": summary, "counts": summary.Counts()})
}

func (s *Server) handleWriteBack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	var body struct {
		Network   string `json:"network"`
		Username  string `json:"username"`
		ProfileID string `json:"profileId"`
	}
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	network, err := model.ParseNetwork(body.Network)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	username := strings.TrimSpace(body.Username)
	profileID := strings.TrimSpace(body.ProfileID)
	if username == "" || profileID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "username and profileId are required"})
		return
	}

	if err := s.accounts.WriteBack(r.Context(), network, username, profileID); err != nil {
		writeError(w, err)
		return
	}
	if s.bus != nil {
		s.bus.Log("info", "profile id written back", map[string]any{"network": string(network), "username": username, "profileId": profileID})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	switch r.Method {
	case http.MethodGet:
		if id != "" {
			p, err := s.api.GetProfile(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": p})
			return
		}
		profiles, err := s.api.ListProfiles(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": profiles})
	case http.MethodDelete:
		if id == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "id is required"})
			return
		}
		if err := s.api.DeleteProfile(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		if s.bus != nil {
			s.bus.Log("info", "profile deleted", map[string]any{"profileId": id})
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func (s *Server) handleProfileCookies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "id is required"})
		return
	}
	cookies, err := s.api.GetCookies(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": cookies, "count": len(cookies)})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var apiErr *gologin.APIError
	switch {
	case errors.Is(err, model.ErrUnsupportedNetwork):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusNotFound {
			status = http.StatusNotFound
		} else {
			status = http.StatusBadGateway
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
