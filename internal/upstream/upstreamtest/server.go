// Package upstreamtest runs an in-process fake of the verification API for
// tests of the client, the flows and the HTTP handlers.
package upstreamtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Seeded credentials.
const (
	AgencyName     = "Acme Staffing"
	AgencyPassword = "secret1"
	AccessKey      = "verifier_seeded_key"
	OfficeName     = "Acme Staffing"
)

type agency struct {
	id       string
	name     string
	password string
	token    string
	approved bool
	code     string
}

type agent struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
	LastLoginAt *string `json:"last_login_at"`
	password    string
	agencyID    string
}

type failure struct {
	status int
	body   string
}

// Server is a fake verification API.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	agencies   map[string]*agency
	agents     []*agent
	keys       map[string]string
	invites    map[string]string
	search     any
	failures   map[string]failure
	calls      map[string]int
	lastHeader map[string]http.Header
	inviteSeq  int
}

// ApprovalCode is the code every signup is assigned.
const ApprovalCode = "482913"

// NewServer starts a fake with one approved agency and one access key.
func NewServer() *Server {
	s := &Server{
		agencies:   map[string]*agency{},
		keys:       map[string]string{AccessKey: OfficeName},
		invites:    map[string]string{},
		failures:   map[string]failure{},
		calls:      map[string]int{},
		lastHeader: map[string]http.Header{},
	}
	s.agencies[strings.ToLower(AgencyName)] = &agency{
		id:       "agency_" + uuid.NewString(),
		name:     AgencyName,
		password: AgencyPassword,
		token:    "tok_" + uuid.NewString(),
		approved: true,
	}
	s.search = map[string]any{"ok": true, "patron": nil, "applications": []any{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/verify/health", s.route(s.health))
	mux.HandleFunc("/verify/search", s.route(s.handleSearch))
	mux.HandleFunc("/agency/login", s.route(s.agencyLogin))
	mux.HandleFunc("/agent/login", s.route(s.agentLogin))
	mux.HandleFunc("/agency/onboard", s.route(s.onboard))
	mux.HandleFunc("/agency/approve", s.route(s.approve))
	mux.HandleFunc("/agency/invite", s.route(s.invite))
	mux.HandleFunc("/agency/join", s.route(s.join))
	mux.HandleFunc("/agency/agents", s.route(s.listAgents))
	mux.HandleFunc("/agency/agents/create", s.route(s.createAgent))
	mux.HandleFunc("/agency/agents/disable", s.route(s.disableAgent))
	s.Server = httptest.NewServer(mux)
	return s
}

// SetSearchResponse replaces the body returned by a successful search.
func (s *Server) SetSearchResponse(body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = body
}

// Fail makes every call to path answer with status and the raw body.
func (s *Server) Fail(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, body: body}
}

// Calls returns how many requests path received.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// LastHeader returns the headers of the latest request to path.
func (s *Server) LastHeader(path string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeader[path]
}

// AgencyToken returns the bearer token of the seeded agency.
func (s *Server) AgencyToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agencies[strings.ToLower(AgencyName)].token
}

func (s *Server) route(h func(w http.ResponseWriter, r *http.Request, body map[string]any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls[r.URL.Path]++
		s.lastHeader[r.URL.Path] = r.Header.Clone()

		if f, ok := s.failures[r.URL.Path]; ok {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}

		body := map[string]any{}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		h(w, r, body)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	if !s.validKey(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid key"}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	if !s.validKey(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid key"}})
		return
	}
	writeJSON(w, http.StatusOK, s.search)
}

func (s *Server) agencyLogin(w http.ResponseWriter, _ *http.Request, body map[string]any) {
	a := s.agencies[strings.ToLower(str(body, "agency_name"))]
	if a == nil || a.password != str(body, "agency_password") {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid agency credentials"})
		return
	}
	if !a.approved {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "agency pending approval"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "agency_id": a.id, "agency_name": a.name, "agency_token": a.token})
}

func (s *Server) agentLogin(w http.ResponseWriter, _ *http.Request, body map[string]any) {
	a := s.agencies[strings.ToLower(str(body, "agency_name"))]
	if a != nil {
		for _, ag := range s.agents {
			if ag.agencyID == a.id && ag.Username == str(body, "username") && ag.password == str(body, "password") {
				if !ag.IsActive {
					writeJSON(w, http.StatusForbidden, map[string]any{"error": map[string]any{"message": "agent disabled"}})
					return
				}
				key := "verifier_" + uuid.NewString()
				s.keys[key] = a.name
				now := time.Now().UTC().Format(time.RFC3339)
				ag.LastLoginAt = &now
				writeJSON(w, http.StatusOK, map[string]any{"ok": true, "officeName": a.name, "accessKey": key})
				return
			}
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid agent credentials"}})
}

func (s *Server) onboard(w http.ResponseWriter, _ *http.Request, body map[string]any) {
	name := str(body, "agency_name")
	if _, exists := s.agencies[strings.ToLower(name)]; exists {
		writeJSON(w, http.StatusConflict, map[string]any{"error": map[string]any{"message": "agency name already taken"}})
		return
	}
	s.agencies[strings.ToLower(name)] = &agency{
		id:       "agency_" + uuid.NewString(),
		name:     name,
		password: str(body, "agency_password"),
		token:    "tok_" + uuid.NewString(),
		code:     ApprovalCode,
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "queued for approval"})
}

func (s *Server) approve(w http.ResponseWriter, _ *http.Request, body map[string]any) {
	a := s.agencies[strings.ToLower(str(body, "agency_name"))]
	if a == nil || a.code == "" || a.code != str(body, "approval_code") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "invalid approval code"}})
		return
	}
	a.approved = true
	a.code = ""
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "approved"})
}

func (s *Server) invite(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	a := s.bearer(r)
	if a == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid token"}})
		return
	}
	s.inviteSeq++
	code := fmt.Sprintf("%08d", 31415900+s.inviteSeq)
	s.invites[code] = a.id
	expires := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": map[string]any{"invite_code": code, "expires_at": expires}})
}

func (s *Server) join(w http.ResponseWriter, _ *http.Request, body map[string]any) {
	agencyID, ok := s.invites[str(body, "invite_code")]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "invalid invite code"}})
		return
	}
	delete(s.invites, str(body, "invite_code"))
	s.addAgent(agencyID, str(body, "username"), str(body, "password"))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	a := s.bearer(r)
	if a == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid token"}})
		return
	}
	list := []*agent{}
	for _, ag := range s.agents {
		if ag.agencyID == a.id {
			list = append(list, ag)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "agents": list})
}

func (s *Server) createAgent(w http.ResponseWriter, r *http.Request, body map[string]any) {
	a := s.bearer(r)
	if a == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid token"}})
		return
	}
	username := str(body, "username")
	for _, ag := range s.agents {
		if ag.agencyID == a.id && ag.Username == username {
			writeJSON(w, http.StatusConflict, map[string]any{"error": map[string]any{"message": "username already exists"}})
			return
		}
	}

	password := str(body, "password")
	generated := ""
	if gen, _ := body["generate_password"].(bool); gen {
		generated = "pw_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		password = generated
	}
	ag := s.addAgent(a.id, username, password)

	resp := map[string]any{"ok": true, "agent": ag}
	if generated != "" {
		resp["password"] = generated
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) disableAgent(w http.ResponseWriter, r *http.Request, body map[string]any) {
	a := s.bearer(r)
	if a == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid token"}})
		return
	}
	for _, ag := range s.agents {
		if ag.agencyID == a.id && ag.ID == str(body, "agent_id") {
			ag.IsActive = false
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "agent not found"})
}

func (s *Server) addAgent(agencyID, username, password string) *agent {
	ag := &agent{
		ID:        "agent_" + uuid.NewString(),
		Username:  username,
		IsActive:  true,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		password:  password,
		agencyID:  agencyID,
	}
	s.agents = append(s.agents, ag)
	return ag
}

func (s *Server) validKey(r *http.Request) bool {
	_, ok := s.keys[r.Header.Get("X-VERIFY-KEY")]
	return ok && r.Header.Get("Authorization") == ""
}

func (s *Server) bearer(r *http.Request) *agency {
	if r.Header.Get("X-VERIFY-KEY") != "" {
		return nil
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	for _, a := range s.agencies {
		if a.approved && token != "" && a.token == token {
			return a
		}
	}
	return nil
}

func str(body map[string]any, key string) string {
	v, _ := body[key].(string)
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
