package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/at-ishikawa/mathdrill/internal/api"
	"github.com/go-chi/chi/v5"
)

// DrillServer is an in-memory drill service for tests.
// The n-th generated question is always "n + n", so its answer is 2n.
type DrillServer struct {
	URL string

	mu       sync.Mutex
	users    map[string]user
	tokens   map[string]string
	seq      int
	answers  map[string]float64
	failures map[string]failure
	requests map[string]int

	// TimeLimit is the time limit in seconds attached to problems.
	TimeLimit int
	// NeedRestAfter makes every n-th problem answer ask for a rest. 0 disables it.
	NeedRestAfter int
	History       []api.HistoryRecord
	Stats         api.AggregateStats
	Rankings      map[string][]api.RankingEntry

	answered int
}

type user struct {
	password string
	role     string
}

type failure struct {
	status  int
	message string
}

// NewDrillServer starts a drill server closed at the end of the test.
func NewDrillServer(t *testing.T) *DrillServer {
	t.Helper()

	s := &DrillServer{
		users:    map[string]user{},
		tokens:   map[string]string{},
		answers:  map[string]float64{},
		failures: map[string]failure{},
		requests: map[string]int{},
		Rankings: map[string][]api.RankingEntry{},
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/register", s.handleRegister)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/api/auth/logout", s.handleLogout)
		r.Get("/api/drill/question", s.handleDrillQuestion)
		r.Post("/api/drill/answer", s.handleDrillAnswer)
		r.Post("/api/problem/new", s.handleNewProblem)
		r.Post("/api/problem/answer", s.handleProblemAnswer)
		r.Get("/api/questions", s.handleLegacyQuestion)
		r.Get("/api/history", s.handleHistory)
		r.Get("/api/history/stats", s.handleStats)
		r.Get("/api/drill/rankings", s.handleRankings)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	s.URL = server.URL
	return s
}

// AddUser registers a user and returns a valid token for it.
func (s *DrillServer) AddUser(username, password, role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = user{password: password, role: role}
	return s.issueToken(username)
}

// Fail makes every request to path answer with status and message until Recover is called.
func (s *DrillServer) Fail(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, message: message}
}

func (s *DrillServer) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// RevokeTokens invalidates every issued token.
func (s *DrillServer) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]string{}
}

// Requests returns how many requests reached path.
func (s *DrillServer) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *DrillServer) issueToken(username string) string {
	token := fmt.Sprintf("token-%s-%d", username, len(s.tokens)+1)
	s.tokens[token] = username
	return token
}

func (s *DrillServer) nextQuestion() (string, string, float64) {
	s.seq++
	id := strconv.Itoa(s.seq)
	s.answers[id] = float64(2 * s.seq)
	return id, fmt.Sprintf("%d + %d", s.seq, s.seq), float64(2 * s.seq)
}

func (s *DrillServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		f, failing := s.failures[r.URL.Path]
		s.mu.Unlock()
		if failing {
			writeJSON(w, f.status, map[string]string{"error": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *DrillServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *DrillServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.Username]
	if !ok || u.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
		return
	}
	writeJSON(w, http.StatusOK, api.LoginResponse{
		Token:    s.issueToken(req.Username),
		Username: req.Username,
		Role:     u.role,
	})
}

func (s *DrillServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[req.Username]; ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already exists"})
		return
	}
	s.users[req.Username] = user{password: req.Password, role: req.Role}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
}

func (s *DrillServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *DrillServer) handleDrillQuestion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	id, expression, _ := s.nextQuestion()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         json.Number(id),
		"question":   expression,
		"difficulty": r.URL.Query().Get("difficulty"),
	})
}

func (s *DrillServer) handleDrillAnswer(w http.ResponseWriter, r *http.Request) {
	var req api.DrillAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	s.mu.Lock()
	answer, ok := s.answers[req.QuestionID.String()]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question not found"})
		return
	}
	if req.Answer == answer {
		writeJSON(w, http.StatusOK, api.DrillAnswerResponse{Correct: true, Message: "correct"})
		return
	}
	writeJSON(w, http.StatusOK, api.DrillAnswerResponse{
		Message: fmt.Sprintf("wrong, the answer is %g", answer),
	})
}

func (s *DrillServer) handleNewProblem(w http.ResponseWriter, r *http.Request) {
	var req api.NewProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Difficulty == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	s.mu.Lock()
	id, expression, _ := s.nextQuestion()
	timeLimit := s.TimeLimit
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.NewProblemResponse{Problem: &api.Problem{
		ID:         id,
		Expression: expression,
		Difficulty: req.Difficulty,
		TimeLimit:  timeLimit,
	}})
}

func (s *DrillServer) handleProblemAnswer(w http.ResponseWriter, r *http.Request) {
	var req api.ProblemAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[req.ProblemID]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "problem not found"})
		return
	}
	s.answered++
	needRest := s.NeedRestAfter > 0 && s.answered%s.NeedRestAfter == 0
	writeJSON(w, http.StatusOK, api.ProblemAnswerResponse{
		Correct:       req.Answer == answer,
		CorrectAnswer: &answer,
		NeedRest:      needRest,
	})
}

func (s *DrillServer) handleLegacyQuestion(w http.ResponseWriter, r *http.Request) {
	if _, err := strconv.Atoi(r.URL.Query().Get("difficulty")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid difficulty"})
		return
	}
	s.mu.Lock()
	_, expression, answer := s.nextQuestion()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.LegacyQuestion{Question: expression, Answer: answer})
}

func (s *DrillServer) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.History
	if records == nil {
		records = []api.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *DrillServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.Stats)
}

func (s *DrillServer) handleRankings(w http.ResponseWriter, r *http.Request) {
	window := r.URL.Query().Get("type")
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.Rankings[window]
	if !ok {
		rows = []api.RankingEntry{}
	}
	writeJSON(w, http.StatusOK, api.RankingsResponse{Rankings: rows})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
