package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/studyhallhq/tutor-agent/internal/app/auth"
	"github.com/studyhallhq/tutor-agent/internal/app/quiz"
	"github.com/studyhallhq/tutor-agent/internal/app/session"
	"github.com/studyhallhq/tutor-agent/internal/domain"
)

// Server maps each presentation-triggered action to exactly one core
// operation. It keeps one Interaction per logged-in account so the active
// session pointer and chat handle never leak across users.
type Server struct {
	authSvc    *auth.Service
	sessionSvc *session.Service
	quizSvc    *quiz.Service

	mu           sync.Mutex
	interactions map[domain.Username]*session.Interaction
}

func NewServer(authSvc *auth.Service, sessionSvc *session.Service, quizSvc *quiz.Service) http.Handler {
	s := &Server{
		authSvc:      authSvc,
		sessionSvc:   sessionSvc,
		quizSvc:      quizSvc,
		interactions: make(map[domain.Username]*session.Interaction),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/signup", s.handleSignUp)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.withAuth(s.handleLogout))

	// /sessions            → GET: list, POST: create
	// /sessions/{id}/...   → per-session actions
	mux.HandleFunc("/sessions", s.withAuth(s.handleSessions))
	mux.HandleFunc("/sessions/", s.withAuth(s.handleSessionWithID))

	return chainMiddlewares(mux, withLogging, withCORS)
}

func (s *Server) interaction(username domain.Username) *session.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.interactions[username]
	if !ok {
		it = session.NewInteraction(username)
		s.interactions[username] = it
	}
	return it
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type sessionSummaryResponse struct {
	ID        string `json:"id"`
	PairCount int    `json:"pair_count"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type turnResponse struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type questionResponse struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type getSessionResponse struct {
	History []turnResponse     `json:"history"`
	Quiz    []questionResponse `json:"quiz,omitempty"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Reply string `json:"reply"`
}

type quizResponse struct {
	Questions []questionResponse `json:"questions"`
}

type submitAnswersRequest struct {
	// question index (as decimal string key) → selected option text;
	// omitted questions count as unanswered.
	Answers map[string]string `json:"answers"`
}

type questionResultResponse struct {
	State    string `json:"state"`
	Selected string `json:"selected,omitempty"`
}

type gradingResponse struct {
	Results []questionResultResponse `json:"results"`
	Correct int                      `json:"correct"`
	Total   int                      `json:"total"`
	Score   float64                  `json:"score"`
}

// ─────────────────────────────────────────────
// Auth endpoints
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := s.authSvc.SignUp(r.Context(), domain.Username(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := s.authSvc.Login(r.Context(), domain.Username(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, username domain.Username) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	// Tokens are stateless; logout just drops the interaction context.
	s.mu.Lock()
	delete(s.interactions, username)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return req, false
	}
	return req, true
}

// ─────────────────────────────────────────────
// Session endpoints
// ─────────────────────────────────────────────

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request, username domain.Username) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSessions(w, r, username)
	case http.MethodPost:
		s.handleCreateSession(w, r, username)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request, username domain.Username) {
	summaries := s.sessionSvc.ListSessions(r.Context(), username)

	out := make([]sessionSummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, sessionSummaryResponse{ID: string(sum.ID), PairCount: sum.PairCount})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request, username domain.Username) {
	id, err := s.sessionSvc.CreateSession(r.Context(), username)
	if err != nil {
		internalError(w, err)
		return
	}

	// A freshly created session becomes the active one.
	if err := s.sessionSvc.SelectSession(r.Context(), s.interaction(username), id); err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: string(id)})
}

// /sessions/{id} or /sessions/{id}/{action}
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request, username domain.Username) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := domain.SessionID(parts[0])

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSession(w, r, username, id)
		case http.MethodDelete:
			s.handleDeleteSession(w, r, username, id)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 {
		switch {
		case parts[1] == "select" && r.Method == http.MethodPost:
			s.handleSelectSession(w, r, username, id)
		case parts[1] == "messages" && r.Method == http.MethodPost:
			s.handleSendMessage(w, r, username, id)
		case parts[1] == "quiz" && r.Method == http.MethodPost:
			s.handleGenerateQuiz(w, r, username, id)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 3 && parts[1] == "quiz" && parts[2] == "answers" && r.Method == http.MethodPost {
		s.handleSubmitAnswers(w, r, username, id)
		return
	}

	http.NotFound(w, r)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, username domain.Username, id domain.SessionID) {
	history, err := s.sessionSvc.History(username, id)
	if err != nil {
		notFoundOrInternal(w, r, err)
		return
	}
	qz, err := s.sessionSvc.Quiz(username, id)
	if err != nil {
		notFoundOrInternal(w, r, err)
		return
	}

	resp := getSessionResponse{History: make([]turnResponse, 0, len(history))}
	for _, t := range history {
		resp.History = append(resp.History, turnResponse{Role: string(t.Role), Text: t.Text()})
	}
	if qz != nil {
		resp.Quiz = toQuestionResponses(qz)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelectSession(w http.ResponseWriter, r *http.Request, username domain.Username, id domain.SessionID) {
	if err := s.sessionSvc.SelectSession(r.Context(), s.interaction(username), id); err != nil {
		notFoundOrInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, username domain.Username, id domain.SessionID) {
	if err := s.sessionSvc.DeleteSession(r.Context(), s.interaction(username), id); err != nil {
		notFoundOrInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, username domain.Username, id domain.SessionID) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	it := s.interaction(username)
	if it.ActiveSession != id {
		if err := s.sessionSvc.SelectSession(r.Context(), it, id); err != nil {
			notFoundOrInternal(w, r, err)
			return
		}
	}

	reply, err := s.sessionSvc.SendMessage(r.Context(), it, req.Text)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{Reply: reply})
}

// ─────────────────────────────────────────────
// Quiz endpoints
// ─────────────────────────────────────────────

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request, username domain.Username, id domain.SessionID) {
	qz, err := s.quizSvc.Generate(r.Context(), username, id)
	if err != nil {
		if qe, ok := domain.AsQuizError(err); ok {
			writeQuizError(w, qe)
			return
		}
		notFoundOrInternal(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quizResponse{Questions: toQuestionResponses(qz)})
}

func (s *Server) handleSubmitAnswers(w http.ResponseWriter, r *http.Request, username domain.Username, id domain.SessionID) {
	var req submitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	qz, err := s.sessionSvc.Quiz(username, id)
	if err != nil {
		notFoundOrInternal(w, r, err)
		return
	}
	if qz == nil {
		writeError(w, http.StatusConflict, "no quiz generated for this session")
		return
	}

	answers := make(map[int]string, len(req.Answers))
	for key, selected := range req.Answers {
		idx, err := strconv.Atoi(key)
		if err != nil {
			writeError(w, http.StatusBadRequest, "answer keys must be question indexes")
			return
		}
		answers[idx] = selected
	}

	result := quiz.Grade(qz, answers)

	resp := gradingResponse{
		Correct: result.Correct,
		Total:   result.Total,
		Score:   result.Score(),
	}
	for _, qr := range result.Results {
		resp.Results = append(resp.Results, questionResultResponse{
			State:    string(qr.State),
			Selected: qr.Selected,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

// toQuestionResponses deliberately omits correct_index: the answer key
// never leaves the server before grading.
func toQuestionResponses(qz *domain.Quiz) []questionResponse {
	out := make([]questionResponse, 0, len(qz.Questions))
	for _, q := range qz.Questions {
		out = append(out, questionResponse{Question: q.Prompt, Options: q.Options})
	}
	return out
}

func writeQuizError(w http.ResponseWriter, qe *domain.QuizError) {
	status := http.StatusBadGateway
	if qe.Kind == domain.QuizErrInsufficientHistory {
		status = http.StatusBadRequest
	}

	body := map[string]string{
		"error": qe.Error(),
		"kind":  string(qe.Kind),
	}
	if qe.Raw != "" {
		body["raw"] = qe.Raw
	}
	writeJSON(w, status, body)
}

func notFoundOrInternal(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.NotFound(w, r)
		return
	}
	internalError(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
