package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/studyhallhq/tutor-agent/internal/adapters/http"
	"github.com/studyhallhq/tutor-agent/internal/adapters/llm"
	"github.com/studyhallhq/tutor-agent/internal/adapters/storage/memory"
	"github.com/studyhallhq/tutor-agent/internal/app/auth"
	"github.com/studyhallhq/tutor-agent/internal/app/quiz"
	"github.com/studyhallhq/tutor-agent/internal/app/session"
)

func newTestServer(t *testing.T) (http.Handler, *llm.MockLLM) {
	t.Helper()

	mock := llm.NewMockLLM()
	sessionSvc, err := session.NewService(context.Background(), mock, memory.NewConversationStore())
	require.NoError(t, err)

	quizSvc := quiz.NewService(mock, sessionSvc)
	authSvc := auth.NewService(memory.NewAccountStore(), "test-secret", time.Hour)

	return httpadapter.NewServer(authSvc, sessionSvc, quizSvc), mock
}

func doJSON(t *testing.T, srv http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func signUp(t *testing.T, srv http.Handler) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/signup", "", map[string]string{
		"username": "alice", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionsRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatAndQuizFlow(t *testing.T) {
	srv, mock := newTestServer(t)
	token := signUp(t, srv)

	// create a session (becomes active)
	w := doJSON(t, srv, http.MethodPost, "/sessions", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	base := "/sessions/" + created.SessionID

	// two exchanges make the session quiz-eligible
	mock.ChatReply = "Ohm's law says V = I*R."
	for i := 0; i < 2; i++ {
		w = doJSON(t, srv, http.MethodPost, base+"/messages", token, map[string]string{
			"text": fmt.Sprintf("question %d", i),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		History []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.History, 4)
	assert.Equal(t, "user", got.History[0].Role)
	assert.Equal(t, "question 0", got.History[0].Text)

	// generate a quiz from a fenced response
	mock.GenerateText = "```json\n" + `{"questions": [
		{"question": "What does V stand for?", "options": ["Voltage", "Velocity", "Volume", "Vector"], "correct_index": 0},
		{"question": "Q2?", "options": ["a", "b", "c", "d"], "correct_index": 1},
		{"question": "Q3?", "options": ["a", "b", "c", "d"], "correct_index": 2},
		{"question": "Q4?", "options": ["a", "b", "c", "d"], "correct_index": 3},
		{"question": "Q5?", "options": ["a", "b", "c", "d"], "correct_index": 0}
	]}` + "\n```"

	w = doJSON(t, srv, http.MethodPost, base+"/quiz", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var quizResp struct {
		Questions []struct {
			Question string   `json:"question"`
			Options  []string `json:"options"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quizResp))
	require.Len(t, quizResp.Questions, 5)

	// the answer key must not be exposed
	assert.NotContains(t, w.Body.String(), "correct_index")

	// submit answers: one right, one wrong, three unanswered
	w = doJSON(t, srv, http.MethodPost, base+"/quiz/answers", token, map[string]any{
		"answers": map[string]string{"0": "Voltage", "1": "a"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var grading struct {
		Results []struct {
			State string `json:"state"`
		} `json:"results"`
		Correct int     `json:"correct"`
		Total   int     `json:"total"`
		Score   float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grading))
	assert.Equal(t, 1, grading.Correct)
	assert.Equal(t, 5, grading.Total)
	assert.Equal(t, "correct", grading.Results[0].State)
	assert.Equal(t, "incorrect", grading.Results[1].State)
	assert.Equal(t, "unanswered", grading.Results[2].State)
}

func TestGenerateQuizTooEarly(t *testing.T) {
	srv, _ := newTestServer(t)
	token := signUp(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/sessions", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, srv, http.MethodPost, "/sessions/"+created.SessionID+"/quiz", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_history")
}

func TestDeleteSession(t *testing.T) {
	srv, _ := newTestServer(t)
	token := signUp(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/sessions", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, srv, http.MethodDelete, "/sessions/"+created.SessionID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/sessions/"+created.SessionID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
