package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NARAsimha654/MockView-Bot/internal/domain"
	"github.com/NARAsimha654/MockView-Bot/internal/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, 5*time.Second, logger.New("error", false))
	require.NoError(t, err)
	return client
}

func TestTopics(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/topics", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]string{"python", "algorithms"})
	}))

	topics, err := client.Topics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "algorithms"}, topics)
}

func TestStartSessionPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/start", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "started"})
	}))

	err := client.StartSession(context.Background(), "python", []string{"q1", "q2"}, domain.PersonaFriendly)
	require.NoError(t, err)

	assert.Equal(t, "python", got["topic"])
	assert.Equal(t, []any{"q1", "q2"}, got["globally_answered_ids"])
	assert.Equal(t, "Friendly", got["persona"])
}

func TestStartSessionSendsEmptyArrayForNilIDs(t *testing.T) {
	t.Parallel()

	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "started"})
	}))

	require.NoError(t, client.StartSession(context.Background(), "go", nil, domain.PersonaNeutral))
	assert.Equal(t, []any{}, got["globally_answered_ids"])
}

func TestStartCustomSessionErrorSurfacedVerbatim(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/start-custom-interview", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Could not extract skills from the job description.",
		})
	}))

	err := client.StartCustomSession(context.Background(), "some jd", domain.PersonaNeutral)
	require.Error(t, err)
	assert.EqualError(t, err, "Could not extract skills from the job description.")
}

func TestNextQuestion(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":   "question",
			"id":       "py-3",
			"question": "What is a generator?",
		})
	}))

	result, err := client.NextQuestion(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Equal(t, "py-3", result.Question.ID)
	assert.Equal(t, "What is a generator?", result.Question.Text)
}

func TestNextQuestionComplete(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "complete",
			"message": "Interview complete!",
		})
	}))

	result, err := client.NextQuestion(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, "Interview complete!", result.Message)
}

func TestNextQuestionRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "thinking"})
	}))

	_, err := client.NextQuestion(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thinking")
}

func TestSubmitAnswer(t *testing.T) {
	t.Parallel()

	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/answer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"score":        80,
			"feedback":     "Good answer.",
			"model_answer": "A generator yields lazily.",
		})
	}))

	eval, err := client.SubmitAnswer(context.Background(), "it yields values")
	require.NoError(t, err)
	assert.Equal(t, "it yields values", got["answer"])
	assert.Equal(t, 80, eval.Score)
	assert.Equal(t, "Good answer.", eval.Feedback)
	assert.Equal(t, "A generator yields lazily.", eval.ModelAnswer)
}

func TestHintAndExplanationPayloads(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		switch r.URL.Path {
		case "/hint":
			assert.Equal(t, "What is a generator?", got["question"])
			_ = json.NewEncoder(w).Encode(map[string]string{"hint": "Think lazy."})
		case "/explain":
			assert.Equal(t, "What is a generator?", got["question"])
			assert.Equal(t, "model", got["answer"])
			_ = json.NewEncoder(w).Encode(map[string]string{"explanation": "It suspends."})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	hint, err := client.Hint(context.Background(), "What is a generator?")
	require.NoError(t, err)
	assert.Equal(t, "Think lazy.", hint)

	explanation, err := client.Explanation(context.Background(), "What is a generator?", "model")
	require.NoError(t, err)
	assert.Equal(t, "It suspends.", explanation)
}

func TestGenerateReport(t *testing.T) {
	t.Parallel()

	var got struct {
		History []map[string]any `json:"history"`
		Summary struct {
			Count        int `json:"count"`
			AverageScore int `json:"average_score"`
		} `json:"summary"`
	}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-report", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))

	payload, err := client.GenerateReport(context.Background(),
		[]domain.TranscriptEntry{{Question: "Q", UserAnswer: "A", Score: 80}},
		domain.Summary{Answered: 1, AverageScore: 80, HasScore: true},
	)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(payload))
	require.Len(t, got.History, 1)
	assert.Equal(t, 1, got.Summary.Count)
	assert.Equal(t, 80, got.Summary.AverageScore)
}

func TestSessionCookiePersistsAcrossCalls(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/"})
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "started"})
		case "/ask":
			cookie, err := r.Cookie("session")
			require.NoError(t, err)
			assert.Equal(t, "abc123", cookie.Value)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "question", "id": "q1", "question": "Q",
			})
		}
	}))

	ctx := context.Background()
	require.NoError(t, client.StartSession(ctx, "go", nil, domain.PersonaNeutral))
	_, err := client.NextQuestion(ctx)
	require.NoError(t, err)
}

func TestErrorWithoutJSONBodyFallsBackToStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))

	_, err := client.Topics(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "504")
}
