package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maritime-esg/esg-analytics/internal/domain/analysis"
)

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient("", "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, "llama3", client.Model())
	require.Equal(t, defaultBaseURL, client.baseURL)
}

func TestChatSendsSystemPromptAndHistory(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatResponse{Message: Message{Role: "assistant", Content: "  All clear.  "}})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "llama3", 0, time.Second)
	require.NoError(t, err)

	history := []Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	reply, err := client.Chat(context.Background(), "how do I cut emissions?", history, true)
	require.NoError(t, err)
	require.Equal(t, "All clear.", reply)

	require.Equal(t, "llama3", got.Model)
	require.False(t, got.Stream)
	require.Len(t, got.Messages, 4)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Contains(t, got.Messages[0].Content, "maritime vessels")
	require.Equal(t, history[0], got.Messages[1])
	require.Equal(t, Message{Role: "user", Content: "how do I cut emissions?"}, got.Messages[3])
	require.Equal(t, 0.7, got.Options["temperature"])
}

func TestChatWithoutSystemPrompt(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatResponse{Message: Message{Content: "ok"}})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "", 0, time.Second)
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "hello", nil, false)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	require.Equal(t, "user", got.Messages[0].Role)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	client, err := NewClient("http://localhost:1", "", 0, time.Second)
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "   ", nil, true)
	require.Error(t, err)
}

func TestChatErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "", 0, time.Second)
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "hello", nil, true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=404")
}

func TestTrimHistoryWithoutEncoderKeepsEverything(t *testing.T) {
	client, err := NewClient("http://localhost:1", "", 64, time.Second)
	require.NoError(t, err)
	client.encoder = nil

	history := []Message{{Role: "user", Content: strings.Repeat("x ", 4096)}}
	require.Equal(t, history, client.trimHistory(history, "q", true))
}

func TestRecommendBuildsPromptAndCapsLines(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatResponse{Message: Message{
			Content: "1. Slow down on open water\n\n2. Reduce harsh accelerations\n3. Optimize routing\n4. Extra point that must be dropped",
		}})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "", 0, time.Second)
	require.NoError(t, err)

	recommender := NewRecommender(client)
	text, err := recommender.Recommend(context.Background(), analysis.RecommendationInput{
		Score:           65,
		Rating:          "Average",
		EstimatedCO2Kg:  6000,
		TotalDistanceKm: 100,
		AvgSpeedKnots:   12,
		AccelEvents:     5,
		TimeAtSeaHours:  48,
		RiskFlags:       []string{"High average speed (12.00 knots > 10.0 knots threshold)"},
	})
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "3. Optimize routing", lines[2])

	// No system prompt on the recommendation path.
	require.Equal(t, "user", got.Messages[0].Role)
	require.Len(t, got.Messages, 1)
	prompt := got.Messages[0].Content
	require.Contains(t, prompt, "ESG Score: 65/100 (Average)")
	require.Contains(t, prompt, "CO2 Intensity: 60.00 kg/km")
	require.Contains(t, prompt, "High average speed")
}

func TestRecommendNoFlags(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatResponse{Message: Message{Content: "1. Keep it up"}})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "", 0, time.Second)
	require.NoError(t, err)

	_, err = NewRecommender(client).Recommend(context.Background(), analysis.RecommendationInput{
		Score: 100, Rating: "Excellent", TotalDistanceKm: 50,
	})
	require.NoError(t, err)
	require.Contains(t, got.Messages[0].Content, "Risk Flags: None")
}
