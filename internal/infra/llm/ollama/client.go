package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3"

	// cl100k approximates Llama tokenization closely enough for budgeting.
	tokenEncoding = "cl100k_base"
)

const systemPrompt = `You are an AI assistant specialized in Environmental, Social, and Governance (ESG)
metrics for maritime vessels. You help users understand:

- ESG scoring methodologies for ships
- Carbon emissions calculations and factors
- AIS (Automatic Identification System) data interpretation
- Vessel performance metrics
- Environmental compliance and regulations
- Fuel consumption patterns
- Speed optimization for emissions reduction

Be concise, accurate, and focus on maritime ESG topics. If asked about topics outside
this domain, politely redirect to ESG-related questions. Use technical terminology
appropriately but explain complex concepts clearly.`

// Message mirrors the Ollama chat message structure.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

// Client performs HTTP requests to a local Ollama server.
type Client struct {
	baseURL         string
	model           string
	maxPromptTokens int
	httpClient      *http.Client
	encoder         *tiktoken.Tiktoken
}

// NewClient constructs an Ollama client. The token encoder is loaded once and
// reused; an encoder load failure disables budgeting but not the client.
func NewClient(baseURL, model string, maxPromptTokens int, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		encoder = nil
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		model:           model,
		maxPromptTokens: maxPromptTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		encoder: encoder,
	}, nil
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Chat sends a conversation to Ollama and returns the assistant reply. History
// is trimmed oldest-first to fit the prompt token budget.
func (c *Client) Chat(ctx context.Context, userMessage string, history []Message, useSystemPrompt bool) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", errors.New("chat message cannot be empty")
	}

	messages := make([]Message, 0, len(history)+2)
	if useSystemPrompt {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, c.trimHistory(history, userMessage, useSystemPrompt)...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	payload, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options: map[string]any{
			"temperature": 0.7,
			"top_p":       0.9,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("ollama request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return strings.TrimSpace(out.Message.Content), nil
}

// trimHistory drops the oldest history entries until the prompt fits the
// token budget.
func (c *Client) trimHistory(history []Message, userMessage string, useSystemPrompt bool) []Message {
	if len(history) == 0 || c.maxPromptTokens <= 0 || c.encoder == nil {
		return history
	}

	budget := c.maxPromptTokens - c.countTokens(userMessage)
	if useSystemPrompt {
		budget -= c.countTokens(systemPrompt)
	}

	kept := history
	for len(kept) > 0 {
		total := 0
		for _, m := range kept {
			total += c.countTokens(m.Content)
		}
		if total <= budget {
			break
		}
		kept = kept[1:]
	}
	return kept
}

func (c *Client) countTokens(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}
