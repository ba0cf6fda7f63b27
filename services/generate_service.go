package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FlashcardGenerator produces flashcards by calling an OpenAI-compatible
// chat-completion endpoint (OpenAI, Ollama, LM Studio, vLLM, ...).
type FlashcardGenerator struct {
	url    string
	model  string
	apiKey string
	client *http.Client
}

// GeneratedCard is one flashcard as returned by the model, after validation.
type GeneratedCard struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// GenerateError distinguishes "the model returned garbage" from "the model
// was unreachable."
type GenerateError struct {
	Reason  string
	Wrapped error
}

func (e *GenerateError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("flashcard generation failed: %s: %v", e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("flashcard generation failed: %s", e.Reason)
}

func (e *GenerateError) Unwrap() error {
	return e.Wrapped
}

func NewFlashcardGenerator(url, model, apiKey string) *FlashcardGenerator {
	return &FlashcardGenerator{
		url:    url,
		model:  model,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

const generateMaxRetries = 2

// Generate asks the model for count flashcards about topic within area and
// returns the validated cards. It retries once on a malformed response;
// small models sometimes need a second try.
func (g *FlashcardGenerator) Generate(ctx context.Context, area, topic string, count int) ([]GeneratedCard, error) {
	prompt := buildGeneratePrompt(area, topic, count)

	var lastErr error
	for attempt := 0; attempt < generateMaxRetries; attempt++ {
		raw, err := g.callLLM(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}

		jsonStr := extractJSONArray(raw)
		if jsonStr == "" {
			lastErr = &GenerateError{Reason: "no JSON array found in LLM response"}
			continue
		}

		var cards []GeneratedCard
		if err := json.Unmarshal([]byte(jsonStr), &cards); err != nil {
			lastErr = &GenerateError{Reason: "invalid JSON from LLM", Wrapped: err}
			continue
		}

		if err := validateCards(cards); err != nil {
			lastErr = err
			continue
		}

		if len(cards) > count {
			cards = cards[:count]
		}
		return cards, nil
	}

	return nil, &GenerateError{
		Reason:  fmt.Sprintf("failed after %d attempts", generateMaxRetries),
		Wrapped: lastErr,
	}
}

func validateCards(cards []GeneratedCard) error {
	if len(cards) == 0 {
		return &GenerateError{Reason: "LLM returned no flashcards"}
	}
	for i, card := range cards {
		if card.Question == "" {
			return &GenerateError{Reason: fmt.Sprintf("card %d has an empty question", i+1)}
		}
		if len(card.Options) != 4 {
			return &GenerateError{Reason: fmt.Sprintf("card %d has %d options, want 4", i+1, len(card.Options))}
		}
		for _, opt := range card.Options {
			if opt == "" {
				return &GenerateError{Reason: fmt.Sprintf("card %d has an empty option", i+1)}
			}
		}
		if card.CorrectIndex < 0 || card.CorrectIndex >= len(card.Options) {
			return &GenerateError{Reason: fmt.Sprintf("card %d has correctIndex %d out of range", i+1, card.CorrectIndex)}
		}
	}
	return nil
}

type llmRequest struct {
	Model       string       `json:"model"`
	Messages    []llmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *FlashcardGenerator) callLLM(ctx context.Context, prompt string) (string, error) {
	reqBody := llmRequest{
		Model: g.model,
		Messages: []llmMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM returned status %d", resp.StatusCode)
	}

	var llmResp llmResponse
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", fmt.Errorf("failed to decode LLM response: %w", err)
	}

	if len(llmResp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	content := llmResp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("LLM returned empty content")
	}

	return content, nil
}

// extractJSONArray finds the outermost JSON array in a string. It tracks
// bracket depth and skips brackets inside quoted strings, so markdown fences
// and commentary around the array are ignored.
func extractJSONArray(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range s {
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if ch == '[' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == ']' {
			depth--
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func buildGeneratePrompt(area, topic string, count int) string {
	return fmt.Sprintf(`You create study flashcards. Generate exactly %d multiple-choice flashcards about "%s" in the subject area "%s".

Respond with ONLY a JSON array, no commentary. Each element must have this shape:
{"question": "...", "options": ["...", "...", "...", "..."], "correctIndex": 0}

Rules:
- exactly 4 options per card
- correctIndex is the 0-based position of the right option
- questions must be self-contained and unambiguous
- do not repeat questions`, count, topic, area)
}
