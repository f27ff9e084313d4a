package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aws-console-lab/internal/domain"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient gera feedback estruturado através de uma API compatível
// com chat completions. Sem API key configurada devolve (nil, nil) e o
// scorer usa o fallback local.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) GenerateFeedback(ctx context.Context, lab *domain.Lab, progress *domain.UserProgress) (*domain.Feedback, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	completed := 0
	var completedIDs []string
	if progress != nil {
		completed = len(progress.CompletedSteps)
		completedIDs = progress.CompletedSteps
	}

	prompt := fmt.Sprintf(
		`A learner attempted the AWS lab %q (%s, difficulty %s) and completed %d of %d steps (%s).
Reply with a JSON object only: {"strengths": ["..."], "improvements": ["..."]}. Keep each list to at most 3 short sentences.`,
		lab.Title, lab.Service, lab.Difficulty,
		completed, len(lab.Steps), strings.Join(completedIDs, ", "))

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a mentor reviewing hands-on AWS lab attempts. Always answer with raw JSON."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("falha ao chamar a API de feedback: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API de feedback devolveu status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("resposta de feedback inválida: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, nil
	}

	content := stripJSONFences(chat.Choices[0].Message.Content)
	var feedback domain.Feedback
	if err := json.Unmarshal([]byte(content), &feedback); err != nil {
		return nil, fmt.Errorf("feedback da IA não é JSON válido: %w", err)
	}
	return &feedback, nil
}

// stripJSONFences remove cercas markdown que alguns modelos insistem
// em pôr à volta do JSON.
func stripJSONFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
