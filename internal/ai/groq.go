package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	groqURL      = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel = "llama-3.3-70b-versatile"

	extractionTemperature = 0.3
	validationTemperature = 0.1 // verdicts need to be repeatable
)

// GroqClient talks to Groq's OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewGroqClient creates a Groq-backed Client. An empty model selects the
// default Llama model.
func NewGroqClient(apiKey, model string) *GroqClient {
	if model == "" {
		model = defaultModel
	}
	return &GroqClient{
		apiKey:     apiKey,
		model:      model,
		url:        groqURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ExtractJob asks the model to map a raw listing onto the structured shape.
func (c *GroqClient) ExtractJob(ctx context.Context, listing RawListing) (*Extraction, error) {
	content, err := c.complete(ctx, extractionSystemPrompt, buildExtractionPrompt(listing), extractionTemperature)
	if err != nil {
		return nil, err
	}

	var extraction Extraction
	if err := json.Unmarshal([]byte(cleanMarkdownJSON(content)), &extraction); err != nil {
		return nil, fmt.Errorf("%w: extraction: %v", ErrMalformedResponse, err)
	}
	if extraction.URL == "" {
		extraction.URL = listing.URL
	}
	return &extraction, nil
}

// ValidateJob asks the model for a verdict on an extracted listing.
func (c *GroqClient) ValidateJob(ctx context.Context, extraction *Extraction) (*Validation, error) {
	content, err := c.complete(ctx, validationSystemPrompt, buildValidationPrompt(extraction), validationTemperature)
	if err != nil {
		return nil, err
	}

	var verdict Validation
	if err := json.Unmarshal([]byte(cleanMarkdownJSON(content)), &verdict); err != nil {
		return nil, fmt.Errorf("%w: validation: %v", ErrMalformedResponse, err)
	}
	return &verdict, nil
}

// complete runs one chat completion and returns the first choice's content.
func (c *GroqClient) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	reqBody := groqRequest{
		Model: c.model,
		Messages: []groqMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp groqResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from groq API")
	}

	return chatResp.Choices[0].Message.Content, nil
}

const extractionSystemPrompt = `You are a job listing parser. ` +
	`Given a raw job posting, respond with ONLY a JSON object with these keys: ` +
	`title, company, job_type, location, url, description, salary, tags, ` +
	`skills_analysis (an object with technical_skills, experience_level, summary). ` +
	`Use empty strings or empty arrays for anything the posting does not state. Never invent data.`

const validationSystemPrompt = `You are a remote-job validator. ` +
	`Given structured job data, respond with ONLY a JSON object with these keys: ` +
	`is_valid (boolean), remote_type (remote/hybrid/onsite), job_type_category, ` +
	`confidence (0.0-1.0), reasoning, red_flags (array of strings). ` +
	`A listing is valid only when it is a genuine, currently open job posting that can be done remotely.`

func buildExtractionPrompt(listing RawListing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Platform: %s\nURL: %s\nTitle: %s\nCompany: %s\nLocation: %s\n",
		listing.Platform, listing.URL, listing.Title, listing.Company, listing.Location)
	if listing.SalaryText != "" {
		fmt.Fprintf(&b, "Salary: %s\n", listing.SalaryText)
	}
	if len(listing.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(listing.Tags, ", "))
	}
	fmt.Fprintf(&b, "\nDescription:\n%s\n", listing.Description)
	return b.String()
}

func buildValidationPrompt(extraction *Extraction) string {
	raw, err := json.MarshalIndent(extraction, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", extraction)
	}
	return string(raw)
}

// cleanMarkdownJSON strips the code fences some models wrap JSON replies in.
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
