// Package ai runs the two model-backed tasks of the complaint workflow:
// drafting a complaint from a photo and checking a resolution photo
// against the original report.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"complaint-service/internal/config"
	"complaint-service/internal/media"
	"complaint-service/internal/model"
)

var (
	ErrGenerationFailed   = errors.New("complaint generation failed")
	ErrVerificationFailed = errors.New("resolution verification failed")
)

const defaultRejectionReasoning = "The resolution photo does not clearly show that the reported issue has been fixed."

type Draft struct {
	ComplaintDraft string                  `json:"complaint_draft"`
	Category       model.ComplaintCategory `json:"category"`
	Department     model.Department        `json:"department"`
}

type Verdict struct {
	IsResolvedCorrectly bool   `json:"is_resolved_correctly"`
	Reasoning           string `json:"reasoning"`
}

// generator performs one structured generation call and returns the raw
// JSON text of the answer.
type generator interface {
	Generate(ctx context.Context, parts []*genai.Part, schema *genai.Schema) (string, error)
}

type Client struct {
	gen generator
	log zerolog.Logger
}

func NewClient(ctx context.Context, cfg config.AIConfig, log zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newClient(&geminiGenerator{client: client, model: cfg.Model}, log), nil
}

func newClient(gen generator, log zerolog.Logger) *Client {
	return &Client{gen: gen, log: log.With().Str("component", "ai").Logger()}
}

func (c *Client) DraftComplaint(ctx context.Context, photo media.Image, locationDescription string) (*Draft, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(draftPrompt(locationDescription)),
		genai.NewPartFromBytes(photo.Data, photo.MIMEType),
	}

	raw, err := c.gen.Generate(ctx, parts, draftSchema())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var payload struct {
		ComplaintDraft string `json:"complaintDraft"`
		Category       string `json:"category"`
		Department     string `json:"department"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGenerationFailed, err)
	}

	text := strings.TrimSpace(payload.ComplaintDraft)
	if text == "" {
		return nil, fmt.Errorf("%w: empty draft", ErrGenerationFailed)
	}
	category := model.ComplaintCategory(payload.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrGenerationFailed, payload.Category)
	}
	department := model.Department(payload.Department)
	if !department.Valid() {
		return nil, fmt.Errorf("%w: unknown department %q", ErrGenerationFailed, payload.Department)
	}

	if expected := model.DepartmentFor(category); department != expected {
		c.log.Warn().
			Str("category", string(category)).
			Str("model_department", string(department)).
			Str("department", string(expected)).
			Msg("model department disagrees with category mapping")
		department = expected
	}

	return &Draft{
		ComplaintDraft: text,
		Category:       category,
		Department:     department,
	}, nil
}

func (c *Client) VerifyResolution(ctx context.Context, original, resolution media.Image, issueDescription string) (*Verdict, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(verifyPrompt(issueDescription)),
		genai.NewPartFromText("Original Photo:"),
		genai.NewPartFromBytes(original.Data, original.MIMEType),
		genai.NewPartFromText("Resolution Photo:"),
		genai.NewPartFromBytes(resolution.Data, resolution.MIMEType),
	}

	raw, err := c.gen.Generate(ctx, parts, verifySchema())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	var payload struct {
		IsResolvedCorrectly *bool  `json:"isResolvedCorrectly"`
		Reasoning           string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrVerificationFailed, err)
	}
	if payload.IsResolvedCorrectly == nil {
		return nil, fmt.Errorf("%w: missing verdict", ErrVerificationFailed)
	}

	verdict := &Verdict{
		IsResolvedCorrectly: *payload.IsResolvedCorrectly,
		Reasoning:           strings.TrimSpace(payload.Reasoning),
	}
	if !verdict.IsResolvedCorrectly && verdict.Reasoning == "" {
		verdict.Reasoning = defaultRejectionReasoning
	}
	return verdict, nil
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, parts []*genai.Part, schema *genai.Schema) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from model %s", g.model)
	}
	return text, nil
}
