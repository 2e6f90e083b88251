package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/printgenie/orderflow/internal/precheck"
)

// --- Quality Judge Model Prompts ---
const QualityJudgeSystemPrompt = "You are an expert printing assistant. You judge whether an image's resolution is high enough to produce a quality print at a requested size. You must output your response as a single valid JSON object."
const QualityJudgeUserPromptFmt = `A customer wants to print the attached image at %.0f x %.0f inches.

Based on the image, its resolution, and the desired print dimensions, determine if the resolution is sufficient to produce a quality print. Consider 300 DPI the gold standard for high-quality printing; lower DPI may be acceptable for large-format prints viewed from a distance.

Respond with a single JSON object with exactly two keys:
  - "isSufficient": a boolean.
  - "warning": a short warning message for the customer when the resolution is not sufficient, otherwise an empty string.

Do not include any text before or after the JSON object.`

// --- Summarizer Model Prompts ---
const SummarizerSystemPrompt = "You are a print-shop production assistant. You condense a customer's free-form printing instructions into a short summary the press operator can act on."
const SummarizerUserPromptFmt = `Summarize the following printing instructions in at most two sentences. Keep every concrete requirement (material, dimensions, finish, color, deadline) and drop pleasantries.

Instructions:
%s`

// --- Assistant Model Prompts ---
const AssistantSystemPrompt = "You are the shop's friendly print assistant. You answer customer questions about printing services, materials, finishes, turnaround times, and file preparation. Keep answers short, concrete, and honest: if a question is outside printing, say so politely."

// VertexClient holds all pre-configured generative models for the shop.
type VertexClient struct {
	QualityModel    *genai.GenerativeModel
	SummarizerModel *genai.GenerativeModel
	AssistantModel  *genai.GenerativeModel
	baseClient      *genai.Client
}

// NewVertexClient creates a new client holding all necessary models.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	// --- Configure the quality judge model ---
	qualityModel := baseClient.GenerativeModel("gemini-1.5-flash")
	qualityModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(QualityJudgeSystemPrompt)},
	}
	qualityModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output so the judgement parses deterministically.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	// --- Configure the summarizer model ---
	summarizerModel := baseClient.GenerativeModel("gemini-1.5-flash")
	summarizerModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SummarizerSystemPrompt)},
	}

	// --- Configure the assistant model ---
	assistantModel := baseClient.GenerativeModel("gemini-1.5-flash")
	assistantModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(AssistantSystemPrompt)},
	}

	return &VertexClient{
		QualityModel:    qualityModel,
		SummarizerModel: summarizerModel,
		AssistantModel:  assistantModel,
		baseClient:      baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// JudgeImage implements the quality-judgement collaborator: image bytes plus
// a target print size in, a structured verdict out.
func (c *VertexClient) JudgeImage(ctx context.Context, image []byte, mimeType string, widthInches, heightInches float64) (precheck.Judgement, error) {
	prompt := genai.Text(fmt.Sprintf(QualityJudgeUserPromptFmt, widthInches, heightInches))
	blob := genai.Blob{MIMEType: mimeType, Data: image}

	resp, err := c.QualityModel.GenerateContent(ctx, blob, prompt)
	if err != nil {
		return precheck.Judgement{}, fmt.Errorf("failed to generate judgement from gemini: %w", err)
	}

	raw := extractText(resp)
	var j precheck.Judgement
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return precheck.Judgement{}, fmt.Errorf("failed to parse judgement %q: %w", raw, err)
	}
	return j, nil
}

// Summarize implements the summarization collaborator for customer notes.
func (c *VertexClient) Summarize(ctx context.Context, notes string) (string, error) {
	prompt := genai.Text(fmt.Sprintf(SummarizerUserPromptFmt, notes))

	resp, err := c.SummarizerModel.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary from gemini: %w", err)
	}
	summary := extractText(resp)
	if summary == "" {
		return "", fmt.Errorf("gemini returned an empty summary")
	}
	return summary, nil
}

// Answer implements the stateless answer collaborator behind the chat
// widget. No conversation memory is kept server-side.
func (c *VertexClient) Answer(ctx context.Context, question string) (string, error) {
	resp, err := c.AssistantModel.GenerateContent(ctx, genai.Text(question))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer from gemini: %w", err)
	}
	answer := extractText(resp)
	if answer == "" {
		return "", fmt.Errorf("gemini returned an empty answer")
	}
	return answer, nil
}

// extractText concatenates the text parts of a model response and strips any
// stray code fences.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	out := strings.TrimSpace(sb.String())
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}
