// Package classify adapts a chat completion model into the Classifier
// interface.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
)

const maxTokens = 256

const systemPrompt = `You are a sentiment classification engine.
Classify the user's text as exactly one of: positive, negative, neutral.
Detect the text's language as a lowercase ISO 639-1 code.
Respond with a single JSON object and nothing else:
{"sentiment": "...", "confidence": 0.0, "language": "..",
 "all_scores": [{"label": "positive", "score": 0.0},
                {"label": "negative", "score": 0.0},
                {"label": "neutral", "score": 0.0}]}
Scores must sum to 1.0 and confidence must equal the winning label's score.`

// completionAPI is the slice of the OpenAI client this package uses.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier classifies text through the chat completions API with a
// JSON-object response format.
type OpenAIClassifier struct {
	client completionAPI
	model  string
}

var _ domain.Classifier = (*OpenAIClassifier)(nil)

// NewOpenAIClassifier builds a classifier for the given model.
func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	return &OpenAIClassifier{client: openai.NewClient(apiKey), model: model}
}

// ModelVersion identifies the model for fingerprinting. Cached results are
// keyed on it so a model change never serves stale predictions.
func (c *OpenAIClassifier) ModelVersion() string {
	return c.model
}

// Classify runs one prediction. languageHint may be empty; when set it is
// passed to the model as a hint, never as ground truth.
func (c *OpenAIClassifier) Classify(ctx context.Context, text, languageHint string) (domain.Prediction, error) {
	userContent := text
	if languageHint != "" {
		userContent = fmt.Sprintf("(language hint: %s)\n%s", languageHint, text)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
	}
	// Reasoning models reject MaxTokens and want MaxCompletionTokens instead.
	if strings.HasPrefix(c.model, "o1") || strings.HasPrefix(c.model, "o3") ||
		strings.HasPrefix(c.model, "o4") || strings.HasPrefix(c.model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Prediction{}, fmt.Errorf("chat completion returned no choices")
	}

	return parsePrediction(resp.Choices[0].Message.Content)
}

// parsePrediction decodes and sanity-checks the model's JSON answer.
func parsePrediction(content string) (domain.Prediction, error) {
	var pred domain.Prediction
	if err := json.Unmarshal([]byte(content), &pred); err != nil {
		return domain.Prediction{}, fmt.Errorf("undecodable model response: %w", err)
	}

	pred.Sentiment = strings.ToLower(strings.TrimSpace(pred.Sentiment))
	if !domain.ValidSentiment(pred.Sentiment) {
		return domain.Prediction{}, fmt.Errorf("model produced unknown sentiment %q", pred.Sentiment)
	}
	if pred.Confidence < 0 || pred.Confidence > 1 {
		return domain.Prediction{}, fmt.Errorf("model produced out-of-range confidence %v", pred.Confidence)
	}
	if pred.Language == "" {
		pred.Language = "en"
	}
	pred.Language = strings.ToLower(pred.Language)
	if pred.AllScores == nil {
		pred.AllScores = []domain.LabelScore{}
	}
	return pred, nil
}
