package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient implements LLM using OpenAI's chat completions API.
type OpenAIClient struct {
	client openai.Client
	config Config
}

// NewOpenAIClient creates an OpenAI-backed completion client.
// Returns an error if the API key or model name is missing.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set OPENAI_API_KEY or provide in config)", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIClient{
		client: client,
		config: config,
	}, nil
}

// Complete sends the prompt and returns the generated text. API failures
// are classified as transient or content-policy.
func (o *OpenAIClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = o.config.Temperature
	}
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.config.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrTransient)
	}

	choice := completion.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", fmt.Errorf("%w: response truncated by content filter", ErrContentPolicy)
	}

	return choice.Message.Content, nil
}

// classify maps provider errors onto the package's error taxonomy.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429 || apiErr.StatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrTransient, err)
		case apiErr.StatusCode == 400 && strings.Contains(strings.ToLower(apiErr.Error()), "content"):
			return fmt.Errorf("%w: %v", ErrContentPolicy, err)
		default:
			return err
		}
	}
	// Network-level failures (timeouts, resets) are retryable.
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
