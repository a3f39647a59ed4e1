package llm

import (
	"context"
	"errors"
)

// Client is a plain chat completion capability. Transport and HTTP failures
// come back as errors; a successful call never yields an empty string.
type Client interface {
	Chat(ctx context.Context, prompt string) (string, error)
	// ChatWithFollowups asks the model for an answer plus suggested
	// followup questions.
	ChatWithFollowups(ctx context.Context, prompt string) (string, []string, error)
}

var ErrEmptyCompletion = errors.New("llm: empty completion")

// chatFunc lets each provider share the followup handling.
type chatFunc func(ctx context.Context, prompt string) (string, error)

func chatWithFollowups(ctx context.Context, chat chatFunc, prompt string) (string, []string, error) {
	raw, err := chat(ctx, prompt+FollowupInstruction)
	if err != nil {
		return "", nil, err
	}
	answer, followups := ParseAnswerWithFollowups(raw)
	return answer, followups, nil
}
