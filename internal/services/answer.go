package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/openlearn-backend/internal/data/repos"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
	"github.com/yungbote/openlearn-backend/internal/platform/llm"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/platform/retrieval"
)

const (
	retrievalTopK    = 5
	maxFollowups     = 3
	contextSeparator = "\n\n---\n\n"
)

// Retriever returns at most k chunks of one material, most relevant first.
type Retriever interface {
	Search(ctx context.Context, query string, materialID int64, topicID *int64, k int) ([]retrieval.Chunk, error)
}

type AskInput struct {
	MaterialID int64  `json:"material_id"`
	TopicID    *int64 `json:"topic_id"`
	Question   string `json:"question"`
}

type AnswerSource struct {
	ChunkID string `json:"chunk_id"`
	Page    *int   `json:"page"`
}

type AnswerResult struct {
	Answer    string         `json:"answer"`
	Sources   []AnswerSource `json:"sources"`
	Followups []string       `json:"followups"`
}

type AnswerService interface {
	Answer(ctx context.Context, userID int64, in AskInput) (*AnswerResult, error)
}

type answerService struct {
	log          *logger.Logger
	materialRepo repos.LearningMaterialRepo
	retriever    Retriever
	llm          llm.Client
}

func NewAnswerService(log *logger.Logger, materialRepo repos.LearningMaterialRepo, retriever Retriever, client llm.Client) AnswerService {
	return &answerService{
		log:          log.With("service", "AnswerService"),
		materialRepo: materialRepo,
		retriever:    retriever,
		llm:          client,
	}
}

func (as *answerService) Answer(ctx context.Context, userID int64, in AskInput) (*AnswerResult, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, invalidInput("question required")
	}
	if in.MaterialID <= 0 {
		return nil, invalidInput("material_id must be a positive integer")
	}

	owned, err := as.materialRepo.GetByOwnerAndIDs(dbctx.Context{Ctx: ctx}, userID, []int64{in.MaterialID})
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, ErrMaterialsNotFound
	}

	chunks, err := as.retriever.Search(ctx, question, in.MaterialID, in.TopicID, retrievalTopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	blocks := make([]string, 0, len(chunks))
	sources := make([]AnswerSource, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, c.Content)
		sources = append(sources, AnswerSource{ChunkID: c.ChunkID, Page: c.Page})
	}

	answer, followups, err := as.llm.ChatWithFollowups(ctx, buildAnswerPrompt(question, blocks))
	if err != nil {
		as.log.Warn("answer generation failed", "material_id", in.MaterialID, "error", err.Error())
		return nil, err
	}
	if followups == nil {
		followups = []string{}
	}
	if len(followups) > maxFollowups {
		followups = followups[:maxFollowups]
	}
	return &AnswerResult{Answer: answer, Sources: sources, Followups: followups}, nil
}

func buildAnswerPrompt(question string, blocks []string) string {
	var b strings.Builder
	b.WriteString("You are a helpful tutoring assistant.\n\n")
	b.WriteString("Use ONLY the context below to answer the question.\n")
	b.WriteString("If something is unclear or missing, say so explicitly.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(blocks, contextSeparator))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nReturn a clear explanation suitable for a student.\n")
	return b.String()
}
