package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/openlearn-backend/internal/platform/apierr"
	"github.com/yungbote/openlearn-backend/internal/platform/llm"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

const (
	defaultGoal              = "Develop a structured learning path."
	defaultFallbackObjective = "Learning objective"
)

type MaterialDescriptor struct {
	Filename string
}

// Suggestion is one proposed concept. Parent names another suggestion of the
// same batch, or is nil for a root.
type Suggestion struct {
	Name        string
	Description string
	Parent      *string
}

type PrerequisiteSynthesizer interface {
	// GenerateTree always returns at least one suggestion. The only error is
	// ErrSynthesisFailure when the model cannot be reached.
	GenerateTree(ctx context.Context, title string, objective *string, materials []MaterialDescriptor) ([]Suggestion, error)
}

type prerequisiteSynthesizer struct {
	log *logger.Logger
	llm llm.Client
}

func NewPrerequisiteSynthesizer(log *logger.Logger, client llm.Client) PrerequisiteSynthesizer {
	return &prerequisiteSynthesizer{
		log: log.With("service", "PrerequisiteSynthesizer"),
		llm: client,
	}
}

func (ps *prerequisiteSynthesizer) GenerateTree(ctx context.Context, title string, objective *string, materials []MaterialDescriptor) ([]Suggestion, error) {
	prompt := buildPrerequisitePrompt(title, objective, materials)
	raw, err := ps.llm.Chat(ctx, prompt)
	if errors.Is(err, llm.ErrEmptyCompletion) {
		raw, err = "", nil
	}
	if err != nil {
		ps.log.Warn("prerequisite synthesis failed", "error", err.Error())
		return nil, apierr.Wrap(ErrSynthesisFailure, err)
	}
	return parseSuggestions(raw, title, objective), nil
}

func buildPrerequisitePrompt(title string, objective *string, materials []MaterialDescriptor) string {
	goal := defaultGoal
	if objective != nil && *objective != "" {
		goal = *objective
	}
	lines := make([]string, 0, len(materials))
	for _, m := range materials {
		name := m.Filename
		if name == "" {
			name = "Unknown material"
		}
		lines = append(lines, "- "+name)
	}
	block := "(no files)"
	if len(lines) > 0 {
		block = strings.Join(lines, "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert learning designer. A student created a learning session called \"%s\".\n", title)
	fmt.Fprintf(&b, "They want to accomplish the following goal: %s.\n", goal)
	b.WriteString("They will study the following materials:\n")
	b.WriteString(block)
	b.WriteString("\n\n")
	b.WriteString("Propose a prerequisite tree that a student can follow. Return STRICT JSON with the following shape:\n")
	b.WriteString(`{ "nodes": [ { "name": "Concept name", "description": "1-2 sentence summary of the concept", "parent": "Parent concept name or null if this is the root" } ] }`)
	b.WriteString("\nLimit yourself to at most 6 nodes and keep names short.\n")
	return b.String()
}

// parseSuggestions never fails: anything unusable collapses to a single root
// named after the session.
func parseSuggestions(raw, title string, objective *string) []Suggestion {
	fallback := func() []Suggestion {
		desc := defaultFallbackObjective
		if objective != nil && *objective != "" {
			desc = *objective
		}
		return []Suggestion{{Name: title, Description: desc}}
	}

	payload, ok := decodeObject(raw)
	if !ok {
		payload, ok = decodeObject(llm.ExtractJSONObject(raw))
	}
	if !ok {
		return fallback()
	}
	nodes, isList := payload["nodes"].([]any)
	if !isList || len(nodes) == 0 {
		return fallback()
	}

	out := make([]Suggestion, 0, len(nodes))
	for _, n := range nodes {
		node, isObj := n.(map[string]any)
		if !isObj {
			continue
		}
		name := strings.TrimSpace(scalarString(node["name"]))
		if name == "" {
			continue
		}
		s := Suggestion{
			Name:        name,
			Description: strings.TrimSpace(scalarString(node["description"])),
		}
		if parent := strings.TrimSpace(scalarString(node["parent"])); parent != "" {
			s.Parent = &parent
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return fallback()
	}
	return out
}

func decodeObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, json.Number:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
