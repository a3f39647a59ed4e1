package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/openlearn-backend/internal/data/repos/testutil"
	"github.com/yungbote/openlearn-backend/internal/platform/llm"
)

func TestGenerateTreeMalformedFallsBackToTitle(t *testing.T) {
	client := &fakeLLM{reply: "I think you should start with basics."}
	synth := NewPrerequisiteSynthesizer(testutil.Logger(t), client)

	got, err := synth.GenerateTree(context.Background(), "Linear Algebra", nil, nil)
	if err != nil {
		t.Fatalf("GenerateTree: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Linear Algebra" || got[0].Parent != nil {
		t.Fatalf("fallback: got=%+v", got)
	}
	if got[0].Description != "Learning objective" {
		t.Fatalf("fallback description: got=%q", got[0].Description)
	}

	prompt := client.prompts[0]
	for _, want := range []string{`"Linear Algebra"`, "Develop a structured learning path.", "(no files)", "at most 6 nodes"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerateTreeParsesNodes(t *testing.T) {
	client := &fakeLLM{reply: "Here you go:\n```json\n" + `{"nodes":[
		{"name":" Vectors ","description":" Arrows with length ","parent":null},
		{"name":"Matrices","description":"Grids","parent":" Vectors "},
		{"name":"","description":"nameless"},
		{"name":"Determinants","parent":""},
		"junk"
	]}` + "\n```"}
	synth := NewPrerequisiteSynthesizer(testutil.Logger(t), client)

	objective := "Pass the exam"
	got, err := synth.GenerateTree(context.Background(), "Exam Prep", &objective, []MaterialDescriptor{{Filename: "week1.pdf"}, {Filename: "week2.pdf"}})
	if err != nil {
		t.Fatalf("GenerateTree: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("suggestions: want=3 got=%d (%+v)", len(got), got)
	}
	if got[0].Name != "Vectors" || got[0].Description != "Arrows with length" || got[0].Parent != nil {
		t.Fatalf("vectors: got=%+v", got[0])
	}
	if got[1].Parent == nil || *got[1].Parent != "Vectors" {
		t.Fatalf("matrices parent: got=%v", got[1].Parent)
	}
	if got[2].Name != "Determinants" || got[2].Parent != nil || got[2].Description != "" {
		t.Fatalf("determinants: got=%+v", got[2])
	}

	prompt := client.prompts[0]
	if !strings.Contains(prompt, "goal: Pass the exam.") || !strings.Contains(prompt, "- week1.pdf\n- week2.pdf") {
		t.Fatalf("prompt missing goal or materials:\n%s", prompt)
	}
}

func TestGenerateTreeUnusableNodesFallBack(t *testing.T) {
	objective := "Learn it"
	for _, reply := range []string{
		`{"nodes":[]}`,
		`{"nodes":"Vectors"}`,
		`{"items":[{"name":"x"}]}`,
		`{"nodes":[{"name":"  "},{"description":"d"}]}`,
		`[{"name":"x"}]`,
	} {
		synth := NewPrerequisiteSynthesizer(testutil.Logger(t), &fakeLLM{reply: reply})
		got, err := synth.GenerateTree(context.Background(), "Topic", &objective, nil)
		if err != nil {
			t.Fatalf("GenerateTree(%s): %v", reply, err)
		}
		if len(got) != 1 || got[0].Name != "Topic" || got[0].Description != "Learn it" {
			t.Fatalf("reply %s: want fallback got=%+v", reply, got)
		}
	}
}

func TestGenerateTreeTransportFailure(t *testing.T) {
	synth := NewPrerequisiteSynthesizer(testutil.Logger(t), &fakeLLM{err: errors.New("connection refused")})
	_, err := synth.GenerateTree(context.Background(), "Topic", nil, nil)
	if !errors.Is(err, ErrSynthesisFailure) {
		t.Fatalf("want ErrSynthesisFailure got=%v", err)
	}
}

func TestGenerateTreeEmptyCompletionFallsBack(t *testing.T) {
	objective := "Pass the final"
	for _, replyErr := range []error{llm.ErrEmptyCompletion, fmt.Errorf("openai chat: %w", llm.ErrEmptyCompletion)} {
		synth := NewPrerequisiteSynthesizer(testutil.Logger(t), &fakeLLM{err: replyErr})
		got, err := synth.GenerateTree(context.Background(), "Statistics", &objective, nil)
		if err != nil {
			t.Fatalf("GenerateTree(%v): %v", replyErr, err)
		}
		if len(got) != 1 || got[0].Name != "Statistics" || got[0].Description != objective || got[0].Parent != nil {
			t.Fatalf("fallback(%v): got=%+v", replyErr, got)
		}
	}
}

func TestGenerateTreeEmptyOllamaReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path: want=/api/chat got=%s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  "}}`))
	}))
	defer srv.Close()

	client := llm.NewOllama(testutil.Logger(t), llm.OllamaConfig{BaseURL: srv.URL, HTTPClient: srv.Client()})
	synth := NewPrerequisiteSynthesizer(testutil.Logger(t), client)

	got, err := synth.GenerateTree(context.Background(), "Calculus", nil, []MaterialDescriptor{{Filename: "limits.pdf"}})
	if err != nil {
		t.Fatalf("GenerateTree: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Calculus" || got[0].Description != "Learning objective" {
		t.Fatalf("fallback: got=%+v", got)
	}
}
