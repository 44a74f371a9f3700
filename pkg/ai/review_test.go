package ai

import (
	"strings"
	"testing"

	"github.com/grantforge/grantforge/pkg/model"
)

func TestBuildPrompt(t *testing.T) {
	project := &model.Project{
		Name:        "Community Garden",
		Description: "Raised beds on vacant lots.",
		FocusAreas:  model.StringList{"food security", "education"},
	}
	questions := []model.Question{
		{Text: "What is the timeline?", Answer: "Planting starts in spring."},
		{Text: "Who maintains the beds?", Answer: "  "},
	}
	info := GrantInfo{Purpose: "urban agriculture", Funder: "Green Fund", Amount: "25000"}

	prompt := BuildPrompt(project, questions, info)

	for _, want := range []string{
		"Grant purpose: urban agriculture",
		"Funder: Green Fund",
		"Amount requested: 25000",
		"Proposal: Community Garden",
		"Focus areas: food security, education",
		"Q1: What is the timeline?",
		"A1: Planting starts in spring.",
		"A2: (unanswered)",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptOmitsEmptyMetadata(t *testing.T) {
	project := &model.Project{Name: "Bare"}
	prompt := BuildPrompt(project, nil, GrantInfo{Purpose: "anything"})

	if strings.Contains(prompt, "Funder:") || strings.Contains(prompt, "Amount requested:") {
		t.Fatalf("empty metadata lines should be omitted:\n%s", prompt)
	}
	if strings.Contains(prompt, "Focus areas:") {
		t.Fatalf("empty focus areas should be omitted:\n%s", prompt)
	}
}
