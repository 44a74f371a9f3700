package narrative

import (
	"strings"
	"testing"

	"github.com/grantforge/grantforge/pkg/model"
)

func TestCompile(t *testing.T) {
	project := &model.Project{
		Name:        "After-School Tutoring",
		Description: "Tutoring for middle schoolers.",
	}
	questions := []model.Question{
		{Text: "What is the goal?", Answer: "Improve reading scores."},
		{Text: "Who is served?", Answer: ""},
	}

	text := Compile(project, questions)

	if !strings.HasPrefix(text, "After-School Tutoring\nTutoring for middle schoolers.\n") {
		t.Fatalf("unexpected header: %q", text)
	}
	if !strings.Contains(text, "1. What is the goal?\nImprove reading scores.\n") {
		t.Fatalf("missing first section: %q", text)
	}
	if !strings.Contains(text, "2. Who is served?\n(no answer provided)\n") {
		t.Fatalf("missing placeholder for unanswered question: %q", text)
	}
}

func TestCompileNoDescription(t *testing.T) {
	project := &model.Project{Name: "Bare Project"}

	text := Compile(project, nil)
	if text != "Bare Project\n" {
		t.Fatalf("unexpected output: %q", text)
	}
}
