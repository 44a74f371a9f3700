// Package narrative assembles a project's questions and answers into a
// single block of proposal text.
package narrative

import (
	"fmt"
	"strings"

	"github.com/grantforge/grantforge/pkg/model"
)

const unanswered = "(no answer provided)"

func Compile(project *model.Project, questions []model.Question) string {
	var b strings.Builder

	b.WriteString(project.Name)
	b.WriteString("\n")
	if project.Description != "" {
		b.WriteString(project.Description)
		b.WriteString("\n")
	}

	for i, q := range questions {
		answer := strings.TrimSpace(q.Answer)
		if answer == "" {
			answer = unanswered
		}
		fmt.Fprintf(&b, "\n%d. %s\n%s\n", i+1, q.Text, answer)
	}

	return b.String()
}
