// Package ai invokes the external completion service that reviews a
// proposal against a grant's stated purpose.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/grantforge/grantforge/pkg/config"
	"github.com/grantforge/grantforge/pkg/model"
)

var ErrEmptyResponse = errors.New("empty completion response")

// GrantInfo is the user-supplied grant metadata a review is scored against.
type GrantInfo struct {
	Purpose string `json:"purpose" binding:"required"`
	Funder  string `json:"funder"`
	Amount  string `json:"amount"`
}

// Reviewer is what the API layer depends on; tests substitute a stub.
type Reviewer interface {
	Review(ctx context.Context, project *model.Project, questions []model.Question, info GrantInfo) (prompt, response string, err error)
}

type ReviewClient struct {
	client    openai.Client
	model     string
	maxTokens int
}

func NewReviewClient(cfg config.AIConfig) *ReviewClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &ReviewClient{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

const systemPrompt = "You are a grant reviewer. Assess how well the proposal below addresses " +
	"the grant's stated purpose. Point out gaps, weak answers, and compliance risks. " +
	"Be specific and reference the numbered questions."

func (c *ReviewClient) Review(ctx context.Context, project *model.Project, questions []model.Question, info GrantInfo) (string, string, error) {
	prompt := BuildPrompt(project, questions, info)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return prompt, "", err
	}
	if len(resp.Choices) == 0 {
		return prompt, "", ErrEmptyResponse
	}

	return prompt, resp.Choices[0].Message.Content, nil
}

func BuildPrompt(project *model.Project, questions []model.Question, info GrantInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Grant purpose: %s\n", info.Purpose)
	if info.Funder != "" {
		fmt.Fprintf(&b, "Funder: %s\n", info.Funder)
	}
	if info.Amount != "" {
		fmt.Fprintf(&b, "Amount requested: %s\n", info.Amount)
	}

	fmt.Fprintf(&b, "\nProposal: %s\n", project.Name)
	if project.Description != "" {
		fmt.Fprintf(&b, "%s\n", project.Description)
	}
	if len(project.FocusAreas) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s\n", strings.Join([]string(project.FocusAreas), ", "))
	}

	for i, q := range questions {
		answer := strings.TrimSpace(q.Answer)
		if answer == "" {
			answer = "(unanswered)"
		}
		fmt.Fprintf(&b, "\nQ%d: %s\nA%d: %s\n", i+1, q.Text, i+1, answer)
	}

	return b.String()
}
