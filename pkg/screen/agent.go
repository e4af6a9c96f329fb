package screen

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// Model used for resume screening.
const screenModel = "gemini-2.5-pro"

const agentName = "resume screener"

// Agent wraps the ADK Gemini agent that scores resumes against a job
// description.
type Agent struct {
	name     string
	runner   *runner.Runner
	sessions session.Service
}

// NewAgent builds the screening agent and its runner. Agent sessions
// live in memory: one exists only for the duration of a queue message.
func NewAgent(ctx context.Context, apiKey string) (*Agent, error) {
	model, err := gemini.NewModel(ctx, screenModel, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}

	screener, err := llmagent.New(llmagent.Config{
		Name:        agentName,
		Model:       model,
		Description: "Scores candidate resumes against a job description",
		Instruction: screenInstruction,
	})
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        screener.Name(),
		Agent:          screener,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}

	return &Agent{name: screener.Name(), runner: r, sessions: sessions}, nil
}

// conversation identifies one registered agent session so it can be
// cleaned up when the batch is done.
type conversation struct {
	appName string
	userID  string
	id      string
}

func (a *Agent) startConversation(ctx context.Context, userID, sessionID string) (*conversation, error) {
	resp, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.name,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}
	return &conversation{
		appName: resp.Session.AppName(),
		userID:  resp.Session.UserID(),
		id:      resp.Session.ID(),
	}, nil
}

func (a *Agent) endConversation(ctx context.Context, conv *conversation) error {
	return a.sessions.Delete(ctx, &session.DeleteRequest{
		AppName:   conv.appName,
		UserID:    conv.userID,
		SessionID: conv.id,
	})
}

// screen runs one resume through the agent and returns its final
// reply. The run stream is drained to the end; only the final
// response text matters here.
func (a *Agent) screen(ctx context.Context, conv *conversation, message string) (string, error) {
	stream := a.runner.Run(ctx, conv.userID, conv.id, &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: message},
		},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", err
		}
		if event != nil && event.IsFinalResponse() && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}

	if output == "" {
		return "", errors.New("empty agent response")
	}
	return output, nil
}
