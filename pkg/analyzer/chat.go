package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/skillsetz/careercraft/pkg/profile"
	"github.com/skillsetz/careercraft/pkg/storage"
)

// Chat answers a follow-up question about a stored analysis and
// appends both turns to its transcript. The transcript only ever
// contains answered turns.
func (a *Analyzer) Chat(ctx context.Context, analysisID int64, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("message is required")
	}

	stored, err := a.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return "", err
	}
	transcript, err := a.store.Messages(ctx, analysisID)
	if err != nil {
		return "", err
	}

	prof := a.profiles.Current()
	if prof == nil {
		prof = &profile.Profile{}
	}

	reply, err := a.provider.Complete(ctx, chatPrompt(prof, stored, transcript, message))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	reply = strings.TrimSpace(reply)

	if err := a.store.AppendMessage(ctx, analysisID, storage.ChatMessage{Role: storage.RoleUser, Content: message}); err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	if err := a.store.AppendMessage(ctx, analysisID, storage.ChatMessage{Role: storage.RoleAssistant, Content: reply}); err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	return reply, nil
}
