package service

import (
	"context"
	"fmt"

	"github.com/systematicmess/calendar-assistant/internal/action"
	"github.com/systematicmess/calendar-assistant/internal/dto"
	"github.com/systematicmess/calendar-assistant/internal/entity"
	"github.com/systematicmess/calendar-assistant/internal/httpclient"
	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
	"github.com/systematicmess/calendar-assistant/internal/session"
)

const chatModule = "chat"

type IChatService interface {
	// Send submits one chat turn and records it in the transcript.
	Send(ctx context.Context, message string) (string, error)
	State() action.Snapshot[string]
	OnChange(fn func(action.Snapshot[string]))
	Transcript() *entity.Transcript
}

type chatService struct {
	sessions   *session.Store
	mutation   *action.Mutation[string, string]
	transcript *entity.Transcript
	log        logger.ILogger
}

func NewChatService(client *httpclient.Client, sessions *session.Store, log logger.ILogger) IChatService {
	s := &chatService{
		sessions:   sessions,
		transcript: entity.NewTranscript(),
		log:        log,
	}
	s.mutation = action.NewMutation(func(ctx context.Context, message string) (string, error) {
		// The session is read when the turn is sent, not when the service was built.
		id, ok := sessions.Current()
		if !ok {
			return "", ErrNotAuthenticated
		}

		var res dto.ChatResponse
		err := client.PostJSON(
			httpclient.WithSession(ctx, id),
			"/agent/chat",
			dto.ChatRequest{SessionID: id, Message: message},
			&res,
		)
		if err != nil {
			return "", fmt.Errorf("chat turn: %w", err)
		}
		return res.Reply, nil
	})
	return s
}

// Send ignores blank input. Each call is independent; callers serialize turns
// if they need to.
func (s *chatService) Send(ctx context.Context, message string) (string, error) {
	if !s.transcript.AddUser(message) {
		return "", nil
	}

	reply, err := s.mutation.Submit(ctx, message)
	if err != nil {
		s.log.Warn(chatModule, "chat turn failed", map[string]interface{}{"error": err})
		s.transcript.AddFailure()
		return "", err
	}
	s.transcript.AddReply(reply)
	return reply, nil
}

func (s *chatService) State() action.Snapshot[string] {
	return s.mutation.State()
}

func (s *chatService) OnChange(fn func(action.Snapshot[string])) {
	s.mutation.OnChange(fn)
}

func (s *chatService) Transcript() *entity.Transcript {
	return s.transcript
}
