package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/tools"
)

// Apology is the reply recorded when a turn cannot be completed.
const Apology = "I'm sorry, I'm having trouble processing your request right now. Please try again later."

const DefaultHistoryLimit = 30

type Transcript interface {
	Append(ctx context.Context, conversationID string, isUser bool, content string) (*models.Message, error)
	Recent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
}

type Binder interface {
	Bind(ctx context.Context, token string) (*tools.Toolset, error)
}

type TurnInput struct {
	User    *models.User
	Token   string
	Message string
	Now     time.Time
}

type TurnResult struct {
	Reply     string
	MessageID string

	UserMessage  *models.Message
	AgentMessage *models.Message
}

type Orchestrator struct {
	gateway      Binder
	transcripts  Transcript
	loop         *Loop
	historyLimit int
	logger       logging.Logger
}

func NewOrchestrator(gateway Binder, transcripts Transcript, loop *Loop, historyLimit int, logger logging.Logger) *Orchestrator {
	if historyLimit < 1 {
		historyLimit = DefaultHistoryLimit
	}
	return &Orchestrator{
		gateway:      gateway,
		transcripts:  transcripts,
		loop:         loop,
		historyLimit: historyLimit,
		logger:       logger.With("module", "agent"),
	}
}

// Turn records the user's message, answers it and records the answer.
// Agent failures turn into the Apology reply; only transcript errors are
// returned.
func (o *Orchestrator) Turn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	conversationID := in.User.ConversationID

	userMsg, err := o.transcripts.Append(ctx, conversationID, true, in.Message)
	if err != nil {
		return nil, fmt.Errorf("error recording user message: %w", err)
	}

	reply, err := o.answer(ctx, in, userMsg)
	if err != nil {
		o.logger.Error(ctx, "chat turn failed", "user_id", in.User.ID, "error", err)
		reply = Apology
	}

	// the reply is stored even if the caller has gone away
	agentMsg, err := o.transcripts.Append(context.WithoutCancel(ctx), conversationID, false, reply)
	if err != nil {
		return nil, fmt.Errorf("error recording agent reply: %w", err)
	}

	return &TurnResult{Reply: reply, MessageID: agentMsg.ID, UserMessage: userMsg, AgentMessage: agentMsg}, nil
}

func (o *Orchestrator) answer(ctx context.Context, in TurnInput, userMsg *models.Message) (string, error) {
	history, err := o.transcripts.Recent(ctx, in.User.ConversationID, o.historyLimit+1)
	if err != nil {
		return "", err
	}

	toolset, err := o.gateway.Bind(ctx, in.Token)
	if err != nil {
		return "", fmt.Errorf("bind tools: %w", err)
	}
	if toolset.User().ID != in.User.ID {
		return "", errors.New("bind tools: token does not belong to the caller")
	}

	conversation := make([]Message, 0, len(history)+2)
	conversation = append(conversation, Message{Role: RoleSystem, Content: SystemPrompt(in.User, in.Now)})
	conversation = append(conversation, historyMessages(history, userMsg.ID, o.historyLimit)...)
	conversation = append(conversation, Message{Role: RoleUser, Content: in.Message})

	return o.loop.Run(ctx, toolset, conversation)
}

// historyMessages drops the current message and keeps the latest limit.
func historyMessages(history []*models.Message, exclude string, limit int) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if m.ID == exclude {
			continue
		}
		role := RoleAssistant
		if m.IsUser {
			role = RoleUser
		}
		out = append(out, Message{Role: role, Content: m.Content})
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
