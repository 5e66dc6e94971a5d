package agent

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/tools"
)

const DefaultMaxIterations = 8

// Invoker is the bound toolset a loop may call.
type Invoker interface {
	Specs() []tools.Spec
	Invoke(ctx context.Context, name string, args string) (string, error)
}

type state int

const (
	stateReceived state = iota
	stateAssembled
	stateReasoning
	stateFinal
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateReceived:
		return "received"
	case stateAssembled:
		return "assembled"
	case stateReasoning:
		return "reasoning"
	case stateFinal:
		return "final"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// Loop drives one reason/act exchange with the model. A Loop holds no
// per-turn state and is safe for concurrent use.
type Loop struct {
	model         Model
	maxIterations int
	logger        logging.Logger
}

func NewLoop(model Model, maxIterations int, logger logging.Logger) *Loop {
	if maxIterations < 1 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{model: model, maxIterations: maxIterations, logger: logger.With("module", "agent-loop")}
}

// run is the state of a single turn.
type run struct {
	state      state
	iteration  int
	scratchpad []Message
	reply      string
	err        error
}

// Run sends conversation to the model, executes requested tool calls in
// order and feeds their results back until the model answers with plain
// content. It fails with ErrorAgentFailure on model errors or when the
// iteration cap is reached.
func (l *Loop) Run(ctx context.Context, invoker Invoker, conversation []Message) (string, error) {
	r := &run{state: stateReceived}

	for {
		switch r.state {
		case stateReceived:
			r.scratchpad = append(make([]Message, 0, len(conversation)+4), conversation...)
			r.state = stateAssembled

		case stateAssembled:
			r.state = stateReasoning

		case stateReasoning:
			if r.iteration >= l.maxIterations {
				r.err = fmt.Errorf("%w: no final answer after %d iterations", common.ErrorAgentFailure, l.maxIterations)
				r.state = stateFailed
				continue
			}
			r.iteration++
			l.step(ctx, invoker, r)

		case stateFinal:
			return r.reply, nil

		case stateFailed:
			l.logger.Warn(ctx, "agent loop failed", "iterations", r.iteration, "error", r.err)
			return "", r.err
		}
	}
}

func (l *Loop) step(ctx context.Context, invoker Invoker, r *run) {
	resp, err := l.model.Complete(ctx, Request{Messages: r.scratchpad, Tools: invoker.Specs()})
	if err != nil {
		r.err = fmt.Errorf("%w: %v", common.ErrorAgentFailure, err)
		r.state = stateFailed
		return
	}

	if len(resp.ToolCalls) == 0 {
		r.reply = resp.Content
		r.state = stateFinal
		return
	}

	r.scratchpad = append(r.scratchpad, Message{
		Role:      RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	for _, call := range resp.ToolCalls {
		result, err := invoker.Invoke(ctx, call.Name, call.Arguments)
		if err != nil {
			result = "Error: " + err.Error()
		}
		l.logger.Debug(ctx, "tool call", "iteration", r.iteration, "tool", call.Name, "ok", err == nil)

		r.scratchpad = append(r.scratchpad, Message{
			Role:       RoleTool,
			Content:    result,
			ToolCallID: call.ID,
		})
	}
}
