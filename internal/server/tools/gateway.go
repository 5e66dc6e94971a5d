package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"github.com/dmitrijs2005/gophtodo/internal/timex"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

type tool struct {
	spec   Spec
	schema *jsonschema.Schema
}

// Gateway owns the compiled tool catalogue. It holds no per-user state;
// Bind produces a Toolset for a single caller.
type Gateway struct {
	identity Identity
	ledger   Ledger
	logger   logging.Logger
	now      func() time.Time

	order []Kind
	tools map[Kind]*tool
}

func NewGateway(identity Identity, ledger Ledger, logger logging.Logger) (*Gateway, error) {
	g := &Gateway{
		identity: identity,
		ledger:   ledger,
		logger:   logger.With("module", "tools"),
		now:      time.Now,
		tools:    make(map[Kind]*tool, len(definitions)),
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	for _, d := range definitions {
		url := "mem://tools/" + string(d.kind) + ".json"
		if err := compiler.AddResource(url, strings.NewReader(d.schema)); err != nil {
			return nil, fmt.Errorf("tool %s: %w", d.kind, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", d.kind, err)
		}

		var compact bytes.Buffer
		if err := json.Compact(&compact, []byte(d.schema)); err != nil {
			return nil, fmt.Errorf("tool %s: %w", d.kind, err)
		}

		g.order = append(g.order, d.kind)
		g.tools[d.kind] = &tool{
			spec:   Spec{Name: d.kind, Description: d.description, Parameters: compact.Bytes()},
			schema: schema,
		}
	}

	return g, nil
}

// Specs lists the catalogue in a stable order.
func (g *Gateway) Specs() []Spec {
	out := make([]Spec, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.tools[k].spec)
	}
	return out
}

// Bind resolves token and returns a toolset acting as that user.
func (g *Gateway) Bind(ctx context.Context, token string) (*Toolset, error) {
	user, err := g.identity.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Toolset{gateway: g, user: user, logger: g.logger.With("user_id", user.ID)}, nil
}

// Toolset is a catalogue bound to one user. Every invocation is scoped to
// that user; there is no way to act for anyone else through it.
type Toolset struct {
	gateway *Gateway
	user    *models.User
	logger  logging.Logger
}

func (ts *Toolset) User() *models.User { return ts.user }

func (ts *Toolset) Specs() []Spec { return ts.gateway.Specs() }

// Invoke validates args against the tool's schema, runs the tool and returns
// its JSON result.
func (ts *Toolset) Invoke(ctx context.Context, name string, args string) (string, error) {
	t, ok := ts.gateway.tools[Kind(name)]
	if !ok {
		return "", fmt.Errorf("%w: unknown tool %q", common.ErrorInvalidArgument, name)
	}

	if strings.TrimSpace(args) == "" {
		args = "{}"
	}

	var decoded any
	if err := json.Unmarshal([]byte(args), &decoded); err != nil {
		return "", fmt.Errorf("%w: arguments are not valid JSON: %v", common.ErrorInvalidArgument, err)
	}
	if err := t.schema.Validate(decoded); err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrorInvalidArgument, schemaMessage(err))
	}

	ts.logger.Debug(ctx, "tool invoked", "tool", name)

	result, err := ts.dispatch(ctx, t.spec.Name, []byte(args))
	if err != nil {
		ts.logger.Debug(ctx, "tool failed", "tool", name, "error", err)
		return "", err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return string(out), nil
}

// schemaMessage flattens a validation error to its first leaf cause.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}

func (ts *Toolset) day(s string) (time.Time, error) {
	if s == "" {
		return ts.gateway.now().UTC(), nil
	}
	d, err := timex.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", common.ErrorInvalidArgument, s)
	}
	return d, nil
}

func (ts *Toolset) dispatch(ctx context.Context, kind Kind, raw []byte) (any, error) {
	owner := ts.user.ID
	ledger := ts.gateway.ledger

	switch kind {
	case CreateTask:
		var p createTaskParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return ledger.Create(ctx, owner, p.Description)

	case GetTask:
		var p taskIDParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return ledger.Get(ctx, owner, p.TaskID)

	case ListTasks:
		var p listTasksParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		d, err := ts.day(p.TargetDate)
		if err != nil {
			return nil, err
		}
		return ledger.List(ctx, owner, services.ListQuery{
			Status: p.Status, TargetDate: d, SortBy: p.SortBy, SortOrder: p.SortOrder, Limit: p.Limit, Offset: p.Offset,
		})

	case UpdateTask:
		var p updateTaskParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return ledger.Update(ctx, owner, p.TaskID, services.TaskUpdate{Description: p.Description, Status: p.Status})

	case DeleteTask:
		var p taskIDParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if err := ledger.Delete(ctx, owner, p.TaskID); err != nil {
			return nil, err
		}
		return messageResult{Message: "Task deleted successfully", Count: 1}, nil

	case DeleteTasks:
		var p deleteTasksParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		n, err := ledger.BatchDelete(ctx, owner, p.TaskIDs)
		if err != nil {
			return nil, err
		}
		return messageResult{Message: fmt.Sprintf("Successfully deleted %d tasks", n), Count: n}, nil

	case CountTasks:
		var p dateParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		d, err := ts.day(p.TargetDate)
		if err != nil {
			return nil, err
		}
		return ledger.Counts(ctx, owner, d)

	case MarkBacklog:
		n, err := ledger.SweepBacklog(ctx, owner, ts.gateway.now().UTC())
		if err != nil {
			return nil, err
		}
		return messageResult{Message: fmt.Sprintf("Marked %d tasks as backlog", n), Count: n}, nil
	}

	return nil, fmt.Errorf("%w: unknown tool %q", common.ErrorInvalidArgument, kind)
}
