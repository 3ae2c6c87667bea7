package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rankpilot/rankpilot/internal/deliver"
	"github.com/rankpilot/rankpilot/internal/llm"
	"github.com/rankpilot/rankpilot/pkg/models"
)

// resultPlaceholder is substituted with context in action and report templates.
const resultPlaceholder = "{{result}}"

// maxDelay bounds a delay node's suspension so a synchronous run can
// never block indefinitely.
const maxDelay = 30 * time.Second

// Handler executes one node kind. Handlers never mutate the graph; their
// only side effects are calls to the external completion and delivery
// capabilities.
type Handler interface {
	Execute(ctx context.Context, node models.Node, rc *RunContext) (string, error)
}

// NodeExecutionError wraps a handler failure. It is isolated to one node
// and its downstream path; sibling branches keep running.
type NodeExecutionError struct {
	NodeID string
	Kind   models.NodeKind
	Err    error
}

// Error implements the error interface.
func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.NodeID, e.Kind, e.Err)
}

// Unwrap returns the underlying handler error.
func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// Registry holds the closed set of handlers, one per node kind. The
// executor fails on a kind with no registered handler, so adding a node
// kind is an explicit, compile-visible change here.
type Registry struct {
	handlers  map[models.NodeKind]Handler
	condition *ConditionHandler
}

// RegistryDeps carries the external capabilities handlers depend on.
type RegistryDeps struct {
	// Completer backs agent nodes. Required if the graph contains any.
	Completer llm.Completer
	// Delivery backs action and report nodes.
	Delivery *deliver.Registry
	// DelayCap overrides the delay bound; 0 keeps the 30s default.
	DelayCap time.Duration
}

// NewRegistry builds the handler set for one run configuration.
func NewRegistry(deps RegistryDeps) *Registry {
	delayCap := deps.DelayCap
	if delayCap <= 0 || delayCap > maxDelay {
		delayCap = maxDelay
	}

	cond := &ConditionHandler{}
	return &Registry{
		condition: cond,
		handlers: map[models.NodeKind]Handler{
			models.NodeTrigger:   &TriggerHandler{},
			models.NodeAgent:     &AgentHandler{Completer: deps.Completer},
			models.NodeAction:    &ActionHandler{Delivery: deps.Delivery},
			models.NodeReport:    &ReportHandler{Delivery: deps.Delivery},
			models.NodeCondition: cond,
			models.NodeDelay:     &DelayHandler{Cap: delayCap},
			models.NodeSplit:     &SplitHandler{},
			models.NodeMerge:     &MergeHandler{},
		},
	}
}

// Handler returns the handler for the given kind.
func (r *Registry) Handler(kind models.NodeKind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Condition returns the condition handler for branch evaluation.
func (r *Registry) Condition() *ConditionHandler {
	return r.condition
}

// TriggerHandler starts a run. It always succeeds with a constant marker.
type TriggerHandler struct{}

// Execute implements Handler.
func (h *TriggerHandler) Execute(_ context.Context, node models.Node, _ *RunContext) (string, error) {
	cfg, _ := node.Config.(models.TriggerConfig)
	if cfg.TriggerType != "" {
		return fmt.Sprintf("workflow started (%s)", cfg.TriggerType), nil
	}
	return "workflow started", nil
}

// AgentHandler calls the language model with the full accumulated context
// prepended to the node's own prompt template.
type AgentHandler struct {
	Completer llm.Completer
}

// Execute implements Handler.
func (h *AgentHandler) Execute(ctx context.Context, node models.Node, rc *RunContext) (string, error) {
	cfg, ok := node.Config.(models.AgentConfig)
	if !ok {
		return "", fmt.Errorf("agent node missing config")
	}
	if h.Completer == nil {
		return "", fmt.Errorf("no completion backend configured")
	}

	var prompt strings.Builder
	if prior := rc.All(); prior != "" {
		prompt.WriteString(prior)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString(cfg.PromptTemplate)

	system := cfg.AgentInstructions
	if system == "" && cfg.AgentName != "" {
		system = fmt.Sprintf("You are %s, an AI marketing agent.", cfg.AgentName)
	}

	text, err := h.Completer.Complete(ctx, system, prompt.String())
	if err != nil {
		return "", err
	}
	return text, nil
}

// ActionHandler substitutes the latest context value into the template and
// performs one delivery per configured destination.
type ActionHandler struct {
	Delivery *deliver.Registry
}

// Execute implements Handler.
func (h *ActionHandler) Execute(ctx context.Context, node models.Node, rc *RunContext) (string, error) {
	cfg, ok := node.Config.(models.ActionConfig)
	if !ok {
		return "", fmt.Errorf("action node missing config")
	}
	if h.Delivery == nil {
		return "", fmt.Errorf("no delivery backend configured")
	}
	if !cfg.Channel.Valid() {
		return "", fmt.Errorf("unknown delivery channel %q", cfg.Channel)
	}

	content := renderTemplate(cfg.Template, rc.Latest())

	var acks []string
	for _, dest := range cfg.Destinations {
		ack, err := h.Delivery.Deliver(ctx, cfg.Channel, dest, content)
		if err != nil {
			// Delivery failures never fail the node; they are recorded
			// in the acknowledgement list instead.
			debugLog("[action %s] delivery failed: %v", node.ID, err)
			acks = append(acks, fmt.Sprintf("delivery to %s failed: %v", dest, err))
			continue
		}
		acks = append(acks, ack)
	}

	if len(acks) == 0 {
		return "action executed (no destinations)", nil
	}
	return strings.Join(acks, "; "), nil
}

// ReportHandler substitutes the full joined context into the template and
// delivers it to every configured channel/recipient pair.
type ReportHandler struct {
	Delivery *deliver.Registry
}

// Execute implements Handler.
func (h *ReportHandler) Execute(ctx context.Context, node models.Node, rc *RunContext) (string, error) {
	cfg, ok := node.Config.(models.ReportConfig)
	if !ok {
		return "", fmt.Errorf("report node missing config")
	}
	if h.Delivery == nil {
		return "", fmt.Errorf("no delivery backend configured")
	}

	content := renderTemplate(cfg.Template, rc.All())

	var acks []string
	for _, ch := range cfg.Channels {
		for _, recipient := range cfg.Recipients {
			addr := recipient.AddressFor(ch)
			if addr == "" {
				continue
			}
			ack, err := h.Delivery.Deliver(ctx, ch, addr, content)
			if err != nil {
				debugLog("[report %s] delivery failed: %v", node.ID, err)
				acks = append(acks, fmt.Sprintf("delivery via %s to %s failed: %v", ch, addr, err))
				continue
			}
			acks = append(acks, ack)
		}
	}

	if len(acks) == 0 {
		return "report generated (no recipients)", nil
	}
	return strings.Join(acks, "; "), nil
}

// ConditionHandler evaluates its operator against the latest context value.
// Execute returns the input unchanged; Evaluate yields the boolean the
// executor uses to pick the true or false edge.
type ConditionHandler struct{}

// Execute implements Handler.
func (h *ConditionHandler) Execute(_ context.Context, node models.Node, rc *RunContext) (string, error) {
	if _, ok := node.Config.(models.ConditionConfig); !ok {
		return "", fmt.Errorf("condition node missing config")
	}
	return rc.Latest(), nil
}

// Evaluate applies the configured operator to the latest context value.
func (h *ConditionHandler) Evaluate(cfg models.ConditionConfig, latest string) (bool, error) {
	switch cfg.Operator {
	case models.OpContains:
		return strings.Contains(latest, cfg.Value), nil
	case models.OpNotContains:
		return !strings.Contains(latest, cfg.Value), nil
	case models.OpEquals:
		return strings.TrimSpace(latest) == cfg.Value, nil
	case models.OpGreaterThan, models.OpLessThan:
		left, err := parseNumeric(latest)
		if err != nil {
			return false, fmt.Errorf("context value is not numeric: %w", err)
		}
		right, err := strconv.ParseFloat(strings.TrimSpace(cfg.Value), 64)
		if err != nil {
			return false, fmt.Errorf("comparison value %q is not numeric: %w", cfg.Value, err)
		}
		if cfg.Operator == models.OpGreaterThan {
			return left > right, nil
		}
		return left < right, nil
	case models.OpExists:
		return strings.TrimSpace(latest) != "", nil
	default:
		return false, fmt.Errorf("unknown condition operator %q", cfg.Operator)
	}
}

// parseNumeric extracts the first number in a string so conditions can
// compare against model output like "score: 42".
func parseNumeric(s string) (float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-'
	})
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("no number found in %q", s)
}

// DelayHandler suspends the run, capped at Cap wall-clock time.
type DelayHandler struct {
	Cap time.Duration
}

// Execute implements Handler.
func (h *DelayHandler) Execute(ctx context.Context, node models.Node, _ *RunContext) (string, error) {
	cfg, ok := node.Config.(models.DelayConfig)
	if !ok {
		return "", fmt.Errorf("delay node missing config")
	}

	d := delayDuration(cfg)
	if d > h.Cap {
		d = h.Cap
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("waited %s", d), nil
}

func delayDuration(cfg models.DelayConfig) time.Duration {
	switch cfg.Unit {
	case models.UnitMinutes:
		return time.Duration(cfg.Amount * float64(time.Minute))
	case models.UnitHours:
		return time.Duration(cfg.Amount * float64(time.Hour))
	default:
		return time.Duration(cfg.Amount * float64(time.Second))
	}
}

// SplitHandler marks a fan-out point. The executor walks all outgoing
// edges concurrently; the node itself passes the latest value through.
type SplitHandler struct{}

// Execute implements Handler.
func (h *SplitHandler) Execute(_ context.Context, _ models.Node, rc *RunContext) (string, error) {
	return rc.Latest(), nil
}

// MergeHandler joins upstream context per its configured merge type.
type MergeHandler struct{}

// Execute implements Handler.
func (h *MergeHandler) Execute(_ context.Context, node models.Node, rc *RunContext) (string, error) {
	cfg, ok := node.Config.(models.MergeConfig)
	if !ok {
		return "", fmt.Errorf("merge node missing config")
	}
	if cfg.MergeType == models.MergeWaitAny {
		return rc.Latest(), nil
	}
	return rc.All(), nil
}

// renderTemplate substitutes value into the {{result}} placeholder. An
// empty template passes the value through unchanged.
func renderTemplate(template, value string) string {
	if template == "" {
		return value
	}
	return strings.ReplaceAll(template, resultPlaceholder, value)
}
