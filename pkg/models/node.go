// Package models defines the core domain types for the RankPilot
// orchestration engine: workflow nodes and edges, organizational roles,
// agent results, and synthesized plans.
package models

import (
	"encoding/json"
	"fmt"
)

// NodeKind identifies the behavior of a workflow node.
type NodeKind string

const (
	// NodeTrigger is the unique entry point of a workflow.
	NodeTrigger NodeKind = "trigger"
	// NodeAgent calls the language model with accumulated context.
	NodeAgent NodeKind = "agent"
	// NodeAction delivers the latest result over a single channel.
	NodeAction NodeKind = "action"
	// NodeReport delivers the full joined context to every recipient.
	NodeReport NodeKind = "report"
	// NodeCondition routes the walk down its true or false edge.
	NodeCondition NodeKind = "condition"
	// NodeDelay suspends the run for a bounded duration.
	NodeDelay NodeKind = "delay"
	// NodeSplit fans out to all outgoing edges concurrently.
	NodeSplit NodeKind = "split"
	// NodeMerge joins context from upstream branches.
	NodeMerge NodeKind = "merge"
)

// Valid returns true if the kind is a known value.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeTrigger, NodeAgent, NodeAction, NodeReport,
		NodeCondition, NodeDelay, NodeSplit, NodeMerge:
		return true
	default:
		return false
	}
}

// NodeConfig is the closed set of kind-specific node configurations.
// Exactly one concrete type exists per NodeKind; Node.UnmarshalJSON
// selects it from the node's kind so decoding an unknown kind fails
// instead of silently producing an untyped bag.
type NodeConfig interface {
	nodeConfig()
}

// TriggerConfig configures a trigger node.
type TriggerConfig struct {
	// TriggerType describes how the run was started (manual, schedule, webhook).
	TriggerType string `json:"triggerType,omitempty"`
}

// AgentConfig configures an agent node.
type AgentConfig struct {
	// AgentName is the display name used in prompts and logs.
	AgentName string `json:"agentName"`
	// AgentInstructions is the persona/system text for the model call.
	AgentInstructions string `json:"agentInstructions,omitempty"`
	// PromptTemplate is the node's own prompt, appended after prior context.
	PromptTemplate string `json:"promptTemplate"`
}

// ActionConfig configures an action node. The latest context value is
// substituted into the {{result}} placeholder of Template before delivery.
type ActionConfig struct {
	// Channel selects the delivery adapter (email, whatsapp, webhook, notification).
	Channel DeliveryChannel `json:"channel"`
	// Destinations lists the addresses to deliver to, one delivery each.
	Destinations []string `json:"destinations"`
	// Template is the message body with an optional {{result}} placeholder.
	Template string `json:"template"`
}

// ReportConfig configures a report node. The full joined context is
// substituted into the template and delivered to every channel/recipient pair.
type ReportConfig struct {
	// Template is the report body with an optional {{result}} placeholder.
	Template string `json:"template"`
	// Channels lists the delivery channels to use.
	Channels []DeliveryChannel `json:"channels"`
	// Recipients lists the destinations; each carries per-channel addresses.
	Recipients []Recipient `json:"recipients"`
}

// Recipient holds the per-channel addresses of one report destination.
type Recipient struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	URL   string `json:"url,omitempty"`
	// UserID addresses an internal notification inbox.
	UserID string `json:"userId,omitempty"`
}

// AddressFor returns the recipient's address for the given channel,
// or "" if the recipient has none.
func (r Recipient) AddressFor(ch DeliveryChannel) string {
	switch ch {
	case ChannelEmail:
		return r.Email
	case ChannelWhatsApp:
		return r.Phone
	case ChannelWebhook:
		return r.URL
	case ChannelNotification:
		return r.UserID
	default:
		return ""
	}
}

// ConditionOperator is the comparison applied by a condition node.
type ConditionOperator string

const (
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "not_contains"
	OpEquals      ConditionOperator = "equals"
	OpGreaterThan ConditionOperator = "greater_than"
	OpLessThan    ConditionOperator = "less_than"
	// OpExists tests that the latest context value is non-empty.
	OpExists ConditionOperator = "exists"
)

// ConditionConfig configures a condition node.
type ConditionConfig struct {
	// Field names the value under test; informational, the evaluation
	// always reads the latest context value.
	Field    string            `json:"field,omitempty"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
}

// DelayUnit is the time unit of a delay node.
type DelayUnit string

const (
	UnitSeconds DelayUnit = "seconds"
	UnitMinutes DelayUnit = "minutes"
	UnitHours   DelayUnit = "hours"
)

// DelayConfig configures a delay node.
type DelayConfig struct {
	Amount float64   `json:"amount"`
	Unit   DelayUnit `json:"unit"`
}

// SplitConfig configures a split node. Splits carry no options today;
// the type exists so every kind has a closed config.
type SplitConfig struct{}

// MergeType selects the read mode of a merge node.
type MergeType string

const (
	// MergeWaitAll joins all context values accumulated so far.
	MergeWaitAll MergeType = "wait_all"
	// MergeWaitAny returns only the most recent context value.
	MergeWaitAny MergeType = "wait_any"
)

// MergeConfig configures a merge node.
type MergeConfig struct {
	MergeType MergeType `json:"mergeType"`
}

func (TriggerConfig) nodeConfig()   {}
func (AgentConfig) nodeConfig()     {}
func (ActionConfig) nodeConfig()    {}
func (ReportConfig) nodeConfig()    {}
func (ConditionConfig) nodeConfig() {}
func (DelayConfig) nodeConfig()     {}
func (SplitConfig) nodeConfig()     {}
func (MergeConfig) nodeConfig()     {}

// Node is one unit of work in a user-authored workflow graph.
// Nodes are immutable once a run starts.
type Node struct {
	// ID is the unique identifier of the node within its graph.
	ID string `json:"id"`
	// Kind selects the node's handler.
	Kind NodeKind `json:"kind"`
	// Label is the display name shown on the canvas.
	Label string `json:"label,omitempty"`
	// Config is the kind-specific configuration.
	Config NodeConfig `json:"-"`

	// rawConfig preserves the persisted config bytes verbatim so a
	// decode/encode round trip is lossless.
	rawConfig json.RawMessage
}

// nodeJSON is the wire form of Node.
type nodeJSON struct {
	ID     string          `json:"id"`
	Kind   NodeKind        `json:"kind"`
	Label  string          `json:"label,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// UnmarshalJSON decodes a node, selecting the config type from the kind.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Kind.Valid() {
		return fmt.Errorf("node %s: unknown kind %q", w.ID, w.Kind)
	}

	cfg, err := decodeConfig(w.Kind, w.Config)
	if err != nil {
		return fmt.Errorf("node %s: %w", w.ID, err)
	}

	n.ID = w.ID
	n.Kind = w.Kind
	n.Label = w.Label
	n.Config = cfg
	n.rawConfig = w.Config
	return nil
}

// MarshalJSON encodes a node. The original config bytes are written back
// verbatim when the node came from a decode.
func (n Node) MarshalJSON() ([]byte, error) {
	raw := n.rawConfig
	if raw == nil && n.Config != nil {
		b, err := json.Marshal(n.Config)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(nodeJSON{ID: n.ID, Kind: n.Kind, Label: n.Label, Config: raw})
}

func decodeConfig(kind NodeKind, raw json.RawMessage) (NodeConfig, error) {
	if raw == nil {
		raw = json.RawMessage("{}")
	}

	var target any
	switch kind {
	case NodeTrigger:
		target = &TriggerConfig{}
	case NodeAgent:
		target = &AgentConfig{}
	case NodeAction:
		target = &ActionConfig{}
	case NodeReport:
		target = &ReportConfig{}
	case NodeCondition:
		target = &ConditionConfig{}
	case NodeDelay:
		target = &DelayConfig{}
	case NodeSplit:
		target = &SplitConfig{}
	case NodeMerge:
		target = &MergeConfig{}
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", kind, err)
	}

	switch c := target.(type) {
	case *TriggerConfig:
		return *c, nil
	case *AgentConfig:
		return *c, nil
	case *ActionConfig:
		return *c, nil
	case *ReportConfig:
		return *c, nil
	case *ConditionConfig:
		return *c, nil
	case *DelayConfig:
		return *c, nil
	case *SplitConfig:
		return *c, nil
	case *MergeConfig:
		return *c, nil
	}
	return nil, fmt.Errorf("unknown node kind %q", kind)
}

// Edge is a directed dependency between two nodes.
type Edge struct {
	// ID is the unique identifier of the edge within its graph.
	ID string `json:"id"`
	// Source is the node the edge leaves.
	Source string `json:"sourceNodeId"`
	// Target is the node the edge enters.
	Target string `json:"targetNodeId"`
	// SourceHandle disambiguates a condition node's outputs ("true"/"false").
	SourceHandle string `json:"sourceHandle,omitempty"`
}
