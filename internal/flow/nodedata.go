package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NodeData is the type-dependent payload of a node. Each documented node
// type has its own variant; any other type decodes to OpaqueData so custom
// node kinds survive untouched.
type NodeData interface {
	// Kind returns the node type this payload belongs to.
	Kind() NodeType

	extras() map[string]any
	setExtras(map[string]any)
}

// Extras holds payload keys a variant does not model.
type Extras struct {
	Extra map[string]any `json:"-"`
}

func (e *Extras) extras() map[string]any      { return e.Extra }
func (e *Extras) setExtras(m map[string]any) { e.Extra = m }

// InputData describes where data enters the flow.
type InputData struct {
	Source      string   `json:"source,omitempty"`
	Fields      []string `json:"fields,omitempty"`
	Description string   `json:"description,omitempty"`
	Extras
}

// OutputData describes what the flow emits.
type OutputData struct {
	Target      string   `json:"target,omitempty"`
	Format      string   `json:"format,omitempty"`
	Fields      []string `json:"fields,omitempty"`
	Description string   `json:"description,omitempty"`
	Extras
}

// ValidationData lists the checks a validation step performs.
type ValidationData struct {
	Rules     []string `json:"rules,omitempty"`
	OnFailure string   `json:"onFailure,omitempty"`
	Extras
}

// TransformData describes a data reshaping step.
type TransformData struct {
	Operation   string `json:"operation,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Description string `json:"description,omitempty"`
	Extras
}

// QueryData describes a read or write against a data store.
type QueryData struct {
	Store     string `json:"store,omitempty"`
	Operation string `json:"operation,omitempty"`
	Query     string `json:"query,omitempty"`
	Returns   string `json:"returns,omitempty"`
	Extras
}

// LogicData describes business logic in prose and steps.
type LogicData struct {
	Description string   `json:"description,omitempty"`
	Steps       []string `json:"steps,omitempty"`
	Extras
}

// CommandData describes a state-changing command.
type CommandData struct {
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	Effects []string `json:"effects,omitempty"`
	Extras
}

// EventData describes an emitted or consumed event.
type EventData struct {
	Event   string         `json:"event,omitempty"`
	Channel string         `json:"channel,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Extras
}

// ExternalData describes a call to another system.
type ExternalData struct {
	Service  string `json:"service,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Method   string `json:"method,omitempty"`
	Protocol string `json:"protocol,omitempty"`
	Extras
}

// Branch is one outcome of a condition node.
type Branch struct {
	When string `json:"when"`
	Goto string `json:"goto,omitempty"`
}

// ConditionData describes a branching decision.
type ConditionData struct {
	Expression string   `json:"expression,omitempty"`
	Branches   []Branch `json:"branches,omitempty"`
	Extras
}

// OpaqueData holds the payload of a node type this package does not know.
type OpaqueData struct {
	Type   NodeType
	Fields map[string]any
}

func (*InputData) Kind() NodeType      { return TypeInput }
func (*OutputData) Kind() NodeType     { return TypeOutput }
func (*ValidationData) Kind() NodeType { return TypeValidation }
func (*TransformData) Kind() NodeType  { return TypeTransform }
func (*QueryData) Kind() NodeType      { return TypeQuery }
func (*LogicData) Kind() NodeType      { return TypeLogic }
func (*CommandData) Kind() NodeType    { return TypeCommand }
func (*EventData) Kind() NodeType      { return TypeEvent }
func (*ExternalData) Kind() NodeType   { return TypeExternal }
func (*ConditionData) Kind() NodeType  { return TypeCondition }
func (o *OpaqueData) Kind() NodeType   { return o.Type }

func (o *OpaqueData) extras() map[string]any      { return o.Fields }
func (o *OpaqueData) setExtras(m map[string]any) { o.Fields = m }

// newNodeData returns an empty variant for t.
func newNodeData(t NodeType) NodeData {
	switch t {
	case TypeInput:
		return &InputData{}
	case TypeOutput:
		return &OutputData{}
	case TypeValidation:
		return &ValidationData{}
	case TypeTransform:
		return &TransformData{}
	case TypeQuery:
		return &QueryData{}
	case TypeLogic:
		return &LogicData{}
	case TypeCommand:
		return &CommandData{}
	case TypeEvent:
		return &EventData{}
	case TypeExternal:
		return &ExternalData{}
	case TypeCondition:
		return &ConditionData{}
	default:
		return &OpaqueData{Type: t}
	}
}

// DecodeNodeData decodes raw as the payload variant for t. A missing or
// null payload decodes to nil. A payload whose typed fields do not fit the
// variant (e.g. a number where a string is documented) falls back to
// OpaqueData rather than failing the whole document.
func DecodeNodeData(t NodeType, raw json.RawMessage) (NodeData, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("data must be an object")
	}

	d := newNodeData(t)
	if o, ok := d.(*OpaqueData); ok {
		if err := json.Unmarshal(trimmed, &o.Fields); err != nil {
			return nil, err
		}
		return o, nil
	}

	if err := json.Unmarshal(trimmed, d); err != nil {
		o := &OpaqueData{Type: t}
		if err := json.Unmarshal(trimmed, &o.Fields); err != nil {
			return nil, err
		}
		return o, nil
	}
	extra, err := unmarshalWithExtra(trimmed, d)
	if err != nil {
		return nil, err
	}
	d.setExtras(extra)
	return d, nil
}

// encodeNodeData renders a payload with its extra keys. nil encodes as {}.
func encodeNodeData(d NodeData) (json.RawMessage, error) {
	switch v := d.(type) {
	case nil:
		return json.RawMessage("{}"), nil
	case *OpaqueData:
		if v.Fields == nil {
			return json.RawMessage("{}"), nil
		}
		return json.Marshal(v.Fields)
	default:
		return marshalWithExtra(d, d.extras())
	}
}
