// Package flow is the document model for flowdoc: Flow documents describe a
// code path as ordered phases of typed nodes.
//
// The package holds the pure parts of the system:
// - types.go / nodedata.go: the document model and the node data union
// - lookup.go: structural navigation (find node, find phase)
// - validate.go: the format linter
// - merge.go: deep and shallow merge of partial updates
//
// Nothing here touches the filesystem; see internal/store for persistence
// and internal/editor for load-modify-persist operations.
package flow

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// FormatVersion is the version tag every strictly valid document carries.
const FormatVersion = "1.0"

// --- Node type enum ---

// NodeType is the kind of step a node represents.
type NodeType string

const (
	TypeInput      NodeType = "input"
	TypeOutput     NodeType = "output"
	TypeValidation NodeType = "validation"
	TypeTransform  NodeType = "transform"
	TypeQuery      NodeType = "query"
	TypeLogic      NodeType = "logic"
	TypeCommand    NodeType = "command"
	TypeEvent      NodeType = "event"
	TypeExternal   NodeType = "external"
	TypeCondition  NodeType = "condition"
)

// NodeTypes lists the documented node types in format order.
var NodeTypes = []NodeType{
	TypeInput, TypeOutput, TypeValidation, TypeTransform, TypeQuery,
	TypeLogic, TypeCommand, TypeEvent, TypeExternal, TypeCondition,
}

// IsKnown reports whether t is one of the documented node types.
func (t NodeType) IsKnown() bool {
	for _, k := range NodeTypes {
		if k == t {
			return true
		}
	}
	return false
}

// --- Core data structures ---

// Summary is the three-line description every flow must carry.
type Summary struct {
	Input   string `json:"input" jsonschema:"required"`
	Output  string `json:"output" jsonschema:"required"`
	Purpose string         `json:"purpose" jsonschema:"required"`
	Extra   map[string]any `json:"-"`
}

// Ref points at the source code a node describes. Purely descriptive.
type Ref struct {
	File     string `json:"file" jsonschema:"required"`
	Function string `json:"function,omitempty"`
	Class    string `json:"class,omitempty"`
	Line     int            `json:"line,omitempty"`
	Extra    map[string]any `json:"-"`
}

// Edge is an explicit transition between two nodes.
type Edge struct {
	From      string `json:"from" jsonschema:"required"`
	To        string `json:"to" jsonschema:"required"`
	Label     string `json:"label,omitempty"`
	Condition string         `json:"condition,omitempty"`
	Extra     map[string]any `json:"-"`
}

// Contract is a named input/output data-shape definition.
type Contract struct {
	ID          string         `json:"id" jsonschema:"required"`
	Name        string         `json:"name" jsonschema:"required"`
	Description string         `json:"description,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	Extra       map[string]any `json:"-"`
}

// Link points from a flow to another flow, document or URL.
type Link struct {
	Type        string `json:"type" jsonschema:"required"`
	Target      string `json:"target" jsonschema:"required"`
	Description string         `json:"description,omitempty"`
	Extra       map[string]any `json:"-"`
}

// ChangelogEntry is one append-only line of document history.
type ChangelogEntry struct {
	Date    string `json:"date"`
	Changes string `json:"changes"`
	Commit  string         `json:"commit,omitempty"`
	Extra   map[string]any `json:"-"`
}

// Metadata is the free-form record attached to a document.
type Metadata struct {
	Author    string           `json:"author,omitempty"`
	CreatedAt string           `json:"createdAt,omitempty"`
	UpdatedAt string           `json:"updatedAt,omitempty"`
	Tags      []string         `json:"tags,omitempty"`
	Changelog []ChangelogEntry `json:"changelog,omitempty"`
	Extra     map[string]any   `json:"-"`
}

// Phase is an ordered, named grouping of nodes. Nodes holds node ids in
// traversal order.
type Phase struct {
	ID          string         `json:"id" jsonschema:"required"`
	Name        string         `json:"name" jsonschema:"required"`
	Description string         `json:"description" jsonschema:"required"`
	Nodes       []string       `json:"nodes" jsonschema:"required"`
	Input       string         `json:"input,omitempty"`
	Output      string         `json:"output,omitempty"`
	Async       bool           `json:"async,omitempty"`
	Extra       map[string]any `json:"-"`
}

// Node is a typed step within a flow.
type Node struct {
	ID    string         `json:"id" jsonschema:"required"`
	Type  NodeType       `json:"type" jsonschema:"required,enum=input,enum=output,enum=validation,enum=transform,enum=query,enum=logic,enum=command,enum=event,enum=external,enum=condition"`
	Label string         `json:"label" jsonschema:"required"`
	Phase string         `json:"phase,omitempty"`
	Data  NodeData       `json:"data" jsonschema:"required"`
	Ref   *Ref           `json:"ref,omitempty"`
	Extra map[string]any `json:"-"`
}

// Flow is the root persisted document.
type Flow struct {
	Version   string         `json:"version" jsonschema:"required"`
	ID        string         `json:"id" jsonschema:"required"`
	Name      string         `json:"name" jsonschema:"required"`
	Summary   Summary        `json:"summary" jsonschema:"required"`
	Phases    []Phase        `json:"phases" jsonschema:"required"`
	Nodes     []Node         `json:"nodes" jsonschema:"required"`
	Edges     []Edge         `json:"edges,omitempty"`
	Contracts []Contract     `json:"contracts,omitempty"`
	Links     []Link         `json:"links,omitempty"`
	Metadata  *Metadata      `json:"metadata,omitempty"`
	Extra     map[string]any `json:"-"`
}

// New returns an empty document with the current version tag.
func New(id, name string, summary Summary) *Flow {
	return &Flow{
		Version: FormatVersion,
		ID:      id,
		Name:    name,
		Summary: summary,
		Phases:  []Phase{},
		Nodes:   []Node{},
	}
}

// --- JSON encoding ---

func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return marshalWithExtra(plain(s), s.Extra)
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	type plain Summary
	var p plain
	extra, err := unmarshalWithExtra(data, &p)
	if err != nil {
		return err
	}
	*s = Summary(p)
	s.Extra = extra
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	type plain Ref
	return marshalWithExtra(plain(r), r.Extra)
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	type plain Ref
	var p plain
	extra, err := unmarshalWithExtra(data, &p)
	if err != nil {
		return err
	}
	*r = Ref(p)
	r.Extra = extra
	return nil
}

func (e Edge) MarshalJSON() ([]byte, error) {
	type plain Edge
	return marshalWithExtra(plain(e), e.Extra)
}

func (e *Edge) UnmarshalJSON(data []byte) error {
	type plain Edge
	var p plain
	extra, err := unmarshalWithExtra(data, &p)
	if err != nil {
		return err
	}
	*e = Edge(p)
	e.Extra = extra
	return nil
}

func (c Contract) MarshalJSON() ([]byte, error) {
	type plain Contract
	return marshalWithExtra(plain(c), c.Extra)
}

func (c *Contract) UnmarshalJSON(data []byte) error {
	type plain Contract
	var p plain
	extra, err := unmarshalWithExtra(data, &p)
	if err != nil {
		return err
	}
	*c = Contract(p)
	c.Extra = extra
	return nil
}

func (l Link) MarshalJSON() ([]byte, error) {
	type plain Link
	return marshalWithExtra(plain(l), l.Extra)
}

func (l *Link) UnmarshalJSON(data []byte) error {
	type plain Link
	var p plain
	extra, err := unmarshalWithExtra(data, &p)
	if err != nil {
		return err
	}
	*l = Link(p)
	l.Extra = extra
	return nil
}

func (c ChangelogEntry) MarshalJSON() ([]byte, error) {
	type plain ChangelogEntry
	return marshalWithExtra(plain(c), c.Extra)
}

func (c *ChangelogEntry) UnmarshalJSON(data []byte) error {
	type plain ChangelogEntry
	var p plain
	extra, err := unmarshalWithExtra(data, &p)
	if err != nil {
		return err
	}
	*c = ChangelogEntry(p)
	c.Extra = extra
	return nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	type plain Metadata
	return marshalWithExtra(plain(m), m.Extra)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	var p plain
	extra, err := unmarshalWithExtra(data, &p)
	if err != nil {
		return err
	}
	*m = Metadata(p)
	m.Extra = extra
	return nil
}

func (p Phase) MarshalJSON() ([]byte, error) {
	type plain Phase
	if p.Nodes == nil {
		p.Nodes = []string{}
	}
	return marshalWithExtra(plain(p), p.Extra)
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	type plain Phase
	var pl plain
	extra, err := unmarshalWithExtra(data, &pl)
	if err != nil {
		return err
	}
	*p = Phase(pl)
	p.Extra = extra
	return nil
}

// nodeWire is the on-disk shape of a Node with data left undecoded.
type nodeWire struct {
	ID    string          `json:"id"`
	Type  NodeType        `json:"type"`
	Label string          `json:"label"`
	Phase string          `json:"phase,omitempty"`
	Data  json.RawMessage `json:"data"`
	Ref   *Ref            `json:"ref,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	data, err := encodeNodeData(n.Data)
	if err != nil {
		return nil, fmt.Errorf("node %q data: %w", n.ID, err)
	}
	return marshalWithExtra(nodeWire{
		ID:    n.ID,
		Type:  n.Type,
		Label: n.Label,
		Phase: n.Phase,
		Data:  data,
		Ref:   n.Ref,
	}, n.Extra)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	extra, err := unmarshalWithExtra(data, &w)
	if err != nil {
		return err
	}
	nd, err := DecodeNodeData(w.Type, w.Data)
	if err != nil {
		return fmt.Errorf("node %q data: %w", w.ID, err)
	}
	*n = Node{
		ID:    w.ID,
		Type:  w.Type,
		Label: w.Label,
		Phase: w.Phase,
		Data:  nd,
		Ref:   w.Ref,
		Extra: extra,
	}
	return nil
}

// JSONSchemaExtend describes data as an object; its shape depends on type.
func (Node) JSONSchemaExtend(s *jsonschema.Schema) {
	if s.Properties == nil {
		return
	}
	s.Properties.Set("data", &jsonschema.Schema{
		Type:        "object",
		Description: "Type-dependent payload. Shape follows the node type; unknown keys are kept.",
	})
}

func (f Flow) MarshalJSON() ([]byte, error) {
	type plain Flow
	if f.Phases == nil {
		f.Phases = []Phase{}
	}
	if f.Nodes == nil {
		f.Nodes = []Node{}
	}
	return marshalWithExtra(plain(f), f.Extra)
}

func (f *Flow) UnmarshalJSON(data []byte) error {
	type plain Flow
	var p plain
	extra, err := unmarshalWithExtra(data, &p)
	if err != nil {
		return err
	}
	*f = Flow(p)
	f.Extra = extra
	return nil
}

// Parse decodes a document from JSON.
func Parse(data []byte) (*Flow, error) {
	var f Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &MalformedError{Msg: "parsing flow document", Err: err}
	}
	return &f, nil
}

// Encode renders a document as two-space indented JSON with a trailing newline.
func Encode(f *Flow) ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding flow %q: %w", f.ID, err)
	}
	return append(data, '\n'), nil
}

// ToMap converts any JSON-encodable value into its generic decoded form.
func ToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap decodes a generic value into a typed one.
func FromMap(m any, v any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
