package editor

import (
	"fmt"

	"github.com/HendryAvila/flowdoc/internal/flow"
)

// UpdateNode deep-merges updates into the node and writes the document.
//
// Objects merge recursively; arrays and scalars replace (see
// flow.DeepMerge). The node id cannot change. When updates move the node
// to a different phase, the id is moved between the phases' node lists as
// well so the back-reference and the lists stay in agreement.
func (e *Editor) UpdateNode(flowID, nodeID string, updates map[string]any) (*flow.Node, error) {
	if len(updates) == 0 {
		return nil, flow.Malformedf("'updates' must contain at least one field")
	}
	f, err := e.store.Load(flowID)
	if err != nil {
		return nil, err
	}
	node, idx, err := f.FindNode(nodeID)
	if err != nil {
		return nil, err
	}

	base, err := flow.ToMap(node)
	if err != nil {
		return nil, fmt.Errorf("encoding node %q: %w", nodeID, err)
	}
	merged := flow.DeepMerge(base, updates)
	merged["id"] = nodeID

	var updated flow.Node
	if err := flow.FromMap(merged, &updated); err != nil {
		return nil, &flow.MalformedError{Msg: fmt.Sprintf("updated node %q does not decode", nodeID), Err: err}
	}

	if updated.Phase != node.Phase {
		if err := movePhase(f, nodeID, node.Phase, updated.Phase); err != nil {
			return nil, err
		}
	}

	f.Nodes[idx] = updated
	if err := e.persist(flowID, "update_node", "updated node "+nodeID, f); err != nil {
		return nil, err
	}
	return &updated, nil
}

// movePhase moves nodeID from the old phase's list to the end of the new
// one. An empty new phase just detaches the node. When the back-reference
// from is empty or stale, the old phase is the one whose list holds the id.
func movePhase(f *flow.Flow, nodeID, from, to string) error {
	var target *flow.Phase
	if to != "" {
		p, _, err := f.FindPhase(to)
		if err != nil {
			return err
		}
		target = p
	}
	var source *flow.Phase
	if from != "" {
		if p, _, err := f.FindPhase(from); err == nil && p.IndexOf(nodeID) >= 0 {
			source = p
		}
	}
	if source == nil {
		if p, err := f.PhaseOfNode(nodeID); err == nil {
			source = p
		}
	}
	if source != nil && source != target {
		source.RemoveNode(nodeID)
	}
	if target != nil && target.IndexOf(nodeID) < 0 {
		target.InsertAfter(nodeID, "")
	}
	return nil
}

// AddNode inserts a new node. node must carry id, type, label and an
// object data. With phaseID the id is also placed in that phase's node
// list, right after afterNodeID when given, otherwise at the end, and the
// node's phase back-reference is set.
func (e *Editor) AddNode(flowID string, node map[string]any, phaseID, afterNodeID string) (*flow.Node, error) {
	if err := requireNodeFields(node); err != nil {
		return nil, err
	}
	if afterNodeID != "" && phaseID == "" {
		return nil, flow.Malformedf("'after_node_id' requires 'phase_id'")
	}

	var n flow.Node
	if err := flow.FromMap(node, &n); err != nil {
		return nil, &flow.MalformedError{Msg: "node does not decode", Err: err}
	}

	f, err := e.store.Load(flowID)
	if err != nil {
		return nil, err
	}
	if f.HasNode(n.ID) {
		return nil, &flow.ConflictError{Kind: "node", ID: n.ID}
	}

	if phaseID != "" {
		phase, _, err := f.FindPhase(phaseID)
		if err != nil {
			return nil, err
		}
		if !phase.InsertAfter(n.ID, afterNodeID) {
			return nil, &flow.NotFoundError{Kind: fmt.Sprintf("node in phase %q", phaseID), ID: afterNodeID}
		}
		n.Phase = phaseID
	}

	f.Nodes = append(f.Nodes, n)
	if err := e.persist(flowID, "add_node", "added node "+n.ID, f); err != nil {
		return nil, err
	}
	return &n, nil
}

func requireNodeFields(node map[string]any) error {
	if node == nil {
		return flow.Malformedf("'node' is required")
	}
	for _, key := range []string{"id", "type", "label"} {
		s, ok := node[key].(string)
		if !ok || s == "" {
			return flow.Malformedf("node.%s is required and must be a non-empty string", key)
		}
	}
	if _, ok := node["data"].(map[string]any); !ok {
		return flow.Malformedf("node.data is required and must be an object")
	}
	return nil
}

// DeleteNodeResult summarises the bookkeeping done by DeleteNode.
type DeleteNodeResult struct {
	NodeID       string   `json:"node_id"`
	Phases       []string `json:"phases_updated"`
	EdgesRemoved int      `json:"edges_removed"`
}

// DeleteNode removes the node, drops its id from every phase that lists it
// and removes every edge that starts or ends at it.
func (e *Editor) DeleteNode(flowID, nodeID string) (*DeleteNodeResult, error) {
	f, err := e.store.Load(flowID)
	if err != nil {
		return nil, err
	}
	_, idx, err := f.FindNode(nodeID)
	if err != nil {
		return nil, err
	}

	res := &DeleteNodeResult{NodeID: nodeID, Phases: []string{}}
	f.Nodes = append(f.Nodes[:idx], f.Nodes[idx+1:]...)

	for i := range f.Phases {
		if f.Phases[i].RemoveNode(nodeID) {
			res.Phases = append(res.Phases, f.Phases[i].ID)
		}
	}

	if len(f.Edges) > 0 {
		kept := f.Edges[:0]
		for _, edge := range f.Edges {
			if edge.From == nodeID || edge.To == nodeID {
				res.EdgesRemoved++
				continue
			}
			kept = append(kept, edge)
		}
		f.Edges = kept
	}

	if err := e.persist(flowID, "delete_node", "deleted node "+nodeID, f); err != nil {
		return nil, err
	}
	return res, nil
}
