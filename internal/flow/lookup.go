package flow

// FindNode returns the node with the given id and its index in f.Nodes.
func (f *Flow) FindNode(id string) (*Node, int, error) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i], i, nil
		}
	}
	return nil, -1, &NotFoundError{Kind: "node", ID: id}
}

// FindPhase returns the phase with the given id and its index in f.Phases.
func (f *Flow) FindPhase(id string) (*Phase, int, error) {
	for i := range f.Phases {
		if f.Phases[i].ID == id {
			return &f.Phases[i], i, nil
		}
	}
	return nil, -1, &NotFoundError{Kind: "phase", ID: id}
}

// PhaseOfNode returns the first phase whose node list contains nodeID.
// The node's own phase back-reference is not consulted.
func (f *Flow) PhaseOfNode(nodeID string) (*Phase, error) {
	for i := range f.Phases {
		if f.Phases[i].IndexOf(nodeID) >= 0 {
			return &f.Phases[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "phase containing node", ID: nodeID}
}

// HasNode reports whether a node with the given id exists.
func (f *Flow) HasNode(id string) bool {
	_, _, err := f.FindNode(id)
	return err == nil
}

// HasPhase reports whether a phase with the given id exists.
func (f *Flow) HasPhase(id string) bool {
	_, _, err := f.FindPhase(id)
	return err == nil
}

// PhaseNodes returns the node objects referenced by p, in phase order.
// References that do not resolve are skipped.
func (f *Flow) PhaseNodes(p *Phase) []Node {
	out := make([]Node, 0, len(p.Nodes))
	for _, id := range p.Nodes {
		if n, _, err := f.FindNode(id); err == nil {
			out = append(out, *n)
		}
	}
	return out
}

// IndexOf returns the position of nodeID in the phase's node list, or -1.
func (p *Phase) IndexOf(nodeID string) int {
	for i, id := range p.Nodes {
		if id == nodeID {
			return i
		}
	}
	return -1
}

// InsertAfter splices nodeID into the phase's node list immediately after
// afterID. An empty afterID appends. Returns false when afterID is given
// but not present.
func (p *Phase) InsertAfter(nodeID, afterID string) bool {
	if afterID == "" {
		p.Nodes = append(p.Nodes, nodeID)
		return true
	}
	idx := p.IndexOf(afterID)
	if idx < 0 {
		return false
	}
	p.Nodes = append(p.Nodes, "")
	copy(p.Nodes[idx+2:], p.Nodes[idx+1:])
	p.Nodes[idx+1] = nodeID
	return true
}

// RemoveNode drops every occurrence of nodeID from the phase's node list
// and reports whether anything was removed.
func (p *Phase) RemoveNode(nodeID string) bool {
	kept := p.Nodes[:0]
	removed := false
	for _, id := range p.Nodes {
		if id == nodeID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	p.Nodes = kept
	return removed
}
