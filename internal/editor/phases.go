package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/flowdoc/internal/flow"
)

// UpdatePhase shallow-merges updates into the phase: each top-level key
// replaces the old value, nested values are not merged. The phase id cannot
// change.
func (e *Editor) UpdatePhase(flowID, phaseID string, updates map[string]any) (*flow.Phase, error) {
	if len(updates) == 0 {
		return nil, flow.Malformedf("'updates' must contain at least one field")
	}
	f, err := e.store.Load(flowID)
	if err != nil {
		return nil, err
	}
	phase, idx, err := f.FindPhase(phaseID)
	if err != nil {
		return nil, err
	}

	base, err := flow.ToMap(phase)
	if err != nil {
		return nil, fmt.Errorf("encoding phase %q: %w", phaseID, err)
	}
	merged := flow.ShallowMerge(base, updates)
	merged["id"] = phaseID

	var updated flow.Phase
	if err := flow.FromMap(merged, &updated); err != nil {
		return nil, &flow.MalformedError{Msg: fmt.Sprintf("updated phase %q does not decode", phaseID), Err: err}
	}

	f.Phases[idx] = updated
	if err := e.persist(flowID, "update_phase", "updated phase "+phaseID, f); err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddPhase inserts a new phase after afterPhaseID, or at the end. Node ids
// listed by the new phase get their phase back-reference set when they
// exist and have none yet.
func (e *Editor) AddPhase(flowID string, phase map[string]any, afterPhaseID string) (*flow.Phase, error) {
	if phase == nil {
		return nil, flow.Malformedf("'phase' is required")
	}
	for _, key := range []string{"id", "name", "description"} {
		if s, ok := phase[key].(string); !ok || s == "" {
			return nil, flow.Malformedf("phase.%s is required and must be a non-empty string", key)
		}
	}
	if _, present := phase["nodes"]; !present {
		phase = flow.DeepCopyMap(phase)
		phase["nodes"] = []any{}
	}

	var p flow.Phase
	if err := flow.FromMap(phase, &p); err != nil {
		return nil, &flow.MalformedError{Msg: "phase does not decode", Err: err}
	}

	f, err := e.store.Load(flowID)
	if err != nil {
		return nil, err
	}
	if f.HasPhase(p.ID) {
		return nil, &flow.ConflictError{Kind: "phase", ID: p.ID}
	}

	pos := len(f.Phases)
	if afterPhaseID != "" {
		_, idx, err := f.FindPhase(afterPhaseID)
		if err != nil {
			return nil, err
		}
		pos = idx + 1
	}
	f.Phases = append(f.Phases, flow.Phase{})
	copy(f.Phases[pos+1:], f.Phases[pos:])
	f.Phases[pos] = p

	for _, id := range p.Nodes {
		if n, _, err := f.FindNode(id); err == nil && n.Phase == "" {
			n.Phase = p.ID
		}
	}

	if err := e.persist(flowID, "add_phase", "added phase "+p.ID, f); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePhase removes a phase. Its nodes stay in the document with their
// phase back-reference cleared.
func (e *Editor) DeletePhase(flowID, phaseID string) (*flow.Phase, error) {
	f, err := e.store.Load(flowID)
	if err != nil {
		return nil, err
	}
	phase, idx, err := f.FindPhase(phaseID)
	if err != nil {
		return nil, err
	}
	removed := *phase
	f.Phases = append(f.Phases[:idx], f.Phases[idx+1:]...)

	for i := range f.Nodes {
		if f.Nodes[i].Phase == phaseID {
			f.Nodes[i].Phase = ""
		}
	}

	if err := e.persist(flowID, "delete_phase", "deleted phase "+phaseID, f); err != nil {
		return nil, err
	}
	return &removed, nil
}

// UpdateMetadata shallow-merges updates into the document metadata,
// creating it when absent, stamps updatedAt with the current time and, when
// changelog is non-empty, appends a {date, changes} entry dated today.
func (e *Editor) UpdateMetadata(flowID string, updates map[string]any, changelog string) (*flow.Metadata, error) {
	f, err := e.store.Load(flowID)
	if err != nil {
		return nil, err
	}

	base := map[string]any{}
	if f.Metadata != nil {
		if base, err = flow.ToMap(f.Metadata); err != nil {
			return nil, fmt.Errorf("encoding metadata: %w", err)
		}
	}
	for k, v := range updates {
		base[k] = flow.DeepCopy(v)
	}

	var md flow.Metadata
	if err := flow.FromMap(base, &md); err != nil {
		return nil, &flow.MalformedError{Msg: "updated metadata does not decode", Err: err}
	}

	now := timeNow().UTC()
	md.UpdatedAt = now.Format(time.RFC3339)
	if text := strings.TrimSpace(changelog); text != "" {
		entry := flow.ChangelogEntry{Date: now.Format("2006-01-02"), Changes: text}
		if e.commits != nil {
			entry.Commit = e.commits.Commit()
		}
		md.Changelog = append(md.Changelog, entry)
	}

	f.Metadata = &md
	summary := "updated metadata"
	if changelog != "" {
		summary = changelog
	}
	if err := e.persist(flowID, "update_metadata", summary, f); err != nil {
		return nil, err
	}
	return &md, nil
}
