// Package editor implements the load-modify-persist operations over flow
// documents: targeted node/phase/metadata mutations and the generic
// all-or-nothing patch.
//
// Every operation loads the whole document, applies one logical change and
// writes the whole document back. Targeted operations trust the caller's
// input shape and do not revalidate; PatchFlow and WriteFlow revalidate and
// refuse to persist an invalid result.
package editor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/store"
	"go.uber.org/zap"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Recorder receives every successfully persisted document. It is optional
// (nil-safe): without one, edits are simply not recorded.
type Recorder interface {
	Record(flowID, op, summary string, content []byte) error
}

// CommitSource reports the current source revision, if any.
type CommitSource interface {
	Commit() string
}

// Editor performs mutations against a document store.
type Editor struct {
	store    store.Store
	recorder Recorder
	commits  CommitSource
	log      *zap.Logger
}

// New creates an Editor over the given store.
func New(s store.Store, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{store: s, log: log}
}

// SetRecorder injects an optional revision recorder.
func (e *Editor) SetRecorder(r Recorder) { e.recorder = r }

// SetCommitSource injects an optional source of commit ids for changelog entries.
func (e *Editor) SetCommitSource(c CommitSource) { e.commits = c }

// Store returns the underlying document store.
func (e *Editor) Store() store.Store { return e.store }

// Load reads a document by id.
func (e *Editor) Load(flowID string) (*flow.Flow, error) {
	return e.store.Load(flowID)
}

// persist writes f and hands the result to the recorder.
func (e *Editor) persist(flowID, op, summary string, f *flow.Flow) error {
	if err := e.store.Save(flowID, f); err != nil {
		return err
	}
	data, err := flow.Encode(f)
	if err != nil {
		e.log.Warn("encoding revision failed", zap.String("flow", flowID), zap.Error(err))
		return nil
	}
	e.persisted(flowID, op, summary, data)
	return nil
}

// persistBytes writes already-encoded document bytes.
func (e *Editor) persistBytes(flowID, op, summary string, data []byte) error {
	if err := e.store.SaveRaw(flowID, data); err != nil {
		return err
	}
	e.persisted(flowID, op, summary, data)
	return nil
}

// persisted logs a completed write and records it. Recording is
// best-effort: a failing recorder is logged, never surfaced.
func (e *Editor) persisted(flowID, op, summary string, data []byte) {
	e.log.Info("flow persisted",
		zap.String("flow", store.DocName(flowID)),
		zap.String("op", op),
		zap.String("summary", summary),
	)
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(store.DocName(flowID), op, summary, data); err != nil {
		e.log.Warn("recording revision failed", zap.String("flow", flowID), zap.Error(err))
	}
}

// --- Whole-document operations ---

// CreateFlow writes a new, empty but valid document. Fails with a conflict
// if a document already exists under flowID.
func (e *Editor) CreateFlow(flowID, name string, summary flow.Summary) (*flow.Flow, error) {
	if strings.TrimSpace(name) == "" {
		return nil, flow.Malformedf("'name' is required")
	}
	if err := e.ensureAbsent(flowID); err != nil {
		return nil, err
	}
	f := flow.New(store.DocName(flowID), name, summary)
	if res := flow.ValidateFlow(f); !res.Valid {
		return nil, res.Err()
	}
	if err := e.persist(flowID, "create", "created "+name, f); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteFlow replaces (or creates) the whole document from raw JSON. The
// content must parse and pass strict validation; nothing is written
// otherwise.
func (e *Editor) WriteFlow(flowID string, content []byte) (*flow.Flow, error) {
	if _, err := store.FileName(flowID); err != nil {
		return nil, err
	}
	var candidate any
	if err := json.Unmarshal(content, &candidate); err != nil {
		return nil, &flow.MalformedError{Msg: "flow content is not valid JSON", Err: err}
	}
	if res := flow.Validate(candidate); !res.Valid {
		return nil, res.Err()
	}
	f, err := flow.Parse(content)
	if err != nil {
		return nil, err
	}
	if err := e.persist(flowID, "write", "full document write", f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFlow removes the document.
func (e *Editor) DeleteFlow(flowID string) error {
	if err := e.store.Delete(flowID); err != nil {
		return err
	}
	e.log.Info("flow deleted", zap.String("flow", store.DocName(flowID)))
	return nil
}

func (e *Editor) ensureAbsent(flowID string) error {
	exists, err := e.store.Exists(flowID)
	if err != nil {
		return err
	}
	if exists {
		return &flow.ConflictError{Kind: "flow", ID: store.DocName(flowID)}
	}
	return nil
}

// --- Generic patch ---

// PatchFlow applies ops to the stored document as a single transaction.
// On any failure (bad operation, failed test, invalid result) nothing is
// written. With dryRun the patched document is returned but not persisted.
func (e *Editor) PatchFlow(flowID string, ops []Operation, dryRun bool) (*flow.Flow, error) {
	raw, err := e.store.LoadRaw(flowID)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &flow.MalformedError{Msg: "stored flow is not valid JSON", Err: err}
	}

	patched, err := ApplyPatch(doc, ops)
	if err != nil {
		return nil, err
	}

	var f flow.Flow
	if err := flow.FromMap(patched, &f); err != nil {
		return nil, &flow.MalformedError{Msg: "patched document does not decode", Err: err}
	}
	if dryRun {
		return &f, nil
	}
	data, err := patchedBytes(&f, patched)
	if err != nil {
		return nil, err
	}
	if err := e.persistBytes(flowID, "patch", describeOps(ops), data); err != nil {
		return nil, err
	}
	return &f, nil
}

// patchedBytes encodes the result of a patch. The typed encoding is used
// when it holds exactly the patched document; otherwise the patched tree is
// written as-is so no key the ops touched is lost.
func patchedBytes(f *flow.Flow, patched any) ([]byte, error) {
	typed, err := flow.Encode(f)
	if err != nil {
		return nil, err
	}
	var back any
	if err := json.Unmarshal(typed, &back); err == nil && jsonEqual(back, patched) {
		return typed, nil
	}
	data, err := json.MarshalIndent(patched, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding flow %q: %w", f.ID, err)
	}
	return append(data, '\n'), nil
}

func describeOps(ops []Operation) string {
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		parts = append(parts, op.Op+" "+op.Path)
	}
	return strings.Join(parts, "; ")
}
