package editor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/store"
)

// --- Helpers ---

func newTestEditor(t *testing.T) (*Editor, *store.FileStore) {
	t.Helper()
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("..", "flow", "testdata", "checkout.cf.json"))
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "checkout.cf.json"), data, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	s := store.NewFileStore(dir)
	return New(s, nil), s
}

func readFile(t *testing.T, s *store.FileStore, id string) []byte {
	t.Helper()
	path, err := s.Path(id)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func mustLoad(t *testing.T, e *Editor) *flow.Flow {
	t.Helper()
	f, err := e.Load("checkout")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return f
}

type fakeRecorder struct {
	ops []string
}

func (r *fakeRecorder) Record(flowID, op, summary string, content []byte) error {
	r.ops = append(r.ops, flowID+":"+op)
	return nil
}

type fixedCommit string

func (c fixedCommit) Commit() string { return string(c) }

// --- UpdateNode ---

func TestUpdateNode_DeepMergesData(t *testing.T) {
	e, _ := newTestEditor(t)

	n, err := e.UpdateNode("checkout", "receive", map[string]any{
		"label": "Receive cart request",
		"data":  map[string]any{"description": "entry point"},
	})
	if err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	if n.Label != "Receive cart request" {
		t.Errorf("label = %q", n.Label)
	}

	f := mustLoad(t, e)
	got, _, _ := f.FindNode("receive")
	in := got.Data.(*flow.InputData)
	if in.Source != "POST /checkout" || in.Description != "entry point" {
		t.Errorf("data = %+v, want source kept and description added", in)
	}
}

func TestUpdateNode_ArraysReplace(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.UpdateNode("checkout", "receive", map[string]any{
		"data": map[string]any{"fields": []any{"cartId"}},
	})
	if err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	got, _, _ := mustLoad(t, e).FindNode("receive")
	if fields := got.Data.(*flow.InputData).Fields; !reflect.DeepEqual(fields, []string{"cartId"}) {
		t.Errorf("fields = %v, want replaced", fields)
	}
}

func TestUpdateNode_IDIsImmutable(t *testing.T) {
	e, _ := newTestEditor(t)
	n, err := e.UpdateNode("checkout", "receive", map[string]any{"id": "renamed", "label": "X"})
	if err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	if n.ID != "receive" {
		t.Errorf("id = %q, want receive", n.ID)
	}
	f := mustLoad(t, e)
	if f.HasNode("renamed") || !f.HasNode("receive") {
		t.Error("node id changed on disk")
	}
}

func TestUpdateNode_MovesPhaseMembership(t *testing.T) {
	e, _ := newTestEditor(t)
	if _, err := e.UpdateNode("checkout", "check", map[string]any{"phase": "fulfil"}); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	f := mustLoad(t, e)
	intake, _, _ := f.FindPhase("intake")
	fulfil, _, _ := f.FindPhase("fulfil")
	if intake.IndexOf("check") >= 0 {
		t.Error("check still listed in intake")
	}
	if !reflect.DeepEqual(fulfil.Nodes, []string{"charge", "check"}) {
		t.Errorf("fulfil nodes = %v", fulfil.Nodes)
	}
}

func TestUpdateNode_MoveToMissingPhase(t *testing.T) {
	e, s := newTestEditor(t)
	before := readFile(t, s, "checkout")
	_, err := e.UpdateNode("checkout", "check", map[string]any{"phase": "nope"})
	if !errors.Is(err, flow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if string(readFile(t, s, "checkout")) != string(before) {
		t.Error("document changed after failed update")
	}
}

func TestUpdateNode_Errors(t *testing.T) {
	e, _ := newTestEditor(t)
	tests := []struct {
		name    string
		flowID  string
		nodeID  string
		updates map[string]any
		want    error
	}{
		{"missing flow", "ghost", "receive", map[string]any{"label": "x"}, flow.ErrNotFound},
		{"missing node", "checkout", "ghost", map[string]any{"label": "x"}, flow.ErrNotFound},
		{"empty updates", "checkout", "receive", map[string]any{}, flow.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.UpdateNode(tt.flowID, tt.nodeID, tt.updates)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// --- AddNode ---

func newNode(id string) map[string]any {
	return map[string]any{
		"id":    id,
		"type":  "transform",
		"label": "Compute totals",
		"data":  map[string]any{"operation": "sum"},
	}
}

func TestAddNode_AfterAnchor(t *testing.T) {
	e, _ := newTestEditor(t)
	n, err := e.AddNode("checkout", newNode("totals"), "intake", "receive")
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if n.Phase != "intake" {
		t.Errorf("phase = %q, want intake", n.Phase)
	}
	f := mustLoad(t, e)
	intake, _, _ := f.FindPhase("intake")
	if !reflect.DeepEqual(intake.Nodes, []string{"receive", "totals", "check"}) {
		t.Errorf("intake nodes = %v", intake.Nodes)
	}
	if f.Nodes[len(f.Nodes)-1].ID != "totals" {
		t.Error("node not appended to nodes list")
	}
}

func TestAddNode_AppendsWithoutAnchor(t *testing.T) {
	e, _ := newTestEditor(t)
	if _, err := e.AddNode("checkout", newNode("totals"), "intake", ""); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	intake, _, _ := mustLoad(t, e).FindPhase("intake")
	if intake.Nodes[len(intake.Nodes)-1] != "totals" {
		t.Errorf("intake nodes = %v", intake.Nodes)
	}
}

func TestAddNode_NoPhase(t *testing.T) {
	e, _ := newTestEditor(t)
	n, err := e.AddNode("checkout", newNode("totals"), "", "")
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if n.Phase != "" {
		t.Errorf("phase = %q, want empty", n.Phase)
	}
	f := mustLoad(t, e)
	if _, err := f.PhaseOfNode("totals"); err == nil {
		t.Error("node should not be listed in any phase")
	}
}

func TestAddNode_Errors(t *testing.T) {
	missingData := newNode("x")
	delete(missingData, "data")
	tests := []struct {
		name   string
		node   map[string]any
		phase  string
		anchor string
		want   error
	}{
		{"duplicate id", newNode("receive"), "", "", flow.ErrConflict},
		{"missing phase", newNode("x"), "ghost", "", flow.ErrNotFound},
		{"missing anchor", newNode("x"), "intake", "ghost", flow.ErrNotFound},
		{"anchor in other phase", newNode("x"), "intake", "charge", flow.ErrNotFound},
		{"missing data", missingData, "", "", flow.ErrMalformed},
		{"anchor without phase", newNode("x"), "", "receive", flow.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newTestEditor(t)
			before := readFile(t, s, "checkout")
			_, err := e.AddNode("checkout", tt.node, tt.phase, tt.anchor)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if string(readFile(t, s, "checkout")) != string(before) {
				t.Error("document changed after failed add")
			}
		})
	}
}

// --- DeleteNode ---

func TestDeleteNode_RemovesReferencesAndEdges(t *testing.T) {
	e, _ := newTestEditor(t)
	res, err := e.DeleteNode("checkout", "check")
	if err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if res.EdgesRemoved != 2 || !reflect.DeepEqual(res.Phases, []string{"intake"}) {
		t.Errorf("result = %+v", res)
	}
	f := mustLoad(t, e)
	if f.HasNode("check") {
		t.Error("node still present")
	}
	for _, p := range f.Phases {
		if p.IndexOf("check") >= 0 {
			t.Errorf("phase %s still lists check", p.ID)
		}
	}
	if len(f.Edges) != 0 {
		t.Errorf("edges = %v, want none", f.Edges)
	}
	if res := flow.ValidateFlow(f); !res.Valid {
		t.Errorf("document invalid after delete: %v", res.Violations)
	}
}

func TestDeleteNode_NotFound(t *testing.T) {
	e, _ := newTestEditor(t)
	if _, err := e.DeleteNode("checkout", "ghost"); !errors.Is(err, flow.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- UpdatePhase / AddPhase / DeletePhase ---

func TestUpdatePhase_Shallow(t *testing.T) {
	e, _ := newTestEditor(t)
	p, err := e.UpdatePhase("checkout", "fulfil", map[string]any{
		"name":  "Fulfilment",
		"id":    "other",
		"nodes": []any{},
	})
	if err != nil {
		t.Fatalf("UpdatePhase: %v", err)
	}
	if p.ID != "fulfil" || p.Name != "Fulfilment" || len(p.Nodes) != 0 || !p.Async {
		t.Errorf("phase = %+v", p)
	}
}

func TestUpdatePhase_NotFound(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.UpdatePhase("checkout", "ghost", map[string]any{"name": "x"})
	if !errors.Is(err, flow.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAddPhase_AfterAnchor(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddPhase("checkout", map[string]any{
		"id":          "review",
		"name":        "Review",
		"description": "Manual review",
	}, "intake")
	if err != nil {
		t.Fatalf("AddPhase: %v", err)
	}
	f := mustLoad(t, e)
	ids := []string{}
	for _, p := range f.Phases {
		ids = append(ids, p.ID)
	}
	if !reflect.DeepEqual(ids, []string{"intake", "review", "fulfil"}) {
		t.Errorf("phases = %v", ids)
	}
	if res := flow.ValidateFlow(f); !res.Valid {
		t.Errorf("invalid after add: %v", res.Violations)
	}
}

func TestAddPhase_Conflict(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddPhase("checkout", map[string]any{"id": "intake", "name": "x", "description": "y"}, "")
	if !errors.Is(err, flow.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestDeletePhase_ClearsBackReferences(t *testing.T) {
	e, _ := newTestEditor(t)
	if _, err := e.DeletePhase("checkout", "intake"); err != nil {
		t.Fatalf("DeletePhase: %v", err)
	}
	f := mustLoad(t, e)
	if f.HasPhase("intake") {
		t.Error("phase still present")
	}
	n, _, _ := f.FindNode("receive")
	if n.Phase != "" {
		t.Errorf("receive.phase = %q, want cleared", n.Phase)
	}
}

// --- UpdateMetadata ---

func TestUpdateMetadata_ChangelogAndTimestamp(t *testing.T) {
	e, _ := newTestEditor(t)
	e.SetCommitSource(fixedCommit("abc1234"))

	orig := timeNow
	timeNow = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	defer func() { timeNow = orig }()

	md, err := e.UpdateMetadata("checkout", map[string]any{"author": "alice"}, "Documented retries")
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if md.Author != "alice" || md.UpdatedAt != "2026-03-04T05:06:07Z" {
		t.Errorf("metadata = %+v", md)
	}
	if len(md.Changelog) != 1 {
		t.Fatalf("changelog = %v", md.Changelog)
	}
	want := flow.ChangelogEntry{Date: "2026-03-04", Changes: "Documented retries", Commit: "abc1234"}
	if !reflect.DeepEqual(md.Changelog[0], want) {
		t.Errorf("entry = %+v, want %+v", md.Changelog[0], want)
	}
	if md.Extra["reviewedBy"] != "ops" || len(md.Tags) != 1 {
		t.Errorf("existing metadata lost: %+v", md)
	}

	md, err = e.UpdateMetadata("checkout", nil, "Second")
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if len(md.Changelog) != 2 || md.Changelog[1].Changes != "Second" {
		t.Errorf("changelog should append: %v", md.Changelog)
	}
}

func TestUpdateMetadata_NoChangelog(t *testing.T) {
	e, _ := newTestEditor(t)
	md, err := e.UpdateMetadata("checkout", map[string]any{"tags": []any{"a", "b"}}, "")
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if len(md.Changelog) != 0 || len(md.Tags) != 2 || md.UpdatedAt == "" {
		t.Errorf("metadata = %+v", md)
	}
}

// --- Whole-document operations ---

func TestCreateFlow(t *testing.T) {
	e, s := newTestEditor(t)
	rec := &fakeRecorder{}
	e.SetRecorder(rec)

	f, err := e.CreateFlow("signup", "Signup", flow.Summary{Input: "form", Output: "account", Purpose: "register users"})
	if err != nil {
		t.Fatalf("CreateFlow: %v", err)
	}
	if f.ID != "signup" {
		t.Errorf("id = %q", f.ID)
	}
	if ok, _ := s.Exists("signup"); !ok {
		t.Error("file not written")
	}
	if !reflect.DeepEqual(rec.ops, []string{"signup:create"}) {
		t.Errorf("recorded = %v", rec.ops)
	}

	_, err = e.CreateFlow("signup.cf", "Again", flow.Summary{Input: "a", Output: "b", Purpose: "c"})
	if !errors.Is(err, flow.ErrConflict) {
		t.Errorf("second create err = %v, want ErrConflict", err)
	}
}

func TestCreateFlow_InvalidSummary(t *testing.T) {
	e, s := newTestEditor(t)
	_, err := e.CreateFlow("signup", "Signup", flow.Summary{Input: "form"})
	if !errors.Is(err, flow.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if ok, _ := s.Exists("signup"); ok {
		t.Error("invalid flow was written")
	}
}

func TestWriteFlow(t *testing.T) {
	e, s := newTestEditor(t)
	content := readFile(t, s, "checkout")
	if _, err := e.WriteFlow("copy", content); err != nil {
		t.Fatalf("WriteFlow: %v", err)
	}
	if ok, _ := s.Exists("copy"); !ok {
		t.Error("copy not written")
	}

	_, err := e.WriteFlow("bad", []byte(`{"version":"1.0"}`))
	if !errors.Is(err, flow.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if ok, _ := s.Exists("bad"); ok {
		t.Error("invalid document was written")
	}

	if _, err := e.WriteFlow("../escape", content); !errors.Is(err, flow.ErrMalformed) {
		t.Errorf("path traversal err = %v, want ErrMalformed", err)
	}
}

func TestDeleteFlow(t *testing.T) {
	e, s := newTestEditor(t)
	if err := e.DeleteFlow("checkout"); err != nil {
		t.Fatalf("DeleteFlow: %v", err)
	}
	if ok, _ := s.Exists("checkout"); ok {
		t.Error("file still present")
	}
	if err := e.DeleteFlow("checkout"); !errors.Is(err, flow.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

// --- PatchFlow ---

func TestPatchFlow_AppliesAndPersists(t *testing.T) {
	e, _ := newTestEditor(t)
	rec := &fakeRecorder{}
	e.SetRecorder(rec)

	ops := []Operation{
		{Op: OpTest, Path: "/name", Value: "Checkout", HasValue: true},
		{Op: OpReplace, Path: "/name", Value: "Checkout v2", HasValue: true},
		{Op: OpAdd, Path: "/phases/0/nodes/-", Value: "extra", HasValue: true},
		{Op: OpAdd, Path: "/nodes/-", Value: map[string]any{
			"id": "extra", "type": "logic", "label": "Extra", "data": map[string]any{},
		}, HasValue: true},
	}
	f, err := e.PatchFlow("checkout", ops, false)
	if err != nil {
		t.Fatalf("PatchFlow: %v", err)
	}
	if f.Name != "Checkout v2" || !f.HasNode("extra") {
		t.Errorf("patched = %+v", f)
	}
	if mustLoad(t, e).Name != "Checkout v2" {
		t.Error("patch not persisted")
	}
	if len(rec.ops) != 1 || rec.ops[0] != "checkout:patch" {
		t.Errorf("recorded = %v", rec.ops)
	}
}

func TestPatchFlow_DryRun(t *testing.T) {
	e, s := newTestEditor(t)
	before := readFile(t, s, "checkout")
	f, err := e.PatchFlow("checkout", []Operation{
		{Op: OpReplace, Path: "/name", Value: "Preview", HasValue: true},
	}, true)
	if err != nil {
		t.Fatalf("PatchFlow: %v", err)
	}
	if f.Name != "Preview" {
		t.Errorf("name = %q", f.Name)
	}
	if string(readFile(t, s, "checkout")) != string(before) {
		t.Error("dry run wrote the document")
	}
}

func TestPatchFlow_FailureLeavesFileUntouched(t *testing.T) {
	tests := []struct {
		name  string
		ops   []Operation
		index int
		want  error
	}{
		{
			name: "failing test op",
			ops: []Operation{
				{Op: OpReplace, Path: "/name", Value: "Changed", HasValue: true},
				{Op: OpTest, Path: "/id", Value: "other", HasValue: true},
			},
			index: 1,
			want:  flow.ErrMalformed,
		},
		{
			name: "missing path",
			ops: []Operation{
				{Op: OpRemove, Path: "/nodes/9"},
			},
			index: 0,
			want:  flow.ErrMalformed,
		},
		{
			name: "unknown op",
			ops: []Operation{
				{Op: OpReplace, Path: "/name", Value: "x", HasValue: true},
				{Op: "merge", Path: "/name"},
			},
			index: 1,
			want:  flow.ErrMalformed,
		},
		{
			name: "result fails validation",
			ops: []Operation{
				{Op: OpRemove, Path: "/summary/purpose"},
			},
			index: -1,
			want:  flow.ErrValidation,
		},
		{
			name: "dangling phase reference",
			ops: []Operation{
				{Op: OpRemove, Path: "/nodes/0"},
			},
			index: -1,
			want:  flow.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newTestEditor(t)
			before := readFile(t, s, "checkout")

			_, err := e.PatchFlow("checkout", tt.ops, false)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.index >= 0 {
				var pe *flow.PatchError
				if !errors.As(err, &pe) || pe.Index != tt.index {
					t.Errorf("err = %v, want PatchError at index %d", err, tt.index)
				}
			}
			if string(readFile(t, s, "checkout")) != string(before) {
				t.Error("document changed after failed patch")
			}
		})
	}
}

func TestPatchFlow_ValidationListsViolations(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.PatchFlow("checkout", []Operation{{Op: OpRemove, Path: "/nodes/0"}}, false)
	var ve *flow.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(ve.Violations) != 1 || !strings.Contains(ve.Violations[0].Message, `"receive"`) {
		t.Errorf("violations = %v", ve.Violations)
	}
}

func TestPatchFlow_NotFound(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.PatchFlow("ghost", []Operation{{Op: OpRemove, Path: "/name"}}, false)
	if !errors.Is(err, flow.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- Keys outside the typed model ---

func readDoc(t *testing.T, s *store.FileStore) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(readFile(t, s, "checkout"), &doc); err != nil {
		t.Fatalf("decoding stored document: %v", err)
	}
	return doc
}

// seedDoc rewrites the stored fixture after applying mutate to its
// generic form.
func seedDoc(t *testing.T, s *store.FileStore, mutate func(doc map[string]any)) {
	t.Helper()
	doc := readDoc(t, s)
	mutate(doc)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRaw("checkout", data); err != nil {
		t.Fatalf("SaveRaw: %v", err)
	}
}

// dig walks object keys (string) and array indexes (int).
func dig(v any, path ...any) any {
	for _, step := range path {
		switch k := step.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[k]
		case int:
			a, ok := v.([]any)
			if !ok || k >= len(a) {
				return nil
			}
			v = a[k]
		}
	}
	return v
}

func TestPatchFlow_KeepsUnmodelledKeys(t *testing.T) {
	e, s := newTestEditor(t)
	ops := []Operation{
		{Op: OpAdd, Path: "/summary/notes", Value: "reviewed", HasValue: true},
		{Op: OpAdd, Path: "/edges/-", Value: map[string]any{
			"from": "receive", "to": "charge", "weight": float64(3),
		}, HasValue: true},
		{Op: OpAdd, Path: "/nodes/2/ref/column", Value: float64(4), HasValue: true},
	}
	if _, err := e.PatchFlow("checkout", ops, false); err != nil {
		t.Fatalf("PatchFlow: %v", err)
	}

	doc := readDoc(t, s)
	if got := dig(doc, "summary", "notes"); got != "reviewed" {
		t.Errorf("summary.notes = %v", got)
	}
	if got := dig(doc, "edges", 2, "weight"); got != float64(3) {
		t.Errorf("edges[2].weight = %v", got)
	}
	if got := dig(doc, "nodes", 2, "ref", "column"); got != float64(4) {
		t.Errorf("nodes[2].ref.column = %v", got)
	}
}

func TestUpdateNode_KeepsUnmodelledKeysElsewhere(t *testing.T) {
	e, s := newTestEditor(t)
	seedDoc(t, s, func(doc map[string]any) {
		doc["summary"].(map[string]any)["scope"] = "web"
		doc["edges"].([]any)[0].(map[string]any)["type"] = "sync"
		ref := dig(doc, "nodes", 2, "ref").(map[string]any)
		ref["endLine"] = float64(60)
		md := doc["metadata"].(map[string]any)
		md["changelog"] = []any{map[string]any{"date": "2026-01-02", "changes": "init", "by": "ana"}}
	})

	if _, err := e.UpdateNode("checkout", "receive", map[string]any{"label": "Receive"}); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}

	doc := readDoc(t, s)
	checks := []struct {
		path []any
		want any
	}{
		{[]any{"summary", "scope"}, "web"},
		{[]any{"edges", 0, "type"}, "sync"},
		{[]any{"nodes", 2, "ref", "endLine"}, float64(60)},
		{[]any{"metadata", "changelog", 0, "by"}, "ana"},
		{[]any{"nodes", 0, "label"}, "Receive"},
	}
	for _, c := range checks {
		if got := dig(doc, c.path...); got != c.want {
			t.Errorf("%v = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestWriteFlow_AcceptsLooseFieldShapes(t *testing.T) {
	e, s := newTestEditor(t)
	doc := readDoc(t, s)
	doc["contracts"] = []any{map[string]any{"id": "req", "name": "Request", "input": "CartRequest"}}
	dig(doc, "nodes", 2, "ref").(map[string]any)["line"] = "42"
	dig(doc, "phases", 1).(map[string]any)["async"] = "yes"
	content, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.WriteFlow("checkout", content); err != nil {
		t.Fatalf("WriteFlow: %v", err)
	}
	if _, err := e.UpdateNode("checkout", "check", map[string]any{"label": "Check"}); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	if _, err := e.AddPhase("checkout", map[string]any{
		"id": "notify", "name": "Notify", "description": "Tell the user", "nodes": []any{},
	}, ""); err != nil {
		t.Fatalf("AddPhase: %v", err)
	}

	got := readDoc(t, s)
	if v := dig(got, "contracts", 0, "input"); v != "CartRequest" {
		t.Errorf("contracts[0].input = %v", v)
	}
	if v := dig(got, "nodes", 2, "ref", "line"); v != "42" {
		t.Errorf("nodes[2].ref.line = %v", v)
	}
	if v := dig(got, "phases", 1, "async"); v != "yes" {
		t.Errorf("phases[1].async = %v", v)
	}
}

func TestUpdatePhase_KeepsExplicitFalse(t *testing.T) {
	e, s := newTestEditor(t)
	seedDoc(t, s, func(doc map[string]any) {
		p := dig(doc, "phases", 0).(map[string]any)
		p["async"] = false
		p["input"] = ""
	})
	if _, err := e.UpdatePhase("checkout", "intake", map[string]any{"name": "Intake v2"}); err != nil {
		t.Fatalf("UpdatePhase: %v", err)
	}
	p := dig(readDoc(t, s), "phases", 0).(map[string]any)
	if v, ok := p["async"]; !ok || v != false {
		t.Errorf("async = %v (present %v), want explicit false", v, ok)
	}
	if v, ok := p["input"]; !ok || v != "" {
		t.Errorf("input = %v (present %v), want explicit empty string", v, ok)
	}
}

func TestUpdateNode_MovesPhaseWithoutBackReference(t *testing.T) {
	e, s := newTestEditor(t)
	seedDoc(t, s, func(doc map[string]any) {
		delete(dig(doc, "nodes", 1).(map[string]any), "phase")
	})

	if _, err := e.UpdateNode("checkout", "check", map[string]any{"phase": "fulfil"}); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	f := mustLoad(t, e)
	intake, _, _ := f.FindPhase("intake")
	fulfil, _, _ := f.FindPhase("fulfil")
	if intake.IndexOf("check") >= 0 {
		t.Errorf("check still listed in intake: %v", intake.Nodes)
	}
	if !reflect.DeepEqual(fulfil.Nodes, []string{"charge", "check"}) {
		t.Errorf("fulfil nodes = %v", fulfil.Nodes)
	}
}
