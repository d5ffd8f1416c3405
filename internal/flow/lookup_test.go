package flow

import (
	"errors"
	"reflect"
	"testing"
)

func TestFindNodeAndPhase(t *testing.T) {
	f, err := Parse(loadFixture(t))
	if err != nil {
		t.Fatal(err)
	}
	n, idx, err := f.FindNode("charge")
	if err != nil || idx != 2 || n.Label != "Charge card" {
		t.Errorf("FindNode = %v, %d, %v", n, idx, err)
	}
	if _, _, err := f.FindNode("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing node err = %v", err)
	}
	if _, _, err := f.FindPhase("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing phase err = %v", err)
	}
	p, err := f.PhaseOfNode("check")
	if err != nil || p.ID != "intake" {
		t.Errorf("PhaseOfNode = %v, %v", p, err)
	}
	nodes := f.PhaseNodes(&f.Phases[0])
	if len(nodes) != 2 || nodes[1].ID != "check" {
		t.Errorf("PhaseNodes = %v", nodes)
	}
}

func TestPhase_InsertAfter(t *testing.T) {
	p := &Phase{Nodes: []string{"a", "b", "c"}}
	if !p.InsertAfter("x", "a") {
		t.Fatal("InsertAfter a failed")
	}
	if !p.InsertAfter("y", "") {
		t.Fatal("append failed")
	}
	want := []string{"a", "x", "b", "c", "y"}
	if !reflect.DeepEqual(p.Nodes, want) {
		t.Errorf("nodes = %v, want %v", p.Nodes, want)
	}
	if p.InsertAfter("z", "missing") {
		t.Error("InsertAfter with unknown anchor should fail")
	}
}

func TestPhase_RemoveNode(t *testing.T) {
	p := &Phase{Nodes: []string{"a", "b", "a"}}
	if !p.RemoveNode("a") {
		t.Fatal("RemoveNode reported nothing removed")
	}
	if !reflect.DeepEqual(p.Nodes, []string{"b"}) {
		t.Errorf("nodes = %v", p.Nodes)
	}
	if p.RemoveNode("a") {
		t.Error("second RemoveNode should report false")
	}
}
