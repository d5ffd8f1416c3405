package flow

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func hasViolation(res Result, path, contains string) bool {
	for _, v := range res.Violations {
		if v.Path == path && strings.Contains(v.Message, contains) {
			return true
		}
	}
	return false
}

func TestValidate_Fixture(t *testing.T) {
	res := ValidateBytes(loadFixture(t), ValidateOptions{Strict: true})
	if !res.Valid {
		t.Errorf("fixture invalid: %v", res.Violations)
	}
}

func TestValidate_NotAnObject(t *testing.T) {
	for _, doc := range []string{`[]`, `"x"`, `null`, `3`} {
		res := Validate(decode(t, doc))
		if res.Valid || len(res.Violations) != 1 || res.Violations[0].Path != "" {
			t.Errorf("%s: %v", doc, res.Violations)
		}
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	res := Validate(decode(t, `{}`))
	for _, path := range []string{"version", "id", "name", "summary", "phases", "nodes"} {
		if !hasViolation(res, path, "required") {
			t.Errorf("missing violation for %s: %v", path, res.Violations)
		}
	}
}

func TestValidate_WrongVersion(t *testing.T) {
	doc := `{"version":"2.0","id":"a","name":"A","summary":{"input":"i","output":"o","purpose":"p"},"phases":[],"nodes":[]}`
	if res := Validate(decode(t, doc)); !hasViolation(res, "version", `"1.0"`) {
		t.Errorf("strict: %v", res.Violations)
	}
	if res := ValidateWith(decode(t, doc), ValidateOptions{}); !res.Valid {
		t.Errorf("lenient should accept any version string: %v", res.Violations)
	}
}

func TestValidate_EmptySummaryField(t *testing.T) {
	doc := `{"version":"1.0","id":"a","name":"A","summary":{"input":" ","output":"o","purpose":"p"},"phases":[],"nodes":[]}`
	res := Validate(decode(t, doc))
	if !hasViolation(res, "summary.input", "empty") {
		t.Errorf("violations = %v", res.Violations)
	}
}

func TestValidate_DuplicatesAndReferences(t *testing.T) {
	doc := `{
		"version":"1.0","id":"a","name":"A",
		"summary":{"input":"i","output":"o","purpose":"p"},
		"phases":[
			{"id":"p1","name":"P","description":"d","nodes":["n1","ghost"]},
			{"id":"p1","name":"P","description":"d","nodes":[7]}
		],
		"nodes":[
			{"id":"n1","type":"logic","label":"L","data":{}},
			{"id":"n1","type":"logic","label":"L","data":[]}
		]
	}`
	res := Validate(decode(t, doc))
	cases := []struct{ path, msg string }{
		{"phases[1].id", "duplicate phase id"},
		{"nodes[1].id", "duplicate node id"},
		{"nodes[1].data", "must be an object"},
		{"phases[0].nodes[1]", `unknown node "ghost"`},
		{"phases[1].nodes[0]", "must be a string"},
	}
	for _, c := range cases {
		if !hasViolation(res, c.path, c.msg) {
			t.Errorf("missing %s %q in %v", c.path, c.msg, res.Violations)
		}
	}
	if hasViolation(res, "phases[0].id", "duplicate") {
		t.Error("first occurrence must not be flagged")
	}
}

func TestValidate_UnknownNodeTypeAccepted(t *testing.T) {
	doc := `{"version":"1.0","id":"a","name":"A","summary":{"input":"i","output":"o","purpose":"p"},
		"phases":[],"nodes":[{"id":"n","type":"webhook","label":"W","data":{}}]}`
	if res := Validate(decode(t, doc)); !res.Valid {
		t.Errorf("violations = %v", res.Violations)
	}
}

func TestValidateBytes_ParseError(t *testing.T) {
	res := ValidateBytes([]byte("{"), ValidateOptions{Strict: true})
	if res.Valid || res.Violations[0].Path != "$" {
		t.Errorf("violations = %v", res.Violations)
	}
}

func TestResult_Err(t *testing.T) {
	if err := (Result{Valid: true}).Err(); err != nil {
		t.Errorf("valid result Err = %v", err)
	}
	res := Validate(decode(t, `{}`))
	err := res.Err()
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Err = %v, want ErrValidation", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Violations) != len(res.Violations) {
		t.Errorf("ValidationError = %+v", ve)
	}
}

func TestValidate_MissingPurposeIsSingleViolation(t *testing.T) {
	doc := `{"version":"1.0","id":"a","name":"A","summary":{"input":"i","output":"o"},"phases":[],"nodes":[]}`
	res := Validate(decode(t, doc))
	if res.Valid || len(res.Violations) != 1 {
		t.Fatalf("violations = %v, want exactly one", res.Violations)
	}
	if res.Violations[0].Path != "summary.purpose" {
		t.Errorf("path = %q, want summary.purpose", res.Violations[0].Path)
	}
}
