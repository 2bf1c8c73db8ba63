package protocol

import (
	"encoding/json"
	"testing"
)

func TestFlexID_String(t *testing.T) {
	var f FlexID
	if err := json.Unmarshal([]byte(`"abc-123"`), &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != "abc-123" {
		t.Errorf("expected abc-123, got %q", f)
	}
}

func TestFlexID_Number(t *testing.T) {
	var f FlexID
	if err := json.Unmarshal([]byte(`42`), &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != "42" {
		t.Errorf("expected 42, got %q", f)
	}
}

func TestFlexID_Null(t *testing.T) {
	f := FlexID("stale")
	if err := json.Unmarshal([]byte(`null`), &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != "" {
		t.Errorf("expected empty, got %q", f)
	}
}

func TestResolveParentID_EmbeddedObjectWins(t *testing.T) {
	var p FolderPayload
	raw := `{"id": "f3", "name": "Q1", "parent": {"id": "f2"}, "parent_id": "ignored"}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.ResolveParentID(); got != "f2" {
		t.Errorf("expected f2, got %q", got)
	}
}

func TestResolveParentID_PrimitiveParent(t *testing.T) {
	var p FolderPayload
	if err := json.Unmarshal([]byte(`{"id": "f3", "parent": 7}`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.ResolveParentID(); got != "7" {
		t.Errorf("expected 7, got %q", got)
	}
}

func TestResolveParentID_ParentIDField(t *testing.T) {
	var p FolderPayload
	if err := json.Unmarshal([]byte(`{"id": "f3", "parent_id": "f1"}`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.ResolveParentID(); got != "f1" {
		t.Errorf("expected f1, got %q", got)
	}
}

func TestResolveParentID_CamelCaseAlias(t *testing.T) {
	var p FolderPayload
	if err := json.Unmarshal([]byte(`{"id": "f3", "parentId": "f9"}`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.ResolveParentID(); got != "f9" {
		t.Errorf("expected f9, got %q", got)
	}
}

func TestResolveParentID_NullParentIsRoot(t *testing.T) {
	var p FolderPayload
	if err := json.Unmarshal([]byte(`{"id": "f3", "parent": null}`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.ResolveParentID(); got != "" {
		t.Errorf("expected empty for root, got %q", got)
	}
}

func TestFilePayload_FilenameWinsOverName(t *testing.T) {
	p := FilePayload{ID: "file1", Filename: "budget.xlsx", Name: "old-alias"}
	f := p.Normalize()
	if f.Filename != "budget.xlsx" {
		t.Errorf("expected filename to win, got %q", f.Filename)
	}
}

func TestFilePayload_NameFallback(t *testing.T) {
	p := FilePayload{ID: "file1", Name: "notes.txt"}
	if f := p.Normalize(); f.Filename != "notes.txt" {
		t.Errorf("expected name fallback, got %q", f.Filename)
	}
}

func TestErrorResponse_DetailPreferred(t *testing.T) {
	e := ErrorResponse{Detail: "Folder not found", Error: "other"}
	if e.Message() != "Folder not found" {
		t.Errorf("expected detail, got %q", e.Message())
	}
	e = ErrorResponse{Error: "boom"}
	if e.Message() != "boom" {
		t.Errorf("expected error fallback, got %q", e.Message())
	}
}
