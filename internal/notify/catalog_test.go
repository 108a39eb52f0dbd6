package notify

import (
	"strings"
	"testing"
)

func TestCatalogFlattensNestedKeys(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	got, err := c.Render("boardstate.empty_library", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "empty library") {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestCatalogRenderInterpolates(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	got, err := c.Render("life.changed", map[string]any{"Username": "alice", "Life": 38})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "alice is at 38 life" {
		t.Fatalf("got %q", got)
	}
}

func TestCatalogRenderMissingData(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if _, err := c.Render("draw.drew_card", map[string]any{}); err == nil {
		t.Fatalf("expected error for missing template data")
	}
}

func TestCatalogMessageFallsBackToKey(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if got := c.Message("no.such.key"); got != "no.such.key" {
		t.Fatalf("got %q", got)
	}
	if got := c.Message("game.none_found"); got != "no game received from subscription" {
		t.Fatalf("got %q", got)
	}
}
