package identity

import (
	"testing"

	"github.com/veldt-labs/commandzone/internal/domain"
)

func TestClassify(t *testing.T) {
	bs := func(id string) domain.Boardstate {
		return domain.Boardstate{User: domain.User{ID: id}}
	}

	if got := Classify(bs("u1"), "u1"); got != OriginSelf {
		t.Fatalf("same ID: got %v, want self", got)
	}
	if got := Classify(bs("u2"), "u1"); got != OriginOpponent {
		t.Fatalf("different ID: got %v, want opponent", got)
	}
}

func TestClassifyEmptySessionID(t *testing.T) {
	// An empty session ID must not match an update with an empty user
	// ID; that update is invalid and belongs to nobody.
	bs := domain.Boardstate{User: domain.User{ID: ""}}
	if got := Classify(bs, ""); got == OriginSelf {
		t.Fatalf("empty-ID update classified as self")
	}
	if got := Classify(domain.Boardstate{User: domain.User{ID: "u1"}}, ""); got != OriginOpponent {
		t.Fatalf("empty session ID matched %v", got)
	}
}
