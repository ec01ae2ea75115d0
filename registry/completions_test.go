package registry

import (
	"context"
	"testing"

	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
)

func newTestCompletions() *EnumCompletions {
	return NewEnumCompletions(map[CompletionKey][]string{
		PromptCompletion("greeting", "language"):                {"English", "Spanish", "French"},
		ResourceCompletion("status://{component}", "component"): {"transport", "dispatcher"},
	})
}

func complete(t *testing.T, ec *EnumCompletions, ref mcp.CompletionReference, arg, value string) mcp.Completion {
	t.Helper()
	res, err := ec.Complete(context.Background(), &mcp.CompleteRequest{
		Ref:      ref,
		Argument: mcp.CompleteArgument{Name: arg, Value: value},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return res.Completion
}

func TestCompletePrefixFilterIsCaseInsensitive(t *testing.T) {
	ec := newTestCompletions()
	ref := mcp.CompletionReference{Type: "ref/prompt", Name: "greeting"}

	for _, value := range []string{"sp", "SP", "Sp"} {
		c := complete(t, ec, ref, "language", value)
		if len(c.Values) != 1 || c.Values[0] != "Spanish" {
			t.Fatalf("%q: expected [Spanish], got %v", value, c.Values)
		}
		if c.Total != 1 || c.HasMore {
			t.Fatalf("%q: expected total 1 hasMore false, got %+v", value, c)
		}
	}
}

func TestCompleteEmptyValueMatchesAll(t *testing.T) {
	ec := newTestCompletions()
	ref := mcp.CompletionReference{Type: "ref/prompt", Name: "greeting"}

	c := complete(t, ec, ref, "language", "")
	if len(c.Values) != 3 || c.Total != 3 {
		t.Fatalf("expected all candidates, got %+v", c)
	}
}

func TestCompleteResourceReference(t *testing.T) {
	ec := newTestCompletions()
	ref := mcp.CompletionReference{Type: "ref/resource", URI: "status://{component}"}

	c := complete(t, ec, ref, "component", "tra")
	if len(c.Values) != 1 || c.Values[0] != "transport" {
		t.Fatalf("expected [transport], got %v", c.Values)
	}
}

func TestCompleteUnknownReferenceIsEmpty(t *testing.T) {
	ec := newTestCompletions()

	cases := []struct {
		name string
		ref  mcp.CompletionReference
		arg  string
	}{
		{"unknown prompt", mcp.CompletionReference{Type: "ref/prompt", Name: "nope"}, "language"},
		{"unknown argument", mcp.CompletionReference{Type: "ref/prompt", Name: "greeting"}, "nope"},
		{"unknown ref type", mcp.CompletionReference{Type: "ref/other", Name: "greeting"}, "language"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := complete(t, ec, tc.ref, tc.arg, "")
			if len(c.Values) != 0 || c.Total != 0 || c.HasMore {
				t.Fatalf("expected empty completion, got %+v", c)
			}
			if c.Values == nil {
				t.Fatal("values must be an empty slice, not nil")
			}
		})
	}
}
