package demoserver

import (
	"context"
	"log/slog"
	"testing"

	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
)

func TestGreetingPromptLanguages(t *testing.T) {
	caps, err := New(new(slog.LevelVar))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	prompts, ok, err := caps.GetPromptsCapability(context.Background())
	if err != nil || !ok {
		t.Fatalf("prompts capability: ok=%v err=%v", ok, err)
	}

	cases := []struct {
		language string
		want     string
	}{
		{"", "Hello, there!"},
		{"Spanish", "Hola, there!"},
		{"french", "Bonjour, there!"},
	}
	for _, tc := range cases {
		res, err := prompts.GetPrompt(context.Background(), &mcp.GetPromptRequest{
			Name:      "greeting",
			Arguments: map[string]string{"language": tc.language},
		})
		if err != nil {
			t.Fatalf("%q: get prompt: %v", tc.language, err)
		}
		if len(res.Messages) != 1 || res.Messages[0].Content[0].Text != tc.want {
			t.Fatalf("%q: expected %q, got %+v", tc.language, tc.want, res.Messages)
		}
	}
}

func TestStatusTemplateReader(t *testing.T) {
	caps, err := New(new(slog.LevelVar))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	resources, ok, err := caps.GetResourcesCapability(context.Background())
	if err != nil || !ok {
		t.Fatalf("resources capability: ok=%v err=%v", ok, err)
	}

	contents, err := resources.ReadResource(context.Background(), "status://transport")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(contents) != 1 || contents[0].Text != "transport: ok" {
		t.Fatalf("unexpected contents %+v", contents)
	}
}
