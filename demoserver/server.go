// Package demoserver assembles the canned capability catalog served by the
// mcp-oneshot command and exercised by the end-to-end tests: an echo tool, a
// greeting prompt, a readme resource, a status resource template, and
// completion candidates for the completable arguments.
package demoserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
	"github.com/oneshotmcp/mcp-oneshot-go/registry"
)

const (
	ServerName    = "mcp-oneshot-demo"
	ServerVersion = "0.1.0"

	readmeURI         = "demo://readme"
	statusTemplateURI = "status://{component}"
)

// GreetingLanguages are the languages the greeting prompt understands. They
// double as the completion candidates for its language argument.
var GreetingLanguages = []string{"English", "Spanish", "French", "German", "Japanese"}

// StatusComponents are the components addressable through the status
// resource template.
var StatusComponents = []string{"transport", "dispatcher", "registry"}

type echoArgs struct {
	Text string `json:"text" jsonschema:"description=Text to echo back"`
}

// New builds the demo capability registry. The level var wires
// logging/setLevel through to the caller's slog handler.
func New(level *slog.LevelVar) (registry.ServerCapabilities, error) {
	tools := registry.NewToolsContainer([]registry.StaticTool{
		registry.NewTool("echo", echoTool,
			registry.WithToolDescription("Echoes the provided text back to the caller.")),
	})

	prompts := registry.NewPromptsContainer([]registry.StaticPrompt{
		{
			Descriptor: mcp.Prompt{
				Name:        "greeting",
				Description: "Generates a short greeting in the requested language.",
				Arguments: []mcp.PromptArgument{
					{Name: "language", Description: "Language to greet in", Required: false},
					{Name: "name", Description: "Who to greet", Required: false},
				},
			},
			Handler: greetingPrompt,
		},
	})

	resources, err := registry.NewResourcesContainer(
		[]registry.StaticResource{
			{
				Descriptor: mcp.Resource{
					URI:         readmeURI,
					Name:        "readme",
					Description: "What this server is and how to talk to it.",
					MimeType:    "text/markdown",
				},
				Contents: registry.TextContents(readmeURI, "text/markdown",
					"# mcp-oneshot demo\n\nPOST one JSON-RPC message per request. No sessions, no streams.\n"),
			},
		},
		[]registry.TemplateResource{
			{
				Descriptor: mcp.ResourceTemplate{
					URITemplate: statusTemplateURI,
					Name:        "component-status",
					Description: "Health of a named server component.",
					MimeType:    "text/plain",
				},
				Reader: statusReader,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("build demo resources: %w", err)
	}

	completions := registry.NewEnumCompletions(map[registry.CompletionKey][]string{
		registry.PromptCompletion("greeting", "language"):           GreetingLanguages,
		registry.ResourceCompletion(statusTemplateURI, "component"): StatusComponents,
	})

	return registry.New(
		registry.WithServerInfo(mcp.ImplementationInfo{Name: ServerName, Version: ServerVersion}),
		registry.WithInstructions("A stateless demo server. Call the echo tool or fetch demo://readme to get oriented."),
		registry.WithToolsCapability(tools),
		registry.WithResourcesCapability(resources),
		registry.WithPromptsCapability(prompts),
		registry.WithLoggingCapability(registry.NewSlogLevelVarLogging(level)),
		registry.WithCompletionsCapability(completions),
	), nil
}

func echoTool(ctx context.Context, args echoArgs) (*mcp.CallToolResult, error) {
	if args.Text == "" {
		return registry.Errorf("missing required argument: text"), nil
	}
	return registry.TextResult("Echo: " + args.Text), nil
}

func greetingPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	language := req.Arguments["language"]
	if language == "" {
		language = "English"
	}
	name := req.Arguments["name"]
	if name == "" {
		name = "there"
	}

	greeting := "Hello"
	switch strings.ToLower(language) {
	case "spanish":
		greeting = "Hola"
	case "french":
		greeting = "Bonjour"
	case "german":
		greeting = "Hallo"
	case "japanese":
		greeting = "Konnichiwa"
	}

	return &mcp.GetPromptResult{
		Description: "A greeting in " + language,
		Messages: []mcp.PromptMessage{
			registry.TextPromptMessage(mcp.RoleUser, fmt.Sprintf("%s, %s!", greeting, name)),
		},
	}, nil
}

func statusReader(ctx context.Context, uri string, vars map[string]string) ([]mcp.ResourceContents, error) {
	component := vars["component"]
	for _, known := range StatusComponents {
		if component == known {
			return registry.TextContents(uri, "text/plain", component+": ok"), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", registry.ErrResourceNotFound, uri)
}
