package registry

import (
	"context"
	"sort"
	"strings"

	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
)

// maxCompletionValues caps how many values a single complete result carries.
// When the candidate set is larger, hasMore is set on the result.
const maxCompletionValues = 100

// CompletionKey identifies one completable argument: a reference (prompt name
// or resource template URI) plus the argument name being completed.
type CompletionKey struct {
	// RefType is "ref/prompt" or "ref/resource".
	RefType string
	// Ref is the prompt name or the resource template URI.
	Ref string
	// Argument is the argument or template variable name.
	Argument string
}

// EnumCompletions serves completion/complete from fixed candidate sets keyed
// by reference and argument name. Matching is a case-insensitive prefix
// filter over the candidates. Unknown keys yield an empty completion rather
// than an error.
type EnumCompletions struct {
	candidates map[CompletionKey][]string
}

// NewEnumCompletions constructs an EnumCompletions over the given candidate
// sets. The candidate slices are copied; the container is read-only after
// construction.
func NewEnumCompletions(candidates map[CompletionKey][]string) *EnumCompletions {
	m := make(map[CompletionKey][]string, len(candidates))
	for k, vals := range candidates {
		cp := make([]string, len(vals))
		copy(cp, vals)
		m[k] = cp
	}
	return &EnumCompletions{candidates: m}
}

// Complete implements CompletionsCapability.
func (ec *EnumCompletions) Complete(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	key := CompletionKey{RefType: req.Ref.Type, Argument: req.Argument.Name}
	switch req.Ref.Type {
	case "ref/prompt":
		key.Ref = req.Ref.Name
	case "ref/resource":
		key.Ref = req.Ref.URI
	}

	all := ec.candidates[key]
	prefix := strings.ToLower(req.Argument.Value)
	matched := make([]string, 0, len(all))
	for _, v := range all {
		if strings.HasPrefix(strings.ToLower(v), prefix) {
			matched = append(matched, v)
		}
	}
	sort.Strings(matched)

	total := len(matched)
	hasMore := false
	if total > maxCompletionValues {
		matched = matched[:maxCompletionValues]
		hasMore = true
	}
	return &mcp.CompleteResult{
		Completion: mcp.Completion{
			Values:  matched,
			Total:   total,
			HasMore: hasMore,
		},
	}, nil
}

// PromptCompletion builds the key for a prompt argument's candidates.
func PromptCompletion(promptName, argument string) CompletionKey {
	return CompletionKey{RefType: "ref/prompt", Ref: promptName, Argument: argument}
}

// ResourceCompletion builds the key for a resource template variable's
// candidates.
func ResourceCompletion(templateURI, variable string) CompletionKey {
	return CompletionKey{RefType: "ref/resource", Ref: templateURI, Argument: variable}
}
