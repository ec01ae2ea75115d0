package registry

import (
	"context"
	"fmt"

	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
	"github.com/yosida95/uritemplate/v3"
)

// StaticResource pairs a resource descriptor with the contents served when
// it is read.
type StaticResource struct {
	Descriptor mcp.Resource
	Contents   []mcp.ResourceContents
}

// TemplateReader produces contents for a URI that matched a resource
// template. vars holds the values captured from the template expansion.
type TemplateReader func(ctx context.Context, uri string, vars map[string]string) ([]mcp.ResourceContents, error)

// TemplateResource pairs a resource template descriptor with the reader that
// serves URIs matching it.
type TemplateResource struct {
	Descriptor mcp.ResourceTemplate
	Reader     TemplateReader
}

type templateEntry struct {
	descriptor mcp.ResourceTemplate
	compiled   *uritemplate.Template
	reader     TemplateReader
}

// ResourcesContainer holds fixed resources and resource templates,
// established at construction and read-only afterwards. Reads resolve exact
// URIs first, then templates in registration order.
type ResourcesContainer struct {
	resources []mcp.Resource
	contents  map[string][]mcp.ResourceContents
	templates []templateEntry
	pageSize  int
}

// NewResourcesContainer constructs a ResourcesContainer. It fails if any
// template descriptor does not parse as an RFC 6570 URI template.
func NewResourcesContainer(resources []StaticResource, templates []TemplateResource, opts ...ContainerOption) (*ResourcesContainer, error) {
	cfg := containerConfig{pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	rc := &ResourcesContainer{
		resources: make([]mcp.Resource, 0, len(resources)),
		contents:  make(map[string][]mcp.ResourceContents, len(resources)),
		templates: make([]templateEntry, 0, len(templates)),
		pageSize:  cfg.pageSize,
	}
	for _, r := range resources {
		rc.resources = append(rc.resources, r.Descriptor)
		rc.contents[r.Descriptor.URI] = r.Contents
	}
	for _, t := range templates {
		compiled, err := uritemplate.New(t.Descriptor.URITemplate)
		if err != nil {
			return nil, fmt.Errorf("invalid resource template %q: %w", t.Descriptor.URITemplate, err)
		}
		rc.templates = append(rc.templates, templateEntry{descriptor: t.Descriptor, compiled: compiled, reader: t.Reader})
	}
	return rc, nil
}

// ListResources implements ResourcesCapability.
func (rc *ResourcesContainer) ListResources(ctx context.Context, cursor *string) (Page[mcp.Resource], error) {
	return pageSlice(rc.resources, cursor, rc.pageSize), nil
}

// ListResourceTemplates implements ResourcesCapability.
func (rc *ResourcesContainer) ListResourceTemplates(ctx context.Context, cursor *string) (Page[mcp.ResourceTemplate], error) {
	descs := make([]mcp.ResourceTemplate, 0, len(rc.templates))
	for _, t := range rc.templates {
		descs = append(descs, t.descriptor)
	}
	return pageSlice(descs, cursor, rc.pageSize), nil
}

// ReadResource implements ResourcesCapability. Exact URIs win over template
// matches. URIs that match nothing return ErrResourceNotFound.
func (rc *ResourcesContainer) ReadResource(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	if c, ok := rc.contents[uri]; ok {
		out := make([]mcp.ResourceContents, len(c))
		copy(out, c)
		return out, nil
	}
	for _, t := range rc.templates {
		match := t.compiled.Match(uri)
		if match == nil {
			continue
		}
		vars := make(map[string]string, len(match))
		for name, v := range match {
			vars[name] = v.String()
		}
		if t.reader == nil {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
		}
		return t.reader(ctx, uri, vars)
	}
	return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
}

// TextContents builds a single text resource contents value.
func TextContents(uri, mimeType, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{{URI: uri, MimeType: mimeType, Text: text}}
}
