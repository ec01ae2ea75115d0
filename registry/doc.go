// Package registry defines the capability registry consumed by the method
// dispatcher: the read-only catalog of tools, resources, resource templates,
// prompts and completion candidates a server exposes, plus the logging-level
// sink.
//
// Conventions used throughout this package:
//   - Capability discovery methods return (cap, ok, err). A false ok means the
//     capability is not supported; err is reserved for internal failures while
//     determining support. An empty capability with ok == true is still
//     advertised (e.g. a present-but-empty tools list).
//   - All methods accept a context.Context and must be safe for concurrent
//     use. Registrations happen once, before the registry is handed to a
//     dispatcher; after that the catalog is read-only for the lifetime of the
//     process.
//   - Pagination uses the Page[T] type; a nil cursor requests the first page.
package registry
