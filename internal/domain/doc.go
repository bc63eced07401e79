// Package domain defines the core business types for the PPC bulk-report optimizer.
//
// Types in this package are pure value objects with no behavior, no database
// dependencies, and no HTTP concerns. They are the shared language between
// the report parser, the optimizer, the exporters and the API.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Derived metrics are methods, never stored inputs
//   - Constants and enums belong here
package domain
