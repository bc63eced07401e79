// Package optimization implements the application service around the
// optimizer core.
//
// A run resolves the client profile, parses the uploaded bulk report,
// optimizes it under a per-client lock and persists the report, the result
// and the updated workbook. Results are served from the cache when present.
// The service depends on interfaces defined in this package and never imports
// from api/.
//
// Repository implementations live in repository/postgres/ and repository/memory/.
package optimization
