// Package query executes ad-hoc read queries against the pharmaceutical
// market data collection. Each execution opens its own MongoDB connection,
// runs a single find, normalizes the results for JSON transport, and
// releases the connection before returning, on every path.
package query

// Sort directions, matching MongoDB's convention.
const (
	Ascending  = 1
	Descending = -1
)

// SortField is one (field, direction) pair of an ordered sort specification.
type SortField struct {
	Field     string
	Direction int
}

// Request describes one query invocation. It is owned by the caller and
// read-only once handed to the executor.
type Request struct {
	// Filter selects matching documents. It is passed to MongoDB verbatim
	// with no schema validation, so the full query language (and its
	// injection surface) is exposed to the caller. A nil or empty filter
	// matches every document.
	Filter map[string]any

	// Database and Collection name the target; when empty the configured
	// defaults apply. Existence is not checked before querying.
	Database   string
	Collection string

	// Projection restricts or excludes fields in every returned document.
	// Nil means all fields.
	Projection map[string]any

	// Limit caps the number of returned documents. Zero means no limit;
	// existing callers rely on that, so it is kept deliberately.
	Limit int64

	// Sort is applied before Limit, so limiting happens on sorted order.
	Sort []SortField
}

// Document is one matched record, keyed by field name. The `_id` value is
// always the canonical hex string form of the record identifier.
type Document = map[string]any

// Defaults are the preconfigured database and collection names applied to
// requests that do not name their own target.
type Defaults struct {
	Database   string
	Collection string
}
