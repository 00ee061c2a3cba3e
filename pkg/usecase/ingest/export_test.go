package ingest

// Accessors for white-box tests in the ingest_test package.

var (
	SplitContextForTest = splitContext
	IsoDateForTest      = isoDate
)

const TruncationMarkerForTest = truncationMarker
