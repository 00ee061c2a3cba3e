package model

// EntityID is the opaque Notion page ID of an entity record.
type EntityID string

// PageID is the opaque Notion page ID of a media or note record.
type PageID string

// Lifecycle and type tags used across the three databases. New records
// always enter the Inbox status; later transitions happen in Notion, not
// here.
const (
	StatusInbox       = "Inbox"
	MediaTypeVideo    = "Video"
	NoteTypeAutomated = "Automated Note"
)

// MediaPage is the creation payload for one media record. SummaryChunks are
// rendered as markdown code blocks in order; dates are calendar dates in
// YYYY-MM-DD form.
type MediaPage struct {
	Title         string
	Author        EntityID
	URL           string
	PublishedAt   string
	AddedAt       string
	SummaryChunks []string
}

// NotePage is the creation payload for one note record, produced by the
// optional-field projection. StartDate/EndDate are already validated
// YYYY-MM-DD strings; empty means the property is omitted.
type NotePage struct {
	Context   string
	Media     PageID
	Entities  []EntityID
	EventDate string
	StartDate string
	EndDate   string
	AddedAt   string
	Overflow  []string
}
