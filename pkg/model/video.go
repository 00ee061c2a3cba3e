package model

// Video holds the raw material fetched for one YouTube video: the Data API
// snippet fields plus the caption transcript. Transcript is nil when the
// video has no usable captions; that is not an error.
type Video struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	PublishedAt string   `json:"publishedAt"`
	Description string   `json:"description"`
	Channel     string   `json:"channelTitle"`
	URL         string   `json:"url"`
	Transcript  []string `json:"transcript,omitempty"`
}

// EventDate is the date triple extracted per snippet. Gemini may fill any
// field with the literal string "null"; consumers must treat that as absent.
type EventDate struct {
	HumanReadable string `json:"human_readable"`
	DateStartISO  string `json:"date_start_iso"`
	DateEndISO    string `json:"date_end_iso"`
}

// Snippet is one extracted fact with the entity names it mentions.
type Snippet struct {
	Context   string    `json:"context"`
	Entities  []string  `json:"entities"`
	EventDate EventDate `json:"event_date"`
}

// Summary is the structured output of the summarization call.
type Summary struct {
	FullSummary string    `json:"full_summary"`
	Snippets    []Snippet `json:"extracted_snippets"`
}

// Document is the merged per-video payload handed to ingestion. It is also
// what gets written as the JSON artifact, so the field names are stable.
type Document struct {
	Video
	Summary
}
