package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tubenote/pkg/model"
	"github.com/m-mizutani/tubenote/pkg/repository"
	"github.com/m-mizutani/tubenote/pkg/utils/logging"
)

// truncationMarker ends a note title whose context overflowed into body
// blocks.
const truncationMarker = "…"

// createNote persists one snippet as a note page. A validation rejection
// is retried exactly once with the date properties removed; date drift in
// model output is the usual cause of such rejections.
func (u *UseCase) createNote(ctx context.Context, snippet *model.Snippet, mediaID model.PageID) (model.PageID, error) {
	note := u.project(ctx, snippet, mediaID)

	id, err := u.repo.CreateNote(ctx, note)
	if err == nil {
		return id, nil
	}
	if !repository.IsValidation(err) || (note.StartDate == "" && note.EndDate == "") {
		return "", err
	}

	logging.From(ctx).Warn("note payload rejected, retrying without date properties",
		"context", excerpt(note.Context), "error", err)

	// The second attempt is a distinct payload; the rejected one stays
	// intact for anything that retained it.
	retry := *note
	retry.StartDate = ""
	retry.EndDate = ""

	id, err = u.repo.CreateNote(ctx, &retry)
	if err != nil {
		return "", goerr.Wrap(err, "note creation failed after retry")
	}
	return id, nil
}

// project builds the finalized note payload for one snippet: resolved
// entity relations, title/overflow split, and the optional date fields in
// one place. No store writes happen here beyond entity resolution.
func (u *UseCase) project(ctx context.Context, snippet *model.Snippet, mediaID model.PageID) *model.NotePage {
	note := &model.NotePage{
		Media:   mediaID,
		AddedAt: u.today(),
	}

	// Unresolved names are dropped from the relation, not treated as an
	// ingestion failure.
	for _, name := range snippet.Entities {
		if id, ok := u.resolver.Resolve(ctx, name); ok {
			note.Entities = append(note.Entities, id)
		}
	}

	note.Context, note.Overflow = splitContext(snippet.Context)

	if v := snippet.EventDate.HumanReadable; v != "" && v != "null" {
		note.EventDate = v
	}
	note.StartDate = isoDate(ctx, "date_start_iso", snippet.EventDate.DateStartISO)
	note.EndDate = isoDate(ctx, "date_end_iso", snippet.EventDate.DateEndISO)

	return note
}

// splitContext keeps short contexts verbatim as the title. Longer ones get
// a truncated title and the full text relocated into overflow blocks, so
// nothing is lost.
func splitContext(context string) (title string, overflow []string) {
	runes := []rune(context)
	if len(runes) <= ChunkSize {
		return context, nil
	}
	return string(runes[:ChunkSize]) + truncationMarker, SplitChunks(context, ChunkSize)
}

// isoDate validates an optional YYYY-MM-DD field. The model sometimes
// emits the string "null" or loose date formats; both are dropped with a
// warning rather than sent to the store.
func isoDate(ctx context.Context, field, value string) string {
	if value == "" || strings.EqualFold(value, "null") {
		return ""
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		logging.From(ctx).Warn("dropping invalid ISO date", "field", field, "value", value)
		return ""
	}
	return value
}
