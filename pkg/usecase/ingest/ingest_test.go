package ingest_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/tubenote/pkg/model"
	"github.com/m-mizutani/tubenote/pkg/repository"
	"github.com/m-mizutani/tubenote/pkg/usecase/ingest"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
}

func testDocument() *model.Document {
	return &model.Document{
		Video: model.Video{
			ID:          "abc123",
			Title:       "How Compilers Work",
			PublishedAt: "2024-05-01T10:00:00Z",
			Channel:     "Tech Talks",
			URL:         "https://www.youtube.com/watch?v=abc123",
		},
		Summary: model.Summary{
			FullSummary: "A summary of the talk.",
			Snippets: []model.Snippet{
				{
					Context:  "Lexing turns bytes into tokens",
					Entities: []string{"Lexer"},
				},
				{
					Context:  "Parsing builds the syntax tree",
					Entities: []string{"Parser", "Lexer"},
					EventDate: model.EventDate{
						HumanReadable: "early May 2024",
						DateStartISO:  "2024-05-01",
					},
				},
			},
		},
	}
}

func TestIngestMedia(t *testing.T) {
	ctx := context.Background()
	mock := &mockKnowledge{}
	uc := ingest.New(mock, ingest.WithClock(fixedClock))

	mediaID, err := uc.IngestMedia(ctx, testDocument())
	gt.NoError(t, err)
	gt.V(t, mediaID).Equal(model.PageID("media-1"))

	gt.A(t, mock.createMediaCalls).Length(1)
	media := mock.createMediaCalls[0]
	gt.V(t, media.Title).Equal("How Compilers Work")
	gt.V(t, media.Author).Equal(model.EntityID("entity-Tech Talks"))
	gt.V(t, media.AddedAt).Equal("2024-06-15")
	gt.A(t, media.SummaryChunks).Length(1)

	gt.A(t, mock.createNoteCalls).Length(2)
	note := mock.createNoteCalls[1]
	gt.V(t, note.Media).Equal(mediaID)
	gt.A(t, note.Entities).Length(2)
	gt.V(t, note.EventDate).Equal("early May 2024")
	gt.V(t, note.StartDate).Equal("2024-05-01")
	gt.V(t, note.EndDate).Equal("")
	gt.V(t, note.AddedAt).Equal("2024-06-15")

	// author + two snippet entities, with "Lexer" memoized across snippets
	gt.A(t, mock.findCalls).Length(3)
}

func TestIngestMediaAuthorFailureBlocksCreation(t *testing.T) {
	ctx := context.Background()
	mock := &mockKnowledge{
		createEntityFunc: func(ctx context.Context, name string) (model.EntityID, error) {
			return "", goerr.New("store down")
		},
	}
	uc := ingest.New(mock, ingest.WithClock(fixedClock))

	_, err := uc.IngestMedia(ctx, testDocument())
	gt.Error(t, err)

	// no media create may be issued without an author
	gt.A(t, mock.createMediaCalls).Length(0)
	gt.A(t, mock.createNoteCalls).Length(0)
}

func TestIngestMediaCreateFailure(t *testing.T) {
	ctx := context.Background()
	mock := &mockKnowledge{
		createMediaFunc: func(ctx context.Context, page *model.MediaPage) (model.PageID, error) {
			return "", goerr.New("media database gone")
		},
	}
	uc := ingest.New(mock, ingest.WithClock(fixedClock))

	_, err := uc.IngestMedia(ctx, testDocument())
	gt.Error(t, err)
	gt.A(t, mock.createNoteCalls).Length(0)
}

func TestIngestMediaPartialNoteFailure(t *testing.T) {
	ctx := context.Background()

	doc := testDocument()
	doc.Snippets = []model.Snippet{
		{Context: "first"},
		{Context: "second", EventDate: model.EventDate{DateStartISO: "2024-05-01"}},
		{Context: "third"},
	}

	mock := &mockKnowledge{}
	mock.createNoteFunc = func(ctx context.Context, note *model.NotePage) (model.PageID, error) {
		if note.Context == "second" {
			return "", goerr.New("bad payload", goerr.T(repository.TagValidation))
		}
		return model.PageID("note-" + note.Context), nil
	}

	uc := ingest.New(mock, ingest.WithClock(fixedClock))

	mediaID, err := uc.IngestMedia(ctx, doc)
	gt.NoError(t, err)
	gt.V(t, mediaID).Equal(model.PageID("media-1"))

	// snippet #2 is attempted twice (validation retry), #1 and #3 once
	gt.A(t, mock.createNoteCalls).Length(4)
	gt.V(t, mock.createNoteCalls[0].Context).Equal("first")
	gt.V(t, mock.createNoteCalls[3].Context).Equal("third")
}

func TestNoteRetryWithoutDates(t *testing.T) {
	ctx := context.Background()

	doc := testDocument()
	doc.Snippets = []model.Snippet{
		{
			Context: "dated fact",
			EventDate: model.EventDate{
				DateStartISO: "2024-05-01",
				DateEndISO:   "2024-05-03",
			},
		},
	}

	mock := &mockKnowledge{}
	mock.createNoteFunc = func(ctx context.Context, note *model.NotePage) (model.PageID, error) {
		if note.StartDate != "" || note.EndDate != "" {
			return "", goerr.New("date property rejected", goerr.T(repository.TagValidation))
		}
		return "note-ok", nil
	}

	uc := ingest.New(mock, ingest.WithClock(fixedClock))

	_, err := uc.IngestMedia(ctx, doc)
	gt.NoError(t, err)

	gt.A(t, mock.createNoteCalls).Length(2)

	// the rejected payload keeps its dates; only the second attempt drops them
	gt.V(t, mock.createNoteCalls[0].StartDate).Equal("2024-05-01")
	gt.V(t, mock.createNoteCalls[0].EndDate).Equal("2024-05-03")
	gt.V(t, mock.createNoteCalls[1].StartDate).Equal("")
	gt.V(t, mock.createNoteCalls[1].EndDate).Equal("")
}

func TestNoteNoRetryOnTransportError(t *testing.T) {
	ctx := context.Background()

	doc := testDocument()
	doc.Snippets = []model.Snippet{
		{Context: "fact", EventDate: model.EventDate{DateStartISO: "2024-05-01"}},
	}

	mock := &mockKnowledge{}
	mock.createNoteFunc = func(ctx context.Context, note *model.NotePage) (model.PageID, error) {
		return "", goerr.New("connection reset")
	}

	uc := ingest.New(mock, ingest.WithClock(fixedClock))

	_, err := uc.IngestMedia(ctx, doc)
	gt.NoError(t, err)

	// untagged errors are not retried
	gt.A(t, mock.createNoteCalls).Length(1)
}

func TestNoteDateValidation(t *testing.T) {
	ctx := context.Background()

	doc := testDocument()
	doc.Snippets = []model.Snippet{
		{
			Context: "dates",
			EventDate: model.EventDate{
				HumanReadable: "null",
				DateStartISO:  "2024-13-40",
				DateEndISO:    "NULL",
			},
		},
		{
			Context: "valid date",
			EventDate: model.EventDate{
				DateStartISO: "2024-05-01",
			},
		},
	}

	mock := &mockKnowledge{}
	uc := ingest.New(mock, ingest.WithClock(fixedClock))

	_, err := uc.IngestMedia(ctx, doc)
	gt.NoError(t, err)

	gt.A(t, mock.createNoteCalls).Length(2)

	invalid := mock.createNoteCalls[0]
	gt.V(t, invalid.EventDate).Equal("")
	gt.V(t, invalid.StartDate).Equal("")
	gt.V(t, invalid.EndDate).Equal("")

	valid := mock.createNoteCalls[1]
	gt.V(t, valid.StartDate).Equal("2024-05-01")
}

func TestNoteContextTruncation(t *testing.T) {
	ctx := context.Background()

	long := strings.Repeat("y", 3000)
	doc := testDocument()
	doc.Snippets = []model.Snippet{{Context: long}}

	mock := &mockKnowledge{}
	uc := ingest.New(mock, ingest.WithClock(fixedClock))

	_, err := uc.IngestMedia(ctx, doc)
	gt.NoError(t, err)

	note := mock.createNoteCalls[0]
	gt.V(t, len([]rune(note.Context))).Equal(1900 + len([]rune(ingest.TruncationMarkerForTest)))
	gt.V(t, strings.Join(note.Overflow, "")).Equal(long)
}

func TestIsoDate(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		value string
		want  string
	}{
		{"2024-05-01", "2024-05-01"},
		{"2024-13-40", ""},
		{"null", ""},
		{"Null", ""},
		{"", ""},
		{"May 1st", ""},
		{"2024-05-01T10:00:00Z", ""},
	}

	for _, tc := range testCases {
		got := ingest.IsoDateForTest(ctx, "date_start_iso", tc.value)
		gt.V(t, got).Equal(tc.want)
	}
}
