package ingest

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tubenote/pkg/model"
	"github.com/m-mizutani/tubenote/pkg/repository"
	"github.com/m-mizutani/tubenote/pkg/utils/logging"
)

// UseCase writes one document into the knowledge base: a media page with
// chunked summary blocks, plus one note page per extracted snippet linked
// to the media page and its resolved entities.
type UseCase struct {
	repo     repository.Knowledge
	resolver *Resolver
	now      func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithResolver replaces the run-scoped entity resolver. The default
// resolver lives as long as the use case, so a batch sharing one use case
// shares one memoization table.
func WithResolver(r *Resolver) Option {
	return func(uc *UseCase) {
		uc.resolver = r
	}
}

// WithClock replaces the ingestion-date clock.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates an ingestion UseCase instance
func New(repo repository.Knowledge, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:     repo,
		resolver: NewResolver(repo),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (u *UseCase) today() string {
	return u.now().Format("2006-01-02")
}

// IngestMedia creates the media page for doc and then its notes, in
// document order. An unresolvable author or a failed media create aborts
// the document; individual note failures are logged and skipped, and the
// media page ID is still returned.
func (u *UseCase) IngestMedia(ctx context.Context, doc *model.Document) (model.PageID, error) {
	logger := logging.From(ctx).With("video_id", doc.ID)

	authorID, ok := u.resolver.Resolve(ctx, doc.Channel)
	if !ok {
		return "", goerr.New("could not resolve author entity, aborting media creation",
			goerr.V("video_id", doc.ID), goerr.V("channel", doc.Channel))
	}

	chunks := SplitChunks(doc.FullSummary, ChunkSize)

	mediaID, err := u.repo.CreateMedia(ctx, &model.MediaPage{
		Title:         doc.Title,
		Author:        authorID,
		URL:           doc.URL,
		PublishedAt:   doc.PublishedAt,
		AddedAt:       u.today(),
		SummaryChunks: chunks,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create media page",
			goerr.V("video_id", doc.ID), goerr.V("title", doc.Title))
	}

	logger.Info("created media page", "page_id", mediaID, "summary_chunks", len(chunks))

	for i, snippet := range doc.Snippets {
		noteID, err := u.createNote(ctx, &snippet, mediaID)
		if err != nil {
			logger.Error("failed to create note, skipping",
				"index", i, "context", excerpt(snippet.Context), "error", err)
			continue
		}
		logger.Debug("created note", "page_id", noteID, "index", i)
	}

	return mediaID, nil
}

// excerpt shortens snippet text for log lines.
func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= 50 {
		return s
	}
	return string(runes[:50]) + "..."
}
