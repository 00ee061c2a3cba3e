package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tubenote/pkg/model"
)

var (
	// ErrEntityNotFound is returned by FindEntity when no record matches.
	ErrEntityNotFound = goerr.New("entity not found")

	// TagValidation marks a create call the store rejected as malformed.
	// Callers may retry with a reduced payload; any other error class is
	// not worth retrying.
	TagValidation = goerr.NewTag("validation")
)

// IsValidation reports whether err carries TagValidation.
func IsValidation(err error) bool {
	return goerr.HasTag(err, TagValidation)
}

// Knowledge is the persistence interface over the three databases of the
// knowledge base: entities, media and notes.
type Knowledge interface {
	// FindEntity looks up an entity whose alias set contains name or whose
	// canonical name equals name exactly. Returns ErrEntityNotFound when
	// nothing matches.
	FindEntity(ctx context.Context, name string) (model.EntityID, error)

	// CreateEntity creates a new entity record with the given display name
	// and Inbox status.
	CreateEntity(ctx context.Context, name string) (model.EntityID, error)

	// CreateMedia creates one media record including its summary blocks in
	// a single call.
	CreateMedia(ctx context.Context, page *model.MediaPage) (model.PageID, error)

	// CreateNote creates one note record linked to its media record and
	// entities. A payload the store rejects as malformed is reported with
	// TagValidation on the error.
	CreateNote(ctx context.Context, note *model.NotePage) (model.PageID, error)
}

// Databases maps the three logical tables to Notion database IDs.
type Databases struct {
	Entities string `yaml:"entities"`
	Media    string `yaml:"media"`
	Notes    string `yaml:"notes"`
}

// Validate checks that all database IDs are present.
func (d *Databases) Validate() error {
	if d.Entities == "" {
		return goerr.New("entities database ID is required")
	}
	if d.Media == "" {
		return goerr.New("media database ID is required")
	}
	if d.Notes == "" {
		return goerr.New("notes database ID is required")
	}
	return nil
}
