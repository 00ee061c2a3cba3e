package repository

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tubenote/pkg/adapter"
	"github.com/m-mizutani/tubenote/pkg/model"
)

// Notion implements Knowledge on top of three Notion databases. Property
// names follow the knowledge-base schema: entities carry Name/Aliases/
// Status, media and notes carry the typed properties built below.
type Notion struct {
	client    adapter.Notion
	databases Databases
}

func NewNotion(client adapter.Notion, databases Databases) (*Notion, error) {
	if err := databases.Validate(); err != nil {
		return nil, err
	}

	return &Notion{
		client:    client,
		databases: databases,
	}, nil
}

func (r *Notion) FindEntity(ctx context.Context, name string) (model.EntityID, error) {
	filter := notionapi.OrCompoundFilter{
		notionapi.PropertyFilter{
			Property:    "Aliases",
			MultiSelect: &notionapi.MultiSelectFilterCondition{Contains: name},
		},
		// The API applies a rich_text condition to title properties, so this
		// filters on the Name title column.
		notionapi.PropertyFilter{
			Property: "Name",
			RichText: &notionapi.TextFilterCondition{Equals: name},
		},
	}

	resp, err := r.client.QueryDatabase(ctx, r.databases.Entities, &notionapi.DatabaseQueryRequest{
		Filter: filter,
	})
	if err != nil {
		return "", goerr.Wrap(err, "entity lookup failed", goerr.V("name", name))
	}

	if len(resp.Results) == 0 {
		return "", goerr.Wrap(ErrEntityNotFound, "no entity matched", goerr.V("name", name))
	}

	// Ambiguous matches are possible when alias sets overlap; first result
	// wins, same as the store returns them.
	return model.EntityID(resp.Results[0].ID), nil
}

func (r *Notion) CreateEntity(ctx context.Context, name string) (model.EntityID, error) {
	page, err := r.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: databaseParent(r.databases.Entities),
		Properties: notionapi.Properties{
			"Name":   notionapi.TitleProperty{Title: richText(name)},
			"Status": selectOption(model.StatusInbox),
		},
	})
	if err != nil {
		return "", goerr.Wrap(err, "entity creation failed", goerr.V("name", name))
	}

	return model.EntityID(page.ID), nil
}

func (r *Notion) CreateMedia(ctx context.Context, page *model.MediaPage) (model.PageID, error) {
	properties := notionapi.Properties{
		"Title":          notionapi.TitleProperty{Title: richText(page.Title)},
		"Media Type":     selectOption(model.MediaTypeVideo),
		"Author/Creator": relation(notionapi.PageID(page.Author)),
		"URL":            notionapi.URLProperty{URL: page.URL},
		"Status":         selectOption(model.StatusInbox),
	}

	published, err := dateProperty(page.PublishedAt)
	if err != nil {
		return "", goerr.Wrap(err, "invalid publish date", goerr.V("value", page.PublishedAt))
	}
	properties["Publishing Date"] = published

	added, err := dateProperty(page.AddedAt)
	if err != nil {
		return "", goerr.Wrap(err, "invalid adding date", goerr.V("value", page.AddedAt))
	}
	properties["Adding Date"] = added

	// Summary chunks become markdown code blocks so Notion renders the raw
	// markdown verbatim and the 2000-char block ceiling holds.
	children := make([]notionapi.Block, 0, len(page.SummaryChunks))
	for _, chunk := range page.SummaryChunks {
		children = append(children, notionapi.CodeBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeCode,
			},
			Code: notionapi.Code{
				RichText: richText(chunk),
				Language: "markdown",
			},
		})
	}

	created, err := r.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent:     databaseParent(r.databases.Media),
		Properties: properties,
		Children:   children,
	})
	if err != nil {
		return "", goerr.Wrap(err, "media creation failed", goerr.V("title", page.Title))
	}

	return model.PageID(created.ID), nil
}

func (r *Notion) CreateNote(ctx context.Context, note *model.NotePage) (model.PageID, error) {
	entities := make([]notionapi.Relation, 0, len(note.Entities))
	for _, id := range note.Entities {
		entities = append(entities, notionapi.Relation{ID: notionapi.PageID(id)})
	}

	properties := notionapi.Properties{
		"Context":   notionapi.TitleProperty{Title: richText(note.Context)},
		"Source":    relation(notionapi.PageID(note.Media)),
		"Entities":  notionapi.RelationProperty{Relation: entities},
		"Note Type": selectOption(model.NoteTypeAutomated),
		"Status":    selectOption(model.StatusInbox),
	}

	added, err := dateProperty(note.AddedAt)
	if err != nil {
		return "", goerr.Wrap(err, "invalid adding date", goerr.V("value", note.AddedAt))
	}
	properties["Adding Date"] = added

	if note.EventDate != "" {
		properties["Event Date"] = notionapi.RichTextProperty{RichText: richText(note.EventDate)}
	}
	if note.StartDate != "" {
		prop, err := dateProperty(note.StartDate)
		if err != nil {
			return "", goerr.Wrap(err, "invalid start date", goerr.V("value", note.StartDate))
		}
		properties["Start Date"] = prop
	}
	if note.EndDate != "" {
		prop, err := dateProperty(note.EndDate)
		if err != nil {
			return "", goerr.Wrap(err, "invalid end date", goerr.V("value", note.EndDate))
		}
		properties["End Date"] = prop
	}

	var children []notionapi.Block
	for _, chunk := range note.Overflow {
		children = append(children, notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeParagraph,
			},
			Paragraph: notionapi.Paragraph{
				RichText: richText(chunk),
			},
		})
	}

	created, err := r.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent:     databaseParent(r.databases.Notes),
		Properties: properties,
		Children:   children,
	})
	if err != nil {
		if adapter.IsValidationError(err) {
			return "", goerr.Wrap(err, "note payload rejected", goerr.T(TagValidation))
		}
		return "", goerr.Wrap(err, "note creation failed")
	}

	return model.PageID(created.ID), nil
}

func databaseParent(databaseID string) notionapi.Parent {
	return notionapi.Parent{
		Type:       notionapi.ParentTypeDatabaseID,
		DatabaseID: notionapi.DatabaseID(databaseID),
	}
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{Text: &notionapi.Text{Content: content}},
	}
}

func selectOption(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

func relation(id notionapi.PageID) notionapi.RelationProperty {
	return notionapi.RelationProperty{Relation: []notionapi.Relation{{ID: id}}}
}

// dateProperty accepts the two date shapes this system produces: calendar
// dates (YYYY-MM-DD) and RFC3339 timestamps from the video platform.
func dateProperty(value string) (notionapi.DateProperty, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return notionapi.DateProperty{}, goerr.Wrap(err, "unparseable date")
		}
	}

	start := notionapi.Date(t)
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &start},
	}, nil
}
