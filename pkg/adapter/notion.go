package adapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
)

// Notion is the thin wrapper over the Notion API used by the repository.
type Notion interface {
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

type NotionClient struct {
	client *notionapi.Client
}

func NewNotion(apiKey string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(apiKey)),
	}
}

func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query database", goerr.V("database_id", databaseID))
	}
	return resp, nil
}

func (n *NotionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create page")
	}
	return page, nil
}

// IsValidationError reports whether err is the Notion API rejecting the
// request body as malformed, as opposed to a transport, auth or rate-limit
// failure.
func IsValidationError(err error) bool {
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "validation_error" || apiErr.Status == http.StatusBadRequest
}
