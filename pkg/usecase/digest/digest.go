package digest

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tubenote/pkg/adapter"
	"github.com/m-mizutani/tubenote/pkg/model"
	"github.com/m-mizutani/tubenote/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/summarize.md
var defaultPrompt string

// UseCase turns one video ID into a Document: metadata and transcript from
// the video platform, summary and snippets from Gemini, plus the on-disk
// JSON artifact for debugging and resume.
type UseCase struct {
	youtube   adapter.YouTube
	gemini    adapter.Gemini
	prompt    string
	outputDir string
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithPrompt overrides the embedded system prompt.
func WithPrompt(prompt string) Option {
	return func(uc *UseCase) {
		uc.prompt = prompt
	}
}

// WithOutputDir sets the artifact directory.
func WithOutputDir(dir string) Option {
	return func(uc *UseCase) {
		uc.outputDir = dir
	}
}

// New creates a digest UseCase instance
func New(youtube adapter.YouTube, gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		youtube:   youtube,
		gemini:    gemini,
		prompt:    defaultPrompt,
		outputDir: "out",
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Process fetches, summarizes and persists the artifact for one video.
// Artifact write failures are logged but never fail the document; the
// artifact is a debugging aid, not part of the pipeline contract.
func (u *UseCase) Process(ctx context.Context, videoID string) (*model.Document, error) {
	video, err := u.youtube.FetchVideo(ctx, videoID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch video", goerr.V("video_id", videoID))
	}

	summary, err := u.Summarize(ctx, video)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to summarize video", goerr.V("video_id", videoID))
	}

	doc := &model.Document{
		Video:   *video,
		Summary: *summary,
	}

	if err := u.writeArtifact(doc); err != nil {
		logging.From(ctx).Warn("failed to write artifact", "video_id", videoID, "error", err)
	}

	return doc, nil
}

// Summarize asks Gemini for the structured digest of the video content and
// validates the response against the digest schema before accepting it.
func (u *UseCase) Summarize(ctx context.Context, video *model.Video) (*model.Summary, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: u.prompt + "\n\nDATA TO PROCESS:\n" + formatPayload(video)},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	resp, err := u.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "summarization call failed")
	}

	if len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.New("empty summarization response")
	}

	return parseSummary(resp.Candidates[0].Content.Parts[0].Text)
}

// formatPayload renders the video content the way the prompt expects it.
func formatPayload(video *model.Video) string {
	title := video.Title
	if title == "" {
		title = "Unknown Title"
	}
	description := video.Description
	if description == "" {
		description = "No description provided."
	}

	return fmt.Sprintf(
		"VIDEO TITLE: %s\n\nVIDEO DESCRIPTION & SOURCES:\n%s\n\nTRANSCRIPT CONTENT:\n%s",
		title, description, strings.Join(video.Transcript, "\n"),
	)
}

func (u *UseCase) writeArtifact(doc *model.Document) error {
	if err := os.MkdirAll(u.outputDir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create output directory", goerr.V("dir", u.outputDir))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal document")
	}

	path := filepath.Join(u.outputDir, doc.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write artifact", goerr.V("path", path))
	}

	return nil
}
