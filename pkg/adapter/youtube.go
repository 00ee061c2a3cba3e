package adapter

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tubenote/pkg/model"
	"github.com/m-mizutani/tubenote/pkg/utils/logging"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var (
	ErrVideoNotFound   = goerr.New("video not found")
	ErrNoCaptionTracks = goerr.New("no caption track available")
)

// YouTube fetches video metadata and transcript for one video ID.
type YouTube interface {
	FetchVideo(ctx context.Context, videoID string) (*model.Video, error)
}

type YouTubeClient struct {
	service    *youtube.Service
	httpClient *http.Client
	languages  []string
}

type YouTubeOption func(*YouTubeClient)

// WithTranscriptLanguages sets the preferred caption languages, in order.
func WithTranscriptLanguages(langs ...string) YouTubeOption {
	return func(y *YouTubeClient) {
		y.languages = langs
	}
}

// WithHTTPClient replaces the HTTP client used for caption fetching.
func WithHTTPClient(client *http.Client) YouTubeOption {
	return func(y *YouTubeClient) {
		y.httpClient = client
	}
}

func NewYouTube(ctx context.Context, apiKey string, opts ...YouTubeOption) (*YouTubeClient, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create youtube service")
	}

	y := &YouTubeClient{
		service:    service,
		httpClient: http.DefaultClient,
		languages:  []string{"en", "ar"},
	}

	for _, opt := range opts {
		opt(y)
	}

	return y, nil
}

// FetchVideo retrieves snippet metadata via the Data API and the caption
// transcript from the watch page. Transcript absence is logged but never
// fails the fetch.
func (y *YouTubeClient) FetchVideo(ctx context.Context, videoID string) (*model.Video, error) {
	resp, err := y.service.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch video metadata", goerr.V("video_id", videoID))
	}
	if len(resp.Items) == 0 {
		return nil, goerr.Wrap(ErrVideoNotFound, "video lookup returned no items", goerr.V("video_id", videoID))
	}

	snippet := resp.Items[0].Snippet
	video := &model.Video{
		ID:          videoID,
		Title:       snippet.Title,
		PublishedAt: snippet.PublishedAt,
		Description: snippet.Description,
		Channel:     snippet.ChannelTitle,
		URL:         "https://www.youtube.com/watch?v=" + videoID,
	}

	lines, err := y.fetchTranscript(ctx, videoID)
	if err != nil {
		logging.From(ctx).Warn("transcript unavailable", "video_id", videoID, "error", err)
	} else {
		video.Transcript = lines
	}

	return video, nil
}

// captionTrack is the relevant slice of the player response embedded in the
// watch page. Kind "asr" marks auto-generated captions.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (y *YouTubeClient) fetchTranscript(ctx context.Context, videoID string) ([]string, error) {
	tracks, err := y.listCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	track := pickCaptionTrack(tracks, y.languages)
	if track == nil {
		return nil, goerr.Wrap(ErrNoCaptionTracks, "no track for preferred languages",
			goerr.V("video_id", videoID), goerr.V("languages", y.languages))
	}

	body, err := y.get(ctx, track.BaseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch caption track", goerr.V("video_id", videoID))
	}

	return parseTimedText(body)
}

func (y *YouTubeClient) listCaptionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	body, err := y.get(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch watch page", goerr.V("video_id", videoID))
	}

	const marker = `"captionTracks":`
	idx := strings.Index(string(body), marker)
	if idx < 0 {
		return nil, goerr.Wrap(ErrNoCaptionTracks, "watch page has no caption tracks", goerr.V("video_id", videoID))
	}

	// Decode reads exactly one JSON value (the track array) and leaves the
	// rest of the page alone.
	var tracks []captionTrack
	dec := json.NewDecoder(strings.NewReader(string(body[idx+len(marker):])))
	if err := dec.Decode(&tracks); err != nil {
		return nil, goerr.Wrap(err, "failed to parse caption track list", goerr.V("video_id", videoID))
	}

	return tracks, nil
}

// pickCaptionTrack prefers manually uploaded captions over auto-generated
// ones, in preferred-language order.
func pickCaptionTrack(tracks []captionTrack, languages []string) *captionTrack {
	for _, lang := range languages {
		for i, track := range tracks {
			if track.LanguageCode == lang && track.Kind != "asr" {
				return &tracks[i]
			}
		}
	}
	for _, lang := range languages {
		for i, track := range tracks {
			if track.LanguageCode == lang {
				return &tracks[i]
			}
		}
	}
	return nil
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Lines   []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(data []byte) ([]string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, goerr.Wrap(err, "failed to parse timedtext response")
	}

	lines := make([]string, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Body))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return lines, nil
}

func (y *YouTubeClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", url))
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code", goerr.V("url", url), goerr.V("code", resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}
