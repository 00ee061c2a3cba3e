package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tubenote/pkg/adapter"
	"github.com/m-mizutani/tubenote/pkg/repository"
	"github.com/m-mizutani/tubenote/pkg/usecase/digest"
	"github.com/m-mizutani/tubenote/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	// Sources
	youtubeAPIKey string
	geminiAPIKey  string
	geminiModel   string

	// Destination
	notionAPIKey  string
	databasesPath string

	// Pipeline
	outputDir  string
	promptPath string
	logLevel   string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("TUBENOTE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "output-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory for per-video JSON artifacts",
			Value:       "out",
			Sources:     cli.EnvVars("TUBENOTE_OUTPUT_DIR"),
			Destination: &cfg.outputDir,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Usage:       "Path to a system prompt file overriding the built-in one",
			Sources:     cli.EnvVars("TUBENOTE_PROMPT"),
			Destination: &cfg.promptPath,
		},
	}
}

// sourceFlags returns flags for the video platform and the LLM
func sourceFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "youtube-api-key",
			Usage:       "YouTube Data API key",
			Sources:     cli.EnvVars("YOUTUBE_API_KEY"),
			Destination: &cfg.youtubeAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model for summarization",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// notionFlags returns flags for the knowledge base destination
func notionFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notion-api-key",
			Usage:       "Notion integration token",
			Sources:     cli.EnvVars("NOTION_API_KEY"),
			Destination: &cfg.notionAPIKey,
		},
		&cli.StringFlag{
			Name:        "databases",
			Aliases:     []string{"d"},
			Usage:       "Path to YAML file mapping the entities/media/notes databases",
			Value:       "databases.yml",
			Sources:     cli.EnvVars("TUBENOTE_DATABASES"),
			Destination: &cfg.databasesPath,
		},
	}
}

// setupLogger configures the process logger from the log-level flag
func (cfg *config) setupLogger() error {
	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		return err
	}
	logging.SetDefault(logging.New(level, os.Stderr))
	return nil
}

// newYouTube creates a new YouTube adapter instance
func (cfg *config) newYouTube(ctx context.Context) (adapter.YouTube, error) {
	if cfg.youtubeAPIKey == "" {
		return nil, goerr.New("youtube-api-key is required")
	}

	client, err := adapter.NewYouTube(ctx, cfg.youtubeAPIKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create youtube client")
	}
	return client, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiAPIKey == "" {
		return nil, goerr.New("gemini-api-key is required")
	}

	var opts []adapter.GeminiOption
	if cfg.geminiModel != "" {
		opts = append(opts, adapter.WithModel(cfg.geminiModel))
	}

	client, err := adapter.NewGemini(ctx, cfg.geminiAPIKey, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return client, nil
}

// newKnowledge creates the Notion-backed knowledge repository
func (cfg *config) newKnowledge() (repository.Knowledge, error) {
	if cfg.notionAPIKey == "" {
		return nil, goerr.New("notion-api-key is required")
	}

	databases, err := cfg.loadDatabases()
	if err != nil {
		return nil, err
	}

	repo, err := repository.NewNotion(adapter.NewNotion(cfg.notionAPIKey), databases)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create knowledge repository")
	}
	return repo, nil
}

func (cfg *config) loadDatabases() (repository.Databases, error) {
	var databases repository.Databases

	data, err := os.ReadFile(cfg.databasesPath)
	if err != nil {
		return databases, goerr.Wrap(err, "failed to read databases file", goerr.V("path", cfg.databasesPath))
	}
	if err := yaml.Unmarshal(data, &databases); err != nil {
		return databases, goerr.Wrap(err, "failed to parse databases file", goerr.V("path", cfg.databasesPath))
	}

	return databases, nil
}

// newDigest creates the digest use case, applying the prompt override
func (cfg *config) newDigest(ctx context.Context) (*digest.UseCase, error) {
	youtube, err := cfg.newYouTube(ctx)
	if err != nil {
		return nil, err
	}
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	opts := []digest.Option{digest.WithOutputDir(cfg.outputDir)}
	if cfg.promptPath != "" {
		prompt, err := os.ReadFile(cfg.promptPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read prompt file", goerr.V("path", cfg.promptPath))
		}
		opts = append(opts, digest.WithPrompt(string(prompt)))
	}

	return digest.New(youtube, gemini, opts...), nil
}
