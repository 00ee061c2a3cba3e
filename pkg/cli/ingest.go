package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tubenote/pkg/usecase/ingest"
	"github.com/m-mizutani/tubenote/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg       config
		inputPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to JSON file containing an array of video IDs",
			Sources:     cli.EnvVars("TUBENOTE_INPUT"),
			Destination: &inputPath,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, sourceFlags(&cfg)...)
	flags = append(flags, notionFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Summarize videos and write them into the knowledge base",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}

			videoIDs, err := loadVideoIDs(inputPath)
			if err != nil {
				return err
			}

			// Initialize dependencies
			digestUC, err := cfg.newDigest(ctx)
			if err != nil {
				return err
			}

			repo, err := cfg.newKnowledge()
			if err != nil {
				return err
			}

			// One use case per run: the entity resolver cache spans all
			// videos of the batch.
			ingestUC := ingest.New(repo)

			logger := logging.Default().With("run_id", uuid.New().String())
			ctx = logging.With(ctx, logger)

			logger.Info("starting ingestion run", "videos", len(videoIDs), "input", inputPath)

			indicator := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(os.Stderr))
			defer indicator.Stop()

			succeeded := 0
			for i, videoID := range videoIDs {
				indicator.Suffix = fmt.Sprintf(" %s (%d/%d)", videoID, i+1, len(videoIDs))
				indicator.Start()

				doc, err := digestUC.Process(ctx, videoID)
				if err != nil {
					indicator.Stop()
					logger.Error("failed to process video, skipping", "video_id", videoID, "error", err)
					continue
				}

				mediaID, err := ingestUC.IngestMedia(ctx, doc)
				indicator.Stop()
				if err != nil {
					logger.Error("failed to ingest video, skipping", "video_id", videoID, "error", err)
					continue
				}

				succeeded++
				fmt.Fprintf(c.Root().Writer, "Ingested %s: %s\n", videoID, mediaID)
			}

			logger.Info("ingestion run finished", "succeeded", succeeded, "failed", len(videoIDs)-succeeded)
			return nil
		},
	}
}

// loadVideoIDs reads the batch input: a JSON array of YouTube video IDs.
func loadVideoIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read input file", goerr.V("path", path))
	}

	var videoIDs []string
	if err := json.Unmarshal(data, &videoIDs); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input file", goerr.V("path", path))
	}
	if len(videoIDs) == 0 {
		return nil, goerr.New("input file contains no video IDs", goerr.V("path", path))
	}

	return videoIDs, nil
}
