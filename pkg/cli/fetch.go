package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"
)

// fetchCommand runs the pipeline up to the artifact for a single video,
// without touching the knowledge base. Useful for iterating on the prompt.
func fetchCommand() *cli.Command {
	var (
		cfg     config
		videoID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "video-id",
			Aliases:     []string{"v"},
			Usage:       "YouTube video ID",
			Destination: &videoID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, sourceFlags(&cfg)...)

	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch and summarize one video, writing only the JSON artifact",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}

			digestUC, err := cfg.newDigest(ctx)
			if err != nil {
				return err
			}

			doc, err := digestUC.Process(ctx, videoID)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Fetched %q by %s: %d snippets, artifact at %s\n",
				doc.Title, doc.Channel, len(doc.Snippets),
				filepath.Join(cfg.outputDir, doc.ID+".json"))
			return nil
		},
	}
}
