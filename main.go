package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/client"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "ghcr2ecr",
		Short:         "Copy a container image from GitHub Container Registry to AWS ECR",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(); err != nil {
				cmd.Usage()
				return err
			}
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "source image reference, e.g. ghcr.io/acme/app:v1")
	cmd.Flags().StringVarP(&opts.Destination, "destination", "d", "", "destination image reference, e.g. <account>.dkr.ecr.<region>.amazonaws.com/app:v1")
	cmd.Flags().StringVarP(&opts.Region, "region", "r", "", `destination ECR region (default "`+defaultRegion+`")`)
	cmd.Flags().StringVarP(&opts.GithubToken, "github-token", "g", "", "GHCR token (falls back to the "+tokenEnv+" environment variable)")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "YAML file with defaults for region, profile and github_token")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.Usage()
		return err
	})

	return cmd
}

func run(ctx context.Context, opts *Options) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("starting docker client: %w", err)
	}

	aws, err := initConfig(ctx,
		withRegion(opts.Region),
		withProfile(opts.Profile),
	)
	if err != nil {
		return fmt.Errorf("loading aws config: %w", err)
	}

	svc := aws.establishClientWith(
		ecrService(aws.cfg),
		stsService(aws.cfg),
	)

	return newTransfer(opts, newDocker(cli), newEcr(svc.ecr), svc.sts).run(ctx)
}
