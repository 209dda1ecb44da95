package main

import (
	"context"
	"os"

	"github.com/savaki/aws-bootstrap-kit/cmd/bootstrap-kit/commands"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "bootstrap-kit",
		Usage: "Inspect and operate an AWS landing zone",
		Description: `Works against the organization the landing zone created.

This tool provides commands for:
  - Listing the pipeline stages tagged on the organization's accounts
  - Verifying every stage account was bootstrapped for CDK deployments
  - Checking the CICD account before deploying a pipeline
  - Validating the landing zone layout against its policy
  - Starting load tests against the UnicornPics API`,
		Commands: []*cli.Command{
			commands.StagesCommand(),
			commands.VerifyCommand(),
			commands.PreflightCommand(),
			commands.LayoutCommand(),
			commands.LoadTestCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
