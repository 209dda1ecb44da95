package commands

import (
	"fmt"
	"io"

	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/services"
	"github.com/urfave/cli/v2"
)

// PreflightCommand returns the preflight command checking the CICD account
func PreflightCommand() *cli.Command {
	return &cli.Command{
		Name:  "preflight",
		Usage: "Check the CICD account holds what pipeline stacks import",
		Description: `Pipeline stacks read the GitHub token from Secrets Manager and import the
permissions boundary exported by the CICD account bootstrap. Run this before
the first deployment of a pipeline.

Examples:
  bootstrap-kit preflight --region eu-west-1`,
		Flags: []cli.Flag{
			profileFlag(),
			regionFlag("Region the pipeline deploys to"),
			&cli.StringFlag{
				Name:  "secret",
				Usage: "Secrets Manager secret holding the GitHub token",
				Value: constants.GitHubTokenSecret,
			},
			&cli.StringFlag{
				Name:  "boundary-export",
				Usage: "CloudFormation export holding the permissions boundary ARN",
				Value: constants.PermissionsBoundaryExport,
			},
			jsonFlag(),
		},
		Action: preflightAction,
	}
}

func preflightAction(c *cli.Context) error {
	container, err := newContainer(c)
	if err != nil {
		return err
	}

	preflight, err := di.Get[*services.Preflight](container)
	if err != nil {
		return fail(c, err)
	}

	report, err := preflight.Run(c.Context, services.PreflightInput{
		SecretID:       c.String("secret"),
		BoundaryExport: c.String("boundary-export"),
	})
	if err != nil {
		return fail(c, err)
	}

	if c.Bool("json") {
		if err := writeJSON(c.App.Writer, report); err != nil {
			return err
		}
	} else {
		displayReport(c.App.Writer, report)
	}

	if !report.OK() {
		return cli.Exit("preflight checks failed", 1)
	}
	return nil
}

func displayReport(w io.Writer, report *services.PreflightReport) {
	if report.Identity != nil {
		_, _ = fmt.Fprintf(w, "Account: %s\n\n", report.Identity.Account)
	}
	for _, check := range report.Checks {
		status := "ok"
		if !check.OK {
			status = "FAILED"
		}
		_, _ = fmt.Fprintf(w, "%-30s %-7s %s\n", check.Name, status, check.Detail)
	}
}
