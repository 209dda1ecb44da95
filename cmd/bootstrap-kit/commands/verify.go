package commands

import (
	"fmt"
	"io"

	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/services"
	"github.com/savaki/aws-bootstrap-kit/internal/stages"
	"github.com/urfave/cli/v2"
)

// VerifyCommand returns the verify command checking stage accounts are deployable
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:    "verify",
		Aliases: []string{"v"},
		Usage:   "Check every stage account was bootstrapped in the pipeline region",
		Description: `Assumes the CDK deploy role of each stage account and reads the qualifier of
its CDKToolkit stack. Exits with status 1 when any account is not deployable.

Examples:
  bootstrap-kit verify --region eu-west-1
  bootstrap-kit verify --region eu-west-1 --qualifier custom --json`,
		Flags: []cli.Flag{
			profileFlag(),
			regionFlag("Region the pipeline deploys to"),
			&cli.StringFlag{
				Name:    "qualifier",
				Aliases: []string{"q"},
				Usage:   "Bootstrap qualifier",
				Value:   constants.DefaultQualifier,
				EnvVars: []string{"CDK_QUALIFIER"},
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"c"},
				Usage:   "Accounts checked at once",
				Value:   4,
			},
			jsonFlag(),
		},
		Action: verifyAction,
	}
}

func verifyAction(c *cli.Context) error {
	region := c.String("region")
	if region == "" {
		return fmt.Errorf("--region is required")
	}

	container, err := newContainer(c)
	if err != nil {
		return err
	}

	organizations, err := di.Get[*services.Organizations](container)
	if err != nil {
		return fail(c, err)
	}
	checker, err := di.Get[*services.BootstrapChecker](container)
	if err != nil {
		return fail(c, err)
	}

	found, err := stages.Discover(c.Context, organizations)
	if err != nil {
		return fail(c, err)
	}

	results, err := stages.Report(c.Context, checker, found.AccountIDs(), region, c.String("qualifier"), c.Int("concurrency"))
	if err != nil {
		return fail(c, err)
	}

	if c.Bool("json") {
		if err := writeJSON(c.App.Writer, results); err != nil {
			return err
		}
	} else {
		displayResults(c.App.Writer, results)
	}

	for _, result := range results {
		if !result.Deployable {
			return fail(c, &stages.NotBootstrappedError{AccountID: result.AccountID, Region: result.Region})
		}
	}
	return nil
}

func displayResults(w io.Writer, results []stages.Result) {
	_, _ = fmt.Fprintf(w, "%-14s %-16s %s\n", "ACCOUNT", "REGION", "DEPLOYABLE")
	for _, result := range results {
		_, _ = fmt.Fprintf(w, "%-14s %-16s %t\n", result.AccountID, result.Region, result.Deployable)
	}
}
