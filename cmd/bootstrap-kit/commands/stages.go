package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/services"
	"github.com/savaki/aws-bootstrap-kit/internal/stages"
	"github.com/urfave/cli/v2"
)

// StagesCommand returns the stages command for listing and publishing stages
func StagesCommand() *cli.Command {
	return &cli.Command{
		Name:    "stages",
		Aliases: []string{"s"},
		Usage:   "List the pipeline stages of the organization",
		Description: `Stages are the accounts tagged AccountType=STAGE, ordered by their StageOrder tag.

Pipelines add one deployment stage per stage, in this order.`,
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"l", "ls"},
				Usage:   "List stages in deployment order",
				Description: `Examples:
  # Discover stages from the organization
  bootstrap-kit stages list

  # Read the stages last published to Parameter Store
  bootstrap-kit stages list --registry --env prd --json`,
				Flags: []cli.Flag{
					profileFlag(),
					regionFlag("Region of the Parameter Store registry"),
					envFlag(),
					jsonFlag(),
					&cli.BoolFlag{
						Name:  "registry",
						Usage: "Read the stages published to Parameter Store instead of the organization",
					},
				},
				Action: listStagesAction,
			},
			{
				Name:  "publish",
				Usage: "Discover stages and publish them to Parameter Store",
				Description: `Writes the ordered stages as JSON to /<env>/aws-bootstrap-kit/stages so
builds without Organizations access can read them.

Examples:
  bootstrap-kit stages publish --env prd`,
				Flags: []cli.Flag{
					profileFlag(),
					regionFlag("Region of the Parameter Store registry"),
					envFlag(),
				},
				Action: publishStagesAction,
			},
		},
	}
}

func listStagesAction(c *cli.Context) error {
	container, err := newContainer(c)
	if err != nil {
		return err
	}

	var found models.Stages
	if c.Bool("registry") {
		registry, err := di.Get[*services.StageRegistry](container)
		if err != nil {
			return fail(c, err)
		}
		if found, err = registry.Load(c.Context); err != nil {
			return fail(c, err)
		}
	} else {
		organizations, err := di.Get[*services.Organizations](container)
		if err != nil {
			return fail(c, err)
		}
		if found, err = stages.Discover(c.Context, organizations); err != nil {
			return fail(c, err)
		}
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, found)
	}
	displayStages(c.App.Writer, found)
	return nil
}

func publishStagesAction(c *cli.Context) error {
	logger := zerolog.Ctx(c.Context)

	container, err := newContainer(c)
	if err != nil {
		return err
	}

	organizations, err := di.Get[*services.Organizations](container)
	if err != nil {
		return fail(c, err)
	}
	registry, err := di.Get[*services.StageRegistry](container)
	if err != nil {
		return fail(c, err)
	}

	found, err := stages.Discover(c.Context, organizations)
	if err != nil {
		return fail(c, err)
	}
	if err := registry.Publish(c.Context, found); err != nil {
		return fail(c, err)
	}

	logger.Info().
		Str("parameter", registry.Name()).
		Int("stages", len(found)).
		Msg("Published stages")
	displayStages(c.App.Writer, found)
	return nil
}

func displayStages(w io.Writer, ss models.Stages) {
	if len(ss) == 0 {
		_, _ = fmt.Fprintln(w, "No stages found. Tag accounts with AccountType=STAGE, StageName and StageOrder.")
		return
	}

	_, _ = fmt.Fprintf(w, "%-6s %-20s %-14s %s\n", "ORDER", "NAME", "ACCOUNT", "APPROVAL")
	for _, stage := range ss {
		approval := "-"
		if stage.RequiresApproval {
			approval = "required"
		}
		_, _ = fmt.Fprintf(w, "%-6d %-20s %-14s %s\n", stage.Order, stage.Name, stage.AccountID, approval)
	}
}
