package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/landingzone"
	"github.com/savaki/aws-bootstrap-kit/internal/policy"
	"github.com/savaki/aws-bootstrap-kit/internal/services"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Layout YAML file, the built in layout when empty",
		EnvVars: []string{"LAYOUT_FILE"},
	}
}

// LayoutCommand returns the layout command for the landing zone layout
func LayoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "layout",
		Usage: "Inspect the landing zone layout",
		Description: `The layout lists the organizational units and accounts the sdlc-organization
app creates. Accounts of type STAGE become pipeline stages.`,
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the layout and the stages it produces",
				Flags: []cli.Flag{
					fileFlag(),
					jsonFlag(),
				},
				Action: showLayoutAction,
			},
			{
				Name:  "validate",
				Usage: "Check the layout against the landing zone policy",
				Description: `Examples:
  bootstrap-kit layout validate --file layout.yaml
  bootstrap-kit layout validate --approval-pattern '^(Prod|Staging)$'`,
				Flags: []cli.Flag{
					fileFlag(),
					&cli.StringFlag{
						Name:  "approval-pattern",
						Usage: "Stage names that must require approval, the policy default when empty",
					},
				},
				Action: validateLayoutAction,
			},
			{
				Name:  "status",
				Usage: "Compare the layout with the accounts of the organization",
				Flags: []cli.Flag{
					profileFlag(),
					fileFlag(),
					jsonFlag(),
				},
				Action: layoutStatusAction,
			},
		},
	}
}

func showLayoutAction(c *cli.Context) error {
	layout, err := landingzone.Load(c.String("file"))
	if err != nil {
		return err
	}
	layoutStages, err := layout.Stages()
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, map[string]any{
			"layout": layout,
			"stages": layoutStages,
		})
	}

	data, err := yaml.Marshal(layout)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}
	_, _ = fmt.Fprintln(c.App.Writer, string(data))
	displayStages(c.App.Writer, layoutStages)
	return nil
}

func validateLayoutAction(c *cli.Context) error {
	layout, err := landingzone.Load(c.String("file"))
	if err != nil {
		return err
	}

	validator, err := policy.NewValidator(c.Context, policy.Options{
		ApprovalPattern: c.String("approval-pattern"),
	})
	if err != nil {
		return err
	}

	result, err := layout.Check(c.Context, validator)
	if result != nil {
		for _, violation := range result.Violations {
			_, _ = fmt.Fprintf(c.App.ErrWriter, "  - %s\n", violation)
		}
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	_, _ = fmt.Fprintln(c.App.Writer, "layout is valid")
	return nil
}

func layoutStatusAction(c *cli.Context) error {
	layout, err := landingzone.Load(c.String("file"))
	if err != nil {
		return err
	}

	container, err := newContainer(c)
	if err != nil {
		return err
	}
	organizations, err := di.Get[*services.Organizations](container)
	if err != nil {
		return fail(c, err)
	}
	accounts, err := organizations.ListAccounts(c.Context)
	if err != nil {
		return fail(c, err)
	}

	statuses := layout.Status(accounts)
	if c.Bool("json") {
		return writeJSON(c.App.Writer, statuses)
	}
	displayStatuses(c.App.Writer, statuses)
	return nil
}

func displayStatuses(w io.Writer, statuses []landingzone.AccountStatus) {
	_, _ = fmt.Fprintf(w, "%-20s %-14s %-8s %s\n", "ACCOUNT", "ID", "STATE", "DRIFT")
	for _, status := range statuses {
		id := status.AccountID
		if id == "" {
			id = "-"
		}
		keys := make([]string, 0, len(status.Drift))
		for key := range status.Drift {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		drift := make([]string, 0, len(keys))
		for _, key := range keys {
			drift = append(drift, fmt.Sprintf("%s=%q", key, status.Drift[key]))
		}
		_, _ = fmt.Fprintf(w, "%-20s %-14s %-8s %s\n", status.Name, id, status.State, strings.Join(drift, " "))
	}
}
