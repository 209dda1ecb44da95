package commands

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

// LoadTestCommand returns the loadtest command driving the LoadTest state machine
func LoadTestCommand() *cli.Command {
	return &cli.Command{
		Name:  "loadtest",
		Usage: "Start and follow Unicorn Pics load tests",
		Description: fmt.Sprintf(`The LoadTest state machine creates NumberOfUsers Cognito users, each liking
posts for TestDurationMinutes, then deletes them. Limits: at most %d users,
%d likes per user and less than %d minutes.`,
			models.MaxLoadTestUsers, models.MaxLoadTestLikesPerUser, models.MaxLoadTestMinutes),
		Subcommands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start a load test execution",
				Description: `Examples:
  bootstrap-kit loadtest start --users 100
  bootstrap-kit loadtest start --state-machine-arn arn:aws:states:... --users 10 --minutes 2`,
				Flags: []cli.Flag{
					profileFlag(),
					regionFlag("Region of the LoadtestingStack"),
					envFlag(),
					stateMachineFlag(),
					&cli.IntFlag{
						Name:     "users",
						Aliases:  []string{"u"},
						Usage:    "Number of virtual users",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "likes",
						Usage: "Likes per user",
						Value: models.DefaultLoadTestLikes,
					},
					&cli.IntFlag{
						Name:  "minutes",
						Usage: "Test duration in minutes",
						Value: models.DefaultLoadTestMinutes,
					},
				},
				Action: startLoadTestAction,
			},
			{
				Name:  "status",
				Usage: "Show the state of a load test execution",
				Flags: []cli.Flag{
					profileFlag(),
					regionFlag("Region of the LoadtestingStack"),
					envFlag(),
					&cli.StringFlag{
						Name:     "execution-arn",
						Usage:    "Execution ARN printed by loadtest start",
						Required: true,
					},
					jsonFlag(),
				},
				Action: loadTestStatusAction,
			},
		},
	}
}

func stateMachineFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "state-machine-arn",
		Usage:   "LoadTest state machine ARN, read from Parameter Store when empty",
		EnvVars: []string{"LOAD_TEST_STATE_MACHINE_ARN"},
	}
}

// newOrchestrator uses --state-machine-arn when set and the app config otherwise
func newOrchestrator(c *cli.Context, container di.Container) (*orchestrator.Orchestrator, error) {
	if arn := c.String("state-machine-arn"); arn != "" {
		client, err := di.Get[*sfn.Client](container)
		if err != nil {
			return nil, err
		}
		return orchestrator.New(client, arn), nil
	}
	return di.Get[*orchestrator.Orchestrator](container)
}

func startLoadTestAction(c *cli.Context) error {
	logger := zerolog.Ctx(c.Context)

	input := models.LoadTestInput{
		NumberOfUsers:        c.Int("users"),
		NumberOfLikesPerUser: c.Int("likes"),
		TestDurationMinutes:  c.Int("minutes"),
	}
	if err := orchestrator.Validate(input); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	container, err := newContainer(c)
	if err != nil {
		return err
	}
	o, err := newOrchestrator(c, container)
	if err != nil {
		return fail(c, err)
	}

	executionArn, err := o.StartLoadTest(c.Context, input)
	if err != nil {
		return fail(c, err)
	}

	logger.Info().
		Str("executionArn", executionArn).
		Int("users", input.NumberOfUsers).
		Int("minutes", input.TestDurationMinutes).
		Msg("Started load test")
	_, _ = fmt.Fprintln(c.App.Writer, executionArn)
	return nil
}

func loadTestStatusAction(c *cli.Context) error {
	container, err := newContainer(c)
	if err != nil {
		return err
	}
	client, err := di.Get[*sfn.Client](container)
	if err != nil {
		return fail(c, err)
	}

	// any state machine ARN works for Describe
	execution, err := orchestrator.New(client, "").Describe(c.Context, c.String("execution-arn"))
	if err != nil {
		return fail(c, err)
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, execution)
	}

	_, _ = fmt.Fprintf(c.App.Writer, "Execution: %s\nStatus:    %s\n", execution.ExecutionArn, execution.Status)
	if execution.StartDate != nil {
		_, _ = fmt.Fprintf(c.App.Writer, "Started:   %s\n", execution.StartDate.Format("2006-01-02 15:04:05"))
	}
	if execution.StopDate != nil {
		_, _ = fmt.Fprintf(c.App.Writer, "Stopped:   %s\n", execution.StopDate.Format("2006-01-02 15:04:05"))
	}
	if execution.Error != "" {
		_, _ = fmt.Fprintf(c.App.Writer, "Error:     %s\n", execution.Error)
	}
	return nil
}
