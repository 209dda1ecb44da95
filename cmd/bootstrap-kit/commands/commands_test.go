package commands

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"testing"
	"time"

	"github.com/savaki/aws-bootstrap-kit/internal/landingzone"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/orchestrator"
	"github.com/savaki/aws-bootstrap-kit/internal/services"
	"github.com/savaki/aws-bootstrap-kit/internal/stages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestApp(stdout, stderr *bytes.Buffer, commands ...*cli.Command) *cli.App {
	return &cli.App{
		Name:      "bootstrap-kit",
		Commands:  commands,
		Writer:    stdout,
		ErrWriter: stderr,
		ExitErrHandler: func(*cli.Context, error) {
		},
	}
}

func TestDisplayStages(t *testing.T) {
	t.Run("ordered stages", func(t *testing.T) {
		var buf bytes.Buffer
		displayStages(&buf, models.Stages{
			{Name: "Dev", AccountID: "111111111111", Order: 1},
			{Name: "Prod", AccountID: "222222222222", Order: 2, RequiresApproval: true},
		})

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 3)
		assert.Contains(t, string(lines[0]), "APPROVAL")
		assert.Contains(t, string(lines[1]), "Dev")
		assert.Contains(t, string(lines[2]), "required")
	})

	t.Run("no stages", func(t *testing.T) {
		var buf bytes.Buffer
		displayStages(&buf, nil)
		assert.Contains(t, buf.String(), "No stages found")
	})
}

func TestDisplayResults(t *testing.T) {
	var buf bytes.Buffer
	displayResults(&buf, []stages.Result{
		{AccountID: "111111111111", Region: "eu-west-1", Deployable: true},
		{AccountID: "222222222222", Region: "eu-west-1", Deployable: false},
	})

	out := buf.String()
	assert.Contains(t, out, "111111111111   eu-west-1        true")
	assert.Contains(t, out, "222222222222   eu-west-1        false")
}

func TestDisplayReport(t *testing.T) {
	var buf bytes.Buffer
	displayReport(&buf, &services.PreflightReport{
		Identity: &services.Identity{Account: "111111111111"},
		Checks: []services.Check{
			{Name: "caller-identity", OK: true},
			{Name: "github-token", OK: false, Detail: "secret GITHUB_TOKEN not found"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Account: 111111111111")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "secret GITHUB_TOKEN not found")
}

func TestDisplayStatuses(t *testing.T) {
	var buf bytes.Buffer
	displayStatuses(&buf, []landingzone.AccountStatus{
		{Name: "CICD", AccountID: "111111111111", State: landingzone.StatePresent},
		{Name: "DNS", State: landingzone.StateMissing},
		{
			Name:      "WorkloadA-Prod",
			AccountID: "333333333333",
			State:     landingzone.StateDrifted,
			Drift:     map[string]string{"StageOrder": "4", "RequiresApproval": ""},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "DNS                  -              MISSING")
	assert.Contains(t, out, `RequiresApproval="" StageOrder="4"`)
}

func TestLayoutShow(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := newTestApp(&stdout, &stderr, LayoutCommand())

	err := app.Run([]string{"bootstrap-kit", "layout", "show"})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "WorkloadA-Prod")
	assert.Contains(t, stdout.String(), "ORDER")
}

func TestLayoutValidate(t *testing.T) {
	testCases := map[string]struct {
		Args    []string
		WantErr bool
	}{
		"default layout": {
			Args: []string{"bootstrap-kit", "layout", "validate"},
		},
		"dev must require approval": {
			Args:    []string{"bootstrap-kit", "layout", "validate", "--approval-pattern", "^Dev$"},
			WantErr: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			app := newTestApp(&stdout, &stderr, LayoutCommand())

			err := app.RunContext(context.Background(), tc.Args)
			if tc.WantErr {
				assert.Error(t, err)
				assert.NotEmpty(t, stderr.String())
				return
			}
			require.NoError(t, err)
			assert.Contains(t, stdout.String(), "layout is valid")
		})
	}
}

func TestLoadTestStart_Limits(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := newTestApp(&stdout, &stderr, LoadTestCommand())

	err := app.Run([]string{"bootstrap-kit", "loadtest", "start", "--users", "1001"})

	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, err.Error(), "NumberOfUsers")
}

func TestFail(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("profile", "cicd", "")

	var stderr bytes.Buffer
	c := cli.NewContext(&cli.App{ErrWriter: &stderr}, set, nil)
	assert.NoError(t, fail(c, nil))

	t.Run("unknown error", func(t *testing.T) {
		stderr.Reset()
		err := fail(c, errors.New("boom"))
		var exitErr cli.ExitCoder
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 1, exitErr.ExitCode())
		assert.Empty(t, err.Error())
		assert.Equal(t, "boom\n", stderr.String())
	})

	t.Run("credentials error", func(t *testing.T) {
		stderr.Reset()
		err := fail(c, errors.New("operation error STS: GetCallerIdentity, failed to retrieve credentials"))
		var exitErr cli.ExitCoder
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 1, exitErr.ExitCode())
		assert.Equal(t, "\x1b[31m"+`Failed to get credentials for "cicd" profile. Make sure to run "aws configure sso --profile cicd && aws sso login --profile cicd"`+"\x1b[0m\n\n", stderr.String())
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, writeJSON(&buf, orchestrator.Execution{
		ExecutionArn: "arn:aws:states:eu-west-1:123456789012:execution:LoadTest:loadtest-1",
		Status:       "RUNNING",
		StartDate:    &started,
	}))
	assert.Contains(t, buf.String(), `"status": "RUNNING"`)
	assert.Contains(t, buf.String(), `"startDate": "2024-01-02T03:04:05Z"`)
}
