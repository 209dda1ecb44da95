package commands

import (
	"encoding/json"
	"io"
	"os"

	"github.com/savaki/aws-bootstrap-kit/internal/awserr"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/urfave/cli/v2"
)

func profileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "profile",
		Usage:   "Shared config profile, ignored inside CodeBuild",
		Value:   constants.CICDProfile,
		EnvVars: []string{"AWS_PROFILE"},
	}
}

func regionFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    "region",
		Aliases: []string{"r"},
		Usage:   usage,
		EnvVars: []string{"AWS_REGION"},
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "env",
		Aliases: []string{"e"},
		Usage:   "Environment of the parameters under /<env>/aws-bootstrap-kit",
		Value:   "dev",
		EnvVars: []string{"ENV"},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "json",
		Aliases: []string{"j"},
		Usage:   "Output as JSON",
	}
}

// newContainer builds the container from the common flags
func newContainer(c *cli.Context) (di.Container, error) {
	return di.New(c.String("env"),
		di.WithContext(c.Context),
		di.WithProfile(c.String("profile")),
		di.WithRegion(c.String("region")),
	)
}

// fail prints the hint for err and returns an exit error with nothing left
// to print
func fail(c *cli.Context, err error) error {
	if err == nil {
		return nil
	}
	w := c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	awserr.Fail(w, err, c.String("profile"))
	return cli.Exit("", 1)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
