// Package synth holds what every CDK app does before building its stacks:
// loading a local .env, reading the CDK context and resolving the
// organization's stages.
package synth

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/awserr"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/services"
	"github.com/savaki/aws-bootstrap-kit/internal/stages"
)

// Options configures stage resolution
type Options struct {
	// Profile is the shared config profile used outside CodeBuild
	Profile string
	// Region is where the pipeline deploys, stages are verified there
	Region    string
	Qualifier string
	// Verify checks every stage account was bootstrapped in Region
	Verify bool
}

// LoadEnv reads .env from the working directory when present
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Env is the account and region the CDK CLI resolved for the app
func Env() *awscdk.Environment {
	env := &awscdk.Environment{}
	if account := os.Getenv("CDK_DEFAULT_ACCOUNT"); account != "" {
		env.Account = jsii.String(account)
	}
	if region := os.Getenv("CDK_DEFAULT_REGION"); region != "" {
		env.Region = jsii.String(region)
	}
	return env
}

// Resolve discovers the ordered stages and, with opts.Verify, stops at the
// first stage account that cannot be deployed to
func Resolve(ctx context.Context, lister stages.AccountLister, checker stages.Checker, opts Options) (models.Stages, error) {
	logger := zerolog.Ctx(ctx)

	discovered, err := stages.Discover(ctx, lister)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("stages", len(discovered)).Msg("Discovered stages")

	if !opts.Verify {
		return discovered, nil
	}

	qualifier := opts.Qualifier
	if qualifier == "" {
		qualifier = constants.DefaultQualifier
	}
	if err := stages.VerifyAll(ctx, checker, discovered.AccountIDs(), opts.Region, qualifier); err != nil {
		return nil, err
	}
	return discovered, nil
}

// Stages resolves the stages with clients built from the shared config
func Stages(ctx context.Context, opts Options) (models.Stages, error) {
	if opts.Profile == "" {
		opts.Profile = constants.CICDProfile
	}

	container, err := di.New("",
		di.WithContext(ctx),
		di.WithProfile(opts.Profile),
		di.WithRegion(opts.Region),
	)
	if err != nil {
		return nil, err
	}

	lister, err := di.Get[*services.Organizations](container)
	if err != nil {
		return nil, err
	}

	var checker stages.Checker
	if opts.Verify {
		if checker, err = di.Get[*services.BootstrapChecker](container); err != nil {
			return nil, err
		}
	}

	return Resolve(ctx, lister, checker, opts)
}

// MustStages is Stages for CDK apps, a failure prints the hint for the
// error and exits so the synth fails
func MustStages(ctx context.Context, opts Options) models.Stages {
	discovered, err := Stages(ctx, opts)
	if err != nil {
		profile := opts.Profile
		if profile == "" {
			profile = constants.CICDProfile
		}
		awserr.Exit(err, profile)
	}
	return discovered
}

// MustConfig reads the CDK context of app, requiring fields, and stores it
// on the app for stages to read. A failure prints the errors and exits.
func MustConfig(app awscdk.App, required ...string) *cdkutil.Config {
	cfg, err := cdkutil.NewConfig(app, required...)
	if err != nil {
		awserr.Exit(err, "")
	}
	cdkutil.StoreConfig(app, cfg)
	return cfg
}

// Logger returns the context used by CDK apps
func Logger() context.Context {
	logger := di.ProvideLogger()
	return logger.WithContext(context.Background())
}
