// Package cdktest builds CDK apps for stack tests.
package cdktest

import (
	"os"
	"path/filepath"

	"github.com/aws/aws-cdk-go/awscdk/v2"
)

// Account and Region of the environment stacks are synthesized for in tests
const (
	Account = "123456789012"
	Region  = "eu-west-1"
)

// ChdirModuleRoot moves to the directory holding go.mod so Lambda entries and
// web assets resolve the way they do under cdk synth
func ChdirModuleRoot() {
	dir, _ := os.Getwd()
	for dir != "/" {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			_ = os.Chdir(dir)
			return
		}
		dir = filepath.Dir(dir)
	}
}

// NewApp returns an app with asset bundling disabled and context merged in
func NewApp(context map[string]any) awscdk.App {
	ctx := map[string]any{
		"aws:cdk:bundling-stacks": []any{},
	}
	for k, v := range context {
		ctx[k] = v
	}
	return awscdk.NewApp(&awscdk.AppProps{
		Context: &ctx,
	})
}

// Env is the test environment
func Env() *awscdk.Environment {
	account, region := Account, Region
	return &awscdk.Environment{
		Account: &account,
		Region:  &region,
	}
}
