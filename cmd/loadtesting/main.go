// Command loadtesting synthesizes the LoadTest state machine driving virtual
// users against a deployed Unicorn Pics stack.
package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/awserr"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/loadtest"
	"github.com/savaki/aws-bootstrap-kit/internal/synth"
)

func main() {
	defer jsii.Close()

	if err := synth.LoadEnv(); err != nil {
		awserr.Exit(err, "")
	}

	app := awscdk.NewApp(nil)
	loadtest.NewStack(app, loadtest.StackID, loadtest.Props{
		StackProps: awscdk.StackProps{Env: synth.Env()},
	})

	app.Synth(nil)
}
