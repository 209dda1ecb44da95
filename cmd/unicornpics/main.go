// Command unicornpics synthesizes the Unicorn Pics photo sharing app.
package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/awserr"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/unicornpics"
	"github.com/savaki/aws-bootstrap-kit/internal/synth"
)

func main() {
	defer jsii.Close()

	if err := synth.LoadEnv(); err != nil {
		awserr.Exit(err, "")
	}

	app := awscdk.NewApp(nil)
	unicornpics.NewStack(app, unicornpics.StackID, unicornpics.Props{
		StackProps: awscdk.StackProps{Env: synth.Env()},
	})

	app.Synth(nil)
}
