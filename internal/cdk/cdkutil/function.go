package cdkutil

import (
	"maps"
	"path/filepath"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdklambdagoalpha/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/iancoleman/strcase"
)

// LambdaRoot is the directory holding one main package per Lambda handler
const LambdaRoot = "internal/lambda"

// FunctionProps configures NewGoFunction
type FunctionProps struct {
	// Handler is the path of the handler below internal/lambda, e.g. "posts/get-posts"
	Handler     string
	Environment map[string]*string
	Timeout     awscdk.Duration
	MemorySize  float64
	Role        awsiam.IRole
}

// ReproducibleGoBundling builds the same binary for the same source, so
// unchanged handlers are not redeployed
func ReproducibleGoBundling() *awscdklambdagoalpha.BundlingOptions {
	return &awscdklambdagoalpha.BundlingOptions{
		GoBuildFlags: jsii.Strings(
			"-trimpath",
			"-ldflags=-buildid=",
			"-buildvcs=false",
		),
		Environment: &map[string]*string{
			"CGO_ENABLED": jsii.String("0"),
		},
	}
}

// FunctionID returns the construct id of a handler, "posts/get-posts" becomes "GetPosts"
func FunctionID(handler string) string {
	return strcase.ToCamel(filepath.Base(handler))
}

// NewGoFunction builds the handler's main package for arm64 on provided.al2023.
// The construct id is derived from the handler name.
func NewGoFunction(scope constructs.Construct, props FunctionProps) awscdklambdagoalpha.GoFunction {
	return NewGoFunctionWithID(scope, FunctionID(props.Handler), props)
}

// NewGoFunctionWithID is NewGoFunction for handlers deployed more than once
// in the same scope
func NewGoFunctionWithID(scope constructs.Construct, id string, props FunctionProps) awscdklambdagoalpha.GoFunction {
	env := map[string]*string{}
	maps.Copy(env, props.Environment)

	timeout := props.Timeout
	if timeout == nil {
		timeout = awscdk.Duration_Seconds(jsii.Number(30))
	}
	memory := props.MemorySize
	if memory == 0 {
		memory = 128
	}

	return awscdklambdagoalpha.NewGoFunction(scope, jsii.String(id),
		&awscdklambdagoalpha.GoFunctionProps{
			Entry:         jsii.String(filepath.ToSlash(filepath.Join(LambdaRoot, props.Handler))),
			Architecture:  awslambda.Architecture_ARM_64(),
			Runtime:       awslambda.Runtime_PROVIDED_AL2023(),
			MemorySize:    jsii.Number(memory),
			Timeout:       timeout,
			Environment:   &env,
			Role:          props.Role,
			Bundling:      ReproducibleGoBundling(),
			LoggingFormat: awslambda.LoggingFormat_JSON,
		})
}

// AcknowledgeBuildFlags silences the go-alpha warning about custom build flags
func AcknowledgeBuildFlags(stack awscdk.Stack) {
	awscdk.Annotations_Of(stack).AcknowledgeWarning(
		jsii.String("@aws-cdk/aws-lambda-go-alpha:goBuildFlagsSecurityWarning"),
		jsii.String("Build flags are fixed by cdkutil.ReproducibleGoBundling"),
	)
}
