// Package stagedns creates the public hosted zone of one stage.
package stagedns

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
)

// StackID is the id of the stack inside a DNS stage
const StackID = "DNS-Infrastructure"

// Props configures the stage DNS stack
type Props struct {
	awscdk.StackProps

	// StageName selects the zone name from StageDomainMapping
	StageName          string
	StageDomainMapping map[string]string
}

// NewStack creates the hosted zone of props.StageName and outputs its name
// servers, id and arn
func NewStack(scope constructs.Construct, id string, props Props) (awscdk.Stack, error) {
	domain, ok := props.StageDomainMapping[props.StageName]
	if !ok {
		return nil, fmt.Errorf("no domain mapped to stage %q in %s", props.StageName, cdkutil.ContextStageDomainMapping)
	}

	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)

	zone := awsroute53.NewPublicHostedZone(stack, jsii.String("stageHostedZone"), &awsroute53.PublicHostedZoneProps{
		ZoneName: jsii.String(domain),
	})
	if zone.HostedZoneNameServers() != nil {
		awscdk.NewCfnOutput(stack, jsii.String("NS records"), &awscdk.CfnOutputProps{
			Value: awscdk.Fn_Join(jsii.String(","), zone.HostedZoneNameServers()),
		})
	}
	awscdk.NewCfnOutput(stack, jsii.String("HostedZoneId"), &awscdk.CfnOutputProps{
		Value: zone.HostedZoneId(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("HostedZoneArn"), &awscdk.CfnOutputProps{
		Value: zone.HostedZoneArn(),
	})

	return stack, nil
}

// NewStage wraps the DNS stack of the stage named id, in lower case
func NewStage(scope constructs.Construct, id string, props *awscdk.StageProps) (awscdk.Stage, error) {
	stage := awscdk.NewStage(scope, jsii.String(id), props)
	cfg := cdkutil.ConfigFromScope(scope)

	if _, err := NewStack(stage, StackID, Props{
		StageName:          strings.ToLower(id),
		StageDomainMapping: cfg.StageDomainMapping,
	}); err != nil {
		return nil, err
	}
	return stage, nil
}
