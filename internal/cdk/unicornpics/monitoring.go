package unicornpics

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const (
	BusinessDashboardName  = "BusinessDashboard"
	TechnicalDashboardName = "TechnicalDashboard"

	// MetricsNamespace holds the app's business metrics
	MetricsNamespace = "UnicornPics"
)

// MonitoringProps names the resources the dashboards graph
type MonitoringProps struct {
	Auth  *Auth
	Posts *PostsService
}

func newMetric(namespace, name, statistic string, dimensions map[string]*string) awscloudwatch.Metric {
	props := &awscloudwatch.MetricProps{
		Namespace:  jsii.String(namespace),
		MetricName: jsii.String(name),
		Statistic:  jsii.String(statistic),
		Period:     awscdk.Duration_Minutes(jsii.Number(1)),
	}
	if len(dimensions) > 0 {
		props.DimensionsMap = &dimensions
	}
	return awscloudwatch.NewMetric(props)
}

func newWidget(title string, metrics ...awscloudwatch.IMetric) awscloudwatch.GraphWidget {
	return awscloudwatch.NewGraphWidget(&awscloudwatch.GraphWidgetProps{
		Title:    jsii.String(title),
		View:     awscloudwatch.GraphWidgetView_TIME_SERIES,
		LiveData: jsii.Bool(true),
		Left:     &metrics,
		LeftYAxis: &awscloudwatch.YAxisProps{
			ShowUnits: jsii.Bool(true),
		},
	})
}

// NewMonitoring creates the business and technical dashboards
func NewMonitoring(scope constructs.Construct, id string, props MonitoringProps) {
	construct := constructs.NewConstruct(scope, jsii.String(id))

	cognitoDimensions := map[string]*string{
		"UserPool":       props.Auth.UserPool.UserPoolId(),
		"UserPoolClient": props.Auth.UserPoolClient.UserPoolClientId(),
	}
	apiDimensions := map[string]*string{
		"ApiName": jsii.String(APIName),
	}
	tableDimensions := map[string]*string{
		"TableName": props.Posts.Table.TableName(),
	}

	apiSearch := awscloudwatch.NewMathExpression(&awscloudwatch.MathExpressionProps{
		Expression:   jsii.String(`SEARCH('{AWS/ApiGateway,ApiName,Method,Resource,Stage} (Method="GET" OR Method="PUT") AND MetricName="Count"', 'SampleCount', 300)`),
		UsingMetrics: &map[string]awscloudwatch.IMetric{},
	})
	apiUsage := awscloudwatch.NewGraphWidget(&awscloudwatch.GraphWidgetProps{
		Title:    jsii.String("API usage"),
		View:     awscloudwatch.GraphWidgetView_TIME_SERIES,
		Stacked:  jsii.Bool(true),
		LiveData: jsii.Bool(true),
		Left: &[]awscloudwatch.IMetric{
			awscloudwatch.NewMathExpression(&awscloudwatch.MathExpressionProps{
				Expression:   jsii.String("FILL(count, 0)"),
				UsingMetrics: &map[string]awscloudwatch.IMetric{"count": apiSearch},
				Label:        jsii.String("Count"),
			}),
		},
		LeftYAxis: &awscloudwatch.YAxisProps{ShowUnits: jsii.Bool(true)},
		Height:    jsii.Number(12),
		Width:     jsii.Number(12),
	})

	business := awscloudwatch.NewDashboard(construct, jsii.String("businessDashboard"), &awscloudwatch.DashboardProps{
		DashboardName: jsii.String(BusinessDashboardName),
	})
	business.AddWidgets(
		newWidget("Uploaded Pics", newMetric(MetricsNamespace, "UploadedPics", "SampleCount", nil)),
		newWidget("Likes", newMetric(MetricsNamespace, "Likes", "SampleCount", nil)),
		apiUsage,
		newWidget("Dislikes", newMetric(MetricsNamespace, "Dislikes", "SampleCount", nil)),
		newWidget("SignUp", newMetric("AWS/Cognito", "SignUpSuccesses", "SampleCount", cognitoDimensions)),
	)
	business.AddWidgets(
		newWidget("SignIn", newMetric("AWS/Cognito", "SignInSuccesses", "SampleCount", cognitoDimensions)),
	)

	technical := awscloudwatch.NewDashboard(construct, jsii.String("technicalDashboard"), &awscloudwatch.DashboardProps{
		DashboardName: jsii.String(TechnicalDashboardName),
	})
	technical.AddWidgets(
		newWidget("Lambda invocations", newMetric("AWS/Lambda", "Invocations", "SampleCount", nil)),
		newWidget("Lambda errors", newMetric("AWS/Lambda", "Errors", "SampleCount", nil)),
		newWidget("Lambda durations", newMetric("AWS/Lambda", "Duration", "Average", nil)),
		newWidget("Lambda throttles", newMetric("AWS/Lambda", "Throttles", "SampleCount", nil)),
		newWidget("API Gateway errors", newMetric("AWS/ApiGateway", "5XXError", "SampleCount", apiDimensions)),
		newWidget("API Gateway latency", newMetric("AWS/ApiGateway", "Latency", "Average", apiDimensions)),
		newWidget("API Gateway integration latency", newMetric("AWS/ApiGateway", "IntegrationLatency", "Average", apiDimensions)),
		newWidget("DynamoDB Capacity Units usage",
			newMetric("AWS/DynamoDB", "ConsumedReadCapacityUnits", "SampleCount", tableDimensions),
			newMetric("AWS/DynamoDB", "ConsumedWriteCapacityUnits", "SampleCount", tableDimensions),
		),
	)
}
