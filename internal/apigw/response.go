// Package apigw builds API Gateway proxy responses for the workload functions.
package apigw

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// AllowAnyOrigin is the CORS origin of the posts API
const AllowAnyOrigin = "*"

// ErrorResponse is the body returned on failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON marshals body into a proxy response with CORS headers
func JSON(statusCode int, body interface{}) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers(),
			Body:       `{"error":"failed to marshal response"}`,
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers(),
		Body:       string(data),
	}
}

// Error returns a JSON error body
func Error(statusCode int, message string) events.APIGatewayProxyResponse {
	return JSON(statusCode, ErrorResponse{Error: message})
}

// Claim returns a Cognito authorizer claim of the request, or ""
func Claim(req events.APIGatewayProxyRequest, name string) string {
	claims, ok := req.RequestContext.Authorizer["claims"].(map[string]interface{})
	if !ok {
		return ""
	}
	v, _ := claims[name].(string)
	return v
}

func headers() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": AllowAnyOrigin,
	}
}
