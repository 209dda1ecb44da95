// Package awserr turns AWS SDK failures into the console hints printed by the
// synth programs and the CLI before they exit.
package awserr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/ssocreds"
	"github.com/aws/smithy-go"
)

// Kind is the class of a failure as far as the user is concerned
type Kind int

const (
	KindUnknown Kind = iota
	KindCredentials
	KindExpiredToken
	KindAccessDenied
)

func (k Kind) String() string {
	switch k {
	case KindCredentials:
		return "credentials"
	case KindExpiredToken:
		return "expired-token"
	case KindAccessDenied:
		return "access-denied"
	default:
		return "unknown"
	}
}

const (
	red   = "\x1b[31m"
	reset = "\x1b[0m"
)

var credentialMessages = []string{
	"failed to retrieve credentials",
	"failed to refresh cached credentials",
	"get identity: get credentials",
	"no EC2 IMDS role found",
}

// Classify maps err onto a Kind
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ExpiredTokenException", "ExpiredToken", "RequestExpired":
			return KindExpiredToken
		case "AccessDeniedException", "AccessDenied":
			return KindAccessDenied
		case "UnrecognizedClientException", "InvalidClientTokenId":
			return KindCredentials
		}
	}

	// a stale SSO cache needs the full configure and login hint
	var tokenErr *ssocreds.InvalidTokenError
	if errors.As(err, &tokenErr) {
		return KindCredentials
	}

	var profileErr config.SharedConfigProfileNotExistError
	if errors.As(err, &profileErr) {
		return KindCredentials
	}

	msg := err.Error()
	for _, m := range credentialMessages {
		if strings.Contains(msg, m) {
			return KindCredentials
		}
	}

	return KindUnknown
}

// Hint returns the message shown to the user for err
func Hint(err error, profile string) string {
	switch Classify(err) {
	case KindCredentials:
		return fmt.Sprintf(`Failed to get credentials for "%s" profile. Make sure to run "aws configure sso --profile %s && aws sso login --profile %s"`,
			profile, profile, profile)
	case KindExpiredToken:
		return fmt.Sprintf(`Token expired, run "aws sso login --profile %s"`, profile)
	case KindAccessDenied:
		return "Unable to call the AWS Organizations ListAccounts API. Make sure to add a PolicyStatement with the organizations:ListAccounts action to your synth action"
	default:
		if err == nil {
			return ""
		}
		return err.Error()
	}
}

// Fail writes the hint for err to w. Known failures are printed in red.
func Fail(w io.Writer, err error, profile string) {
	hint := Hint(err, profile)
	if Classify(err) == KindUnknown {
		_, _ = fmt.Fprintln(w, hint)
		return
	}
	_, _ = fmt.Fprintf(w, "%s%s%s\n\n", red, hint, reset)
}

// Exit prints the hint for err to stderr and terminates the process so the
// surrounding build fails
func Exit(err error, profile string) {
	Fail(os.Stderr, err, profile)
	os.Exit(1)
}
