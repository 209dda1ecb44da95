package errors

import "errors"

var (
	ErrInvalidStageTag    = errors.New("invalid stage tag")
	ErrNotBootstrapped    = errors.New("target environment is not bootstrapped")
	ErrStackNotFound      = errors.New("stack not found")
	ErrQualifierNotFound  = errors.New("qualifier parameter not found")
	ErrStageNotFound      = errors.New("stage not found")
	ErrMissingBody        = errors.New("missing request body")
	ErrInvalidLayout      = errors.New("invalid landing zone layout")
	ErrPolicyViolation    = errors.New("landing zone policy violation")
	ErrLoadTestLimits     = errors.New("load test parameters exceed limits")
	ErrPostNotFound       = errors.New("post not found")
	ErrNoDeployableRegion = errors.New("no deployable region")
)
