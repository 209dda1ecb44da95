package di

import "context"

// Profile is the shared config profile used outside CodeBuild and Lambda
type Profile string

// Region overrides the region of the loaded AWS config when set
type Region string

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithContext sets the context handed to providers. It should carry the logger.
func WithContext(ctx context.Context) Option {
	return func(opts *options) {
		opts.ctx = ctx
	}
}

// WithProfile selects the shared config profile. Defaults to "cicd".
func WithProfile(profile string) Option {
	return func(opts *options) {
		opts.profile = Profile(profile)
	}
}

// WithRegion overrides the region of the AWS config.
func WithRegion(region string) Option {
	return func(opts *options) {
		opts.region = Region(region)
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func() *Database { return &Database{} },
//	    func(db *Database) *Service { return &Service{DB: db} },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	ctx       context.Context
	profile   Profile
	region    Region
	providers []any
}
