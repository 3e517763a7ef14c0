package di

// Profile is the shared config profile used to load AWS credentials
type Profile string

// Region is the AWS region all clients are created in
type Region string

// DefaultProfile and DefaultRegion match the defaults of the loader commands
const (
	DefaultProfile = "default"
	DefaultRegion  = "us-east-1"
)

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithProfile selects a named profile from the shared AWS config files.
// An empty profile leaves credential resolution to the default chain.
func WithProfile(profile string) Option {
	return func(opts *options) {
		opts.profile = Profile(profile)
	}
}

// WithRegion overrides the region resolved from the environment
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
	profile   Profile
	region    Region
	providers []any
}
