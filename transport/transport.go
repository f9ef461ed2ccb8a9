// Package transport builds and decorates DynamoDB clients for use with amo
// tables. Retries and backoff are left to the AWS SDK.
package transport

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/amo"
)

// Options configures New.
type Options struct {
	Region    string // Overrides the region from the environment
	Profile   string // Shared config profile
	Endpoint  string // Base endpoint, e.g. http://localhost:8000 for DynamoDB Local
	Anonymous bool   // Send unsigned requests, as DynamoDB Local accepts
}

// WithRegion sets the AWS region.
func WithRegion(region string) func(*Options) {
	return func(o *Options) {
		o.Region = region
	}
}

// WithProfile selects a shared config profile.
func WithProfile(profile string) func(*Options) {
	return func(o *Options) {
		o.Profile = profile
	}
}

// WithEndpoint overrides the service endpoint.
func WithEndpoint(endpoint string) func(*Options) {
	return func(o *Options) {
		o.Endpoint = endpoint
	}
}

// WithAnonymousCredentials disables request signing.
func WithAnonymousCredentials() func(*Options) {
	return func(o *Options) {
		o.Anonymous = true
	}
}

// New loads the default AWS configuration and creates a DynamoDB client.
func New(ctx context.Context, opts ...func(*Options)) (*dynamodb.Client, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	var loadOpts []func(*config.LoadOptions) error
	if options.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(options.Region))
	}
	if options.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(options.Profile))
	}
	if options.Anonymous {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if options.Endpoint != "" {
			o.BaseEndpoint = aws.String(options.Endpoint)
		}
	}), nil
}

var _ amo.Client = (*dynamodb.Client)(nil)
