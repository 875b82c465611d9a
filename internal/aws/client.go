/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds configuration for creating an AWS client. It is passed
// explicitly rather than stashed in process-wide state so that a single
// invocation owns its region and profile end to end.
type Config struct {
	Region  string
	Profile string
}

// DefaultClient provides the service clients for one deployment invocation
type DefaultClient struct {
	config aws.Config
	cfn    *cloudformation.Client
	s3     *s3.Client
}

// NewDefaultClient creates a new AWS client with the specified configuration
func NewDefaultClient(ctx context.Context, cfg Config) (*DefaultClient, error) {
	var opts []func(*config.LoadOptions) error

	// Set region if specified
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	// Set profile if specified
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	// Load AWS configuration
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &DefaultClient{
		config: awsCfg,
		cfn:    cloudformation.NewFromConfig(awsCfg),
		s3:     s3.NewFromConfig(awsCfg),
	}, nil
}

// CloudFormation returns the CloudFormation client
func (c *DefaultClient) CloudFormation() *cloudformation.Client {
	return c.cfn
}

// S3 returns the S3 client
func (c *DefaultClient) S3() *s3.Client {
	return c.s3
}

// Region returns the configured AWS region
func (c *DefaultClient) Region() string {
	return c.config.Region
}
