/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stackhand/stackhand/internal/aws"
	"github.com/stackhand/stackhand/internal/config"
	"github.com/stackhand/stackhand/internal/deploy"
	"github.com/stackhand/stackhand/internal/resolve"
	"github.com/stackhand/stackhand/internal/upload"
)

var (
	// deployer can be injected for testing
	deployer deploy.Deployer

	// templateResolver can be injected for testing
	templateResolver resolve.TemplateResolver = resolve.NewFileTemplateResolver()
)

// SetDeployer allows injection of a deployer (for testing)
func SetDeployer(d deploy.Deployer) {
	deployer = d
}

// SetTemplateResolver allows injection of a template resolver (for testing)
func SetTemplateResolver(r resolve.TemplateResolver) {
	templateResolver = r
}

// stackOptions carries everything one deployment invocation needs, merged
// from the config file environment (if any) and command-line flags. Flags
// always win over file values.
type stackOptions struct {
	stackName        string
	templateURI      string
	parameters       []deploy.Parameter
	capabilities     []string
	roleARN          string
	notificationARNs []string
	tags             map[string]string
	s3Bucket         string
	s3Prefix         string
	region           string
	profile          string
	environment      string
}

// resolveStackOptions merges the optional environment from the config file
// with the command's flags. The stack name comes from the positional
// argument or, failing that, the environment's stack_name.
func resolveStackOptions(cmd *cobra.Command, args []string) (*stackOptions, error) {
	opts := &stackOptions{}

	opts.environment, _ = cmd.Flags().GetString("env")
	if opts.environment != "" {
		configFile, _ := cmd.Flags().GetString("config")
		env, err := config.NewFileProvider(configFile).Environment(opts.environment)
		if err != nil {
			return nil, err
		}
		opts.stackName = env.StackName
		opts.templateURI = env.Template
		opts.parameters = parametersFromMap(env.Parameters)
		opts.capabilities = env.Capabilities
		opts.roleARN = env.RoleARN
		opts.notificationARNs = env.NotificationARNs
		opts.tags = env.Tags
		opts.s3Bucket = env.S3Bucket
		opts.s3Prefix = env.S3Prefix
		opts.region = env.Region
		opts.profile = env.Profile
	}

	if v, _ := cmd.Flags().GetString("stack-name"); v != "" {
		opts.stackName = v
	}
	if len(args) > 0 {
		opts.stackName = args[0]
	}
	if opts.stackName == "" {
		return nil, fmt.Errorf("no stack name given (pass it as an argument or set stack_name in the config file)")
	}

	if v, _ := cmd.Flags().GetString("template"); v != "" {
		opts.templateURI = v
	}
	if v, _ := cmd.Flags().GetStringArray("parameter-overrides"); len(v) > 0 {
		params, err := parseParameters(v)
		if err != nil {
			return nil, err
		}
		opts.parameters = mergeParameters(opts.parameters, params)
	}
	if v, _ := cmd.Flags().GetStringSlice("capabilities"); len(v) > 0 {
		opts.capabilities = v
	}
	if v, _ := cmd.Flags().GetString("role-arn"); v != "" {
		opts.roleARN = v
	}
	if v, _ := cmd.Flags().GetStringSlice("notification-arns"); len(v) > 0 {
		opts.notificationARNs = v
	}
	if v, _ := cmd.Flags().GetStringArray("tags"); len(v) > 0 {
		tags, err := parseKeyValues(v)
		if err != nil {
			return nil, err
		}
		if opts.tags == nil {
			opts.tags = tags
		} else {
			for k, val := range tags {
				opts.tags[k] = val
			}
		}
	}
	if v, _ := cmd.Flags().GetString("s3-bucket"); v != "" {
		opts.s3Bucket = v
	}
	if v, _ := cmd.Flags().GetString("s3-prefix"); v != "" {
		opts.s3Prefix = v
	}
	if v, _ := cmd.Flags().GetString("region"); v != "" {
		opts.region = v
	}
	if v, _ := cmd.Flags().GetString("profile"); v != "" {
		opts.profile = v
	}

	return opts, nil
}

// resolveTemplate reads and renders the template the options point at
func resolveTemplate(opts *stackOptions) (string, error) {
	if opts.templateURI == "" {
		return "", fmt.Errorf("no template given (pass --template or set template in the config file)")
	}
	variables := map[string]any{
		"Environment": opts.environment,
		"StackName":   opts.stackName,
	}
	return templateResolver.Resolve(opts.templateURI, variables)
}

// buildRequest assembles the deployment request from resolved options
func buildRequest(opts *stackOptions, templateBody string) *deploy.Request {
	return &deploy.Request{
		StackName:        opts.stackName,
		TemplateBody:     templateBody,
		Parameters:       opts.parameters,
		Capabilities:     opts.capabilities,
		RoleARN:          opts.roleARN,
		NotificationARNs: opts.notificationARNs,
		Tags:             opts.tags,
	}
}

// getDeployer returns the injected deployer or builds the default one from
// the invocation's region/profile, wiring in an S3 uploader when a bucket
// is configured.
func getDeployer(ctx context.Context, opts *stackOptions) (deploy.Deployer, error) {
	if deployer != nil {
		return deployer, nil
	}

	client, err := aws.NewDefaultClient(ctx, aws.Config{
		Region:  opts.region,
		Profile: opts.profile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS client: %w", err)
	}

	d := deploy.NewDeployer(client.CloudFormation(), os.Stdout, slog.Default())
	if opts.s3Bucket != "" {
		d.SetUploader(upload.New(client.S3(), client.Region(), opts.s3Bucket, opts.s3Prefix, slog.Default()))
	}
	return d, nil
}

// parseParameters converts Key=Value flag entries into deployment
// parameters. A bare Key with no equals sign keeps the value the stack was
// last deployed with.
func parseParameters(values []string) ([]deploy.Parameter, error) {
	params := make([]deploy.Parameter, 0, len(values))
	for _, v := range values {
		key, value, found := strings.Cut(v, "=")
		if key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected Key=Value or Key)", v)
		}
		if !found {
			params = append(params, deploy.Parameter{Key: key, UsePrevious: true})
			continue
		}
		params = append(params, deploy.Parameter{Key: key, Value: value})
	}
	return params, nil
}

// parametersFromMap converts config file parameters into deployment
// parameters, sorted by key for deterministic requests.
func parametersFromMap(values map[string]string) []deploy.Parameter {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]deploy.Parameter, 0, len(keys))
	for _, k := range keys {
		params = append(params, deploy.Parameter{Key: k, Value: values[k]})
	}
	return params
}

// mergeParameters overlays flag parameters onto config file parameters,
// keyed by parameter name.
func mergeParameters(base, override []deploy.Parameter) []deploy.Parameter {
	merged := make([]deploy.Parameter, 0, len(base)+len(override))
	overridden := make(map[string]bool, len(override))
	for _, p := range override {
		overridden[p.Key] = true
	}
	for _, p := range base {
		if !overridden[p.Key] {
			merged = append(merged, p)
		}
	}
	return append(merged, override...)
}

// parseKeyValues converts Key=Value flag entries into a map
func parseKeyValues(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		key, value, found := strings.Cut(v, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid value %q (expected Key=Value)", v)
		}
		out[key] = value
	}
	return out, nil
}
