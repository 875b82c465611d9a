/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stackhand/stackhand/internal/deploy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOptionsCommand builds a command carrying the flag set
// resolveStackOptions reads, standalone so tests do not touch rootCmd state.
func newOptionsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", "stackhand.yaml", "")
	cmd.Flags().String("env", "", "")
	cmd.Flags().String("region", "", "")
	cmd.Flags().String("profile", "", "")
	cmd.Flags().String("stack-name", "", "")
	cmd.Flags().String("template", "", "")
	cmd.Flags().StringArray("parameter-overrides", nil, "")
	cmd.Flags().StringSlice("capabilities", nil, "")
	cmd.Flags().String("role-arn", "", "")
	cmd.Flags().StringSlice("notification-arns", nil, "")
	cmd.Flags().StringArray("tags", nil, "")
	cmd.Flags().String("s3-bucket", "", "")
	cmd.Flags().String("s3-prefix", "", "")
	return cmd
}

func TestParseParameters_ValuesAndUsePrevious(t *testing.T) {
	params, err := parseParameters([]string{"InstanceType=t3.micro", "VpcId", "Empty="})

	require.NoError(t, err)
	assert.Equal(t, []deploy.Parameter{
		{Key: "InstanceType", Value: "t3.micro"},
		{Key: "VpcId", UsePrevious: true},
		{Key: "Empty", Value: ""},
	}, params)
}

func TestParseParameters_ValueContainingEquals(t *testing.T) {
	params, err := parseParameters([]string{"ConnectionString=host=db;port=5432"})

	require.NoError(t, err)
	assert.Equal(t, "host=db;port=5432", params[0].Value)
}

func TestParseParameters_RejectsEmptyKey(t *testing.T) {
	_, err := parseParameters([]string{"=value"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter")
}

func TestParseKeyValues(t *testing.T) {
	tags, err := parseKeyValues([]string{"Team=platform", "Env=dev"})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Team": "platform", "Env": "dev"}, tags)
}

func TestParseKeyValues_RejectsBareKey(t *testing.T) {
	_, err := parseKeyValues([]string{"Team"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected Key=Value")
}

func TestMergeParameters_FlagWinsOverConfig(t *testing.T) {
	base := []deploy.Parameter{
		{Key: "InstanceType", Value: "t3.micro"},
		{Key: "LogLevel", Value: "info"},
	}
	override := []deploy.Parameter{
		{Key: "InstanceType", Value: "m5.large"},
	}

	merged := mergeParameters(base, override)

	assert.Equal(t, []deploy.Parameter{
		{Key: "LogLevel", Value: "info"},
		{Key: "InstanceType", Value: "m5.large"},
	}, merged)
}

func TestParametersFromMap_Sorted(t *testing.T) {
	params := parametersFromMap(map[string]string{"b": "2", "a": "1", "c": "3"})

	assert.Equal(t, []deploy.Parameter{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "2"},
		{Key: "c", Value: "3"},
	}, params)
}

func TestResolveStackOptions_FromFlags(t *testing.T) {
	cmd := newOptionsCommand()
	require.NoError(t, cmd.Flags().Set("template", "template.yaml"))
	require.NoError(t, cmd.Flags().Set("capabilities", "CAPABILITY_IAM"))
	require.NoError(t, cmd.Flags().Set("tags", "Team=platform"))
	require.NoError(t, cmd.Flags().Set("region", "eu-west-1"))

	opts, err := resolveStackOptions(cmd, []string{"my-app"})

	require.NoError(t, err)
	assert.Equal(t, "my-app", opts.stackName)
	assert.Equal(t, "template.yaml", opts.templateURI)
	assert.Equal(t, []string{"CAPABILITY_IAM"}, opts.capabilities)
	assert.Equal(t, map[string]string{"Team": "platform"}, opts.tags)
	assert.Equal(t, "eu-west-1", opts.region)
}

func TestResolveStackOptions_StackNameFlag(t *testing.T) {
	cmd := newOptionsCommand()
	require.NoError(t, cmd.Flags().Set("stack-name", "from-flag"))

	opts, err := resolveStackOptions(cmd, nil)

	require.NoError(t, err)
	assert.Equal(t, "from-flag", opts.stackName)

	// The positional argument wins over the flag.
	opts, err = resolveStackOptions(cmd, []string{"from-arg"})
	require.NoError(t, err)
	assert.Equal(t, "from-arg", opts.stackName)
}

func TestResolveStackOptions_RequiresStackName(t *testing.T) {
	cmd := newOptionsCommand()

	_, err := resolveStackOptions(cmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stack name given")
}

func TestResolveStackOptions_EnvironmentDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "stackhand.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
region: us-east-1
template: file://templates/app.yaml
parameters:
  InstanceType: t3.micro
environments:
  dev:
    stack_name: app-dev
    profile: development
`), 0o644))

	cmd := newOptionsCommand()
	require.NoError(t, cmd.Flags().Set("config", configPath))
	require.NoError(t, cmd.Flags().Set("env", "dev"))

	opts, err := resolveStackOptions(cmd, nil)

	require.NoError(t, err)
	assert.Equal(t, "app-dev", opts.stackName)
	assert.Equal(t, "file://templates/app.yaml", opts.templateURI)
	assert.Equal(t, "us-east-1", opts.region)
	assert.Equal(t, "development", opts.profile)
	assert.Equal(t, []deploy.Parameter{{Key: "InstanceType", Value: "t3.micro"}}, opts.parameters)
}

func TestResolveStackOptions_FlagsOverrideEnvironment(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "stackhand.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
region: us-east-1
environments:
  dev:
    stack_name: app-dev
    parameters:
      InstanceType: t3.micro
      LogLevel: info
`), 0o644))

	cmd := newOptionsCommand()
	require.NoError(t, cmd.Flags().Set("config", configPath))
	require.NoError(t, cmd.Flags().Set("env", "dev"))
	require.NoError(t, cmd.Flags().Set("region", "eu-west-1"))
	require.NoError(t, cmd.Flags().Set("parameter-overrides", "InstanceType=m5.large"))

	opts, err := resolveStackOptions(cmd, []string{"app-override"})

	require.NoError(t, err)
	assert.Equal(t, "app-override", opts.stackName)
	assert.Equal(t, "eu-west-1", opts.region)
	assert.Equal(t, []deploy.Parameter{
		{Key: "LogLevel", Value: "info"},
		{Key: "InstanceType", Value: "m5.large"},
	}, opts.parameters)
}

func TestResolveStackOptions_UnknownEnvironment(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "stackhand.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("environments:\n  dev: {}\n"), 0o644))

	cmd := newOptionsCommand()
	require.NoError(t, cmd.Flags().Set("config", configPath))
	require.NoError(t, cmd.Flags().Set("env", "prod"))

	_, err := resolveStackOptions(cmd, []string{"my-app"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `environment "prod" not found`)
}
