/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// fileConfig is the raw YAML structure of stackhand.yaml. Top-level fields
// are shared defaults; each environment may override or extend them.
type fileConfig struct {
	Project          string                  `yaml:"project"`
	Region           string                  `yaml:"region"`
	Profile          string                  `yaml:"profile"`
	StackName        string                  `yaml:"stack_name"`
	Template         string                  `yaml:"template"`
	Parameters       map[string]string       `yaml:"parameters"`
	Tags             map[string]string       `yaml:"tags"`
	Capabilities     []string                `yaml:"capabilities"`
	RoleARN          string                  `yaml:"role_arn"`
	NotificationARNs []string                `yaml:"notification_arns"`
	S3Bucket         string                  `yaml:"s3_bucket"`
	S3Prefix         string                  `yaml:"s3_prefix"`
	Environments     map[string]*fileEnvironment `yaml:"environments"`
}

// fileEnvironment is one environment entry as it appears in YAML
type fileEnvironment struct {
	Region           string            `yaml:"region"`
	Profile          string            `yaml:"profile"`
	StackName        string            `yaml:"stack_name"`
	Template         string            `yaml:"template"`
	Parameters       map[string]string `yaml:"parameters"`
	Tags             map[string]string `yaml:"tags"`
	Capabilities     []string          `yaml:"capabilities"`
	RoleARN          string            `yaml:"role_arn"`
	NotificationARNs []string          `yaml:"notification_arns"`
	S3Bucket         string            `yaml:"s3_bucket"`
	S3Prefix         string            `yaml:"s3_prefix"`
}

// FileProvider implements Provider by reading a YAML file
type FileProvider struct {
	filename string
	raw      *fileConfig
}

// NewFileProvider creates a file-based Provider for the given filename.
// The file is read lazily on first use.
func NewFileProvider(filename string) *FileProvider {
	return &FileProvider{filename: filename}
}

// Environment resolves the named environment: file-level defaults first,
// then the environment's own values on top. Maps merge key by key; scalars
// and lists replace the default when the environment sets them.
func (p *FileProvider) Environment(name string) (*Environment, error) {
	if err := p.ensureLoaded(); err != nil {
		return nil, err
	}

	raw, exists := p.raw.Environments[name]
	if !exists {
		return nil, fmt.Errorf("environment %q not found in %s", name, p.filename)
	}

	env := &Environment{
		Name:             name,
		Region:           p.raw.Region,
		Profile:          p.raw.Profile,
		StackName:        p.raw.StackName,
		Template:         p.raw.Template,
		Parameters:       mergeStringMaps(p.raw.Parameters, raw.Parameters),
		Tags:             mergeStringMaps(p.raw.Tags, raw.Tags),
		Capabilities:     p.raw.Capabilities,
		RoleARN:          p.raw.RoleARN,
		NotificationARNs: p.raw.NotificationARNs,
		S3Bucket:         p.raw.S3Bucket,
		S3Prefix:         p.raw.S3Prefix,
	}

	if raw.Region != "" {
		env.Region = raw.Region
	}
	if raw.Profile != "" {
		env.Profile = raw.Profile
	}
	if raw.StackName != "" {
		env.StackName = raw.StackName
	}
	if raw.Template != "" {
		env.Template = raw.Template
	}
	if len(raw.Capabilities) > 0 {
		env.Capabilities = raw.Capabilities
	}
	if raw.RoleARN != "" {
		env.RoleARN = raw.RoleARN
	}
	if len(raw.NotificationARNs) > 0 {
		env.NotificationARNs = raw.NotificationARNs
	}
	if raw.S3Bucket != "" {
		env.S3Bucket = raw.S3Bucket
	}
	if raw.S3Prefix != "" {
		env.S3Prefix = raw.S3Prefix
	}

	return env, nil
}

// ListEnvironments returns all environment names in the configuration,
// sorted for stable output.
func (p *FileProvider) ListEnvironments() ([]string, error) {
	if err := p.ensureLoaded(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(p.raw.Environments))
	for name := range p.raw.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ensureLoaded reads and parses the config file once
func (p *FileProvider) ensureLoaded() error {
	if p.raw != nil {
		return nil
	}

	data, err := os.ReadFile(p.filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", p.filename, err)
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", p.filename, err)
	}
	if raw.Environments == nil {
		raw.Environments = map[string]*fileEnvironment{}
	}

	p.raw = &raw
	return nil
}

// mergeStringMaps overlays override onto base without mutating either
func mergeStringMaps(base, override map[string]string) map[string]string {
	if base == nil && override == nil {
		return nil
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
