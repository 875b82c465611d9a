/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/

// Package config loads the optional stackhand.yaml file. The file supplies
// per-environment defaults for the deployment commands; flags given on the
// command line always win over file values.
package config

// Provider defines the interface for loading environment configuration
type Provider interface {
	// Environment returns the resolved configuration for the named
	// environment, with file-level defaults applied
	Environment(name string) (*Environment, error)

	// ListEnvironments returns all environment names in the configuration
	ListEnvironments() ([]string, error)
}

// Environment is the resolved configuration for one named environment.
// Every field is a default the corresponding command-line flag can override.
type Environment struct {
	Name             string
	Region           string
	Profile          string
	StackName        string
	Template         string // URI to template (file:// or plain path)
	Parameters       map[string]string
	Tags             map[string]string
	Capabilities     []string
	RoleARN          string
	NotificationARNs []string
	S3Bucket         string
	S3Prefix         string
}
