/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

// ChangeSetType says whether a changeset creates a new stack or updates an
// existing one. Derived once per deployment from the stack's existence.
type ChangeSetType string

const (
	ChangeSetTypeCreate ChangeSetType = "CREATE"
	ChangeSetTypeUpdate ChangeSetType = "UPDATE"
)

// StackOperation identifies the stack mutation being waited on.
type StackOperation string

const (
	StackOperationCreate StackOperation = "CREATE"
	StackOperationUpdate StackOperation = "UPDATE"
)

// FailureMode governs what happens to a stack when its operation fails:
// roll back (the default), leave it as-is, or tear it down.
type FailureMode string

const (
	FailureModeRollback  FailureMode = "ROLLBACK"
	FailureModeDoNothing FailureMode = "DO_NOTHING"
	FailureModeDelete    FailureMode = "DELETE"
)

// ParseFailureMode converts a CLI flag value into a FailureMode. An empty
// value selects the default ROLLBACK behaviour.
func ParseFailureMode(s string) (FailureMode, error) {
	mode := FailureMode(strings.ToUpper(s))
	switch mode {
	case "":
		return FailureModeRollback, nil
	case FailureModeRollback, FailureModeDoNothing, FailureModeDelete:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid failure mode %q (expected ROLLBACK, DO_NOTHING or DELETE)", s)
	}
}

// onFailure maps the mode to the control plane's on-creation-failure action.
func (m FailureMode) onFailure() types.OnFailure {
	switch m {
	case FailureModeDoNothing:
		return types.OnFailureDoNothing
	case FailureModeDelete:
		return types.OnFailureDelete
	default:
		return types.OnFailureRollback
	}
}

// Parameter is one template parameter value, or a reference to the value the
// stack was last deployed with.
type Parameter struct {
	Key         string
	Value       string
	UsePrevious bool
}

// Request describes one stack deployment attempt. It is built once per
// invocation and not mutated after submission.
type Request struct {
	StackName        string
	TemplateBody     string
	Parameters       []Parameter
	Capabilities     []string
	RoleARN          string
	NotificationARNs []string
	Tags             map[string]string
}

// ChangeSet identifies a submitted changeset and how it will mutate the stack.
type ChangeSet struct {
	ID        string
	Name      string
	StackName string
	Type      ChangeSetType
}

// Change is a single resource mutation a changeset will perform.
type Change struct {
	Action            string
	LogicalResourceID string
	ResourceType      string
	Replacement       string
}

// Output is one declared stack output.
type Output struct {
	Key         string
	Description string
	Value       string
}

// Result is the terminal outcome of a successful deployment. NoChanges marks
// the distinguished no-op outcome where the template matched the stack.
type Result struct {
	StackName string
	Operation StackOperation
	NoChanges bool
	Outputs   []Output
}

// WaiterPolicy bounds a poll loop: total wait = Delay × MaxAttempts.
type WaiterPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

func (p WaiterPolicy) maxWait() time.Duration {
	return p.Delay * time.Duration(p.MaxAttempts)
}

func toSDKParameters(params []Parameter) []types.Parameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]types.Parameter, 0, len(params))
	for _, p := range params {
		sdk := types.Parameter{ParameterKey: awssdk.String(p.Key)}
		if p.UsePrevious {
			sdk.UsePreviousValue = awssdk.Bool(true)
		} else {
			sdk.ParameterValue = awssdk.String(p.Value)
		}
		out = append(out, sdk)
	}
	return out
}

func toSDKCapabilities(capabilities []string) []types.Capability {
	if len(capabilities) == 0 {
		return nil
	}
	out := make([]types.Capability, 0, len(capabilities))
	for _, c := range capabilities {
		out = append(out, types.Capability(c))
	}
	return out
}

// toSDKTags sorts by key so request bodies are deterministic.
func toSDKTags(tags map[string]string) []types.Tag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: awssdk.String(k), Value: awssdk.String(tags[k])})
	}
	return out
}
