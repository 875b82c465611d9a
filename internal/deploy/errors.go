/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"fmt"
	"strings"
)

// ChangeSetEmptyError reports a changeset that contains no changes. It is a
// normal no-op outcome, not a failure, unless the caller opts to treat empty
// changesets as fatal.
type ChangeSetEmptyError struct {
	StackName string
}

func (e *ChangeSetEmptyError) Error() string {
	return fmt.Sprintf("no changes to deploy for stack %s", e.StackName)
}

// ChangeSetError reports a changeset that could not be submitted or reached a
// terminal failure. Status and Reason carry the control plane's wording
// verbatim.
type ChangeSetError struct {
	StackName string
	Status    string
	Reason    string
}

func (e *ChangeSetError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("changeset for stack %s failed: status %s, reason: %s", e.StackName, e.Status, e.Reason)
	}
	return fmt.Sprintf("failed to create changeset for stack %s: %s", e.StackName, e.Reason)
}

// RegionMismatchError reports that the template bucket must be addressed
// through a different regional endpoint than the stack's region.
type RegionMismatchError struct {
	StackName string
	Err       error
}

func (e *RegionMismatchError) Error() string {
	return fmt.Sprintf("template bucket for stack %s is in a different region than the stack; move the template to a bucket in the stack's region: %v", e.StackName, e.Err)
}

func (e *RegionMismatchError) Unwrap() error {
	return e.Err
}

// StackOperationError reports a stack create or update that reached a
// terminal failure. Status and Reason carry the last observed stack state
// verbatim; Hint, when set, describes manual next steps.
type StackOperationError struct {
	StackName string
	Operation StackOperation
	Status    string
	Reason    string
	Hint      string
	Err       error
}

func (e *StackOperationError) Error() string {
	msg := fmt.Sprintf("stack %s failed to %s", e.StackName, strings.ToLower(string(e.Operation)))
	if e.Status != "" {
		msg += fmt.Sprintf(": status %s", e.Status)
	}
	if e.Reason != "" {
		msg += fmt.Sprintf(", reason: %s", e.Reason)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

func (e *StackOperationError) Unwrap() error {
	return e.Err
}

// manualRollbackHint is attached to a StackOperationError when automatic
// rollback was disabled, so the operator knows how to stabilise the stack.
func manualRollbackHint(stackName string) string {
	return fmt.Sprintf(`Automatic rollback was disabled for this deployment.
Actions you can take:
(1) Fix the template or parameter values and deploy again
(2) Roll back to the last known stable state: aws cloudformation rollback-stack --stack-name %s`, stackName)
}
