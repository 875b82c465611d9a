/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"fmt"
	"strings"
)

// CloudFormation reports several conditions only in message text, with no
// structured error code. Every substring match against that text lives in
// this file so a wording change in the API needs exactly one update here.
// The substrings mirror the service's current responses; they are not
// covered by any compatibility promise.

// isStackNotFound reports whether err is the control plane's answer for a
// stack that does not exist. Used wherever existence is being probed, where
// "not found" is a normal negative result rather than a failure.
func isStackNotFound(err error, stackName string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), fmt.Sprintf("Stack with id %s does not exist", stackName))
}

// isBucketRegionMismatch reports whether err means the template bucket lives
// in a different region than the endpoint the request was sent to.
func isBucketRegionMismatch(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "The bucket you are attempting to access must be addressed using the specified endpoint")
}

// isNoChangeReason reports whether a FAILED changeset status reason means the
// template and parameters match the deployed stack, i.e. there is nothing to
// deploy.
func isNoChangeReason(reason string) bool {
	return strings.Contains(reason, "The submitted information didn't contain changes.") ||
		strings.Contains(reason, "No updates are to be performed")
}
