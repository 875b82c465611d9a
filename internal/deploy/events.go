/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

// tailEvents renders stack events as they arrive until the root stack
// operation leaves IN_PROGRESS. Display is best effort: transient describe
// failures are retried with exponential backoff, and after too many
// consecutive failures tailing stops without failing the deployment.
//
// The watermark bounds the scan to events newer than the caller's starting
// point; the dedup set guarantees no event id renders twice within this call.
func (d *AWSDeployer) tailEvents(ctx context.Context, stackName string, watermark time.Time, mode FailureMode) {
	seen := make(map[string]struct{})
	marker := watermark
	retry := newRetryPolicy(d.backoffBase, d.maxTailRetries)

	d.renderEventsHeader()

	for {
		if ctx.Err() != nil {
			return
		}

		buffer, err := d.collectEvents(ctx, stackName, marker, seen)
		if err != nil {
			// A vanished stack is the expected end state when the
			// operation tears the stack down.
			if isStackNotFound(err, stackName) && mode == FailureModeDelete {
				d.logger.Debug("stack no longer exists, event tail finished", "stack", stackName)
				return
			}
			delay, giveUp := retry.next()
			if giveUp {
				d.logger.Error("describing stack events failed, giving up on event display", "stack", stackName, "error", err)
				return
			}
			d.logger.Debug("describing stack events failed, backing off", "stack", stackName, "delay", delay, "error", err)
			if d.sleep(ctx, delay) != nil {
				return
			}
			continue
		}
		retry.reset()

		if len(buffer) > 0 {
			marker = awssdk.ToTime(buffer[len(buffer)-1].Timestamp)
		}

		for _, ev := range buffer {
			d.renderEvent(ev)
			// Anything rendered after the root stack goes terminal
			// belongs to a subsequent deployment; stop at the boundary.
			if isRootStackEvent(ev) && !strings.Contains(string(ev.ResourceStatus), "IN_PROGRESS") {
				return
			}
		}

		if d.sleep(ctx, d.pollInterval) != nil {
			return
		}
	}
}

// collectEvents paginates the stack's event stream (newest first) and returns
// the unseen events above the watermark, reordered oldest first for display.
// The scan stops at the first event at or below the watermark: everything
// older was handled by an earlier pass.
func (d *AWSDeployer) collectEvents(ctx context.Context, stackName string, marker time.Time, seen map[string]struct{}) ([]types.StackEvent, error) {
	paginator := cloudformation.NewDescribeStackEventsPaginator(d.client, &cloudformation.DescribeStackEventsInput{
		StackName: awssdk.String(stackName),
	})

	var newestFirst []types.StackEvent
pages:
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, ev := range page.StackEvents {
			if !awssdk.ToTime(ev.Timestamp).After(marker) {
				break pages
			}
			id := awssdk.ToString(ev.EventId)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			newestFirst = append(newestFirst, ev)
		}
	}

	slices.Reverse(newestFirst)
	return newestFirst, nil
}

// isRootStackEvent reports whether ev describes the top-level stack itself.
// Nested child stacks share the resource type but differ in logical id and
// physical id, so all three fields are checked.
func isRootStackEvent(ev types.StackEvent) bool {
	return awssdk.ToString(ev.ResourceType) == stackResourceType &&
		awssdk.ToString(ev.StackName) == awssdk.ToString(ev.LogicalResourceId) &&
		awssdk.ToString(ev.PhysicalResourceId) == awssdk.ToString(ev.StackId)
}

// lastEventTime returns the newest event timestamp already on the stack, the
// tail watermark for an update. Zero when the stack has no visible history.
func (d *AWSDeployer) lastEventTime(ctx context.Context, stackName string) time.Time {
	resp, err := d.client.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: awssdk.String(stackName),
	})
	if err != nil || len(resp.StackEvents) == 0 {
		return time.Time{}
	}
	return awssdk.ToTime(resp.StackEvents[0].Timestamp)
}

// retryPolicy is the bounded backoff applied to transient tailing failures:
// failure n waits base^n before the next try, and once maxAttempts
// consecutive failures accumulate the caller should give up. A success
// resets the count.
type retryPolicy struct {
	base        float64
	maxAttempts int
	attempt     int
}

func newRetryPolicy(base float64, maxAttempts int) *retryPolicy {
	return &retryPolicy{base: base, maxAttempts: maxAttempts}
}

// next records a failed attempt. It returns the delay to wait before
// retrying, or giveUp=true once the budget is exhausted.
func (r *retryPolicy) next() (delay time.Duration, giveUp bool) {
	r.attempt++
	if r.attempt > r.maxAttempts {
		return 0, true
	}
	return time.Duration(math.Pow(r.base, float64(r.attempt)) * float64(time.Second)), false
}

// reset clears the consecutive-failure count after a successful poll.
func (r *retryPolicy) reset() {
	r.attempt = 0
}
