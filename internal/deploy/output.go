/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"fmt"
	"text/tabwriter"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

// Event rows stream one at a time over minutes, so they use fixed column
// widths instead of a buffered aligner. The status column fits the longest
// CloudFormation status (44 characters).
const (
	eventStatusWidth  = 44
	eventTypeWidth    = 40
	eventLogicalWidth = 32
	outputLabelWidth  = 12
)

// changeSetActionLabels mirror the console's changeset verbs.
var changeSetActionLabels = map[string]string{
	"Add":    "+ Add",
	"Modify": "* Modify",
	"Remove": "- Delete",
}

// renderChanges prints the changeset preview grouped by action. An empty
// changeset prints a single placeholder row.
func (d *AWSDeployer) renderChanges(changes []Change) {
	fmt.Fprintf(d.out, "\n%s\n", d.styles.Header.Render("CloudFormation stack changeset"))

	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Operation\tLogicalResourceId\tResourceType\tReplacement")

	if len(changes) == 0 {
		fmt.Fprintln(tw, "-\t-\t-\t-")
		tw.Flush()
		return
	}

	for _, c := range groupChanges(changes) {
		label, ok := changeSetActionLabels[c.Action]
		if !ok {
			label = c.Action
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			d.styles.ActionStyle(c.Action).Render(label),
			c.LogicalResourceID,
			c.ResourceType,
			c.Replacement)
	}
	tw.Flush()
}

// groupChanges orders changes as Add, Modify, Remove, then anything else in
// encounter order, keeping the relative order within each action.
func groupChanges(changes []Change) []Change {
	grouped := make([]Change, 0, len(changes))
	for _, action := range []string{"Add", "Modify", "Remove"} {
		for _, c := range changes {
			if c.Action == action {
				grouped = append(grouped, c)
			}
		}
	}
	for _, c := range changes {
		switch c.Action {
		case "Add", "Modify", "Remove":
		default:
			grouped = append(grouped, c)
		}
	}
	return grouped
}

// renderEventsHeader prints the event table heading, once per tail.
func (d *AWSDeployer) renderEventsHeader() {
	fmt.Fprintf(d.out, "\n%s\n", d.styles.Header.Render("CloudFormation events from stack operations"))
	fmt.Fprintf(d.out, "%-*s %-*s %-*s %s\n",
		eventStatusWidth, "ResourceStatus",
		eventTypeWidth, "ResourceType",
		eventLogicalWidth, "LogicalResourceId",
		"ResourceStatusReason")
}

// renderEvent prints one stack event row. The status cell is padded by
// lipgloss so colour escape codes do not skew the column layout; the reason
// column is last and never truncated.
func (d *AWSDeployer) renderEvent(ev types.StackEvent) {
	status := string(ev.ResourceStatus)
	reason := awssdk.ToString(ev.ResourceStatusReason)
	if reason == "" && ev.DetailedStatus != "" {
		reason = string(ev.DetailedStatus)
	}
	if reason == "" {
		reason = "-"
	}

	fmt.Fprintf(d.out, "%s %-*s %-*s %s\n",
		d.styles.StatusStyle(status).Width(eventStatusWidth).Render(truncate(status, eventStatusWidth)),
		eventTypeWidth, truncate(awssdk.ToString(ev.ResourceType), eventTypeWidth),
		eventLogicalWidth, truncate(awssdk.ToString(ev.LogicalResourceId), eventLogicalWidth),
		reason)
}

// renderOutputs prints the stack's declared outputs as key/description/value
// triples.
func (d *AWSDeployer) renderOutputs(outputs []Output) {
	fmt.Fprintf(d.out, "\n%s\n", d.styles.Header.Render("CloudFormation outputs from deployed stack"))
	for _, o := range outputs {
		description := o.Description
		if description == "" {
			description = "-"
		}
		fmt.Fprintf(d.out, "%s %s\n", d.styles.Key.Width(outputLabelWidth).Render("Key"), o.Key)
		fmt.Fprintf(d.out, "%s %s\n", d.styles.Key.Width(outputLabelWidth).Render("Description"), description)
		fmt.Fprintf(d.out, "%s %s\n\n", d.styles.Key.Width(outputLabelWidth).Render("Value"), o.Value)
	}
}

// truncate caps s at width bytes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
