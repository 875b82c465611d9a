/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/stackhand/stackhand/internal/deploy"
	"github.com/stackhand/stackhand/internal/prompt"
)

// deployCmd represents the deploy command
var deployCmd = &cobra.Command{
	Use:   "deploy [stack-name]",
	Short: "Deploy a CloudFormation stack through a changeset",
	Long: `Deploy a CloudFormation stack with an integrated change preview.

The command submits a changeset, shows exactly which resources will be
added, modified or removed, and prompts for confirmation before executing.
While the stack operation runs, its events are tailed live; declared stack
outputs are printed once the operation succeeds.

A changeset that contains no changes ends the command successfully unless
--fail-on-empty-changeset is set.

Examples:
  stackhand deploy my-app --template template.yaml
  stackhand deploy --env dev                  # stack and template from stackhand.yaml
  stackhand deploy my-app --template big.yaml --s3-bucket my-templates
  stackhand deploy my-app --template template.yaml --no-execute-changeset`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveStackOptions(cmd, args)
		if err != nil {
			return err
		}

		failOnEmpty, _ := cmd.Flags().GetBool("fail-on-empty-changeset")
		noExecute, _ := cmd.Flags().GetBool("no-execute-changeset")
		noConfirm, _ := cmd.Flags().GetBool("no-confirm-changeset")
		disableRollback, _ := cmd.Flags().GetBool("disable-rollback")
		maxWait, _ := cmd.Flags().GetInt("max-wait")

		return runDeploy(cmd.Context(), opts, deployFlags{
			failOnEmpty:     failOnEmpty,
			noExecute:       noExecute,
			noConfirm:       noConfirm,
			disableRollback: disableRollback,
			maxWaitMinutes:  maxWait,
		})
	},
}

type deployFlags struct {
	failOnEmpty     bool
	noExecute       bool
	noConfirm       bool
	disableRollback bool
	maxWaitMinutes  int
}

func runDeploy(ctx context.Context, opts *stackOptions, flags deployFlags) error {
	templateBody, err := resolveTemplate(opts)
	if err != nil {
		return err
	}

	d, err := getDeployer(ctx, opts)
	if err != nil {
		return err
	}

	cs, err := d.CreateAndWaitForChangeSet(ctx, buildRequest(opts, templateBody))
	if err != nil {
		var empty *deploy.ChangeSetEmptyError
		if errors.As(err, &empty) {
			if flags.failOnEmpty {
				return err
			}
			fmt.Printf("No changes to deploy for stack %s\n", opts.stackName)
			return nil
		}
		return err
	}

	if flags.noExecute {
		fmt.Printf("Changeset %s created, not executing as requested\n", cs.Name)
		return nil
	}

	if !flags.noConfirm {
		confirmed, err := prompt.Confirm(fmt.Sprintf("Do you want to apply these changes to stack %s?", opts.stackName))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Deployment cancelled")
			// Abandoned changesets count against the per-stack limit.
			if err := d.DeleteChangeSet(ctx, cs); err != nil {
				slog.Warn("failed to clean up abandoned changeset", "changeset", cs.Name, "error", err)
			}
			return nil
		}
	}

	if err := d.ExecuteChangeSet(ctx, cs, flags.disableRollback); err != nil {
		return err
	}

	operation := deploy.StackOperationCreate
	if cs.Type == deploy.ChangeSetTypeUpdate {
		operation = deploy.StackOperationUpdate
	}

	_, err = d.WaitForExecute(ctx, deploy.ExecuteWaitInput{
		StackName:       opts.stackName,
		Operation:       operation,
		FailureMode:     deploy.FailureModeRollback,
		DisableRollback: flags.disableRollback,
		MaxWaitMinutes:  flags.maxWaitMinutes,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Successfully deployed stack %s\n", opts.stackName)
	return nil
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringP("template", "t", "", "path or file:// URI of the template to deploy")
	deployCmd.Flags().String("stack-name", "", "stack to deploy; the positional argument takes precedence")
	deployCmd.Flags().StringArray("parameter-overrides", nil, "template parameters as Key=Value; a bare Key keeps the previously deployed value")
	deployCmd.Flags().StringSlice("capabilities", nil, "capabilities to acknowledge (e.g. CAPABILITY_IAM)")
	deployCmd.Flags().String("role-arn", "", "IAM role CloudFormation assumes for the operation")
	deployCmd.Flags().StringSlice("notification-arns", nil, "SNS topic ARNs notified about stack events")
	deployCmd.Flags().StringArray("tags", nil, "stack tags as Key=Value")
	deployCmd.Flags().String("s3-bucket", "", "bucket to upload the template to instead of passing it inline")
	deployCmd.Flags().String("s3-prefix", "", "key prefix for uploaded templates")
	deployCmd.Flags().Bool("fail-on-empty-changeset", false, "fail when the changeset contains no changes")
	deployCmd.Flags().Bool("no-execute-changeset", false, "create the changeset but do not execute it")
	deployCmd.Flags().Bool("no-confirm-changeset", false, "execute without prompting for confirmation")
	deployCmd.Flags().Bool("disable-rollback", false, "leave the stack as-is when the operation fails")
	deployCmd.Flags().Int("max-wait", 0, "maximum minutes to wait for the stack operation")
}
