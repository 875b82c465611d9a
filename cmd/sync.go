/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stackhand/stackhand/internal/deploy"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [stack-name]",
	Short: "Converge a stack immediately, without a changeset preview",
	Long: `Create or update a CloudFormation stack directly, skipping the changeset
preview and confirmation step. Intended for fast iterative workflows against
development stacks.

The --on-failure mode decides what happens when the operation fails:

  ROLLBACK    roll the stack back to its last stable state (default)
  DO_NOTHING  disable automatic rollback and leave the stack as-is
  DELETE      tear the stack down; failed stacks are also cleaned up
              automatically after the failure is reported

Examples:
  stackhand sync my-app --template template.yaml
  stackhand sync --env dev --on-failure DELETE
  stackhand sync my-app --template template.yaml --on-failure DO_NOTHING`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveStackOptions(cmd, args)
		if err != nil {
			return err
		}

		onFailure, _ := cmd.Flags().GetString("on-failure")
		mode, err := deploy.ParseFailureMode(onFailure)
		if err != nil {
			return err
		}
		maxWait, _ := cmd.Flags().GetInt("max-wait")

		ctx := cmd.Context()

		templateBody, err := resolveTemplate(opts)
		if err != nil {
			return err
		}

		d, err := getDeployer(ctx, opts)
		if err != nil {
			return err
		}

		result, err := d.Sync(ctx, buildRequest(opts, templateBody), mode, maxWait)
		if err != nil {
			// The deployment failure stands; recovery only stabilises
			// what the failed operation left behind.
			var opErr *deploy.StackOperationError
			if errors.As(err, &opErr) && mode == deploy.FailureModeDelete {
				if recErr := d.RecoverFailedStack(ctx, opts.stackName); recErr != nil {
					fmt.Printf("Stack %s could not be cleaned up, delete it manually: %v\n", opts.stackName, recErr)
				}
			}
			return err
		}

		if result.NoChanges {
			fmt.Printf("No changes to deploy for stack %s\n", opts.stackName)
			return nil
		}
		fmt.Printf("Successfully synced stack %s\n", opts.stackName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringP("template", "t", "", "path or file:// URI of the template to deploy")
	syncCmd.Flags().String("stack-name", "", "stack to sync; the positional argument takes precedence")
	syncCmd.Flags().StringArray("parameter-overrides", nil, "template parameters as Key=Value; a bare Key keeps the previously deployed value")
	syncCmd.Flags().StringSlice("capabilities", nil, "capabilities to acknowledge (e.g. CAPABILITY_IAM)")
	syncCmd.Flags().String("role-arn", "", "IAM role CloudFormation assumes for the operation")
	syncCmd.Flags().StringSlice("notification-arns", nil, "SNS topic ARNs notified about stack events")
	syncCmd.Flags().StringArray("tags", nil, "stack tags as Key=Value")
	syncCmd.Flags().String("s3-bucket", "", "bucket to upload the template to instead of passing it inline")
	syncCmd.Flags().String("s3-prefix", "", "key prefix for uploaded templates")
	syncCmd.Flags().String("on-failure", "ROLLBACK", "what to do when the operation fails: ROLLBACK, DO_NOTHING or DELETE")
	syncCmd.Flags().Int("max-wait", 0, "maximum minutes to wait for the stack operation")
}
