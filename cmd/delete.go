/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stackhand/stackhand/internal/prompt"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [stack-name]",
	Short: "Delete a CloudFormation stack",
	Long: `Delete a CloudFormation stack after confirmation, tailing the teardown
events until the stack is gone. Deleting a stack that does not exist is a
no-op.

Examples:
  stackhand delete my-app
  stackhand delete --env dev --yes

CAUTION: Deletion is destructive and cannot be undone. Always verify what
will be deleted before confirming.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveStackOptions(cmd, args)
		if err != nil {
			return err
		}
		skipConfirm, _ := cmd.Flags().GetBool("yes")

		ctx := cmd.Context()
		d, err := getDeployer(ctx, opts)
		if err != nil {
			return err
		}

		exists, err := d.HasStack(ctx, opts.stackName)
		if err != nil {
			return err
		}
		if !exists {
			fmt.Printf("Stack %s does not exist, nothing to delete\n", opts.stackName)
			return nil
		}

		if !skipConfirm {
			confirmed, err := prompt.Confirm(fmt.Sprintf("Do you want to delete stack %s?", opts.stackName))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Deletion cancelled")
				return nil
			}
		}

		if err := d.DeleteStack(ctx, opts.stackName); err != nil {
			return err
		}

		fmt.Printf("Successfully deleted stack %s\n", opts.stackName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().Bool("yes", false, "delete without prompting for confirmation")
}
