/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [stack-name]",
	Short: "Validate a CloudFormation template",
	Long: `Validate a template using the AWS CloudFormation API.

The template is rendered the same way deploy renders it, then checked for
syntax errors, valid resource types and parameter definitions. This gives
fast feedback during development without deploying anything.

Examples:
  stackhand validate my-app --template template.yaml
  stackhand validate --env dev`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveStackOptions(cmd, args)
		if err != nil {
			return err
		}

		templateBody, err := resolveTemplate(opts)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		d, err := getDeployer(ctx, opts)
		if err != nil {
			return err
		}

		if err := d.ValidateTemplate(ctx, templateBody); err != nil {
			return err
		}

		fmt.Printf("Template for stack %s is valid\n", opts.stackName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("template", "t", "", "path or file:// URI of the template to validate")
}
