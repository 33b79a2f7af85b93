package main

import (
	"errors"
	"fmt"

	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/request"
	"github.com/apitaf/apitaf/svctests/companytasks"

	"github.com/spf13/cobra"
)

func deleteAllCompanyTasksCmd() *cobra.Command {
	var companyID string
	cmd := &cobra.Command{
		Use:   "delete_all_company_tasks",
		Short: "Delete every task of a company",
		RunE: traced("Delete company tasks", func(cmd *cobra.Command, _ []string) error {
			if companyID == "" {
				return errors.New("required argument 'companyid' is missing")
			}
			args := commandArgs(map[string]string{"companyid": companyID})
			h, err := openHarness(cmd.Context(), args)
			if err != nil {
				return err
			}
			client := companytasks.NewClient(h.Builder).WithOptions(request.Options{CommandArgs: args})
			inputs := overlay.New(map[string]interface{}{
				overlay.SectionHeaders: map[string]interface{}{"Content-Type": "application/json"},
			}, args.Environment())

			count, err := client.DeleteAll(cmd.Context(), inputs, companyID)
			if err != nil {
				return fmt.Errorf("delete operation failed: %w", err)
			}
			if count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Client has no tasks.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d Company tasks deleted successfully! Now, Client has no tasks.\n", count)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&companyID, "companyid", "c", "", "company id")
	return cmd
}
