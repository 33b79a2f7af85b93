package main

import (
	"context"
	"fmt"
	"io"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/request"

	"github.com/spf13/cobra"
)

const nachaSuite = "nacha_token_svc"

func nachaTokenizeCmd() *cobra.Command {
	var accountNumber, routingNumber string
	cmd := &cobra.Command{
		Use:   "nacha_tokenize",
		Short: "Tokenize a bank account number",
		RunE: traced("Tokenize Bank Account Number", func(cmd *cobra.Command, _ []string) error {
			return callNacha(cmd.Context(), cmd.OutOrStdout(), "tokenize",
				map[string]string{"bank_account_number": accountNumber, "routing_number": routingNumber},
				map[string]interface{}{"accountNumber": accountNumber, "routingNumber": routingNumber})
		}),
	}
	cmd.Flags().StringVarP(&accountNumber, "bank_account_number", "b", "", "bank account number")
	cmd.Flags().StringVarP(&routingNumber, "routing_number", "r", "", "routing number")
	return cmd
}

func nachaDetokenizeCmd() *cobra.Command {
	var token, routingNumber string
	cmd := &cobra.Command{
		Use:   "nacha_detokenize",
		Short: "Recover a bank account number from its token",
		RunE: traced("Detokenize Bank Account Number", func(cmd *cobra.Command, _ []string) error {
			return callNacha(cmd.Context(), cmd.OutOrStdout(), "detokenize",
				map[string]string{"token": token, "routing_number": routingNumber},
				map[string]interface{}{"token": token, "routingNumber": routingNumber})
		}),
	}
	cmd.Flags().StringVarP(&token, "token", "t", "", "token")
	cmd.Flags().StringVarP(&routingNumber, "routing_number", "r", "", "routing number")
	return cmd
}

// callNacha sends one item to the token service and prints the content of the response.
func callNacha(ctx context.Context, out io.Writer, endpointKey string, values map[string]string, item map[string]interface{}) error {
	args := commandArgs(values)
	h, err := openHarness(ctx, args)
	if err != nil {
		return err
	}
	return sendNacha(ctx, out, h.Builder, args, endpointKey, item)
}

func sendNacha(
	ctx context.Context,
	out io.Writer,
	caller request.Caller,
	args config.CommandArgs,
	endpointKey string,
	item map[string]interface{},
) error {
	o := overlay.New(map[string]interface{}{overlay.SectionJSON: []interface{}{item}}, args.Environment())
	resp, err := caller.Call(ctx, endpoint.Ref{Suite: nachaSuite, Endpoint: endpointKey},
		request.Options{CommandArgs: args, Overlay: o})
	if err != nil {
		return err
	}
	if resp.Failed() || resp.Status >= 400 {
		return fmt.Errorf("%s", resp.Describe("Token service call failed."))
	}
	fmt.Fprintln(out, resp.Body.GetByKey("content").JSONString())
	return nil
}
