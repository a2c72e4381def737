package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/referydo/internal/app"
	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/mcp"
)

func apikeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage bearer tokens",
	}

	var principal, token, description string
	add := &cobra.Command{
		Use:   "add",
		Short: "Provision a bearer token for a principal and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer done()

			issued, err := a.Store.APIKeys.Add(cmd.Context(), escrow.Principal(principal), token, description)
			if err != nil {
				return fmt.Errorf("adding api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued)
			return nil
		},
	}
	add.Flags().StringVar(&principal, "principal", "", "principal the token acts as")
	add.Flags().StringVar(&token, "token", "", "token to store (generated when empty)")
	add.Flags().StringVar(&description, "description", "", "free-form note")
	_ = add.MarkFlagRequired("principal")

	cmd.AddCommand(add)
	return cmd
}

func ledgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and seed the development ledger",
	}

	var principal string
	var amount uint64
	credit := &cobra.Command{
		Use:   "credit",
		Short: "Mint balance for a principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer done()

			bal, err := a.Ledger.Credit(cmd.Context(), escrow.Principal(principal), amount)
			if err != nil {
				return fmt.Errorf("crediting %s: %w", principal, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s balance %d (%s)\n", principal, bal, mcp.FormatSTX(bal))
			return nil
		},
	}
	credit.Flags().StringVar(&principal, "principal", "", "account to credit")
	credit.Flags().Uint64Var(&amount, "amount", 0, "amount in micro-units")
	_ = credit.MarkFlagRequired("principal")
	_ = credit.MarkFlagRequired("amount")

	balance := &cobra.Command{
		Use:   "balance",
		Short: "Print the balance of a principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer done()

			bal, err := a.Ledger.Balance(cmd.Context(), escrow.Principal(principal))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s balance %d (%s)\n", principal, bal, mcp.FormatSTX(bal))
			return nil
		},
	}
	balance.Flags().StringVar(&principal, "principal", "", "account to inspect")
	_ = balance.MarkFlagRequired("principal")

	cmd.AddCommand(credit, balance)
	return cmd
}

// openApp builds the App for one-shot commands. Logs go to stderr so
// stdout carries only the command output.
func openApp(cmd *cobra.Command) (*app.App, func(), error) {
	logger, closeLog, err := newLogger(cfg.Log, true)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() {
		_ = a.Close()
		closeLog()
	}, nil
}
