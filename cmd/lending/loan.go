package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
)

func newIssueCmd(a *app) *cobra.Command {
	var req lending.IssueRequest

	cmd := &cobra.Command{
		Use:     "issue",
		Short:   "Lend one copy of an item to a borrower",
		Example: `  lending issue --code DDD --name "Ada" --contact 555-0100 --affiliation CS --due 2026-11-01`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd.Context(), func(engine sqlengine.Engine) error {
				loan, err := engine.Issue(cmd.Context(), req)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), loan)
			})
		},
	}

	cmd.Flags().StringVar(&req.ItemCode, "code", "", "item code")
	cmd.Flags().StringVar(&req.BorrowerName, "name", "", "borrower name")
	cmd.Flags().StringVar(&req.ContactID, "contact", "", "borrower contact id, for example a phone number")
	cmd.Flags().StringVar(&req.Affiliation, "affiliation", "", "borrower affiliation")
	cmd.Flags().StringVar(&req.DueDate, "due", "", "due date (YYYY-MM-DD)")

	return cmd
}

func newReturnCmd(a *app) *cobra.Command {
	var req lending.ReturnRequest

	cmd := &cobra.Command{
		Use:   "return",
		Short: "Return a borrowed copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd.Context(), func(engine sqlengine.Engine) error {
				loan, err := engine.Return(cmd.Context(), req)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), loan)
			})
		},
	}

	cmd.Flags().StringVar(&req.ItemCode, "code", "", "item code")
	cmd.Flags().StringVar(&req.BorrowerName, "name", "", "borrower name as given on issue")
	cmd.Flags().StringVar(&req.ContactID, "contact", "", "borrower contact id")

	return cmd
}

func newLoansCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "loans",
		Short: "Show all open loans ordered by due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd.Context(), func(engine sqlengine.Engine) error {
				loans, err := engine.CurrentLoans(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "DUE\tCODE\tTITLE\tBORROWER\tCONTACT\tISSUED")

				for _, loan := range loans {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						loan.DueDate, loan.ItemCode, loan.Title, loan.BorrowerName, loan.ContactID, loan.IssueDate)
				}

				return w.Flush()
			})
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show total, available and lent out copies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd.Context(), func(engine sqlengine.Engine) error {
				summary, err := engine.Summary(cmd.Context())
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
}
