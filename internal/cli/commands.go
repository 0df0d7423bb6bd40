package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

func newAddCmd(a *app) *cobra.Command {
	var description, amount string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Example: `  expense-tracker add --description "Lunch" --amount 20
  expense-tracker add --description Coffee --amount 4,50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			money, err := core.ParseAmount(amount)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.closeSession(ctx, s)

			e, err := s.svc.AddExpense(ctx, description, money)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expense added successfully (ID: %d)\n", e.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Description of the expense")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount of the expense")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.closeSession(ctx, s)

			expenses, err := s.svc.ListExpenses(ctx)
			if err != nil {
				return err
			}
			applog.FromContext(ctx).DebugContext(ctx, "Listing expenses",
				applog.FieldOperation, applog.OpList,
				applog.FieldCount, len(expenses))
			renderTable(cmd.OutOrStdout(), expenses)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.closeSession(ctx, s)

			if err := s.svc.DeleteExpense(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Expense deleted successfully")
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "ID of the expense to delete")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	var month int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a summary of expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.closeSession(ctx, s)

			applog.FromContext(ctx).DebugContext(ctx, "Computing summary",
				applog.FieldOperation, applog.OpSummary,
				applog.FieldMonth, month)

			if !cmd.Flags().Changed("month") {
				total, err := s.svc.TotalExpenses(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total expenses: $%s\n", total)
				return nil
			}

			total, err := s.svc.MonthlyTotal(ctx, month)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total expenses for month %d: $%s\n", month, total)
			return nil
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "Month of the year (1-12) to filter expenses")

	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var month int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export expenses to Google Sheets",
		Long: `Replace the contents of the configured Google Sheets tab with the stored
expenses, or only those of one month when --month is given.

Requires GOOGLE_SPREADSHEET_ID and service account credentials in
GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("month") {
				if err := core.ValidateMonth(month); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			dst, err := a.newExporter(ctx, a.cfg)
			if err != nil {
				return err
			}

			s, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.closeSession(ctx, s)

			applog.FromContext(ctx).WithComponent(applog.ComponentSheets).DebugContext(ctx, "Exporting expenses",
				applog.FieldOperation, applog.OpExport,
				applog.FieldMonth, month)

			ref, n, err := s.svc.ExportExpenses(ctx, dst, month)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d expenses to %s\n", n, ref)
			return nil
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "Only export expenses of this month (1-12)")

	return cmd
}
