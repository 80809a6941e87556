package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Check every balance against the payment ledger",
		Long: `Compare each user's balance with completed deposits minus penalties and
withdrawals. Prints one line per mismatch and exits non-zero if any exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			mismatches, err := a.deposits().Audit(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range mismatches {
				fmt.Fprintf(cmd.OutOrStdout(), "user %d: balance %d, ledger %d\n", m.UserID, m.Balance, m.Expected)
			}
			if len(mismatches) > 0 {
				return fmt.Errorf("%d balance(s) out of sync with the ledger", len(mismatches))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all balances match the ledger")
			return nil
		},
	}
}
