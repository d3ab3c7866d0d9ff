package guardctl

import (
	"github.com/spf13/cobra"

	"github.com/kart-io/guard/pkg/store"
)

func newShowCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show [SECURABLE]",
		Short: "List stored rules",
		Long: `List the rules in the policy store. With a SECURABLE argument only rules
naming that securable or leaving it unconstrained are shown.`,
		Example: `  guardctl show --store.backend sqlite
  guardctl show orders:42 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			securable := store.Wildcard
			if len(args) == 1 {
				securable = scopeArg(args[0])
			}

			records, err := st.List(ctx, securable)
			if err != nil {
				return err
			}

			return printRecords(cmd.OutOrStdout(), opts.Output, records)
		},
	}
}
