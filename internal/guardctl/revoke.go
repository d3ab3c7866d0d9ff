package guardctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kart-io/guard/pkg/store"
)

func newRevokeCommand(opts *Options) *cobra.Command {
	effect := string(store.EffectPermit)

	cmd := &cobra.Command{
		Use:   "revoke PRINCIPAL SECURABLE ACTION",
		Short: "Revoke matching rules",
		Long: `Remove every stored rule matching the tuple exactly. The arguments must
spell the rule as it was saved: * matches rules whose dimension is
unconstrained, not every rule. Deny rules are revoked with --effect deny.`,
		Example: `  guardctl revoke alice orders:42 read --store.backend sqlite
  guardctl revoke mallory '*' '*' --effect deny`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e := store.Effect(effect)
			if !e.Valid() {
				return fmt.Errorf("effect must be permit or deny, got: %q", effect)
			}

			st, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			n, err := st.DeleteMatching(ctx, e, scopeArg(args[0]), scopeArg(args[1]), scopeArg(args[2]))
			if err != nil {
				return err
			}
			if n > 0 {
				if err := opts.announce(ctx); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: change saved but not announced: %v\n", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d rule(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&effect, "effect", effect, "Effect of the rules to revoke (permit, deny)")

	return cmd
}
