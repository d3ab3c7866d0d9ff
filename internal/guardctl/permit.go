package guardctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kart-io/guard/pkg/store"
)

func newPermitCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "permit PRINCIPAL SECURABLE ACTION",
		Short: "Save a permit rule",
		Long: `Save a permit rule to the policy store. Any argument may be * to leave
that dimension unconstrained, so the rule matches every value of it.`,
		Example: `  guardctl permit alice orders:42 read --store.backend sqlite
  guardctl permit auditor '*' read`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return savePolicy(cmd, opts, store.EffectPermit, args)
		},
	}
}

func newDenyCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "deny PRINCIPAL SECURABLE ACTION",
		Short: "Save a deny rule",
		Long: `Save a deny rule to the policy store. A deny wins over every permit that
matches the same query. Any argument may be * to leave that dimension
unconstrained.`,
		Example: `  guardctl deny mallory '*' '*' --store.backend sqlite`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return savePolicy(cmd, opts, store.EffectDeny, args)
		},
	}
}

// savePolicy persists one rule and announces the change. The store
// assigns the record its identifier.
func savePolicy(cmd *cobra.Command, opts *Options, effect store.Effect, args []string) error {
	ctx := cmd.Context()

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	rec := &store.Record{
		Effect:    effect,
		Principal: scopeArg(args[0]),
		Securable: scopeArg(args[1]),
		Action:    scopeArg(args[2]),
	}
	if err := st.Save(ctx, rec); err != nil {
		return err
	}

	if err := opts.announce(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: change saved but not announced: %v\n", err)
	}

	if opts.Output == OutputJSON {
		return writeJSON(cmd.OutOrStdout(), rec)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", effect, rec.ID)
	return nil
}
