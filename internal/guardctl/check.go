package guardctl

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/authz"
	"github.com/kart-io/guard/pkg/utils/httpclient"
	"github.com/kart-io/guard/pkg/utils/json"
)

const checkLong = `Evaluate an authorization query against the policy store the way guardd
renders it: a matching deny rule wins over any permit, and a query no
rule permits is denied.

PRINCIPAL and ACTION are required. SECURABLE may be * to leave that
dimension unconstrained. Roles the principal holds are passed with
--roles and act as additional principals.

By default the query is evaluated against the configured store. With
--server it is sent to a running guardd instead, so the answer reflects
the rules that instance currently holds.

The exit status is 0 when the query is permitted and 1 when it is not.`

func newCheckCommand(opts *Options) *cobra.Command {
	var (
		roles  []string
		server string
		token  string
	)

	cmd := &cobra.Command{
		Use:     "check PRINCIPAL SECURABLE ACTION",
		Short:   "Evaluate an authorization query",
		Long:    checkLong,
		Example: `  guardctl check alice orders:42 read --store.backend sqlite --roles admin,auditor
  guardctl check alice orders:42 read --server http://localhost:8440`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				allowed bool
				err     error
			)
			if server != "" {
				allowed, err = runRemoteCheck(cmd, opts, server, token, args, roles)
			} else {
				allowed, err = runCheck(cmd, opts, args, roles)
			}
			if err != nil {
				return err
			}
			if !allowed {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&roles, "roles", nil, "Roles held by the principal, evaluated as additional principals")
	cmd.Flags().StringVar(&server, "server", "", "Base URL of a guardd instance to query instead of the store")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token sent with --server requests")

	return cmd
}

// runCheck evaluates the query and renders the decision. It is separate
// from RunE so deferred cleanup runs before the process exits.
func runCheck(cmd *cobra.Command, opts *Options, args, roles []string) (bool, error) {
	ctx := cmd.Context()

	st, err := opts.openStore(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = st.Close() }()

	authorizer, err := authz.NewFromStore(ctx, st)
	if err != nil {
		return false, err
	}

	var decision authz.Decision
	if len(roles) == 0 {
		decision, err = authorizer.Authorize(ctx, acl.Query{
			Principal: args[0],
			Securable: queryArg(args[1]),
			Action:    args[2],
		})
	} else {
		principals := make([]any, 0, len(roles)+1)
		principals = append(principals, args[0])
		for _, r := range roles {
			principals = append(principals, r)
		}
		decision, err = authorizer.AuthorizeAll(ctx, acl.MultiQuery{
			Principals: principals,
			Securable:  queryArg(args[1]),
			Actions:    []any{args[2]},
		})
	}
	if err != nil {
		return false, err
	}

	if err := printDecision(cmd.OutOrStdout(), opts.Output, decision); err != nil {
		return false, err
	}
	return decision.Allowed, nil
}

// runRemoteCheck asks a running guardd for the decision over its HTTP API.
func runRemoteCheck(cmd *cobra.Command, opts *Options, server, token string, args, roles []string) (bool, error) {
	securable := args[1]
	if securable == "*" {
		securable = ""
	}

	var (
		path    string
		payload any
	)
	if len(roles) == 0 {
		path = "/v1/decisions"
		payload = map[string]any{
			"principal": args[0],
			"securable": securable,
			"action":    args[2],
		}
	} else {
		path = "/v1/decisions/batch"
		payload = map[string]any{
			"principals": append([]string{args[0]}, roles...),
			"securable":  securable,
			"actions":    []string{args[2]},
		}
	}

	decision, err := postDecision(cmd.Context(), server, token, path, payload)
	if err != nil {
		return false, err
	}

	if err := printDecision(cmd.OutOrStdout(), opts.Output, decision); err != nil {
		return false, err
	}
	return decision.Allowed, nil
}

// postDecision posts payload to the guardd decision endpoint and unwraps
// the response envelope.
func postDecision(ctx context.Context, server, token, path string, payload any) (authz.Decision, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return authz.Decision{}, err
	}

	url := strings.TrimRight(server, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return authz.Decision{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var env struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    authz.Decision `json:"data"`
	}
	client := httpclient.NewClient(10*time.Second, 2)
	if err := client.DoJSON(req, &env); err != nil {
		return authz.Decision{}, fmt.Errorf("query %s: %w", url, err)
	}
	if env.Code != 0 {
		return authz.Decision{}, fmt.Errorf("query %s: %s (code %d)", url, env.Message, env.Code)
	}
	return env.Data, nil
}
