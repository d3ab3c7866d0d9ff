package guardctl

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kart-io/guard/pkg/authz"
	"github.com/kart-io/guard/pkg/store"
	"github.com/kart-io/guard/pkg/utils/json"
)

func printDecision(w io.Writer, format string, d authz.Decision) error {
	if format == OutputJSON {
		return writeJSON(w, d)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ALLOWED\tREASON\tPRINCIPAL\tSECURABLE\tACTION")
	fmt.Fprintf(tw, "%t\t%s\t%s\t%s\t%s\n",
		d.Allowed, d.Reason, orAny(d.Principal), orAny(d.Securable), orAny(d.Action))
	return tw.Flush()
}

func printRecords(w io.Writer, format string, records []*store.Record) error {
	if format == OutputJSON {
		if records == nil {
			records = []*store.Record{}
		}
		return writeJSON(w, records)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEFFECT\tPRINCIPAL\tSECURABLE\tACTION\tUPDATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Effect, orAny(r.Principal), orAny(r.Securable), orAny(r.Action),
			r.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// orAny renders an unconstrained scope value as * so table rows stay
// aligned with the CLI argument syntax.
func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
