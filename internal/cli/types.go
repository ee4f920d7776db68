package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewTypesCommand creates the types command
func NewTypesCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the scaffold types offered by the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, global)
			if err != nil {
				return err
			}
			defer s.close()

			types, err := s.client.Types(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("list types: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, t := range types {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.Description)
			}
			return w.Flush()
		},
	}
}
