package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrUnhealthy is returned when the backend reports a status other than ok
var ErrUnhealthy = errors.New("backend is unhealthy")

// NewHealthCommand creates the health command
func NewHealthCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, global)
			if err != nil {
				return err
			}
			defer s.close()

			health, err := s.client.Health(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", health.Status)
			if health.Version != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", health.Version)
			}
			if !health.OK() {
				return ErrUnhealthy
			}
			return nil
		},
	}
}
