package cli

import (
	"fmt"

	"github.com/chepyr/tareas/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect tareas configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.YAML()
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			path := a.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			fmt.Fprintf(a.out, "# %s + environment\n%s", path, data)
			return nil
		},
	})
	return cmd
}
