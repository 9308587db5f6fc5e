package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aydocorp/opscomposer/internal/api"
	"github.com/aydocorp/opscomposer/internal/config"
)

// MissionsCmd returns the missions command
func MissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missions",
		Short: "Inspect saved missions",
	}
	cmd.AddCommand(missionsListCmd())
	cmd.AddCommand(missionsDeleteCmd())
	return cmd
}

func newClient(cmd *cobra.Command) (*api.Client, error) {
	dir, _ := cmd.Flags().GetString(ConfigDirFlag)
	if dir == "" {
		dir = "."
	}
	if err := config.Load(dir); err != nil {
		return nil, err
	}
	cfg := config.GetAPIConfig()
	return api.New(cfg.ServerURL, api.WithTimeout(cfg.Timeout)), nil
}

func missionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved missions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			missions, err := client.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list missions: %w", err)
			}
			if len(missions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No missions found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tSCHEDULED\tNAME\tCREW\tVESSELS")
			for _, m := range missions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
					m.ID, m.Status, m.ScheduledDateTime, m.Name, len(m.Participants), len(m.Vessels))
			}
			return w.Flush()
		},
	}
}

func missionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <mission-id>",
		Short: "Delete a saved mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete mission %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted mission %s\n", args[0])
			return nil
		},
	}
}
