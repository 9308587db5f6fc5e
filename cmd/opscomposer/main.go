package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aydocorp/opscomposer/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "opscomposer",
		Short: "Mission composition and crew assignment",
		Long: `opscomposer builds operation plans: overview details, personnel, vessels and
crew assignments, saved to the mission persistence service.`,
	}
	rootCmd.PersistentFlags().String(cli.ConfigDirFlag, ".", "Directory holding opscomposer.cfg.json and .env")

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.ComposeCmd())
	rootCmd.AddCommand(cli.ValidateCmd())
	rootCmd.AddCommand(cli.MissionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
