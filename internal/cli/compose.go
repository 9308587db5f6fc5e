package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aydocorp/opscomposer/internal/api"
	"github.com/aydocorp/opscomposer/internal/composer"
	"github.com/aydocorp/opscomposer/internal/config"
	"github.com/aydocorp/opscomposer/internal/host"
	"github.com/aydocorp/opscomposer/internal/refdata"
	sig "github.com/aydocorp/opscomposer/internal/signal"
	"github.com/aydocorp/opscomposer/internal/tui"
)

// ComposeCmd returns the compose command
func ComposeCmd() *cobra.Command {
	var (
		missionID string
		server    string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a new mission or edit an existing one",
		Long: `Open the interactive composer.

Without --mission a new mission is started. With --mission the saved mission is
loaded and opened on the Review stage. Changes made in other sessions are
picked up from the service's notification socket.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := start(cmd, "opscomposer", true)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			apiCfg := config.GetAPIConfig()
			if server != "" {
				apiCfg.ServerURL = server
			}
			client := api.New(apiCfg.ServerURL, api.WithTimeout(apiCfg.Timeout))

			bus, err := sig.NewBus(s.logger)
			if err != nil {
				return err
			}

			ref := config.GetRefDataConfig()
			dir, cat := refdata.Sources(ref.UsersURL, ref.UsersFile, ref.ShipsURL, ref.ShipsFile, apiCfg.ServerURL, nil)
			opts := []composer.Option{
				composer.WithReferenceSources(dir, cat),
				composer.WithMissionContext(s.mission),
				composer.WithLogger(s.logger),
				composer.WithLookupCacheSize(ref.LookupSize),
			}
			if missionID != "" {
				m, err := client.Get(ctx, missionID)
				if err != nil {
					return fmt.Errorf("failed to load mission %s: %w", missionID, err)
				}
				opts = append(opts, composer.WithMission(m))
			}
			c := composer.New(client, bus, opts...)

			if w, err := client.Watch(ctx, bus, s.logger); err != nil {
				s.logger.Warn("Live updates unavailable", "error", err)
			} else {
				defer w.Close()
			}

			var program *tea.Program
			h := host.New(c, bus, client,
				host.WithFocusDelay(config.GetHostConfig().FocusDelay),
				host.WithMissionContext(s.mission),
				host.WithLogger(s.logger),
				host.WithCloseCallback(func() {
					if program != nil {
						go program.Send(tui.HostClosedMsg{})
					}
				}),
			)
			defer h.Close()

			app := tui.NewApp(h, tui.WithContext(ctx), tui.WithLogger(s.logger))
			program = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := program.Run(); err != nil && ctx.Err() == nil {
				return fmt.Errorf("composer exited: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&missionID, "mission", "m", "", "Mission id to edit")
	cmd.Flags().StringVar(&server, "server", "", "Persistence service URL (overrides api.serverUrl)")
	return cmd
}
