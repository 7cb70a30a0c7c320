package cli

import (
	"github.com/spf13/cobra"

	"github.com/quelsh/winnow/internal/config"
	"github.com/quelsh/winnow/internal/dash"
)

func newDashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Live dashboard of savings and recent invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return dash.Run(store)
		},
	}
}
