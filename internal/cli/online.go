package cli

import (
	"github.com/spf13/cobra"
)

func newOnlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "online",
		Short: "List users currently in the world",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result OnlineUsers

			if err := client.Get("/api/v1/online-users", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
