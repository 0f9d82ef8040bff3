package cli

import (
	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Registration queue commands",
	}

	cmd.AddCommand(newQueueJoinCmd())
	cmd.AddCommand(newQueueStatusCmd())
	cmd.AddCommand(newQueueDrainCmd())

	return cmd
}

func newQueueJoinCmd() *cobra.Command {
	var (
		user  string
		flags registrationFlags
	)

	cmd := &cobra.Command{
		Use:   "join <tournament>",
		Short: "Join a tournament's registration queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"user_id": user}
			if c := flags.config(); c != nil {
				req["config"] = c
			}
			var result QueueEntry

			if err := client.Post(tournamentPath(args[0], "queue"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")
	flags.bind(cmd)

	return cmd
}

func newQueueStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <tournament> <user>",
		Short: "Show a user's queue position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result QueueEntry

			if err := client.Get(tournamentPath(args[0], "queue", args[1]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newQueueDrainCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "drain <tournament>",
		Short: "Activate the next batch of waiting entries (operator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]int{}
			if batchSize != 0 {
				req["batch_size"] = batchSize
			}
			var result DrainResult

			if err := client.Post(tournamentPath(args[0], "queue", "drain"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Entries to activate (default: server setting)")

	return cmd
}
