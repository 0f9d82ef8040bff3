package cli

import (
	"github.com/spf13/cobra"
)

func newLotteryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lottery",
		Short: "Lottery commands",
	}

	cmd.AddCommand(newLotteryEnterCmd())
	cmd.AddCommand(newLotteryStatusCmd())
	cmd.AddCommand(newLotteryWinnerCmd())
	cmd.AddCommand(newLotteryResultCmd())
	cmd.AddCommand(newLotteryDrawCmd())

	return cmd
}

func newLotteryEnterCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "enter <tournament>",
		Short: "Enter a user into a tournament's lottery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"user_id": user}
			var result Attempt

			if err := client.Post(tournamentPath(args[0], "lottery", "entries"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newLotteryStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <tournament>",
		Short: "Show a lottery's state and entry count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LotteryStatus

			if err := client.Get(tournamentPath(args[0], "lottery"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLotteryWinnerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "winner <tournament> <user>",
		Short: "Check whether a user won the lottery",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result WinnerResult

			if err := client.Get(tournamentPath(args[0], "lottery", "winners", args[1]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLotteryResultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "result <tournament>",
		Short: "Show the outcome of a completed draw",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LotteryResult

			if err := client.Get(tournamentPath(args[0], "lottery", "result"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLotteryDrawCmd() *cobra.Command {
	var maxWinners, waitlistSize int

	cmd := &cobra.Command{
		Use:   "draw <tournament>",
		Short: "Draw the lottery now (operator)",
		Long: `Draw the lottery. Winners default to the tournament's free capacity and
the waitlist to its free waitlist capacity; the flags can only lower them.
Drawing an already drawn lottery returns the stored result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]int{}
			if maxWinners != 0 {
				req["max_winners"] = maxWinners
			}
			if waitlistSize != 0 {
				req["waitlist_size"] = waitlistSize
			}
			var result LotteryResult

			if err := client.Post(tournamentPath(args[0], "lottery", "draw"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxWinners, "max-winners", 0, "Upper bound on winners")
	cmd.Flags().IntVar(&waitlistSize, "waitlist-size", 0, "Upper bound on the waitlist")

	return cmd
}
