package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// registrationFlags are the per-call config overrides shared by register, retry and queue join
type registrationFlags struct {
	rateLimit    int
	maxQueueSize int
	queueTimeout int
	batchSize    int
	maxRetries   int
	fallbackMode string
}

func (f *registrationFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.rateLimit, "rate-limit", 0, "Attempts allowed per user per minute")
	cmd.Flags().IntVar(&f.maxQueueSize, "max-queue-size", 0, "Maximum waiting queue entries")
	cmd.Flags().IntVar(&f.queueTimeout, "queue-timeout", 0, "Minutes a queue entry stays valid")
	cmd.Flags().IntVar(&f.batchSize, "queue-batch-size", 0, "Entries activated per queue drain")
	cmd.Flags().IntVar(&f.maxRetries, "max-retries", 0, "Retries allowed per attempt")
	cmd.Flags().StringVar(&f.fallbackMode, "fallback-mode", "", "graceful_degradation, maintenance or emergency_shutdown")
}

// config returns the request config, or nil when no override was given
func (f *registrationFlags) config() map[string]any {
	c := map[string]any{}
	if f.rateLimit > 0 {
		c["rate_limit_per_minute"] = f.rateLimit
	}
	if f.maxQueueSize > 0 {
		c["max_queue_size"] = f.maxQueueSize
	}
	if f.queueTimeout > 0 {
		c["queue_timeout_minutes"] = f.queueTimeout
	}
	if f.batchSize > 0 {
		c["queue_batch_size"] = f.batchSize
	}
	if f.maxRetries > 0 {
		c["max_retries"] = f.maxRetries
	}
	if f.fallbackMode != "" {
		c["fallback_mode"] = f.fallbackMode
	}
	if len(c) == 0 {
		return nil
	}
	return c
}

func newRegisterCmd() *cobra.Command {
	var (
		user  string
		flags registrationFlags
	)

	cmd := &cobra.Command{
		Use:   "register <tournament>",
		Short: "Attempt to register a user for a tournament",
		Long: `Attempt to register a user. The outcome is one of success, failed, queued
or lottery_entered; policy rejections such as rate limiting are reported in
the attempt message rather than as errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"user_id": user}
			if c := flags.config(); c != nil {
				req["config"] = c
			}
			var result Attempt

			if err := client.Post(tournamentPath(args[0], "registrations"), req, &result); err != nil {
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

func newRetryCmd() *cobra.Command {
	var (
		user       string
		attemptID  string
		retryCount int
		flags      registrationFlags
	)

	cmd := &cobra.Command{
		Use:   "retry <tournament>",
		Short: "Retry a previous registration attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if retryCount < 0 {
				return fmt.Errorf("--retry-count must not be negative")
			}
			req := map[string]any{
				"previous": map[string]any{
					"id":          attemptID,
					"user_id":     user,
					"retry_count": retryCount,
				},
			}
			if c := flags.config(); c != nil {
				req["config"] = c
			}
			var result Attempt

			if err := client.Post(tournamentPath(args[0], "registrations", "retry"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	cmd.Flags().StringVar(&attemptID, "attempt", "", "ID of the attempt being retried")
	cmd.Flags().IntVar(&retryCount, "retry-count", 0, "Retry count of the attempt being retried")
	_ = cmd.MarkFlagRequired("user")
	flags.bind(cmd)

	return cmd
}
