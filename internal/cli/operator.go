package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/tourneygate/internal/services/auth"
)

func newLoginCmd() *cobra.Command {
	var operator, key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open an operator session",
		Long: `Open an operator session and save its token for later commands.

The key can be given with --key or the TOURNEYGATE_OPERATOR_KEY environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = os.Getenv("TOURNEYGATE_OPERATOR_KEY")
			}
			if operator == "" || key == "" {
				return fmt.Errorf("--operator and --key are required")
			}

			req := map[string]string{"operator": operator, "key": key}
			var result Session

			if err := client.Post("/api/v1/operators/sessions", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			client.SetToken(result.SessionToken)

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "", "Operator name (required)")
	cmd.Flags().StringVar(&key, "key", "", "Operator key (env: TOURNEYGATE_OPERATOR_KEY)")
	_ = cmd.MarkFlagRequired("operator")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the operator session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("not logged in")
			}
			if err := client.Delete("/api/v1/operators/sessions"); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			client.SetToken("")

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key [key]",
		Short: "Hash an operator key for TOURNEYGATE_OPERATORS",
		Long: `Print the bcrypt hash of an operator key. The server reads operators from
TOURNEYGATE_OPERATORS as comma separated name:hash pairs.

With no argument the key is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read key: %w", err)
				}
				key = strings.TrimRight(line, "\r\n")
			}
			if key == "" {
				return fmt.Errorf("key must not be empty")
			}

			hash, err := auth.HashKey(key)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if cfg.Output == "json" {
				out.Print(map[string]string{"hash": hash})
			} else {
				out.PrintMessage(hash)
			}
			return nil
		},
	}
}
