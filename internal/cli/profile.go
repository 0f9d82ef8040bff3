package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "User profile commands (operator)",
		Long:  "Profiles hold the attributes that priority group criteria are evaluated against.",
	}

	cmd.AddCommand(newProfileSetCmd())
	cmd.AddCommand(newProfileGetCmd())

	return cmd
}

func profilePath(userID string) string {
	return "/api/v1/users/" + url.PathEscape(userID) + "/profile"
}

func newProfileSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <user> [key=value...]",
		Short: "Replace a user's profile attributes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := make(map[string]string, len(args)-1)
			for _, arg := range args[1:] {
				k, v, ok := strings.Cut(arg, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid attribute %q, want key=value", arg)
				}
				attrs[k] = v
			}

			req := map[string]any{"attributes": attrs}
			var result Profile

			if err := client.Put(profilePath(args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newProfileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user>",
		Short: "Show a user's profile attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile

			if err := client.Get(profilePath(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
