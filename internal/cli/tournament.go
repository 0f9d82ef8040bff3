package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newTournamentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tournament",
		Short: "Tournament catalog commands (operator)",
	}

	cmd.AddCommand(newTournamentPutCmd())
	cmd.AddCommand(newTournamentGetCmd())
	cmd.AddCommand(newTournamentListCmd())

	return cmd
}

func newTournamentPutCmd() *cobra.Command {
	var (
		name             string
		capacity         int
		registrations    int
		mode             string
		status           string
		waitlist         bool
		waitlistCapacity int
		groupsFile       string
	)

	cmd := &cobra.Command{
		Use:   "put <id>",
		Short: "Create or replace a tournament",
		Long: `Create or replace a tournament definition.

Priority groups are read from a JSON file holding an array of groups, e.g.
  [{"id": "vets", "name": "Veterans", "priority": 1, "guaranteed_spots": 4,
    "lottery_weight": 2, "criteria": [{"field": "tier", "operator": "equals", "value": "gold"}]}]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"name":                  name,
				"max_capacity":          capacity,
				"current_registrations": registrations,
				"mode":                  mode,
				"status":                status,
				"waitlist_enabled":      waitlist,
				"waitlist_capacity":     waitlistCapacity,
			}
			if groupsFile != "" {
				groups, err := readGroups(groupsFile)
				if err != nil {
					return err
				}
				req["priority_groups"] = groups
			}

			var result Tournament
			if err := client.Put(tournamentPath(args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "Maximum registrations (required)")
	cmd.Flags().IntVar(&registrations, "registrations", 0, "Current registrations")
	cmd.Flags().StringVar(&mode, "mode", "first_come_first_served", "Mode: first_come_first_served, lottery, priority_based")
	cmd.Flags().StringVar(&status, "status", "registration", "Status: upcoming, registration, ongoing, completed")
	cmd.Flags().BoolVar(&waitlist, "waitlist", false, "Enable the waitlist")
	cmd.Flags().IntVar(&waitlistCapacity, "waitlist-capacity", 0, "Waitlist capacity")
	cmd.Flags().StringVar(&groupsFile, "groups-file", "", "JSON file of priority groups")
	_ = cmd.MarkFlagRequired("capacity")

	return cmd
}

func readGroups(path string) ([]PriorityGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var groups []PriorityGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return groups, nil
}

func newTournamentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a tournament",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Tournament

			if err := client.Get(tournamentPath(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newTournamentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tournaments",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TournamentList

			if err := client.Get("/api/v1/tournaments", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
