package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newProfilesCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect and activate pipeline profiles",
	}

	cmd.AddCommand(newProfilesListCmd(root))
	cmd.AddCommand(newProfilesShowCmd(root))
	cmd.AddCommand(newProfilesActivateCmd(root))

	return cmd
}

func newProfilesListCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			keys := app.profiles.Keys()
			active := app.profiles.ActiveKey()

			if root.jsonOut || !stdoutIsTTY() {
				type entry struct {
					Key    string `json:"key"`
					Label  string `json:"label"`
					Active bool   `json:"active"`
				}
				entries := make([]entry, 0, len(keys))
				for _, key := range keys {
					prof, err := app.profiles.Get(key)
					if err != nil {
						return err
					}
					entries = append(entries, entry{Key: key, Label: prof.Label, Active: key == active})
				}
				return printJSON(cmd.OutOrStdout(), entries)
			}

			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				prof, err := app.profiles.Get(key)
				if err != nil {
					return err
				}
				marker := ""
				if key == active {
					marker = successStyle.Render("active")
				}
				rows = append(rows, []string{key, prof.Label, fmt.Sprintf("%d", len(prof.Adapters)), marker})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Label", "Roles", ""}, rows))
			return nil
		},
	}

	return cmd
}

func newProfilesShowCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Show a profile's adapter bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			prof, err := app.profiles.Get(args[0])
			if err != nil {
				return err
			}

			if root.jsonOut || !stdoutIsTTY() {
				return printJSON(cmd.OutOrStdout(), prof)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", titleStyle.Render(prof.Label), prof.Key)

			roles := make([]string, 0, len(prof.Adapters))
			for role := range prof.Adapters {
				roles = append(roles, role)
			}
			sort.Strings(roles)

			rows := make([][]string, 0, len(roles))
			for _, role := range roles {
				binding := prof.Adapters[role]
				rows = append(rows, []string{
					role,
					binding.Name,
					fmt.Sprintf("%d", len(binding.Overrides)),
					fmt.Sprintf("%d", len(binding.Preflights)),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Role", "Adapter", "Overrides", "Preflights"}, rows))
			return nil
		},
	}

	return cmd
}

func newProfilesActivateCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <key>",
		Short: "Activate a profile for subsequent invocations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			prof, err := app.profiles.Activate(args[0], app.hub)
			if err != nil {
				return err
			}
			if err := app.saveActiveProfile(prof.Key); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s profile %s\n", successStyle.Render("activated"), titleStyle.Render(prof.Key))
			return nil
		},
	}

	return cmd
}
