package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"clipline/internal/adapter"
	"clipline/internal/preflight"
	cliperrors "clipline/pkg/errors"
)

// newPreflightCmd runs every preflight check the profile configures, for
// every bound role, and reports the results without gating anything.
func newPreflightCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Run the active profile's preflight checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			key := root.profileKey
			if key == "" {
				key = app.profiles.ActiveKey()
			}
			if key == "" {
				return fmt.Errorf("no profile selected; pass --profile or run `clipline profiles activate`")
			}

			var all []preflight.Result
			for _, role := range adapter.Roles() {
				results, err := app.runRolePreflights(cmd.Context(), key, role)
				if err != nil {
					return err
				}
				all = append(all, results...)
			}

			if root.jsonOut || !stdoutIsTTY() {
				return printJSON(cmd.OutOrStdout(), all)
			}

			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("profile configures no preflight checks"))
				return nil
			}

			rows := make([][]string, 0, len(all))
			for _, res := range all {
				verdict := statusBadge(res.OK)
				if res.Skipped {
					verdict = dimStyle.Render("SKIP")
				}
				requirement := "soft"
				if res.Required {
					requirement = "required"
				}
				rows = append(rows, []string{
					res.Role.String(), res.ID, verdict, requirement, res.Message,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Role", "Check", "Result", "Mode", "Message"}, rows))

			required, _ := preflight.Partition(all)
			if len(required) > 0 {
				return fmt.Errorf("required checks failed: %s", preflight.Summarize(required))
			}
			return nil
		},
	}

	return cmd
}

// runRolePreflights mirrors the service gate: resolve the binding,
// configure the active adapter, run the configured refs.
func (a *appContext) runRolePreflights(ctx context.Context, key string, role adapter.Role) ([]preflight.Result, error) {
	prof, err := a.profiles.Get(key)
	if err != nil {
		return nil, err
	}
	binding, ok := prof.Binding(role)
	if !ok || len(binding.Preflights) == 0 {
		return nil, nil
	}

	_, settings, err := a.profiles.Resolve(key, role, nil, a.hub)
	if err != nil {
		return nil, err
	}
	reg, ok := a.hub.ForRole(role)
	if !ok {
		return nil, nil
	}
	adp, err := reg.ActiveAdapter()
	if err != nil {
		return nil, err
	}
	if err := adp.Configure(settings, a.secrets); err != nil {
		return nil, cliperrors.NewAdapterError(role.String(), "configure", err)
	}

	return a.engine.Run(ctx, role, binding.Preflights, preflight.Request{
		Role:        role,
		Settings:    settings,
		AdapterName: reg.ActiveName(),
		Adapter:     adp,
	})
}
