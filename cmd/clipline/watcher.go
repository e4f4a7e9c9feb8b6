package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatcherCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watcher",
		Short: "Watch the replay render folder for finished clips",
	}

	cmd.AddCommand(newWatcherStartCmd(root))
	cmd.AddCommand(newWatcherStopCmd(root))

	return cmd
}

// newWatcherStartCmd runs the watcher in the foreground. Detected renders
// publish events that downstream observers react to; Ctrl-C or
// `watcher stop` from another terminal ends it.
func newWatcherStartCmd(root *rootFlags) *cobra.Command {
	var overrides []string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the replay watcher until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}
			settings, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.watcher.Start(ctx, root.profileKey, settings); err != nil {
				return err
			}

			pidPath := watcherPidPath(app)
			if err := writePidFile(pidPath); err != nil {
				return err
			}
			defer os.Remove(pidPath)

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("watching")+" for replay renders (Ctrl-C to stop)")

			<-ctx.Done()
			if err := app.watcher.Stop(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("watcher stopped"))
			return nil
		},
	}

	addOverrideFlag(cmd, &overrides)
	return cmd
}

func newWatcherStopCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Signal a running watcher to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			pid, err := readPidFile(watcherPidPath(app))
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("watcher is not running")
				}
				return err
			}

			proc, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("locate watcher process %d: %w", pid, err)
			}
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("signal watcher process %d: %w", pid, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stopping watcher (pid %d)\n", pid)
			return nil
		},
	}

	return cmd
}

func watcherPidPath(app *appContext) string {
	return filepath.Join(app.cfg.Paths.StateDir, "watcher.pid")
}

func writePidFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %q", path)
	}
	return pid, nil
}
