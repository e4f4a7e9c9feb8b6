package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	profileKey string
	verbose    bool
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "clipline",
		Short:         "Clipline conducts gameplay clips from capture to upload",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to clipline.yaml")
	cmd.PersistentFlags().StringVarP(&flags.profileKey, "profile", "p", "", "Profile key to activate for this invocation")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.jsonOut, "json", false, "Emit JSON instead of tables")

	cmd.AddCommand(newCaptureCmd(flags))
	cmd.AddCommand(newWatcherCmd(flags))
	cmd.AddCommand(newMuxCmd(flags))
	cmd.AddCommand(newColorCmd(flags))
	cmd.AddCommand(newUploadCmd(flags))
	cmd.AddCommand(newNotifyCmd(flags))
	cmd.AddCommand(newCaptionCmd(flags))
	cmd.AddCommand(newProfilesCmd(flags))
	cmd.AddCommand(newAdaptersCmd(flags))
	cmd.AddCommand(newPreflightCmd(flags))
	cmd.AddCommand(newManifestCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
