package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "drbrain",
		Short:         "Dr.Brain clinic dashboard backend",
		Long:          "drbrain serves the clinic dashboard: sessions, onboarding gate, chat relay, integration status and realtime notifications over the hosted backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}
