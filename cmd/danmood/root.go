package main

import (
	"os"

	"github.com/spf13/cobra"

	"danmood/internal/platform/logger"
)

// mustSetEnv surfaces a flag to modules that read FromConfig
func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func boolEnv(b bool) string { return map[bool]string{true: "1", false: "0"}[b] }

func newRootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)
	root := &cobra.Command{
		Use:           "danmood",
		Short:         "Emotion analysis of Bilibili live comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("log-level") {
				mustSetEnv("LOG_LEVEL", logLevel)
			}
			if cmd.Flags().Changed("log-format") {
				mustSetEnv("LOG_FORMAT", logFormat)
			}
			opts := logger.FromEnv()
			opts.Writer = cmd.ErrOrStderr()
			logger.Init(opts)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console|json)")
	root.AddCommand(newAnalyzeCmd(), newDecodeCmd(), newLabelsCmd(), newVersionCmd())
	return root
}
