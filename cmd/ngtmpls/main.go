package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	get_completions "github.com/walteh/ngtmpls/cmd/ngtmpls/get-completions"
	get_definition "github.com/walteh/ngtmpls/cmd/ngtmpls/get-definition"
	"github.com/walteh/ngtmpls/cmd/ngtmpls/scan"
	serve_lsp "github.com/walteh/ngtmpls/cmd/ngtmpls/serve-lsp"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:          "ngtmpls",
		Short:        "A language server for component templates",
		SilenceUsage: true,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)
	rootCmd.AddCommand(serve_lsp.NewServeLSPCommand(rootCmd.Version))
	rootCmd.AddCommand(get_completions.NewGetCompletionsCommand())
	rootCmd.AddCommand(get_definition.NewGetDefinitionCommand())
	rootCmd.AddCommand(scan.NewScanCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
