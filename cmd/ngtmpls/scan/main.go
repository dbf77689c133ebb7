package scan

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/config"
)

type Handler struct {
	configFile string
	flags      *pflag.FlagSet
}

func NewScanCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "scan [workspace-dir]",
		Short: "list the components found in a workspace",
	}

	cmd.Args = cobra.MaximumNArgs(1)
	cmd.Flags().StringVar(&me.configFile, "config", "", "config file")
	config.RegisterFlags(cmd.Flags())
	me.flags = cmd.Flags()

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		return me.Run(cmd.Context(), root, cmd.OutOrStdout())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, root string, out io.Writer) error {
	ctx, cfg, closer, err := config.Setup(ctx, me.flags, me.configFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	index, res, err := component.IndexWorkspace(ctx, afero.NewOsFs(), root, cfg.ScanOptions())
	if err != nil {
		return errors.Errorf("indexing workspace: %w", err)
	}

	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	if f, ok := out.(*os.File); !ok || f != os.Stdout {
		bold.DisableColor()
		faint.DisableColor()
	}

	for _, c := range index.All() {
		fmt.Fprintf(out, "%s %s %s\n", bold.Sprint(c.Selector), c.ClassName, faint.Sprint(c.Location))
		if len(c.Inputs) > 0 {
			fmt.Fprintf(out, "  inputs:  %s\n", strings.Join(c.Inputs, ", "))
		}
		if len(c.Outputs) > 0 {
			fmt.Fprintf(out, "  outputs: %s\n", strings.Join(c.Outputs, ", "))
		}
	}

	fmt.Fprintf(out, "%d components in %d files (%s)\n", res.Components, res.Files, res.Pattern)
	for _, ferr := range multierr.Errors(res.Err) {
		fmt.Fprintf(out, "skipped: %v\n", ferr)
	}

	return nil
}
