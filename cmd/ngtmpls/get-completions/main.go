package get_completions

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ngtmpls/pkg/completion"
	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/config"
	"github.com/walteh/ngtmpls/pkg/position"
	"github.com/walteh/ngtmpls/pkg/syntax"
)

type Handler struct {
	workspaceDir string
	filePath     string
	line         int
	character    int
	configFile   string
	flags        *pflag.FlagSet
}

func NewGetCompletionsCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "get-completions [workspace-dir] [template-file] [line] [character]",
		Short: "get completions for a zero based position in a template file",
	}

	cmd.Args = cobra.ExactArgs(4)
	cmd.Flags().StringVar(&me.configFile, "config", "", "config file")
	config.RegisterFlags(cmd.Flags())
	me.flags = cmd.Flags()

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.workspaceDir = args[0]
		me.filePath = args[1]
		var err error
		me.line, err = strconv.Atoi(args[2])
		if err != nil {
			return errors.Errorf("invalid line number: %w", err)
		}
		me.character, err = strconv.Atoi(args[3])
		if err != nil {
			return errors.Errorf("invalid character number: %w", err)
		}
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	ctx, cfg, closer, err := config.Setup(ctx, me.flags, me.configFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	fs := afero.NewOsFs()

	index, _, err := component.IndexWorkspace(ctx, fs, me.workspaceDir, cfg.ScanOptions())
	if err != nil {
		return errors.Errorf("indexing workspace: %w", err)
	}

	content, err := afero.ReadFile(fs, me.filePath)
	if err != nil {
		return errors.Errorf("failed to read template file: %w", err)
	}

	tree, err := syntax.HTML().Parse(ctx, content)
	if err != nil {
		return errors.Errorf("failed to parse template: %w", err)
	}
	defer tree.Close()

	offset, err := position.NewMapper(string(content)).Offset(position.Place{Line: me.line, Character: me.character})
	if err != nil {
		return errors.Errorf("invalid position: %w", err)
	}

	items := completion.Complete(tree, offset, index)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(items); err != nil {
		return errors.Errorf("failed to encode completions: %w", err)
	}

	return nil
}
