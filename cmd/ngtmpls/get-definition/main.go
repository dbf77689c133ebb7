package get_definition

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/config"
	"github.com/walteh/ngtmpls/pkg/definition"
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

type result struct {
	Selector string          `json:"selector"`
	Class    string          `json:"class"`
	URI      string          `json:"uri"`
	Range    *position.Range `json:"range"`
}

func NewGetDefinitionCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "get-definition [workspace-dir] [template-file] [line] [character]",
		Short: "find the component declaring the tag at a zero based position",
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

	out := &result{}
	if selector, ok := definition.SelectorAt(tree, offset); ok {
		out.Selector = selector
		if c, ok := index.Get(selector); ok {
			out.Class = c.ClassName
			out.URI = c.Location.URI()
			out.Range = &c.Location.Range
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return errors.Errorf("failed to encode definition: %w", err)
	}

	return nil
}
