// Package cli команды erdgen: render, ddl, lint, version.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"erdgen/internal/config"
	"erdgen/internal/logging"
)

// Version проставляется при сборке через -ldflags.
var Version = "v0.1.0"

// options общие флаги всех команд поверх config.Load.
type options struct {
	configPath      string
	typesDir        string
	exts            []string
	resolveEmbedded bool
	logLevel        string
}

// load: файл + ENV, затем только явно заданные флаги.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("types") {
		cfg.TypesDir = o.typesDir
	}
	if flags.Changed("ext") {
		cfg.Extensions = o.exts
	}
	if flags.Changed("resolve-embedded") {
		cfg.ResolveEmbedded = o.resolveEmbedded
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	slog.SetDefault(logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel))
	return cfg, nil
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(Version)
		},
	}
}

// NewRootCmd builds the top-level `erdgen` command.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "erdgen",
		Short:         "erdgen: ER diagrams from JPA entity sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "erdgen.yaml", "Config file (JSON or YAML)")
	pf.StringVar(&o.typesDir, "types", "", "Value type catalog directory")
	pf.StringSliceVar(&o.exts, "ext", nil, "Source extensions")
	pf.BoolVar(&o.resolveEmbedded, "resolve-embedded", true, "Expand @Embedded fields")
	pf.StringVar(&o.logLevel, "log-level", "", "debug|info|warn|error")

	root.AddCommand(NewRenderCmd(o))
	root.AddCommand(NewDDLCmd(o))
	root.AddCommand(NewLintCmd(o))
	root.AddCommand(NewVersionCmd())
	return root
}
