package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"erdgen/internal/jpa"
	"erdgen/internal/mermaid"
)

// writeOut пишет в файл или в stdout команды, если out пустой или "-".
func writeOut(cmd *cobra.Command, out, text string) error {
	if out == "" || out == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	slog.Info("written", "file", out, "bytes", len(text))
	return nil
}

func NewRenderCmd(o *options) *cobra.Command {
	var (
		out   string
		label string
		only  []string
	)
	cmd := &cobra.Command{
		Use:   "render [paths...]",
		Short: "Render entities as a Mermaid erDiagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("label") {
				cfg.Label = label
			}
			l, ok := mermaid.ParseLabel(cfg.Label)
			if !ok {
				return fmt.Errorf("label %q (allowed: none|field|kind)", cfg.Label)
			}

			ld, err := loadPaths(cmd.Context(), cfg, args)
			if err != nil {
				return err
			}
			entities := jpa.Select(ld.entities, only...)
			slog.Debug("render", "units", len(ld.corpus), "entities", len(entities))
			return writeOut(cmd, out, mermaid.RenderWith(entities, mermaid.Options{Label: l}))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&label, "label", "none", "Relation labels: none|field|kind")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Render only these entities")
	return cmd
}
