package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"erdgen/internal/jpa"
)

// ErrIssues: линтер нашёл проблемы; main выходит с кодом 1.
var ErrIssues = errors.New("model has issues")

func NewLintCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Check entities for duplicates, unknown targets and mismatched relations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			ld, err := loadPaths(cmd.Context(), cfg, args)
			if err != nil {
				return err
			}
			issues := jpa.Lint(ld.entities)
			for _, it := range issues {
				where := it.Entity
				if it.Field != "" {
					where += "." + it.Field
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", where, it.Code, it.Message)
			}
			if len(issues) > 0 {
				return fmt.Errorf("%w: %d", ErrIssues, len(issues))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d entities\n", len(ld.entities))
			return nil
		},
	}
}
