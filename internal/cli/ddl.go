package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"erdgen/internal/pg"
	"erdgen/internal/reference"
)

func NewDDLCmd(o *options) *cobra.Command {
	var (
		out      string
		schema   string
		onDelete string
		apply    bool
		dbURL    string
	)
	cmd := &cobra.Command{
		Use:   "ddl [paths...]",
		Short: "Generate Postgres DDL for the entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			opts := pg.DDLOptions{Schema: schema}
			switch onDelete {
			case "", "restrict":
				opts.OnDelete = pg.OnDeleteRestrict
			case "set_null":
				opts.OnDelete = pg.OnDeleteSetNull
			default:
				return fmt.Errorf("on-delete %q (allowed: restrict|set_null)", onDelete)
			}

			ld, err := loadPaths(cmd.Context(), cfg, args)
			if err != nil {
				return err
			}
			opts.Types = reference.SQLTypes(ld.catalog)
			ddl, err := pg.GenerateDDL(ld.entities, opts)
			if err != nil {
				return err
			}
			if !apply {
				return writeOut(cmd, out, pg.Script(ddl))
			}

			// --apply: выполняем в базе вместо вывода
			if cmd.Flags().Changed("db") {
				cfg.DBURL = dbURL
			}
			if cfg.DBURL == "" {
				return fmt.Errorf("--apply needs --db or ERDGEN_DB_URL")
			}
			db, err := pg.Open(cmd.Context(), cfg.DBURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := pg.ApplyDDL(cmd.Context(), db, ddl); err != nil {
				return err
			}
			slog.Info("DDL applied", "entities", len(ld.entities), "parts", len(ddl))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&schema, "schema", "", "Postgres schema (default public)")
	cmd.Flags().StringVar(&onDelete, "on-delete", "restrict", "FK policy: restrict|set_null")
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply DDL to the database")
	cmd.Flags().StringVar(&dbURL, "db", "", "Postgres URL")
	return cmd
}
