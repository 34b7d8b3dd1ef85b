package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xiexikang/video-link-pipeline/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent acquisitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.History.DBPath == "" {
				return errors.New("history: no database configured (history.db_path)")
			}

			st, err := store.Open(cfg.History.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no acquisitions recorded")
				return nil
			}
			for _, r := range rows {
				status := "ok"
				if !r.Success {
					status = "failed"
				}
				title := r.Title
				if title == "" {
					title = "-"
				}
				fmt.Printf("%s  %-6s  %-40s  %s\n",
					r.CreatedAt.Format("2006-01-02 15:04"), status, title, r.URL)
				if r.Error != "" {
					fmt.Printf("  error: %s\n", r.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	return cmd
}
