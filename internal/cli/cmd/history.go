package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/config"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/dirs"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show recent downloads from the history log",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			outDir := resolveString(cmd, "out-dir", config.KeyOutDir, "")
			if outDir == "" {
				d, err := dirs.DefaultOutputDir()
				if err != nil {
					return &ExitError{Code: ExitCLIError, Err: err}
				}
				outDir = d
			}

			log := history.Open(outDir)
			recs, err := log.Tail(limit)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintf(out, "No history at %s\n", log.Path())
				return nil
			}
			for _, r := range recs {
				when := r.Timestamp.Local().Format("2006-01-02 15:04")
				switch r.Status {
				case "ok":
					fmt.Fprintf(out, "%s  ok     %-5s  %s\n", when, r.Kind, filepath.Base(r.Output))
				default:
					fmt.Fprintf(out, "%s  error  %-5s  %s (%s)\n", when, r.Kind, r.URL, r.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum records to show (0 = all)")
	return cmd
}
