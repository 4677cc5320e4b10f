package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/config"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/pipeline"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util/deps"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fetch <url>",
		Short:         "List playlist entries without downloading",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			dlBinary := resolveString(cmd, "dl-binary", config.KeyDLBinary, "")
			verbose := resolveBool(cmd, "verbose", config.KeyVerbose)

			downloaderPath, derr := deps.FindDownloader(dlBinary)
			if derr != nil {
				return &ExitError{Code: ExitMissingDep, Err: derr}
			}

			svc := pipeline.NewService(
				pipeline.WithDownloaderPath(downloaderPath),
				pipeline.WithOptions(model.Options{Verbose: verbose}),
			)
			info, err := svc.ResolveInfo(cmd.Context(), args[0])
			if err != nil {
				return &ExitError{Code: ExitDownloadError, Err: err}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			if info.IsPlaylist {
				fmt.Fprintf(out, "Playlist: %s (%d entries)\n", info.Title, len(info.Entries))
			}
			for _, e := range info.Entries {
				dur := ""
				if e.Duration > 0 {
					dur = "  [" + util.FormatDuration(e.Duration) + "]"
				}
				fmt.Fprintf(out, "%3d. %s%s\n     %s\n", e.Index, e.Title, dur, e.URL)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print raw playlist metadata as JSON")
	return cmd
}
