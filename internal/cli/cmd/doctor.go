package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/config"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (yt-dlp/youtube-dl, ffmpeg)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			install, _ := cmd.Flags().GetBool("install")
			out := cmd.OutOrStdout()

			var managed string
			if install {
				fmt.Fprintln(out, "Installing managed yt-dlp and ffmpeg...")
				dl, err := deps.Install(cmd.Context())
				if err != nil {
					return &ExitError{Code: ExitMissingDep, Err: err}
				}
				managed = dl
			}

			dl, derr := deps.FindDownloader(resolveString(cmd, "dl-binary", config.KeyDLBinary, ""))
			if derr != nil {
				if managed == "" {
					return &ExitError{Code: ExitMissingDep, Err: derr}
				}
				dl = managed
			}
			ff, ferr := deps.FindFFmpeg()
			if ferr != nil {
				return &ExitError{Code: ExitMissingDep, Err: ferr}
			}
			fmt.Fprintf(out, "Downloader: %s\n", dl)
			fmt.Fprintf(out, "FFmpeg:     %s\n", ff)
			if config.TagAPIKey() == "" {
				fmt.Fprintln(out, "Tagging:    no API key set (YTPL_API_KEY); MP3s get fallback tags")
			} else {
				fmt.Fprintln(out, "Tagging:    API key configured")
			}
			return nil
		},
	}
	cmd.Flags().Bool("install", false, "Download managed copies of yt-dlp and ffmpeg")
	return cmd
}
