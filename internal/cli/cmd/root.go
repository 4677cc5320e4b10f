// Package cmd defines the ytpl command tree.
package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/config"
)

const (
	ExitOK             = 0
	ExitCLIError       = 1
	ExitMissingDep     = 2
	ExitDownloadError  = 3
	ExitTranscodeError = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ytpl [url]",
		Short:         "Download YouTube playlists and videos as MP4 or tagged MP3",
		Long:          "ytpl fetches YouTube playlists or single videos with yt-dlp, converts them with FFmpeg into MP4 video or 192 kbps MP3 audio, and tags MP3s with cleaned metadata and cover art. Playlists open an interactive picker; every finished download is recorded in a history log next to the output files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Same behavior as `ytpl run <url>`.
			return runExecute(cmd, args, runMode{ForceTUI: false})
		},
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().StringP("out-dir", "o", "", "Output directory (default ~/Downloads/ytpl)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show full subprocess commands/output")
	root.PersistentFlags().String("dl-binary", "", "Path to yt-dlp or youtube-dl")
	root.PersistentFlags().IntP("jobs", "j", 4, "Max concurrent downloads (1-8)")

	// Also bind run-specific flags on root, so `ytpl <url>` continues to work.
	bindRunFlags(root.Flags())

	// Subcommands
	root.AddCommand(newRunCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindRunFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", "best", "Output format: best, 1080p, 720p, 480p (MP4) or mp3")
	fs.String("items", "", "Playlist entries to download, e.g. \"1-3,7\" (default all)")
	fs.Bool("continue", false, "Resume partially downloaded files")
	fs.Bool("keep-temp", false, "Keep intermediate downloads")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
	fs.Bool("no-tag", false, "Skip the metadata tagging step")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	_ = config.Init(root)
	return root.ExecuteContext(ctx)
}

// Helpers: persistent values resolved through Viper (flag > env > config file).
func resolveString(cmd *cobra.Command, flagName, key, def string) string {
	if f := cmd.Root().PersistentFlags().Lookup(flagName); f != nil && f.Changed {
		return f.Value.String()
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}

func resolveBool(cmd *cobra.Command, flagName, key string) bool {
	if f := cmd.Root().PersistentFlags().Lookup(flagName); f != nil && f.Changed {
		return f.Value.String() == "true"
	}
	return viper.GetBool(key)
}

func resolveInt(cmd *cobra.Command, flagName, key string, def int) int {
	if f := cmd.Root().PersistentFlags().Lookup(flagName); f != nil && f.Changed {
		if v, err := cmd.Root().PersistentFlags().GetInt(flagName); err == nil {
			return v
		}
	}
	if v := viper.GetInt(key); v != 0 {
		return v
	}
	return def
}

func ensureDir(path string) error {
	if path == "" {
		path = "."
	}
	return os.MkdirAll(filepath.Clean(path), 0o755)
}
