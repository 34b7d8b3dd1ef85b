package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/xiexikang/video-link-pipeline/internal/acquire"
	"github.com/xiexikang/video-link-pipeline/internal/browser"
	"github.com/xiexikang/video-link-pipeline/internal/normalize"
	"github.com/xiexikang/video-link-pipeline/internal/store"
	"github.com/xiexikang/video-link-pipeline/internal/ytdlp"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir          string
		languages          []string
		quality            string
		cookieFile         string
		cookiesFromBrowser string
		audioOnly          bool
		jsonOut            bool
	)

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a video with automatic anti-bot escalation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()

			req := acquire.Request{
				URL:                args[0],
				OutputDir:          cfg.Download.OutputDir,
				Languages:          cfg.Download.Languages,
				Quality:            cfg.Download.Quality,
				CookieFile:         cfg.Download.CookieFile,
				CookiesFromBrowser: cfg.Download.CookiesFromBrowser,
				AudioOnly:          cfg.Download.AudioOnly,
			}
			if outputDir != "" {
				req.OutputDir = outputDir
			}
			if len(languages) > 0 {
				req.Languages = languages
			}
			if quality != "" {
				req.Quality = quality
			}
			if cookieFile != "" {
				req.CookieFile = cookieFile
			}
			if cookiesFromBrowser != "" {
				req.CookiesFromBrowser = cookiesFromBrowser
			}
			if cmd.Flags().Changed("audio-only") {
				req.AudioOnly = audioOnly
			}

			pipe := &acquire.Pipeline{
				Extractor: &ytdlp.Runner{
					Binary:         cfg.Tools.YtdlpPath,
					FFmpegLocation: ytdlp.ResolveFFmpeg(cfg.Tools.FFmpegPath),
					Logger:         logger,
				},
				Normalizer: &normalize.Normalizer{FS: afero.NewOsFs(), Logger: logger},
				OpenSession: func(ctx context.Context, bcfg browser.Config) (acquire.Session, error) {
					return browser.Open(ctx, bcfg)
				},
				Browser: browser.Config{
					SettleInterval: cfg.Browser.SettleInterval,
					NavTimeout:     cfg.Browser.NavTimeout,
					LaunchTimeout:  cfg.Browser.LaunchTimeout,
					Logger:         logger,
				},
				Logger: logger,
			}

			if cfg.History.DBPath != "" {
				st, err := store.Open(cfg.History.DBPath)
				if err != nil {
					return err
				}
				defer st.Close()
				pipe.History = st
			}

			res := pipe.Run(cmd.Context(), req)

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printResult(res)
			}

			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (default from config)")
	cmd.Flags().StringSliceVarP(&languages, "lang", "l", nil, "Preferred subtitle languages, in order")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", `Max video height, or "best"`)
	cmd.Flags().StringVar(&cookieFile, "cookie-file", "", "Netscape-format cookie file")
	cmd.Flags().StringVar(&cookiesFromBrowser, "cookies-from-browser", "", "Browser profile to read cookies from")
	cmd.Flags().BoolVar(&audioOnly, "audio-only", false, "Download audio only")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON on stdout")

	return cmd
}

func printResult(res acquire.Result) {
	if !res.Success {
		fmt.Printf("failed: %s\n", res.Error)
		return
	}
	fmt.Printf("title: %s\n", res.Title)
	fmt.Printf("folder: %s\n", res.Folder)
	if res.Video != "" {
		fmt.Printf("video: %s\n", res.Video)
	}
	if res.Audio != "" {
		fmt.Printf("audio: %s\n", res.Audio)
	}
	if res.Subtitle != "" {
		fmt.Printf("subtitle: %s\n", res.Subtitle)
	}
	if res.NeedsTranscription {
		fmt.Println("no subtitles found; transcription needed")
	}
}
