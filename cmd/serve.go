package cmd

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hoodini/yuv-ai-trends/internal/config"
	"github.com/hoodini/yuv-ai-trends/internal/digest"
	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/server"
	"github.com/hoodini/yuv-ai-trends/worker"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve feeds over HTTP and run scheduled refreshes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if !strings.EqualFold(cfg.App.LogLevel, "debug") {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(a.pipeline, a.feeds, server.WithAdminToken(cfg.Server.AdminToken))

		ws := []worker.Worker{&worker.HTTPServer{
			Addr:            cfg.Server.Addr,
			Handler:         srv.Engine(),
			ShutdownTimeout: config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second),
		}}
		if cfg.Schedule.Enabled {
			r := &worker.Refresher{
				Pipeline: a.pipeline,
				Specs: map[model.DigestType]string{
					model.DigestDaily:   cfg.Schedule.Daily,
					model.DigestWeekly:  cfg.Schedule.Weekly,
					model.DigestMonthly: cfg.Schedule.Monthly,
				},
				EvictSpec:  cfg.Schedule.Evict,
				MaxAgeDays: cfg.Store.MaxAgeDays,
				WarmUp:     true,
			}
			if cfg.Digest.Scheduled {
				r.DigestDir = cfg.Digest.OutputDir
				r.DigestOptions = digestOptions(cfg.Digest)
			}
			ws = append(ws, r)
		}

		slog.Info("serving", "addr", cfg.Server.Addr, "store", a.store.Stats().StorePath, "schedule", cfg.Schedule.Enabled)
		return worker.NewManager(ws...).Start(ctx)
	},
}

func digestOptions(c config.DigestConfig) digest.Options {
	return digest.Options{Title: c.Title, Preface: c.Preface, Postscript: c.Postscript, Limit: c.Limit}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
