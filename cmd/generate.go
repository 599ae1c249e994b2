package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoodini/yuv-ai-trends/internal/digest"
	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/pipeline"
)

var (
	genRange  string
	genLimit  int
	genDays   int
	genNoAI   bool
	genOutput string
	genJSON   bool
)

// generateCmd runs the pipeline once and writes a Markdown digest.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetch, rank and store trending items, then write a Markdown digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		d, err := model.ParseDigestType(genRange)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		limit := genLimit
		if limit <= 0 {
			limit = cfg.Digest.Limit
		}
		rep, err := a.pipeline.Run(ctx, d, pipeline.Options{Limit: limit, Days: genDays, DisableAI: genNoAI})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if genJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		if len(rep.Items) == 0 {
			fmt.Fprintln(out, "no items fetched; nothing to write")
			return nil
		}
		dir := genOutput
		if dir == "" {
			dir = cfg.Digest.OutputDir
		}
		opts := digestOptions(cfg.Digest)
		opts.Limit = limit
		path, err := digest.WriteFile(dir, digest.FromReport(rep, opts, time.Now()))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s (%d items, %d new)\n", path, rep.Stats.Total, rep.Stats.New)
		for _, src := range rep.Grouped.Sources {
			fmt.Fprintf(out, "  %-20s %d\n", src.Label(), len(rep.Grouped.Items[src]))
		}
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genRange, "range", "r", string(model.DigestDaily), "digest range: daily, weekly or monthly")
	f.IntVarP(&genLimit, "limit", "l", 0, "max items (default digest.limit)")
	f.IntVar(&genDays, "days", 0, "override the range window in days")
	f.BoolVar(&genNoAI, "no-ai", false, "skip AI summaries")
	f.StringVarP(&genOutput, "output", "o", "", "output directory (default digest.output_dir)")
	f.BoolVar(&genJSON, "json", false, "print the run report as JSON instead of writing Markdown")
	rootCmd.AddCommand(generateCmd)
}
