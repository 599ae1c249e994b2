package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoodini/yuv-ai-trends/internal/feed"
	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/store"
)

var (
	feedFormat  string
	feedLimit   int
	feedRefresh bool
	feedForce   bool
)

var feedCmd = &cobra.Command{
	Use:   "feed <daily|weekly|monthly>",
	Short: "Print the RSS or JSON feed for a digest from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := model.ParseDigestType(args[0])
		if err != nil {
			return err
		}
		if feedFormat != "rss" && feedFormat != "json" {
			return fmt.Errorf("unknown format %q (want rss or json)", feedFormat)
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		if feedRefresh || feedForce {
			if _, err := a.pipeline.EnsureFresh(ctx, d, feedForce); err != nil {
				return err
			}
		}
		limit := feedLimit
		if limit <= 0 || limit > feed.MaxItems {
			limit = feed.MaxItems
		}
		items := a.store.Get(store.Query{DigestType: d, Limit: limit})

		out := cmd.OutOrStdout()
		if feedFormat == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(a.feeds.JSON(items, d))
		}
		b, err := a.feeds.RSS(items, d)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	},
}

func init() {
	f := feedCmd.Flags()
	f.StringVarP(&feedFormat, "format", "f", "rss", "output format: rss or json")
	f.IntVarP(&feedLimit, "limit", "l", feed.MaxItems, "max items")
	f.BoolVar(&feedRefresh, "refresh", false, "refresh the digest first when it is stale")
	f.BoolVar(&feedForce, "force", false, "always refresh the digest first")
	rootCmd.AddCommand(feedCmd)
}
