package main

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"danmood/internal/adapters/ingest/bili"
	"danmood/internal/platform/config"
	"danmood/internal/platform/logger"
	"danmood/internal/services/analyze/domain"
	"danmood/internal/ui/report"
)

type analyzeFlags struct {
	json      bool
	history   bool
	subtitles bool
	noPrior   bool
	sample    int
	words     int
	labels    []string
	disable   []string
	cookie    string
	cache     string
}

// apply surfaces explicitly set flags as env for the modules' FromConfig
func (f *analyzeFlags) apply(cmd *cobra.Command) {
	set := cmd.Flags().Changed
	if set("history") {
		mustSetEnv("DANMOOD_FETCH_HISTORY", boolEnv(f.history))
	}
	if set("subtitles") {
		mustSetEnv("DANMOOD_FUSION_SUBTITLES", boolEnv(f.subtitles))
	}
	if set("no-prior") {
		mustSetEnv("DANMOOD_FUSION_SUMMARY", boolEnv(!f.noPrior))
	}
	if set("sample") {
		mustSetEnv("DANMOOD_ANALYZE_SAMPLE", strconv.Itoa(f.sample))
	}
	if set("top") {
		mustSetEnv("DANMOOD_AGG_TOP_N", strconv.Itoa(f.words))
	}
	if set("labels") {
		mustSetEnv("DANMOOD_ANALYZE_LABELS", strings.Join(f.labels, ","))
	}
	if set("cookie") {
		mustSetEnv("DANMOOD_BILI_COOKIE", f.cookie)
	}
	if set("cache") {
		mustSetEnv("DANMOOD_CACHE_BACKEND", f.cache)
	}
}

func newAnalyzeCmd() *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze <BVID|URL>",
		Short: "Collect, classify and summarize the comments of one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bvid, err := bili.ParseBVID(args[0])
			if err != nil {
				return err
			}
			f.apply(cmd)

			ctx := cmd.Context()
			a, err := build(ctx, config.New())
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(ctx); err != nil {
					logger.Get().Error().Err(err).Msg("failed to close store")
				}
			}()

			enabled := make(map[string]bool, len(f.disable))
			for _, k := range f.disable {
				enabled[k] = false
			}
			rep, err := a.analyzer.Run(ctx, domain.Request{BVID: bvid, Enabled: enabled})
			if err != nil {
				return err
			}
			reqs, toks := a.embed.Limiter().Stats()
			logger.Named("danmood").Debug().Int("window_requests", reqs).Int("window_tokens", toks).Msg("rate window at exit")

			out := cmd.OutOrStdout()
			if f.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return report.Render(out, rep, report.Options{Words: f.words})
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&f.json, "json", false, "print the raw report as JSON")
	fl.BoolVar(&f.history, "history", false, "also collect history snapshots (needs a cookie)")
	fl.BoolVar(&f.subtitles, "subtitles", false, "blend subtitle context into comment embeddings")
	fl.BoolVar(&f.noPrior, "no-prior", false, "disable the AI summary prior")
	fl.IntVar(&f.sample, "sample", 4000, "comments to classify (100..5000)")
	fl.IntVar(&f.words, "top", 30, "keywords to keep (10..300)")
	fl.StringSliceVar(&f.labels, "labels", nil, "restrict the label pack to these keys")
	fl.StringSliceVar(&f.disable, "disable", nil, "turn these labels off for this run")
	fl.StringVar(&f.cookie, "cookie", "", "cookie header for the video platform")
	fl.StringVar(&f.cache, "cache", "memory", "label cache backend (memory|sqlite|redis|postgres)")
	return cmd
}
