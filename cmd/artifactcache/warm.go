package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/IvanBrykalov/artifactcache/artifact"
	"github.com/IvanBrykalov/artifactcache/artifactcache"
	"github.com/IvanBrykalov/artifactcache/cache"
	"github.com/IvanBrykalov/artifactcache/config"
	"github.com/IvanBrykalov/artifactcache/ranking"
)

func warmCommand() *cli.Command {
	return &cli.Command{
		Name:  "warm",
		Usage: "rank records and cache them with their pipeline rank as priority",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "JSON array of records, - for stdin"},
			&cli.StringFlag{Name: "snapshot", Usage: "write a snapshot here when done (default cache.snapshot_path)"},
			&cli.BoolFlag{Name: "restore", Usage: "load the snapshot before warming, if it exists"},
			&cli.BoolFlag{Name: "entries", Usage: "list resident entries after warming"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			snap := cmd.String("snapshot")
			if snap == "" {
				snap = e.cfg.Cache.SnapshotPath
			}
			return runWarm(ctx, e, cmd.String("input"), snap, cmd.Bool("restore"), cmd.Bool("entries"))
		},
	}
}

func runWarm(_ context.Context, e *env, input, snapshot string, restore, listEntries bool) error {
	if err := requireInput(input); err != nil {
		return err
	}
	if restore && snapshot == "" {
		return fmt.Errorf("%w: --restore needs --snapshot or cache.snapshot_path", errUsage)
	}
	recs, err := readRecords(input, e.in)
	if err != nil {
		return err
	}

	engine, err := ranking.New(config.RankingOptions(e.cfg.Ranking, e.log)...)
	if err != nil {
		return err
	}
	ac, err := artifactcache.New(config.CacheOptions[artifact.Record](e.cfg.Cache, e.log))
	if err != nil {
		return err
	}
	defer ac.Close()

	if restore {
		switch err := ac.Cache().LoadSnapshot(snapshot); {
		case errors.Is(err, cache.ErrSnapshotNotFound):
			e.log.Info("no snapshot to restore", "path", snapshot)
		case err != nil:
			return err
		default:
			e.log.Info("snapshot restored", "path", snapshot, "entries", ac.Cache().Len())
		}
	}

	ranked := engine.RankAll(ranking.Wrap(recs))
	var rejected int
	for _, r := range ranked {
		if !ac.CacheArtifactWithPriority(r.Record, int(math.Round(r.Pipeline))) {
			rejected++
			e.log.Warn("artifact too large to cache", "path", r.Path)
		}
	}

	st := ac.Cache().Stats()
	e.log.Info("cache warmed", "records", len(recs), "rejected", rejected,
		"entries", st.Entries, "evictions", st.Evictions)

	if snapshot != "" {
		if err := ac.Cache().SaveSnapshot(snapshot); err != nil {
			return err
		}
		e.log.Info("snapshot written", "path", snapshot)
	}

	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return err
	}
	if !listEntries {
		return nil
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tPRIORITY\tSIZE\tHITS\tPROTECTED")
	for _, ei := range ac.Cache().Entries() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", ei.Key, ei.Priority, ei.Size, ei.AccessCount, protection(ei))
	}
	return tw.Flush()
}

func protection(ei cache.EntryInfo) string {
	switch {
	case ei.HighPriority && ei.Frequent:
		return "high,frequent"
	case ei.HighPriority:
		return "high"
	case ei.Frequent:
		return "frequent"
	}
	return "-"
}
