package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/IvanBrykalov/artifactcache/config"
	"github.com/IvanBrykalov/artifactcache/ranking"
)

func rankCommand() *cli.Command {
	return &cli.Command{
		Name:  "rank",
		Usage: "rank a batch of artifact records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "JSON array of records, - for stdin"},
			&cli.StringFlag{Name: "dimension", Aliases: []string{"d"}, Value: "total", Usage: "total, group, self or pipeline"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 10, Usage: "rows to print, 0 for all"},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			return runRank(ctx, e, cmd.String("input"), cmd.String("dimension"), cmd.Int("limit"), cmd.Bool("json"))
		},
	}
}

func runRank(_ context.Context, e *env, input, dimension string, limit int, asJSON bool) error {
	if err := requireInput(input); err != nil {
		return err
	}
	dim, err := ranking.ParseDimension(dimension)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	recs, err := readRecords(input, e.in)
	if err != nil {
		return err
	}

	engine, err := ranking.New(config.RankingOptions(e.cfg.Ranking, e.log)...)
	if err != nil {
		return err
	}
	top := ranking.Top(engine.RankAll(ranking.Wrap(recs)), dim, limit)
	e.log.Info("ranked records", "records", len(recs), "dimension", dim.String(), "shown", len(top))

	if asJSON {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(top)
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tTYPE\tROLE\tPATH")
	for i, r := range top {
		fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\t%s\n", i+1, r.Score(dim), r.Type, r.PipelineRole, r.Path)
	}
	return tw.Flush()
}
