package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/urfave/cli/v3"

	"github.com/RodgersLuo/DeepBind-code/internal/jobfile"
)

func benchCmd() *cli.Command {
	var (
		jobPath      string
		nsample      int64
		nsegment     int64
		nfilter      int64
		filterSize   int64
		nchannel     int64
		repeat       int64
		seed         int64
		sentinelRate float64
		asJSON       bool
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time the dense and correction kernels on a random or given job",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "job",
				Usage:       "benchmark this job file instead of a random one",
				Destination: &jobPath,
			},
			&cli.Int64Flag{Name: "nsample", Value: 100_000, Usage: "packed samples", Destination: &nsample},
			&cli.Int64Flag{Name: "segments", Value: 1000, Usage: "packed sequences", Destination: &nsegment},
			&cli.Int64Flag{Name: "nfilter", Value: 16, Usage: "filters", Destination: &nfilter},
			&cli.Int64Flag{Name: "filter-size", Value: 24, Usage: "filter length", Destination: &filterSize},
			&cli.Int64Flag{Name: "nchannel", Value: 4, Usage: "alphabet size", Destination: &nchannel},
			&cli.Int64Flag{Name: "repeat", Value: 5, Usage: "timed repetitions", Destination: &repeat},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed", Destination: &seed},
			&cli.Float64Flag{Name: "sentinel-rate", Value: 0.01, Usage: "fraction of sentinel samples", Destination: &sentinelRate},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var job *jobfile.Job
			if jobPath != "" {
				var err error
				if job, err = jobfile.Load(jobPath); err != nil {
					return err
				}
			} else {
				shape, err := jobfile.UniformShape(int(nsample), int(nsegment), int(nfilter), int(filterSize), int(nchannel))
				if err != nil {
					return err
				}
				shape.SentinelRate = sentinelRate
				if err := shape.Validate(); err != nil {
					return err
				}
				job = jobfile.Random(rand.New(rand.NewSource(seed)), shape)
			}

			r, release, err := newRunner()
			if err != nil {
				return err
			}
			defer release()

			rep, err := r.Bench(ctx, job, int(repeat))
			if err != nil {
				return err
			}
			if asJSON {
				return writeOutput("", rep)
			}
			fmt.Println(rep.String())
			return nil
		},
	}
}
