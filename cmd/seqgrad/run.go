package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/RodgersLuo/DeepBind-code/internal/jobfile"
	"github.com/RodgersLuo/DeepBind-code/internal/runner"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

func newRunner() (*runner.Runner, func(), error) {
	b, release, err := openBackend(backendName, appConfig)
	if err != nil {
		return nil, nil, err
	}
	return runner.New(b, appConfig.ToleranceFor(tensor.Float32)), release, nil
}

// writeOutput encodes v to path, or to stdout when path is empty.
func writeOutput(path string, v any) error {
	if path == "" {
		return jobfile.Encode(os.Stdout, v)
	}
	return jobfile.Save(path, v)
}

func runCmd() *cli.Command {
	var jobPath, outPath string

	return &cli.Command{
		Name:  "run",
		Usage: "Compute the filter gradient of a job file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "job",
				Aliases:     []string{"j"},
				Usage:       "path to the job JSON",
				Required:    true,
				Destination: &jobPath,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "write the result JSON here instead of stdout",
				Destination: &outPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			job, err := jobfile.Load(jobPath)
			if err != nil {
				return err
			}
			r, release, err := newRunner()
			if err != nil {
				return err
			}
			defer release()

			res, err := r.Run(ctx, job)
			if err != nil {
				return err
			}
			return writeOutput(outPath, res)
		},
	}
}

func checkCmd() *cli.Command {
	var jobPath string

	return &cli.Command{
		Name:  "check",
		Usage: "Compare the backend against the per-sequence reference",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "job",
				Aliases:     []string{"j"},
				Usage:       "path to the job JSON",
				Required:    true,
				Destination: &jobPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			job, err := jobfile.Load(jobPath)
			if err != nil {
				return err
			}
			r, release, err := newRunner()
			if err != nil {
				return err
			}
			defer release()

			rep, checkErr := r.Check(ctx, job)
			if rep != nil {
				if err := writeOutput("", rep); err != nil {
					return err
				}
			}
			return checkErr
		},
	}
}
