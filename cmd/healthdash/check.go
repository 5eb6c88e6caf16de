package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/healthdash/internal/checker"
	"github.com/hazz-dev/healthdash/internal/config"
)

type evaluator interface {
	EvaluateAll(ctx context.Context, services []config.Service) []checker.HealthResult
}

func executeCheck(cmd *cobra.Command, eval evaluator, services []config.Service) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return runChecks(ctx, cmd.OutOrStdout(), eval, services)
}

func runChecks(ctx context.Context, out io.Writer, eval evaluator, services []config.Service) error {
	if len(services) == 0 {
		fmt.Fprintln(out, "No services configured.")
		return nil
	}

	results := eval.EvaluateAll(ctx, services)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATUS\tCODE\tRESPONSE\tERROR")
	allHealthy := true
	for _, r := range results {
		code := "—"
		if r.HasStatusCode() {
			code = fmt.Sprint(r.StatusCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Name,
			r.Status,
			code,
			(time.Duration(r.ResponseMs) * time.Millisecond).String(),
			r.Error,
		)
		if !r.Healthy() {
			allHealthy = false
		}
	}
	w.Flush()

	if !allHealthy {
		return fmt.Errorf("one or more services are unhealthy")
	}
	return nil
}
