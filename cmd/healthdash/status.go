package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hazz-dev/healthdash/internal/state"
)

type stateFetcher interface {
	FetchState(ctx context.Context) (state.State, error)
}

// stateClient reads /api/state from a running healthdash.
type stateClient struct {
	baseURL string
	client  *http.Client
}

func newStateClient(baseURL string) *stateClient {
	return &stateClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *stateClient) FetchState(ctx context.Context) (state.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/state", nil)
	if err != nil {
		return state.State{}, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return state.State{}, err
	}
	defer resp.Body.Close()

	var body struct {
		Data  state.State `json:"data"`
		Error string      `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return state.State{}, fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return state.State{}, fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return body.Data, nil
}

func executeStatus(cmd *cobra.Command, fetcher stateFetcher) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	snap, err := fetcher.FetchState(ctx)
	if err != nil {
		return fmt.Errorf("querying status: %w", err)
	}

	fmt.Fprintf(out, "Phase: %s\n", snap.Phase)
	if snap.Phase == state.PhaseFailed {
		fmt.Fprintf(out, "Error: %s\n", snap.Error)
		return nil
	}
	if len(snap.Results) == 0 {
		fmt.Fprintln(out, "No check results yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATUS\tCODE\tLAST CHECKED\tERROR")
	for _, r := range snap.Results {
		code := "—"
		if r.HasStatusCode() {
			code = fmt.Sprint(r.StatusCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Name,
			r.Status,
			code,
			humanize.Time(r.LastChecked),
			r.Error,
		)
	}
	w.Flush()
	return nil
}
