package cmd

import (
	"context"
	"fmt"
	"strings"

	"lmxcli/internal/charts"
	"lmxcli/internal/service"

	"github.com/spf13/cobra"
)

var (
	probeCmd = &cobra.Command{
		Use:   "probe",
		Short: "Preflight the target endpoint directly",
		Long: `Send a few sequential requests straight to the target OpenAI-compatible
endpoint, bypassing the backend, to verify reachability and get a feel
for latency before configuring a job. This is a connectivity check, not
a load test.`,
		RunE: runProbe,
	}

	probeBaseURL   string
	probeAPIKey    string
	probeModel     string
	probeCount     int
	probeStreaming bool
	probeCharts    bool
)

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringVar(&probeBaseURL, "base-url", "", "target base URL, e.g. https://api.example.com/v1")
	probeCmd.Flags().StringVar(&probeAPIKey, "api-key", "", "API key for the target endpoint")
	probeCmd.Flags().StringVar(&probeModel, "model", "", "model name")
	probeCmd.Flags().IntVarP(&probeCount, "count", "n", 3, "number of sequential probe requests")
	probeCmd.Flags().BoolVarP(&probeStreaming, "streaming", "s", false, "use streaming requests and measure time to first token")
	probeCmd.Flags().BoolVar(&probeCharts, "charts", true, "render latency charts")
}

func runProbe(cmd *cobra.Command, args []string) error {
	if probeModel == "" {
		return fmt.Errorf("--model is required")
	}

	svc := service.NewProbeService(probeBaseURL, probeAPIKey, probeModel, configMgr.Timeout())

	fmt.Printf("Probing %s (%s), %d request(s)...\n\n", probeModel, probeBaseURL, probeCount)

	results, err := svc.ProbeSeries(context.Background(), probeCount, probeStreaming)
	if err != nil {
		return fmt.Errorf("probe aborted: %w", err)
	}

	failures := 0
	for _, res := range results {
		if res.Success {
			line := fmt.Sprintf("✅ #%d  %v", res.Attempt, res.Latency)
			if res.TimeToFirstToken > 0 {
				line += fmt.Sprintf("  (first token %v)", res.TimeToFirstToken)
			}
			if res.Tokens > 0 {
				line += fmt.Sprintf("  %d tokens", res.Tokens)
			}
			fmt.Println(line)
		} else {
			failures++
			fmt.Printf("❌ #%d  %s\n", res.Attempt, res.Error)
		}
	}

	if probeCharts {
		fmt.Println("\n" + strings.Repeat("=", 60))
		cg := charts.NewChartGenerator(60, 10)
		fmt.Println(cg.GenerateAllCharts(results, probeStreaming))
	}

	if failures == len(results) {
		return fmt.Errorf("all %d probe(s) failed", failures)
	}
	if failures > 0 {
		fmt.Printf("\n⚠️  %d/%d probe(s) failed\n", failures, len(results))
	} else {
		fmt.Println("\n🎉 Target endpoint is reachable")
	}
	return nil
}
