package cmd

import (
	"context"
	"fmt"
	"os"

	"lmxcli/internal/api"
	"lmxcli/internal/draft"
	"lmxcli/internal/models"
	"lmxcli/internal/service"
	"lmxcli/internal/upload"

	"github.com/spf13/cobra"
)

var (
	testCmd = &cobra.Command{
		Use:   "test",
		Short: "Dry-run a job configuration against the target endpoint",
		Long: `Build a reduced synthetic job from the given target configuration and
dry-run it through the backend: a 10 second single-user probe with no
dataset. The raw target response is printed, chunk by chunk for
streaming targets.`,
		RunE: runTest,
	}

	testName        string
	testHost        string
	testPath        string
	testModel       string
	testStream      bool
	testPayload     string
	testPayloadFile string
	testCertFile    string
	testKeyFile     string
)

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVar(&testName, "name", "endpoint-test", "job name")
	testCmd.Flags().StringVar(&testHost, "host", "", "target host, e.g. https://api.example.com")
	testCmd.Flags().StringVar(&testPath, "path", "/v1/chat/completions", "target API path")
	testCmd.Flags().StringVar(&testModel, "model", "", "model name")
	testCmd.Flags().BoolVar(&testStream, "stream", true, "request streaming responses")
	testCmd.Flags().StringVar(&testPayload, "payload", "", "JSON request payload template")
	testCmd.Flags().StringVar(&testPayloadFile, "payload-file", "", "read the payload template from a file")
	testCmd.Flags().StringVar(&testCertFile, "cert", "", "client certificate file")
	testCmd.Flags().StringVar(&testKeyFile, "key", "", "client certificate key file")
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg := configMgr.GetConfig()

	client, err := api.NewClient(cfg.Server.BaseURL, cfg.Server.APIToken, configMgr.Timeout(), logger)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	payload := testPayload
	if testPayloadFile != "" {
		data, err := os.ReadFile(testPayloadFile)
		if err != nil {
			return fmt.Errorf("failed to read payload file: %w", err)
		}
		payload = string(data)
	}

	ctrl := draft.NewController(nil)
	ctrl.SetName(testName)
	ctrl.SetHost(testHost)
	ctrl.SetAPIPath(testPath)
	ctrl.SetModel(testModel)
	if testStream {
		ctrl.SetStreamMode(models.StreamModeStream)
	} else {
		ctrl.SetStreamMode(models.StreamModeNonStream)
	}
	ctrl.SetPayload(payload)

	uploads := upload.NewAdapter(client, nil, logger)
	if testCertFile != "" {
		if err := uploads.StageCertificate(ctrl.Draft(), testCertFile); err != nil {
			return err
		}
	}
	if testKeyFile != "" {
		if err := uploads.StageKey(ctrl.Draft(), testKeyFile); err != nil {
			return err
		}
	}

	testSvc := service.NewTestService(client, uploads, logger)
	outcome, err := testSvc.Run(context.Background(), ctrl)
	if err != nil {
		return err
	}

	printOutcome(outcome)
	if !outcome.Succeeded {
		return fmt.Errorf("endpoint test failed")
	}
	return nil
}

func printOutcome(out *service.TestOutcome) {
	if out.Succeeded {
		fmt.Printf("✅ Test passed (status %d)\n", out.StatusCode)
	} else {
		fmt.Printf("❌ Test failed: %s\n", out.Message)
	}

	if out.IsStream && len(out.Chunks) > 0 {
		fmt.Println("\nStreaming response:")
		for i, chunk := range out.Chunks {
			fmt.Printf("%d. %s\n", i+1, chunk)
		}
	} else if out.Body != "" {
		fmt.Println("\nResponse:")
		fmt.Println(out.Body)
	}
}
