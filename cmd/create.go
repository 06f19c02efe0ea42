package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"lmxcli/internal/api"
	"lmxcli/internal/draft"
	"lmxcli/internal/events"
	"lmxcli/internal/models"
	"lmxcli/internal/service"
	"lmxcli/internal/tui"
	"lmxcli/internal/upload"

	"github.com/spf13/cobra"
)

var (
	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Interactively configure and submit a benchmark job",
		Long: `Open the interactive wizard to configure a benchmark job: target and
request shape, load profile and dataset, and response field mapping.
The draft can be dry-run against the target at any point, and is
submitted to the backend on the final step.`,
		RunE: runCreate,
	}

	fromJobFile string
)

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&fromJobFile, "from-job", "", "pre-populate the draft from an existing job JSON file (copy mode)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg := configMgr.GetConfig()

	client, err := api.NewClient(cfg.Server.BaseURL, cfg.Server.APIToken, configMgr.Timeout(), logger)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	bus := events.NewBus(0)
	defer bus.Close()

	// Drain all draft events into the debug log.
	all := bus.SubscribeAll()
	go func() {
		for ev := range all {
			logger.Debug().Str("type", string(ev.Type)).Str("field", ev.Field).Msg("draft event")
		}
	}()

	var ctrl *draft.Controller
	if fromJobFile != "" {
		job, err := loadJobFile(fromJobFile)
		if err != nil {
			return err
		}
		ctrl = draft.NewControllerFromJob(*job, bus)
	} else {
		ctrl = draft.NewController(bus)
		ctrl.SetDuration(cfg.Defaults.Duration)
		ctrl.SetConcurrentUsers(cfg.Defaults.ConcurrentUsers)
		ctrl.SetSpawnRate(cfg.Defaults.SpawnRate)
	}

	uploads := upload.NewAdapter(client, bus, logger)
	testSvc := service.NewTestService(client, uploads, logger)
	submitSvc := service.NewSubmitService(uploads, service.SubmitterFunc(
		func(ctx context.Context, req models.JobRequest) error {
			_, err := client.CreateJob(ctx, req)
			return err
		}), logger)

	submitted, err := tui.NewApp(ctrl, testSvc, submitSvc, uploads).Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}
	if submitted {
		fmt.Println("✅ Benchmark job submitted")
	} else {
		fmt.Println("Cancelled; draft discarded")
	}
	return nil
}

func loadJobFile(path string) (*models.JobRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	var job models.JobRequest
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}
	return &job, nil
}
