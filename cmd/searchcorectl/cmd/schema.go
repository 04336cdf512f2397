package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astraidlabs/veriado-searchcore/pkg/searchcore"
)

func newSchemaCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "schema",
		Short: "Inspect or repair the FTS schema",
	}
	root.AddCommand(newSchemaInspectCmd())
	root.AddCommand(newSchemaRepairCmd())
	return root
}

func newSchemaInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Report the schema's current health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaInspect(cmd.Context())
		},
	}
}

func newSchemaRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Force a full schema reset and recreate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaRepair(cmd.Context())
		},
	}
}

func runSchemaInspect(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	core, err := searchcore.Open(ctx, searchcore.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to open search core: %w", err)
	}
	defer core.Close()

	report, err := core.HealthCheck(ctx)
	if err != nil {
		return err
	}

	if wantsJSON(os.Stdout) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("status: %s\n", report.Status)
	if len(report.MissingFTSColumns) > 0 {
		fmt.Printf("missing fts columns: %v\n", report.MissingFTSColumns)
	}
	if len(report.MissingDocumentColumns) > 0 {
		fmt.Printf("missing document columns: %v\n", report.MissingDocumentColumns)
	}
	if len(report.MissingTriggers) > 0 {
		fmt.Printf("missing triggers: %v\n", report.MissingTriggers)
	}
	return nil
}

func runSchemaRepair(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	core, err := searchcore.Open(ctx, searchcore.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to open search core: %w", err)
	}
	defer core.Close()

	if err := core.ApplyFullReset(ctx, nil); err != nil {
		return err
	}
	fmt.Println("schema repaired")
	return nil
}
