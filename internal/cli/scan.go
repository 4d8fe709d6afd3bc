package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/sentinel"
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("alerts", false, "Print only the critical alerts")
	scanCmd.Flags().Bool("json", false, "Print the raw scan result as JSON")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a full economy scan and print the health report",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.store.Close()

	result, err := svc.sentinel.RunFullScan(context.Background())
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	var reporter sentinel.Reporter
	alertsOnly, _ := cmd.Flags().GetBool("alerts")
	if alertsOnly {
		alerts := reporter.CriticalAlerts(result)
		if len(alerts) == 0 {
			fmt.Println("No critical alerts.")
			return nil
		}
		for _, a := range alerts {
			fmt.Println(a)
		}
		return nil
	}

	report := reporter.HealthReport(result)
	fmt.Printf("Status:        %s\n", report.OverallStatus)
	fmt.Printf("Users scanned: %d\n", result.UsersScanned)
	fmt.Printf("Risky users:   %d\n", report.RiskyUserCount)
	fmt.Printf("Total issues:  %d\n", report.TotalIssues)
	for _, p := range report.Patterns {
		fmt.Printf("  [%s] %s: %s\n", p.Type, p.SubjectID, p.Detail)
	}
	return nil
}
