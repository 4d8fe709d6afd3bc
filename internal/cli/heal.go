package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healCmd)
}

var healCmd = &cobra.Command{
	Use:   "heal USER_ID",
	Short: "Repair invariant violations on one user's state",
	Args:  cobra.ExactArgs(1),
	RunE:  runHeal,
}

func runHeal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.store.Close()

	userID := args[0]
	u, err := svc.store.GetUser(userID)
	if err != nil {
		return err
	}

	repaired, fixes := svc.healer.ApplyAll(*u)
	if len(fixes) == 0 {
		fmt.Printf("%s: nothing to repair\n", userID)
		return nil
	}
	if err := svc.store.UpdateUser(repaired); err != nil {
		return fmt.Errorf("persist repairs: %w", err)
	}
	for _, fix := range fixes {
		fmt.Printf("  %s: %s\n", fix.Fixer, fix.Detail)
	}
	fmt.Printf("%s: %d repair(s) applied\n", userID, len(fixes))
	return nil
}
