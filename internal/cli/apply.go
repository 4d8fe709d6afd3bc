package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().String("source", "manual", "Source tag recorded with the mutation")
	applyCmd.Flags().String("key", "", "Idempotency key (optional; same key never applies twice)")
}

var applyCmd = &cobra.Command{
	Use:   "apply USER_ID KIND DELTA",
	Short: "Apply one balance mutation through the ledger core",
	Long: `Apply a signed balance mutation. KIND is COIN or XP; DELTA may be
negative. Deductions clamp at zero — a balance never goes negative.`,
	Args: cobra.ExactArgs(3),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
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
	kind := domain.ValueKind(strings.ToUpper(args[1]))
	delta, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid delta %q: %w", args[2], err)
	}
	source, _ := cmd.Flags().GetString("source")
	key, _ := cmd.Flags().GetString("key")

	res, err := svc.ledger.ApplyWithKey(userID, kind, delta, source, key)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s: %d → %d (signature %s)\n", userID, kind, res.Previous, res.New, res.Signature)
	return nil
}
