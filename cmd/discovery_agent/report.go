package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/observability"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

var reportFlags sharedFlags

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Show the synthesized profile for a completed session",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportFlags.register(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

// runReport only reads from the store, so it never builds a model client and
// needs no API key.
func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadMergedConfig(&reportFlags)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	session, err := st.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if session.Profile == nil {
		return fmt.Errorf("session %s has no profile yet (stage: %s, status: %s)",
			session.ID, session.CurrentStage, session.Status)
	}

	observability.NewPrinter(os.Stdout).PrintProfile(session.Profile)
	fmt.Println()
	fmt.Println(session.Profile.Rationale)
	printExpressions(session.Profile)
	return nil
}

func printExpressions(profile *types.Profile) {
	if len(profile.TopGifts) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Gift scores:")
	for _, gift := range profile.TopGifts {
		fmt.Printf("  %-16s %.2f (%s)\n", gift.Name, gift.Score, gift.Strength)
	}
}
