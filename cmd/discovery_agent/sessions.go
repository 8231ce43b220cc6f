package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/stages"
)

var sessionsFlags sharedFlags

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored discovery sessions",
	RunE:  runSessions,
}

func init() {
	sessionsFlags.register(sessionsCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// runSessions only reads from the store, so it never builds a model client
// and needs no API key.
func runSessions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadMergedConfig(&sessionsFlags)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	flow := stages.Default()
	fmt.Printf("%-38s %-22s %-10s %6s %9s\n", "ID", "STAGE", "STATUS", "TURNS", "PROGRESS")
	for _, session := range sessions {
		fmt.Printf("%-38s %-22s %-10s %6d %8.0f%%\n",
			session.ID,
			session.CurrentStage,
			session.Status,
			len(session.Answers),
			flow.Progress(session.CurrentStage)*100,
		)
	}
	return nil
}
