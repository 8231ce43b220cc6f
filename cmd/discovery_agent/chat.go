package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/llm"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/observability"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/store"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

var (
	chatFlags     sharedFlags
	chatSessionID string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive discovery conversation",
	Long: `Start or resume a discovery session and converse turn by turn.
The session advances through the stage sequence as your answers satisfy each
stage's exit condition, and ends with a synthesized gift profile.`,
	RunE: runChat,
}

func init() {
	chatFlags.register(chatCmd)
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Session ID to resume (omit to start a new session)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadMergedConfig(&chatFlags)
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var printer *observability.Printer
	if cfg.Verbose {
		printer = observability.NewPrinter(os.Stdout)
	}

	session, err := resumeOrCreate(ctx, eng, chatSessionID)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s (stage: %s)\n", session.ID, session.CurrentStage)
	fmt.Println("Type your answers; 'quit' exits, 'abandon' closes the session.")
	fmt.Println()
	fmt.Printf("> %s\n", eng.Question(session))

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "quit", "exit":
			fmt.Printf("Session %s saved. Resume with --session %s\n", session.ID, session.ID)
			return nil
		case "abandon":
			if _, err := eng.Abandon(ctx, session); err != nil {
				return err
			}
			fmt.Println("Session abandoned.")
			return nil
		}

		turn, err := eng.Advance(ctx, session, input)
		if err != nil {
			if recoverableTurnError(err) {
				fmt.Fprintf(os.Stderr, "The model is unavailable right now (%v). Your answer was not recorded; try again.\n", err)
				continue
			}
			return err
		}
		session = turn.Session

		fmt.Println()
		fmt.Println(turn.Reply)
		fmt.Println()

		if printer != nil {
			printer.PrintTurn(turn.Answer, turn.FromStage, turn.ToStage)
			printer.PrintThemeWeights(session.ThemeWeights)
		}

		if turn.Completed {
			printProfileText(session.Profile)
			if printer != nil {
				printer.PrintProfile(session.Profile)
			}
			fmt.Printf("\nSession %s complete.\n", session.ID)
			return nil
		}

		if turn.Advanced {
			fmt.Printf("[moving on: %s]\n", turn.ToStage)
		}
		fmt.Printf("> %s\n", turn.NextQuestion)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// sessionEngine is the slice of engine behavior session lookup needs.
type sessionEngine interface {
	NewSession(ctx context.Context) (*types.Session, error)
	Session(ctx context.Context, id string) (*types.Session, error)
}

func resumeOrCreate(ctx context.Context, eng sessionEngine, id string) (*types.Session, error) {
	if id == "" {
		return eng.NewSession(ctx)
	}
	session, err := eng.Session(ctx, id)
	if err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, err
	}
	if session.Closed() {
		return nil, fmt.Errorf("session %s is %s and cannot continue", id, session.Status)
	}
	return session, nil
}

// recoverableTurnError reports whether a turn failure leaves the session
// usable, so the loop can re-prompt instead of exiting.
func recoverableTurnError(err error) bool {
	var transient *llm.TransientError
	return errors.As(err, &transient)
}

func printProfileText(profile *types.Profile) {
	if profile == nil {
		return
	}
	fmt.Println()
	fmt.Println("=== Your Discovery Profile ===")
	for i, gift := range profile.TopGifts {
		fmt.Printf("%d. %s — %.2f (%s)\n", i+1, gift.Name, gift.Score, gift.Strength)
	}
	fmt.Println()
	fmt.Println(profile.Rationale)
}
