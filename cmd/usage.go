package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/diamond-desk/internal/audit"
	"github.com/ziadkadry99/diamond-desk/internal/db"
	"github.com/ziadkadry99/diamond-desk/internal/llm"
)

var (
	usageSession string
	usageSince   time.Duration
	usageRecent  int
	usagePrune   time.Duration
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarise chat token usage and recent activity from the ledger",
	Long:  `Reads the usage ledger configured by db_path and prints token totals, the estimated OpenAI cost and the most recent entries. Requires a file-backed ledger.`,
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().StringVar(&usageSession, "session", "", "only include this chat session")
	usageCmd.Flags().DurationVar(&usageSince, "since", 0, "only include entries newer than this, e.g. 24h")
	usageCmd.Flags().IntVar(&usageRecent, "recent", 10, "number of recent entries to list")
	usageCmd.Flags().DurationVar(&usagePrune, "prune", 0, "delete entries older than this before reporting")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("the ledger is in memory; set db_path in %s to keep usage between runs", cfgFile)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	store := audit.NewStore(database)

	if usagePrune > 0 {
		n, err := store.DeleteBefore(ctx, time.Now().Add(-usagePrune))
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d entries older than %s\n\n", n, usagePrune)
	}

	filter := audit.QueryFilter{SessionID: usageSession, Limit: usageRecent}
	if usageSince > 0 {
		since := time.Now().Add(-usageSince)
		filter.Since = &since
	}

	totals, err := store.UsageTotals(ctx, filter)
	if err != nil {
		return err
	}

	fmt.Println("Chat usage")
	fmt.Println("==========")
	fmt.Printf("  Model:             %s\n", cfg.Chat.Model)
	fmt.Printf("  Answered turns:    %d\n", totals.Turns)
	fmt.Printf("  Blocked turns:     %d\n", totals.Blocked)
	fmt.Printf("  Prompt tokens:     %d\n", totals.PromptTokens)
	fmt.Printf("  Completion tokens: %d\n", totals.CompletionTokens)
	fmt.Printf("  Estimated cost:    $%.4f\n", llm.EstimateCost(cfg.Chat.Model, totals.PromptTokens, totals.CompletionTokens))

	if usageRecent <= 0 {
		return nil
	}

	entries, err := store.Query(ctx, filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("\nNo activity recorded yet.")
		return nil
	}

	fmt.Println("\nRecent activity")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tSESSION\tSUMMARY")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Format(time.DateTime), e.Action, e.SessionID, e.Summary)
	}
	return w.Flush()
}
