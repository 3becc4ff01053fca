package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/mindloom/internal/store"
	"github.com/user/mindloom/internal/types"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionDeleteCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage conversation sessions",
}

func openStore() (*store.Store, error) {
	cfg := loadConfig()
	setupLogging(cfg)
	st := store.New(cfg.DataDir, cfg.Thresholds)
	if err := st.Load(); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return st, nil
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		sessions := st.Sessions()
		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tDEPTH\tMESSAGES\tQUALITY\tTITLE")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f\t%s\n",
				s.ID,
				s.AnalysisType,
				s.State.Depth,
				len(s.Messages),
				s.State.QualityAverage,
				s.Title,
			)
		}
		return w.Flush()
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's messages and state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		sess, ok := st.Get(types.SessionID(args[0]))
		if !ok {
			return fmt.Errorf("session not found: %s", args[0])
		}

		fmt.Printf("Title:      %s\n", sess.Title)
		fmt.Printf("Type:       %s\n", sess.AnalysisType)
		fmt.Printf("Depth:      %s\n", sess.State.Depth)
		fmt.Printf("Energy:     %s\n", sess.State.UserEnergy)
		fmt.Printf("Style:      %s\n", sess.State.CommunicationStyle)
		fmt.Printf("Quality:    %.0f\n", sess.State.QualityAverage)
		fmt.Printf("Violations: %d\n", sess.State.BoundaryViolations)
		if len(sess.State.ExploredTopics) > 0 {
			fmt.Printf("Topics:     %s\n", strings.Join(sess.State.ExploredTopics, ", "))
		}
		for _, ins := range sess.State.Insights {
			fmt.Printf("Insight:    %s (%.1f) %s\n", ins.Category, ins.Confidence, strings.Join(ins.Evidence, ", "))
		}

		fmt.Println()
		for _, m := range sess.Messages {
			score := m.ValidationScore
			if m.Role == types.RoleUser {
				score = store.MessageScore(m)
			}
			fmt.Printf("[%s %s score=%d] %s\n",
				m.CreatedAt.Format("2006-01-02 15:04:05"), m.Role, score, m.Content)
		}
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		if !st.DeleteSession(types.SessionID(args[0])) {
			return fmt.Errorf("session not found: %s", args[0])
		}
		fmt.Printf("Session %s deleted.\n", args[0])
		return nil
	},
}
