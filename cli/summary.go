package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"projectboard/board"
	"projectboard/config"
	"projectboard/connection"
	"projectboard/model"
	"projectboard/services"
)

var summaryMember string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the dashboard summary for a member",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryMember, "member", "", "email of the member whose projects are listed")
	_ = summaryCmd.MarkFlagRequired("member")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	if err := board.ValidateEmail(summaryMember); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var fb *connection.FirebaseClients
	if cfg.StoreDriver == config.DriverFirestore {
		if fb, err = connection.FBConnection(ctx, cfg, true); err != nil {
			return err
		}
	}
	store, err := connection.OpenStore(ctx, cfg, fb)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	projects, summary, err := services.NewProjectService(store, nil).List(ctx, summaryMember)
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), projects, summary)
}

func printSummary(out io.Writer, projects []model.Project, s board.Summary) error {
	fmt.Fprintf(out, "Total: %d  Not Started: %d  In Progress: %d  Nearly Complete: %d  Completed: %d\n\n",
		s.Total, s.NotStarted, s.InProgress, s.NearlyComplete, s.Completed)
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tPROGRESS\tTASKS\tMEMBERS\tDUE")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%d\t%d\t%s\n",
			p.Name, board.Label(p.Progress), p.Progress, len(p.Tasks), len(p.Members), formatDueDate(p.DueDate))
	}
	return w.Flush()
}

// formatDueDate renders YYYY-MM-DD as "January 2, 2006" and leaves anything
// else as stored.
func formatDueDate(due string) string {
	t, err := time.Parse("2006-01-02", due)
	if err != nil {
		return due
	}
	return t.Format("January 2, 2006")
}
