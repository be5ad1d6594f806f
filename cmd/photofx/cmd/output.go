package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"photofx/internal/domain"
	"photofx/internal/generation"
)

const (
	colorReset  = "\033[0m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusIcon(s domain.HistoryStatus) string {
	switch s {
	case domain.HistorySuccess:
		return colorGreen + "✓" + colorReset
	case domain.HistoryError:
		return colorRed + "✗" + colorReset
	case domain.HistoryInProgress:
		return colorYellow + "⏳" + colorReset
	default:
		return "•"
	}
}

func printJobs(cmd *cobra.Command, jobs []domain.GenerationJob) {
	if len(jobs) == 0 {
		cmd.Println("No generations yet.")
		return
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tJOB\tSTATUS\tTITLE\tCREATED\tIMAGE")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
			j.ID, j.JobID, statusIcon(j.Status), j.Status, j.Title,
			j.CreatedAt.Local().Format(time.DateTime), j.DisplayURL())
	}
	_ = tw.Flush()
}

func printResult(cmd *cobra.Command, res generation.Result) {
	if res.Succeeded() {
		cmd.Printf("%s Job %s finished\n", statusIcon(domain.HistorySuccess), res.JobID)
		cmd.Printf("%sResult:%s %s\n", colorDim, colorReset, *res.ResultURL)
		return
	}
	cmd.Printf("%s Job %s finished without a result (%s)\n", statusIcon(domain.HistoryError), res.JobID, res.Status.Status)
	if res.Job.ErrorMessage != nil {
		cmd.Printf("%sError:%s %s\n", colorDim, colorReset, *res.Job.ErrorMessage)
	}
}
