package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/MeKo-Tech/wsm/internal/history"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent wear runs",
	Long:  `Print the runs recorded in the history database, newest first, so a result can be reproduced with its seed.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 lists all)")
	historyCmd.Flags().String("input", "", "Only list runs of this input path")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, historyCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("history_cmd.limit", "limit")
	mustBind("history_cmd.input", "input")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	path := viper.GetString("history")
	if path == "" {
		return fmt.Errorf("--history is required to list runs")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("history database does not exist: %s", path)
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(viper.GetInt("history_cmd.limit"), viper.GetString("history_cmd.input"))
	if err != nil {
		return err
	}

	return printHistory(cmd.OutOrStdout(), records, time.Now())
}

func printHistory(w io.Writer, records []history.Record, now time.Time) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tINPUT\tOUTPUT\tSIZE\tPOINTS\tSEED\tMODE\tNOISE\tTUNING\tTOOK\tERROR")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			humanize.RelTime(r.RunAt, now, "ago", "from now"),
			r.Input,
			r.Output,
			r.Width, r.Height,
			humanize.Comma(int64(r.Points)),
			r.Seed,
			r.Mode,
			r.Noise,
			tuning(r),
			r.Elapsed.Round(time.Millisecond),
			r.Error,
		)
	}
	return tw.Flush()
}

// tuning renders the settings as the wear flags that reproduce them.
func tuning(r history.Record) string {
	out := fmt.Sprintf("--point-frequency %d --min-radius %d --max-radius %d --noise-division %g",
		r.PointFrequency, r.MinRadius, r.MaxRadius, r.NoiseDivision)
	if r.Simple {
		return out + " --simple"
	}
	return out + fmt.Sprintf(" --resolution-division %g", r.ResolutionDivision)
}
