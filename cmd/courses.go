package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the configured course codes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		codes := make([]string, 0, len(appConfig.Courses))
		for code := range appConfig.Courses {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tCOURSE")
		for _, code := range codes {
			fmt.Fprintf(w, "%s\t%s\n", code, appConfig.Courses[code])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(coursesCmd)
}
