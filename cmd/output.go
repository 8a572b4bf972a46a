package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olimci/albumsync/pkg/check"
	"github.com/olimci/albumsync/pkg/export"
	"github.com/urfave/cli/v3"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(18)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func isVerbose(cmd *cli.Command) bool {
	if cmd == nil {
		return false
	}
	if cmd.Bool("verbose") {
		return true
	}
	root := cmd.Root()
	return root != nil && root.Bool("verbose")
}

func printChangedPaths(cmd *cli.Command, paths []string) {
	if !isVerbose(cmd) || len(paths) == 0 {
		return
	}
	fmt.Println("changed paths:")
	for _, path := range paths {
		fmt.Printf("  %s\n", path)
	}
}

type summaryRow struct {
	label string
	count int
	style lipgloss.Style
}

// printSummary renders the counters of a run, skipping those that are zero
// apart from the planned totals.
func printSummary(title string, res export.Result, dryRun bool) {
	if dryRun {
		title += dimStyle.Render(" (dry run)")
	}
	fmt.Println(titleStyle.Render(title))

	rows := []summaryRow{
		{"directories", res.Directories, dimStyle},
		{"items", res.Items, dimStyle},
		{"exported", res.Exported, okStyle},
		{"updated", res.Updated, okStyle},
		{"metadata updated", res.MetadataUpdated, okStyle},
		{"deleted", res.Deleted, okStyle},
		{"needs update", res.Stale, warnStyle},
		{"obsolete", res.Obsolete - res.Deleted, warnStyle},
		{"refused", res.Refused, errStyle},
		{"failed", res.Failed, errStyle},
	}
	for i, row := range rows {
		if i > 1 && row.count == 0 {
			continue
		}
		fmt.Printf("  %s%s\n", labelStyle.Render(row.label), row.style.Render(fmt.Sprint(row.count)))
	}

	var hints []string
	if res.Stale > 0 {
		hints = append(hints, "use --update to refresh outdated files")
	}
	if res.Obsolete > res.Deleted && !dryRun {
		hints = append(hints, "use --delete to remove obsolete files")
	}
	for _, hint := range hints {
		fmt.Println(dimStyle.Render("  " + hint))
	}
}

func printCheckReport(report []check.Status) {
	fmt.Println(titleStyle.Render("External tools"))
	for _, s := range report {
		state := okStyle.Render("ok")
		switch {
		case !s.OK() && s.Required:
			state = errStyle.Render("missing")
		case !s.OK():
			state = warnStyle.Render("unavailable")
		}

		detail := strings.TrimSpace(strings.Join([]string{s.Path, s.Version}, " "))
		if !s.OK() {
			detail = s.Err.Error()
		}
		required := ""
		if s.Required {
			required = dimStyle.Render(" (required by config)")
		}
		fmt.Printf("  %s%s  %s%s\n", labelStyle.Render(s.Name), state, detail, required)
	}
}
