package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/infrastructure/monitor"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderPage formats one task view, one line per task.
func renderPage(status domain.StatusFilter, page *domain.TaskPage) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Tasks (%s)", status)))
	b.WriteByte('\n')

	if len(page.Tasks) == 0 {
		b.WriteString(footerStyle.Render("no tasks"))
		b.WriteByte('\n')
	}

	width := 0
	for _, t := range page.Tasks {
		if n := len(strconv.FormatInt(t.ID, 10)); n > width {
			width = n
		}
	}
	idStyle := lipgloss.NewStyle().Width(width).Align(lipgloss.Right)
	for _, t := range page.Tasks {
		fmt.Fprintf(&b, "%s %s  %s\n", checkbox(&t), idStyle.Render(strconv.FormatInt(t.ID, 10)), t.Title)
	}

	p := page.Pagination
	fmt.Fprintln(&b, footerStyle.Render(fmt.Sprintf("page %d of %d, %d total", max(p.Page, 1), max(p.TotalPages, 1), p.Total)))
	return b.String()
}

func renderTask(t *domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", checkbox(t), headerStyle.Render(t.Title))
	fmt.Fprintf(&b, "  id:      %d\n", t.ID)
	fmt.Fprintf(&b, "  status:  %s\n", t.Status)
	if t.Description != "" {
		fmt.Fprintf(&b, "  details: %s\n", t.Description)
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "  created: %s\n", t.CreatedAt.Local().Format(time.DateTime))
	}
	if !t.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "  updated: %s\n", t.UpdatedAt.Local().Format(time.DateTime))
	}
	return b.String()
}

func renderStatus(status monitor.Status, user *domain.User, location string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "api:     %s (%s)\n", onOff(status.API, "reachable", "unreachable"), status.APIAddr)
	fmt.Fprintf(&b, "store:   %s\n", onOff(status.Store, "ok", "unavailable"))
	fmt.Fprintf(&b, "breaker: %s\n", status.Breaker)
	if user != nil {
		fmt.Fprintf(&b, "session: signed in as %s\n", user.Email)
	} else {
		fmt.Fprintln(&b, "session: signed out")
	}
	fmt.Fprintf(&b, "view:    %s\n", location)
	return b.String()
}

func checkbox(t *domain.Task) string {
	if t.IsCompleted() {
		return doneStyle.Render("[x]")
	}
	return pendingStyle.Render("[ ]")
}

func onOff(ok bool, yes, no string) string {
	if ok {
		return doneStyle.Render(yes)
	}
	return errorStyle.Render(no)
}
