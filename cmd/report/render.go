package main

import (
	"fmt"
	"strings"

	"github.com/2beens/fittrack/internal/dashboard"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"
)

var (
	primary = lipgloss.Color("205")
	subtle  = lipgloss.Color("240")
	success = lipgloss.Color("42")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			MarginBottom(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1).
			Width(24)

	labelStyle = lipgloss.NewStyle().Foreground(subtle)
	doneStyle  = lipgloss.NewStyle().Foreground(success).Bold(true)
)

func render(userName string, stats dashboard.Stats, goals dashboard.GoalProgress, trend []dashboard.TrendPoint) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("FitTrack - %s", userName)))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		periodBox("Today", stats.Today),
		periodBox("This week", stats.Week),
		periodBox("This month", stats.Month),
	))
	b.WriteString("\n")
	b.WriteString(goalsBox(goals))
	b.WriteString("\n\n")
	b.WriteString(trendChart(trend))
	return b.String()
}

func periodBox(title string, p dashboard.PeriodStats) string {
	return boxStyle.Render(strings.Join([]string{
		labelStyle.Render(title),
		fmt.Sprintf("%d workouts", p.Workouts),
		fmt.Sprintf("%d min", p.Minutes),
		fmt.Sprintf("%d kcal", p.Calories),
	}, "\n"))
}

func goalsBox(g dashboard.GoalProgress) string {
	return boxStyle.Width(76).Render(strings.Join([]string{
		labelStyle.Render("Goals"),
		goalLine("weekly", g.CurrentWeek, g.WeeklyGoal),
		goalLine("monthly", g.CurrentMonth, g.MonthlyGoal),
		fmt.Sprintf("streak: %d days", g.StreakDays),
	}, "\n"))
}

func goalLine(name string, current, goal int) string {
	line := fmt.Sprintf("%s: %d/%d", name, current, goal)
	if goal > 0 && current >= goal {
		return doneStyle.Render(line + " done")
	}
	return line
}

func trendChart(trend []dashboard.TrendPoint) string {
	if len(trend) == 0 {
		return labelStyle.Render("No trend data")
	}

	minutes := lo.Map(trend, func(p dashboard.TrendPoint, _ int) float64 {
		return float64(p.Minutes)
	})
	// asciigraph needs two points to draw a line
	if len(minutes) == 1 {
		minutes = append(minutes, minutes[0])
	}

	return asciigraph.Plot(minutes,
		asciigraph.Height(10),
		asciigraph.Width(72),
		asciigraph.Caption(fmt.Sprintf("minutes per day, %s .. %s", trend[0].Date, trend[len(trend)-1].Date)),
	)
}
