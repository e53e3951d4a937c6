package shell

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/skillportal/skillportal/internal/cli/client"
)

const barWidth = 40

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rules := make([]string, len(header))
	for i, h := range header {
		rules[i] = strings.Repeat("─", len([]rune(h)))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))
	return tw
}

// RenderHistory prints a user's quiz attempts
func RenderHistory(w io.Writer, attempts []client.Attempt) {
	if len(attempts) == 0 {
		fmt.Fprintln(w, "No quiz attempts yet.")
		return
	}
	tw := newTable(w, "SKILL", "SCORE", "STARTED", "ENDED")
	for _, a := range attempts {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", a.Skill, a.Score, a.StartedAt.Short(), a.EndedAt.Short())
	}
	tw.Flush()
}

// RenderSkills prints a skill listing
func RenderSkills(w io.Writer, skills []client.Skill) {
	if len(skills) == 0 {
		fmt.Fprintln(w, "No skills found.")
		return
	}
	tw := newTable(w, "ID", "NAME")
	for _, sk := range skills {
		fmt.Fprintf(tw, "%s\t%s\n", sk.ID, sk.Name)
	}
	tw.Flush()
}

// RenderAccounts prints a user listing
func RenderAccounts(w io.Writer, accounts []client.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}
	tw := newTable(w, "ID", "NAME", "EMAIL", "ROLE")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Email, a.Role)
	}
	tw.Flush()
}

// RenderQuestions prints a question listing
func RenderQuestions(w io.Writer, questions []client.Question) {
	if len(questions) == 0 {
		fmt.Fprintln(w, "No questions found.")
		return
	}
	tw := newTable(w, "ID", "SKILL", "QUESTION", "OPTIONS", "ANSWER")
	for _, q := range questions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", q.ID, q.SkillID, q.Question, strings.Join(q.Options, " / "), q.CorrectAnswer)
	}
	tw.Flush()
}

// RenderPerformance prints the user performance report
func RenderPerformance(w io.Writer, rows []client.PerformanceRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No attempts recorded.")
		return
	}
	tw := newTable(w, "NAME", "EMAIL", "SKILL", "SCORE", "STARTED", "ENDED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", r.Name, r.Email, r.Skill, r.Score, r.StartedAt.Short(), r.EndedAt.Short())
	}
	tw.Flush()
}

// RenderSkillGap prints the average score per skill as a bar chart scaled
// to the best skill
func RenderSkillGap(w io.Writer, gaps []client.SkillGap) {
	if len(gaps) == 0 {
		fmt.Fprintln(w, "No attempts recorded.")
		return
	}

	top := 0.0
	for _, g := range gaps {
		top = math.Max(top, g.AvgScore)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, g := range gaps {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", g.Skill, bar(g.AvgScore, top), g.AvgScore)
	}
	tw.Flush()
}

// RenderPeriods prints the time-based report
func RenderPeriods(w io.Writer, periods []client.PeriodScore) {
	if len(periods) == 0 {
		fmt.Fprintln(w, "No attempts recorded.")
		return
	}
	tw := newTable(w, "PERIOD", "AVG SCORE")
	for _, p := range periods {
		fmt.Fprintf(tw, "%s\t%.2f\n", p.Period, p.AvgScore)
	}
	tw.Flush()
}

func bar(value, top float64) string {
	if top <= 0 || value <= 0 {
		return ""
	}
	n := int(math.Round(value / top * barWidth))
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}
