// Package summary renders patient aggregates into fixed-format plain text
// for handover and SBAR export. The builders are pure: identical input
// (including the reference time) always produces identical text. Sections
// with no content are omitted entirely rather than emitted as empty
// headers.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/wardboard/wardboard/internal/engine/rank"
)

// Patient is the identity slice of a summary.
type Patient struct {
	Name       string
	MRN        string
	WardName   string
	BedLabel   string
	Acuity     int
	State      string
	CodeStatus string
	Allergies  []string
	Attending  string
}

// TaskLine is one outstanding task, title only.
type TaskLine struct {
	Title    string
	Priority string
}

// LabLine is one unacknowledged critical lab value.
type LabLine struct {
	Name  string
	Value string
	Unit  string
	Flag  string
}

// NoteLine is one time-stamped quick note.
type NoteLine struct {
	At   time.Time
	Text string
}

// PatientSummary aggregates everything the builders render for one
// patient. Callers pass only unacknowledged critical labs and only open
// tasks; the builders render what they are given.
type PatientSummary struct {
	Patient Patient
	Tasks   []TaskLine
	Labs    []LabLine
	Notes   []NoteLine
}

const banner = "============================================================"
const rule = "------------------------------------------------------------"

// Handover builds the multi-patient ward handover digest: header,
// per-patient sections, footer.
func Handover(wardName string, patients []PatientSummary, now time.Time) string {
	var b strings.Builder
	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "WARD HANDOVER - %s\n", wardName)
	fmt.Fprintf(&b, "Generated %s\n", now.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Patients: %d\n", len(patients))
	b.WriteString(banner + "\n")

	for _, ps := range patients {
		b.WriteString("\n")
		writePatientSection(&b, ps)
	}

	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(&b, "End of handover - %d patient(s)\n", len(patients))
	return b.String()
}

// SBAR builds a single-patient Situation/Background/Assessment/
// Recommendation block.
func SBAR(ps PatientSummary, now time.Time) string {
	p := ps.Patient
	var b strings.Builder

	fmt.Fprintf(&b, "SBAR - %s (MRN %s)\n", p.Name, p.MRN)
	fmt.Fprintf(&b, "%s, %s\n", p.BedLabel, p.WardName)
	fmt.Fprintf(&b, "Generated %s\n", now.UTC().Format("2006-01-02 15:04"))

	b.WriteString("\nSituation:\n")
	fmt.Fprintf(&b, "  Acuity %d (%s).", rank.ClampAcuity(p.Acuity), p.State)
	if n := len(ps.Labs); n > 0 {
		fmt.Fprintf(&b, " %d unacknowledged critical lab value(s).", n)
	}
	if n := len(ps.Tasks); n > 0 {
		fmt.Fprintf(&b, " %d open task(s).", n)
	}
	b.WriteString("\n")

	background := backgroundLines(p)
	if len(background) > 0 {
		b.WriteString("\nBackground:\n")
		for _, line := range background {
			b.WriteString("  " + line + "\n")
		}
	}

	if len(ps.Labs) > 0 || len(ps.Notes) > 0 {
		b.WriteString("\nAssessment:\n")
		writeLabs(&b, ps.Labs, "  ")
		writeNotes(&b, ps.Notes, "  ")
	}

	if len(ps.Tasks) > 0 {
		b.WriteString("\nRecommendation:\n")
		b.WriteString("  Outstanding tasks:\n")
		writeTasks(&b, ps.Tasks, "    ")
	}

	return b.String()
}

func writePatientSection(b *strings.Builder, ps PatientSummary) {
	p := ps.Patient
	fmt.Fprintf(b, "%s - %s (MRN %s) | Acuity %d | %s\n",
		p.BedLabel, p.Name, p.MRN, rank.ClampAcuity(p.Acuity), p.State)

	if len(ps.Tasks) > 0 {
		b.WriteString("  Tasks:\n")
		writeTasks(b, ps.Tasks, "    ")
	}
	writeLabs(b, ps.Labs, "  ")
	writeNotes(b, ps.Notes, "  ")
}

// writeTasks renders tasks bucketed by tier, critical first, titles only.
func writeTasks(b *strings.Builder, tasks []TaskLine, indent string) {
	for _, tier := range []string{rank.PriorityCritical, rank.PriorityHigh, rank.PriorityMedium, rank.PriorityLow} {
		for _, t := range tasks {
			if t.Priority == tier {
				fmt.Fprintf(b, "%s[%s] %s\n", indent, tier, t.Title)
			}
		}
	}
	// Unknown tiers still render, after the known buckets.
	for _, t := range tasks {
		if !rank.ValidPriority(t.Priority) {
			fmt.Fprintf(b, "%s[%s] %s\n", indent, t.Priority, t.Title)
		}
	}
}

func writeLabs(b *strings.Builder, labs []LabLine, indent string) {
	if len(labs) == 0 {
		return
	}
	b.WriteString(indent + "Critical labs (unacknowledged):\n")
	for _, l := range labs {
		fmt.Fprintf(b, "%s  %s %s %s (%s)\n", indent, l.Name, l.Value, l.Unit, l.Flag)
	}
}

func writeNotes(b *strings.Builder, notes []NoteLine, indent string) {
	if len(notes) == 0 {
		return
	}
	b.WriteString(indent + "Notes:\n")
	for _, n := range notes {
		fmt.Fprintf(b, "%s  %s %s\n", indent, n.At.UTC().Format("15:04"), n.Text)
	}
}

func backgroundLines(p Patient) []string {
	var lines []string
	if p.CodeStatus != "" {
		lines = append(lines, "Code status: "+p.CodeStatus)
	}
	if len(p.Allergies) > 0 {
		lines = append(lines, "Allergies: "+strings.Join(p.Allergies, ", "))
	}
	if p.Attending != "" {
		lines = append(lines, "Attending: "+p.Attending)
	}
	return lines
}
