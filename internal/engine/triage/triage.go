// Package triage builds the Rapid Round Queue: a bounded shortlist of the
// patients who most need eyes on them right now. The weights are fixed
// heuristics, not a validated clinical score, and are deliberately not
// configurable.
package triage

import (
	"sort"

	"github.com/wardboard/wardboard/pkg/natsort"
)

// Scoring constants. Changing these changes the queue for every ward, so
// they are compile-time fixed.
const (
	weightUnackedCriticalLab = 110
	weightHighAcuity         = 80
	weightUnstable           = 60
	weightPerOpenTask        = 6
	openTaskCap              = 24

	// QueueSize bounds the Rapid Round Queue.
	QueueSize = 6
)

// Input is one patient's scoring facts, snapshotted at evaluation time.
type Input struct {
	PatientID          string
	Name               string
	BedLabel           string
	Acuity             int
	Unstable           bool
	HasUnackedCritical bool
	OpenTaskCount      int
}

// Entry is a scored queue member.
type Entry struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	BedLabel  string `json:"bed_label"`
	Score     int    `json:"score"`
}

// Score computes the composite risk score for one patient.
func Score(in Input) int {
	s := 0
	if in.HasUnackedCritical {
		s += weightUnackedCriticalLab
	}
	if in.Acuity <= 2 {
		s += weightHighAcuity
	}
	if in.Unstable {
		s += weightUnstable
	}
	taskWeight := in.OpenTaskCount * weightPerOpenTask
	if taskWeight > openTaskCap {
		taskWeight = openTaskCap
	}
	s += taskWeight
	return s
}

// BuildQueue scores every patient, drops zero scores, and returns the top
// QueueSize entries by descending score. Ties break by bed label in
// natural order so the queue is deterministic.
func BuildQueue(inputs []Input) []Entry {
	var entries []Entry
	for _, in := range inputs {
		if s := Score(in); s > 0 {
			entries = append(entries, Entry{
				PatientID: in.PatientID,
				Name:      in.Name,
				BedLabel:  in.BedLabel,
				Score:     s,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return natsort.Less(entries[i].BedLabel, entries[j].BedLabel)
	})

	if len(entries) > QueueSize {
		entries = entries[:QueueSize]
	}
	return entries
}
