// Package wardview composes patients, tasks, labs and notes into the
// derived views the board renders: the sorted ward list, the rapid
// round queue, and the handover and SBAR text blocks.
package wardview

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardboard/wardboard/internal/domain/lab"
	"github.com/wardboard/wardboard/internal/domain/note"
	"github.com/wardboard/wardboard/internal/domain/patient"
	"github.com/wardboard/wardboard/internal/domain/task"
	"github.com/wardboard/wardboard/internal/engine/rank"
	"github.com/wardboard/wardboard/internal/engine/summary"
	"github.com/wardboard/wardboard/internal/engine/temporal"
	"github.com/wardboard/wardboard/internal/engine/triage"
)

type PatientSource interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	ListPatientsByWard(ctx context.Context, wardID uuid.UUID) ([]*patient.Patient, error)
}

type TaskSource interface {
	ListRankedByPatient(ctx context.Context, patientID uuid.UUID) ([]task.RankedTask, error)
	CountOpenByPatient(ctx context.Context) (map[uuid.UUID]int, error)
}

type LabSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*lab.Result, error)
	UnackedCriticalByPatient(ctx context.Context) (map[uuid.UUID]int, error)
}

type NoteSource interface {
	List(ctx context.Context, patientID uuid.UUID) ([]note.Note, error)
}

// PatientView is one row of the ward list: the patient plus the derived
// counts the board badges show.
type PatientView struct {
	*patient.Patient
	UnackedCriticalLabs int `json:"unacked_critical_labs"`
	OpenTasks           int `json:"open_tasks"`
}

type Service struct {
	patients PatientSource
	tasks    TaskSource
	labs     LabSource
	notes    NoteSource
	clock    temporal.Clock
	logger   zerolog.Logger
}

func NewService(patients PatientSource, tasks TaskSource, labs LabSource, notes NoteSource, clock temporal.Clock, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = temporal.SystemClock{}
	}
	return &Service{patients: patients, tasks: tasks, labs: labs, notes: notes, clock: clock, logger: logger}
}

// WardPatients returns the ward's patients in the selected sort order.
// Unknown modes fall back to the acuity default. Sorting works on a
// fresh slice each call; the source collections are never reordered.
func (s *Service) WardPatients(ctx context.Context, wardID uuid.UUID, mode rank.Mode) ([]PatientView, error) {
	items, err := s.patients.ListPatientsByWard(ctx, wardID)
	if err != nil {
		return nil, err
	}
	critCounts, err := s.labs.UnackedCriticalByPatient(ctx)
	if err != nil {
		return nil, err
	}
	taskCounts, err := s.tasks.CountOpenByPatient(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]PatientView, len(items))
	for i, p := range items {
		views[i] = PatientView{
			Patient:             p,
			UnackedCriticalLabs: critCounts[p.ID],
			OpenTasks:           taskCounts[p.ID],
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		return rank.LessPatientMode(mode, patientKey(views[i]), patientKey(views[j]))
	})
	return views, nil
}

func patientKey(v PatientView) rank.PatientKey {
	return rank.PatientKey{
		Acuity:             v.Acuity,
		HasUnackedCritical: v.UnackedCriticalLabs > 0,
		BedLabel:           v.BedLabel,
		Name:               v.Name,
		UpdatedAt:          v.UpdatedAt,
	}
}

// RapidRound scores the ward and returns the bounded queue of patients
// who most need eyes on them this round.
func (s *Service) RapidRound(ctx context.Context, wardID uuid.UUID) ([]triage.Entry, error) {
	items, err := s.patients.ListPatientsByWard(ctx, wardID)
	if err != nil {
		return nil, err
	}
	critCounts, err := s.labs.UnackedCriticalByPatient(ctx)
	if err != nil {
		return nil, err
	}
	taskCounts, err := s.tasks.CountOpenByPatient(ctx)
	if err != nil {
		return nil, err
	}

	inputs := make([]triage.Input, len(items))
	for i, p := range items {
		inputs[i] = triage.Input{
			PatientID:          p.ID.String(),
			Name:               p.Name,
			BedLabel:           p.BedLabel,
			Acuity:             p.Acuity,
			Unstable:           p.State == patient.StateUnstable,
			HasUnackedCritical: critCounts[p.ID] > 0,
			OpenTaskCount:      taskCounts[p.ID],
		}
	}
	return triage.BuildQueue(inputs), nil
}

// SBARText builds the single-patient SBAR block.
func (s *Service) SBARText(ctx context.Context, patientID uuid.UUID) (string, error) {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return "", err
	}
	ps, err := s.patientSummary(ctx, p)
	if err != nil {
		return "", err
	}
	return summary.SBAR(ps, s.clock.Now()), nil
}

// HandoverText builds the multi-patient handover digest for a ward,
// patients in default ward order.
func (s *Service) HandoverText(ctx context.Context, wardID uuid.UUID) (string, error) {
	views, err := s.WardPatients(ctx, wardID, rank.ModeAcuity)
	if err != nil {
		return "", err
	}
	wardName := ""
	summaries := make([]summary.PatientSummary, 0, len(views))
	for _, v := range views {
		if wardName == "" {
			wardName = v.WardName
		}
		ps, err := s.patientSummary(ctx, v.Patient)
		if err != nil {
			return "", err
		}
		summaries = append(summaries, ps)
	}
	return summary.Handover(wardName, summaries, s.clock.Now()), nil
}

func (s *Service) patientSummary(ctx context.Context, p *patient.Patient) (summary.PatientSummary, error) {
	ps := summary.PatientSummary{Patient: summaryPatient(p)}

	ranked, err := s.tasks.ListRankedByPatient(ctx, p.ID)
	if err != nil {
		return ps, err
	}
	for _, rt := range ranked {
		if !rt.Open() {
			continue
		}
		ps.Tasks = append(ps.Tasks, summary.TaskLine{Title: rt.Title, Priority: rt.Priority})
	}

	labs, err := s.labs.ListByPatient(ctx, p.ID, 50)
	if err != nil {
		return ps, err
	}
	for _, r := range labs {
		if !r.UnackedCritical() {
			continue
		}
		ps.Labs = append(ps.Labs, summary.LabLine{Name: r.Name, Value: r.Value, Unit: r.Unit, Flag: r.Flag})
	}

	notes, err := s.notes.List(ctx, p.ID)
	if err != nil {
		return ps, err
	}
	for _, n := range notes {
		ps.Notes = append(ps.Notes, summary.NoteLine{At: n.CreatedAt, Text: n.Text})
	}
	return ps, nil
}

func summaryPatient(p *patient.Patient) summary.Patient {
	sp := summary.Patient{
		Name:      p.Name,
		MRN:       p.MRN,
		WardName:  p.WardName,
		BedLabel:  p.BedLabel,
		Acuity:    p.Acuity,
		State:     p.State,
		Allergies: p.Allergies,
	}
	if p.CodeStatus != nil {
		sp.CodeStatus = *p.CodeStatus
	}
	if p.Attending != nil {
		sp.Attending = *p.Attending
	}
	return sp
}
