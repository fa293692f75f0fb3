package consultation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/santelink/santelink/internal/platform/form"
	"github.com/santelink/santelink/internal/platform/store"
	"github.com/santelink/santelink/internal/platform/workflow"
)

// Kind names consultations in logs, events and the records table.
const Kind = "consultation"

// Sequence issues CON001, CON002, ...
var Sequence = store.Sequence{Prefix: "CON", Width: 3}

type Service struct {
	records store.Collection[Consultation]
	wf      *workflow.Workflow[Consultation]
	now     func() time.Time
}

func NewService(records store.Collection[Consultation], notifier workflow.Notifier, policy workflow.Policy, logger zerolog.Logger) *Service {
	s := &Service{records: records, now: time.Now}
	s.wf = workflow.New(workflow.Config[Consultation]{
		Kind:     Kind,
		Schema:   Schema,
		Records:  records,
		Build:    s.build,
		Stale:    staleViews,
		Messages: Messages,
		Policy:   policy,
		Notifier: notifier,
		Logger:   logger,
	})
	return s
}

func (s *Service) build(id string, v form.Values) Consultation {
	return Consultation{
		ID:               id,
		PatientID:        v.Get("patientId"),
		ConsultationDate: v.Get("consultationDate"),
		DoctorID:         v.Get("doctorId"),
		Reason:           v.Get("reason"),
		Symptoms:         v.Get("symptoms"),
		Diagnosis:        v.Get("diagnosis"),
		TreatmentPlan:    v.Get("treatmentPlan"),
		Notes:            v.Get("notes"),
		CreatedAt:        s.now().UTC(),
	}
}

// staleViews adds the patient chart when the consultation is linked to one.
func staleViews(c Consultation, _ string) []string {
	if c.PatientID == "" {
		return []string{"/consultations/history"}
	}
	return []string{
		"/patients/" + c.PatientID,
		"/patients/" + c.PatientID + "?tab=history",
		"/consultations/history",
	}
}

// Save records a consultation from raw form input.
func (s *Service) Save(ctx context.Context, input map[string]any) (workflow.Result, Consultation) {
	return s.wf.Save(ctx, input)
}

// Validate checks input without recording anything.
func (s *Service) Validate(input map[string]any) workflow.Result {
	return s.wf.Validate(input)
}

func (s *Service) Get(ctx context.Context, id string) (Consultation, error) {
	return s.records.Get(ctx, id)
}

// List returns consultations in recording order, restricted to one patient
// when patientID is non-empty.
func (s *Service) List(ctx context.Context, patientID string) ([]Consultation, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	if patientID == "" {
		return all, nil
	}
	out := make([]Consultation, 0)
	for _, c := range all {
		if c.PatientID == patientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.records.Len(ctx)
}
