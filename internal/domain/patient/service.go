package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/santelink/santelink/internal/platform/form"
	"github.com/santelink/santelink/internal/platform/store"
	"github.com/santelink/santelink/internal/platform/workflow"
)

// Kind names patients in logs, events and the records table.
const Kind = "patient"

// Sequence issues PAT001, PAT002, ...
var Sequence = store.Sequence{Prefix: "PAT", Width: 3}

const avatarBaseURL = "https://placehold.co/100x100.png?text="

type Service struct {
	records store.Collection[Patient]
	wf      *workflow.Workflow[Patient]
	now     func() time.Time
}

func NewService(records store.Collection[Patient], notifier workflow.Notifier, policy workflow.Policy, logger zerolog.Logger) *Service {
	s := &Service{records: records, now: time.Now}
	s.wf = workflow.New(workflow.Config[Patient]{
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

func (s *Service) build(id string, v form.Values) Patient {
	p := newPatient(id, v.Get("name"))
	p.DateOfBirth = v.Get("dateOfBirth")
	p.Gender = v.Get("gender")
	p.Contact = v.Get("contact")
	p.Phone = v.Get("phone")
	p.Address = v.Get("address")
	p.MedicalHistorySummary = v.Get("medicalHistorySummary")
	p.Status = v.Get("status")
	p.EmergencyContact = EmergencyContact{
		Name:         v.Get("emergencyContactName"),
		Relationship: v.Get("emergencyContactRelationship"),
		Phone:        v.Get("emergencyContactPhone"),
	}
	p.Insurance = Insurance{
		Provider:     v.Get("insuranceProvider"),
		PolicyNumber: v.Get("insurancePolicyNumber"),
	}
	p.CreatedAt = s.now().UTC()
	return p
}

// newPatient returns a patient with the derived avatar and empty chart lists.
func newPatient(id, name string) Patient {
	return Patient{
		ID:             id,
		Name:           name,
		AvatarURL:      AvatarURL(name),
		MedicalHistory: []MedicalEntry{},
		Appointments:   []string{},
		Prescriptions:  []Prescription{},
		Alerts:         []Alert{},
	}
}

// AvatarURL returns the placeholder image labelled with the first two
// characters of name, upper-cased.
func AvatarURL(name string) string {
	r := []rune(name)
	if len(r) > 2 {
		r = r[:2]
	}
	return avatarBaseURL + strings.ToUpper(string(r))
}

func staleViews(Patient, string) []string {
	return []string{"/patients", "/dashboard"}
}

// Save registers a new patient from raw form input.
func (s *Service) Save(ctx context.Context, input map[string]any) (workflow.Result, Patient) {
	return s.wf.Save(ctx, input)
}

// Validate checks input without registering anything.
func (s *Service) Validate(input map[string]any) workflow.Result {
	return s.wf.Validate(input)
}

func (s *Service) Get(ctx context.Context, id string) (Patient, error) {
	return s.records.Get(ctx, id)
}

// Detail returns the patient with the age derived from the date of birth.
func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	p, err := s.records.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Patient: p}
	if age, ok := Age(p.DateOfBirth, s.now()); ok {
		d.Age = &age
	}
	return d, nil
}

// Age returns the number of whole years between dob (YYYY-MM-DD) and now.
func Age(dob string, now time.Time) (int, bool) {
	born, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0, false
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// List returns the patients matching f in registration order.
func (s *Service) List(ctx context.Context, f Filter) ([]Patient, error) {
	statuses := make(map[string]bool, len(f.Statuses))
	for _, st := range f.Statuses {
		if !validStatuses[st] {
			return nil, fmt.Errorf("invalid status: %s", st)
		}
		statuses[st] = true
	}
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(f.Search)
	out := make([]Patient, 0, len(all))
	for _, p := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.ID), search) {
			continue
		}
		if len(statuses) > 0 && !statuses[p.Status] {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(all)}
	for _, p := range all {
		switch p.Status {
		case StatusActive:
			st.Active++
		case StatusInactive:
			st.Inactive++
		case StatusPending:
			st.Pending++
		}
	}
	return st, nil
}
