package appointment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/santelink/santelink/internal/platform/form"
	"github.com/santelink/santelink/internal/platform/store"
	"github.com/santelink/santelink/internal/platform/workflow"
)

// Kind names appointments in logs, events and the records table.
const Kind = "appointment"

// Sequence issues APT001, APT002, ...
var Sequence = store.Sequence{Prefix: "APT", Width: 3}

type Service struct {
	records store.Collection[Appointment]
	wf      *workflow.Workflow[Appointment]
	now     func() time.Time
}

func NewService(records store.Collection[Appointment], notifier workflow.Notifier, policy workflow.Policy, logger zerolog.Logger) *Service {
	s := &Service{records: records, now: time.Now}
	s.wf = workflow.New(workflow.Config[Appointment]{
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

func (s *Service) build(id string, v form.Values) Appointment {
	return Appointment{
		ID:          id,
		PatientID:   v.Get("patientId"),
		PatientName: v.Get("patientName"),
		DoctorID:    v.Get("doctorId"),
		DoctorName:  v.Get("doctorName"),
		Date:        v.Get("date"),
		Time:        v.Get("time"),
		Reason:      v.Get("reason"),
		Notes:       v.Get("notes"),
		Status:      StatusScheduled,
		CreatedAt:   s.now().UTC(),
	}
}

func staleViews(Appointment, string) []string {
	return []string{"/appointments", "/dashboard"}
}

// Save books a new appointment from raw form input.
func (s *Service) Save(ctx context.Context, input map[string]any) (workflow.Result, Appointment) {
	return s.wf.Save(ctx, input)
}

// Validate checks input without booking anything.
func (s *Service) Validate(input map[string]any) workflow.Result {
	return s.wf.Validate(input)
}

func (s *Service) Get(ctx context.Context, id string) (Appointment, error) {
	return s.records.Get(ctx, id)
}

// List returns the appointments matching f in booking order.
func (s *Service) List(ctx context.Context, f Filter) ([]Appointment, error) {
	if f.Status != "" && f.Status != "all" && !validStatuses[f.Status] {
		return nil, fmt.Errorf("invalid status: %s", f.Status)
	}
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(f.Search)
	out := make([]Appointment, 0, len(all))
	for _, a := range all {
		if f.Date != "" && a.Date != f.Date {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.PatientName), search) &&
			!strings.Contains(strings.ToLower(a.Reason), search) {
			continue
		}
		if f.DoctorID != "" && f.DoctorID != "all" && a.DoctorID != f.DoctorID {
			continue
		}
		if f.Status != "" && f.Status != "all" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0)
	for _, a := range all {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Calendar counts appointments per day of month, formatted YYYY-MM. Days
// without appointments are omitted.
func (s *Service) Calendar(ctx context.Context, month string) ([]DayCount, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, fmt.Errorf("invalid month %q: expected YYYY-MM", month)
	}
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, a := range all {
		if strings.HasPrefix(a.Date, month+"-") {
			counts[a.Date]++
		}
	}
	out := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DayCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Upcoming returns scheduled appointments on or after today, earliest
// first, at most limit of them.
func (s *Service) Upcoming(ctx context.Context, today string, limit int) ([]Appointment, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0)
	for _, a := range all {
		if a.Status == StatusScheduled && a.Date >= today {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByStatus tallies appointments per status.
func (s *Service) CountByStatus(ctx context.Context) (map[string]int, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{StatusScheduled: 0, StatusCompleted: 0, StatusCancelled: 0}
	for _, a := range all {
		counts[a.Status]++
	}
	return counts, nil
}

// CountOn returns the number of appointments on date (YYYY-MM-DD).
func (s *Service) CountOn(ctx context.Context, date string) (int, error) {
	items, err := s.List(ctx, Filter{Date: date})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Doctors returns the doctor directory.
func (s *Service) Doctors() []Doctor {
	out := make([]Doctor, len(doctors))
	copy(out, doctors)
	return out
}
