package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/santelink/santelink/internal/domain/appointment"
	"github.com/santelink/santelink/internal/domain/patient"
)

// UpcomingLimit is the number of upcoming appointments shown.
const UpcomingLimit = 5

type PatientStats interface {
	Stats(ctx context.Context) (patient.Stats, error)
}

type AppointmentReader interface {
	Upcoming(ctx context.Context, today string, limit int) ([]appointment.Appointment, error)
	CountOn(ctx context.Context, date string) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type ConsultationCounter interface {
	Count(ctx context.Context) (int, error)
}

// Summary is the clinic overview shown on the home page.
type Summary struct {
	Date                  string                    `json:"date"`
	ActivePatients        int                       `json:"activePatients"`
	TotalPatients         int                       `json:"totalPatients"`
	AppointmentsToday     int                       `json:"appointmentsToday"`
	CompletedAppointments int                       `json:"completedAppointments"`
	TotalConsultations    int                       `json:"totalConsultations"`
	UpcomingAppointments  []appointment.Appointment `json:"upcomingAppointments"`
}

type Service struct {
	patients      PatientStats
	appointments  AppointmentReader
	consultations ConsultationCounter
	now           func() time.Time
}

func NewService(p PatientStats, a AppointmentReader, c ConsultationCounter) *Service {
	return &Service{patients: p, appointments: a, consultations: c, now: time.Now}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	today := s.now().Format("2006-01-02")

	ps, err := s.patients.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("patient stats: %w", err)
	}
	upcoming, err := s.appointments.Upcoming(ctx, today, UpcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("upcoming appointments: %w", err)
	}
	todayCount, err := s.appointments.CountOn(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("appointments today: %w", err)
	}
	byStatus, err := s.appointments.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointment counts: %w", err)
	}
	consultations, err := s.consultations.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("consultation count: %w", err)
	}

	return &Summary{
		Date:                  today,
		ActivePatients:        ps.Active,
		TotalPatients:         ps.Total,
		AppointmentsToday:     todayCount,
		CompletedAppointments: byStatus[appointment.StatusCompleted],
		TotalConsultations:    consultations,
		UpcomingAppointments:  upcoming,
	}, nil
}
