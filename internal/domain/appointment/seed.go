package appointment

import (
	"context"
	"fmt"
)

var demoAppointments = []Appointment{
	{PatientID: "PAT001", PatientName: "Alice Wonderland", DoctorID: "DOC001", DoctorName: "Dr. Smith", Date: "2024-07-29", Time: "10:00", Reason: "Follow-up", Status: StatusScheduled},
	{PatientID: "PAT002", PatientName: "Robert Smith", DoctorID: "DOC002", DoctorName: "Dr. Jones", Date: "2024-07-29", Time: "11:30", Reason: "New problem", Status: StatusScheduled},
	{PatientID: "PAT003", PatientName: "Charles Xavier", DoctorID: "DOC001", DoctorName: "Dr. Smith", Date: "2024-07-30", Time: "14:15", Reason: "Routine check-up", Status: StatusScheduled},
	{PatientID: "PAT004", PatientName: "Diana Prince", DoctorID: "DOC003", DoctorName: "Dr. Strange", Date: "2024-08-01", Time: "09:00", Reason: "Consultation", Status: StatusCompleted},
	{PatientID: "PAT001", PatientName: "Alice Wonderland", DoctorID: "DOC001", DoctorName: "Dr. Smith", Date: "2024-08-05", Time: "15:00", Reason: "Medication review", Status: StatusCancelled},
}

// Seed appends the demo appointments when the collection is empty. It
// returns the number of records inserted.
func (s *Service) Seed(ctx context.Context) (int, error) {
	n, err := s.records.Len(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i, demo := range demoAppointments {
		demo := demo
		_, err := s.records.Insert(ctx, func(id string) (Appointment, error) {
			demo.ID = id
			demo.CreatedAt = s.now().UTC()
			return demo, nil
		})
		if err != nil {
			return i, fmt.Errorf("seed appointment %d: %w", i+1, err)
		}
	}
	return len(demoAppointments), nil
}
