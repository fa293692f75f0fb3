package patient

import (
	"context"
	"fmt"
)

type demoPatient struct {
	name, dob, gender, contact, address, summary, status string
}

var demoPatients = []demoPatient{
	{"Alice Wonderland", "1990-05-15", GenderFemale, "alice@example.com", "123 Fantasy Lane", "Allergies: Pollen", StatusActive},
	{"Robert Smith", "1985-11-22", GenderMale, "bob@example.com", "456 Reality Road", "Condition: Hypertension", StatusActive},
	{"Charles Xavier", "1972-02-10", GenderMale, "charlie@example.com", "789 Mutant Drive", "None", StatusInactive},
	{"Diana Prince", "1988-07-01", GenderFemale, "diana@example.com", "101 Amazon Trail", "Condition: Asthma", StatusActive},
	{"Edward Nygma", "1995-03-20", GenderMale, "edward@example.com", "202 Riddle Ave", "Allergies: Peanuts", StatusPending},
}

// Seed appends the demo patients when the collection is empty. It returns
// the number of records inserted.
func (s *Service) Seed(ctx context.Context) (int, error) {
	n, err := s.records.Len(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i, demo := range demoPatients {
		demo := demo
		_, err := s.records.Insert(ctx, func(id string) (Patient, error) {
			p := newPatient(id, demo.name)
			p.DateOfBirth = demo.dob
			p.Gender = demo.gender
			p.Contact = demo.contact
			p.Address = demo.address
			p.MedicalHistorySummary = demo.summary
			p.Status = demo.status
			p.CreatedAt = s.now().UTC()
			return p, nil
		})
		if err != nil {
			return i, fmt.Errorf("seed patient %d: %w", i+1, err)
		}
	}
	return len(demoPatients), nil
}
