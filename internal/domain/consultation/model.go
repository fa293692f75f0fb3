package consultation

import "time"

// Consultation is the clinical record of one visit. PatientID is empty for
// walk-in consultations not yet linked to a registered patient.
type Consultation struct {
	ID               string    `json:"id"`
	PatientID        string    `json:"patientId"`
	ConsultationDate string    `json:"consultationDate"`
	DoctorID         string    `json:"doctorId"`
	Reason           string    `json:"reason"`
	Symptoms         string    `json:"symptoms"`
	Diagnosis        string    `json:"diagnosis"`
	TreatmentPlan    string    `json:"treatmentPlan"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
}
