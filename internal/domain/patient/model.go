package patient

import "time"

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusPending  = "Pending"
)

var validStatuses = map[string]bool{
	StatusActive: true, StatusInactive: true, StatusPending: true,
}

// Patient is a registered patient and the chart sections shown on the
// detail page. The chart lists start empty and are never null.
type Patient struct {
	ID                    string           `json:"id"`
	Name                  string           `json:"name"`
	DateOfBirth           string           `json:"dateOfBirth"`
	Gender                string           `json:"gender"`
	Contact               string           `json:"contact"`
	Phone                 string           `json:"phone"`
	Address               string           `json:"address"`
	MedicalHistorySummary string           `json:"medicalHistorySummary"`
	Status                string           `json:"status"`
	AvatarURL             string           `json:"avatarUrl"`
	EmergencyContact      EmergencyContact `json:"emergencyContact"`
	Insurance             Insurance        `json:"insurance"`
	MedicalHistory        []MedicalEntry   `json:"medicalHistory"`
	Appointments          []string         `json:"appointments"`
	Prescriptions         []Prescription   `json:"prescriptions"`
	Alerts                []Alert          `json:"alerts"`
	CreatedAt             time.Time        `json:"createdAt"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type Insurance struct {
	Provider     string `json:"provider"`
	PolicyNumber string `json:"policyNumber"`
}

type MedicalEntry struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Type    string `json:"type"`
	Summary string `json:"summary"`
	Details string `json:"details,omitempty"`
	Doctor  string `json:"doctor,omitempty"`
}

type Prescription struct {
	ID             string `json:"id"`
	Medication     string `json:"medication"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency,omitempty"`
	Duration       string `json:"duration"`
	DatePrescribed string `json:"datePrescribed"`
}

type Alert struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	DateNoted   string `json:"dateNoted"`
	Resolved    bool   `json:"resolved"`
}

// Detail is a patient as returned by the detail endpoint. Age is omitted
// when the date of birth cannot be parsed.
type Detail struct {
	Patient
	Age *int `json:"age,omitempty"`
}

// Filter narrows a patient listing. An empty Statuses matches every status.
type Filter struct {
	Search   string
	Statuses []string
}

// Stats counts patients per status.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Pending  int `json:"pending"`
}
