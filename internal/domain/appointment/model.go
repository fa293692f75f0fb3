package appointment

import "time"

const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusCompleted: true, StatusCancelled: true,
}

// Appointment is a scheduled visit between a patient and a doctor.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	PatientName string    `json:"patientName"`
	DoctorID    string    `json:"doctorId"`
	DoctorName  string    `json:"doctorName"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Doctor is an entry of the doctor directory.
type Doctor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var doctors = []Doctor{
	{ID: "DOC001", Name: "Dr. Smith"},
	{ID: "DOC002", Name: "Dr. Jones"},
	{ID: "DOC003", Name: "Dr. Strange"},
}

// Filter narrows an appointment listing. Zero fields match everything.
type Filter struct {
	Date     string
	Search   string
	DoctorID string
	Status   string
}

// DayCount is the number of appointments on one calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
