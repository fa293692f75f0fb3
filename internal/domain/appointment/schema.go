package appointment

import (
	"github.com/santelink/santelink/internal/platform/form"
	"github.com/santelink/santelink/internal/platform/workflow"
)

// Schema is the appointment booking form.
var Schema = form.NewSchema(
	form.String("patientId", form.Required("Patient ID is required.")),
	form.String("patientName", form.Required("Patient name is required.")),
	form.String("doctorId", form.Required("Doctor ID is required.")),
	form.String("doctorName", form.Required("Doctor name is required.")),
	form.String("date", form.Required("Appointment date is required.")),
	form.String("time",
		form.Required("Appointment time is required."),
		form.Pattern(form.TimeOfDay, "Invalid time format (HH:MM)."),
	),
	form.String("reason",
		form.Required("Reason for the appointment is required."),
		form.MaxLength(500, "Reason must not exceed 500 characters."),
	),
	form.String("notes", form.MaxLength(2000, "Notes must not exceed 2000 characters.")).Optional(""),
)

var Messages = workflow.Messages{
	Invalid:  "The form data is invalid. Please correct the errors.",
	Saved:    "Appointment scheduled successfully.",
	Internal: "An internal error occurred while scheduling the appointment. Please try again.",
}
