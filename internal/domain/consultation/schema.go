package consultation

import (
	"github.com/santelink/santelink/internal/platform/form"
	"github.com/santelink/santelink/internal/platform/workflow"
)

// Schema is the consultation note form.
var Schema = form.NewSchema(
	form.String("patientId").Optional("").Nullable(),
	form.String("consultationDate", form.Required("Consultation date is required.")),
	form.String("doctorId", form.Required("Consulting doctor is required.")),
	form.String("reason",
		form.Required("Reason for the visit is required."),
		form.MaxLength(255, "Reason must not exceed 255 characters."),
	),
	form.String("symptoms", form.MaxLength(2000, "Symptoms must not exceed 2000 characters.")).Optional(""),
	form.String("diagnosis",
		form.Required("Diagnosis is required."),
		form.MaxLength(2000, "Diagnosis must not exceed 2000 characters."),
	),
	form.String("treatmentPlan", form.MaxLength(2000, "Treatment plan must not exceed 2000 characters.")).Optional(""),
	form.String("notes", form.MaxLength(2000, "Notes must not exceed 2000 characters.")).Optional(""),
)

var Messages = workflow.Messages{
	Invalid:  "The form data is invalid. Please correct the errors and try again.",
	Saved:    "Consultation saved successfully.",
	Internal: "An internal error occurred while saving the consultation. Please try again.",
}
