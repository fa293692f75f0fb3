package patient

import (
	"github.com/santelink/santelink/internal/platform/form"
	"github.com/santelink/santelink/internal/platform/workflow"
)

// Schema is the patient registration form.
var Schema = form.NewSchema(
	form.String("name",
		form.MinLength(2, "Name is required (minimum 2 characters)."),
		form.MaxLength(100, "Name must not exceed 100 characters."),
	),
	form.String("dateOfBirth", form.Required("Date of birth is required.")),
	form.Enum("gender", GenderMale, GenderFemale, GenderOther).RequiredMessage("Gender is required."),
	form.String("contact",
		form.Email("Invalid email format."),
		form.Required("Email is required."),
	),
	form.String("phone", form.MaxLength(20, "Phone must not exceed 20 characters.")).Optional(""),
	form.String("address",
		form.Required("Address is required."),
		form.MaxLength(255, "Address must not exceed 255 characters."),
	),
	form.String("medicalHistorySummary",
		form.MaxLength(2000, "Medical history summary must not exceed 2000 characters."),
	).Optional(""),
	form.Enum("status", StatusActive, StatusInactive, StatusPending).RequiredMessage("Status is required."),
	form.String("emergencyContactName", form.MaxLength(100, "")).Optional(""),
	form.String("emergencyContactRelationship", form.MaxLength(50, "")).Optional(""),
	form.String("emergencyContactPhone", form.MaxLength(20, "")).Optional(""),
	form.String("insuranceProvider", form.MaxLength(100, "")).Optional(""),
	form.String("insurancePolicyNumber", form.MaxLength(100, "")).Optional(""),
)

var Messages = workflow.Messages{
	Invalid:  "The form data is invalid. Please correct the errors.",
	Saved:    "Patient registered successfully.",
	Internal: "An internal error occurred while registering the patient. Please try again.",
}
