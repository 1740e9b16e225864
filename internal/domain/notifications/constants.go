package notifications

const (
	TypeValidationApproved  = "validation_approved"
	TypeValidationRejected  = "validation_rejected"
	TypeValidationCompleted = "validation_completed"
	TypeMeasureAssigned     = "measure_assigned"
	TypeEvidenceConfirmed   = "evidence_confirmed"
)

var subjects = map[string]string{
	TypeValidationApproved:  "Record awaiting your validation",
	TypeValidationRejected:  "Your submission was rejected",
	TypeValidationCompleted: "Your submission was fully approved",
	TypeMeasureAssigned:     "New measure target assigned",
	TypeEvidenceConfirmed:   "Your evidence was confirmed",
}
