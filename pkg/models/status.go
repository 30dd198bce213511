package models

// SpecStatus represents the processing status of a spec in the database
type SpecStatus string

const (
	SpecStatusUnset    SpecStatus = ""          // Zero value = unset/unknown
	SpecStatusPending  SpecStatus = "pending"   // Spec queued but not processed
	SpecStatusSuccess  SpecStatus = "success"   // Spec processed successfully
	SpecStatusFailure  SpecStatus = "failure"   // Spec processing failed
	SpecStatusNotFound SpecStatus = "not_found" // Spec not in database
	SpecStatusDBError  SpecStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s SpecStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s SpecStatus) IsValid() bool {
	switch s {
	case SpecStatusPending, SpecStatusSuccess, SpecStatusFailure:
		return true
	}
	return false
}
