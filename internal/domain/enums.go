package domain

func (t AssignmentType) IsValid() bool {
	switch t {
	case AssignmentTypeWritten, AssignmentTypeMCQ,
		AssignmentTypeTest, AssignmentTypeOther:
		return true
	default:
		return false
	}
}

func ToAssignmentType(t string) AssignmentType {
	switch t {
	case "WRITTEN":
		return AssignmentTypeWritten
	case "MCQ":
		return AssignmentTypeMCQ
	case "TEST":
		return AssignmentTypeTest
	case "OTHER":
		return AssignmentTypeOther
	default:
		return AssignmentTypeUnspecified
	}
}

func (s SubmissionStatus) IsValid() bool {
	switch s {
	case SubmissionStatusNotStarted, SubmissionStatusSubmitted,
		SubmissionStatusOverdue, SubmissionStatusGraded:
		return true
	default:
		return false
	}
}

func ToSubmissionStatus(status string) SubmissionStatus {
	switch status {
	case "NOT_STARTED":
		return SubmissionStatusNotStarted
	case "SUBMITTED":
		return SubmissionStatusSubmitted
	case "OVERDUE":
		return SubmissionStatusOverdue
	case "GRADED":
		return SubmissionStatusGraded
	default:
		return SubmissionStatusNotStarted
	}
}
