package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound   ErrCode = "NOT_FOUND"
	ErrConflict   ErrCode = "CONFLICT"
	ErrUserExists ErrCode = "USER_EXISTS"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotFound     ErrCode = "EXAM_NOT_FOUND"
	ErrResultNotFound   ErrCode = "RESULT_NOT_FOUND"
	ErrWindowNotOpen    ErrCode = "WINDOW_NOT_OPEN"
	ErrWindowClosed     ErrCode = "WINDOW_CLOSED"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrNotExamOwner     ErrCode = "NOT_EXAM_OWNER"
	ErrInvalidQuestions ErrCode = "INVALID_QUESTIONS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "College ID or password is incorrect."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "The submitted data is invalid."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request body is malformed."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "The resource conflicts with existing data."
	case ErrUserExists:
		return "An account with this college ID already exists."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotFound:
		return "Exam not found."
	case ErrResultNotFound:
		return "Result not found."
	case ErrWindowNotOpen:
		return "The exam login window has not opened yet."
	case ErrWindowClosed:
		return "The exam login window has closed."
	case ErrAlreadySubmitted:
		return "You have already submitted this exam."
	case ErrNotExamOwner:
		return "Only the teacher who created this exam can access it."
	case ErrInvalidQuestions:
		return "Some questions do not exist or belong to another subject."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}
