package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	ErrConfigLoad      = "CONFIG_LOAD_ERROR"
	ErrDatabaseConnect = "DATABASE_CONNECT_ERROR"
	ErrRuleLoad        = "RULE_LOAD_ERROR"
	ErrStorage         = "STORAGE_ERROR"
	ErrAwardCommit     = "AWARD_COMMIT_ERROR"
	ErrReferralExists  = "REFERRAL_EXISTS"
	ErrReferralMissing = "REFERRAL_NOT_FOUND"
	ErrReferralDone    = "REFERRAL_ALREADY_PROCESSED"
	ErrUserMissing     = "USER_NOT_FOUND"
	ErrReconcile       = "RECONCILE_ERROR"
)
