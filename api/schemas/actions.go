package schemas

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ActionKind identifies one of the supported account-management operations.
type ActionKind string

const (
	ActionGiveAccess  ActionKind = "give_access"
	ActionEnrollUser  ActionKind = "enroll_user"
	ActionSuspendUser ActionKind = "suspend_user"
	ActionDeleteUser  ActionKind = "delete_user"
)

// KnownActionKinds lists every kind the engine can execute, in a stable order.
var KnownActionKinds = []ActionKind{
	ActionGiveAccess,
	ActionEnrollUser,
	ActionSuspendUser,
	ActionDeleteUser,
}

// Valid reports whether the kind is one of the supported operations.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionGiveAccess, ActionEnrollUser, ActionSuspendUser, ActionDeleteUser:
		return true
	}
	return false
}

// Credentials is the admin login pair for the target site. It travels on
// every Action because the shared session may need re-authentication at any
// point.
type Credentials struct {
	Username string `json:"learnyst_username"`
	Password string `json:"learnyst_password"`
}

// Fingerprint returns a stable digest of the credential pair. The session
// manager compares fingerprints to detect a credential change that requires
// a fresh login.
func (c Credentials) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(c.Username))
	h.Write([]byte{0})
	h.Write([]byte(c.Password))
	return hex.EncodeToString(h.Sum(nil))
}

// Empty reports whether either half of the pair is missing.
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// Action is an immutable request for one account-management operation.
// Exactly the fields required by Kind must be present; Validate enforces
// this before the action is allowed anywhere near the execution queue.
type Action struct {
	Kind ActionKind `json:"action"`

	// Email is required for GiveAccess and EnrollUser.
	Email string `json:"email,omitempty"`
	// FullName is required only for EnrollUser (the account is created with it).
	FullName string `json:"full_name,omitempty"`
	// CourseName is the on-site course display name, required for
	// GiveAccess and EnrollUser. Course-code resolution happens at the
	// transport boundary; by the time an Action exists this is the display name.
	CourseName string `json:"course_name,omitempty"`
	// UserIdentifier (email or account id) is required for SuspendUser and
	// DeleteUser.
	UserIdentifier string `json:"user_identifier,omitempty"`

	Credentials Credentials `json:"credentials"`
}

// ValidationError describes a malformed or incomplete Action. It is always
// produced before queuing and is recoverable by resubmitting a corrected
// request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid action: field %q %s", e.Field, e.Reason)
}

// Validate checks that the action carries exactly the non-empty fields its
// kind requires. A structurally complete action of any known kind is never
// rejected.
func (a Action) Validate() error {
	if !a.Kind.Valid() {
		return &ValidationError{Field: "action", Reason: fmt.Sprintf("unknown kind %q", string(a.Kind))}
	}
	if a.Credentials.Empty() {
		return &ValidationError{Field: "credentials", Reason: "username and password are required"}
	}

	switch a.Kind {
	case ActionGiveAccess:
		if a.Email == "" {
			return &ValidationError{Field: "email", Reason: "is required for give_access"}
		}
		if a.CourseName == "" {
			return &ValidationError{Field: "course_name", Reason: "is required for give_access"}
		}
	case ActionEnrollUser:
		if a.Email == "" {
			return &ValidationError{Field: "email", Reason: "is required for enroll_user"}
		}
		if a.FullName == "" {
			return &ValidationError{Field: "full_name", Reason: "is required for enroll_user"}
		}
		if a.CourseName == "" {
			return &ValidationError{Field: "course_name", Reason: "is required for enroll_user"}
		}
	case ActionSuspendUser, ActionDeleteUser:
		if a.UserIdentifier == "" {
			return &ValidationError{Field: "user_identifier", Reason: fmt.Sprintf("is required for %s", a.Kind)}
		}
	}
	return nil
}

// Target returns the human-readable subject of the action, used in result
// messages.
func (a Action) Target() string {
	switch a.Kind {
	case ActionGiveAccess, ActionEnrollUser:
		return a.Email
	default:
		return a.UserIdentifier
	}
}
