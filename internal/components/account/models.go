package account

import "github.com/google/uuid"

type (
	// Account is a stored identity. Rows are created once and never updated.
	Account struct {
		ID           uuid.UUID `json:"id"`
		Username     string    `json:"username"`
		PasswordHash string    `json:"-"` // Never serialize password hash
		Name         *string   `json:"name,omitempty"`
		Email        *string   `json:"email,omitempty"`
	}

	// Subject is anything that can be bound to a session.
	Subject interface {
		SubjectID() uuid.UUID
	}

	CreateAccountIn struct {
		Username     string
		PasswordHash string
		Name         string
		Email        string
	}

	// CreateOutcome tells the caller how an insert ended.
	CreateOutcome int

	CreateResult struct {
		Outcome CreateOutcome
		Account *Account // set only when Outcome is Created
	}
)

const (
	Created CreateOutcome = iota
	DuplicateUsername
	InfraError
)

var _ Subject = (*Account)(nil)

func (a *Account) SubjectID() uuid.UUID {
	return a.ID
}

// DisplayName returns the name, or "" when none was given.
func (a *Account) DisplayName() string {
	if a.Name == nil {
		return ""
	}
	return *a.Name
}

func (o CreateOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case DuplicateUsername:
		return "duplicate_username"
	case InfraError:
		return "infra_error"
	default:
		return "unknown"
	}
}
