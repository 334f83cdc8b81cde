package eligibility

import (
	"errors"
	"fmt"
)

// Code is the machine-readable reason attached to a denial.
type Code string

const (
	CodeAlreadyEntered Code = "already_entered"
	CodeCooldownActive Code = "cooldown_active"
	CodeAdminBlocked   Code = "admin_blocked"
	CodeGiveawayClosed Code = "giveaway_closed"
)

var (
	ErrAlreadyEntered   = errors.New("already entered this giveaway")
	ErrCooldownActive   = errors.New("entry cooldown active")
	ErrAdminBlocked     = errors.New("access restricted by administrator")
	ErrGiveawayClosed   = errors.New("giveaway is not accepting entries")
	ErrStoreUnavailable = errors.New("eligibility store unavailable")
	ErrWriteFailure     = errors.New("entry submission failed")
	ErrInvalidIP        = errors.New("invalid ip address")
)

// Decision is the outcome of an eligibility check.
type Decision struct {
	Admit         bool   `json:"admit"`
	Code          Code   `json:"code,omitempty"`
	Reason        string `json:"reason,omitempty"`
	DaysRemaining int    `json:"daysRemaining,omitempty"`
	// Degraded is set when the decision was reached without being able to
	// read the stores.
	Degraded bool `json:"degraded,omitempty"`
}

func admit() Decision { return Decision{Admit: true} }

func alreadyEntered() Decision {
	return Decision{Code: CodeAlreadyEntered, Reason: "You have already entered this giveaway."}
}

func adminBlocked() Decision {
	return Decision{Code: CodeAdminBlocked, Reason: "Access restricted by administrator."}
}

func giveawayClosed() Decision {
	return Decision{Code: CodeGiveawayClosed, Reason: "This giveaway is no longer accepting entries."}
}

func cooldownActive(days int) Decision {
	return Decision{
		Code:          CodeCooldownActive,
		Reason:        fmt.Sprintf("You recently entered a giveaway. Please wait %d more day(s) before entering another one.", days),
		DaysRemaining: days,
	}
}

// Err maps a denial to its sentinel error; an admitted decision returns nil.
func (d Decision) Err() error {
	if d.Admit {
		return nil
	}
	switch d.Code {
	case CodeAlreadyEntered:
		return ErrAlreadyEntered
	case CodeCooldownActive:
		return fmt.Errorf("%w: %d day(s) remaining", ErrCooldownActive, d.DaysRemaining)
	case CodeAdminBlocked:
		return ErrAdminBlocked
	case CodeGiveawayClosed:
		return ErrGiveawayClosed
	}
	return errors.New(d.Reason)
}
