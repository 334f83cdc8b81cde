package types

import "time"

// AdminBlockGiveawayID marks a restriction that an operator created by hand
// rather than one triggered by entering a giveaway.
const AdminBlockGiveawayID = "admin-block"

type Giveaway struct {
	ID              string    `json:"id"`
	Title           string    `json:"title" validate:"required,min=3"`
	Description     string    `json:"description"`
	MaxParticipants int       `json:"maxParticipants" validate:"required,gte=1"`
	EndDate         time.Time `json:"endDate" validate:"required"`
	CreatedAt       time.Time `json:"createdAt"`
	IsActive        bool      `json:"isActive"`
}

// IsOpen reports whether the giveaway still accepts entries given its
// current entry count.
func (g Giveaway) IsOpen(now time.Time, entryCount int) bool {
	return g.IsActive && now.Before(g.EndDate) && entryCount < g.MaxParticipants
}

// GiveawayPatch carries a partial update; nil fields are left untouched.
type GiveawayPatch struct {
	Title           *string    `json:"title,omitempty" validate:"omitempty,min=3"`
	Description     *string    `json:"description,omitempty"`
	MaxParticipants *int       `json:"maxParticipants,omitempty" validate:"omitempty,gte=1"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	IsActive        *bool      `json:"isActive,omitempty"`
}

// Apply copies the set fields of p onto g.
func (p GiveawayPatch) Apply(g *Giveaway) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.MaxParticipants != nil {
		g.MaxParticipants = *p.MaxParticipants
	}
	if p.EndDate != nil {
		g.EndDate = *p.EndDate
	}
	if p.IsActive != nil {
		g.IsActive = *p.IsActive
	}
}

// GiveawayEntry is one participant's submission. Contact fields are
// validated at the HTTP edge; IPAddress and SubmittedAt are set by the server.
type GiveawayEntry struct {
	ID          string    `json:"id"`
	GiveawayID  string    `json:"giveawayId"`
	Name        string    `json:"name" validate:"required,min=2"`
	Location    string    `json:"location" validate:"required,min=2"`
	PhoneNumber string    `json:"phoneNumber" validate:"required,phoneformat"`
	Email       string    `json:"email" validate:"required,email"`
	SubmittedAt time.Time `json:"submittedAt"`
	IPAddress   string    `json:"ipAddress"`
}

type Winner struct {
	ID            string    `json:"id"`
	Name          string    `json:"name" validate:"required,min=2"`
	GiveawayTitle string    `json:"giveawayTitle" validate:"required"`
	DateWon       time.Time `json:"dateWon" validate:"required"`
	ImageURL      string    `json:"imageUrl" validate:"omitempty,url"`
}

// IPRestriction is either a cooldown marker left by a successful entry or an
// administrator block. Records accumulate; none is ever rewritten.
type IPRestriction struct {
	ID            string    `json:"id"`
	IPAddress     string    `json:"ipAddress"`
	GiveawayID    string    `json:"giveawayId"`
	LastEntryDate time.Time `json:"lastEntryDate"`
	IsBlocked     bool      `json:"isBlocked"`
}

// IsAdminBlock reports whether the record was created by an operator.
func (r IPRestriction) IsAdminBlock() bool {
	return r.GiveawayID == AdminBlockGiveawayID
}
