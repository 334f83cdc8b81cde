package apperror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"giveaway/internal/types"
)

func validEntry() types.GiveawayEntry {
	return types.GiveawayEntry{
		Name:        "Ada Lovelace",
		Location:    "London",
		PhoneNumber: "+1 (555) 123-4567",
		Email:       "ada@example.com",
	}
}

func TestValidateEntry(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		mutate func(*types.GiveawayEntry)
		want   []map[string]string
	}{
		{"valid", func(*types.GiveawayEntry) {}, []map[string]string{}},
		{"short name", func(e *types.GiveawayEntry) { e.Name = "A" }, []map[string]string{{"name": "must be at least 2 characters"}}},
		{"missing location", func(e *types.GiveawayEntry) { e.Location = "" }, []map[string]string{{"location": "is required"}}},
		{"bad phone", func(e *types.GiveawayEntry) { e.PhoneNumber = "call me" }, []map[string]string{{"phoneNumber": "please enter a valid phone number"}}},
		{"too short phone", func(e *types.GiveawayEntry) { e.PhoneNumber = "12345" }, []map[string]string{{"phoneNumber": "please enter a valid phone number"}}},
		{"bad email", func(e *types.GiveawayEntry) { e.Email = "ada@" }, []map[string]string{{"email": "please enter a valid email address"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := validEntry()
			tc.mutate(&e)
			assert.Equal(t, tc.want, CustomValidationError(v.Struct(e)))
		})
	}
}

func TestValidateGiveaway(t *testing.T) {
	v := NewValidator()
	g := types.Giveaway{Title: "PS5", MaxParticipants: 0, EndDate: time.Now()}
	got := CustomValidationError(v.Struct(g))
	assert.Equal(t, []map[string]string{{"maxParticipants": "is required"}}, got)
}

func TestCustomValidationError_NonValidationError(t *testing.T) {
	assert.Empty(t, CustomValidationError(assert.AnError))
}
