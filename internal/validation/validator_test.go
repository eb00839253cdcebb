package validation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/muhammadsaim216/prime-esports/internal/models"
)

func validSignup() *Signup {
	return &Signup{
		Username:        "ana_01",
		Email:           "ana@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Terms:           true,
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *Error
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestSignupAcceptsValidForm(t *testing.T) {
	assert.NoError(t, New().Validate(validSignup()))
}

func TestSignupPasswordMismatch(t *testing.T) {
	f := validSignup()
	f.ConfirmPassword = "hunter23"

	fields := fieldsOf(t, New().Validate(f))
	assert.Equal(t, map[string]string{"confirmPassword": "Passwords don't match"}, fields)
}

func TestSignupUsernameCharset(t *testing.T) {
	v := New()
	for _, name := range []string{"ana-01", "ana 01", "ana.01", "ánа01", "ana!"} {
		f := validSignup()
		f.Username = name
		fields := fieldsOf(t, v.Validate(f))
		assert.Equal(t, "Username can only contain letters, numbers, and underscores", fields["username"], name)
	}
}

func TestSignupTrimsAndRequiresTerms(t *testing.T) {
	f := validSignup()
	f.Email = "  ana@example.com "
	f.Terms = false

	fields := fieldsOf(t, New().Validate(f))
	assert.Equal(t, "ana@example.com", f.Email)
	assert.Equal(t, map[string]string{"terms": "You must accept the terms and conditions"}, fields)
}

func validTryoutApplication() *TryoutApplication {
	return &TryoutApplication{
		FullName:     "Ana Souza",
		Email:        "ana@example.com",
		Discord:      "ana#0001",
		Age:          19,
		Country:      "Brazil",
		CurrentRank:  "Immortal 2",
		PeakRank:     "Radiant",
		HoursPerWeek: "20-30",
		WhyJoin:      "I want to compete at the highest level with a stable roster.",
		Availability: []string{"weekday_evenings"},
		AgreeToTerms: true,
	}
}

func TestTryoutApplicationAge(t *testing.T) {
	v := New()
	f := validTryoutApplication()
	require.NoError(t, v.Validate(f))

	f.Age = 15
	fields := fieldsOf(t, v.Validate(f))
	assert.Equal(t, map[string]string{"age": "You must be at least 16 years old"}, fields)
}

func TestTryoutApplicationValues(t *testing.T) {
	f := validTryoutApplication()
	f.Availability = []string{"weekends", "weekday_evenings"}
	require.NoError(t, New().Validate(f))

	vals := f.Values()
	assert.Equal(t, "Ana Souza", vals["full_name"])
	assert.Nil(t, vals["previous_teams"])

	var slots []string
	require.NoError(t, json.Unmarshal(vals["availability"].(datatypes.JSON), &slots))
	assert.Equal(t, []string{"weekends", "weekday_evenings"}, slots)
}

func TestTryoutApplicationCollectsEveryField(t *testing.T) {
	fields := fieldsOf(t, New().Validate(&TryoutApplication{WhyJoin: "short"}))
	for _, name := range []string{"fullName", "email", "discord", "age", "whyJoin", "availability", "agreeToTerms"} {
		assert.Contains(t, fields, name)
	}
	assert.Equal(t, "Please provide at least 20 characters", fields["whyJoin"])
}

func TestScrimFormRules(t *testing.T) {
	v := New()
	neg := -5.0
	f := &Scrim{
		Title:       "Friday 5v5",
		Game:        "Valorant",
		ScheduledAt: time.Now().Add(time.Hour),
		MaxPlayers:  1,
		IsPaid:      true,
		Price:       &neg,
		Status:      models.ScrimStatusUpcoming,
	}
	fields := fieldsOf(t, v.Validate(f))
	assert.Equal(t, "Minimum 2 players", fields["max_players"])
	assert.Equal(t, "Price cannot be negative", fields["price"])

	f.MaxPlayers = 10
	f.IsPaid = false
	f.Price = nil
	require.NoError(t, v.Validate(f))
	assert.Nil(t, f.Values()["price"])
}

func TestStreamForm(t *testing.T) {
	v := New()
	f := &Stream{Title: "Main stage", StreamType: "rtmp", ScrimID: "nope"}
	fields := fieldsOf(t, v.Validate(f))
	assert.Equal(t, "Must be one of: direct, third_party", fields["stream_type"])
	assert.Equal(t, "Invalid id", fields["scrim_id"])

	f.StreamType = models.StreamTypeDirect
	f.ScrimID = ""
	require.NoError(t, v.Validate(f))
	assert.Nil(t, f.Values()["scrim_id"])
}

func TestStatusChangeNormalizesAccepted(t *testing.T) {
	v := New()
	f := &StatusChange{Status: "accepted"}
	require.NoError(t, v.Validate(f))
	assert.Equal(t, models.ApplicationStatusApproved, f.Normalized())

	assert.Error(t, v.Validate(&StatusChange{Status: "maybe"}))
}

func TestToggleRequiresValue(t *testing.T) {
	v := New()
	fields := fieldsOf(t, v.Validate(&Toggle{}))
	assert.Equal(t, "This field is required", fields["value"])

	off := false
	assert.NoError(t, v.Validate(&Toggle{Value: &off}))
}

func TestErrorMessageIsSorted(t *testing.T) {
	err := &Error{Fields: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "validation failed: a: one; b: two", err.Error())
}
