// Package models defines the record types that map to the tables owned by the
// hosted backend. Every struct carries json tags (the REST interface speaks JSON)
// and gorm tags (the direct Postgres backend maps rows through gorm), so the same
// type round-trips through either data path.
//
// The data model represents an esports organization where:
//   - Accounts have one Profile and one Role assignment
//   - Teams have Players and Achievements
//   - Scrims collect Applications (individuals) and Registrations (whole teams)
//   - Streams optionally point at a Scrim
//   - Announcements and News are published content
//
// Records that admins edit carry UpdatedAt. It doubles as the concurrency token:
// an update must present the value it last read, see store.Table.Update.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// --- Enums ---

// Role is a user's global permission level.
type Role string

const (
	RoleAdmin     Role = "admin"     // Full access to the back office
	RoleModerator Role = "moderator" // Reserved; treated like a user by the admin gate
	RoleUser      Role = "user"      // Default when no assignment exists
)

// ParseRole maps a stored role string onto Role, defaulting to RoleUser.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleModerator:
		return RoleModerator
	default:
		return RoleUser
	}
}

// TryoutStatus tracks whether a tryout listing still accepts applicants.
type TryoutStatus string

const (
	TryoutStatusOpen        TryoutStatus = "open"
	TryoutStatusClosingSoon TryoutStatus = "closing_soon"
	TryoutStatusClosed      TryoutStatus = "closed"
)

// ScrimStatus tracks the lifecycle of a scrim.
type ScrimStatus string

const (
	ScrimStatusUpcoming  ScrimStatus = "upcoming"
	ScrimStatusLive      ScrimStatus = "live"
	ScrimStatusCompleted ScrimStatus = "completed"
	ScrimStatusCancelled ScrimStatus = "cancelled"
)

// ApplicationStatus is shared by scrim applications, roster requests,
// tryout applications and scrim registrations.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// NormalizeApplicationStatus folds the legacy "accepted" spelling into approved.
func NormalizeApplicationStatus(s string) ApplicationStatus {
	if s == "accepted" {
		return ApplicationStatusApproved
	}
	return ApplicationStatus(s)
}

// StreamType says how a stream is delivered.
type StreamType string

const (
	StreamTypeDirect     StreamType = "direct"      // Pushed to our ingest with a generated key
	StreamTypeThirdParty StreamType = "third_party" // Embedded from Twitch, YouTube, ...
)

// --- Accounts ---

// Profile is the public face of an account. One per account.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Username  *string   `gorm:"size:30" json:"username"`
	DiscordID *string   `gorm:"size:50" json:"discord_id"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleAssignment grants a role to an account. The app assumes at most one row per user.
type RoleAssignment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Role      Role      `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerAccount is the admin "players" screen row: a profile merged with its role.
type PlayerAccount struct {
	Profile
	Role Role `json:"role"`
}

// --- Teams ---

// Game is a title the organization competes in.
type Game struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Team struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Game        string    `gorm:"not null" json:"game"`
	Category    string    `gorm:"not null" json:"category"`
	Logo        *string   `json:"logo"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamWithCount is a Team plus the number of players on its roster.
type TeamWithCount struct {
	Team
	PlayerCount int `json:"player_count"`
}

type Player struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"team_id"`
	Name      string            `gorm:"not null" json:"name"`
	Role      string            `json:"role"` // In-game role, e.g. "IGL"; unrelated to Role above
	Country   *string           `json:"country"`
	ImageURL  *string           `json:"image_url"`
	Socials   datatypes.JSONMap `gorm:"type:jsonb" json:"socials"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Achievement is a trophy or placement won by a team.
type Achievement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`
	Title     string    `gorm:"not null" json:"title"`
	Placement *string   `json:"placement"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AchievementView is an Achievement joined with the owning team's name and game.
type AchievementView struct {
	Achievement
	TeamName string `json:"team_name"`
	TeamGame string `json:"team_game"`
}

type Sponsor struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Tier       int       `json:"tier"` // 1 is the headline partner
	LogoURL    *string   `json:"logo_url"`
	WebsiteURL *string   `json:"website_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// --- Recruiting ---

// Tryout is a recruiting listing. TeamName is always set; TeamID links the
// listing to a Team when the admin picked one.
type Tryout struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID       *uuid.UUID   `gorm:"type:uuid" json:"team_id"`
	TeamName     string       `gorm:"not null" json:"team_name"`
	Game         string       `gorm:"not null" json:"game"`
	Position     string       `gorm:"not null" json:"position"`
	Requirements *string      `json:"requirements"`
	Description  *string      `json:"description"`
	Deadline     time.Time    `json:"deadline"`
	Status       TryoutStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TryoutApplication is a candidate's submission to a tryout listing.
type TryoutApplication struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TryoutID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"tryout_id"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null" json:"user_id"`
	FullName      string            `json:"full_name"`
	Email         string            `json:"email"`
	Discord       string            `json:"discord"`
	Age           int               `json:"age"`
	Country       string            `json:"country"`
	CurrentRank   string            `json:"current_rank"`
	PeakRank      string            `json:"peak_rank"`
	HoursPerWeek  string            `json:"hours_per_week"`
	PreviousTeams *string           `json:"previous_teams"`
	Achievements  *string           `json:"achievements"`
	WhyJoin       string            `json:"why_join"`
	Availability  datatypes.JSON    `gorm:"type:jsonb" json:"availability"`
	Status        ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// --- Scrims ---

type Scrim struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string      `gorm:"not null" json:"title"`
	Description *string     `json:"description"`
	Game        string      `gorm:"not null" json:"game"`
	TeamFormat  *string     `json:"team_format"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	IsPaid      bool        `json:"is_paid"`
	Price       *float64    `json:"price"`
	MaxPlayers  int         `json:"max_players"`
	Status      ScrimStatus `gorm:"type:varchar(20);not null;default:'upcoming'" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ScrimApplication is an individual's request to play in a scrim.
// (scrim_id, user_id) is unique.
type ScrimApplication struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ScrimID   uuid.UUID         `gorm:"type:uuid;not null" json:"scrim_id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null" json:"user_id"`
	Message   string            `json:"message"`
	Status    ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ScrimSummary is the slice of a Scrim shown next to an application.
type ScrimSummary struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Game        string      `json:"game"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	Status      ScrimStatus `json:"status"`
}

// ProfileSummary is the slice of a Profile shown next to an application.
type ProfileSummary struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  *string   `json:"username"`
	DiscordID *string   `json:"discord_id"`
}

// ScrimApplicationView joins an application with its scrim and applicant.
// Either side is nil when the referenced row is gone.
type ScrimApplicationView struct {
	ScrimApplication
	Scrim     *ScrimSummary   `json:"scrim"`
	Applicant *ProfileSummary `json:"applicant"`
}

// Registration enters a whole team into a scrim.
type Registration struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ScrimID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"scrim_id"`
	UserID         *uuid.UUID        `gorm:"type:uuid" json:"user_id"` // Set when the captain was signed in
	TeamName       string            `gorm:"not null" json:"team_name"`
	CaptainDiscord string            `gorm:"not null" json:"captain_discord"`
	ContactNumber  *string           `json:"contact_number"`
	Status         ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TeamApplication is a roster request. (team_id, user_id) is unique.
type TeamApplication struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID    uuid.UUID         `gorm:"type:uuid;not null" json:"team_id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null" json:"user_id"`
	Status    ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TeamApplicationView joins a roster request with the team name and applicant.
type TeamApplicationView struct {
	TeamApplication
	TeamName  *string         `json:"team_name"`
	Applicant *ProfileSummary `json:"applicant"`
}

// --- Streams ---

type Stream struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string     `gorm:"not null" json:"title"`
	Description     *string    `json:"description"`
	StreamType      StreamType `gorm:"type:varchar(20);not null" json:"stream_type"`
	EmbedURL        *string    `json:"embed_url"`
	DirectStreamKey *string    `json:"direct_stream_key"`
	IsLive          bool       `json:"is_live"`
	ThumbnailURL    *string    `json:"thumbnail_url"`
	ScrimID         *uuid.UUID `gorm:"type:uuid" json:"scrim_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PublicStream is a row of the streams_public view: a Stream minus its key.
type PublicStream struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	StreamType   StreamType `json:"stream_type"`
	EmbedURL     *string    `json:"embed_url"`
	IsLive       bool       `json:"is_live"`
	ThumbnailURL *string    `json:"thumbnail_url"`
	ScrimID      *uuid.UUID `json:"scrim_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

// --- Content ---

// Announcement drives the realtime feed. Only published rows are shown publicly.
type Announcement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Content     string    `gorm:"not null" json:"content"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key and Visible let the realtime reconciler track announcements.
func (a Announcement) Key() uuid.UUID { return a.ID }
func (a Announcement) Visible() bool  { return a.IsPublished }

type NewsItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Excerpt     *string   `json:"excerpt"`
	Content     string    `gorm:"not null" json:"content"`
	Category    string    `gorm:"not null" json:"category"`
	ImageURL    *string   `json:"image_url"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (NewsItem) TableName() string { return "news" }

// ContactMessage is a message sent through the public contact form.
type ContactMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
