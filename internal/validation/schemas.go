package validation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/muhammadsaim216/prime-esports/internal/models"
)

var emailMessages = map[string]string{
	"email.required": "Email is required",
	"email.email":    "Invalid email address",
	"email.max":      "Email must be less than 255 characters",
}

var usernameMessages = map[string]string{
	"username.required": "Username is required",
	"username.min":      "Username must be at least 3 characters",
	"username.max":      "Username must be less than 30 characters",
	"username.username": "Username can only contain letters, numbers, and underscores",
}

func merge(sets ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}

// Edit carries the version an admin edit dialog loaded. Updates must send it.
type Edit struct {
	Version *time.Time `json:"version,omitempty"`
}

func (e Edit) Expected() *time.Time { return e.Version }

// --- Auth ---

type Login struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

func (f *Login) normalize() { trim(&f.Email) }

func (Login) messages() map[string]string {
	return merge(emailMessages, map[string]string{
		"password.required": "Password is required",
		"password.min":      "Password must be at least 6 characters",
	})
}

type Signup struct {
	Username        string `json:"username" validate:"required,min=3,max=30,username"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Discord         string `json:"discord" validate:"omitempty,max=50"`
	Terms           bool   `json:"terms" validate:"accepted"`
}

func (f *Signup) normalize() { trim(&f.Username, &f.Email) }

func (Signup) messages() map[string]string {
	return merge(emailMessages, usernameMessages, map[string]string{
		"password.required":        "Password is required",
		"password.min":             "Password must be at least 6 characters",
		"password.max":             "Password must be less than 72 characters",
		"confirmPassword.required": "Please confirm your password",
		"confirmPassword.eqfield":  "Passwords don't match",
		"discord.max":              "Discord tag must be less than 50 characters",
		"terms.accepted":           "You must accept the terms and conditions",
	})
}

type Refresh struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// --- Dashboard ---

type Profile struct {
	Username  string `json:"username" validate:"required,min=3,max=30,username"`
	DiscordID string `json:"discord_id" validate:"omitempty,max=50"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	Edit
}

func (f *Profile) normalize() { trim(&f.Username, &f.DiscordID) }

func (Profile) messages() map[string]string {
	return merge(usernameMessages, map[string]string{
		"discord_id.max": "Discord tag must be less than 50 characters",
	})
}

func (f Profile) Values() map[string]any {
	return map[string]any{
		"username":   f.Username,
		"discord_id": nullable(f.DiscordID),
		"avatar_url": nullable(f.AvatarURL),
	}
}

type ScrimApplication struct {
	Message string `json:"message" validate:"min=10,max=1000"`
}

func (f *ScrimApplication) normalize() { trim(&f.Message) }

func (ScrimApplication) messages() map[string]string {
	return map[string]string{
		"message.min": "Please provide at least 10 characters",
		"message.max": "Message must be less than 1000 characters",
	}
}

type TryoutApplication struct {
	FullName      string   `json:"fullName" validate:"required,max=100"`
	Email         string   `json:"email" validate:"required,email,max=255"`
	Discord       string   `json:"discord" validate:"required,max=50"`
	Age           int      `json:"age" validate:"required,gte=16"`
	Country       string   `json:"country" validate:"required,max=100"`
	CurrentRank   string   `json:"currentRank" validate:"required,max=100"`
	PeakRank      string   `json:"peakRank" validate:"required,max=100"`
	HoursPerWeek  string   `json:"hoursPerWeek" validate:"required"`
	PreviousTeams string   `json:"previousTeams" validate:"omitempty,max=500"`
	Achievements  string   `json:"achievements" validate:"omitempty,max=500"`
	WhyJoin       string   `json:"whyJoin" validate:"min=20,max=1000"`
	Availability  []string `json:"availability" validate:"min=1"`
	AgreeToTerms  bool     `json:"agreeToTerms" validate:"accepted"`
}

func (f *TryoutApplication) normalize() {
	trim(&f.FullName, &f.Email, &f.Discord, &f.Country, &f.CurrentRank, &f.PeakRank, &f.WhyJoin)
}

func (TryoutApplication) messages() map[string]string {
	return merge(emailMessages, map[string]string{
		"fullName.required":     "Full name is required",
		"fullName.max":          "Name must be less than 100 characters",
		"discord.required":      "Discord tag is required",
		"discord.max":           "Discord tag must be less than 50 characters",
		"age.required":          "Age is required",
		"age.gte":               "You must be at least 16 years old",
		"country.required":      "Country is required",
		"country.max":           "Country must be less than 100 characters",
		"currentRank.required":  "Current rank is required",
		"currentRank.max":       "Rank must be less than 100 characters",
		"peakRank.required":     "Peak rank is required",
		"peakRank.max":          "Rank must be less than 100 characters",
		"hoursPerWeek.required": "Please select hours available",
		"previousTeams.max":     "Previous teams must be less than 500 characters",
		"achievements.max":      "Achievements must be less than 500 characters",
		"whyJoin.min":           "Please provide at least 20 characters",
		"whyJoin.max":           "Motivation must be less than 1000 characters",
		"availability.min":      "Please select at least one availability slot",
		"agreeToTerms.accepted": "You must accept the terms and conditions",
	})
}

func (f TryoutApplication) Values() map[string]any {
	availability, _ := json.Marshal(f.Availability)
	return map[string]any{
		"full_name":      f.FullName,
		"email":          f.Email,
		"discord":        f.Discord,
		"age":            f.Age,
		"country":        f.Country,
		"current_rank":   f.CurrentRank,
		"peak_rank":      f.PeakRank,
		"hours_per_week": f.HoursPerWeek,
		"previous_teams": nullable(f.PreviousTeams),
		"achievements":   nullable(f.Achievements),
		"why_join":       f.WhyJoin,
		"availability":   datatypes.JSON(availability),
	}
}

// --- Public forms ---

type Contact struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"min=10,max=2000"`
}

func (f *Contact) normalize() { trim(&f.Name, &f.Email, &f.Subject, &f.Message) }

func (Contact) messages() map[string]string {
	return merge(emailMessages, map[string]string{
		"name.required":    "Name is required",
		"subject.required": "Subject is required",
		"message.min":      "Please provide at least 10 characters",
		"message.max":      "Message must be less than 2000 characters",
	})
}

func (f Contact) Values() map[string]any {
	return map[string]any{"name": f.Name, "email": f.Email, "subject": f.Subject, "message": f.Message}
}

// Registration enters a team into a scrim.
type Registration struct {
	TeamName       string `json:"team_name" validate:"required,max=100"`
	CaptainDiscord string `json:"captain_discord" validate:"required,max=50"`
	ContactNumber  string `json:"contact_number" validate:"omitempty,max=30"`
}

func (f *Registration) normalize() { trim(&f.TeamName, &f.CaptainDiscord, &f.ContactNumber) }

func (Registration) messages() map[string]string {
	return map[string]string{
		"team_name.required":       "Team name is required",
		"captain_discord.required": "Captain Discord is required",
	}
}

func (f Registration) Values() map[string]any {
	return map[string]any{
		"team_name":       f.TeamName,
		"captain_discord": f.CaptainDiscord,
		"contact_number":  nullable(f.ContactNumber),
	}
}

// --- Admin ---

type Announcement struct {
	Title       string `json:"title" validate:"required,max=200"`
	Content     string `json:"content" validate:"required,max=5000"`
	IsPublished bool   `json:"is_published"`
	Edit
}

func (f *Announcement) normalize() { trim(&f.Title, &f.Content) }

func (Announcement) messages() map[string]string {
	return map[string]string{
		"title.required":   "Title is required",
		"title.max":        "Title must be less than 200 characters",
		"content.required": "Content is required",
		"content.max":      "Content must be less than 5000 characters",
	}
}

func (f Announcement) Values() map[string]any {
	return map[string]any{"title": f.Title, "content": f.Content, "is_published": f.IsPublished}
}

type Scrim struct {
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description" validate:"omitempty,max=1000"`
	Game        string             `json:"game" validate:"required"`
	TeamFormat  string             `json:"team_format" validate:"omitempty,max=20"`
	ScheduledAt time.Time          `json:"scheduled_at" validate:"required"`
	MaxPlayers  int                `json:"max_players" validate:"gte=2,lte=100"`
	IsPaid      bool               `json:"is_paid"`
	Price       *float64           `json:"price" validate:"omitempty,gte=0"`
	Status      models.ScrimStatus `json:"status" validate:"required,oneof=upcoming live completed cancelled"`
	Edit
}

func (f *Scrim) normalize() { trim(&f.Title) }

func (Scrim) messages() map[string]string {
	return map[string]string{
		"title.required":        "Title is required",
		"title.max":             "Title must be less than 200 characters",
		"description.max":       "Description must be less than 1000 characters",
		"game.required":         "Game is required",
		"scheduled_at.required": "Schedule date is required",
		"max_players.gte":       "Minimum 2 players",
		"max_players.lte":       "Maximum 100 players",
		"price.gte":             "Price cannot be negative",
	}
}

func (f Scrim) Values() map[string]any {
	price := f.Price
	if !f.IsPaid {
		price = nil
	}
	return map[string]any{
		"title":        f.Title,
		"description":  nullable(f.Description),
		"game":         f.Game,
		"team_format":  nullable(f.TeamFormat),
		"scheduled_at": f.ScheduledAt.UTC(),
		"max_players":  f.MaxPlayers,
		"is_paid":      f.IsPaid,
		"price":        price,
		"status":       f.Status,
	}
}

type Team struct {
	Name        string `json:"name" validate:"required,max=100"`
	Game        string `json:"game" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Logo        string `json:"logo"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Edit
}

func (f *Team) normalize() { trim(&f.Name) }

func (Team) messages() map[string]string {
	return map[string]string{
		"name.required":     "Team name is required",
		"name.max":          "Team name must be less than 100 characters",
		"game.required":     "Game is required",
		"category.required": "Category is required",
		"description.max":   "Description must be less than 500 characters",
	}
}

func (f Team) Values() map[string]any {
	return map[string]any{
		"name":        f.Name,
		"game":        f.Game,
		"category":    f.Category,
		"logo":        nullable(f.Logo),
		"description": nullable(f.Description),
	}
}

type Player struct {
	TeamID   uuid.UUID         `json:"team_id" validate:"required"`
	Name     string            `json:"name" validate:"required,max=100"`
	Role     string            `json:"role" validate:"omitempty,max=50"`
	Country  string            `json:"country" validate:"omitempty,max=100"`
	ImageURL string            `json:"image_url" validate:"omitempty,url"`
	Socials  map[string]string `json:"socials" validate:"omitempty,dive,url"`
	Edit
}

func (f *Player) normalize() { trim(&f.Name, &f.Role, &f.Country) }

func (Player) messages() map[string]string {
	return map[string]string{
		"team_id.required": "Team is required",
		"name.required":    "Player name is required",
		"name.max":         "Player name must be less than 100 characters",
	}
}

func (f Player) Values() map[string]any {
	socials := datatypes.JSONMap{}
	for k, v := range f.Socials {
		socials[k] = v
	}
	return map[string]any{
		"team_id":   f.TeamID,
		"name":      f.Name,
		"role":      f.Role,
		"country":   nullable(f.Country),
		"image_url": nullable(f.ImageURL),
		"socials":   socials,
	}
}

type Achievement struct {
	TeamID    uuid.UUID `json:"team_id" validate:"required"`
	Title     string    `json:"title" validate:"required,max=200"`
	Placement string    `json:"placement" validate:"omitempty,max=50"`
	Year      int       `json:"year" validate:"gte=2000,lte=2100"`
	Edit
}

func (f *Achievement) normalize() { trim(&f.Title, &f.Placement) }

func (f Achievement) Values() map[string]any {
	return map[string]any{
		"team_id":   f.TeamID,
		"title":     f.Title,
		"placement": nullable(f.Placement),
		"year":      f.Year,
	}
}

type Sponsor struct {
	Name       string `json:"name" validate:"required,max=100"`
	Tier       int    `json:"tier" validate:"gte=1,lte=5"`
	LogoURL    string `json:"logo_url" validate:"omitempty,url"`
	WebsiteURL string `json:"website_url" validate:"omitempty,url"`
	Edit
}

func (f *Sponsor) normalize() { trim(&f.Name) }

func (f Sponsor) Values() map[string]any {
	return map[string]any{
		"name":        f.Name,
		"tier":        f.Tier,
		"logo_url":    nullable(f.LogoURL),
		"website_url": nullable(f.WebsiteURL),
	}
}

type Game struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (f *Game) normalize() { trim(&f.Name) }

func (Game) messages() map[string]string {
	return map[string]string{"name.required": "Game name is required"}
}

type Tryout struct {
	TeamID       *uuid.UUID          `json:"team_id"`
	TeamName     string              `json:"team_name" validate:"required,max=100"`
	Game         string              `json:"game" validate:"required"`
	Position     string              `json:"position" validate:"required,max=100"`
	Requirements string              `json:"requirements" validate:"omitempty,max=500"`
	Description  string              `json:"description" validate:"omitempty,max=1000"`
	Deadline     time.Time           `json:"deadline" validate:"required"`
	Status       models.TryoutStatus `json:"status" validate:"required,oneof=open closing_soon closed"`
	Edit
}

func (f *Tryout) normalize() { trim(&f.TeamName, &f.Position) }

func (Tryout) messages() map[string]string {
	return map[string]string{
		"team_name.required": "Team name is required",
		"team_name.max":      "Team name must be less than 100 characters",
		"game.required":      "Game is required",
		"position.required":  "Position is required",
		"position.max":       "Position must be less than 100 characters",
		"requirements.max":   "Requirements must be less than 500 characters",
		"description.max":    "Description must be less than 1000 characters",
		"deadline.required":  "Deadline is required",
	}
}

func (f Tryout) Values() map[string]any {
	return map[string]any{
		"team_id":      f.TeamID,
		"team_name":    f.TeamName,
		"game":         f.Game,
		"position":     f.Position,
		"requirements": nullable(f.Requirements),
		"description":  nullable(f.Description),
		"deadline":     f.Deadline.UTC(),
		"status":       f.Status,
	}
}

type News struct {
	Title       string `json:"title" validate:"required,max=200"`
	Excerpt     string `json:"excerpt" validate:"omitempty,max=300"`
	Content     string `json:"content" validate:"required,max=10000"`
	Category    string `json:"category" validate:"required"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	IsPublished bool   `json:"is_published"`
	Edit
}

func (f *News) normalize() { trim(&f.Title) }

func (News) messages() map[string]string {
	return map[string]string{
		"title.required":    "Title is required",
		"title.max":         "Title must be less than 200 characters",
		"excerpt.max":       "Excerpt must be less than 300 characters",
		"content.required":  "Content is required",
		"content.max":       "Content must be less than 10000 characters",
		"category.required": "Category is required",
	}
}

func (f News) Values() map[string]any {
	return map[string]any{
		"title":        f.Title,
		"excerpt":      nullable(f.Excerpt),
		"content":      f.Content,
		"category":     f.Category,
		"image_url":    nullable(f.ImageURL),
		"is_published": f.IsPublished,
	}
}

type Stream struct {
	Title        string            `json:"title" validate:"required,max=200"`
	Description  string            `json:"description" validate:"omitempty,max=500"`
	StreamType   models.StreamType `json:"stream_type" validate:"required,oneof=direct third_party"`
	EmbedURL     string            `json:"embed_url" validate:"omitempty,url"`
	ThumbnailURL string            `json:"thumbnail_url" validate:"omitempty,url"`
	ScrimID      string            `json:"scrim_id" validate:"omitempty,uuid"`
	IsLive       bool              `json:"is_live"`
	Edit
}

func (f *Stream) normalize() { trim(&f.Title) }

func (Stream) messages() map[string]string {
	return map[string]string{
		"title.required":  "Title is required",
		"title.max":       "Title must be less than 200 characters",
		"description.max": "Description must be less than 500 characters",
	}
}

func (f Stream) Values() map[string]any {
	var scrimID *uuid.UUID
	if id, err := uuid.Parse(f.ScrimID); err == nil {
		scrimID = &id
	}
	return map[string]any{
		"title":         f.Title,
		"description":   nullable(f.Description),
		"stream_type":   f.StreamType,
		"embed_url":     nullable(f.EmbedURL),
		"thumbnail_url": nullable(f.ThumbnailURL),
		"scrim_id":      scrimID,
		"is_live":       f.IsLive,
	}
}

// RoleChange sets a user's role from the admin players screen.
type RoleChange struct {
	Role models.Role `json:"role" validate:"required,oneof=admin moderator user"`
}

// StatusChange approves or rejects an application.
type StatusChange struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected accepted"`
	Edit
}

func (f StatusChange) Normalized() models.ApplicationStatus {
	return models.NormalizeApplicationStatus(f.Status)
}

// Toggle flips a boolean flag (published, live).
type Toggle struct {
	Value *bool `json:"value" validate:"required"`
	Edit
}
