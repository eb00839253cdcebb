package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/muhammadsaim216/prime-esports/internal/models"
)

// Table names as they exist in the hosted database.
const (
	TableProfiles           = "profiles"
	TableUserRoles          = "user_roles"
	TableGames              = "games"
	TableTeams              = "teams"
	TablePlayers            = "players"
	TableAchievements       = "team_achievements"
	TableSponsors           = "sponsors"
	TableTryouts            = "tryouts"
	TableTryoutApplications = "tryout_applications"
	TableScrims             = "scrims"
	TableScrimApplications  = "scrim_applications"
	TableRegistrations      = "registrations"
	TableTeamApplications   = "team_applications"
	TableStreams            = "streams"
	ViewStreamsPublic       = "streams_public"
	TableAnnouncements      = "announcements"
	TableNews               = "news"
	TableContactMessages    = "contact_messages"
)

// Store groups every repository over one Backend. It is built once at startup.
type Store struct {
	Profiles           *Profiles
	Roles              *Roles
	Games              *Games
	Teams              *Teams
	Players            *Players
	Achievements       *Achievements
	Sponsors           *Sponsors
	Tryouts            *Tryouts
	TryoutApplications *TryoutApplications
	Scrims             *Scrims
	ScrimApplications  *ScrimApplications
	Registrations      *Registrations
	TeamApplications   *TeamApplications
	Streams            *Streams
	Announcements      *Announcements
	News               *News
	Contact            *Contact
}

func New(b Backend) *Store {
	teams := NewVersionedTable[models.Team](b, TableTeams)
	players := NewVersionedTable[models.Player](b, TablePlayers)
	profiles := &Profiles{t: NewVersionedTable[models.Profile](b, TableProfiles)}
	scrims := &Scrims{t: NewVersionedTable[models.Scrim](b, TableScrims)}

	return &Store{
		Profiles:           profiles,
		Roles:              &Roles{t: NewTable[models.RoleAssignment](b, TableUserRoles)},
		Games:              &Games{t: NewTable[models.Game](b, TableGames)},
		Teams:              &Teams{t: teams, players: players},
		Players:            &Players{t: players},
		Achievements:       &Achievements{t: NewVersionedTable[models.Achievement](b, TableAchievements), teams: teams},
		Sponsors:           &Sponsors{t: NewVersionedTable[models.Sponsor](b, TableSponsors)},
		Tryouts:            &Tryouts{t: NewVersionedTable[models.Tryout](b, TableTryouts)},
		TryoutApplications: &TryoutApplications{t: NewVersionedTable[models.TryoutApplication](b, TableTryoutApplications)},
		Scrims:             scrims,
		ScrimApplications: &ScrimApplications{
			t:        NewVersionedTable[models.ScrimApplication](b, TableScrimApplications),
			scrims:   scrims,
			profiles: profiles,
		},
		Registrations: &Registrations{t: NewVersionedTable[models.Registration](b, TableRegistrations), scrims: scrims},
		TeamApplications: &TeamApplications{
			t:        NewVersionedTable[models.TeamApplication](b, TableTeamApplications),
			teams:    teams,
			profiles: profiles,
		},
		Streams: &Streams{
			t:      NewVersionedTable[models.Stream](b, TableStreams),
			public: NewTable[models.PublicStream](b, ViewStreamsPublic),
		},
		Announcements: &Announcements{t: NewVersionedTable[models.Announcement](b, TableAnnouncements)},
		News:          &News{t: NewVersionedTable[models.NewsItem](b, TableNews)},
		Contact:       &Contact{t: NewTable[models.ContactMessage](b, TableContactMessages)},
	}
}

// Overview is the admin dashboard summary.
type Overview struct {
	TotalPlayers        int64                         `json:"total_players"`
	ActiveScrims        int64                         `json:"active_scrims"`
	PendingApplications int64                         `json:"pending_applications"`
	LiveStreams         int64                         `json:"live_streams"`
	RecentApplications  []models.ScrimApplicationView `json:"recent_applications"`
}

// Overview runs the five dashboard queries concurrently.
func (s *Store) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalPlayers, err = s.Profiles.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveScrims, err = s.Scrims.CountActive(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.PendingApplications, err = s.ScrimApplications.CountPending(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.LiveStreams, err = s.Streams.CountLive(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.RecentApplications, err = s.ScrimApplications.Recent(ctx, 5)
		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}
