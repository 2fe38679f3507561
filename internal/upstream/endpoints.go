package upstream

import "strconv"

// Endpoint paths for the slice of API-Football the service exposes.
const (
	EndpointFixtures   = "/fixtures"
	EndpointHeadToHead = "/fixtures/headtohead"
	EndpointStandings  = "/standings"
	EndpointTeams      = "/teams"
	EndpointTeamStats  = "/teams/statistics"
)

// FixturesByDate requests all fixtures on a calendar day, date in
// YYYY-MM-DD form.
func FixturesByDate(date string) RequestSpec {
	return RequestSpec{
		Endpoint: EndpointFixtures,
		Params:   map[string]string{"date": date},
	}
}

// LiveFixtures requests every fixture currently in play.
func LiveFixtures() RequestSpec {
	return RequestSpec{
		Endpoint: EndpointFixtures,
		Params:   map[string]string{"live": "all"},
	}
}

// FixtureByID requests a single fixture.
func FixtureByID(fixtureID int64) RequestSpec {
	return RequestSpec{
		Endpoint: EndpointFixtures,
		Params:   map[string]string{"id": strconv.FormatInt(fixtureID, 10)},
	}
}

// HeadToHead requests the meeting history of two teams.
func HeadToHead(teamA, teamB int64, last int) RequestSpec {
	return RequestSpec{
		Endpoint: EndpointHeadToHead,
		Params: map[string]string{
			"h2h":  strconv.FormatInt(teamA, 10) + "-" + strconv.FormatInt(teamB, 10),
			"last": strconv.Itoa(last),
		},
	}
}

// Standings requests the league table for a season.
func Standings(leagueID int64, season int) RequestSpec {
	return RequestSpec{
		Endpoint: EndpointStandings,
		Params: map[string]string{
			"league": strconv.FormatInt(leagueID, 10),
			"season": strconv.Itoa(season),
		},
	}
}

// TeamByID requests a team profile.
func TeamByID(teamID int64) RequestSpec {
	return RequestSpec{
		Endpoint: EndpointTeams,
		Params:   map[string]string{"id": strconv.FormatInt(teamID, 10)},
	}
}

// TeamStatistics requests a team's season statistics in one league.
func TeamStatistics(teamID, leagueID int64, season int) RequestSpec {
	return RequestSpec{
		Endpoint: EndpointTeamStats,
		Params: map[string]string{
			"team":   strconv.FormatInt(teamID, 10),
			"league": strconv.FormatInt(leagueID, 10),
			"season": strconv.Itoa(season),
		},
	}
}
