package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ahmedtohamy-16/footygateway/internal/cache"
	"github.com/ahmedtohamy-16/footygateway/internal/gateway"
	"github.com/ahmedtohamy-16/footygateway/internal/upstream"
)

// Feature names accepted by the feature endpoint. Each one costs one
// point and maps to a single upstream call.
const (
	FeatureLiveScores     = "live_scores"
	FeatureFixturesByDate = "fixtures_by_date"
	FeatureFixtureDetails = "fixture_details"
	FeatureHeadToHead     = "head_to_head"
	FeatureStandings      = "standings"
	FeatureTeamInfo       = "team_info"
	FeatureTeamStats      = "team_stats"
)

const defaultH2HLast = 10

// buildRequest turns a feature name plus its parameters into a gateway
// request with the right cache category.
func buildRequest(feature string, params map[string]string, now time.Time) (gateway.Request, error) {
	switch feature {
	case FeatureLiveScores:
		return gateway.Request{Spec: upstream.LiveFixtures(), Category: cache.CategoryLive}, nil

	case FeatureFixturesByDate:
		date, err := requireParam(params, "date")
		if err != nil {
			return gateway.Request{}, err
		}
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return gateway.Request{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
		}
		// A day is only treated as immutable once it has been over for
		// a full day; late kickoffs run past midnight in any timezone.
		category := cache.CategoryUpcoming
		if now.Sub(day) >= 48*time.Hour {
			category = cache.CategoryFinished
		}
		return gateway.Request{Spec: upstream.FixturesByDate(date), Category: category}, nil

	case FeatureFixtureDetails:
		id, err := requireInt(params, "fixture_id")
		if err != nil {
			return gateway.Request{}, err
		}
		return gateway.Request{Spec: upstream.FixtureByID(id), Category: cache.CategoryLive}, nil

	case FeatureHeadToHead:
		teamA, err := requireInt(params, "team_a")
		if err != nil {
			return gateway.Request{}, err
		}
		teamB, err := requireInt(params, "team_b")
		if err != nil {
			return gateway.Request{}, err
		}
		last := defaultH2HLast
		if raw, ok := params["last"]; ok {
			last, err = strconv.Atoi(raw)
			if err != nil || last <= 0 {
				return gateway.Request{}, fmt.Errorf("invalid last %q", raw)
			}
		}
		return gateway.Request{Spec: upstream.HeadToHead(teamA, teamB, last), Category: cache.CategoryTeam}, nil

	case FeatureStandings:
		league, err := requireInt(params, "league")
		if err != nil {
			return gateway.Request{}, err
		}
		season, err := requireInt(params, "season")
		if err != nil {
			return gateway.Request{}, err
		}
		return gateway.Request{Spec: upstream.Standings(league, int(season)), Category: cache.CategoryLeague}, nil

	case FeatureTeamInfo:
		id, err := requireInt(params, "team_id")
		if err != nil {
			return gateway.Request{}, err
		}
		return gateway.Request{Spec: upstream.TeamByID(id), Category: cache.CategoryTeam}, nil

	case FeatureTeamStats:
		team, err := requireInt(params, "team_id")
		if err != nil {
			return gateway.Request{}, err
		}
		league, err := requireInt(params, "league")
		if err != nil {
			return gateway.Request{}, err
		}
		season, err := requireInt(params, "season")
		if err != nil {
			return gateway.Request{}, err
		}
		return gateway.Request{Spec: upstream.TeamStatistics(team, league, int(season)), Category: cache.CategoryTeam}, nil

	default:
		return gateway.Request{}, fmt.Errorf("unknown feature %q", feature)
	}
}

func requireParam(params map[string]string, name string) (string, error) {
	value, ok := params[name]
	if !ok || value == "" {
		return "", fmt.Errorf("missing required parameter %q", name)
	}
	return value, nil
}

func requireInt(params map[string]string, name string) (int64, error) {
	raw, err := requireParam(params, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be an integer", name)
	}
	return value, nil
}
