// Package progression owns every write to a user's skill level. Race
// handlers report finishes here; nothing else touches level state.
package progression

import (
	"context"
	"log"
	"math"

	"github.com/olanrewaju08325/typing-tester/internal/constants"
	"github.com/olanrewaju08325/typing-tester/internal/models"
	"github.com/olanrewaju08325/typing-tester/internal/store"
)

// Promotion outcomes
const (
	OutcomeNone            = "none"
	OutcomePromoted        = "promoted"
	OutcomeUpgradeRequired = "upgrade_required"
	OutcomeRecalibrated    = "recalibrated"
)

// Outcome describes what a promotion evaluation did to a profile.
type Outcome struct {
	Promoted bool
	Level    string
	Outcome  string
}

type Engine struct {
	users  store.UserStore
	levels store.LevelStore
}

func NewEngine(users store.UserStore, levels store.LevelStore) *Engine {
	return &Engine{users: users, levels: levels}
}

// RecordWinAndOpponents adds each defeated opponent to the winner's
// beaten-set for their current level (set semantics, never the winner
// themselves), then evaluates promotion.
func (e *Engine) RecordWinAndOpponents(ctx context.Context, winner string, opponents []string, wpm int) (Outcome, error) {
	profile, err := e.users.GetProfile(ctx, winner)
	if err != nil {
		return Outcome{}, err
	}
	normalizeProfile(profile)

	beaten := profile.Beaten[profile.Level]
	for _, opponent := range opponents {
		if opponent == winner || opponent == "" {
			continue
		}
		if !contains(beaten, opponent) {
			beaten = append(beaten, opponent)
		}
	}
	profile.Beaten[profile.Level] = beaten

	if err := e.users.SaveProfile(ctx, profile); err != nil {
		return Outcome{}, err
	}

	return e.EvaluatePromotion(ctx, winner, wpm)
}

// EvaluatePromotion promotes a user when their distinct beaten count at
// the current level meets wins_needed and their last race WPM meets
// min_wpm. Premium (not plus) users are held at the gate instead: a
// pending premium_plus upgrade is recorded and the level left alone.
func (e *Engine) EvaluatePromotion(ctx context.Context, username string, lastWpm int) (Outcome, error) {
	profile, err := e.users.GetProfile(ctx, username)
	if err != nil {
		return Outcome{}, err
	}
	normalizeProfile(profile)

	level, err := e.levels.Level(ctx, profile.Level)
	if err != nil {
		// Unknown level config: nothing to promote against.
		return Outcome{Level: profile.Level, Outcome: OutcomeNone}, nil
	}

	unique := distinctCount(profile.Beaten[profile.Level])
	if unique < level.Requirement.WinsNeeded || lastWpm < level.Requirement.MinWPM {
		return Outcome{Level: profile.Level, Outcome: OutcomeNone}, nil
	}

	next := level.Next
	if next == "" {
		// Terminal level.
		return Outcome{Level: profile.Level, Outcome: OutcomeNone}, nil
	}

	if profile.Plan == constants.PlanPremium && next != constants.BaseLevel {
		if profile.Pending == nil {
			profile.Pending = &models.PendingUpgrade{
				Plan:   constants.PlanPremiumPlus,
				Amount: constants.UpgradeAmount,
				Status: "pending",
			}
			if err := e.users.SaveProfile(ctx, profile); err != nil {
				return Outcome{}, err
			}
		}
		log.Printf("Promotion withheld for %s: plan %s cannot enter %s", username, profile.Plan, next)
		return Outcome{Level: profile.Level, Outcome: OutcomeUpgradeRequired}, nil
	}

	profile.Level = next
	profile.Beaten[next] = []string{}
	if err := e.users.SaveProfile(ctx, profile); err != nil {
		return Outcome{}, err
	}

	log.Printf("Promoted %s to %s", username, next)
	return Outcome{Promoted: true, Level: next, Outcome: OutcomePromoted}, nil
}

// CalculateLevelFromStats returns the first level whose WPM range
// contains the user's average, once they have enough cumulative wins.
// Otherwise the current level stands.
func (e *Engine) CalculateLevelFromStats(profile *models.UserProfile, levels []models.LevelDefinition) string {
	current := profile.Level
	if current == "" {
		current = constants.BaseLevel
	}
	if profile.Wins < constants.StatsPathMinWins {
		return current
	}
	for _, level := range levels {
		if profile.AvgWPM >= level.Range[0] && profile.AvgWPM <= level.Range[1] {
			return level.Name
		}
	}
	return current
}

// HandleRaceFinish is the single entry point for a won race: update the
// winner's cumulative stats, run the threshold promotion path, and only
// when that path neither promoted nor gated, recalibrate the level from
// average WPM. Returns the level update addressed to the finisher.
func (e *Engine) HandleRaceFinish(ctx context.Context, username string, opponents []string, wpm int) (*models.LevelUpdateData, error) {
	profile, err := e.users.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	normalizeProfile(profile)
	previousLevel := profile.Level

	profile.RacesPlayed++
	profile.TotalWPM += wpm
	profile.AvgWPM = math.Round(float64(profile.TotalWPM)/float64(profile.RacesPlayed)*100) / 100
	profile.Wins++

	if err := e.users.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}

	outcome, err := e.RecordWinAndOpponents(ctx, username, opponents, wpm)
	if err != nil {
		return nil, err
	}

	if outcome.Outcome == OutcomeNone {
		profile, err = e.users.GetProfile(ctx, username)
		if err != nil {
			return nil, err
		}
		normalizeProfile(profile)

		defs, err := e.levels.Levels(ctx)
		if err != nil {
			return nil, err
		}
		if recalibrated := e.CalculateLevelFromStats(profile, defs); recalibrated != profile.Level {
			profile.Level = recalibrated
			if err := e.users.SaveProfile(ctx, profile); err != nil {
				return nil, err
			}
			outcome = Outcome{Promoted: true, Level: recalibrated, Outcome: OutcomeRecalibrated}
		} else {
			outcome.Level = profile.Level
		}
	}

	update := &models.LevelUpdateData{
		Level:     outcome.Level,
		LeveledUp: outcome.Level != previousLevel,
		Outcome:   outcome.Outcome,
	}
	if level, err := e.levels.Level(ctx, outcome.Level); err == nil {
		update.Reward = level.Reward
		update.Description = level.Description
	}

	log.Printf("Race finish recorded for %s: wpm=%d level=%s outcome=%s",
		username, wpm, update.Level, update.Outcome)
	return update, nil
}

func normalizeProfile(profile *models.UserProfile) {
	if profile.Level == "" {
		profile.Level = constants.BaseLevel
	}
	if profile.Plan == "" {
		profile.Plan = constants.PlanFree
	}
	if profile.Beaten == nil {
		profile.Beaten = make(map[string][]string)
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func distinctCount(list []string) int {
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		seen[item] = struct{}{}
	}
	return len(seen)
}
