package redis

import (
	"fmt"

	"github.com/mcoot/tourneygate/internal/model"
)

// Key prefix for all admission data
const keyPrefix = "tourneygate"

// tournamentKey returns the Redis key for a Tournament
func tournamentKey(id model.TournamentID) string {
	return fmt.Sprintf("%s:tournament:%s", keyPrefix, id)
}

// tournamentIndexKey returns the Redis key for the SET of all tournament keys
func tournamentIndexKey() string {
	return fmt.Sprintf("%s:idx:tournaments", keyPrefix)
}

// lotteryKey returns the Redis key for a tournament's LotteryState
func lotteryKey(id model.TournamentID) string {
	return fmt.Sprintf("%s:lottery:%s", keyPrefix, id)
}

// queueKey returns the Redis key for a tournament's RegistrationQueue
func queueKey(id model.TournamentID) string {
	return fmt.Sprintf("%s:queue:%s", keyPrefix, id)
}

// RateLimitKey returns the Redis key for a user's rate-limit window counter
func RateLimitKey(userID model.UserID) string {
	return fmt.Sprintf("%s:ratelimit:%s", keyPrefix, userID)
}
