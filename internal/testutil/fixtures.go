package testutil

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ahmedtohamy-16/footygateway/internal/models"
)

// GenerateUser creates a test user with the given Telegram ID and a
// full free pool.
func GenerateUser(telegramID int64) *models.User {
	return &models.User{
		TelegramID:    telegramID,
		Username:      sql.NullString{String: fmt.Sprintf("testuser_%d", telegramID), Valid: true},
		FreePoints:    3,
		LastFreeReset: time.Now().UTC(),
		ReferralCode:  fmt.Sprintf("TEST%04d", telegramID%10000),
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

// FixtureEnvelope returns a minimal API-Football response body with
// the given fixture id.
func FixtureEnvelope(fixtureID int64) string {
	return fmt.Sprintf(`{"get":"fixtures","errors":[],"results":1,"response":[{"fixture":{"id":%d}}]}`, fixtureID)
}
