package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tourneygate/internal/model"
)

func TestRowRoundTrip(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	in := &model.Tournament{
		ID:                   "t-1",
		Name:                 "Spring Open",
		MaxCapacity:          128,
		CurrentRegistrations: 17,
		WaitlistEnabled:      true,
		WaitlistCapacity:     16,
		CurrentWaitlist:      3,
		Mode:                 model.ModeLottery,
		PriorityGroups:       []model.PriorityGroup{{ID: "vets", GuaranteedSpots: 8, LotteryWeight: 2}},
		Status:               model.TournamentRegistration,
		CreatedAt:            created,
		UpdatedAt:            created,
	}

	out := fromRow(toRow(in))

	assert.Equal(t, in, out)
}

func TestFromRowNormalisesNilGroups(t *testing.T) {
	out := fromRow(&tournamentRow{ID: "t-1", Mode: string(model.ModeFirstComeFirstServed)})

	assert.NotNil(t, out.PriorityGroups)
	assert.Empty(t, out.PriorityGroups)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "admission_tournaments", tournamentRow{}.TableName())
}

// TestCatalogAgainstPostgres runs only when a scratch database is provided.
func TestCatalogAgainstPostgres(t *testing.T) {
	dsn := os.Getenv("TOURNEYGATE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TOURNEYGATE_TEST_POSTGRES_DSN not set")
	}

	catalog, err := Open(dsn)
	require.NoError(t, err)
	defer func() { _ = catalog.Close() }()

	ctx := context.Background()
	id := model.TournamentID("catalog-test-" + time.Now().Format("150405.000000"))

	err = catalog.SaveTournament(ctx, &model.Tournament{ID: id, MaxCapacity: 10, Mode: model.ModeFirstComeFirstServed})
	require.NoError(t, err)

	got, err := catalog.GetTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, got.MaxCapacity)

	got.CurrentRegistrations = 4
	require.NoError(t, catalog.SaveTournament(ctx, got))

	got, err = catalog.GetTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentRegistrations)

	_, err = catalog.GetTournament(ctx, "definitely-missing")
	assert.ErrorIs(t, err, model.ErrTournamentNotFound)
}
