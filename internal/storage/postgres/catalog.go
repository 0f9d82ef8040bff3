// Package postgres provides a gorm-backed tournament catalog for deployments
// where tournaments live in the organiser's relational database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/storage"
)

// tournamentRow is the persisted shape of a tournament
type tournamentRow struct {
	ID                   string                `gorm:"primaryKey"`
	Name                 string                `gorm:"not null;default:''"`
	MaxCapacity          int                   `gorm:"not null;default:0"`
	CurrentRegistrations int                   `gorm:"not null;default:0"`
	WaitlistEnabled      bool                  `gorm:"not null;default:false"`
	WaitlistCapacity     int                   `gorm:"not null;default:0"`
	CurrentWaitlist      int                   `gorm:"not null;default:0"`
	Mode                 string                `gorm:"not null"`
	PriorityGroups       []model.PriorityGroup `gorm:"serializer:json;type:jsonb"`
	Status               string                `gorm:"not null;default:'registration';index"`
	CreatedAt            time.Time             `gorm:"autoCreateTime"`
	UpdatedAt            time.Time             `gorm:"autoUpdateTime"`
}

// TableName keeps the catalog out of the organiser's own tournaments table
func (tournamentRow) TableName() string {
	return "admission_tournaments"
}

// Catalog implements storage.TournamentRepository on top of gorm
type Catalog struct {
	db *gorm.DB
}

// Ensure Catalog implements the interface
var _ storage.TournamentRepository = (*Catalog)(nil)

// Open connects to Postgres and migrates the catalog table
func Open(dsn string) (*Catalog, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewWithDB(db)
}

// NewWithDB wraps an existing gorm handle and migrates the catalog table
func NewWithDB(db *gorm.DB) (*Catalog, error) {
	if err := db.AutoMigrate(&tournamentRow{}); err != nil {
		return nil, fmt.Errorf("migrate tournaments: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying connection pool
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *Catalog) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	var row tournamentRow
	if err := c.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrTournamentNotFound
		}
		return nil, err
	}
	return fromRow(&row), nil
}

func (c *Catalog) SaveTournament(ctx context.Context, tournament *model.Tournament) error {
	row := toRow(tournament)
	return c.db.WithContext(ctx).Save(row).Error
}

func (c *Catalog) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	var rows []tournamentRow
	if err := c.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*model.Tournament, len(rows))
	for i := range rows {
		result[i] = fromRow(&rows[i])
	}
	return result, nil
}

func toRow(t *model.Tournament) *tournamentRow {
	return &tournamentRow{
		ID:                   string(t.ID),
		Name:                 t.Name,
		MaxCapacity:          t.MaxCapacity,
		CurrentRegistrations: t.CurrentRegistrations,
		WaitlistEnabled:      t.WaitlistEnabled,
		WaitlistCapacity:     t.WaitlistCapacity,
		CurrentWaitlist:      t.CurrentWaitlist,
		Mode:                 string(t.Mode),
		PriorityGroups:       t.PriorityGroups,
		Status:               string(t.Status),
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

func fromRow(r *tournamentRow) *model.Tournament {
	groups := r.PriorityGroups
	if groups == nil {
		groups = []model.PriorityGroup{}
	}
	return &model.Tournament{
		ID:                   model.TournamentID(r.ID),
		Name:                 r.Name,
		MaxCapacity:          r.MaxCapacity,
		CurrentRegistrations: r.CurrentRegistrations,
		WaitlistEnabled:      r.WaitlistEnabled,
		WaitlistCapacity:     r.WaitlistCapacity,
		CurrentWaitlist:      r.CurrentWaitlist,
		Mode:                 model.RegistrationMode(r.Mode),
		PriorityGroups:       groups,
		Status:               model.TournamentStatus(r.Status),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}
