package postgres

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/adapter/queue"
	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/events"
	"github.com/seu-repo/chargechain/internal/ports"
)

// Projector keeps the secondary index in step with the ledger by consuming
// the lifecycle events and re-reading the touched entities. The index is
// eventually consistent: a lost event leaves a stale row until the next event
// for the same entity, never wrong mutation decisions, since no mutation
// reads the index.
type Projector struct {
	ledger   ports.Ledger
	stations ports.StationIndexRepository
	users    ports.UserIndexRepository
	log      *zap.Logger
	timeout  time.Duration
}

func NewProjector(ledger ports.Ledger, stations ports.StationIndexRepository, users ports.UserIndexRepository, log *zap.Logger) *Projector {
	return &Projector{
		ledger:   ledger,
		stations: stations,
		users:    users,
		log:      log,
		timeout:  10 * time.Second,
	}
}

// Start subscribes the projector to every lifecycle subject.
func (p *Projector) Start(mq queue.MessageQueue) error {
	sessionSubjects := []string{
		events.SubjectSessionStarted,
		events.SubjectSessionEnded,
		events.SubjectSessionPaid,
	}
	for _, subject := range sessionSubjects {
		if err := mq.Subscribe(subject, p.handleSessionEvent); err != nil {
			return err
		}
	}
	reservationSubjects := []string{
		events.SubjectReservationCreated,
		events.SubjectReservationCancelled,
	}
	for _, subject := range reservationSubjects {
		if err := mq.Subscribe(subject, p.handleReservationEvent); err != nil {
			return err
		}
	}
	p.log.Info("Index projector subscribed to lifecycle events")
	return nil
}

func (p *Projector) handleSessionEvent(data []byte) error {
	var evt events.SessionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.log.Warn("Dropping malformed session event", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	p.refreshStation(ctx, evt.StationID)
	p.refreshUser(ctx, evt.UserAddress)
	return nil
}

func (p *Projector) handleReservationEvent(data []byte) error {
	var evt events.ReservationEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.log.Warn("Dropping malformed reservation event", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	p.refreshStation(ctx, evt.StationID)
	p.refreshUser(ctx, evt.UserAddress)
	return nil
}

// Resync replays every station from the ledger into the index, for use at
// startup.
func (p *Projector) Resync(ctx context.Context) error {
	stations, err := p.ledger.ListStations(ctx)
	if err != nil {
		return err
	}
	for i := range stations {
		p.upsertStation(ctx, &stations[i])
	}
	p.log.Info("Index resynced from ledger", zap.Int("stations", len(stations)))
	return nil
}

func (p *Projector) refreshStation(ctx context.Context, stationID int64) {
	station, err := p.ledger.GetStation(ctx, stationID)
	if err != nil {
		p.log.Warn("Failed to refresh station projection",
			zap.Int64("station_id", stationID),
			zap.Error(err),
		)
		return
	}
	p.upsertStation(ctx, station)
}

func (p *Projector) upsertStation(ctx context.Context, station *domain.Station) {
	rec := &ports.StationRecord{
		ID:            station.ID,
		Location:      station.Location,
		PowerOutputKW: station.PowerOutputKW.String(),
		PricePerHour:  station.PricePerHour.String(),
		Available:     station.Available,
		TotalSessions: station.TotalSessions,
		TotalRevenue:  station.TotalRevenue.String(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := p.stations.Upsert(ctx, rec); err != nil {
		p.log.Warn("Failed to upsert station projection",
			zap.Int64("station_id", station.ID),
			zap.Error(err),
		)
	}
}

func (p *Projector) refreshUser(ctx context.Context, address string) {
	user, err := p.ledger.GetUser(ctx, address)
	if err != nil {
		p.log.Warn("Failed to refresh user projection",
			zap.String("user", address),
			zap.Error(err),
		)
		return
	}
	rec := &ports.UserRecord{
		WalletAddress: user.WalletAddress,
		Email:         user.Email,
		Name:          user.Name,
		TotalCharges:  user.TotalCharges.String(),
		TotalSessions: user.TotalSessions,
		LastSeenAt:    time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := p.users.Upsert(ctx, rec); err != nil {
		p.log.Warn("Failed to upsert user projection",
			zap.String("user", address),
			zap.Error(err),
		)
	}
}
