package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/chargechain/internal/adapter/ledger"
	"github.com/seu-repo/chargechain/internal/adapter/storage/postgres"
	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/mocks"
	"github.com/seu-repo/chargechain/internal/ports"
	"github.com/seu-repo/chargechain/internal/service/billing"
	"github.com/seu-repo/chargechain/internal/service/charging"
	"github.com/seu-repo/chargechain/internal/service/payment"
	"github.com/seu-repo/chargechain/internal/service/station"
	"github.com/seu-repo/chargechain/internal/validation"
)

// TestChargingFlow_ProjectsIntoIndex drives a full session lifecycle against
// the in-memory ledger and verifies that the published events land in the
// postgres read index through the projector.
func TestChargingFlow_ProjectsIntoIndex(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanIndex(t, env.DB)

	ctx := context.Background()
	wallet := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"

	now := time.Now().UTC().Truncate(time.Second)
	clock := func() time.Time { return now }

	chain := ledger.NewMemory()
	chain.SetClock(clock)
	chain.AddStation(domain.Station{
		ID:            1,
		Location:      "Av. Paulista 1000, Sao Paulo",
		PowerOutputKW: decimal.NewFromInt(150),
		PricePerHour:  decimal.RequireFromString("0.001"),
		Available:     true,
	})
	chain.SetBalance(wallet, decimal.RequireFromString("1"))
	if _, err := chain.RegisterUser(ctx, wallet, "", ""); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	stationIndex := postgres.NewStationIndex(env.DB, env.Logger)
	userIndex := postgres.NewUserIndex(env.DB, env.Logger)

	// The mock queue delivers synchronously, so projections are visible
	// immediately after each service call returns.
	mq := mocks.NewMockMessageQueue()
	projector := postgres.NewProjector(chain, stationIndex, userIndex, env.Logger)
	if err := projector.Start(mq); err != nil {
		t.Fatalf("Projector start failed: %v", err)
	}
	if err := projector.Resync(ctx); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	validator := validation.New()
	tariff, err := billing.NewTariff(billing.DefaultBaseRatePerHour)
	if err != nil {
		t.Fatalf("NewTariff failed: %v", err)
	}

	chargingSvc := charging.NewService(chain, validator, tariff, mq, false, env.Logger)
	chargingSvc.SetClock(clock)
	paymentSvc := payment.NewService(chain, validator, tariff, mq, env.Logger)
	paymentSvc.SetClock(clock)

	// Resync alone must have seeded the station row.
	rec, err := stationIndex.FindByID(ctx, 1)
	if err != nil {
		t.Fatalf("Station not projected after resync: %v", err)
	}
	if !rec.Available {
		t.Error("Expected station available after resync")
	}

	// Start: the index must flip to unavailable.
	sess, err := chargingSvc.StartSession(ctx, wallet, 1)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	rec, err = stationIndex.FindByID(ctx, 1)
	if err != nil {
		t.Fatalf("FindByID after start failed: %v", err)
	}
	if rec.Available {
		t.Error("Expected station unavailable while charging")
	}

	// End after 2h, then pay: index sees the station free again and the
	// user totals move.
	now = now.Add(2 * time.Hour)
	ended, err := chargingSvc.EndSession(ctx, wallet, sess.SessionID)
	if err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if ended.RequiredPayment == nil {
		t.Fatal("Expected required payment on ended session")
	}

	if _, err := paymentSvc.ProcessPayment(ctx, wallet, sess.SessionID, ended.RequiredPayment.String()); err != nil {
		t.Fatalf("ProcessPayment failed: %v", err)
	}

	rec, err = stationIndex.FindByID(ctx, 1)
	if err != nil {
		t.Fatalf("FindByID after payment failed: %v", err)
	}
	if !rec.Available {
		t.Error("Expected station available after session ended")
	}
	if rec.TotalSessions != 1 {
		t.Errorf("Expected 1 total session, got %d", rec.TotalSessions)
	}

	userRec, err := userIndex.FindByWallet(ctx, wallet)
	if err != nil {
		t.Fatalf("FindByWallet failed: %v", err)
	}
	if userRec.TotalSessions != 1 {
		t.Errorf("Expected 1 user session, got %d", userRec.TotalSessions)
	}
	if userRec.TotalCharges != ended.RequiredPayment.String() {
		t.Errorf("Expected total charges %s, got %s", ended.RequiredPayment, userRec.TotalCharges)
	}
}

// TestStationDirectory_CachesListings verifies the directory caches the
// station listing in Redis and serves the cached copy on the second read.
func TestStationDirectory_CachesListings(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanIndex(t, env.DB)

	ctx := context.Background()

	chain := ledger.NewMemory()
	stationIndex := postgres.NewStationIndex(env.DB, env.Logger)
	if err := stationIndex.Upsert(ctx, &ports.StationRecord{
		ID: 1, Location: "Centro", Available: true, UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Seed upsert failed: %v", err)
	}

	svc := station.NewService(chain, stationIndex, env.Cache, time.Minute, env.Logger)

	first, err := svc.ListStations(ctx, ports.StationFilter{})
	if err != nil {
		t.Fatalf("First ListStations failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected 1 station, got %d", len(first))
	}

	// Change the underlying row; the cached listing must still win inside
	// the TTL window.
	if err := stationIndex.SetAvailability(ctx, 1, false); err != nil {
		t.Fatalf("SetAvailability failed: %v", err)
	}

	second, err := svc.ListStations(ctx, ports.StationFilter{})
	if err != nil {
		t.Fatalf("Second ListStations failed: %v", err)
	}
	if len(second) != 1 || !second[0].Available {
		t.Error("Expected cached listing to still show the station available")
	}
}
