// Command simulator drives a full charging lifecycle against the in-memory
// ledger: wallet login, reservation, session start and end, then payment.
// Useful for demos and for exercising the service layer without a chain
// gateway, database, or broker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/adapter/cache"
	"github.com/seu-repo/chargechain/internal/adapter/ledger"
	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/mocks"
	"github.com/seu-repo/chargechain/internal/service/auth"
	"github.com/seu-repo/chargechain/internal/service/billing"
	"github.com/seu-repo/chargechain/internal/service/charging"
	"github.com/seu-repo/chargechain/internal/service/payment"
	"github.com/seu-repo/chargechain/internal/service/reservation"
	"github.com/seu-repo/chargechain/internal/validation"
)

var (
	wallet   = flag.String("wallet", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "Wallet address to simulate")
	balance  = flag.String("balance", "1.0", "Starting ledger balance")
	hours    = flag.String("hours", "2", "Reservation duration in hours")
	verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	walkUp   = flag.Bool("walk-up", false, "Skip the reservation and start a walk-up session")
	sessionH = flag.Duration("session", 90*time.Minute, "Simulated charging time")
)

func main() {
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, "logger:", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	ctx := context.Background()

	// Virtual clock so the simulation does not wait for real charging time.
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
	chain.SetBalance(*wallet, decimal.RequireFromString(*balance))

	validator := validation.New()
	tariff, err := billing.NewTariff(billing.DefaultBaseRatePerHour)
	if err != nil {
		fatal("tariff", err)
	}
	mq := mocks.NewMockMessageQueue()

	authSvc := auth.NewService(chain, validator, cache.NewLocalCache(time.Minute, logger),
		"simulator-secret", time.Hour, 5*time.Minute, logger)
	reservationSvc := reservation.NewService(chain, validator, mq, logger)
	chargingSvc := charging.NewService(chain, validator, tariff, mq, !*walkUp, logger)
	paymentSvc := payment.NewService(chain, validator, tariff, mq, logger)

	reservationSvc.SetClock(clock)
	chargingSvc.SetClock(clock)
	paymentSvc.SetClock(clock)

	// 1. Wallet login: challenge, dev-sign, token.
	nonce, err := authSvc.Challenge(ctx, *wallet)
	if err != nil {
		fatal("challenge", err)
	}
	token, err := authSvc.Login(ctx, *wallet, ledger.DevSign(nonce, *wallet))
	if err != nil {
		fatal("login", err)
	}
	fmt.Println("logged in, token:", truncate(token, 24))

	// 2. Reserve the station starting now.
	if !*walkUp {
		res, err := reservationSvc.ReserveStation(ctx, *wallet, 1,
			now.Format(time.RFC3339), *hours)
		if err != nil {
			fatal("reserve", err)
		}
		fmt.Printf("reserved station %d: %s -> %s (%s)\n",
			res.StationID, res.StartTime.Format(time.RFC3339),
			res.EndTime.Format(time.RFC3339), res.Status)
	}

	// 3. Start charging.
	sess, err := chargingSvc.StartSession(ctx, *wallet, 1)
	if err != nil {
		fatal("start session", err)
	}
	fmt.Printf("session %d started (%s)\n", sess.SessionID, sess.Status)

	// 4. Let the virtual clock run, then end.
	now = now.Add(*sessionH)
	sess, err = chargingSvc.EndSession(ctx, *wallet, sess.SessionID)
	if err != nil {
		fatal("end session", err)
	}
	fmt.Printf("session %d ended after %.2fh, required payment %s\n",
		sess.SessionID, sess.DurationHours, sess.RequiredPayment)

	// 5. Pay exactly what the tariff demands.
	paid, err := paymentSvc.ProcessPayment(ctx, *wallet, sess.SessionID, sess.RequiredPayment.String())
	if err != nil {
		fatal("pay", err)
	}
	fmt.Printf("session %d paid %s (%s)\n", paid.SessionID, paid.AmountPaid, paid.Status)

	remaining, err := chain.GetBalance(ctx, *wallet)
	if err != nil {
		fatal("balance", err)
	}
	fmt.Println("remaining balance:", remaining)

	fmt.Printf("published %d events\n", len(mq.PublishedMessages))
}

func fatal(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
