package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/domain"
)

// Gateway talks to the chain gateway, the REST facade in front of the
// charging contract. Every call runs through a circuit breaker so a dead
// gateway fails fast instead of stacking up timeouts.
type Gateway struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger

	// observeLatency, when set, receives the duration of each round trip.
	observeLatency func(operation string, d time.Duration)
}

// GatewayConfig configures the chain gateway client.
type GatewayConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func NewGateway(cfg GatewayConfig, log *zap.Logger) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "chain-gateway",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Gateway{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		log:     log,
	}
}

// SetLatencyObserver wires a metrics callback for round-trip durations.
func (g *Gateway) SetLatencyObserver(observe func(operation string, d time.Duration)) {
	g.observeLatency = observe
}

// Ping checks gateway reachability, for readiness probes.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.call(ctx, "ping", http.MethodGet, "/v1/health", nil, nil)
}

func (g *Gateway) GetUser(ctx context.Context, address string) (*domain.User, error) {
	var user domain.User
	if err := g.call(ctx, "get_user", http.MethodGet, "/v1/users/"+url.PathEscape(address), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *Gateway) RegisterUser(ctx context.Context, address, email, name string) (*domain.User, error) {
	body := map[string]string{"wallet_address": address, "email": email, "name": name}
	var user domain.User
	if err := g.call(ctx, "register_user", http.MethodPost, "/v1/users", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *Gateway) GetStation(ctx context.Context, stationID int64) (*domain.Station, error) {
	var station domain.Station
	if err := g.call(ctx, "get_station", http.MethodGet, fmt.Sprintf("/v1/stations/%d", stationID), nil, &station); err != nil {
		return nil, err
	}
	return &station, nil
}

func (g *Gateway) ListStations(ctx context.Context) ([]domain.Station, error) {
	var stations []domain.Station
	if err := g.call(ctx, "list_stations", http.MethodGet, "/v1/stations", nil, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

func (g *Gateway) GetSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	var sess domain.Session
	if err := g.call(ctx, "get_session", http.MethodGet, fmt.Sprintf("/v1/sessions/%d", sessionID), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (g *Gateway) GetReservation(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := g.call(ctx, "get_reservation", http.MethodGet, fmt.Sprintf("/v1/reservations/%d", reservationID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (g *Gateway) GetUserSessions(ctx context.Context, address string) ([]domain.Session, error) {
	var sessions []domain.Session
	if err := g.call(ctx, "get_user_sessions", http.MethodGet, "/v1/users/"+url.PathEscape(address)+"/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (g *Gateway) GetStationSessions(ctx context.Context, stationID int64) ([]domain.Session, error) {
	var sessions []domain.Session
	if err := g.call(ctx, "get_station_sessions", http.MethodGet, fmt.Sprintf("/v1/stations/%d/sessions", stationID), nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (g *Gateway) GetUserReservations(ctx context.Context, address string) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	if err := g.call(ctx, "get_user_reservations", http.MethodGet, "/v1/users/"+url.PathEscape(address)+"/reservations", nil, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (g *Gateway) GetStationReservations(ctx context.Context, stationID int64) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	if err := g.call(ctx, "get_station_reservations", http.MethodGet, fmt.Sprintf("/v1/stations/%d/reservations", stationID), nil, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (g *Gateway) StartSession(ctx context.Context, address string, stationID int64) (int64, error) {
	body := map[string]interface{}{"user_address": address, "station_id": stationID}
	var out struct {
		SessionID int64 `json:"session_id"`
	}
	if err := g.call(ctx, "start_session", http.MethodPost, "/v1/sessions", body, &out); err != nil {
		return 0, err
	}
	return out.SessionID, nil
}

func (g *Gateway) EndSession(ctx context.Context, sessionID int64) error {
	return g.call(ctx, "end_session", http.MethodPost, fmt.Sprintf("/v1/sessions/%d/end", sessionID), nil, nil)
}

func (g *Gateway) PaySession(ctx context.Context, sessionID int64, amount decimal.Decimal) error {
	body := map[string]string{"amount": amount.String()}
	return g.call(ctx, "pay_session", http.MethodPost, fmt.Sprintf("/v1/sessions/%d/pay", sessionID), body, nil)
}

func (g *Gateway) ReserveStation(ctx context.Context, address string, stationID int64, start time.Time, duration time.Duration) (int64, error) {
	body := map[string]interface{}{
		"user_address": address,
		"station_id":   stationID,
		"start_time":   start.UTC().Format(time.RFC3339),
		"duration_s":   int64(duration.Seconds()),
	}
	var out struct {
		ReservationID int64 `json:"reservation_id"`
	}
	if err := g.call(ctx, "reserve_station", http.MethodPost, "/v1/reservations", body, &out); err != nil {
		return 0, err
	}
	return out.ReservationID, nil
}

func (g *Gateway) CancelReservation(ctx context.Context, reservationID int64) error {
	return g.call(ctx, "cancel_reservation", http.MethodPost, fmt.Sprintf("/v1/reservations/%d/cancel", reservationID), nil, nil)
}

func (g *Gateway) IsStationReservedForUser(ctx context.Context, stationID int64, address string) (bool, error) {
	var out struct {
		Reserved bool `json:"reserved"`
	}
	path := fmt.Sprintf("/v1/stations/%d/reserved-for/%s", stationID, url.PathEscape(address))
	if err := g.call(ctx, "is_station_reserved_for_user", http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Reserved, nil
}

func (g *Gateway) IsStationReservedInPeriod(ctx context.Context, stationID int64, start, end time.Time) (bool, error) {
	var out struct {
		Reserved bool `json:"reserved"`
	}
	path := fmt.Sprintf("/v1/stations/%d/reserved?start=%s&end=%s",
		stationID,
		url.QueryEscape(start.UTC().Format(time.RFC3339)),
		url.QueryEscape(end.UTC().Format(time.RFC3339)),
	)
	if err := g.call(ctx, "is_station_reserved_in_period", http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Reserved, nil
}

func (g *Gateway) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	var out struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := g.call(ctx, "get_balance", http.MethodGet, "/v1/users/"+url.PathEscape(address)+"/balance", nil, &out); err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

func (g *Gateway) VerifySignature(ctx context.Context, message, signature, address string) (bool, error) {
	body := map[string]string{"message": message, "signature": signature, "address": address}
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := g.call(ctx, "verify_signature", http.MethodPost, "/v1/signatures/verify", body, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

// gatewayError is the error envelope the chain gateway returns.
type gatewayError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Required string `json:"required,omitempty"`
	Provided string `json:"provided,omitempty"`
}

// call performs one round trip through the breaker and decodes the response
// into out when non-nil.
func (g *Gateway) call(ctx context.Context, operation, method, path string, body, out interface{}) error {
	start := time.Now()
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.roundTrip(ctx, method, path, body, out)
	})
	if g.observeLatency != nil {
		g.observeLatency(operation, time.Since(start))
	}
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return domain.ErrLedger(fmt.Errorf("chain gateway unavailable: %w", err))
	}
	return err
}

func (g *Gateway) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.ErrLedger(fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return domain.ErrLedger(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.ErrLedger(fmt.Errorf("chain gateway request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return g.mapError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.ErrLedger(fmt.Errorf("failed to decode gateway response: %w", err))
	}
	return nil
}

// mapError translates the gateway's error envelope into the domain taxonomy.
// The gateway mirrors the contract's error codes, so the code string is
// authoritative; the HTTP status only picks the kind for codes we don't know.
func (g *Gateway) mapError(resp *http.Response) error {
	var ge gatewayError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(raw, &ge); err != nil || ge.Code == "" {
		return domain.ErrLedger(fmt.Errorf("chain gateway returned status %d: %s", resp.StatusCode, string(raw)))
	}

	var kind domain.ErrorKind
	switch {
	case resp.StatusCode == http.StatusNotFound:
		kind = domain.KindNotFound
	case resp.StatusCode == http.StatusConflict:
		kind = domain.KindConflict
	case resp.StatusCode == http.StatusPaymentRequired:
		kind = domain.KindInsufficientPayment
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		kind = domain.KindValidation
	default:
		return domain.ErrLedger(fmt.Errorf("chain gateway error %s: %s", ge.Code, ge.Message))
	}

	derr := &domain.Error{Kind: kind, Code: ge.Code, Message: ge.Message}
	if kind == domain.KindInsufficientPayment {
		if required, err := decimal.NewFromString(ge.Required); err == nil {
			derr.Required = required
		}
		if provided, err := decimal.NewFromString(ge.Provided); err == nil {
			derr.Provided = provided
		}
	}
	return derr
}
