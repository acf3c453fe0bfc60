package ledger

import (
	"context"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"

	"github.com/seu-repo/chargechain/internal/domain"
)

// Memory is an in-process Ledger with the full contract semantics: station
// claim/release, reservation overlap rejection, balance debits on payment,
// revenue and lifetime-total accounting. It backs the simulator and tests.
// All calls serialize on one mutex, which doubles as the contract's
// concurrency control: of two racing starts on a station, exactly one wins.
type Memory struct {
	mu sync.Mutex

	users        map[string]*domain.User
	stations     map[int64]*domain.Station
	sessions     map[int64]*domain.Session
	reservations map[int64]*domain.Reservation
	balances     map[string]decimal.Decimal

	nextSessionID     int64
	nextReservationID int64

	clock func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]*domain.User),
		stations:     make(map[int64]*domain.Station),
		sessions:     make(map[int64]*domain.Session),
		reservations: make(map[int64]*domain.Reservation),
		balances:     make(map[string]decimal.Decimal),
		clock:        time.Now,
	}
}

// AddStation seeds a station. Not part of the Ledger port; station
// registration is an administrative action.
func (m *Memory) AddStation(station domain.Station) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if station.Reservations == nil {
		station.Reservations = make(map[string][]domain.ReservationSlot)
	}
	st := station
	m.stations[st.ID] = &st
}

// SetBalance seeds a wallet balance.
func (m *Memory) SetBalance(address string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[address] = amount
}

// SetClock overrides the time source, for tests.
func (m *Memory) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

func (m *Memory) GetUser(ctx context.Context, address string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[address]
	if !ok {
		return nil, domain.ErrUserNotFound(address)
	}
	return copyUser(user), nil
}

func (m *Memory) RegisterUser(ctx context.Context, address, email, name string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[address]; ok {
		existing.UpdateLastLogin()
		return copyUser(existing), nil
	}
	user := domain.NewUser(address, email, name)
	user.UpdateLastLogin()
	m.users[address] = user
	if _, ok := m.balances[address]; !ok {
		m.balances[address] = decimal.Zero
	}
	return copyUser(user), nil
}

func (m *Memory) GetStation(ctx context.Context, stationID int64) (*domain.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	station, ok := m.stations[stationID]
	if !ok {
		return nil, domain.ErrStationNotFound(stationID)
	}
	return copyStation(station), nil
}

func (m *Memory) ListStations(ctx context.Context) ([]domain.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.stations))
	for id := range m.stations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]domain.Station, 0, len(ids))
	for _, id := range ids {
		out = append(out, *copyStation(m.stations[id]))
	}
	return out, nil
}

func (m *Memory) GetSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound(sessionID)
	}
	s := *sess
	return &s, nil
}

func (m *Memory) GetReservation(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[reservationID]
	if !ok {
		return nil, domain.ErrReservationNotFound(reservationID)
	}
	r := *res
	return &r, nil
}

func (m *Memory) GetUserSessions(ctx context.Context, address string) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionsWhere(func(s *domain.Session) bool { return s.UserAddress == address }), nil
}

func (m *Memory) GetStationSessions(ctx context.Context, stationID int64) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionsWhere(func(s *domain.Session) bool { return s.StationID == stationID }), nil
}

func (m *Memory) GetUserReservations(ctx context.Context, address string) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reservationsWhere(func(r *domain.Reservation) bool { return r.UserAddress == address }), nil
}

func (m *Memory) GetStationReservations(ctx context.Context, stationID int64) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reservationsWhere(func(r *domain.Reservation) bool { return r.StationID == stationID }), nil
}

func (m *Memory) StartSession(ctx context.Context, address string, stationID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[address]
	if !ok {
		return 0, domain.ErrUserNotFound(address)
	}
	station, ok := m.stations[stationID]
	if !ok {
		return 0, domain.ErrStationNotFound(stationID)
	}
	if !station.Available {
		return 0, domain.ErrStationInUse(stationID)
	}

	m.nextSessionID++
	id := m.nextSessionID
	sess := &domain.Session{ID: id, UserAddress: address, StationID: stationID, Status: domain.SessionStatusPending}
	if err := sess.Start(m.clock()); err != nil {
		return 0, err
	}
	m.sessions[id] = sess
	station.StartSession(id)
	user.AddSession(id)
	return id, nil
}

func (m *Memory) EndSession(ctx context.Context, sessionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound(sessionID)
	}
	if err := sess.End(m.clock()); err != nil {
		return err
	}
	if station, ok := m.stations[sess.StationID]; ok {
		station.EndSession()
	}
	if user, ok := m.users[sess.UserAddress]; ok {
		user.RemoveSession(sessionID)
	}
	return nil
}

func (m *Memory) PaySession(ctx context.Context, sessionID int64, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound(sessionID)
	}
	balance := m.balances[sess.UserAddress]
	if balance.LessThan(amount) {
		return domain.ErrInsufficientPayment(amount, balance)
	}
	if err := sess.Pay(amount, m.clock()); err != nil {
		return err
	}

	m.balances[sess.UserAddress] = balance.Sub(amount)
	if station, ok := m.stations[sess.StationID]; ok {
		station.AddRevenue(amount)
	}
	if user, ok := m.users[sess.UserAddress]; ok {
		user.AddCharge(amount)
	}
	return nil
}

func (m *Memory) ReserveStation(ctx context.Context, address string, stationID int64, start time.Time, duration time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[address]
	if !ok {
		return 0, domain.ErrUserNotFound(address)
	}
	station, ok := m.stations[stationID]
	if !ok {
		return 0, domain.ErrStationNotFound(stationID)
	}
	if !station.Available {
		return 0, domain.ErrStationInUse(stationID)
	}

	end := start.Add(duration)
	if m.reservedInPeriod(stationID, start, end) {
		return 0, domain.ErrStationAlreadyReserved(stationID)
	}

	m.nextReservationID++
	id := m.nextReservationID
	m.reservations[id] = &domain.Reservation{
		ID:          id,
		UserAddress: address,
		StationID:   stationID,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
	}
	station.AddReservation(address, start.UTC(), end.UTC())
	user.AddReservation(id)
	return id, nil
}

func (m *Memory) CancelReservation(ctx context.Context, reservationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.reservations[reservationID]
	if !ok {
		return domain.ErrReservationNotFound(reservationID)
	}
	if res.Cancelled {
		return domain.ErrValidation("reservation %d is already cancelled", reservationID)
	}
	res.Cancelled = true
	if station, ok := m.stations[res.StationID]; ok {
		station.RemoveReservation(res.UserAddress, res.StartTime, res.EndTime)
	}
	if user, ok := m.users[res.UserAddress]; ok {
		user.RemoveReservation(reservationID)
	}
	return nil
}

// IsStationReservedForUser answers from the station's reservation calendar,
// which ReserveStation and CancelReservation keep in step with the
// reservation rows.
func (m *Memory) IsStationReservedForUser(ctx context.Context, stationID int64, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	station, ok := m.stations[stationID]
	if !ok {
		return false, nil
	}
	holder := station.ReservationHolderAt(m.clock().UTC())
	return holder != "" && holder == address, nil
}

func (m *Memory) IsStationReservedInPeriod(ctx context.Context, stationID int64, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reservedInPeriod(stationID, start, end), nil
}

func (m *Memory) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[address]
	if !ok {
		return decimal.Zero, nil
	}
	return balance, nil
}

// VerifySignature accepts the deterministic development signature produced by
// DevSign. Real signature recovery lives behind the chain gateway.
func (m *Memory) VerifySignature(ctx context.Context, message, signature, address string) (bool, error) {
	return signature == DevSign(message, address), nil
}

// DevSign produces the development signature the in-memory ledger accepts.
func DevSign(message, address string) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(message))
	hash.Write([]byte(address))
	return "0x" + hex.EncodeToString(hash.Sum(nil))
}

func (m *Memory) reservedInPeriod(stationID int64, start, end time.Time) bool {
	for _, res := range m.reservations {
		if res.StationID != stationID || res.Cancelled {
			continue
		}
		if res.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (m *Memory) sessionsWhere(match func(*domain.Session) bool) []domain.Session {
	ids := make([]int64, 0)
	for id, sess := range m.sessions {
		if match(sess) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.sessions[id])
	}
	return out
}

func (m *Memory) reservationsWhere(match func(*domain.Reservation) bool) []domain.Reservation {
	ids := make([]int64, 0)
	for id, res := range m.reservations {
		if match(res) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]domain.Reservation, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.reservations[id])
	}
	return out
}

func copyUser(u *domain.User) *domain.User {
	out := *u
	out.ActiveSessions = append([]int64(nil), u.ActiveSessions...)
	out.ActiveReservations = append([]int64(nil), u.ActiveReservations...)
	return &out
}

func copyStation(s *domain.Station) *domain.Station {
	out := *s
	out.Reservations = make(map[string][]domain.ReservationSlot, len(s.Reservations))
	for k, v := range s.Reservations {
		out.Reservations[k] = append([]domain.ReservationSlot(nil), v...)
	}
	return &out
}
