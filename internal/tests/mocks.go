package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"drivelink/internal/domain"
	"drivelink/internal/redis"
	"drivelink/internal/repository"
	"drivelink/internal/service"
)

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Disputes, when set, backs the dispute gate inside
	// CompleteIfConfirmedAndUndisputed, mirroring the store-side predicate.
	Disputes *MockDisputeRegistry

	// Counters for verification
	CreateCallCount   int32
	DeleteCallCount   int32
	CompleteCallCount int32

	// Error injection
	CreateError error
	GetError    error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *booking
	m.bookings[booking.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) Delete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bookings, id)
	return nil
}

func (m *MockBookingRepository) UpdateTripState(ctx context.Context, id string, from, to domain.TripState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok || booking.TripState != from {
		return false, nil
	}
	booking.TripState = to
	booking.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockBookingRepository) UpdatePaymentState(ctx context.Context, id string, state domain.PaymentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	booking.PaymentState = state
	return nil
}

func (m *MockBookingRepository) SetConfirmed(ctx context.Context, id string, party repository.ConfirmingParty, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch party {
	case repository.PartyClient:
		if !booking.ClientConfirmed {
			booking.ClientConfirmed = true
			booking.ClientConfirmedAt = at
			booking.UpdatedAt = at
		}
	case repository.PartyDriver:
		if !booking.DriverConfirmed {
			booking.DriverConfirmed = true
			booking.DriverConfirmedAt = at
			booking.UpdatedAt = at
		}
	}
	return nil
}

func (m *MockBookingRepository) CompleteIfConfirmedAndUndisputed(ctx context.Context, id string) (bool, error) {
	atomic.AddInt32(&m.CompleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return false, nil
	}
	if !booking.DriverConfirmed || !booking.ClientConfirmed {
		return false, nil
	}
	if booking.TripState == domain.TripStateCompleted || booking.TripState == domain.TripStateCancelled {
		return false, nil
	}
	if m.Disputes != nil && m.Disputes.IsOpen(id) {
		return false, nil
	}
	booking.TripState = domain.TripStateCompleted
	booking.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockBookingRepository) ListOverdueAwaitingClient(ctx context.Context, cutoff time.Time) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var overdue []*domain.Booking
	for _, b := range m.bookings {
		if b.DriverConfirmed && !b.ClientConfirmed &&
			b.TripState != domain.TripStateCompleted && b.TripState != domain.TripStateCancelled &&
			b.UpdatedAt.Before(cutoff) {
			copy := *b
			overdue = append(overdue, &copy)
		}
	}
	return overdue, nil
}

// GetBooking returns a booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// CountBookings returns the number of stored bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION REPOSITORY
// ──────────────────────────────────────────────

// MockTransactionRepository is a mock implementation of TransactionRepository.
// The reference uniqueness constraint and the claim update behave atomically,
// like their SQL counterparts.
type MockTransactionRepository struct {
	mu           sync.Mutex
	transactions map[string]*domain.Transaction // by id
	byReference  map[string]string              // reference -> id
	driverIndex  map[string]string              // booking id -> driver id

	// BeforeCreateHook, when set, runs just before the uniqueness check in
	// Create. Tests use it to interleave a competing insert.
	BeforeCreateHook func()

	// Counters for verification
	CreateCallCount int32
	ClaimCallCount  int32

	// Error injection
	CreateError          error
	ReleaseClaimError    error
	RecordSettlementError error
}

// NewMockTransactionRepository creates a new mock transaction repository.
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
		byReference:  make(map[string]string),
	}
}

// AddTransaction adds a transaction to the mock repository.
func (m *MockTransactionRepository) AddTransaction(tx *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *tx
	m.transactions[tx.ID] = &copy
	m.byReference[tx.Reference] = tx.ID
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	if m.BeforeCreateHook != nil {
		m.BeforeCreateHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byReference[tx.Reference]; exists {
		return repository.ErrDuplicateReference
	}
	copy := *tx
	m.transactions[tx.ID] = &copy
	m.byReference[tx.Reference] = tx.ID
	return nil
}

func (m *MockTransactionRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byReference[reference]
	if !ok {
		return nil, nil
	}
	copy := *m.transactions[id]
	return &copy, nil
}

func (m *MockTransactionRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.transactions {
		if tx.BookingID == bookingID {
			copy := *tx
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockTransactionRepository) Claim(ctx context.Context, bookingID string) (*domain.Transaction, error) {
	atomic.AddInt32(&m.ClaimCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.transactions {
		if tx.BookingID == bookingID && !tx.Settled {
			tx.Settled = true
			tx.UpdatedAt = time.Now()
			copy := *tx
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockTransactionRepository) ReleaseClaim(ctx context.Context, id string) error {
	if m.ReleaseClaimError != nil {
		return m.ReleaseClaimError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok || !tx.Settled {
		return repository.ErrNotFound
	}
	tx.Settled = false
	return nil
}

func (m *MockTransactionRepository) RecordSettlement(ctx context.Context, id string, driverShare, platformShare int64, transferRef string) error {
	if m.RecordSettlementError != nil {
		return m.RecordSettlementError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return repository.ErrNotFound
	}
	tx.DriverShare = driverShare
	tx.PlatformShare = platformShare
	tx.TransferReference = transferRef
	return nil
}

func (m *MockTransactionRepository) ListSettledUnpaid(ctx context.Context, driverID string) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Transaction
	for _, tx := range m.transactions {
		if tx.Settled && tx.PayoutID == "" && m.driverOf(tx.BookingID) == driverID {
			copy := *tx
			out = append(out, &copy)
		}
	}
	return out, nil
}

// SetDriverIndex maps booking ids to driver ids; ListSettledUnpaid uses it.
func (m *MockTransactionRepository) SetDriverIndex(index map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driverIndex = index
}

func (m *MockTransactionRepository) driverOf(bookingID string) string {
	if m.driverIndex == nil {
		return ""
	}
	return m.driverIndex[bookingID]
}

func (m *MockTransactionRepository) AssignPayout(ctx context.Context, payoutID string, transactionIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stamped []string
	for _, id := range transactionIDs {
		tx, ok := m.transactions[id]
		if !ok || tx.PayoutID != "" {
			continue
		}
		tx.PayoutID = payoutID
		stamped = append(stamped, id)
	}
	return stamped, nil
}

// GetTransaction returns a transaction for test assertions.
func (m *MockTransactionRepository) GetTransaction(id string) *domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil
	}
	copy := *tx
	return &copy
}

// GetByReferenceDirect returns a transaction by reference for assertions.
func (m *MockTransactionRepository) GetByReferenceDirect(reference string) *domain.Transaction {
	tx, _ := m.GetByReference(context.Background(), reference)
	return tx
}

// CountTransactions returns the number of stored transactions.
func (m *MockTransactionRepository) CountTransactions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

// ──────────────────────────────────────────────
// MOCK RESERVATION STORE
// ──────────────────────────────────────────────

// MockReservationStore is a mock implementation of the Redis reservation store.
type MockReservationStore struct {
	mu           sync.RWMutex
	reservations map[string]*domain.Reservation

	// Counters for verification
	DeleteCallCount int32

	// Error injection
	DeleteError error
}

// NewMockReservationStore creates a new mock reservation store.
func NewMockReservationStore() *MockReservationStore {
	return &MockReservationStore{
		reservations: make(map[string]*domain.Reservation),
	}
}

func (m *MockReservationStore) Put(ctx context.Context, res *domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *res
	m.reservations[res.ID] = &copy
	return nil
}

func (m *MockReservationStore) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil, nil
	}
	copy := *res
	return &copy, nil
}

func (m *MockReservationStore) Delete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reservations, id)
	return nil
}

// Has reports whether a reservation is still stored.
func (m *MockReservationStore) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.reservations[id]
	return ok
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	IncrementCallCount int32
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockDriverRepository) UpdateRecipientCode(ctx context.Context, id, recipientCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.RecipientCode = recipientCode
	return nil
}

func (m *MockDriverRepository) IncrementTripsCompleted(ctx context.Context, id string) error {
	atomic.AddInt32(&m.IncrementCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.TripsCompleted++
	return nil
}

// GetDriver returns a driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK DISPUTE REGISTRY
// ──────────────────────────────────────────────

// MockDisputeRegistry is a mock dispute registry.
type MockDisputeRegistry struct {
	mu   sync.RWMutex
	open map[string]bool
}

// NewMockDisputeRegistry creates a new mock dispute registry.
func NewMockDisputeRegistry() *MockDisputeRegistry {
	return &MockDisputeRegistry{open: make(map[string]bool)}
}

// OpenDispute marks a booking as disputed.
func (m *MockDisputeRegistry) OpenDispute(bookingID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open[bookingID] = true
}

// ResolveDispute clears a booking's dispute.
func (m *MockDisputeRegistry) ResolveDispute(bookingID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, bookingID)
}

// IsOpen reports whether a booking is disputed (test-internal helper).
func (m *MockDisputeRegistry) IsOpen(bookingID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.open[bookingID]
}

func (m *MockDisputeRegistry) HasOpenDispute(ctx context.Context, bookingID string) (bool, error) {
	return m.IsOpen(bookingID), nil
}

// ──────────────────────────────────────────────
// MOCK DISPUTE REPOSITORY
// ──────────────────────────────────────────────

// MockDisputeRepository is a mock implementation of DisputeRepository.
type MockDisputeRepository struct {
	mu       sync.RWMutex
	disputes map[string]*domain.Dispute
}

// NewMockDisputeRepository creates a new mock dispute repository.
func NewMockDisputeRepository() *MockDisputeRepository {
	return &MockDisputeRepository{disputes: make(map[string]*domain.Dispute)}
}

func (m *MockDisputeRepository) Create(ctx context.Context, dispute *domain.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *dispute
	m.disputes[dispute.ID] = &copy
	return nil
}

func (m *MockDisputeRepository) GetByID(ctx context.Context, id string) (*domain.Dispute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dispute, ok := m.disputes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *dispute
	return &copy, nil
}

func (m *MockDisputeRepository) HasOpenDispute(ctx context.Context, bookingID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.disputes {
		if d.BookingID == bookingID && d.Status == domain.DisputeStatusOpen {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockDisputeRepository) Resolve(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dispute, ok := m.disputes[id]
	if !ok {
		return repository.ErrNotFound
	}
	dispute.Status = domain.DisputeStatusResolved
	dispute.ResolvedAt = time.Now()
	return nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a mock implementation of the payment gateway.
type MockGateway struct {
	mu sync.Mutex

	// Counters for verification
	TransferCallCount int32
	RefundCallCount   int32

	// Captured arguments
	LastTransferAmount    int64
	LastTransferRecipient string
	LastTransferReference string

	// Error injection
	TransferError error
	RefundError   error
	VerifyError   error

	// Canned verification result
	VerifyResult *service.GatewayTransaction
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) InitializeCharge(ctx context.Context, email string, amount int64, metadata map[string]string) (*service.ChargeAuthorization, error) {
	return &service.ChargeAuthorization{
		AuthorizationURL: "https://checkout.example/" + metadata["reservation_id"],
		Reference:        "ref-" + metadata["reservation_id"],
	}, nil
}

func (g *MockGateway) VerifyTransaction(ctx context.Context, reference string) (*service.GatewayTransaction, error) {
	if g.VerifyError != nil {
		return nil, g.VerifyError
	}
	if g.VerifyResult != nil {
		return g.VerifyResult, nil
	}
	return &service.GatewayTransaction{Reference: reference, Status: "success"}, nil
}

func (g *MockGateway) InitiateTransfer(ctx context.Context, recipientCode string, amount int64, reference, reason string) (string, error) {
	g.mu.Lock()
	err := g.TransferError
	g.mu.Unlock()
	if err != nil {
		return "", err
	}
	atomic.AddInt32(&g.TransferCallCount, 1)
	g.mu.Lock()
	g.LastTransferAmount = amount
	g.LastTransferRecipient = recipientCode
	g.LastTransferReference = reference
	g.mu.Unlock()
	return reference, nil
}

func (g *MockGateway) Refund(ctx context.Context, reference string, amount int64) error {
	atomic.AddInt32(&g.RefundCallCount, 1)
	return g.RefundError
}

// SetTransferError swaps the injected transfer error under lock.
func (g *MockGateway) SetTransferError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.TransferError = err
}

// ──────────────────────────────────────────────
// MOCK PAYOUT REPOSITORY
// ──────────────────────────────────────────────

// MockPayoutRepository is a mock implementation of PayoutRepository.
type MockPayoutRepository struct {
	mu      sync.RWMutex
	payouts map[string]*domain.Payout
}

// NewMockPayoutRepository creates a new mock payout repository.
func NewMockPayoutRepository() *MockPayoutRepository {
	return &MockPayoutRepository{payouts: make(map[string]*domain.Payout)}
}

func (m *MockPayoutRepository) Create(ctx context.Context, payout *domain.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payout
	m.payouts[payout.ID] = &copy
	return nil
}

func (m *MockPayoutRepository) GetByID(ctx context.Context, id string) (*domain.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payout, ok := m.payouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payout
	return &copy, nil
}

func (m *MockPayoutRepository) ListByDriverID(ctx context.Context, driverID string) ([]*domain.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Payout
	for _, p := range m.payouts {
		if p.DriverID == driverID {
			copy := *p
			out = append(out, &copy)
		}
	}
	return out, nil
}

// CountPayouts returns the number of stored payouts.
func (m *MockPayoutRepository) CountPayouts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payouts)
}

// ──────────────────────────────────────────────
// FIXED COMMISSION SOURCE
// ──────────────────────────────────────────────

// FixedCommission is a CommissionSource returning a constant percentage.
type FixedCommission struct {
	Percent float64
}

func (f FixedCommission) CommissionPercent(ctx context.Context) (float64, error) {
	return f.Percent, nil
}

// Interface checks.
var (
	_ repository.BookingRepository     = (*MockBookingRepository)(nil)
	_ repository.TransactionRepository = (*MockTransactionRepository)(nil)
	_ repository.DriverRepository      = (*MockDriverRepository)(nil)
	_ repository.PayoutRepository      = (*MockPayoutRepository)(nil)
	_ repository.DisputeRepository     = (*MockDisputeRepository)(nil)
	_ redis.ReservationStoreInterface  = (*MockReservationStore)(nil)
	_ service.DisputeRegistry          = (*MockDisputeRegistry)(nil)
	_ service.Gateway                  = (*MockGateway)(nil)
	_ service.CommissionSource         = (FixedCommission{})
)
