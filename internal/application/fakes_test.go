package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bookline/service-booking/internal/domain/audit"
	"github.com/bookline/service-booking/internal/domain/availability"
	"github.com/bookline/service-booking/internal/domain/blockedslot"
	"github.com/bookline/service-booking/internal/domain/booking"
	"github.com/bookline/service-booking/internal/domain/catalog"
	"github.com/bookline/service-booking/internal/domain/payment"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/bookline/service-booking/internal/pkg/kafka"
	"github.com/google/uuid"
)

// memStore is an in-memory AdmissionStore with snapshot transactions. At
// commit it fails with ErrSerializationFailure if a transaction committed since
// its snapshot wrote any staff or resource key this one read or wrote.
type memStore struct {
	mu        sync.Mutex
	members   map[uuid.UUID]bool
	resources map[uuid.UUID]bool
	services  map[uuid.UUID]int
	bookings  map[uuid.UUID]*booking.Booking
	slots     map[uuid.UUID]*blockedslot.BlockedSlot
	version   int64
	commits   []commitRecord

	calls        atomic.Int64
	beforeCommit func()
	forcedFails  int
}

type commitRecord struct {
	version int64
	keys    map[uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		members:   map[uuid.UUID]bool{},
		resources: map[uuid.UUID]bool{},
		services:  map[uuid.UUID]int{},
		bookings:  map[uuid.UUID]*booking.Booking{},
		slots:     map[uuid.UUID]*blockedslot.BlockedSlot{},
	}
}

func (s *memStore) addMember() uuid.UUID {
	id := uuid.New()
	s.members[id] = true
	return id
}

func (s *memStore) addResource() uuid.UUID {
	id := uuid.New()
	s.resources[id] = true
	return id
}

func (s *memStore) addService(durationMin int) uuid.UUID {
	id := uuid.New()
	s.services[id] = durationMin
	return id
}

func (s *memStore) addSlot(slot *blockedslot.BlockedSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot.ID()] = slot
}

func (s *memStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func matchBookings(all map[uuid.UUID]*booking.Booking, q booking.ConflictQuery) []*booking.Booking {
	var out []*booking.Booking
	for _, b := range all {
		if q.Matches(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s *memStore) matchSlots(q booking.ConflictQuery) []*blockedslot.BlockedSlot {
	var out []*blockedslot.BlockedSlot
	for _, slot := range s.slots {
		if q.MatchesBlockedSlot(slot) {
			out = append(out, slot)
		}
	}
	return out
}

func (s *memStore) FindConflictingBookings(_ context.Context, q booking.ConflictQuery) ([]*booking.Booking, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return matchBookings(s.bookings, q), nil
}

func (s *memStore) FindConflictingBlockedSlots(_ context.Context, q booking.ConflictQuery) ([]*blockedslot.BlockedSlot, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchSlots(q), nil
}

func (s *memStore) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, booking.NewNotFoundError(id)
	}
	return b, nil
}

func (s *memStore) InTransaction(ctx context.Context, fn func(ctx context.Context, tx booking.AdmissionTx) error) error {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := make(map[uuid.UUID]*booking.Booking, len(s.bookings))
	for id, b := range s.bookings {
		snapshot[id] = b
	}
	tx := &memTx{
		store:    s,
		start:    s.version,
		bookings: snapshot,
		writes:   map[uuid.UUID]*booking.Booking{},
		keys:     map[uuid.UUID]bool{},
	}
	s.mu.Unlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if s.beforeCommit != nil {
		s.beforeCommit()
	}
	return s.commit(tx)
}

func (s *memStore) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forcedFails > 0 {
		s.forcedFails--
		return fmt.Errorf("commit: %w", booking.ErrSerializationFailure)
	}
	for _, rec := range s.commits {
		if rec.version <= tx.start {
			continue
		}
		for k := range tx.keys {
			if rec.keys[k] {
				return fmt.Errorf("commit: %w", booking.ErrSerializationFailure)
			}
		}
	}

	written := map[uuid.UUID]bool{}
	for id, b := range tx.writes {
		if old, ok := s.bookings[id]; ok {
			written[old.StaffID()] = true
			written[old.ResourceID()] = true
		}
		if b == nil {
			delete(s.bookings, id)
			continue
		}
		written[b.StaffID()] = true
		written[b.ResourceID()] = true
		s.bookings[id] = b
	}
	s.version++
	s.commits = append(s.commits, commitRecord{version: s.version, keys: written})
	return nil
}

type memTx struct {
	store    *memStore
	start    int64
	bookings map[uuid.UUID]*booking.Booking
	writes   map[uuid.UUID]*booking.Booking
	keys     map[uuid.UUID]bool
}

func (t *memTx) FindConflictingBookings(_ context.Context, q booking.ConflictQuery) ([]*booking.Booking, error) {
	t.store.calls.Add(1)
	t.keys[q.StaffID] = true
	t.keys[q.ResourceID] = true
	return matchBookings(t.bookings, q), nil
}

func (t *memTx) FindConflictingBlockedSlots(_ context.Context, q booking.ConflictQuery) ([]*blockedslot.BlockedSlot, error) {
	t.store.calls.Add(1)
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.matchSlots(q), nil
}

func (t *memTx) MemberExists(_ context.Context, id uuid.UUID) (bool, error) {
	t.store.calls.Add(1)
	return t.store.members[id], nil
}

func (t *memTx) ResourceExists(_ context.Context, id uuid.UUID) (bool, error) {
	t.store.calls.Add(1)
	return t.store.resources[id], nil
}

func (t *memTx) ServiceDuration(_ context.Context, id uuid.UUID) (int, bool, error) {
	t.store.calls.Add(1)
	d, ok := t.store.services[id]
	return d, ok, nil
}

func (t *memTx) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	t.store.calls.Add(1)
	b, ok := t.bookings[id]
	if !ok {
		return nil, booking.NewNotFoundError(id)
	}
	t.keys[b.StaffID()] = true
	t.keys[b.ResourceID()] = true
	return b, nil
}

func (t *memTx) Insert(_ context.Context, b *booking.Booking) error {
	t.store.calls.Add(1)
	t.bookings[b.ID()] = b
	t.writes[b.ID()] = b
	t.keys[b.StaffID()] = true
	t.keys[b.ResourceID()] = true
	return nil
}

func (t *memTx) Update(ctx context.Context, b *booking.Booking) error {
	return t.Insert(ctx, b)
}

func (t *memTx) Delete(_ context.Context, id uuid.UUID) error {
	t.store.calls.Add(1)
	delete(t.bookings, id)
	t.writes[id] = nil
	return nil
}

// failingLocker never grants a lock.
type failingLocker struct{ err error }

func (l failingLocker) Acquire(context.Context, []string) (func(), error) {
	return nil, l.err
}

// recordingLocker grants every request and remembers the keys asked for.
type recordingLocker struct {
	mu       sync.Mutex
	requests [][]string
}

func (l *recordingLocker) Acquire(_ context.Context, keys []string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, append([]string(nil), keys...))
	return func() {}, nil
}

func (l *recordingLocker) last() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.requests) == 0 {
		return nil
	}
	return l.requests[len(l.requests)-1]
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, e kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (s *memStore) List(_ context.Context, f booking.ListFilter, page, limit int) ([]*booking.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*booking.Booking
	for _, b := range s.bookings {
		if f.StaffID != nil && b.StaffID() != *f.StaffID {
			continue
		}
		if f.Status != nil && b.Status() != *f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window().Start().Before(out[j].Window().Start()) })
	total := int64(len(out))
	offset := domain.Offset(page, limit)
	if offset >= len(out) {
		return nil, total, nil
	}
	end := min(offset+limit, len(out))
	return out[offset:end], total, nil
}

func (s *memStore) CountByStatus(context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int64{}
	for _, b := range s.bookings {
		counts[b.Status().String()]++
	}
	return counts, nil
}

// memSlotRepo is an in-memory blockedslot.Repository. Transactions run one at
// a time; forcedFails makes the next transactions fail before fn runs.
type memSlotRepo struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*blockedslot.BlockedSlot

	txMu        sync.Mutex
	forcedFails int
	attempts    int
}

func newMemSlotRepo() *memSlotRepo {
	return &memSlotRepo{slots: map[uuid.UUID]*blockedslot.BlockedSlot{}}
}

func sameRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *memSlotRepo) FindByID(_ context.Context, id uuid.UUID) (*blockedslot.BlockedSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, domain.NewNotFoundError("blocked slot", id.String())
	}
	return s, nil
}

func (r *memSlotRepo) List(_ context.Context, _ blockedslot.ListFilter, page, limit int) ([]*blockedslot.BlockedSlot, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*blockedslot.BlockedSlot, 0, len(r.slots))
	for _, s := range r.slots {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *memSlotRepo) FindOverlapping(_ context.Context, subjectID, resourceID *uuid.UUID, window schedule.TimeWindow, excludeID *uuid.UUID) ([]*blockedslot.BlockedSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*blockedslot.BlockedSlot
	for id, s := range r.slots {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if sameRef(s.SubjectID(), subjectID) && sameRef(s.ResourceID(), resourceID) && s.Window().Overlaps(window) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSlotRepo) Save(_ context.Context, s *blockedslot.BlockedSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[s.ID()] = s
	return nil
}

func (r *memSlotRepo) Update(ctx context.Context, s *blockedslot.BlockedSlot) error {
	return r.Save(ctx, s)
}

func (r *memSlotRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, tx blockedslot.WriteTx) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.attempts++
	if r.forcedFails > 0 {
		r.forcedFails--
		return fmt.Errorf("commit: %w", schedule.ErrSerializationFailure)
	}
	return fn(ctx, r)
}

func (r *memSlotRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

func (r *memSlotRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, id)
	return nil
}

// storeRefs exposes memStore catalog rows as a ReferenceLookup.
type storeRefs struct{ store *memStore }

func (r storeRefs) MemberExists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.store.members[id], nil
}

func (r storeRefs) ResourceExists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.store.resources[id], nil
}

func (r storeRefs) BookingExists(_ context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	_, ok := r.store.bookings[id]
	return ok, nil
}

// memAuditRepo is an in-memory audit.Repository keyed by event id.
type memAuditRepo struct {
	mu      sync.Mutex
	entries map[string]*audit.Entry
}

func (r *memAuditRepo) Save(_ context.Context, e *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = map[string]*audit.Entry{}
	}
	if _, ok := r.entries[e.EventID]; !ok {
		r.entries[e.EventID] = e
	}
	return nil
}

func (r *memAuditRepo) List(_ context.Context, f audit.Filter, _, _ int) ([]*audit.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Entry
	for _, e := range r.entries {
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

// memMemberRepo is an in-memory catalog.MemberRepository with a unique email.
type memMemberRepo struct {
	members map[uuid.UUID]*catalog.Member
}

func newMemMemberRepo() *memMemberRepo {
	return &memMemberRepo{members: map[uuid.UUID]*catalog.Member{}}
}

func (r *memMemberRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, domain.NewNotFoundError("member", id.String())
	}
	return m, nil
}

func (r *memMemberRepo) List(_ context.Context, role *auth.Role, _, _ int) ([]*catalog.Member, int64, error) {
	var out []*catalog.Member
	for _, m := range r.members {
		if role == nil || m.Role() == *role {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memMemberRepo) Save(_ context.Context, m *catalog.Member) error {
	for _, existing := range r.members {
		if existing.Email() == m.Email() && existing.ID() != m.ID() {
			return domain.NewConflictError("member with this email already exists")
		}
	}
	r.members[m.ID()] = m
	return nil
}

func (r *memMemberRepo) Update(ctx context.Context, m *catalog.Member) error {
	return r.Save(ctx, m)
}

func (r *memMemberRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.members[id]; !ok {
		return domain.NewNotFoundError("member", id.String())
	}
	delete(r.members, id)
	return nil
}

// memAvailabilityRepo is an in-memory availability.Repository. List orders
// by day of week, then start.
type memAvailabilityRepo struct {
	windows map[uuid.UUID]*availability.Availability
}

func newMemAvailabilityRepo() *memAvailabilityRepo {
	return &memAvailabilityRepo{windows: map[uuid.UUID]*availability.Availability{}}
}

func (r *memAvailabilityRepo) FindByID(_ context.Context, id uuid.UUID) (*availability.Availability, error) {
	a, ok := r.windows[id]
	if !ok {
		return nil, domain.NewNotFoundError("availability", id.String())
	}
	return a, nil
}

func dayIndex(d availability.Weekday) int {
	for i, w := range availability.Week {
		if w == d {
			return i
		}
	}
	return len(availability.Week)
}

func (r *memAvailabilityRepo) List(_ context.Context, f availability.ListFilter, _, _ int) ([]*availability.Availability, int64, error) {
	var out []*availability.Availability
	for _, a := range r.windows {
		if f.MemberID != nil && !sameRef(a.MemberID(), f.MemberID) {
			continue
		}
		if f.ResourceID != nil && !sameRef(a.ResourceID(), f.ResourceID) {
			continue
		}
		if f.Day != nil && a.Day() != *f.Day {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := dayIndex(out[i].Day()), dayIndex(out[j].Day())
		if di != dj {
			return di < dj
		}
		return out[i].Window().Start().Before(out[j].Window().Start())
	})
	return out, int64(len(out)), nil
}

func (r *memAvailabilityRepo) Save(_ context.Context, a *availability.Availability) error {
	r.windows[a.ID()] = a
	return nil
}

func (r *memAvailabilityRepo) Update(ctx context.Context, a *availability.Availability) error {
	if _, ok := r.windows[a.ID()]; !ok {
		return domain.NewNotFoundError("availability", a.ID().String())
	}
	return r.Save(ctx, a)
}

func (r *memAvailabilityRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.windows[id]; !ok {
		return domain.NewNotFoundError("availability", id.String())
	}
	delete(r.windows, id)
	return nil
}

// memPaymentRepo is an in-memory payment.Repository. Stored payments are
// copies, so a failed service call cannot leak a half-applied update.
type memPaymentRepo struct {
	payments map[uuid.UUID]payment.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: map[uuid.UUID]payment.Payment{}}
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.NewNotFoundError("payment", id.String())
	}
	return &p, nil
}

func (r *memPaymentRepo) List(_ context.Context, f payment.ListFilter, _, _ int) ([]*payment.Payment, int64, error) {
	var out []*payment.Payment
	for id := range r.payments {
		p := r.payments[id]
		if f.BookingID != nil && p.BookingID() != *f.BookingID {
			continue
		}
		if f.Method != "" && p.Method() != f.Method {
			continue
		}
		if f.Status != nil && p.Status() != *f.Status {
			continue
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, int64(len(out)), nil
}

func (r *memPaymentRepo) Save(_ context.Context, p *payment.Payment) error {
	r.payments[p.ID()] = *p
	return nil
}

func (r *memPaymentRepo) Update(ctx context.Context, p *payment.Payment) error {
	if _, ok := r.payments[p.ID()]; !ok {
		return domain.NewNotFoundError("payment", p.ID().String())
	}
	return r.Save(ctx, p)
}

func (r *memPaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.payments[id]; !ok {
		return domain.NewNotFoundError("payment", id.String())
	}
	delete(r.payments, id)
	return nil
}

func (r *memPaymentRepo) TotalsByStatus(_ context.Context, _, _ *time.Time) ([]payment.StatusTotal, error) {
	byStatus := map[payment.Status]*payment.StatusTotal{}
	for _, p := range r.payments {
		t, ok := byStatus[p.Status()]
		if !ok {
			t = &payment.StatusTotal{Status: p.Status()}
			byStatus[p.Status()] = t
		}
		t.Count++
		t.AmountCents += p.AmountCents()
	}
	out := make([]payment.StatusTotal, 0, len(byStatus))
	for _, t := range byStatus {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}
