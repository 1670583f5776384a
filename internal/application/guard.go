package application

import (
	"context"
	"errors"
	"time"

	"github.com/bookline/service-booking/internal/domain/booking"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/bookline/service-booking/internal/pkg/redislock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Candidate is a booking proposed for admission.
type Candidate struct {
	CustomerID uuid.UUID
	StaffID    uuid.UUID
	ResourceID uuid.UUID
	ServiceID  uuid.UUID
	Start      time.Time
	End        time.Time
	Notes      string
}

// ConflictGuard admits, revises and removes bookings. Every booking write goes
// through one serializable transaction that re-checks references, the service
// duration floor and schedule conflicts before persisting.
type ConflictGuard struct {
	store       booking.AdmissionStore
	locker      redislock.Locker
	logger      *zap.Logger
	maxAttempts int
}

// NewConflictGuard creates a guard over store. locker may be nil.
func NewConflictGuard(store booking.AdmissionStore, locker redislock.Locker, logger *zap.Logger) *ConflictGuard {
	if locker == nil {
		locker = redislock.NoopLocker{}
	}
	return &ConflictGuard{
		store:       store,
		locker:      locker,
		logger:      logger,
		maxAttempts: 2,
	}
}

// CheckConflict reports bookings and blocked slots overlapping q. It has no side effects.
func (g *ConflictGuard) CheckConflict(ctx context.Context, q booking.ConflictQuery) (booking.ConflictResult, error) {
	if q.Window.IsZero() {
		return booking.ConflictResult{}, booking.ErrInvalidWindow
	}
	result, err := g.findConflicts(ctx, g.store, q)
	if err != nil {
		return booking.ConflictResult{}, booking.NewStorageError(err)
	}
	return result, nil
}

// AdmitBooking validates and persists c, or rejects it.
func (g *ConflictGuard) AdmitBooking(ctx context.Context, c Candidate) (*booking.Booking, error) {
	window, err := schedule.NewTimeWindow(c.Start, c.End)
	if err != nil {
		return nil, err
	}
	bk, err := booking.NewBooking(c.CustomerID, c.StaffID, c.ResourceID, c.ServiceID, window, c.Notes)
	if err != nil {
		return nil, err
	}

	keys := scheduleKeys(bk.StaffID(), bk.ResourceID())
	err = g.withScheduleLock(ctx, keys, func(ctx context.Context) error {
		return g.runInTransaction(ctx, "admit", func(ctx context.Context, tx booking.AdmissionTx) error {
			if err := g.checkReferences(ctx, tx, referencesOf(bk)); err != nil {
				return err
			}
			if err := g.checkDuration(ctx, tx, bk); err != nil {
				return err
			}
			q := booking.ConflictQuery{StaffID: bk.StaffID(), ResourceID: bk.ResourceID(), Window: bk.Window()}
			if err := g.rejectConflicts(ctx, tx, q); err != nil {
				return err
			}
			return tx.Insert(ctx, bk)
		})
	})
	if err != nil {
		return nil, err
	}
	return bk, nil
}

// ReviseBooking merges patch into booking id and re-runs admission on the
// result. The booking never conflicts with itself, but blocked slots always apply.
func (g *ConflictGuard) ReviseBooking(ctx context.Context, id uuid.UUID, patch booking.Patch) (*booking.Booking, error) {
	if patch.WindowSelfInvalid() {
		return nil, booking.ErrInvalidWindow
	}

	current, err := g.store.FindByID(ctx, id)
	if err != nil {
		return nil, g.classify(err)
	}
	// Lock the schedules the booking leaves as well as the ones it moves to.
	keys := scheduleKeys(current.StaffID(), current.ResourceID())
	if patch.StaffID != nil {
		keys = append(keys, redislock.StaffKey(*patch.StaffID))
	}
	if patch.ResourceID != nil {
		keys = append(keys, redislock.ResourceKey(*patch.ResourceID))
	}

	var revised *booking.Booking
	err = g.withScheduleLock(ctx, keys, func(ctx context.Context) error {
		return g.runInTransaction(ctx, "revise", func(ctx context.Context, tx booking.AdmissionTx) error {
			existing, err := tx.FindByID(ctx, id)
			if err != nil {
				return err
			}
			next, err := existing.Revise(patch)
			if err != nil {
				return err
			}
			if err := g.checkReferences(ctx, tx, referencesOfPatch(patch)); err != nil {
				return err
			}
			if err := g.checkDuration(ctx, tx, next); err != nil {
				return err
			}
			if next.Status().Occupies() {
				if err := g.rejectConflicts(ctx, tx, next.ConflictQuery()); err != nil {
					return err
				}
			}
			if err := tx.Update(ctx, next); err != nil {
				return err
			}
			revised = next
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return revised, nil
}

// RemoveBooking deletes booking id and returns the removed row.
func (g *ConflictGuard) RemoveBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var removed *booking.Booking
	err := g.runInTransaction(ctx, "remove", func(ctx context.Context, tx booking.AdmissionTx) error {
		existing, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		removed = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

type reference struct {
	field string
	id    uuid.UUID
	kind  refKind
}

type refKind int

const (
	refMember refKind = iota
	refResource
	refService
)

func referencesOf(b *booking.Booking) []reference {
	return []reference{
		{"customer_id", b.CustomerID(), refMember},
		{"staff_id", b.StaffID(), refMember},
		{"resource_id", b.ResourceID(), refResource},
		{"service_id", b.ServiceID(), refService},
	}
}

func referencesOfPatch(p booking.Patch) []reference {
	var refs []reference
	if p.CustomerID != nil {
		refs = append(refs, reference{"customer_id", *p.CustomerID, refMember})
	}
	if p.StaffID != nil {
		refs = append(refs, reference{"staff_id", *p.StaffID, refMember})
	}
	if p.ResourceID != nil {
		refs = append(refs, reference{"resource_id", *p.ResourceID, refResource})
	}
	if p.ServiceID != nil {
		refs = append(refs, reference{"service_id", *p.ServiceID, refService})
	}
	return refs
}

func (g *ConflictGuard) checkReferences(ctx context.Context, tx booking.AdmissionTx, refs []reference) error {
	for _, ref := range refs {
		var (
			ok  bool
			err error
		)
		switch ref.kind {
		case refMember:
			ok, err = tx.MemberExists(ctx, ref.id)
		case refResource:
			ok, err = tx.ResourceExists(ctx, ref.id)
		case refService:
			_, ok, err = tx.ServiceDuration(ctx, ref.id)
		}
		if err != nil {
			return err
		}
		if !ok {
			return booking.NewForeignKeyError(ref.field, ref.id)
		}
	}
	return nil
}

func (g *ConflictGuard) checkDuration(ctx context.Context, tx booking.AdmissionTx, b *booking.Booking) error {
	minutes, found, err := tx.ServiceDuration(ctx, b.ServiceID())
	if err != nil {
		return err
	}
	if !found {
		return booking.NewForeignKeyError("service_id", b.ServiceID())
	}
	if minutes > 0 && !b.Window().Covers(minutes) {
		return booking.ErrDurationTooShort.WithDetails(map[string]int{
			"duration_min":      minutes,
			"requested_minutes": int(b.Window().Duration() / time.Minute),
		})
	}
	return nil
}

func (g *ConflictGuard) rejectConflicts(ctx context.Context, tx booking.AdmissionTx, q booking.ConflictQuery) error {
	result, err := g.findConflicts(ctx, tx, q)
	if err != nil {
		return err
	}
	if result.HasConflict() {
		return booking.NewConflictError(result)
	}
	return nil
}

func (g *ConflictGuard) findConflicts(ctx context.Context, finder booking.ConflictFinder, q booking.ConflictQuery) (booking.ConflictResult, error) {
	bookings, err := finder.FindConflictingBookings(ctx, q)
	if err != nil {
		return booking.ConflictResult{}, err
	}
	slots, err := finder.FindConflictingBlockedSlots(ctx, q)
	if err != nil {
		return booking.ConflictResult{}, err
	}
	result := booking.ConflictResult{Bookings: bookings, BlockedSlots: slots}
	result.Sort()
	return result, nil
}

// runInTransaction retries once when the store reports a lost serialization race.
func (g *ConflictGuard) runInTransaction(ctx context.Context, op string, fn func(ctx context.Context, tx booking.AdmissionTx) error) error {
	for attempt := 1; ; attempt++ {
		err := g.store.InTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, booking.ErrSerializationFailure) && attempt < g.maxAttempts && ctx.Err() == nil {
			g.logger.Info("retrying booking transaction after serialization failure",
				zap.String("op", op),
				zap.Int("attempt", attempt),
			)
			continue
		}
		return g.classify(err)
	}
}

// classify passes typed rejections through and turns anything else into an
// opaque storage failure.
func (g *ConflictGuard) classify(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	g.logger.Error("booking storage failure", zap.Error(err))
	return booking.NewStorageError(err)
}

func scheduleKeys(staffID, resourceID uuid.UUID) []string {
	return []string{redislock.StaffKey(staffID), redislock.ResourceKey(resourceID)}
}

// withScheduleLock runs fn under the best-effort schedule lock. When the lock
// cannot be taken fn runs anyway; the serializable transaction still decides.
func (g *ConflictGuard) withScheduleLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	err := redislock.WithLocks(ctx, g.locker, keys, fn)
	if !errors.Is(err, redislock.ErrLockUnavailable) {
		return err
	}
	g.logger.Warn("schedule lock unavailable, continuing without it",
		zap.Strings("keys", keys),
		zap.Error(err),
	)
	return fn(ctx)
}
