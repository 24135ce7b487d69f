package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"observatory/internal/domain"
)

// activeStatuses are the statuses that occupy a time slot and receive
// reminders.
var activeStatuses = []string{
	string(domain.BookingPending),
	string(domain.BookingConfirmed),
}

// BookingRepository is the reservation store. Create and UpdateStatus are the
// only writers of a booking's time and status fields; both enforce their
// invariants inside a single transaction.
type BookingRepository struct {
	db *gorm.DB

	// Serializes creates per telescope so the overlap check and the insert
	// act as one unit. Creates on different telescopes do not contend.
	createLocks sync.Map // telescope id -> *sync.Mutex
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) DB() *gorm.DB { return r.db }

func (r *BookingRepository) telescopeLock(id int64) *sync.Mutex {
	v, _ := r.createLocks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Create inserts the booking unless a pending or confirmed booking on the
// same telescope overlaps its half-open window. Overlap returns
// domain.ErrSlotConflict; of two concurrent creates for the same window
// exactly one succeeds.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	mu := r.telescopeLock(b.TelescopeID)
	mu.Lock()
	defer mu.Unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Booking{}).
			Where("telescope_id = ?", b.TelescopeID).
			Where("status IN ?", activeStatuses).
			Where("start_time < ? AND end_time > ?", b.EndTime, b.StartTime).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrSlotConflict
		}
		return tx.Create(b).Error
	})
	if err != nil {
		// On PostgreSQL the normalized slot-key unique index backs up the
		// in-process lock across instances.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_no_double_booking" {
			return domain.ErrSlotConflict
		}
		return err
	}
	return nil
}

// UpdateStatus applies the status transition graph and is the only status
// writer. Terminal bookings reject every transition.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, next domain.BookingStatus) (*domain.Booking, error) {
	var out domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if !out.Status.CanTransitionTo(next) {
			return domain.ErrInvalidTransition
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":     string(next),
			"updated_at": now,
		}
		if next == domain.BookingCancelled {
			updates["cancelled_at"] = &now
		}
		if err := tx.Model(&domain.Booking{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Telescope").
		First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBusy returns the pending and confirmed bookings on a telescope whose
// windows intersect [from, to), ordered by start time.
func (r *BookingRepository) ListBusy(ctx context.Context, telescopeID int64, from, to time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.WithContext(ctx).
		Where("telescope_id = ?", telescopeID).
		Where("status IN ?", activeStatuses).
		Where("start_time < ? AND end_time > ?", to, from).
		Order("start_time").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var rows []domain.Booking
	err := r.db.WithContext(ctx).
		Preload("Telescope").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListUpcomingForTelescope returns the next active bookings from now on,
// soonest first.
func (r *BookingRepository) ListUpcomingForTelescope(ctx context.Context, telescopeID int64, after time.Time, limit int) ([]domain.Booking, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []domain.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("telescope_id = ?", telescopeID).
		Where("status IN ?", activeStatuses).
		Where("start_time >= ?", after).
		Order("start_time").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListDueDailyReminders selects active bookings starting within [from, to)
// that have not had their daily reminder sent.
func (r *BookingRepository) ListDueDailyReminders(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	return r.listDueReminders(ctx, "daily_reminder_sent", from, to)
}

// ListDueImminentReminders is the imminent counterpart; the caller narrows
// the result to its minutes-until-start window.
func (r *BookingRepository) ListDueImminentReminders(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	return r.listDueReminders(ctx, "imminent_reminder_sent", from, to)
}

func (r *BookingRepository) listDueReminders(ctx context.Context, flagColumn string, from, to time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Telescope").
		Where("status IN ?", activeStatuses).
		Where(flagColumn+" = ?", false).
		Where("start_time >= ? AND start_time < ?", from, to).
		Order("start_time").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkDailyReminderSent flips the daily flag false -> true. The guard
// predicate makes the write idempotent and keeps terminal bookings frozen;
// the return value reports whether this call performed the flip.
func (r *BookingRepository) MarkDailyReminderSent(ctx context.Context, id int64) (bool, error) {
	return r.markReminderSent(ctx, "daily_reminder_sent", id)
}

func (r *BookingRepository) MarkImminentReminderSent(ctx context.Context, id int64) (bool, error) {
	return r.markReminderSent(ctx, "imminent_reminder_sent", id)
}

func (r *BookingRepository) markReminderSent(ctx context.Context, flagColumn string, id int64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ?", id).
		Where(flagColumn+" = ?", false).
		Where("status IN ?", activeStatuses).
		Updates(map[string]any{
			flagColumn:   true,
			"updated_at": time.Now().UTC(),
		})
	return tx.RowsAffected > 0, tx.Error
}

// BookingFilter narrows administrative listings and exports.
type BookingFilter struct {
	Status      string
	TelescopeID int64
	From        time.Time
	To          time.Time
	Page        int
	PerPage     int
}

// ListAll returns a page of bookings matching the filter plus the total
// match count.
func (r *BookingRepository) ListAll(ctx context.Context, f BookingFilter) ([]domain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Booking{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.TelescopeID > 0 {
		q = q.Where("telescope_id = ?", f.TelescopeID)
	}
	if !f.From.IsZero() {
		q = q.Where("start_time >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("start_time < ?", f.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.PerPage <= 0 || f.PerPage > 100 {
		f.PerPage = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	var rows []domain.Booking
	err := q.
		Preload("User").
		Preload("Telescope").
		Order("start_time DESC").
		Limit(f.PerPage).
		Offset((f.Page - 1) * f.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

type StatusCount struct {
	Status string `gorm:"column:status" json:"status"`
	Count  int64  `gorm:"column:count" json:"count"`
}

func (r *BookingRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Select("status, COUNT(1) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type TelescopeUsage struct {
	TelescopeID int64  `gorm:"column:telescope_id" json:"telescope_id"`
	Name        string `gorm:"column:name" json:"name"`
	Count       int64  `gorm:"column:count" json:"count"`
}

func (r *BookingRepository) UsageByTelescope(ctx context.Context) ([]TelescopeUsage, error) {
	var rows []TelescopeUsage
	q := `
SELECT b.telescope_id, t.name, COUNT(1) AS count
FROM bookings b
JOIN telescopes t ON t.id = b.telescope_id
GROUP BY b.telescope_id, t.name
ORDER BY count DESC
`
	if err := r.db.WithContext(ctx).Raw(q).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForExport streams every booking created within the window, newest
// first, with user and telescope attached for the CSV columns.
func (r *BookingRepository) ListForExport(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("Telescope").
		Order("created_at DESC")
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at <= ?", to)
	}

	var rows []domain.Booking
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
