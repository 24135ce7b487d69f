package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"observatory/internal/domain"
	"observatory/internal/pkg/clock"
)

// BookingStore is the slice of the reservation store the scheduler needs.
// The list predicates exclude terminal bookings and already-flagged ones;
// the mark operations flip a flag false -> true and report whether this call
// did the flip.
type BookingStore interface {
	ListDueDailyReminders(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	ListDueImminentReminders(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	MarkDailyReminderSent(ctx context.Context, id int64) (bool, error)
	MarkImminentReminderSent(ctx context.Context, id int64) (bool, error)
}

// Sender delivers the two reminder kinds. A send error leaves the booking's
// flag untouched so the next sweep retries it.
type Sender interface {
	NotifyDailyReminder(ctx context.Context, b *domain.Booking) error
	NotifyImminentReminder(ctx context.Context, b *domain.Booking) error
}

type Config struct {
	// Wall-clock firing time of the daily sweep.
	DailyHour   int
	DailyMinute int

	// Imminent sweep period and selection window. The window must be at
	// least as wide as the period or a booking can pass through it between
	// two sweeps without ever being selected.
	ImminentEvery     time.Duration
	ImminentWindowMin time.Duration
	ImminentWindowMax time.Duration

	// Per-booking bound on a notification attempt, so one slow send cannot
	// stall the rest of the sweep.
	NotifyTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		DailyHour:         10,
		ImminentEvery:     30 * time.Minute,
		ImminentWindowMin: 90 * time.Minute,
		ImminentWindowMax: 120 * time.Minute,
		NotifyTimeout:     30 * time.Second,
	}
}

// Scheduler owns the two recurring reminder sweeps. It is an explicit object
// with its own lifecycle and an injected clock so tests drive sweeps
// synchronously through RunDailySweep / RunImminentSweep.
type Scheduler struct {
	store  BookingStore
	sender Sender
	clock  clock.Clock
	cfg    Config

	// One mutex per sweep type: a run that has not finished when the next
	// tick fires is skipped, not stacked.
	dailyMu    sync.Mutex
	imminentMu sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(store BookingStore, sender Sender, clk clock.Clock, cfg Config) (*Scheduler, error) {
	if cfg.ImminentWindowMax <= cfg.ImminentWindowMin {
		return nil, fmt.Errorf("imminent window max %s must exceed min %s", cfg.ImminentWindowMax, cfg.ImminentWindowMin)
	}
	if cfg.ImminentWindowMax-cfg.ImminentWindowMin < cfg.ImminentEvery {
		return nil, fmt.Errorf("imminent window %s is narrower than the sweep period %s: bookings could be skipped",
			cfg.ImminentWindowMax-cfg.ImminentWindowMin, cfg.ImminentEvery)
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 30 * time.Second
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Scheduler{
		store:  store,
		sender: sender,
		clock:  clk,
		cfg:    cfg,
	}, nil
}

func (s *Scheduler) Start() {
	s.stopCh = make(chan struct{})
	s.wg.Add(2)
	go s.dailyLoop()
	go s.imminentLoop()
	log.Printf("reminder scheduler started: daily at %02d:%02d, imminent every %s",
		s.cfg.DailyHour, s.cfg.DailyMinute, s.cfg.ImminentEvery)
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	log.Println("reminder scheduler stopped")
}

func (s *Scheduler) dailyLoop() {
	defer s.wg.Done()
	for {
		next := s.nextDailyFiring(s.clock.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			if n, err := s.RunDailySweep(context.Background()); err != nil {
				log.Printf("daily reminder sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("sent %d daily booking reminders", n)
			}
		}
	}
}

func (s *Scheduler) imminentLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.ImminentEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if _, err := s.RunImminentSweep(context.Background()); err != nil {
				log.Printf("imminent reminder sweep failed: %v", err)
			}
		}
	}
}

func (s *Scheduler) nextDailyFiring(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.DailyHour, s.cfg.DailyMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunDailySweep notifies every active, un-flagged booking starting tomorrow
// (the 24-hour window from the next midnight in the clock's location). A
// failed send is logged and left un-flagged: it is retried on the next daily
// sweep, a deliberate late-reminder trade-off. Returns the number of
// successful sends.
func (s *Scheduler) RunDailySweep(ctx context.Context) (int, error) {
	if !s.dailyMu.TryLock() {
		log.Println("daily reminder sweep still running, skipping this firing")
		return 0, nil
	}
	defer s.dailyMu.Unlock()

	now := s.clock.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	to := from.Add(24 * time.Hour)

	due, err := s.store.ListDueDailyReminders(ctx, from, to)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		b := &due[i]
		if err := s.notify(ctx, b, s.sender.NotifyDailyReminder); err != nil {
			log.Printf("booking %d: daily reminder failed: %v", b.ID, err)
			continue
		}
		sent++
		if _, err := s.store.MarkDailyReminderSent(ctx, b.ID); err != nil {
			log.Printf("booking %d: marking daily reminder sent failed: %v", b.ID, err)
		}
	}
	return sent, nil
}

// RunImminentSweep notifies active, un-flagged bookings whose start falls
// between ImminentWindowMin and ImminentWindowMax from now. Returns the
// number of successful sends.
func (s *Scheduler) RunImminentSweep(ctx context.Context) (int, error) {
	if !s.imminentMu.TryLock() {
		log.Println("imminent reminder sweep still running, skipping this firing")
		return 0, nil
	}
	defer s.imminentMu.Unlock()

	now := s.clock.Now()
	due, err := s.store.ListDueImminentReminders(ctx, now, now.Add(s.cfg.ImminentWindowMax))
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		b := &due[i]
		until := b.StartTime.Sub(now)
		if until < s.cfg.ImminentWindowMin || until > s.cfg.ImminentWindowMax {
			continue
		}
		if err := s.notify(ctx, b, s.sender.NotifyImminentReminder); err != nil {
			log.Printf("booking %d: imminent reminder failed: %v", b.ID, err)
			continue
		}
		sent++
		if _, err := s.store.MarkImminentReminderSent(ctx, b.ID); err != nil {
			log.Printf("booking %d: marking imminent reminder sent failed: %v", b.ID, err)
		}
	}
	return sent, nil
}

func (s *Scheduler) notify(ctx context.Context, b *domain.Booking, send func(context.Context, *domain.Booking) error) error {
	nctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()
	return send(nctx, b)
}
