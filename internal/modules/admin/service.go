package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"observatory/internal/domain"
	"observatory/internal/repository"
)

type BookingStore interface {
	ListAll(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, int64, error)
	CountByStatus(ctx context.Context) ([]repository.StatusCount, error)
	UsageByTelescope(ctx context.Context) ([]repository.TelescopeUsage, error)
	ListForExport(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
}

type Service struct {
	bookings BookingStore
}

func NewService(bookings BookingStore) *Service {
	return &Service{bookings: bookings}
}

type BookingPage struct {
	Bookings []domain.Booking `json:"bookings"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PerPage  int              `json:"per_page"`
}

func (s *Service) ListBookings(ctx context.Context, f repository.BookingFilter) (*BookingPage, error) {
	rows, total, err := s.bookings.ListAll(ctx, f)
	if err != nil {
		return nil, err
	}
	if f.PerPage <= 0 || f.PerPage > 100 {
		f.PerPage = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return &BookingPage{Bookings: rows, Total: total, Page: f.Page, PerPage: f.PerPage}, nil
}

type Stats struct {
	ByStatus    []repository.StatusCount    `json:"by_status"`
	ByTelescope []repository.TelescopeUsage `json:"by_telescope"`
	Total       int64                       `json:"total"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	byStatus, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byTelescope, err := s.bookings.UsageByTelescope(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range byStatus {
		total += c.Count
	}
	return &Stats{ByStatus: byStatus, ByTelescope: byTelescope, Total: total}, nil
}

var exportHeader = []string{
	"id", "telescope", "user_email", "start_time", "end_time",
	"status", "purpose", "created_at",
}

// ExportCSV writes bookings created in [from, to] as CSV rows.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, from, to time.Time) error {
	rows, err := s.bookings.ListForExport(ctx, from, to)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, b := range rows {
		telescope := fmt.Sprintf("#%d", b.TelescopeID)
		if b.Telescope != nil {
			telescope = b.Telescope.Name
		}
		email := ""
		if b.User != nil {
			email = b.User.Email
		}
		rec := []string{
			fmt.Sprintf("%d", b.ID),
			telescope,
			email,
			b.StartTime.UTC().Format(time.RFC3339),
			b.EndTime.UTC().Format(time.RFC3339),
			string(b.Status),
			b.Purpose,
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
