package service

import (
	"context"
	"fmt"
	"time"

	"medibook/pkg/config"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
	"medibook/pkg/timeslot"
)

// ProviderCalendar resolves a provider and interprets their working pattern.
type ProviderCalendar interface {
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	EffectiveAvailability(p *model.Provider) model.Availability
	IsWorkingDay(availability model.Availability, date time.Time) bool
}

// BookedTimesSource reads the occupied slots of one provider-day. Returned
// strings may be in either clock form.
type BookedTimesSource interface {
	FindBookedTimes(ctx context.Context, providerID, date string) ([]string, error)
}

// Slot is one open slot in both clock forms. UIs render the 12-hour form
// and post the 24-hour form back when booking.
type Slot struct {
	Time24 string `json:"time24"`
	Time12 string `json:"time12"`
}

// DaySlots is one provider-day of open slots in chronological order. Note
// explains an empty list when the day itself is closed.
type DaySlots struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
	Note  string `json:"note,omitempty"`
}

// NextSlot is the earliest open slot inside the search horizon.
type NextSlot struct {
	Label  string `json:"label"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Time12 string `json:"time12"`
}

type AvailabilityService interface {
	AvailableSlots(ctx context.Context, providerID, date string) (*DaySlots, error)
	NextAvailable(ctx context.Context, providerID string) (*NextSlot, error)
}

type availabilityService struct {
	calendar ProviderCalendar
	booked   BookedTimesSource
	cfg      *config.Config
	now      func() time.Time
}

func NewAvailabilityService(
	calendar ProviderCalendar,
	booked BookedTimesSource,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		calendar: calendar,
		booked:   booked,
		cfg:      cfg,
		now:      time.Now,
	}
}

// AvailableSlots is a read-only snapshot: it takes no locks, so a slot it
// reports can be claimed before the caller books it. The booking path
// re-checks under its lock.
func (s *availabilityService) AvailableSlots(ctx context.Context, providerID, date string) (*DaySlots, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	day, err := timeslot.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	provider, err := s.calendar.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	return s.daySlots(ctx, provider, day)
}

func (s *availabilityService) daySlots(ctx context.Context, provider *model.Provider, day time.Time) (*DaySlots, error) {
	date := timeslot.FormatDate(day)
	availability := s.calendar.EffectiveAvailability(provider)

	if !s.calendar.IsWorkingDay(availability, day) {
		return &DaySlots{
			Date:  date,
			Slots: []Slot{},
			Note:  fmt.Sprintf("Provider is not available on %s", timeslot.WeekdayName(day)),
		}, nil
	}

	start, err := timeslot.Parse24(availability.StartTime)
	if err != nil {
		return nil, apperrors.Internal("Provider schedule has an invalid start time", err)
	}
	end, err := timeslot.Parse24(availability.EndTime)
	if err != nil {
		return nil, apperrors.Internal("Provider schedule has an invalid end time", err)
	}

	bookedTimes, err := s.booked.FindBookedTimes(ctx, provider.ID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load booked times",
			"provider_id", provider.ID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load booked slots", err)
	}

	// Canonicalize stored clock strings so "2:30 PM" blocks "14:30".
	booked := make(map[timeslot.TimeOfDay]struct{}, len(bookedTimes))
	for _, raw := range bookedTimes {
		tod, err := timeslot.Parse(raw)
		if err != nil {
			s.cfg.Log.Warn("Skipping unparseable booked time",
				"provider_id", provider.ID,
				"date", date,
				"time", raw,
			)
			continue
		}
		booked[tod] = struct{}{}
	}

	now := s.now()
	sameDay := timeslot.SameDate(day, now)
	nowTod := timeslot.MinutesOfDay(now)

	slots := []Slot{}
	for _, slot := range timeslot.Grid(start, end, availability.SlotDurationMin) {
		if _, taken := booked[slot]; taken {
			continue
		}
		if sameDay && slot < nowTod {
			continue
		}
		slots = append(slots, Slot{Time24: slot.Format24(), Time12: slot.Format12()})
	}

	return &DaySlots{Date: date, Slots: slots}, nil
}

// NextAvailable scans forward day by day from today and returns the first
// open slot, or nil when the whole search horizon is booked out.
func (s *availabilityService) NextAvailable(ctx context.Context, providerID string) (*NextSlot, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	provider, err := s.calendar.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for offset := 0; offset < s.cfg.SearchHorizonDays; offset++ {
		day := today.AddDate(0, 0, offset)

		daySlots, err := s.daySlots(ctx, provider, day)
		if err != nil {
			return nil, err
		}
		if len(daySlots.Slots) == 0 {
			continue
		}

		first := daySlots.Slots[0]
		return &NextSlot{
			Label:  dayLabel(day, offset),
			Date:   daySlots.Date,
			Time:   first.Time24,
			Time12: first.Time12,
		}, nil
	}

	return nil, nil
}

func dayLabel(day time.Time, offset int) string {
	switch offset {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	}
	return day.Format("Mon, Jan 2")
}
