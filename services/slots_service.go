package services

import (
	"context"
	"strings"

	"craftory-backend/apperrors"
	"craftory-backend/repository"
)

// Fixed slot tables per activity. Keys are canonical activity names; lookup
// tolerates naming variants via canonicalActivity.
var activitySlots = map[string][]string{
	"jewelry making": {"9am-11am", "11am-1pm", "2pm-4pm", "4pm-6pm"},
	"pottery wheel":  {"10am-12pm", "12pm-2pm", "3pm-5pm", "5pm-7pm"},
	"candle making":  {"11am-1pm", "2pm-4pm", "4pm-6pm"},
	"resin art":      {"10am-12pm", "1pm-3pm", "4pm-6pm"},
	"tufting":        {"9am-12pm", "1pm-4pm", "4pm-7pm"},
}

// Alias table for the naming variants the storefront has shipped under.
var activityAliases = map[string]string{
	"jewellery lab":    "jewelry making",
	"jewellery making": "jewelry making",
	"jewelry lab":      "jewelry making",
	"pottery":          "pottery wheel",
	"clay lab":         "pottery wheel",
	"candle lab":       "candle making",
	"resin lab":        "resin art",
	"rug tufting":      "tufting",
}

// NormalizeActivity lowercases and trims an activity name. Shared by the
// slot engine and the checkout flow so both sides agree on identity.
func NormalizeActivity(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// canonicalActivity resolves a user-facing activity name to a slot-table key:
// exact match, alias table, then case-insensitive substring in both
// directions (so "Jewelry Making Workshop" still resolves).
func canonicalActivity(name string) (string, bool) {
	n := NormalizeActivity(name)
	if n == "" {
		return "", false
	}
	if _, ok := activitySlots[n]; ok {
		return n, true
	}
	if canon, ok := activityAliases[n]; ok {
		return canon, true
	}
	for candidate := range activitySlots {
		if strings.Contains(n, candidate) || strings.Contains(candidate, n) {
			return candidate, true
		}
	}
	for alias, canon := range activityAliases {
		if strings.Contains(n, alias) || strings.Contains(alias, n) {
			return canon, true
		}
	}
	return "", false
}

// activityMatches reports whether a stored booking name refers to the same
// activity. A booking can be filed under its primary activity field or an
// alternate combo name, so callers check both.
func activityMatches(stored, requested string) bool {
	if strings.TrimSpace(stored) == "" {
		return false
	}
	storedCanon, okStored := canonicalActivity(stored)
	reqCanon, okReq := canonicalActivity(requested)
	if okStored && okReq {
		return storedCanon == reqCanon
	}
	s, r := NormalizeActivity(stored), NormalizeActivity(requested)
	return strings.Contains(s, r) || strings.Contains(r, s)
}

// SlotAvailability is the engine's full answer, so callers can render both
// the open and the taken state.
type SlotAvailability struct {
	Activity  string   `json:"activity"`
	Date      string   `json:"date"`
	AllSlots  []string `json:"all_slots"`
	Available []string `json:"available_slots"`
	Occupied  []string `json:"occupied_slots"`
}

// SlotService computes time-slot availability from active bookings.
type SlotService struct {
	bookings repository.BookingRepository
}

func NewSlotService(bookings repository.BookingRepository) *SlotService {
	return &SlotService{bookings: bookings}
}

// Availability returns the activity's fixed slot list minus slots held by a
// booking on that date with status pending/confirmed and payment status not
// refunded.
func (s *SlotService) Availability(ctx context.Context, activity, date string) (*SlotAvailability, error) {
	canon, ok := canonicalActivity(activity)
	if !ok {
		return nil, apperrors.Validation("unknown activity: " + activity)
	}
	if strings.TrimSpace(date) == "" {
		return nil, apperrors.Validation("date is required")
	}

	all := activitySlots[canon]

	active, err := s.bookings.ListActiveForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	occupied := make([]string, 0)
	taken := make(map[string]bool)
	for _, b := range active {
		if !activityMatches(b.Activity, canon) && !activityMatches(b.ComboName, canon) {
			continue
		}
		if !taken[b.TimeSlot] {
			taken[b.TimeSlot] = true
			occupied = append(occupied, b.TimeSlot)
		}
	}

	available := make([]string, 0, len(all))
	for _, slot := range all {
		if !taken[slot] {
			available = append(available, slot)
		}
	}

	return &SlotAvailability{
		Activity:  canon,
		Date:      date,
		AllSlots:  all,
		Available: available,
		Occupied:  occupied,
	}, nil
}

// SlotOpen reports whether one specific slot is free, used by checkout and
// reschedule to reject double-booking before money moves.
func (s *SlotService) SlotOpen(ctx context.Context, activity, date, slot string) (bool, error) {
	avail, err := s.Availability(ctx, activity, date)
	if err != nil {
		return false, err
	}
	valid := false
	for _, known := range avail.AllSlots {
		if known == slot {
			valid = true
			break
		}
	}
	if !valid {
		return false, apperrors.Validation("unknown time slot: " + slot)
	}
	for _, open := range avail.Available {
		if open == slot {
			return true, nil
		}
	}
	return false, nil
}
