package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/room"
)

// History answers "what happened in this room" questions on top of whichever
// event provider serves the room.
type History struct {
	providers *ProviderSelector
}

func NewHistory(providers *ProviderSelector) *History {
	return &History{providers: providers}
}

// LatestEditorContent returns the newest code-editor state of the room. Two
// candidate event types are merged: the frontend-origin content change and
// the backend-origin editor toggle; whichever is newer wins.
func (h *History) LatestEditorContent(ctx context.Context, roomID uuid.UUID, from, to *time.Time) (*room.Record, error) {
	p := h.providers.For(ctx, roomID)

	change, err := p.GetLatest(ctx, event.TypeCodeEditorChange, roomID, from, to)
	if err != nil {
		return nil, fmt.Errorf("latest editor content: %w", err)
	}
	toggle, err := p.GetLatest(ctx, event.TypeCodeEditorToggle, roomID, from, to)
	if err != nil {
		return nil, fmt.Errorf("latest editor content: %w", err)
	}

	switch {
	case change == nil:
		return toggle, nil
	case toggle == nil:
		return change, nil
	case recordNewer(*toggle, *change):
		return toggle, nil
	default:
		return change, nil
	}
}

// Interval is one active window of a question: [From, To). An interval still
// open at query time is closed at "now".
type Interval struct {
	From time.Time
	To   time.Time
}

// questionRef is the payload fragment shared by question lifecycle events.
type questionRef struct {
	QuestionID uuid.UUID `json:"question_id"`
}

// ActiveIntervals reconstructs when the question was active inside the room:
// each "became active" timestamp pairs with the next "became inactive"
// timestamp for the same question, or with now if none arrived yet.
func (h *History) ActiveIntervals(ctx context.Context, roomID, questionID uuid.UUID, now time.Time) ([]Interval, error) {
	p := h.providers.For(ctx, roomID)

	actives, err := h.questionTimes(ctx, p, event.TypeQuestionActive, roomID, questionID)
	if err != nil {
		return nil, fmt.Errorf("active intervals: %w", err)
	}
	inactives, err := h.questionTimes(ctx, p, event.TypeQuestionInactive, roomID, questionID)
	if err != nil {
		return nil, fmt.Errorf("active intervals: %w", err)
	}

	slices.SortFunc(actives, time.Time.Compare)
	slices.SortFunc(inactives, time.Time.Compare)

	var intervals []Interval
	next := 0
	for _, from := range actives {
		// Skip deactivations that predate this activation.
		for next < len(inactives) && inactives[next].Before(from) {
			next++
		}
		if next < len(inactives) {
			intervals = append(intervals, Interval{From: from, To: inactives[next]})
			next++
			continue
		}
		// Still active: the open interval ends at the query instant.
		intervals = append(intervals, Interval{From: from, To: now})
	}
	return intervals, nil
}

func (h *History) questionTimes(ctx context.Context, p room.EventQuerier, eventType string, roomID, questionID uuid.UUID) ([]time.Time, error) {
	recs, err := p.GetEvents(ctx, eventType, roomID, nil, nil)
	if err != nil {
		return nil, err
	}

	var times []time.Time
	for _, rec := range recs {
		var ref questionRef
		if err := json.Unmarshal([]byte(rec.Payload), &ref); err != nil {
			// Malformed history entries are skipped, not fatal.
			continue
		}
		if ref.QuestionID == questionID {
			times = append(times, rec.CreatedAt)
		}
	}
	return times, nil
}

func recordNewer(a, b room.Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}
