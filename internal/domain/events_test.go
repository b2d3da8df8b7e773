package domain

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBaseEvent(t *testing.T) {
	userID := uuid.New()
	event := NewBaseEvent("test.created", userID)

	t.Run("EventID is unique", func(t *testing.T) {
		if event.EventID() == uuid.Nil {
			t.Error("EventID() should not be nil")
		}
		if NewBaseEvent("test.created", userID).EventID() == event.EventID() {
			t.Error("EventID() should differ between events")
		}
	})

	t.Run("EventType", func(t *testing.T) {
		if event.EventType() != "test.created" {
			t.Errorf("EventType() = %q, want test.created", event.EventType())
		}
	})

	t.Run("OccurredAt is set", func(t *testing.T) {
		if event.OccurredAt().IsZero() {
			t.Error("OccurredAt() should not be zero")
		}
		if event.OccurredAt().After(time.Now()) {
			t.Error("OccurredAt() should not be in the future")
		}
	})

	t.Run("AggregateID", func(t *testing.T) {
		if event.AggregateID() != userID {
			t.Errorf("AggregateID() = %v, want %v", event.AggregateID(), userID)
		}
	})
}

func TestEventDispatcher(t *testing.T) {
	t.Run("Subscribe and Publish", func(t *testing.T) {
		dispatcher := NewEventDispatcher()
		var received Event

		dispatcher.Subscribe("test.event", func(e Event) {
			received = e
		})

		event := NewBaseEvent("test.event", uuid.New())
		dispatcher.Publish(event)

		if received == nil {
			t.Fatal("handler was not called")
		}
		if received.EventID() != event.EventID() {
			t.Errorf("received event ID = %v, want %v", received.EventID(), event.EventID())
		}
	})

	t.Run("handlers for other types are skipped", func(t *testing.T) {
		dispatcher := NewEventDispatcher()
		called := false
		dispatcher.Subscribe("other.event", func(e Event) { called = true })

		dispatcher.Publish(NewBaseEvent("test.event", uuid.New()))

		if called {
			t.Error("handler for other.event should not be called")
		}
	})

	t.Run("SubscribeAll receives every event", func(t *testing.T) {
		dispatcher := NewEventDispatcher()
		var count int
		dispatcher.SubscribeAll(func(e Event) { count++ })

		dispatcher.Publish(NewBaseEvent("a", uuid.New()))
		dispatcher.Publish(NewBaseEvent("b", uuid.New()))

		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})

	t.Run("concurrent publish", func(t *testing.T) {
		dispatcher := NewEventDispatcher()
		var mu sync.Mutex
		count := 0
		dispatcher.SubscribeAll(func(e Event) {
			mu.Lock()
			count++
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				dispatcher.Publish(NewBaseEvent("x", uuid.New()))
			}()
		}
		wg.Wait()

		if count != 50 {
			t.Errorf("count = %d, want 50", count)
		}
	})
}

func TestLearnerEvents(t *testing.T) {
	userID := uuid.New()

	t.Run("SessionRecordedEvent", func(t *testing.T) {
		event := NewSessionRecordedEvent(ConversationMetrics{
			UserID:            userID,
			SessionID:         "s-9",
			DifficultyLevelID: "b2-upper",
			UserFeedback:      FeedbackTooEasy,
		})

		if event.EventType() != EventSessionRecorded {
			t.Errorf("EventType() = %q, want %q", event.EventType(), EventSessionRecorded)
		}
		if event.AggregateID() != userID {
			t.Errorf("AggregateID() = %v, want %v", event.AggregateID(), userID)
		}
		if event.SessionID != "s-9" || event.LevelID != "b2-upper" {
			t.Errorf("event = %+v", event)
		}
	})

	t.Run("RecommendationIssuedEvent", func(t *testing.T) {
		rec := NewRecommendationRecord(userID, AdjustmentRecommendation{NewDifficultyID: "b2-fluent"}, 3)
		rec.MarkApplied()
		event := NewRecommendationIssuedEvent(rec)

		if event.EventType() != EventRecommendationIssued {
			t.Errorf("EventType() = %q, want %q", event.EventType(), EventRecommendationIssued)
		}
		if event.RecommendationID != rec.ID || !event.Applied {
			t.Errorf("event = %+v", event)
		}
	})

	t.Run("LevelChangedEvent", func(t *testing.T) {
		event := NewLevelChangedEvent(userID, "a1-starter", "a1-explorer", LevelChangeAuto)

		if event.EventType() != EventLevelChanged {
			t.Errorf("EventType() = %q, want %q", event.EventType(), EventLevelChanged)
		}
		if event.FromLevelID != "a1-starter" || event.ToLevelID != "a1-explorer" || event.Source != LevelChangeAuto {
			t.Errorf("event = %+v", event)
		}
	})
}
