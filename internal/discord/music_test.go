package discord

import (
	"fmt"
	"strings"
	"testing"

	"github.com/keshon/maestro/internal/music/queue"
)

func TestQueueDescriptionShowsFullRemainder(t *testing.T) {
	q := queue.New()
	for n := 0; n < 15; n++ {
		q.Enqueue(queue.Track{
			Title: fmt.Sprintf("track %d", n),
			URL:   fmt.Sprintf("https://example.com/%d", n),
		})
	}

	desc := queueDescription(q.View(10))
	if !strings.Contains(desc, "and 4 more") {
		t.Fatalf("description should report the 4 tracks beyond the limit, got:\n%s", desc)
	}

	for n := 0; n < 15; n++ {
		q.Enqueue(queue.Track{
			Title: fmt.Sprintf("extra %d", n),
			URL:   fmt.Sprintf("https://example.com/x%d", n),
		})
	}
	desc = queueDescription(q.View(10))
	if !strings.Contains(desc, "and 19 more") {
		t.Fatalf("description should report the 19 tracks beyond the limit, got:\n%s", desc)
	}
}

func TestQueueDescriptionOmitsRemainderWhenEverythingFits(t *testing.T) {
	q := queue.New()
	for n := 0; n < 5; n++ {
		q.Enqueue(queue.Track{
			Title: fmt.Sprintf("track %d", n),
			URL:   fmt.Sprintf("https://example.com/%d", n),
		})
	}

	desc := queueDescription(q.View(10))
	if strings.Contains(desc, "more") {
		t.Fatalf("description should have no remainder line, got:\n%s", desc)
	}
	if !strings.Contains(desc, "**Now:**") {
		t.Fatalf("description should show the current track, got:\n%s", desc)
	}
}
