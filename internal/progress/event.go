package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageCrawlStart  Stage = "CRAWL_START"
	StagePageVisited Stage = "PAGE_VISITED"
	StagePageMissing Stage = "PAGE_MISSING"
	StageEdgeAdded   Stage = "EDGE_ADDED"
	StageCrawlDone   Stage = "CRAWL_DONE"
	StageCrawlError  Stage = "CRAWL_ERROR"
)

// Event captures a single step of crawl progress.
type Event struct {
	// CrawlID identifies the crawl run in 16-byte UUID form.
	CrawlID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS    time.Time
	Stage Stage
	// Page is the page being visited, or the source of an edge.
	Page string
	// Target is the edge destination for StageEdgeAdded.
	Target string
	// Links is the outbound link count reported for a visited page.
	Links int
	// Dur is the lookup latency for page events and the wall time for
	// crawl completion events.
	Dur time.Duration
	// Note carries error text for StageCrawlError.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.CrawlID == [16]byte{} {
		return errors.New("crawl id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageCrawlStart, StageCrawlDone, StageCrawlError:
	case StagePageVisited, StagePageMissing:
		if e.Page == "" {
			return fmt.Errorf("%s requires page", e.Stage)
		}
	case StageEdgeAdded:
		if e.Page == "" || e.Target == "" {
			return errors.New("edge event requires page and target")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// CrawlUUID converts the binary crawl ID back to a uuid.UUID.
func (e Event) CrawlUUID() uuid.UUID {
	return uuid.UUID(e.CrawlID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
