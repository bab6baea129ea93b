package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

// Store persists performance records.
type Store interface {
	// Insert adds records in order and returns how many were committed. The first
	// duplicate stops the batch with a *record.DuplicateError; earlier records stay committed.
	Insert(ctx context.Context, recs []record.PerformanceRecord) (int, error)
	// Query returns matching records, newest first.
	Query(ctx context.Context, f Filter) ([]record.PerformanceRecord, error)
	DeleteByName(ctx context.Context, name string) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	// ResetAll removes every record and restarts id assignment.
	ResetAll(ctx context.Context) error
	Stats(ctx context.Context) (*Stats, error)
	Students(ctx context.Context) ([]string, error)
	Close() error
}

// Filter selects records by exact field match. Empty fields match everything.
type Filter struct {
	Name    string       `json:"name,omitempty"`
	Subject string       `json:"subject,omitempty"`
	Track   record.Track `json:"track,omitempty"`
}

// NewFilter builds a Filter from user input. A non-blank track must name a known track.
func NewFilter(name, subject, track string) (Filter, error) {
	f := Filter{Name: strings.TrimSpace(name), Subject: strings.TrimSpace(subject)}
	if strings.TrimSpace(track) != "" {
		t, ok := record.LookupTrack(track)
		if !ok {
			return Filter{}, fmt.Errorf("unknown track %q (use JEE or NEET)", track)
		}
		f.Track = t
	}
	return f, nil
}

// Stats summarizes the contents of a store.
type Stats struct {
	TotalRecords int                  `json:"total_records"`
	Students     int                  `json:"students"`
	Subjects     int                  `json:"subjects"`
	PerTrack     map[record.Track]int `json:"per_track"`
	LatestEntry  time.Time            `json:"latest_entry"`
}

// DedupPolicy decides which inserts count as duplicates.
type DedupPolicy string

const (
	// DedupContent rejects a record whose every field except id and created_at matches a stored one.
	DedupContent DedupPolicy = "content"
	// DedupNone accepts every record.
	DedupNone DedupPolicy = "none"
)

// ParseDedupPolicy validates a policy name. Blank means DedupContent.
func ParseDedupPolicy(s string) (DedupPolicy, error) {
	switch DedupPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DedupContent:
		return DedupContent, nil
	case DedupNone:
		return DedupNone, nil
	}
	return "", fmt.Errorf("unknown dedup policy %q (use %q or %q)", s, DedupContent, DedupNone)
}
