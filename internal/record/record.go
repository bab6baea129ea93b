package record

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Track is the exam category a student prepares for.
type Track string

const (
	TrackJEE  Track = "JEE"
	TrackNEET Track = "NEET"
)

// Tracks lists the known tracks in display order.
var Tracks = []Track{TrackJEE, TrackNEET}

// ParseTrack maps free text to a Track. Blank or unrecognized input yields JEE.
func ParseTrack(s string) Track {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(TrackNEET):
		return TrackNEET
	default:
		return TrackJEE
	}
}

// LookupTrack is like ParseTrack but reports whether s named a known track.
func LookupTrack(s string) (Track, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(TrackJEE):
		return TrackJEE, true
	case string(TrackNEET):
		return TrackNEET, true
	}
	return "", false
}

// Canonical column names shared by the import format, the export format and manual entry.
const (
	ColName         = "Name"
	ColTrack        = "Course"
	ColMonth        = "Month"
	ColDate         = "Date"
	ColSubject      = "Subject"
	ColTopic        = "Topic"
	ColRank         = "Rank"
	ColPercentage   = "Percentage"
	ColMarks        = "Marks"
	ColAverageMarks = "Average_Marks"
	ColHighestMark  = "Highest_Mark"
	ColExamType     = "Exam_Type"
)

// RequiredColumns must be present in every import header and every manual entry.
var RequiredColumns = []string{ColName, ColSubject, ColMarks, ColHighestMark}

// OptionalColumns may be omitted from imports; defaults are applied.
var OptionalColumns = []string{ColTrack, ColMonth, ColDate, ColTopic, ColRank, ColAverageMarks, ColExamType, ColPercentage}

// DateLayout is the DD/MM/YYYY form exam dates are stored in.
const DateLayout = "02/01/2006"

// DefaultExamType is used when an import carries no exam type at all.
const DefaultExamType = "DCT"

// PerformanceRecord is one exam result for one student.
type PerformanceRecord struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name" validate:"required"`
	Track        Track     `json:"track" validate:"oneof=JEE NEET"`
	Month        string    `json:"month"`
	Date         string    `json:"date"`
	Subject      string    `json:"subject" validate:"required"`
	Topic        string    `json:"topic"`
	Rank         int       `json:"rank"`
	Percentage   float64   `json:"percentage"`
	Marks        float64   `json:"marks"`
	AverageMarks float64   `json:"average_marks"`
	HighestMark  float64   `json:"highest_mark"`
	ExamType     string    `json:"exam_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// DedupKey is every field of a record except its surrogate id and creation timestamp.
type DedupKey struct {
	Name         string
	Track        Track
	Month        string
	Date         string
	Subject      string
	Topic        string
	Rank         int
	Percentage   float64
	Marks        float64
	AverageMarks float64
	HighestMark  float64
	ExamType     string
}

// Key returns the dedup key of r.
func (r PerformanceRecord) Key() DedupKey {
	return DedupKey{
		Name:         r.Name,
		Track:        r.Track,
		Month:        r.Month,
		Date:         r.Date,
		Subject:      r.Subject,
		Topic:        r.Topic,
		Rank:         r.Rank,
		Percentage:   r.Percentage,
		Marks:        r.Marks,
		AverageMarks: r.AverageMarks,
		HighestMark:  r.HighestMark,
		ExamType:     r.ExamType,
	}
}

// ParsedDate parses Date as DD/MM/YYYY.
func (r PerformanceRecord) ParsedDate() (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(r.Date))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DerivePercentage computes marks as a share of the highest mark, or 0 when highest is not positive.
func DerivePercentage(marks, highest float64) float64 {
	if highest > 0 {
		return marks / highest * 100
	}
	return 0
}

// ParseNumber parses a human-entered number. Percent signs are ignored and the
// decimal separator is detected per value ("85,5", "1.000,5" and "1,000.5" all parse).
// A lone comma followed by exactly three digits ("1,000") is ambiguous and rejected.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	if cpos >= 0 && (dpos < 0 || cpos > dpos) {
		dec = ','
	}
	if dpos < 0 && cpos >= 0 && strings.Count(raw, ",") == 1 && isDigits(raw[cpos+1:]) && len(raw)-cpos-1 == 3 {
		return 0, false
	}
	// Remove thousands separators that differ from the decimal one
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FormatNumber renders f in the shortest form that parses back to the same value.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
