package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"parentpal_backend/internal/services/dto"
)

// FallbackParser is the deterministic extraction path used when the
// completion service is unavailable or returns unusable output. It guarantees
// every message yields at least one candidate, so no message is silently
// discarded with zero record.
type FallbackParser struct{}

func NewFallbackParser() *FallbackParser {
	return &FallbackParser{}
}

// eventKeywords classify a message as event-bearing.
var eventKeywords = []string{
	"trip",
	"match", "game", "tournament",
	"concert", "recital",
	"meeting", "assembly",
	"deadline", "due", "submission",
	"picture day",
	"sports day",
	"graduation",
}

var actionKeywords = []string{"deadline", "due", "submit"}

var cancelKeywords = []string{"cancel", "postpone"}

// Date patterns, applied in order; the first match in the body wins.
var (
	monthNameDate = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`)
	numericDate   = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	isoDate       = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// capitalizedName matches a capitalized word pair or single word that could
// be a child's name.
var capitalizedName = regexp.MustCompile(`\b([A-Z][a-z]+)(?:\s+([A-Z][a-z]+))?\b`)

// nameStoplist holds capitalized words that are never child names.
var nameStoplist = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"dear": true, "hello": true, "hi": true, "please": true, "thank": true,
	"thanks": true, "regards": true, "sincerely": true,
	"school": true, "parents": true, "parent": true, "families": true,
	"students": true, "student": true, "teacher": true, "teachers": true,
	"class": true, "grade": true, "room": true, "office": true,
	"picture": true, "day": true, "reminder": true, "trip": true,
	"field": true, "sports": true, "game": true, "meeting": true,
	"assembly": true, "concert": true, "recital": true, "graduation": true,
	"the": true, "this": true, "that": true, "your": true, "our": true,
	"all": true, "we": true, "it": true, "a": true, "an": true,
	"today": true, "tomorrow": true, "next": true, "week": true,
}

const descriptionLimit = 200

// Parse builds candidates from the message text alone. ingestedAt is the
// default event date when none can be found.
func (p *FallbackParser) Parse(subject, body string, ingestedAt time.Time) []dto.EventCandidate {
	combined := strings.ToLower(subject + " " + body)

	title := strings.TrimSpace(subject)
	if title == "" {
		title = "School communication"
	}

	candidate := dto.EventCandidate{
		Title:       title,
		Description: truncate(strings.TrimSpace(body), descriptionLimit),
		EventDate:   ingestedAt.Format("2006-01-02"),
	}

	if !containsAny(combined, eventKeywords) {
		// Not event-bearing: a generic communication record
		candidate.Raw = fallbackPayload(candidate, "communication")
		return []dto.EventCandidate{candidate}
	}

	if date, ok := p.extractDate(body); ok {
		candidate.EventDate = date.Format("2006-01-02")
	}
	candidate.ChildName = p.extractChildName(body)
	candidate.RequiresAction = containsAny(combined, actionKeywords)
	candidate.IsCanceled = containsAny(combined, cancelKeywords)

	candidate.Raw = fallbackPayload(candidate, "event")
	return []dto.EventCandidate{candidate}
}

// extractDate applies the ordered date patterns to the body and returns the
// first parseable match.
func (p *FallbackParser) extractDate(body string) (time.Time, bool) {
	if m := monthNameDate.FindStringSubmatch(body); m != nil {
		month := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		raw := fmt.Sprintf("%s %s %s", month, m[2], m[3])
		if t, err := time.Parse("January 2 2006", raw); err == nil {
			return t, true
		}
	}

	if m := numericDate.FindStringSubmatch(body); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		raw := fmt.Sprintf("%s/%s/%s", m[1], m[2], year)
		if t, err := time.Parse("1/2/2006", raw); err == nil {
			return t, true
		}
	}

	if m := isoDate.FindStringSubmatch(body); m != nil {
		if t, err := time.Parse("2006-01-02", m[0]); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// extractChildName returns the first plausible capitalized name in the body,
// skipping stoplisted words.
func (p *FallbackParser) extractChildName(body string) string {
	for _, m := range capitalizedName.FindAllStringSubmatch(body, -1) {
		first, second := m[1], m[2]
		if nameStoplist[strings.ToLower(first)] {
			continue
		}
		if second != "" && !nameStoplist[strings.ToLower(second)] {
			return first + " " + second
		}
		return first
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// fallbackPayload records how the candidate was produced, mirroring the audit
// payload the completion path stores.
func fallbackPayload(c dto.EventCandidate, kind string) json.RawMessage {
	payload, _ := json.Marshal(map[string]interface{}{
		"source":    "fallback",
		"kind":      kind,
		"candidate": c,
	})
	return payload
}
