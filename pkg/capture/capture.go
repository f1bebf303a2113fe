// Package capture persists what a finished session learned: a JSON report in
// object storage plus user, profile, session and booking rows in Postgres.
// Both sinks are optional; capture degrades to whatever is configured.
package capture

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicefolio/melvin/pkg/convo"
	"github.com/voicefolio/melvin/pkg/session"
	"github.com/voicefolio/melvin/pkg/storage"
	"github.com/voicefolio/melvin/pkg/store"
	"github.com/voicefolio/melvin/pkg/tools"
)

var (
	emailRe   = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	hex32Re   = regexp.MustCompile(`^[a-fA-F0-9]{32}$`)
	unsafeKey = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// Capturer receives session reports and fans them out to storage and the
// database.
type Capturer struct {
	Store    *store.Store
	Uploader *storage.Uploader
	Logger   *slog.Logger
}

// New creates a capturer. Either sink may be nil.
func New(st *store.Store, up *storage.Uploader, logger *slog.Logger) *Capturer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capturer{Store: st, Uploader: up, Logger: logger}
}

// HydrateProfile loads a returning visitor's stored profile for session
// seeding. Unknown visitors and lookup failures both yield nil; a session
// must start regardless of what the store is doing.
func (c *Capturer) HydrateProfile(ctx context.Context, visitorIdentity string) *session.VisitorProfile {
	if c == nil || c.Store == nil {
		return nil
	}
	visitorID, _ := NormalizeVisitorID(visitorIdentity)
	if visitorID == "" {
		return nil
	}

	profile, user, err := c.Store.ProfileByVisitorID(ctx, visitorID)
	if err != nil {
		c.Logger.Warn("profile lookup failed", "visitor_id", visitorID, "error", err)
		return nil
	}
	if profile == nil {
		return nil
	}

	out := &session.VisitorProfile{BookedBefore: profile.BookedBefore}
	if user.Name != nil {
		out.Name = *user.Name
	}
	if user.Email != nil {
		out.Email = *user.Email
	}
	if profile.Company != nil {
		out.Company = *profile.Company
	}
	if profile.Domain != nil {
		out.Domain = *profile.Domain
	}
	if profile.LastIntent != nil {
		out.LastIntent = *profile.LastIntent
	}
	return out
}

// Capture processes one session report. Failures are logged, never returned
// to the caller's hot path; a broken sink must not take sessions down with it.
func (c *Capturer) Capture(ctx context.Context, report session.Report, visitorIdentity string) {
	if c == nil {
		return
	}

	reportKey := c.uploadReport(ctx, report)

	if c.Store == nil {
		return
	}
	if err := c.persist(ctx, report, visitorIdentity, reportKey); err != nil {
		c.Logger.Warn("session capture: database write failed",
			"session_id", report.SessionID, "error", err)
		return
	}
	c.Logger.Info("session captured",
		"session_id", report.SessionID,
		"report_key", reportKey,
		"booking_made", report.BookingMade,
	)
}

// uploadReport writes the JSON report to object storage and returns its key,
// or "" when upload is disabled or failed.
func (c *Capturer) uploadReport(ctx context.Context, report session.Report) string {
	if c.Uploader == nil {
		return ""
	}
	data, err := json.Marshal(report)
	if err != nil {
		c.Logger.Warn("session capture: report marshal failed", "error", err)
		return ""
	}
	key := ReportKey(report.Room, report.SessionID)
	if _, err := c.Uploader.UploadBytes(ctx, key, data, "application/json"); err != nil {
		c.Logger.Warn("session capture: report upload failed", "key", key, "error", err)
		return ""
	}
	return key
}

func (c *Capturer) persist(ctx context.Context, report session.Report, visitorIdentity, reportKey string) error {
	return c.Store.WithTx(ctx, func(tx *store.Store) error {
		var (
			email *string
			name  *string
		)
		visitorID, hashed := "", false

		identity := strings.TrimSpace(visitorIdentity)
		if identity != "" {
			if emailRe.MatchString(identity) {
				email = &identity
			} else {
				visitorID, hashed = NormalizeVisitorID(identity)
				if hashed {
					c.Logger.Warn("session capture: identity is not uuid or hex, hashed to visitor id",
						"identity", identity)
				}
			}
		}

		// Conversation-collected contact beats identity heuristics.
		if report.ContactName != "" {
			name = &report.ContactName
		}
		if report.ContactEmail != "" {
			email = &report.ContactEmail
		}

		newID := uuid.New().String()
		newID = strings.ReplaceAll(newID, "-", "")

		var (
			user store.User
			err  error
		)
		if visitorID != "" {
			user, err = tx.UpsertUserByVisitorID(ctx, newID, visitorID, email, name)
		} else {
			if email == nil {
				anon := fmt.Sprintf("anon-%s@session.local", report.SessionID)
				email = &anon
			}
			user, err = tx.UpsertUserByEmail(ctx, newID, *email, name)
		}
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}

		if err := tx.IncrementSessionCount(ctx, user.ID); err != nil {
			return fmt.Errorf("increment sessions: %w", err)
		}

		var booked *bool
		if report.BookingMade {
			t := true
			booked = &t
		}
		var lastIntent *string
		if report.Intent != "" && report.Intent != string(convo.IntentUnknown) {
			lastIntent = &report.Intent
		}
		if err := tx.UpsertProfile(ctx, store.ProfileParams{
			UserID:       user.ID,
			LastIntent:   lastIntent,
			BookedBefore: booked,
		}); err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}

		duration := int(report.Duration)
		ended := report.EndedAt
		var reportPath *string
		if reportKey != "" {
			reportPath = &reportKey
		}
		if err := tx.InsertSession(ctx, store.SessionParams{
			ID:           report.SessionID,
			UserID:       user.ID,
			StartedAt:    report.StartedAt,
			EndedAt:      &ended,
			DurationSec:  &duration,
			BookingMade:  report.BookingMade,
			R2ReportPath: reportPath,
		}); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		if report.BookingMade {
			if err := tx.IncrementBookingCount(ctx, user.ID); err != nil {
				return fmt.Errorf("increment bookings: %w", err)
			}
			if scheduled, ok := bookingTimeFromTurns(report.Turns); ok {
				bookingID := strings.ReplaceAll(uuid.New().String(), "-", "")
				if err := tx.InsertBooking(ctx, store.BookingParams{
					ID:            bookingID,
					SessionID:     report.SessionID,
					UserID:        user.ID,
					ScheduledTime: scheduled,
				}); err != nil {
					c.Logger.Warn("session capture: booking row insert failed", "error", err)
				}
			}
		}
		return nil
	})
}

// NormalizeVisitorID turns a participant identity into a stable 32-char hex
// id. UUIDs and 32-hex strings pass through; anything else hashes, which
// still yields a stable id but flags a frontend mismatch via the second
// return value.
func NormalizeVisitorID(identity string) (id string, hashed bool) {
	s := strings.TrimSpace(identity)
	if s == "" {
		return "", false
	}
	if parsed, err := uuid.Parse(s); err == nil {
		return strings.ReplaceAll(parsed.String(), "-", ""), false
	}
	if hex32Re.MatchString(s) {
		return strings.ToLower(s), false
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:32], true
}

// ReportKey builds the object storage key for a session report. The room name
// is sanitized so it cannot escape the reports/ prefix.
func ReportKey(room, sessionID string) string {
	safe := unsafeKey.ReplaceAllString(room, "_")
	if len(safe) > 128 {
		safe = safe[:128]
	}
	if safe == "" {
		safe = "unknown"
	}
	return fmt.Sprintf("reports/%s/%s.json", safe, sessionID)
}

// bookingTimeFromTurns recovers the confirmed slot from the booking tool's
// success message, which embeds the start as RFC 3339.
func bookingTimeFromTurns(turns []session.Turn) (time.Time, bool) {
	for _, turn := range turns {
		if turn.Role != "tool" || !strings.Contains(turn.Text, tools.BookingSuccessMarker) {
			continue
		}
		for _, field := range strings.Fields(turn.Text) {
			field = strings.TrimRight(field, ".,")
			if t, err := time.Parse(time.RFC3339, field); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
