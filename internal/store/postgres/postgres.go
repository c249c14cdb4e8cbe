// Package postgres is the PostgreSQL-backed store.Store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appLog "milify/internal/log"
	"milify/internal/model"
	"milify/internal/store"
)

// Store keeps events and feed tokens in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	appLog.Info("postgres: connected", "max_conns", pool.Config().MaxConns)
	return &Store{pool: pool}, nil
}

const eventColumns = `id, user_id, title, start_date, end_date, is_all_day, start_time, end_time,
	color, completed, is_holiday, event_type, description, meeting_link, location,
	is_recurring, recurrence, source, source_id, created_at, updated_at`

func (s *Store) ListEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM calendar_events
		WHERE user_id = $1
		ORDER BY start_date, start_time, title
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]model.CalendarEvent, 0)
	for rows.Next() {
		var (
			r   eventRow
			ev  model.CalendarEvent
			err error
		)
		if err := rows.Scan(
			&ev.ID,
			&ev.UserID,
			&ev.Title,
			&r.startDate,
			&r.endDate,
			&ev.IsAllDay,
			&ev.StartTime,
			&ev.EndTime,
			&ev.Color,
			&ev.Completed,
			&ev.IsHoliday,
			&ev.EventType,
			&ev.Description,
			&ev.MeetingLink,
			&ev.Location,
			&ev.IsRecurring,
			&r.recurrence,
			&ev.Source,
			&ev.SourceID,
			&ev.CreatedAt,
			&ev.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev, err = r.apply(ev); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *Store) PutEvent(ctx context.Context, ev model.CalendarEvent) error {
	if err := store.CheckEvent(ev); err != nil {
		return err
	}
	r, err := rowOf(ev)
	if err != nil {
		return err
	}
	if ev.EventType == "" {
		ev.EventType = model.EventTypeEvent
	}
	if ev.Source == "" {
		ev.Source = model.SourceCalendar
	}

	query := `
		INSERT INTO calendar_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			title = EXCLUDED.title,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			is_all_day = EXCLUDED.is_all_day,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			color = EXCLUDED.color,
			completed = EXCLUDED.completed,
			is_holiday = EXCLUDED.is_holiday,
			event_type = EXCLUDED.event_type,
			description = EXCLUDED.description,
			meeting_link = EXCLUDED.meeting_link,
			location = EXCLUDED.location,
			is_recurring = EXCLUDED.is_recurring,
			recurrence = EXCLUDED.recurrence,
			source = EXCLUDED.source,
			source_id = EXCLUDED.source_id,
			updated_at = NOW()
	`

	_, err = s.pool.Exec(ctx, query,
		ev.ID,
		ev.UserID,
		ev.Title,
		r.startDate,
		r.endDate,
		ev.IsAllDay,
		ev.StartTime,
		ev.EndTime,
		ev.Color,
		ev.Completed,
		ev.IsHoliday,
		string(ev.EventType),
		ev.Description,
		ev.MeetingLink,
		ev.Location,
		ev.IsRecurring,
		r.recurrence,
		string(ev.Source),
		ev.SourceID,
	)
	if err != nil {
		return fmt.Errorf("put event %s: %w", ev.ID, err)
	}
	return nil
}

func (s *Store) UserForFeedToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", store.ErrInvalidToken
	}

	var userID string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id FROM calendar_ical_tokens WHERE token = $1`, token,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", store.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("lookup feed token: %w", err)
	}
	return userID, nil
}

func (s *Store) IssueFeedToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("postgres: empty user id")
	}
	token := uuid.NewString()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM calendar_ical_tokens WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO calendar_ical_tokens (token, user_id) VALUES ($1, $2)`,
			token, userID,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("issue feed token: %w", err)
	}
	return token, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// eventRow carries the columns whose Go and SQL shapes differ.
type eventRow struct {
	startDate  time.Time
	endDate    *time.Time
	recurrence []byte
}

func rowOf(ev model.CalendarEvent) (eventRow, error) {
	r := eventRow{startDate: ev.StartDate.In(time.UTC)}
	if !ev.EndDate.IsZero() {
		t := ev.EndDate.In(time.UTC)
		r.endDate = &t
	}
	if ev.Recurrence != nil {
		raw, err := json.Marshal(ev.Recurrence)
		if err != nil {
			return eventRow{}, fmt.Errorf("encode recurrence: %w", err)
		}
		r.recurrence = raw
	}
	return r, nil
}

func (r eventRow) apply(ev model.CalendarEvent) (model.CalendarEvent, error) {
	ev.StartDate = civil.DateOf(r.startDate)
	if r.endDate != nil {
		ev.EndDate = civil.DateOf(*r.endDate)
	}
	if len(r.recurrence) > 0 {
		var rec model.Recurrence
		if err := json.Unmarshal(r.recurrence, &rec); err != nil {
			return ev, err
		}
		ev.Recurrence = &rec
	}
	return ev, nil
}
