package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/ir"
)

// Attempt is one committed run.
type Attempt struct {
	ID           uuid.UUID
	Seq          int64
	Route        string
	RouteHash    string
	Completed    bool
	PersonalBest bool
	Final        null.Val[int64]
	RecordedAt   time.Time
	Segments     []Segment
}

// Segment is the duration of one subsegment within an attempt. Time is
// null when the subsegment was reached but skipped.
type Segment struct {
	SplitID uuid.UUID
	Level   int
	Name    string
	Time    null.Val[int64]
}

// Average summarizes one subsegment across attempts.
type Average struct {
	SplitID uuid.UUID
	Level   int

	// Count is the number of attempts with a time for the subsegment.
	Count int

	// Mean is the average time in milliseconds, null when Count is 0.
	Mean null.Val[int64]
}

// RouteStats summarizes every attempt on a route.
type RouteStats struct {
	Attempts  int
	Completed int
	Best      null.Val[int64]
}

// AttemptFromCommit builds an attempt from a commit. Subsegments the run
// never reached are left out.
func AttemptFromCommit(res engine.CommitResult, at time.Time) Attempt {
	r := res.Route
	a := Attempt{
		ID:           uuid.New(),
		Route:        r.Name,
		RouteHash:    r.Hash(),
		Completed:    res.Run.Complete(r),
		PersonalBest: res.PersonalBest,
		Final:        res.Run.Final(r),
		RecordedAt:   at,
	}
	for sub := range r.AllSubsegments() {
		t, err := res.Run.SegmentTime(sub.Split.ID, sub.Level)
		if err != nil {
			continue
		}
		a.Segments = append(a.Segments, Segment{
			SplitID: sub.Split.ID,
			Level:   sub.Level,
			Name:    r.Path(sub.Split),
			Time:    t,
		})
	}
	return a
}

// RecordAttempt inserts a and its segments in one transaction. The
// attempt's Seq is assigned by the database and not read from a.
func (s *Store) RecordAttempt(ctx context.Context, a Attempt) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attempts
		(id, route, route_hash, completed, personal_best, final_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID.String(),
		a.Route,
		a.RouteHash,
		a.Completed,
		a.PersonalBest,
		nullInt(a.Final),
		a.RecordedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record attempt %s: %w", a.ID, err)
	}

	for i, seg := range a.Segments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attempt_segments
			(attempt_id, position, split_id, level, name, time_ms)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			a.ID.String(),
			i,
			seg.SplitID.String(),
			seg.Level,
			seg.Name,
			nullInt(seg.Time),
		)
		if err != nil {
			return fmt.Errorf("record attempt %s: segment %q: %w", a.ID, seg.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record attempt %s: %w", a.ID, err)
	}
	return nil
}

// Attempts returns the attempts on route, oldest first, with their
// segments. A limit above zero keeps only the most recent attempts.
func (s *Store) Attempts(ctx context.Context, route string, limit int) ([]Attempt, error) {
	query := `
		SELECT seq, id, route, route_hash, completed, personal_best, final_ms, recorded_at
		FROM attempts
		WHERE route = ?
		ORDER BY seq DESC
	`
	args := []any{route}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	// Single connection: release it before querying segments.
	rows.Close()

	attempts = lo.Reverse(attempts)
	for i := range attempts {
		segs, err := s.segments(ctx, attempts[i].ID)
		if err != nil {
			return nil, err
		}
		attempts[i].Segments = segs
	}
	return attempts, nil
}

// Attempt returns one attempt by id. It fails with ir.ErrNotFound when
// there is none.
func (s *Store) Attempt(ctx context.Context, id uuid.UUID) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, route, route_hash, completed, personal_best, final_ms, recorded_at
		FROM attempts
		WHERE id = ?
	`, id.String())

	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, fmt.Errorf("attempt %s: %w", id, ir.ErrNotFound)
	}
	if err != nil {
		return Attempt{}, err
	}
	a.Segments, err = s.segments(ctx, id)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *Store) segments(ctx context.Context, attemptID uuid.UUID) ([]Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT split_id, level, name, time_ms
		FROM attempt_segments
		WHERE attempt_id = ?
		ORDER BY position ASC
	`, attemptID.String())
	if err != nil {
		return nil, fmt.Errorf("query segments of %s: %w", attemptID, err)
	}
	defer rows.Close()

	var segs []Segment
	for rows.Next() {
		var (
			splitID string
			seg     Segment
			t       sql.NullInt64
		)
		if err := rows.Scan(&splitID, &seg.Level, &seg.Name, &t); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		if seg.SplitID, err = uuid.Parse(splitID); err != nil {
			return nil, fmt.Errorf("segment of %s: split id %q: %w", attemptID, splitID, err)
		}
		seg.Time = fromNullInt(t)
		segs = append(segs, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	return segs, nil
}

// Averages returns the count and mean time of every subsegment recorded on
// route, ordered by split id then level. Skipped segments count as
// attempts at the route level but not here.
func (s *Store) Averages(ctx context.Context, route string) ([]Average, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.split_id, s.level, COUNT(s.time_ms), AVG(s.time_ms)
		FROM attempt_segments s
		JOIN attempts a ON a.id = s.attempt_id
		WHERE a.route = ?
		GROUP BY s.split_id, s.level
		ORDER BY s.split_id ASC, s.level ASC
	`, route)
	if err != nil {
		return nil, fmt.Errorf("query averages: %w", err)
	}
	defer rows.Close()

	var out []Average
	for rows.Next() {
		var (
			splitID string
			avg     Average
			mean    sql.NullFloat64
		)
		if err := rows.Scan(&splitID, &avg.Level, &avg.Count, &mean); err != nil {
			return nil, fmt.Errorf("scan average: %w", err)
		}
		if avg.SplitID, err = uuid.Parse(splitID); err != nil {
			return nil, fmt.Errorf("average: split id %q: %w", splitID, err)
		}
		if mean.Valid {
			avg.Mean = null.From(int64(math.Round(mean.Float64)))
		}
		out = append(out, avg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate averages: %w", err)
	}
	return out, nil
}

// Stats counts the attempts on route and finds the best completed time.
func (s *Store) Stats(ctx context.Context, route string) (RouteStats, error) {
	var (
		st        RouteStats
		completed sql.NullInt64
		best      sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(completed), MIN(CASE WHEN completed THEN final_ms END)
		FROM attempts
		WHERE route = ?
	`, route).Scan(&st.Attempts, &completed, &best)
	if err != nil {
		return RouteStats{}, fmt.Errorf("query stats: %w", err)
	}
	st.Completed = int(completed.Int64)
	st.Best = fromNullInt(best)
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(sc scanner) (Attempt, error) {
	var (
		a          Attempt
		id         string
		final      sql.NullInt64
		recordedAt int64
	)
	err := sc.Scan(&a.Seq, &id, &a.Route, &a.RouteHash, &a.Completed, &a.PersonalBest, &final, &recordedAt)
	if err != nil {
		return Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	if a.ID, err = uuid.Parse(id); err != nil {
		return Attempt{}, fmt.Errorf("attempt id %q: %w", id, err)
	}
	a.Final = fromNullInt(final)
	a.RecordedAt = time.UnixMilli(recordedAt)
	return a, nil
}

func nullInt(v null.Val[int64]) sql.NullInt64 {
	n, ok := v.Get()
	return sql.NullInt64{Int64: n, Valid: ok}
}

func fromNullInt(n sql.NullInt64) null.Val[int64] {
	if !n.Valid {
		return null.Val[int64]{}
	}
	return null.From(n.Int64)
}
