package curriculum

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed curriculum store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// Snapshot reads every curriculum and calendar table. The tables are read
// concurrently, each into its own slice.
func (s *PostgresStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Exams, err = queryAll(gctx, s.pool,
			`SELECT id, name, priority FROM exams ORDER BY id`,
			func(rows pgx.Rows) (Exam, error) {
				var e Exam
				err := rows.Scan(&e.ID, &e.Name, &e.Priority)
				return e, err
			})
		return wrap("exams", err)
	})

	g.Go(func() (err error) {
		snap.Subjects, err = queryAll(gctx, s.pool,
			`SELECT id, exam_id, name, priority FROM subjects ORDER BY id`,
			func(rows pgx.Rows) (Subject, error) {
				var sub Subject
				err := rows.Scan(&sub.ID, &sub.ExamID, &sub.Name, &sub.Priority)
				return sub, err
			})
		return wrap("subjects", err)
	})

	g.Go(func() (err error) {
		snap.Topics, err = queryAll(gctx, s.pool,
			`SELECT id, subject_id, parent_id, name, importance FROM topics ORDER BY id`,
			func(rows pgx.Rows) (Topic, error) {
				var t Topic
				err := rows.Scan(&t.ID, &t.SubjectID, &t.ParentID, &t.Name, &t.Importance)
				return t, err
			})
		return wrap("topics", err)
	})

	g.Go(func() (err error) {
		snap.Inputs, err = queryAll(gctx, s.pool,
			`SELECT id, topic_id, kind, title, required_hours, reviewed_hours, is_completed
			 FROM input_materials
			 ORDER BY id`,
			func(rows pgx.Rows) (InputMaterial, error) {
				var m InputMaterial
				err := rows.Scan(&m.ID, &m.TopicID, &m.Kind, &m.Title, &m.RequiredHours, &m.ReviewedHours, &m.Completed)
				return m, err
			})
		return wrap("input materials", err)
	})

	g.Go(func() (err error) {
		snap.Outputs, err = queryAll(gctx, s.pool,
			`SELECT id, owner_kind, owner_id, kind, title, required_hours, reviewed_hours, is_completed
			 FROM output_materials
			 ORDER BY id`,
			func(rows pgx.Rows) (OutputMaterial, error) {
				var m OutputMaterial
				err := rows.Scan(&m.ID, &m.OwnerKind, &m.OwnerID, &m.Kind, &m.Title, &m.RequiredHours, &m.ReviewedHours, &m.Completed)
				return m, err
			})
		return wrap("output materials", err)
	})

	g.Go(func() (err error) {
		snap.Weekly, err = queryAll(gctx, s.pool,
			`SELECT weekday, start_time, end_time FROM weekly_windows ORDER BY weekday, start_time`,
			func(rows pgx.Rows) (WeeklyWindow, error) {
				var w WeeklyWindow
				err := rows.Scan(&w.Weekday, &w.Start, &w.End)
				return w, err
			})
		return wrap("weekly windows", err)
	})

	g.Go(func() (err error) {
		snap.Overrides, err = queryAll(gctx, s.pool,
			`SELECT day, start_time, end_time FROM date_windows ORDER BY day, start_time`,
			func(rows pgx.Rows) (DateWindow, error) {
				var w DateWindow
				var day time.Time
				if err := rows.Scan(&day, &w.Start, &w.End); err != nil {
					return w, err
				}
				w.Date = day.Format(time.DateOnly)
				return w, nil
			})
		return wrap("date windows", err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func queryAll[T any](ctx context.Context, pool *pgxpool.Pool, query string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}

func wrap(table string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load %s: %w", table, err)
}

// Import replaces the stored curriculum and calendar with snap in one transaction.
func (s *PostgresStore) Import(ctx context.Context, snap *Snapshot) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, table := range []string{"exams", "subjects", "topics", "input_materials", "output_materials", "weekly_windows", "date_windows"} {
			batch.Queue(`DELETE FROM ` + table)
		}
		for _, e := range snap.Exams {
			batch.Queue(`INSERT INTO exams (id, name, priority) VALUES ($1, $2, $3)`, e.ID, e.Name, e.Priority)
		}
		for _, sub := range snap.Subjects {
			batch.Queue(`INSERT INTO subjects (id, exam_id, name, priority) VALUES ($1, $2, $3, $4)`,
				sub.ID, sub.ExamID, sub.Name, sub.Priority)
		}
		for _, t := range snap.Topics {
			batch.Queue(`INSERT INTO topics (id, subject_id, parent_id, name, importance) VALUES ($1, $2, $3, $4, $5)`,
				t.ID, t.SubjectID, t.ParentID, t.Name, t.Importance)
		}
		for _, m := range snap.Inputs {
			batch.Queue(`INSERT INTO input_materials (id, topic_id, kind, title, required_hours, reviewed_hours, is_completed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				m.ID, m.TopicID, string(m.Kind), m.Title, m.RequiredHours, m.ReviewedHours, m.Completed)
		}
		for _, m := range snap.Outputs {
			batch.Queue(`INSERT INTO output_materials (id, owner_kind, owner_id, kind, title, required_hours, reviewed_hours, is_completed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				m.ID, string(m.OwnerKind), m.OwnerID, string(m.Kind), m.Title, m.RequiredHours, m.ReviewedHours, m.Completed)
		}
		for _, w := range snap.Weekly {
			batch.Queue(`INSERT INTO weekly_windows (weekday, start_time, end_time) VALUES ($1, $2, $3)`,
				w.Weekday, w.Start, w.End)
		}
		for _, w := range snap.Overrides {
			batch.Queue(`INSERT INTO date_windows (day, start_time, end_time) VALUES ($1::date, $2, $3)`,
				w.Date, w.Start, w.End)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("import curriculum: %w", err)
		}
		return nil
	})
}
