package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core/school"
	"github.com/carbonschool/dashboard/storage/document"
)

type schoolRepository struct {
	db      *sqlx.DB
	nowFunc func() time.Time
}

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db, nowFunc: time.Now}
}

func (repo *schoolRepository) GetDocument(ctx context.Context, id string) (document.Doc, error) {
	var data string
	q := repo.db.Rebind(`SELECT data FROM school_document WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &data, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, school.ErrNotFound
		}
		return nil, errors.Wrap(err, "selecting school document")
	}
	return document.Decode([]byte(data))
}

func (repo *schoolRepository) ListDocuments(ctx context.Context) ([]school.Entry, error) {
	var rows []struct {
		ID   string `db:"id"`
		Data string `db:"data"`
	}
	if err := repo.db.SelectContext(ctx, &rows, `SELECT id, data FROM school_document ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "selecting school documents")
	}

	entries := make([]school.Entry, 0, len(rows))
	for _, row := range rows {
		doc, err := document.Decode([]byte(row.Data))
		if err != nil {
			return nil, errors.Wrapf(err, "decoding document %q", row.ID)
		}
		entries = append(entries, school.Entry{ID: row.ID, Doc: doc})
	}
	return entries, nil
}

// MergeDocument reads, merges and writes back the document in one transaction.
// A missing document is first inserted empty so that, on Postgres, the row
// exists to be locked for the duration.
func (repo *schoolRepository) MergeDocument(ctx context.Context, id string, patch document.Doc) (document.Doc, error) {
	var merged document.Doc
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		now := repo.nowFunc().UTC()
		ins := `INSERT INTO school_document (id, data, created_at, updated_at) VALUES (?, '{}', ?, ?)
			ON CONFLICT (id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, tx.Rebind(ins), id, now, now); err != nil {
			return errors.Wrap(err, "inserting school document")
		}

		sel := `SELECT data FROM school_document WHERE id = ?`
		if isPostgres(repo.db) {
			sel += ` FOR UPDATE`
		}

		var data string
		if err := tx.GetContext(ctx, &data, tx.Rebind(sel), id); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return errors.Wrap(err, "selecting school document")
		}
		current, err := document.Decode([]byte(data))
		if err != nil {
			return errors.Wrapf(err, "decoding document %q", id)
		}

		merged = document.Merge(current, patch, now)
		encoded, err := document.Encode(merged)
		if err != nil {
			return errors.Wrapf(err, "encoding document %q", id)
		}

		upsert := `INSERT INTO school_document (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
		if _, err = tx.ExecContext(ctx, tx.Rebind(upsert), id, string(encoded), now, now); err != nil {
			return errors.Wrap(err, "upserting school document")
		}

		// same value types as a fresh read
		merged, err = document.Decode(encoded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}
