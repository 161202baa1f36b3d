package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core/school"
	"github.com/carbonschool/dashboard/storage/document"
)

type schoolRepository struct {
	db *DB
}

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) GetDocument(_ context.Context, id string) (document.Doc, error) {
	t := repo.db.document
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	stored, ok := t.table[id]
	if !ok {
		return nil, school.ErrNotFound
	}
	return document.Decode(stored.data)
}

func (repo *schoolRepository) ListDocuments(_ context.Context) ([]school.Entry, error) {
	t := repo.db.document
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	entries := make([]school.Entry, 0, len(t.table))
	for id, stored := range t.table {
		doc, err := document.Decode(stored.data)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding document %q", id)
		}
		entries = append(entries, school.Entry{ID: id, Doc: doc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (repo *schoolRepository) MergeDocument(_ context.Context, id string, patch document.Doc) (document.Doc, error) {
	t := repo.db.document
	t.mutex.Lock()
	defer t.mutex.Unlock()

	now := repo.db.now()
	stored, ok := t.table[id]
	if !ok {
		stored = &storedDocument{createdAt: now}
	}
	current, err := document.Decode(stored.data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding document %q", id)
	}

	data, err := document.Encode(document.Merge(current, patch, now))
	if err != nil {
		return nil, errors.Wrapf(err, "encoding document %q", id)
	}
	stored.data = data
	stored.updatedAt = now
	t.table[id] = stored
	return document.Decode(data)
}
