package school

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/storage/document"
)

var (
	// errors
	ErrNotFound        = errors.New("school not found")
	ErrInvalidSchoolID = errors.New("invalid school id")
)

type (
	// Entry is a stored document and its key.
	Entry struct {
		ID  string
		Doc document.Doc
	}

	Repository interface {
		// GetDocument returns ErrNotFound when the school has no document yet.
		GetDocument(ctx context.Context, id string) (document.Doc, error)
		ListDocuments(ctx context.Context) ([]Entry, error)
		// MergeDocument applies patch (see document.Merge), creating the document
		// when missing, and returns the stored result.
		MergeDocument(ctx context.Context, id string, patch document.Doc) (document.Doc, error)
	}

	// Feed notifies watchers of document changes.
	Feed interface {
		Publish(id string)
		Subscribe(id string) (<-chan struct{}, func())
	}

	Service struct {
		repo     Repository
		feed     Feed
		validate *validator.Validate
	}
)

func NewService(repo Repository, feed Feed, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		feed:     feed,
		validate: validate,
	}
}

func cleanID(id string) (string, error) {
	id = core.CleanSchoolID(id)
	if !core.ValidSchoolID(id) {
		return "", ErrInvalidSchoolID
	}
	return id, nil
}

// Load returns the school record; a school without a document gets the defaults.
func (svc *Service) Load(ctx context.Context, id string) (Record, error) {
	id, err := cleanID(id)
	if err != nil {
		return Record{}, err
	}
	doc, err := svc.repo.GetDocument(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return FromDoc(id, nil), nil
		}
		return Record{}, errors.Wrap(err, "getting school document")
	}
	return FromDoc(id, doc), nil
}

func (svc *Service) SaveBasic(ctx context.Context, id string, form Basic) (Record, error) {
	if err := form.Validate(svc.validate); err != nil {
		return Record{}, err
	}
	return svc.save(ctx, id, form.Patch())
}

func (svc *Service) SaveBCE(ctx context.Context, id string, form BCE) (Record, error) {
	if err := form.Validate(svc.validate); err != nil {
		return Record{}, err
	}
	return svc.save(ctx, id, form.Patch())
}

// SetProfile stores the display name and district of a school. Empty values are left untouched.
func (svc *Service) SetProfile(ctx context.Context, id, name, district string) (Record, error) {
	patch := document.Doc{}
	if name = core.CleanString(name); name != "" {
		patch["name"] = name
	}
	if district = core.CleanString(district); district != "" {
		patch["district"] = district
	}
	if len(patch) == 0 {
		return svc.Load(ctx, id)
	}
	return svc.save(ctx, id, patch)
}

func (svc *Service) save(ctx context.Context, id string, patch document.Doc) (Record, error) {
	id, err := cleanID(id)
	if err != nil {
		return Record{}, err
	}
	doc, err := svc.repo.MergeDocument(ctx, id, patch)
	if err != nil {
		return Record{}, errors.Wrap(err, "merging school document")
	}
	svc.feed.Publish(id)
	return FromDoc(id, doc), nil
}

// List returns the school picker entries sorted by label in Korean collation order.
// The label is the school name, or its id when unnamed.
func (svc *Service) List(ctx context.Context) ([]Option, error) {
	entries, err := svc.repo.ListDocuments(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing school documents")
	}

	opts := make([]Option, 0, len(entries))
	for _, e := range entries {
		label, _ := e.Doc.String("name")
		if label = strings.TrimSpace(label); label == "" {
			label = e.ID
		}
		opts = append(opts, Option{ID: e.ID, Label: label})
	}

	coll := collate.New(language.Korean)
	sort.SliceStable(opts, func(i, j int) bool {
		if c := coll.CompareString(opts[i].Label, opts[j].Label); c != 0 {
			return c < 0
		}
		return opts[i].ID < opts[j].ID
	})
	return opts, nil
}

// Districts maps school ids to their district for schools that have one.
func (svc *Service) Districts(ctx context.Context) (map[string]string, error) {
	entries, err := svc.repo.ListDocuments(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing school documents")
	}
	districts := make(map[string]string, len(entries))
	for _, e := range entries {
		if d, ok := e.Doc.String("district"); ok && d != "" {
			districts[e.ID] = d
		}
	}
	return districts, nil
}

// Watch notifies on every saved change of the school document until cancel is called.
func (svc *Service) Watch(id string) (<-chan struct{}, func()) {
	return svc.feed.Subscribe(core.CleanSchoolID(id))
}
