package crud

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/jobboard/internal/entity"
	"github.com/kalambet/jobboard/internal/storage"
)

// Service owns one Binder per registered entity.
type Service struct {
	repo    storage.Repository
	reg     *entity.Registry
	binders map[string]*Binder
}

// NewService creates binders for every entity in reg.
func NewService(repo storage.Repository, reg *entity.Registry) *Service {
	s := &Service{
		repo:    repo,
		reg:     reg,
		binders: make(map[string]*Binder),
	}
	for _, e := range reg.All() {
		s.binders[e.Name] = NewBinder(repo, e)
	}
	return s
}

// Binder returns the binder for the named entity.
func (s *Service) Binder(name string) (*Binder, bool) {
	b, ok := s.binders[name]
	return b, ok
}

// Entities returns the registered entities in registration order.
func (s *Service) Entities() []entity.Entity {
	return s.reg.All()
}

// CollectionReport summarizes one collection's id health.
type CollectionReport struct {
	Entity       string  `json:"entity"`
	Collection   string  `json:"collection"`
	Records      int     `json:"records"`
	MaxID        int64   `json:"max_id"`
	DuplicateIDs []int64 `json:"duplicate_ids,omitempty"`
	InvalidIDs   int     `json:"invalid_ids,omitempty"`
	Aliases      int     `json:"aliases,omitempty"`
}

// OK reports whether the collection has no id problems and no stored aliases.
func (r CollectionReport) OK() bool {
	return len(r.DuplicateIDs) == 0 && r.InvalidIDs == 0 && r.Aliases == 0
}

// Check loads every collection concurrently and reports, per entity, the
// record count, max id, duplicate or unusable ids, and records still holding
// an external alias.
func (s *Service) Check(ctx context.Context) ([]CollectionReport, error) {
	entities := s.reg.All()
	reports := make([]CollectionReport, len(entities))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, e := range entities {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			reports[i] = checkCollection(e, s.repo.Load(gCtx, e.Collection))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func checkCollection(e entity.Entity, records []storage.Record) CollectionReport {
	rep := CollectionReport{
		Entity:     e.Name,
		Collection: e.Collection,
		Records:    len(records),
	}
	seen := make(map[int64]int)
	for _, r := range records {
		id, ok := r.ID()
		if !ok || id < 1 {
			rep.InvalidIDs++
		} else {
			seen[id]++
			if id > rep.MaxID {
				rep.MaxID = id
			}
		}
		for _, rule := range e.Rules {
			if _, ok := r[rule.External]; ok {
				rep.Aliases++
				break
			}
		}
	}
	for id, n := range seen {
		if n > 1 {
			rep.DuplicateIDs = append(rep.DuplicateIDs, id)
		}
	}
	sort.Slice(rep.DuplicateIDs, func(i, j int) bool { return rep.DuplicateIDs[i] < rep.DuplicateIDs[j] })
	return rep
}
