package registry

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/store"
)

// CreateGroup stores a new logical group dated today.
func (s *Service) CreateGroup(ctx context.Context, g models.Group) (models.Group, error) {
	g.ID = ""
	g.DateCreated = s.today()
	if err := models.Validate(g); err != nil {
		return models.Group{}, err
	}
	var out models.Group
	err := s.store.Do(ctx, "registry.create_group", func(tx *store.Tx) error {
		out = tx.AddGroup(g)
		return nil
	})
	if err != nil {
		return models.Group{}, fmt.Errorf("create group: %w", err)
	}
	s.logger.Debug("group created", zap.String("id", out.ID), zap.String("type", string(out.Type)))
	return out, nil
}

// Groups lists groups of a species, or all groups when sp is empty, by name.
func (s *Service) Groups(sp models.Species) []models.Group {
	var out []models.Group
	_ = s.store.View(func(v *store.View) error {
		for _, g := range v.Groups() {
			if sp == "" || g.Type == sp {
				out = append(out, g)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeleteGroup removes a group nothing refers to. Groups still named by an
// animal or event are rejected so no reference is left dangling.
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	err := s.store.Do(ctx, "registry.delete_group", func(tx *store.Tx) error {
		if _, ok := tx.Group(id); !ok {
			return models.NotFoundError{Entity: "group", ID: id}
		}
		for _, a := range tx.Animals() {
			if a.GroupID == id {
				return models.Invalid("groupId", "group %s is still assigned to animal %s", id, a.ID)
			}
		}
		for _, sp := range models.LedgerSpecies {
			for _, e := range tx.Events(sp) {
				if e.GroupID == id {
					return models.Invalid("groupId", "group %s is still referenced by %s event %s", id, sp, e.ID)
				}
			}
		}
		return tx.RemoveGroup(id)
	})
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
