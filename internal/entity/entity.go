// Package entity describes the record collections served by the API and the
// field renames between their external (API) and internal (stored) shapes.
package entity

import (
	"fmt"

	"github.com/kalambet/jobboard/internal/storage"
)

// Rule renames one field between the external and internal shape.
type Rule struct {
	External string `json:"external"`
	Internal string `json:"internal"`
}

// Default synthesizes a value for Field on read when the record lacks it.
type Default struct {
	Field string
	Value func(id int64) any
}

// Entity is one named collection with its mapping rules.
type Entity struct {
	Name       string
	Collection string
	Rules      []Rule
	Defaults   []Default
}

// Plain returns an entity with no mapping rules, stored in "<name>.json".
func Plain(name string) Entity {
	return Entity{Name: name, Collection: name + ".json"}
}

// ToExternal returns a copy of r in API shape. Internal fields are kept and
// each external alias is filled from the record, preferring a value already
// stored under the external name.
func (e Entity) ToExternal(r storage.Record) storage.Record {
	out := r.Clone()
	for _, rule := range e.Rules {
		if _, ok := out[rule.External]; ok {
			continue
		}
		if v, ok := out[rule.Internal]; ok {
			out[rule.External] = v
		}
	}
	if len(e.Defaults) > 0 {
		id, _ := out.ID()
		for _, d := range e.Defaults {
			if _, ok := out[d.Field]; !ok {
				out[d.Field] = d.Value(id)
			}
		}
	}
	return out
}

// ToInternal returns a copy of r in stored shape: every external alias present
// is moved to its internal name.
func (e Entity) ToInternal(r storage.Record) storage.Record {
	out := r.Clone()
	for _, rule := range e.Rules {
		v, ok := out[rule.External]
		if !ok {
			continue
		}
		out[rule.Internal] = v
		delete(out, rule.External)
	}
	return out
}

var (
	logoRule         = Rule{External: "logo_url", Internal: "logo"}
	telegramUserRule = Rule{External: "telegram_user", Internal: "telegramUser"}
	fullInfoRule     = Rule{External: "full_info", Internal: "fullInfo"}
	isActiveRule     = Rule{External: "is_active", Internal: "isActive"}
)

var jobDefaults = []Default{
	{Field: "title", Value: func(id int64) any { return fmt.Sprintf("Job %d", id) }},
	{Field: "status", Value: func(int64) any { return "active" }},
}

// JobListing is a job posting collection: titles and status are synthesized
// when missing.
func JobListing(name string) Entity {
	return Entity{
		Name:       name,
		Collection: name + ".json",
		Rules:      []Rule{logoRule, telegramUserRule},
		Defaults:   jobDefaults,
	}
}

// Article is a rich text collection with a logo and a full body.
func Article(name string) Entity {
	return Entity{
		Name:       name,
		Collection: name + ".json",
		Rules:      []Rule{logoRule, fullInfoRule},
	}
}

// Flagged is a collection whose records carry an active flag.
func Flagged(name string) Entity {
	return Entity{
		Name:       name,
		Collection: name + ".json",
		Rules:      []Rule{isActiveRule},
	}
}

// Defaults returns the entities registered at startup.
func Defaults() []Entity {
	return []Entity{
		JobListing("jobs"),
		JobListing("vacancies"),
		Flagged("active-works"),
		Article("news"),
		Article("articles"),
	}
}
