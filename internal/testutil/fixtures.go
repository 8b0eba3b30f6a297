package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/roach88/esquery/internal/backend"
)

// Person is the sample document used across tests.
type Person struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Age    int       `json:"age"`
	Email  string    `json:"email,omitempty"`
	Tags   []string  `json:"tags,omitempty"`
	Joined time.Time `json:"joined"`
	Active bool      `json:"active"`
}

var firstNames = []string{"Ann", "Bob", "Cleo", "Dag", "Eva", "Finn", "Gro"}

// People returns n deterministic people with ids person-01, person-02, ...
// Joined dates come from clock; every third person has no email.
func People(n int, clock *DeterministicClock) []Person {
	out := make([]Person, n)
	for i := range out {
		name := firstNames[i%len(firstNames)]
		p := Person{
			ID:     fmt.Sprintf("person-%02d", i+1),
			Name:   fmt.Sprintf("%s %d", name, i+1),
			Age:    20 + i,
			Tags:   []string{"team-" + string(rune('a'+i%3))},
			Joined: clock.Now(),
			Active: i%2 == 0,
		}
		if i%3 != 2 {
			p.Email = fmt.Sprintf("%s%d@example.com", name, i+1)
		}
		out[i] = p
	}
	return out
}

// Seed indexes docs into index and refreshes it. id extracts each
// document's id.
func Seed[T any](ctx context.Context, idx backend.Indexer, index string, docs []T, id func(T) string) error {
	for _, d := range docs {
		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("seed %s: %w", index, err)
		}
		if err := idx.Index(ctx, index, id(d), raw); err != nil {
			return fmt.Errorf("seed %s: %w", index, err)
		}
	}
	return idx.Refresh(ctx, index)
}

// SeedPeople indexes people by their ID.
func SeedPeople(ctx context.Context, idx backend.Indexer, index string, people []Person) error {
	return Seed(ctx, idx, index, people, func(p Person) string { return p.ID })
}

// MustJSON marshals v or fails the test.
func MustJSON(t testing.TB, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %T: %v", v, err)
	}
	return b
}

// IDs returns the ids of people in order.
func IDs(people []Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.ID
	}
	return out
}
