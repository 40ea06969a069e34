package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PhotoRoutePrefix is the public path under which stored photos are served.
// A leftover's ImageURL is this prefix followed by the stored photo name.
const PhotoRoutePrefix = "/photos/"

// DefaultPartyName is used when a party is created without a name
const DefaultPartyName = "New Party"

// Party is a named collection of leftovers shared among a group
type Party struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	Leftovers []Leftover `json:"leftovers"`
}

// Leftover is one item of a party. An empty Owner means unclaimed.
type Leftover struct {
	ID          string    `json:"id"`
	PartyID     string    `json:"partyId"`
	Description string    `json:"description"`
	Owner       string    `json:"owner"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewParty creates a Party with a fresh ID
func NewParty(name string) *Party {
	if strings.TrimSpace(name) == "" {
		name = DefaultPartyName
	}

	return &Party{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Leftovers: []Leftover{},
	}
}

// LeftoverIDs returns the ids of the party's leftovers in order
func (p *Party) LeftoverIDs() []string {
	ids := make([]string, len(p.Leftovers))
	for i, l := range p.Leftovers {
		ids[i] = l.ID
	}
	return ids
}

// PhotoURL returns the retrieval path for a stored photo name
func PhotoURL(storedName string) string {
	return PhotoRoutePrefix + storedName
}

// PhotoNameFromURL extracts the stored photo name from a retrieval path.
// The second result is false when the URL was not produced by PhotoURL.
func PhotoNameFromURL(imageURL string) (string, bool) {
	idx := strings.Index(imageURL, PhotoRoutePrefix)
	if idx < 0 {
		return "", false
	}

	name := imageURL[idx+len(PhotoRoutePrefix):]
	if name == "" {
		return "", false
	}
	return name, true
}
