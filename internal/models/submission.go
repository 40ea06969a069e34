package models

import (
	"encoding/json"
	"io"
)

// SubmittedParty is the client's proposed shape of a party
type SubmittedParty struct {
	Name      string
	Leftovers []SubmittedLeftover
}

// SubmittedLeftover is one (id, description, owner) entry of a submission
type SubmittedLeftover struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

// PhotoUpload is an uploaded photo that has not been stored yet
type PhotoUpload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// ParseSubmittedParty parses the JSON value of the multipart "party" field.
//
// The top level must be an object with a string "name" and an array
// "leftovers". Array entries that are not objects with string id,
// description and owner are dropped without error. Two kept entries sharing
// an id are rejected.
func ParseSubmittedParty(raw []byte) (*SubmittedParty, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return nil, ValidationError("party must be a JSON object")
	}

	name, ok := body["name"].(string)
	if !ok {
		return nil, ValidationError("must include name string")
	}

	entries, ok := body["leftovers"].([]interface{})
	if !ok {
		return nil, ValidationError("must include leftovers array")
	}

	party := &SubmittedParty{
		Name:      name,
		Leftovers: make([]SubmittedLeftover, 0, len(entries)),
	}
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		leftover, ok := parseSubmittedLeftover(entry)
		if !ok {
			continue
		}
		if seen[leftover.ID] {
			return nil, ValidationError("duplicate leftover id '%s'", leftover.ID)
		}
		seen[leftover.ID] = true
		party.Leftovers = append(party.Leftovers, leftover)
	}

	return party, nil
}

func parseSubmittedLeftover(entry interface{}) (SubmittedLeftover, bool) {
	fields, ok := entry.(map[string]interface{})
	if !ok {
		return SubmittedLeftover{}, false
	}

	id, idOK := fields["id"].(string)
	description, descOK := fields["description"].(string)
	owner, ownerOK := fields["owner"].(string)
	if !idOK || !descOK || !ownerOK {
		return SubmittedLeftover{}, false
	}

	return SubmittedLeftover{ID: id, Description: description, Owner: owner}, true
}
