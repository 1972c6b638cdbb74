package models

import "fmt"

// Player represents a canonical player row from the durable store.
// Ranking and YTD fields are sourced externally and may be absent.
type Player struct {
	ID         int64   `db:"player_id" json:"player_id"`
	Name       string  `db:"name" json:"name"`
	Country    string  `db:"country_code" json:"country_code,omitempty"`
	ExternalID *string `db:"ext_provider_id" json:"ext_provider_id,omitempty"`
	Ranking    *int    `db:"ranking" json:"ranking,omitempty"`
}

// PlayerRefKind discriminates the accepted player identifier shapes.
type PlayerRefKind int

const (
	// RefInternalID is the canonical integer identity.
	RefInternalID PlayerRefKind = iota
	// RefExternalID is a provider identifier such as "sr:competitor:14882".
	RefExternalID
	// RefName is a free-text display name.
	RefName
)

// PlayerRef is a tagged union over the identifier shapes a request may carry.
// Resolution precedence is InternalID > ExternalID > Name and is enforced by
// the identity resolver, never by ad hoc string sniffing at call sites.
type PlayerRef struct {
	Kind       PlayerRefKind
	InternalID int64
	Value      string
}

// InternalRef builds a reference from a canonical integer ID.
func InternalRef(id int64) PlayerRef {
	return PlayerRef{Kind: RefInternalID, InternalID: id}
}

// ExternalRef builds a reference from an external provider identifier.
func ExternalRef(id string) PlayerRef {
	return PlayerRef{Kind: RefExternalID, Value: id}
}

// NameRef builds a reference from a free-text name.
func NameRef(name string) PlayerRef {
	return PlayerRef{Kind: RefName, Value: name}
}

// String renders the reference for logging.
func (r PlayerRef) String() string {
	switch r.Kind {
	case RefInternalID:
		return fmt.Sprintf("id:%d", r.InternalID)
	case RefExternalID:
		return "ext:" + r.Value
	default:
		return "name:" + r.Value
	}
}

// YtdRecord is a player's year-to-date win/loss balance.
type YtdRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Played returns total matches in the record.
func (r YtdRecord) Played() int {
	return r.Wins + r.Losses
}
