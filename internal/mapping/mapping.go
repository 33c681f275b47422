package mapping

import "time"

// Kind classifies what a mapping names.
type Kind string

const (
	KindType     Kind = "type"
	KindField    Kind = "field"
	KindProperty Kind = "property"
	KindMethod   Kind = "method"
)

// Mapping is the persisted identity record tying an obfuscated symbol to its
// human-assigned friendly name. The structural signature is the primary key;
// the byte pattern and RVA hint are optional auxiliary layers.
type Mapping struct {
	ObfuscatedName string    `json:"obfuscated_name"`
	FriendlyName   string    `json:"friendly_name"`
	Signature      string    `json:"signature"`
	BytePattern    string    `json:"byte_pattern,omitempty"`
	RVAHint        string    `json:"rva_hint,omitempty"`
	Kind           Kind      `json:"kind"`
	Namespace      string    `json:"namespace,omitempty"`
	ParentType     string    `json:"parent_type,omitempty"` // obfuscated name of the owning type, for members
	LastUpdated    time.Time `json:"last_updated"`
	Notes          string    `json:"notes,omitempty"`

	// Score is the verification confidence in [0,1]. 1.0 means unverified or
	// trusted; lower values record the structural similarity measured by the
	// last verification sweep that found the symbol drifted.
	Score float64 `json:"score"`
}
