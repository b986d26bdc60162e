// Package sketch analyzes creative-coding sketch source for on-chain
// collection and trait dependencies.
package sketch

// TraitType is the declared value type of a trait read.
type TraitType string

const (
	AsInt    TraitType = "asInt"
	AsString TraitType = "asString"
	AsFloat  TraitType = "asFloat"
)

// Valid reports whether t is one of the recognized trait types.
func (t TraitType) Valid() bool {
	switch t {
	case AsInt, AsString, AsFloat:
		return true
	}
	return false
}

// Severity classifies an analysis issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Location is a position in the sketch source. Line is 1-based,
// Column is 0-based, matching editor conventions.
type Location struct {
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// Collection is a named reference to an external token contract.
// Address is empty when the declaration carried no address literal;
// such collections stay in the model but are excluded from
// address-dependent generation.
type Collection struct {
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Loc     *Location `json:"loc,omitempty"`
}

// Addressed reports whether the collection declared a contract address.
func (c Collection) Addressed() bool {
	return c.Address != ""
}

// Trait is a typed metadata field read from a collection's token.
// Key is empty when the read carried no key literal.
type Trait struct {
	Collection string    `json:"collection"`
	Key        string    `json:"key"`
	Type       TraitType `json:"type"`
}

// TokenIndex binds a literal token id to a collection inside setup().
type TokenIndex struct {
	Collection string    `json:"collection"`
	TokenID    int64     `json:"tokenId"`
	Loc        *Location `json:"loc,omitempty"`
}

// TraitData aggregates everything known about one collection name:
// its declared traits and the token ids bound to it. Collections with
// token usages but no traits still appear here.
type TraitData struct {
	Collection   string  `json:"collection"`
	Address      string  `json:"address"`
	Traits       []Trait `json:"traits"`
	TokenIndexes []int64 `json:"tokenIndexes"`
}

// Issue is an advisory or fatal finding from analysis. Warnings never
// abort analysis; the only error is a source parse failure.
type Issue struct {
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Loc      *Location `json:"loc,omitempty"`
}

// Result is the complete outcome of one analysis call.
type Result struct {
	Collections  []Collection `json:"collections"`
	Traits       []Trait      `json:"traits"`
	TokenIndexes []TokenIndex `json:"tokenIndexes"`
	Data         []TraitData  `json:"data"`
	Issues       []Issue      `json:"issues"`
}

// HasErrors reports whether any issue is error severity.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Warnings returns the warning-severity issues.
func (r *Result) Warnings() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			out = append(out, i)
		}
	}
	return out
}
