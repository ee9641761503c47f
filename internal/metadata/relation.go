package metadata

// Relation links a source entity to rows of a target entity that reference it
// through TargetKey.
type Relation struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	TargetKey string `json:"target_key"`
	OnDelete  string `json:"on_delete"` // cascade, set_null, restrict
}
