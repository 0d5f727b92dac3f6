package model

// VisibilityScope enumerates the query predicates a feed may run under.
type VisibilityScope int

const (
	// VisibilityNewOnly selects unsold inventory only.
	VisibilityNewOnly VisibilityScope = iota
	// VisibilityAll selects every lead regardless of status.
	VisibilityAll
	// VisibilityNewOrOwned selects unsold inventory plus leads the owner bought.
	VisibilityNewOrOwned
)

// Visibility is the predicate determining which leads a viewer's feed includes.
type Visibility struct {
	Scope   VisibilityScope
	OwnerID int64
}

// Matches reports whether a lead satisfies the predicate.
func (v Visibility) Matches(l *Lead) bool {
	switch v.Scope {
	case VisibilityAll:
		return true
	case VisibilityNewOrOwned:
		return l.Status == LeadStatusNew || l.HasBuyer(v.OwnerID)
	default:
		return l.Status == LeadStatusNew
	}
}
