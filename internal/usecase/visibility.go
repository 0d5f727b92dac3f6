package usecase

import "github.com/drobyshev/leadmart/internal/domain/model"

// VisibilityFor computes the feed predicate for a viewer.
//
// Anonymous viewers are admitted to unsold inventory only. Admins see
// everything. A standard user sees unsold inventory plus every lead they
// personally bought, including archived ones they helped archive.
func VisibilityFor(viewer *model.Viewer) model.Visibility {
	switch {
	case viewer == nil:
		return model.Visibility{Scope: model.VisibilityNewOnly}
	case viewer.Role == model.RoleAdmin:
		return model.Visibility{Scope: model.VisibilityAll}
	default:
		return model.Visibility{Scope: model.VisibilityNewOrOwned, OwnerID: viewer.UserID}
	}
}
