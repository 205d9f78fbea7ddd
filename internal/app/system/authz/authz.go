// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/mozillians/internal/app/policy/grouppolicy"
	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the signed-in profile's name, ObjectID, superuser flag and
// a found flag. A missing user or a malformed id yields ok=false, so callers
// can trust that ok=true means a valid profile id.
func UserCtx(r *http.Request) (name string, profileID primitive.ObjectID, superuser bool, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false, false
	}
	profileID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed id in session: fail closed.
		return "", primitive.NilObjectID, false, false
	}
	return user.Name, profileID, user.IsSuperuser, true
}

// Actor returns the signed-in profile as a policy actor.
func Actor(r *http.Request) (grouppolicy.Actor, bool) {
	_, id, su, ok := UserCtx(r)
	if !ok {
		return grouppolicy.Actor{}, false
	}
	return grouppolicy.Actor{ProfileID: id, IsSuperuser: su}, true
}

// IsSuperuser reports whether the current request's user is a superuser.
func IsSuperuser(r *http.Request) bool {
	_, _, su, ok := UserCtx(r)
	return ok && su
}
