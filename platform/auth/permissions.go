package auth

import (
	"errors"
	"fmt"
	"net/http"

	"nipeihu_platform/platform/schema"
	"nipeihu_platform/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func AdminOnly(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if !user.IsAdmin {
				http.Error(w, fmt.Sprintf("user %v is not an admin", user.Id), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

func isSquadLead(squadId, userId uuid.UUID, db *gorm.DB) (bool, error) {
	userSquad, err := schema.GetUserSquad(squadId, userId, db)
	if err != nil {
		if errors.Is(err, schema.ErrUserSquadNotFound) {
			return false, nil
		}
		return false, err
	}

	return userSquad.IsLead, nil
}

func AdminOrSquadLeadOnly(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			squadId, err := utils.URLParamUUID(r, "squad_id")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			isLead, err := isSquadLead(squadId, user.Id, db)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if !user.IsAdmin && !isLead {
				http.Error(w, "user must be admin or squad lead to access endpoint", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// CanAccessForm is the form ownership rule: the owner may read and write
// their own form, admins have override write access but do not become
// co-owners.
func CanAccessForm(form *schema.FormDocument, user schema.User) bool {
	return user.IsAdmin || form.OwnerId == user.Id
}
