package services

import (
	"log/slog"
	"net/http"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/schema"
	"nipeihu_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SquadService manages the work squads guardians are organized into.
type SquadService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *SquadService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/list", s.List)
		r.Get("/{squad_id}/members", s.Members)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Post("/create", s.Create)
		r.Delete("/{squad_id}", s.Delete)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOrSquadLeadOnly(s.db))

		r.Post("/{squad_id}/members/{user_id}", s.AddMember)
		r.Delete("/{squad_id}/members/{user_id}", s.RemoveMember)
		r.Post("/{squad_id}/members/{user_id}/lead", s.PromoteLead)
		r.Delete("/{squad_id}/members/{user_id}/lead", s.DemoteLead)
	})

	return r
}

type createSquadRequest struct {
	Name string `json:"name"`
}

type createSquadResponse struct {
	SquadId uuid.UUID `json:"squad_id"`
}

func (s *SquadService) Create(w http.ResponseWriter, r *http.Request) {
	var params createSquadRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "squad name cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	squad := schema.Squad{Id: uuid.New(), Name: params.Name}
	if err := s.db.Create(&squad).Error; err != nil {
		slog.Error("sql error creating squad", "error", err)
		http.Error(w, "error creating squad", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, createSquadResponse{SquadId: squad.Id})
}

func (s *SquadService) List(w http.ResponseWriter, r *http.Request) {
	var squads []schema.Squad
	if err := s.db.Order("name").Find(&squads).Error; err != nil {
		slog.Error("sql error listing squads", "error", err)
		http.Error(w, "error listing squads", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, squads)
}

type squadMember struct {
	UserId   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	IsLead   bool      `json:"is_lead"`
}

func (s *SquadService) Members(w http.ResponseWriter, r *http.Request) {
	squadId, err := utils.URLParamUUID(r, "squad_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := schema.GetSquad(squadId, s.db); err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	var memberships []schema.UserSquad
	if err := s.db.Preload("User").Where("squad_id = ?", squadId).Find(&memberships).Error; err != nil {
		slog.Error("sql error listing squad members", "error", err)
		http.Error(w, "error listing squad members", http.StatusInternalServerError)
		return
	}

	members := make([]squadMember, 0, len(memberships))
	for _, m := range memberships {
		member := squadMember{UserId: m.UserId, IsLead: m.IsLead}
		if m.User != nil {
			member.Username = m.User.Username
		}
		members = append(members, member)
	}

	utils.WriteJsonResponse(w, members)
}

func (s *SquadService) Delete(w http.ResponseWriter, r *http.Request) {
	squadId, err := utils.URLParamUUID(r, "squad_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := txn.Where("squad_id = ?", squadId).Delete(&schema.UserSquad{}).Error; err != nil {
			slog.Error("sql error deleting squad memberships", "error", err)
			return schema.ErrDbAccessFailed
		}
		result := txn.Delete(&schema.Squad{}, "id = ?", squadId)
		if result.Error != nil {
			slog.Error("sql error deleting squad", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		if result.RowsAffected == 0 {
			return schema.ErrSquadNotFound
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *SquadService) memberIds(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	squadId, err := utils.URLParamUUID(r, "squad_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return squadId, userId, nil
}

func (s *SquadService) AddMember(w http.ResponseWriter, r *http.Request) {
	squadId, userId, err := s.memberIds(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := schema.GetSquad(squadId, s.db); err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}
	if _, err := schema.GetUser(userId, s.db); err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	membership := schema.UserSquad{SquadId: squadId, UserId: userId}
	if err := s.db.Save(&membership).Error; err != nil {
		slog.Error("sql error adding squad member", "error", err)
		http.Error(w, "error adding squad member", http.StatusInternalServerError)
		return
	}

	utils.WriteSuccess(w)
}

func (s *SquadService) RemoveMember(w http.ResponseWriter, r *http.Request) {
	squadId, userId, err := s.memberIds(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Where("squad_id = ? AND user_id = ?", squadId, userId).Delete(&schema.UserSquad{})
	if result.Error != nil {
		slog.Error("sql error removing squad member", "error", result.Error)
		http.Error(w, "error removing squad member", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "user is not a member of this squad", http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

func (s *SquadService) updateLead(w http.ResponseWriter, r *http.Request, isLead bool) {
	squadId, userId, err := s.memberIds(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Model(&schema.UserSquad{}).
		Where("squad_id = ? AND user_id = ?", squadId, userId).
		Update("is_lead", isLead)
	if result.Error != nil {
		slog.Error("sql error updating squad lead", "error", result.Error)
		http.Error(w, "error updating squad lead", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "user is not a member of this squad", http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

func (s *SquadService) PromoteLead(w http.ResponseWriter, r *http.Request) {
	s.updateLead(w, r, true)
}

func (s *SquadService) DemoteLead(w http.ResponseWriter, r *http.Request) {
	s.updateLead(w, r, false)
}
