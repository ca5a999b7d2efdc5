package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/forms"
	"nipeihu_platform/platform/realtime"
	"nipeihu_platform/platform/schema"
	"nipeihu_platform/utils"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

const onboardingSlugPrefix = "onboarding"

// FormService drives the onboarding wizard. Each request opens the caller's
// document, applies one operation, and persists it.
type FormService struct {
	db       *gorm.DB
	spec     forms.FormSpec
	userAuth auth.IdentityProvider
	hub      *realtime.Hub
}

func (s *FormService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/my", s.MyForm)
		r.Get("/my/render", s.RenderMyForm)

		r.Post("/my/field", s.SetField)
		r.Post("/my/checkbox", s.ToggleCheckbox)

		r.Post("/my/repeater/{key}", s.AddRepeaterItem)
		r.Delete("/my/repeater/{key}/{index}", s.RemoveRepeaterItem)

		r.Post("/my/save", s.Save)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Get("/list", s.List)
		r.Get("/{slug}/render", s.RenderBySlug)
	})

	return r
}

func (s *FormService) openSession(r *http.Request) (*forms.Session, error) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		return nil, CodedError(err, http.StatusUnauthorized)
	}

	session := forms.NewSession(s.db, s.spec, user)
	if err := session.LoadOrCreate(onboardingSlugPrefix); err != nil {
		return nil, CodedError(err, recordErrorCode(err))
	}
	return session, nil
}

func formErrorCode(err error) int {
	switch {
	case errors.Is(err, forms.ErrSaveInFlight):
		return http.StatusConflict
	case errors.Is(err, forms.ErrFormAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, schema.ErrFormNotFound):
		return http.StatusNotFound
	}
	return recordErrorCode(err)
}

type formState struct {
	Slug         string `json:"slug"`
	Status       string `json:"status"`
	SectionCount int    `json:"section_count"`
	Editable     bool   `json:"editable"`
}

func (s *FormService) state(session *forms.Session, slug string) formState {
	return formState{
		Slug:         slug,
		Status:       session.Status(),
		SectionCount: len(s.spec.Sections),
		Editable:     session.Editable(),
	}
}

func (s *FormService) MyForm(w http.ResponseWriter, r *http.Request) {
	session, err := s.openSession(r)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, s.state(session, session.Slug()))
}

type renderResponse struct {
	Section int          `json:"section"`
	Title   string       `json:"title"`
	Status  string       `json:"status"`
	Nodes   []forms.Node `json:"nodes"`
}

func (s *FormService) renderSection(w http.ResponseWriter, r *http.Request, session *forms.Session) {
	section := session.GoToSection(utils.QueryParamInt(r, "section", 0))

	utils.WriteJsonResponse(w, renderResponse{
		Section: section,
		Title:   s.spec.Sections[section].Title,
		Status:  session.Status(),
		Nodes:   session.Render(),
	})
}

func (s *FormService) RenderMyForm(w http.ResponseWriter, r *http.Request) {
	session, err := s.openSession(r)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	s.renderSection(w, r, session)
}

type fieldUpdateRequest struct {
	Parent string   `json:"parent"`
	Index  *int     `json:"index"`
	Key    string   `json:"key"`
	Value  string   `json:"value"`
	Values []string `json:"values"`
}

func (r *fieldUpdateRequest) path() forms.Path {
	index := -1
	if r.Index != nil {
		index = *r.Index
	}
	return forms.Path{Parent: r.Parent, Index: index, Key: r.Key}
}

func (r *fieldUpdateRequest) value() forms.Value {
	if r.Values != nil {
		list := make(forms.List, 0, len(r.Values))
		for _, v := range r.Values {
			list = append(list, forms.Scalar(v))
		}
		return list
	}
	return forms.Scalar(r.Value)
}

func (s *FormService) applyAndSave(w http.ResponseWriter, r *http.Request, apply func(*forms.Session) error) {
	session, err := s.openSession(r)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	if err := apply(session); err != nil {
		http.Error(w, err.Error(), formErrorCode(err))
		return
	}

	if err := session.Save(false); err != nil {
		http.Error(w, err.Error(), formErrorCode(err))
		return
	}

	s.publishUpdate(session)
	utils.WriteSuccess(w)
}

func (s *FormService) publishUpdate(session *forms.Session) {
	s.hub.Publish(realtime.Event{
		Table:   "form_documents",
		Op:      realtime.OpUpdate,
		RowId:   session.Slug(),
		Columns: []string{"content", "status"},
	})
}

func (s *FormService) SetField(w http.ResponseWriter, r *http.Request) {
	var params fieldUpdateRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if params.Key == "" {
		http.Error(w, "field key cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	s.applyAndSave(w, r, func(session *forms.Session) error {
		return session.SetField(params.path(), params.value())
	})
}

type toggleCheckboxRequest struct {
	Parent string `json:"parent"`
	Index  *int   `json:"index"`
	Key    string `json:"key"`
	Option string `json:"option"`
}

func (s *FormService) ToggleCheckbox(w http.ResponseWriter, r *http.Request) {
	var params toggleCheckboxRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	index := -1
	if params.Index != nil {
		index = *params.Index
	}
	path := forms.Path{Parent: params.Parent, Index: index, Key: params.Key}

	s.applyAndSave(w, r, func(session *forms.Session) error {
		return session.ToggleCheckbox(path, params.Option)
	})
}

func (s *FormService) AddRepeaterItem(w http.ResponseWriter, r *http.Request) {
	key, err := utils.URLParam(r, "key")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.applyAndSave(w, r, func(session *forms.Session) error {
		return session.AddItem(key)
	})
}

func (s *FormService) RemoveRepeaterItem(w http.ResponseWriter, r *http.Request) {
	key, err := utils.URLParam(r, "key")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	indexParam, err := utils.URLParam(r, "index")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	index, err := strconv.Atoi(indexParam)
	if err != nil || index < 0 {
		http.Error(w, "invalid repeater index", http.StatusBadRequest)
		return
	}

	s.applyAndSave(w, r, func(session *forms.Session) error {
		return session.RemoveItem(key, index)
	})
}

type saveRequest struct {
	Finalize bool `json:"finalize"`
}

func (s *FormService) Save(w http.ResponseWriter, r *http.Request) {
	var params saveRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	session, err := s.openSession(r)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	if err := session.Save(params.Finalize); err != nil {
		http.Error(w, err.Error(), formErrorCode(err))
		return
	}

	s.publishUpdate(session)
	utils.WriteJsonResponse(w, s.state(session, session.Slug()))
}

type formListEntry struct {
	Slug      string `json:"slug"`
	Owner     string `json:"owner"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

func (s *FormService) List(w http.ResponseWriter, r *http.Request) {
	var documents []schema.FormDocument
	if err := s.db.Preload("Owner").Order("updated_at desc").Find(&documents).Error; err != nil {
		slog.Error("sql error listing form documents", "error", err)
		http.Error(w, "error listing form documents", http.StatusInternalServerError)
		return
	}

	entries := make([]formListEntry, 0, len(documents))
	for _, doc := range documents {
		entry := formListEntry{
			Slug:      doc.Slug,
			Status:    doc.Status,
			UpdatedAt: doc.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if doc.Owner != nil {
			entry.Owner = doc.Owner.Username
		}
		entries = append(entries, entry)
	}

	utils.WriteJsonResponse(w, entries)
}

func (s *FormService) RenderBySlug(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	slug, err := utils.URLParam(r, "slug")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session := forms.NewSession(s.db, s.spec, user)
	if err := session.Load(slug); err != nil {
		http.Error(w, fmt.Sprintf("error opening form document: %v", err), formErrorCode(err))
		return
	}

	s.renderSection(w, r, session)
}
