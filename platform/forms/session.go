package forms

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrFormNotLoaded    = errors.New("no form document is loaded")
	ErrSaveInFlight     = errors.New("a save is already in progress for this document")
	ErrFormAccessDenied = errors.New("user cannot access this form document")
)

// Session drives one user's interaction with a form document: loading,
// field updates, section navigation, and persistence. A session is not
// interactive until a document has been loaded.
type Session struct {
	db   *gorm.DB
	spec FormSpec
	user schema.User

	mu      sync.Mutex
	saving  bool
	loaded  bool
	form    schema.FormDocument
	content Doc
	section int
}

func NewSession(db *gorm.DB, spec FormSpec, user schema.User) *Session {
	return &Session{db: db, spec: spec, user: user}
}

// Load opens the document with the given slug. Missing documents and
// documents the user cannot access leave the session non-interactive.
func (s *Session) Load(slug string) error {
	form, err := schema.GetFormBySlug(slug, s.db)
	if err != nil {
		return err
	}

	if !auth.CanAccessForm(&form, s.user) {
		return ErrFormAccessDenied
	}

	content, err := DecodeDoc(form.Content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
	s.content = content
	s.section = 0
	s.loaded = true
	return nil
}

// LoadOrCreate opens the user's own document, creating it on first access.
// Each user has at most one document per slug prefix.
func (s *Session) LoadOrCreate(slugPrefix string) error {
	var form schema.FormDocument
	err := s.db.Transaction(func(txn *gorm.DB) error {
		result := txn.Where("owner_id = ?", s.user.Id).First(&form)
		if result.Error == nil {
			return nil
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Error("sql error checking for form document", "error", result.Error)
			return schema.ErrDbAccessFailed
		}

		form = schema.FormDocument{
			Id:        uuid.New(),
			Slug:      fmt.Sprintf("%v-%v", slugPrefix, s.user.Id.String()[:8]),
			OwnerId:   s.user.Id,
			Content:   "{}",
			Status:    schema.FormDraft,
			UpdatedAt: time.Now().UTC(),
		}
		if err := txn.Create(&form).Error; err != nil {
			slog.Error("sql error creating form document", "error", err)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return err
	}

	content, err := DecodeDoc(form.Content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
	s.content = content
	s.section = 0
	s.loaded = true
	return nil
}

func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Status
}

func (s *Session) Slug() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Slug
}

// Editable reports whether the document accepts updates. A submitted
// document still does: saving it updates the submission without ever
// reopening it as a draft.
func (s *Session) Editable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// SetField updates one field value in the working copy. Nothing is persisted
// until Save.
func (s *Session) SetField(path Path, value Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrFormNotLoaded
	}
	s.content.Set(path, value)
	return nil
}

// ToggleCheckbox flips one option in a checkbox group.
func (s *Session) ToggleCheckbox(path Path, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrFormNotLoaded
	}
	list := AsList(s.content.Get(path))
	s.content.Set(path, list.Toggle(option))
	return nil
}

func (s *Session) findField(key string) (*FieldSpec, error) {
	for i := range s.spec.Sections {
		for j := range s.spec.Sections[i].Fields {
			if s.spec.Sections[i].Fields[j].Key == key {
				return &s.spec.Sections[i].Fields[j], nil
			}
		}
	}
	return nil, fmt.Errorf("form has no field '%v'", key)
}

func (s *Session) AddItem(repeaterKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrFormNotLoaded
	}
	field, err := s.findField(repeaterKey)
	if err != nil {
		return err
	}
	if field.Kind != KindRepeater {
		return fmt.Errorf("field '%v' is not a repeater", repeaterKey)
	}
	return AddRepeaterItem(s.content, field)
}

func (s *Session) RemoveItem(repeaterKey string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrFormNotLoaded
	}
	field, err := s.findField(repeaterKey)
	if err != nil {
		return err
	}
	if field.Kind != KindRepeater {
		return fmt.Errorf("field '%v' is not a repeater", repeaterKey)
	}
	return RemoveRepeaterItem(s.content, field, index)
}

// Section returns the current section index.
func (s *Session) Section() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.section
}

// GoToSection moves to the given section, clamped to the form's section range.
func (s *Session) GoToSection(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if index >= len(s.spec.Sections) {
		index = len(s.spec.Sections) - 1
	}
	s.section = index
	return s.section
}

func (s *Session) NextSection() int {
	return s.GoToSection(s.Section() + 1)
}

func (s *Session) PrevSection() int {
	return s.GoToSection(s.Section() - 1)
}

// Render produces the display tree for the current section.
func (s *Session) Render() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil
	}
	return RenderSection(s.spec.Sections[s.section], s.content, true)
}

// Save persists the working copy. With finalize the document becomes
// submitted and records the submission time; a submitted document never
// returns to draft, and later saves update the submission in place. Every
// successful save also projects the well known fields onto the owner's
// profile. Only one save may be in flight at a time.
func (s *Session) Save(finalize bool) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrFormNotLoaded
	}
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.saving = true

	encoded, err := EncodeDoc(s.content)
	if err != nil {
		s.saving = false
		s.mu.Unlock()
		return err
	}

	now := time.Now().UTC()
	form := s.form
	form.Content = encoded
	form.UpdatedAt = now
	if finalize {
		form.Status = schema.FormSubmitted
		form.LastSubmittedAt = &now
	}
	content := s.content
	ownerId := form.OwnerId
	s.mu.Unlock()

	if err := s.db.Save(&form).Error; err != nil {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
		slog.Error("sql error saving form document", "error", err)
		return schema.ErrDbAccessFailed
	}

	if err := SyncProfile(s.db, ownerId, content); err != nil {
		// the document itself saved, a stale profile is not fatal
		slog.Error("error syncing profile from form document", "error", err, "user_id", ownerId)
	}

	s.mu.Lock()
	s.form = form
	s.saving = false
	s.mu.Unlock()
	return nil
}
