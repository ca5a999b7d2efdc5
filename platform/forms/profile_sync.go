package forms

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"nipeihu_platform/platform/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Well known onboarding keys projected onto the profile record.
const (
	keyFirstName  = "nome"
	keyLastName   = "sobrenome"
	keySpiritName = "nome_espiritual"
	keyPhotoUrl   = "foto_perfil"

	keyContactGroup = "contato"
	keyPhone        = "telefone"
)

// SyncProfile projects the well known onboarding fields onto the owner's
// profile. Only fields present and non-empty in the document are written, so
// a partially filled form never blanks out existing profile data.
func SyncProfile(db *gorm.DB, userId uuid.UUID, content Doc) error {
	updates := map[string]interface{}{}

	first := AsString(content.Get(RootPath(keyFirstName)))
	last := AsString(content.Get(RootPath(keyLastName)))
	if name := strings.TrimSpace(first + " " + last); name != "" {
		updates["display_name"] = name
	}

	if spirit := AsString(content.Get(RootPath(keySpiritName))); spirit != "" {
		updates["spirit_name"] = spirit
	}

	if photo := AsString(content.Get(RootPath(keyPhotoUrl))); photo != "" {
		updates["photo_url"] = photo
	}

	if phone := AsString(content.Get(GroupPath(keyContactGroup, keyPhone))); phone != "" {
		updates["phone"] = phone
	}

	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()

	return db.Transaction(func(txn *gorm.DB) error {
		var profile schema.Profile
		result := txn.Where("user_id = ?", userId).First(&profile)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				slog.Error("sql error loading profile", "error", result.Error)
				return schema.ErrDbAccessFailed
			}
			profile = schema.Profile{UserId: userId}
			if err := txn.Create(&profile).Error; err != nil {
				slog.Error("sql error creating profile", "error", err)
				return schema.ErrDbAccessFailed
			}
		}

		if err := txn.Model(&schema.Profile{}).Where("user_id = ?", userId).Updates(updates).Error; err != nil {
			slog.Error("sql error updating profile", "error", err)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
}
