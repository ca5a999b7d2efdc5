package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrFormNotFound           = errors.New("form not found")
	ErrProductNotFound        = errors.New("product not found")
	ErrGoalNotFound           = errors.New("production goal not found")
	ErrShipmentNotFound       = errors.New("shipment not found")
	ErrSquadNotFound          = errors.New("squad not found")
	ErrUserSquadNotFound      = errors.New("user squad relationship not found")
	ErrWorkerConfigNotFound   = errors.New("worker settings not found")
	ErrToolNotFound           = errors.New("tool not found")
	ErrDbAccessFailed         = errors.New("db access failed")
)

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetFormBySlug(slug string, db *gorm.DB) (FormDocument, error) {
	var form FormDocument

	result := db.First(&form, "slug = ?", slug)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return form, ErrFormNotFound
		}
		slog.Error("sql error in get form by slug", "slug", slug, "error", result.Error)
		return form, ErrDbAccessFailed
	}

	return form, nil
}

func GetProduct(productId uuid.UUID, db *gorm.DB) (Product, error) {
	var product Product

	result := db.First(&product, "id = ?", productId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return product, ErrProductNotFound
		}
		slog.Error("sql error in get product", "product_id", productId, "error", result.Error)
		return product, ErrDbAccessFailed
	}

	return product, nil
}

func GetGoal(goalId uuid.UUID, db *gorm.DB) (ProductionGoal, error) {
	var goal ProductionGoal

	result := db.First(&goal, "id = ?", goalId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return goal, ErrGoalNotFound
		}
		slog.Error("sql error in get goal", "goal_id", goalId, "error", result.Error)
		return goal, ErrDbAccessFailed
	}

	return goal, nil
}

func GetShipment(shipmentId uuid.UUID, db *gorm.DB) (Shipment, error) {
	var shipment Shipment

	result := db.Preload("Items").First(&shipment, "id = ?", shipmentId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return shipment, ErrShipmentNotFound
		}
		slog.Error("sql error in get shipment", "shipment_id", shipmentId, "error", result.Error)
		return shipment, ErrDbAccessFailed
	}

	return shipment, nil
}

func GetWorkerSettings(userId uuid.UUID, db *gorm.DB) (WorkerSettings, error) {
	var settings WorkerSettings

	result := db.First(&settings, "user_id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return settings, ErrWorkerConfigNotFound
		}
		slog.Error("sql error in get worker settings", "user_id", userId, "error", result.Error)
		return settings, ErrDbAccessFailed
	}

	return settings, nil
}

func GetSquad(squadId uuid.UUID, db *gorm.DB) (Squad, error) {
	var squad Squad

	result := db.First(&squad, "id = ?", squadId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return squad, ErrSquadNotFound
		}
		slog.Error("sql error in get squad", "squad_id", squadId, "error", result.Error)
		return squad, ErrDbAccessFailed
	}

	return squad, nil
}

func GetUserSquad(squadId, userId uuid.UUID, db *gorm.DB) (UserSquad, error) {
	var userSquad UserSquad
	result := db.First(&userSquad, "squad_id = ? and user_id = ?", squadId, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return userSquad, ErrUserSquadNotFound
		}
		slog.Error("sql error in get user squad", "squad_id", squadId, "user_id", userId, "error", result.Error)
		return userSquad, ErrDbAccessFailed
	}

	return userSquad, nil
}

func GetTool(toolId uuid.UUID, db *gorm.DB) (Tool, error) {
	var tool Tool

	result := db.First(&tool, "id = ?", toolId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tool, ErrToolNotFound
		}
		slog.Error("sql error in get tool", "tool_id", toolId, "error", result.Error)
		return tool, ErrDbAccessFailed
	}

	return tool, nil
}

func CheckValidAction(action string) bool {
	return action == ActionProduced || action == ActionSent || action == ActionProblem
}

func CheckValidPaymentType(paymentType string) bool {
	return paymentType == PaymentFixed || paymentType == PaymentProduction || paymentType == PaymentMixed
}
