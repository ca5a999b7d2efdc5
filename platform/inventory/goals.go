package inventory

import (
	"log/slog"
	"time"

	"nipeihu_platform/platform/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TotalVariant is the implicit goal bucket for products without sizes or for
// logs that do not break quantities down by variant.
const TotalVariant = "Total"

type GoalRequest struct {
	ProductId uuid.UUID      `json:"product_id"`
	Name      string         `json:"name"`
	Deadline  *time.Time     `json:"deadline"`
	Targets   map[string]int `json:"targets"`
}

// CreateGoal opens a pending production goal with zeroed progress.
func CreateGoal(db *gorm.DB, req GoalRequest) (schema.ProductionGoal, error) {
	if _, err := schema.GetProduct(req.ProductId, db); err != nil {
		return schema.ProductionGoal{}, err
	}

	targets := req.Targets
	if len(targets) == 0 {
		targets = map[string]int{TotalVariant: 0}
	}

	progress := make(map[string]int, len(targets))
	for variant := range targets {
		progress[variant] = 0
	}

	goal := schema.ProductionGoal{
		Id:        uuid.New(),
		ProductId: req.ProductId,
		Name:      req.Name,
		Deadline:  req.Deadline,
		Targets:   targets,
		Progress:  progress,
		Status:    schema.GoalPending,
	}

	if err := db.Create(&goal).Error; err != nil {
		slog.Error("sql error creating production goal", "error", err)
		return schema.ProductionGoal{}, schema.ErrDbAccessFailed
	}
	return goal, nil
}

// accumulateGoals adds a produced log's quantities to every pending goal for
// the product. Progress only ever increases; completion is a separate,
// deliberate act and is never triggered by reaching a target.
func accumulateGoals(txn *gorm.DB, req *ProductionActionRequest, quantity int) error {
	var goals []schema.ProductionGoal
	err := txn.Where("product_id = ? AND status = ?", req.ProductId, schema.GoalPending).Find(&goals).Error
	if err != nil {
		slog.Error("sql error listing production goals", "error", err)
		return schema.ErrDbAccessFailed
	}

	for i := range goals {
		goal := &goals[i]
		if goal.Progress == nil {
			goal.Progress = map[string]int{}
		}

		if len(req.VariantQuantities) == 0 {
			goal.Progress[TotalVariant] += quantity
		} else {
			for variant, qty := range req.VariantQuantities {
				goal.Progress[variant] += qty
			}
		}

		if err := txn.Model(&schema.ProductionGoal{}).Where("id = ?", goal.Id).
			Update("progress", goal.Progress).Error; err != nil {
			slog.Error("sql error updating goal progress", "error", err)
			return schema.ErrDbAccessFailed
		}
	}
	return nil
}

// CompleteGoal marks a goal completed. Only an explicit call does this,
// regardless of how far progress has run past the targets.
func CompleteGoal(db *gorm.DB, goalId uuid.UUID) error {
	goal, err := schema.GetGoal(goalId, db)
	if err != nil {
		return err
	}
	if goal.Status == schema.GoalCompleted {
		return ErrGoalAlreadyComplete
	}

	if err := db.Model(&schema.ProductionGoal{}).Where("id = ?", goalId).
		Update("status", schema.GoalCompleted).Error; err != nil {
		slog.Error("sql error completing goal", "error", err)
		return schema.ErrDbAccessFailed
	}
	return nil
}

// ListGoals returns the goals for a product, pending first, newest name last.
func ListGoals(db *gorm.DB, productId uuid.UUID) ([]schema.ProductionGoal, error) {
	var goals []schema.ProductionGoal
	err := db.Where("product_id = ?", productId).Order("status desc, name").Find(&goals).Error
	if err != nil {
		slog.Error("sql error listing production goals", "error", err)
		return nil, schema.ErrDbAccessFailed
	}
	return goals, nil
}
