package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nipeihu_platform/platform/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNoItems             = errors.New("shipment must contain at least one item")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrMissingDescription  = errors.New("problem reports require a description")
	ErrGoalAlreadyComplete = errors.New("goal is already completed")
)

type ShipmentItemRequest struct {
	ProductId uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type ShipmentRequest struct {
	Description         string                `json:"description"`
	VoucherPhotoUrl     string                `json:"voucher_photo_url"`
	PackagePhotoUrl     string                `json:"package_photo_url"`
	ExpectedArrivalDate *time.Time            `json:"expected_arrival_date"`
	Items               []ShipmentItemRequest `json:"items"`
}

type ProductionActionRequest struct {
	ProductId         uuid.UUID      `json:"product_id"`
	Action            string         `json:"action"`
	Quantity          int            `json:"quantity"`
	VariantQuantities map[string]int `json:"variant_quantities"`
	Description       string         `json:"description"`
	ImageUrl          string         `json:"image_url"`
}

func clampStock(quantity int) int {
	if quantity < 0 {
		return 0
	}
	return quantity
}

// CreateShipment records a shipment with its items and decrements the stock
// of every shipped product, all in one transaction. Stock never goes
// negative; shipping more than is on hand leaves it at zero.
func CreateShipment(db *gorm.DB, req ShipmentRequest) (schema.Shipment, error) {
	if len(req.Items) == 0 {
		return schema.Shipment{}, ErrNoItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return schema.Shipment{}, ErrInvalidQuantity
		}
	}

	shipment := schema.Shipment{
		Id:                  uuid.New(),
		Description:         req.Description,
		VoucherPhotoUrl:     req.VoucherPhotoUrl,
		PackagePhotoUrl:     req.PackagePhotoUrl,
		ExpectedArrivalDate: req.ExpectedArrivalDate,
		Status:              schema.ShipmentPending,
		CreatedAt:           time.Now().UTC(),
	}

	err := db.Transaction(func(txn *gorm.DB) error {
		for _, item := range req.Items {
			product, err := schema.GetProduct(item.ProductId, txn)
			if err != nil {
				return err
			}

			product.StockQuantity = clampStock(product.StockQuantity - item.Quantity)
			if err := txn.Model(&schema.Product{}).Where("id = ?", product.Id).
				Update("stock_quantity", product.StockQuantity).Error; err != nil {
				slog.Error("sql error updating product stock", "error", err)
				return schema.ErrDbAccessFailed
			}

			shipment.Items = append(shipment.Items, schema.ShipmentItem{
				ShipmentId: shipment.Id,
				ProductId:  item.ProductId,
				Quantity:   item.Quantity,
			})
		}

		if err := txn.Create(&shipment).Error; err != nil {
			slog.Error("sql error creating shipment", "error", err)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return schema.Shipment{}, err
	}

	return shipment, nil
}

// MarkShipmentReceived moves a pending shipment to received.
func MarkShipmentReceived(db *gorm.DB, shipmentId uuid.UUID) error {
	result := db.Model(&schema.Shipment{}).Where("id = ?", shipmentId).
		Update("status", schema.ShipmentReceived)
	if result.Error != nil {
		slog.Error("sql error updating shipment status", "error", result.Error)
		return schema.ErrDbAccessFailed
	}
	if result.RowsAffected == 0 {
		return schema.ErrShipmentNotFound
	}
	return nil
}

func totalQuantity(req *ProductionActionRequest) int {
	if len(req.VariantQuantities) == 0 {
		return req.Quantity
	}
	total := 0
	for _, qty := range req.VariantQuantities {
		total += qty
	}
	return total
}

// LogProductionAction appends one immutable event to the production ledger
// and applies its side effects in the same transaction:
//
//	produced: stock goes up, the worker's current rate is recorded on the
//	          log, and pending goals for the product accumulate progress.
//	sent:     stock goes down, clamped at zero.
//	problem:  no stock change, a description is mandatory.
func LogProductionAction(db *gorm.DB, user schema.User, req ProductionActionRequest) (schema.ProductionLog, error) {
	if !schema.CheckValidAction(req.Action) {
		return schema.ProductionLog{}, fmt.Errorf("invalid production action '%v'", req.Action)
	}

	quantity := totalQuantity(&req)
	switch req.Action {
	case schema.ActionProblem:
		if req.Description == "" {
			return schema.ProductionLog{}, ErrMissingDescription
		}
		quantity = 0
	default:
		if quantity <= 0 {
			return schema.ProductionLog{}, ErrInvalidQuantity
		}
	}

	log := schema.ProductionLog{
		Id:                uuid.New(),
		ProductId:         req.ProductId,
		UserId:            user.Id,
		Action:            req.Action,
		Quantity:          quantity,
		VariantQuantities: req.VariantQuantities,
		Description:       req.Description,
		ImageUrl:          req.ImageUrl,
		CreatedAt:         time.Now().UTC(),
	}

	err := db.Transaction(func(txn *gorm.DB) error {
		product, err := schema.GetProduct(req.ProductId, txn)
		if err != nil {
			return err
		}

		switch req.Action {
		case schema.ActionProduced:
			settings, err := schema.GetWorkerSettings(user.Id, txn)
			if err != nil && !errors.Is(err, schema.ErrWorkerConfigNotFound) {
				return err
			}
			// rate snapshot at write time, only for workers paid per unit;
			// zero for fixed-salary and unconfigured workers
			if settings.PaymentType == schema.PaymentProduction || settings.PaymentType == schema.PaymentMixed {
				log.UnitLaborCost = settings.ProductionRate
			}

			product.StockQuantity += quantity
			if err := accumulateGoals(txn, &req, quantity); err != nil {
				return err
			}
		case schema.ActionSent:
			product.StockQuantity = clampStock(product.StockQuantity - quantity)
		}

		if req.Action != schema.ActionProblem {
			if err := txn.Model(&schema.Product{}).Where("id = ?", product.Id).
				Update("stock_quantity", product.StockQuantity).Error; err != nil {
				slog.Error("sql error updating product stock", "error", err)
				return schema.ErrDbAccessFailed
			}
		}

		if err := txn.Create(&log).Error; err != nil {
			slog.Error("sql error creating production log", "error", err)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return schema.ProductionLog{}, err
	}

	return log, nil
}

// ListLogs returns the product's ledger, newest first.
func ListLogs(db *gorm.DB, productId uuid.UUID) ([]schema.ProductionLog, error) {
	var logs []schema.ProductionLog
	err := db.Where("product_id = ?", productId).Order("created_at desc").Find(&logs).Error
	if err != nil {
		slog.Error("sql error listing production logs", "error", err)
		return nil, schema.ErrDbAccessFailed
	}
	return logs, nil
}
