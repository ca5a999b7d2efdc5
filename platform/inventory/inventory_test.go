package inventory

import (
	"errors"
	"testing"

	"nipeihu_platform/platform/schema"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInventoryDb(t *testing.T) (*gorm.DB, schema.User) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := schema.Migrate(db); err != nil {
		t.Fatal(err)
	}

	user := schema.User{Id: uuid.New(), Username: "maria", Email: "maria@test.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	return db, user
}

func createProduct(t *testing.T, db *gorm.DB, stock int) schema.Product {
	product := schema.Product{
		Id:            uuid.New(),
		Name:          "Cesto",
		StockQuantity: stock,
		Sizes:         []string{"P", "M", "G"},
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatal(err)
	}
	return product
}

func getStock(t *testing.T, db *gorm.DB, productId uuid.UUID) int {
	product, err := schema.GetProduct(productId, db)
	if err != nil {
		t.Fatal(err)
	}
	return product.StockQuantity
}

func TestProducedIncrementsStockAndSnapshotsRate(t *testing.T) {
	db, user := setupInventoryDb(t)
	product := createProduct(t, db, 3)

	settings := schema.WorkerSettings{
		UserId:         user.Id,
		PaymentType:    schema.PaymentProduction,
		ProductionRate: decimal.RequireFromString("2.50"),
		Active:         true,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatal(err)
	}

	log, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId: product.Id,
		Action:    schema.ActionProduced,
		Quantity:  4,
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := getStock(t, db, product.Id); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}
	if !log.UnitLaborCost.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("expected rate snapshot 2.50, got %v", log.UnitLaborCost)
	}

	// a later rate change must not touch the recorded log
	if err := db.Model(&schema.WorkerSettings{}).Where("user_id = ?", user.Id).
		Update("production_rate", decimal.RequireFromString("9.99")).Error; err != nil {
		t.Fatal(err)
	}
	var stored schema.ProductionLog
	if err := db.First(&stored, "id = ?", log.Id).Error; err != nil {
		t.Fatal(err)
	}
	if !stored.UnitLaborCost.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("stored log changed after rate update: %v", stored.UnitLaborCost)
	}
}

func TestSentClampsStockAtZero(t *testing.T) {
	db, user := setupInventoryDb(t)
	product := createProduct(t, db, 3)

	if _, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId: product.Id,
		Action:    schema.ActionSent,
		Quantity:  10,
	}); err != nil {
		t.Fatal(err)
	}

	if got := getStock(t, db, product.Id); got != 0 {
		t.Fatalf("expected clamped stock 0, got %d", got)
	}
}

func TestProblemRequiresDescriptionAndKeepsStock(t *testing.T) {
	db, user := setupInventoryDb(t)
	product := createProduct(t, db, 5)

	_, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId: product.Id,
		Action:    schema.ActionProblem,
	})
	if !errors.Is(err, ErrMissingDescription) {
		t.Fatalf("expected ErrMissingDescription, got %v", err)
	}

	log, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId:   product.Id,
		Action:      schema.ActionProblem,
		Quantity:    99,
		Description: "tear in the weave",
	})
	if err != nil {
		t.Fatal(err)
	}
	if log.Quantity != 0 {
		t.Fatalf("problem reports must record quantity 0, got %d", log.Quantity)
	}
	if got := getStock(t, db, product.Id); got != 5 {
		t.Fatalf("problem reports must not touch stock, got %d", got)
	}
}

func TestInvalidActionRejected(t *testing.T) {
	db, user := setupInventoryDb(t)
	product := createProduct(t, db, 5)

	_, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId: product.Id,
		Action:    "misplaced",
		Quantity:  1,
	})
	if err == nil {
		t.Fatal("expected invalid action error")
	}
}

func TestVariantQuantitiesSumIntoStock(t *testing.T) {
	db, user := setupInventoryDb(t)
	product := createProduct(t, db, 0)

	log, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId:         product.Id,
		Action:            schema.ActionProduced,
		VariantQuantities: map[string]int{"P": 2, "G": 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if log.Quantity != 5 {
		t.Fatalf("expected summed quantity 5, got %d", log.Quantity)
	}
	if got := getStock(t, db, product.Id); got != 5 {
		t.Fatalf("expected stock 5, got %d", got)
	}
}

func TestGoalAccumulationAndManualCompletion(t *testing.T) {
	db, user := setupInventoryDb(t)
	product := createProduct(t, db, 0)

	goal, err := CreateGoal(db, GoalRequest{
		ProductId: product.Id,
		Name:      "feira de março",
		Targets:   map[string]int{"P": 5, "G": 5},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId:         product.Id,
		Action:            schema.ActionProduced,
		VariantQuantities: map[string]int{"P": 3},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId:         product.Id,
		Action:            schema.ActionProduced,
		VariantQuantities: map[string]int{"P": 4, "G": 6},
	}); err != nil {
		t.Fatal(err)
	}

	stored, err := schema.GetGoal(goal.Id, db)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Progress["P"] != 7 || stored.Progress["G"] != 6 {
		t.Fatalf("unexpected progress: %v", stored.Progress)
	}

	// progress past the targets does not complete the goal on its own
	if stored.Status != schema.GoalPending {
		t.Fatalf("goal must stay pending until completed explicitly, got %v", stored.Status)
	}

	if err := CompleteGoal(db, goal.Id); err != nil {
		t.Fatal(err)
	}
	if err := CompleteGoal(db, goal.Id); !errors.Is(err, ErrGoalAlreadyComplete) {
		t.Fatalf("expected ErrGoalAlreadyComplete, got %v", err)
	}

	// completed goals stop accumulating
	if _, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId:         product.Id,
		Action:            schema.ActionProduced,
		VariantQuantities: map[string]int{"P": 1},
	}); err != nil {
		t.Fatal(err)
	}
	stored, err = schema.GetGoal(goal.Id, db)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Progress["P"] != 7 {
		t.Fatalf("completed goal accumulated progress: %v", stored.Progress)
	}
}

func TestGoalWithoutVariantsUsesTotalBucket(t *testing.T) {
	db, user := setupInventoryDb(t)
	product := createProduct(t, db, 0)

	goal, err := CreateGoal(db, GoalRequest{ProductId: product.Id, Name: "encomenda"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId: product.Id,
		Action:    schema.ActionProduced,
		Quantity:  6,
	}); err != nil {
		t.Fatal(err)
	}

	stored, err := schema.GetGoal(goal.Id, db)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Progress[TotalVariant] != 6 {
		t.Fatalf("expected Total bucket 6, got %v", stored.Progress)
	}
}

func TestCreateShipmentDecrementsAllItems(t *testing.T) {
	db, _ := setupInventoryDb(t)
	first := createProduct(t, db, 10)
	second := createProduct(t, db, 2)

	shipment, err := CreateShipment(db, ShipmentRequest{
		Description: "entrega loja centro",
		Items: []ShipmentItemRequest{
			{ProductId: first.Id, Quantity: 4},
			{ProductId: second.Id, Quantity: 5},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(shipment.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(shipment.Items))
	}

	if got := getStock(t, db, first.Id); got != 6 {
		t.Fatalf("expected stock 6, got %d", got)
	}
	if got := getStock(t, db, second.Id); got != 0 {
		t.Fatalf("expected clamped stock 0, got %d", got)
	}

	loaded, err := schema.GetShipment(shipment.Id, db)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != schema.ShipmentPending {
		t.Fatalf("expected pending shipment, got %v", loaded.Status)
	}

	if err := MarkShipmentReceived(db, shipment.Id); err != nil {
		t.Fatal(err)
	}
	loaded, err = schema.GetShipment(shipment.Id, db)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != schema.ShipmentReceived {
		t.Fatalf("expected received shipment, got %v", loaded.Status)
	}
}

func TestCreateShipmentUnknownProductRollsBack(t *testing.T) {
	db, _ := setupInventoryDb(t)
	product := createProduct(t, db, 10)

	_, err := CreateShipment(db, ShipmentRequest{
		Items: []ShipmentItemRequest{
			{ProductId: product.Id, Quantity: 4},
			{ProductId: uuid.New(), Quantity: 1},
		},
	})
	if !errors.Is(err, schema.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	// the failed transaction must not have shipped the first item
	if got := getStock(t, db, product.Id); got != 10 {
		t.Fatalf("expected stock untouched at 10, got %d", got)
	}

	var count int64
	if err := db.Model(&schema.Shipment{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected no shipments after rollback, got %d", count)
	}
}

func TestCreateShipmentValidation(t *testing.T) {
	db, _ := setupInventoryDb(t)
	product := createProduct(t, db, 10)

	if _, err := CreateShipment(db, ShipmentRequest{}); !errors.Is(err, ErrNoItems) {
		t.Fatalf("expected ErrNoItems, got %v", err)
	}
	_, err := CreateShipment(db, ShipmentRequest{
		Items: []ShipmentItemRequest{{ProductId: product.Id, Quantity: 0}},
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestFixedSalaryWorkerGetsNoRateSnapshot(t *testing.T) {
	db, user := setupInventoryDb(t)
	product := createProduct(t, db, 0)

	// a stale production rate on a fixed-salary worker must not be recorded
	settings := schema.WorkerSettings{
		UserId:         user.Id,
		PaymentType:    schema.PaymentFixed,
		FixedSalary:    decimal.RequireFromString("1000"),
		ProductionRate: decimal.RequireFromString("2.50"),
		Active:         true,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatal(err)
	}

	log, err := LogProductionAction(db, user, ProductionActionRequest{
		ProductId: product.Id,
		Action:    schema.ActionProduced,
		Quantity:  3,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !log.UnitLaborCost.IsZero() {
		t.Fatalf("expected zero rate snapshot for fixed-salary worker, got %v", log.UnitLaborCost)
	}
	if got := getStock(t, db, product.Id); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}
}
