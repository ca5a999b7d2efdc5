package services

import (
	"errors"
	"net/http"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/inventory"
	"nipeihu_platform/platform/realtime"
	"nipeihu_platform/platform/schema"
	"nipeihu_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	productionActionMetric = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "production_action", Help: "Production ledger writes",
	})
	createShipmentMetric = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "create_shipment", Help: "Shipment creations",
	})
)

// InventoryService exposes the production console: the ledger, shipments,
// and production goals.
type InventoryService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	hub      *realtime.Hub
}

func (s *InventoryService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Post("/log", s.LogAction)
		r.Get("/log/{product_id}", s.ListLogs)

		r.Get("/goals/{product_id}", s.ListGoals)

		r.Get("/shipments", s.ListShipments)
		r.Get("/shipments/{shipment_id}", s.GetShipment)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Post("/goals", s.CreateGoal)
		r.Post("/goals/{goal_id}/complete", s.CompleteGoal)

		r.Post("/shipments", s.CreateShipment)
		r.Post("/shipments/{shipment_id}/received", s.MarkShipmentReceived)
	})

	return r
}

func (s *InventoryService) LogAction(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var params inventory.ProductionActionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	timer := prometheus.NewTimer(productionActionMetric)
	defer timer.ObserveDuration()

	log, err := inventory.LogProductionAction(s.db, user, params)
	if err != nil {
		http.Error(w, err.Error(), inventoryErrorCode(err))
		return
	}

	s.hub.Publish(realtime.Event{
		Table: "production_logs", Op: realtime.OpInsert, RowId: log.Id.String(),
	})
	if log.Action != schema.ActionProblem {
		s.hub.Publish(realtime.Event{
			Table: "products", Op: realtime.OpUpdate, RowId: log.ProductId.String(),
			Columns: []string{"stock_quantity"},
		})
	}

	utils.WriteJsonResponse(w, log)
}

func inventoryErrorCode(err error) int {
	switch {
	case errors.Is(err, inventory.ErrNoItems),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrMissingDescription):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inventory.ErrGoalAlreadyComplete):
		return http.StatusConflict
	}
	return recordErrorCode(err)
}

func (s *InventoryService) ListLogs(w http.ResponseWriter, r *http.Request) {
	productId, err := utils.URLParamUUID(r, "product_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logs, err := inventory.ListLogs(s.db, productId)
	if err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	utils.WriteJsonResponse(w, logs)
}

func (s *InventoryService) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var params inventory.GoalRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	goal, err := inventory.CreateGoal(s.db, params)
	if err != nil {
		http.Error(w, err.Error(), inventoryErrorCode(err))
		return
	}

	utils.WriteJsonResponse(w, goal)
}

func (s *InventoryService) ListGoals(w http.ResponseWriter, r *http.Request) {
	productId, err := utils.URLParamUUID(r, "product_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	goals, err := inventory.ListGoals(s.db, productId)
	if err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	utils.WriteJsonResponse(w, goals)
}

func (s *InventoryService) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	goalId, err := utils.URLParamUUID(r, "goal_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := inventory.CompleteGoal(s.db, goalId); err != nil {
		http.Error(w, err.Error(), inventoryErrorCode(err))
		return
	}

	s.hub.Publish(realtime.Event{
		Table: "production_goals", Op: realtime.OpUpdate, RowId: goalId.String(),
		Columns: []string{"status"},
	})

	utils.WriteSuccess(w)
}

func (s *InventoryService) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var params inventory.ShipmentRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	timer := prometheus.NewTimer(createShipmentMetric)
	defer timer.ObserveDuration()

	shipment, err := inventory.CreateShipment(s.db, params)
	if err != nil {
		http.Error(w, err.Error(), inventoryErrorCode(err))
		return
	}

	s.hub.Publish(realtime.Event{
		Table: "shipments", Op: realtime.OpInsert, RowId: shipment.Id.String(),
	})
	for _, item := range shipment.Items {
		s.hub.Publish(realtime.Event{
			Table: "products", Op: realtime.OpUpdate, RowId: item.ProductId.String(),
			Columns: []string{"stock_quantity"},
		})
	}

	utils.WriteJsonResponse(w, shipment)
}

func (s *InventoryService) ListShipments(w http.ResponseWriter, r *http.Request) {
	var shipments []schema.Shipment
	err := s.db.Preload("Items").Order("created_at desc").Find(&shipments).Error
	if err != nil {
		http.Error(w, "error listing shipments", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, shipments)
}

func (s *InventoryService) GetShipment(w http.ResponseWriter, r *http.Request) {
	shipmentId, err := utils.URLParamUUID(r, "shipment_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	shipment, err := schema.GetShipment(shipmentId, s.db)
	if err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	utils.WriteJsonResponse(w, shipment)
}

func (s *InventoryService) MarkShipmentReceived(w http.ResponseWriter, r *http.Request) {
	shipmentId, err := utils.URLParamUUID(r, "shipment_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := inventory.MarkShipmentReceived(s.db, shipmentId); err != nil {
		http.Error(w, err.Error(), inventoryErrorCode(err))
		return
	}

	s.hub.Publish(realtime.Event{
		Table: "shipments", Op: realtime.OpUpdate, RowId: shipmentId.String(),
		Columns: []string{"status"},
	})

	utils.WriteSuccess(w)
}
