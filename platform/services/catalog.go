package services

import (
	"log/slog"
	"net/http"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/realtime"
	"nipeihu_platform/platform/schema"
	"nipeihu_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService owns the product catalog. Every guardian can browse it,
// only admins change it.
type CatalogService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	hub      *realtime.Hub
}

func (s *CatalogService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/list", s.List)
		r.Get("/{product_id}", s.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Post("/create", s.Create)
		r.Post("/{product_id}", s.Update)
		r.Delete("/{product_id}", s.Delete)
	})

	return r
}

type productRequest struct {
	Name                  string   `json:"name"`
	TechnicalName         string   `json:"technical_name"`
	Images                []string `json:"images"`
	Sizes                 []string `json:"sizes"`
	StockQuantity         int      `json:"stock_quantity"`
	MonthlyProductionGoal int      `json:"monthly_production_goal"`
}

type createProductResponse struct {
	ProductId uuid.UUID `json:"product_id"`
}

func (s *CatalogService) publish(op realtime.Op, productId uuid.UUID, columns []string) {
	s.hub.Publish(realtime.Event{
		Table:   "products",
		Op:      op,
		RowId:   productId.String(),
		Columns: columns,
	})
}

func (s *CatalogService) List(w http.ResponseWriter, r *http.Request) {
	var products []schema.Product
	if err := s.db.Order("name").Find(&products).Error; err != nil {
		slog.Error("sql error listing products", "error", err)
		http.Error(w, "error listing products", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, products)
}

func (s *CatalogService) Get(w http.ResponseWriter, r *http.Request) {
	productId, err := utils.URLParamUUID(r, "product_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	product, err := schema.GetProduct(productId, s.db)
	if err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	utils.WriteJsonResponse(w, product)
}

func (s *CatalogService) Create(w http.ResponseWriter, r *http.Request) {
	var params productRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "product name cannot be empty", http.StatusUnprocessableEntity)
		return
	}
	if params.StockQuantity < 0 {
		http.Error(w, "stock quantity cannot be negative", http.StatusUnprocessableEntity)
		return
	}

	product := schema.Product{
		Id:                    uuid.New(),
		Name:                  params.Name,
		TechnicalName:         params.TechnicalName,
		Images:                params.Images,
		Sizes:                 params.Sizes,
		StockQuantity:         params.StockQuantity,
		MonthlyProductionGoal: params.MonthlyProductionGoal,
	}

	if err := s.db.Create(&product).Error; err != nil {
		slog.Error("sql error creating product", "error", err)
		http.Error(w, "error creating product", http.StatusInternalServerError)
		return
	}

	s.publish(realtime.OpInsert, product.Id, nil)
	utils.WriteJsonResponse(w, createProductResponse{ProductId: product.Id})
}

func (s *CatalogService) Update(w http.ResponseWriter, r *http.Request) {
	productId, err := utils.URLParamUUID(r, "product_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params productRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.StockQuantity < 0 {
		http.Error(w, "stock quantity cannot be negative", http.StatusUnprocessableEntity)
		return
	}

	if _, err := schema.GetProduct(productId, s.db); err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	updates := map[string]interface{}{
		"name":                    params.Name,
		"technical_name":          params.TechnicalName,
		"images":                  params.Images,
		"sizes":                   params.Sizes,
		"stock_quantity":          params.StockQuantity,
		"monthly_production_goal": params.MonthlyProductionGoal,
	}

	if err := s.db.Model(&schema.Product{}).Where("id = ?", productId).Updates(updates).Error; err != nil {
		slog.Error("sql error updating product", "error", err)
		http.Error(w, "error updating product", http.StatusInternalServerError)
		return
	}

	columns := make([]string, 0, len(updates))
	for col := range updates {
		columns = append(columns, col)
	}
	s.publish(realtime.OpUpdate, productId, columns)

	utils.WriteSuccess(w)
}

func (s *CatalogService) Delete(w http.ResponseWriter, r *http.Request) {
	productId, err := utils.URLParamUUID(r, "product_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Delete(&schema.Product{}, "id = ?", productId)
	if result.Error != nil {
		slog.Error("sql error deleting product", "error", result.Error)
		http.Error(w, "error deleting product", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	s.publish(realtime.OpDelete, productId, nil)
	utils.WriteSuccess(w)
}
