package services

import (
	"log/slog"
	"net/http"
	"time"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/schema"
	"nipeihu_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistryService covers the smaller operational registries: expenses,
// tools and their damage reports, harvest seasons, raw material intake,
// and production requests.
type RegistryService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *RegistryService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/tools", s.ListTools)
		r.Post("/tools/{tool_id}/report", s.ReportTool)

		r.Get("/seasons", s.ListSeasons)
		r.Get("/materials", s.ListMaterials)

		r.Get("/requests", s.ListProductionRequests)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Get("/expenses", s.ListExpenses)
		r.Post("/expenses", s.CreateExpense)

		r.Post("/tools", s.CreateTool)
		r.Get("/tools/reports", s.ListToolReports)
		r.Post("/tools/reports/{report_id}/resolve", s.ResolveToolReport)

		r.Post("/seasons", s.CreateSeason)
		r.Post("/materials", s.CreateMaterial)

		r.Post("/requests", s.CreateProductionRequest)
		r.Post("/requests/{request_id}/close", s.CloseProductionRequest)
	})

	return r
}

type productionRequestParams struct {
	ProductId         uuid.UUID      `json:"product_id"`
	Quantity          int            `json:"quantity"`
	VariantQuantities map[string]int `json:"variant_quantities"`
	DueDate           *time.Time     `json:"due_date"`
	Notes             string         `json:"notes"`
}

func (s *RegistryService) CreateProductionRequest(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var params productionRequestParams
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Quantity <= 0 && len(params.VariantQuantities) == 0 {
		http.Error(w, "production request must ask for a positive quantity", http.StatusUnprocessableEntity)
		return
	}

	if _, err := schema.GetProduct(params.ProductId, s.db); err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	request := schema.ProductionRequest{
		Id:                uuid.New(),
		ProductId:         params.ProductId,
		Quantity:          params.Quantity,
		VariantQuantities: params.VariantQuantities,
		DueDate:           params.DueDate,
		Notes:             params.Notes,
		Status:            "open",
		RequestedBy:       user.Id,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.db.Create(&request).Error; err != nil {
		slog.Error("sql error creating production request", "error", err)
		http.Error(w, "error creating production request", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, request)
}

func (s *RegistryService) ListProductionRequests(w http.ResponseWriter, r *http.Request) {
	var requests []schema.ProductionRequest
	if err := s.db.Order("status, created_at desc").Find(&requests).Error; err != nil {
		slog.Error("sql error listing production requests", "error", err)
		http.Error(w, "error listing production requests", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, requests)
}

func (s *RegistryService) CloseProductionRequest(w http.ResponseWriter, r *http.Request) {
	requestId, err := utils.URLParamUUID(r, "request_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Model(&schema.ProductionRequest{}).Where("id = ?", requestId).Update("status", "closed")
	if result.Error != nil {
		slog.Error("sql error closing production request", "error", result.Error)
		http.Error(w, "error closing production request", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "production request not found", http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

type expenseRequest struct {
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

func (s *RegistryService) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var params expenseRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Description == "" {
		http.Error(w, "expense description cannot be empty", http.StatusUnprocessableEntity)
		return
	}
	amount, err := parseMoney(params.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	expense := schema.Expense{
		Id:          uuid.New(),
		Description: params.Description,
		Amount:      amount,
		Category:    params.Category,
		Date:        params.Date,
		CreatedBy:   user.Id,
	}

	if err := s.db.Create(&expense).Error; err != nil {
		slog.Error("sql error creating expense", "error", err)
		http.Error(w, "error creating expense", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, expense)
}

func (s *RegistryService) ListExpenses(w http.ResponseWriter, r *http.Request) {
	var expenses []schema.Expense
	if err := s.db.Order("date desc").Find(&expenses).Error; err != nil {
		slog.Error("sql error listing expenses", "error", err)
		http.Error(w, "error listing expenses", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, expenses)
}

type toolRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
}

func (s *RegistryService) CreateTool(w http.ResponseWriter, r *http.Request) {
	var params toolRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "tool name cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	tool := schema.Tool{
		Id:       uuid.New(),
		Name:     params.Name,
		Quantity: params.Quantity,
		Location: params.Location,
	}

	if err := s.db.Create(&tool).Error; err != nil {
		slog.Error("sql error creating tool", "error", err)
		http.Error(w, "error creating tool", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, tool)
}

func (s *RegistryService) ListTools(w http.ResponseWriter, r *http.Request) {
	var tools []schema.Tool
	if err := s.db.Order("name").Find(&tools).Error; err != nil {
		slog.Error("sql error listing tools", "error", err)
		http.Error(w, "error listing tools", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, tools)
}

type toolReportRequest struct {
	Description string `json:"description"`
}

func (s *RegistryService) ReportTool(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	toolId, err := utils.URLParamUUID(r, "tool_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params toolReportRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Description == "" {
		http.Error(w, "report description cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	if _, err := schema.GetTool(toolId, s.db); err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	report := schema.ToolReport{
		Id:          uuid.New(),
		ToolId:      toolId,
		UserId:      user.Id,
		Description: params.Description,
		Status:      "open",
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.db.Create(&report).Error; err != nil {
		slog.Error("sql error creating tool report", "error", err)
		http.Error(w, "error creating tool report", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, report)
}

func (s *RegistryService) ListToolReports(w http.ResponseWriter, r *http.Request) {
	var reports []schema.ToolReport
	if err := s.db.Order("created_at desc").Find(&reports).Error; err != nil {
		slog.Error("sql error listing tool reports", "error", err)
		http.Error(w, "error listing tool reports", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, reports)
}

func (s *RegistryService) ResolveToolReport(w http.ResponseWriter, r *http.Request) {
	reportId, err := utils.URLParamUUID(r, "report_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Model(&schema.ToolReport{}).Where("id = ?", reportId).Update("status", "resolved")
	if result.Error != nil {
		slog.Error("sql error resolving tool report", "error", result.Error)
		http.Error(w, "error resolving tool report", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "tool report not found", http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

type seasonRequest struct {
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Notes     string     `json:"notes"`
}

func (s *RegistryService) CreateSeason(w http.ResponseWriter, r *http.Request) {
	var params seasonRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "season name cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	season := schema.HarvestSeason{
		Id:        uuid.New(),
		Name:      params.Name,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		Notes:     params.Notes,
	}

	if err := s.db.Create(&season).Error; err != nil {
		slog.Error("sql error creating harvest season", "error", err)
		http.Error(w, "error creating harvest season", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, season)
}

func (s *RegistryService) ListSeasons(w http.ResponseWriter, r *http.Request) {
	var seasons []schema.HarvestSeason
	if err := s.db.Order("start_date desc").Find(&seasons).Error; err != nil {
		slog.Error("sql error listing harvest seasons", "error", err)
		http.Error(w, "error listing harvest seasons", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, seasons)
}

type materialRequest struct {
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Unit       string    `json:"unit"`
	ReceivedAt time.Time `json:"received_at"`
	Notes      string    `json:"notes"`
}

func (s *RegistryService) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var params materialRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "material name cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	material := schema.MaterialInput{
		Id:         uuid.New(),
		Name:       params.Name,
		Quantity:   params.Quantity,
		Unit:       params.Unit,
		ReceivedAt: params.ReceivedAt,
		Notes:      params.Notes,
	}

	if err := s.db.Create(&material).Error; err != nil {
		slog.Error("sql error creating material input", "error", err)
		http.Error(w, "error creating material input", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, material)
}

func (s *RegistryService) ListMaterials(w http.ResponseWriter, r *http.Request) {
	var materials []schema.MaterialInput
	if err := s.db.Order("received_at desc").Find(&materials).Error; err != nil {
		slog.Error("sql error listing material inputs", "error", err)
		http.Error(w, "error listing material inputs", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, materials)
}
