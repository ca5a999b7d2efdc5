package services

import (
	"errors"
	"fmt"
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

type UserService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if s.userAuth.AllowDirectSignup() {
			r.Post("/signup", s.Signup)
		}

		r.Get("/login", s.LoginWithEmail)
		r.Post("/login-with-token", s.LoginWithToken)

		r.Post("/password-reset", s.RequestPasswordReset)
		r.Post("/password-reset/confirm", s.ConfirmPasswordReset)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/info", s.Info)
		r.Get("/profile", s.GetProfile)
		r.Post("/profile", s.UpdateProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Get("/list", s.List)
		r.Post("/create", s.CreateUser)

		r.Delete("/{user_id}", s.DeleteUser)

		r.Post("/{user_id}/admin", s.PromoteAdmin)
		r.Delete("/{user_id}/admin", s.DemoteAdmin)

		r.Get("/{user_id}/worker-settings", s.GetWorkerSettings)
		r.Post("/{user_id}/worker-settings", s.UpdateWorkerSettings)
	})

	return r
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	UserId uuid.UUID `json:"user_id"`
}

func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if !s.userAuth.AllowDirectSignup() {
		http.Error(w, "direct signup is not supported for this identity provider", http.StatusBadRequest)
		return
	}

	userId, err := s.userAuth.CreateUser(params.Username, params.Email, params.Password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		case errors.Is(err, auth.ErrUsernameAlreadyInUse):
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	utils.WriteJsonResponse(w, signupResponse{UserId: userId})
}

type loginResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
}

func (s *UserService) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
		return
	}

	login, err := s.userAuth.LoginWithEmail(email, password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail):
			responseCode = http.StatusNotFound
		case errors.Is(err, auth.ErrInvalidCredentials):
			responseCode = http.StatusUnauthorized
		}
		http.Error(w, fmt.Sprintf("login failed: %v", err), responseCode)
		return
	}

	utils.WriteJsonResponse(w, loginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

type loginWithTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func (s *UserService) LoginWithToken(w http.ResponseWriter, r *http.Request) {
	var params loginWithTokenRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	login, err := s.userAuth.LoginWithToken(params.AccessToken)
	if err != nil {
		http.Error(w, fmt.Sprintf("login failed: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, loginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetResponse struct {
	ResetToken string `json:"reset_token,omitempty"`
}

func (s *UserService) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var params passwordResetRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	token, err := s.userAuth.RequestPasswordReset(params.Email)
	if err != nil {
		// do not reveal whether the email exists
		slog.Info("password reset request failed", "error", err)
		utils.WriteJsonResponse(w, passwordResetResponse{})
		return
	}

	utils.WriteJsonResponse(w, passwordResetResponse{ResetToken: token})
}

type confirmPasswordResetRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

func (s *UserService) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var params confirmPasswordResetRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := s.userAuth.ResetPassword(params.ResetToken, params.NewPassword); err != nil {
		responseCode := http.StatusInternalServerError
		if errors.Is(err, auth.ErrInvalidResetToken) {
			responseCode = http.StatusUnauthorized
		}
		http.Error(w, fmt.Sprintf("password reset failed: %v", err), responseCode)
		return
	}

	utils.WriteSuccess(w)
}

type userInfo struct {
	Id       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	IsAdmin  bool      `json:"is_admin"`

	Profile *profileInfo `json:"profile,omitempty"`
}

type profileInfo struct {
	DisplayName string    `json:"display_name"`
	SpiritName  string    `json:"spirit_name"`
	Phone       string    `json:"phone"`
	PhotoUrl    string    `json:"photo_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func convertProfile(profile *schema.Profile) *profileInfo {
	if profile == nil {
		return nil
	}
	return &profileInfo{
		DisplayName: profile.DisplayName,
		SpiritName:  profile.SpiritName,
		Phone:       profile.Phone,
		PhotoUrl:    profile.PhotoUrl,
		UpdatedAt:   profile.UpdatedAt,
	}
}

func convertUser(user *schema.User) userInfo {
	return userInfo{
		Id:       user.Id,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
		Profile:  convertProfile(user.Profile),
	}
}

func (s *UserService) Info(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var full schema.User
	if err := s.db.Preload("Profile").First(&full, "id = ?", user.Id).Error; err != nil {
		slog.Error("sql error loading user info", "error", err)
		http.Error(w, "error loading user info", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertUser(&full))
}

func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	var users []schema.User
	if err := s.db.Preload("Profile").Order("username").Find(&users).Error; err != nil {
		slog.Error("sql error listing users", "error", err)
		http.Error(w, "error listing users", http.StatusInternalServerError)
		return
	}

	infos := make([]userInfo, 0, len(users))
	for i := range users {
		infos = append(infos, convertUser(&users[i]))
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *UserService) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var profile schema.Profile
	result := s.db.Where("user_id = ?", user.Id).First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.WriteJsonResponse(w, profileInfo{})
			return
		}
		slog.Error("sql error loading profile", "error", result.Error)
		http.Error(w, "error loading profile", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertProfile(&profile))
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	SpiritName  string `json:"spirit_name"`
	Phone       string `json:"phone"`
	PhotoUrl    string `json:"photo_url"`
}

func (s *UserService) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var params updateProfileRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	profile := schema.Profile{
		UserId:      user.Id,
		DisplayName: params.DisplayName,
		SpiritName:  params.SpiritName,
		Phone:       params.Phone,
		PhotoUrl:    params.PhotoUrl,
		UpdatedAt:   time.Now().UTC(),
	}

	if err := s.db.Save(&profile).Error; err != nil {
		slog.Error("sql error updating profile", "error", err)
		http.Error(w, "error updating profile", http.StatusInternalServerError)
		return
	}

	utils.WriteSuccess(w)
}

func (s *UserService) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	userId, err := s.userAuth.CreateUser(params.Username, params.Email, params.Password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		case errors.Is(err, auth.ErrUsernameAlreadyInUse):
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	utils.WriteJsonResponse(w, signupResponse{UserId: userId})
}

func (s *UserService) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		for _, dependent := range []struct {
			column string
			model  interface{}
		}{
			{"user_id", &schema.WorkerSettings{}},
			{"user_id", &schema.UserSquad{}},
			{"user_id", &schema.Profile{}},
			{"owner_id", &schema.FormDocument{}},
		} {
			result := txn.Where(dependent.column+" = ?", userId).Delete(dependent.model)
			if result.Error != nil {
				slog.Error("sql error deleting user records", "user_id", userId, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
		}

		deleteUserResult := txn.Delete(&schema.User{Id: userId})
		if deleteUserResult.Error != nil {
			slog.Error("sql error deleting user", "user_id", userId, "error", deleteUserResult.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if deleteUserResult.RowsAffected == 0 {
			return CodedError(schema.ErrUserNotFound, http.StatusNotFound)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting user %v: %v", userId, err), GetResponseCode(err))
		return
	}

	if err := s.userAuth.DeleteUser(userId); err != nil {
		http.Error(w, fmt.Sprintf("error deleting user %v: %v", userId, err), http.StatusInternalServerError)
		return
	}

	utils.WriteSuccess(w)
}

func (s *UserService) updateAdmin(w http.ResponseWriter, r *http.Request, isAdmin bool) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Model(&schema.User{}).Where("id = ?", userId).Update("is_admin", isAdmin)
	if result.Error != nil {
		slog.Error("sql error updating admin flag", "error", result.Error)
		http.Error(w, "error updating user", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

func (s *UserService) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	s.updateAdmin(w, r, true)
}

func (s *UserService) DemoteAdmin(w http.ResponseWriter, r *http.Request) {
	s.updateAdmin(w, r, false)
}

type workerSettingsRequest struct {
	PaymentType    string `json:"payment_type"`
	FixedSalary    string `json:"fixed_salary"`
	ProductionRate string `json:"production_rate"`
	PaymentDay     int    `json:"payment_day"`
	Active         bool   `json:"active"`
}

func (s *UserService) GetWorkerSettings(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	settings, err := schema.GetWorkerSettings(userId, s.db)
	if err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	utils.WriteJsonResponse(w, settings)
}

func (s *UserService) UpdateWorkerSettings(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params workerSettingsRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if !schema.CheckValidPaymentType(params.PaymentType) {
		http.Error(w, fmt.Sprintf("invalid payment type '%v'", params.PaymentType), http.StatusUnprocessableEntity)
		return
	}

	fixedSalary, err := parseMoney(params.FixedSalary)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	productionRate, err := parseMoney(params.ProductionRate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if _, err := schema.GetUser(userId, s.db); err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	settings := schema.WorkerSettings{
		UserId:         userId,
		PaymentType:    params.PaymentType,
		FixedSalary:    fixedSalary,
		ProductionRate: productionRate,
		PaymentDay:     params.PaymentDay,
		Active:         params.Active,
	}

	if err := s.db.Save(&settings).Error; err != nil {
		slog.Error("sql error updating worker settings", "error", err)
		http.Error(w, "error updating worker settings", http.StatusInternalServerError)
		return
	}

	utils.WriteSuccess(w)
}
