package services

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/storage"
	"nipeihu_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxUploadSize = 10 << 20

var allowedUploadExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true,
}

// UploadService stores photos and vouchers and hands back public URLs that
// go into product images, production logs, and form documents.
type UploadService struct {
	db       *gorm.DB
	store    storage.ObjectStore
	userAuth auth.IdentityProvider
}

func (s *UploadService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Post("/{bucket}", s.Upload)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Get("/usage", s.Usage)
	})

	return r
}

var allowedBuckets = map[string]bool{
	"products": true, "profiles": true, "logs": true, "vouchers": true,
}

type uploadResponse struct {
	Url string `json:"url"`
}

func (s *UploadService) Upload(w http.ResponseWriter, r *http.Request) {
	bucket, err := utils.URLParam(r, "bucket")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !allowedBuckets[bucket] {
		http.Error(w, fmt.Sprintf("unknown upload bucket '%v'", bucket), http.StatusUnprocessableEntity)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, fmt.Sprintf("error parsing upload: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing 'file' form field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExts[ext] {
		http.Error(w, fmt.Sprintf("unsupported file type '%v'", ext), http.StatusUnprocessableEntity)
		return
	}

	path := fmt.Sprintf("%v/%v%v", time.Now().UTC().Format("2006/01"), uuid.New(), ext)

	url, err := s.store.Upload(bucket, path, file)
	if err != nil {
		http.Error(w, fmt.Sprintf("error storing upload: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, uploadResponse{Url: url})
}

func (s *UploadService) Usage(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Usage()
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading storage usage: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, stats)
}
