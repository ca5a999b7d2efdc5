package services

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/forms"
	"nipeihu_platform/platform/realtime"
	"nipeihu_platform/platform/schema"
	"nipeihu_platform/platform/storage"
	"nipeihu_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Platform wires every service together behind one router.
type Platform struct {
	user      UserService
	squad     SquadService
	catalog   CatalogService
	inventory InventoryService
	payroll   PayrollService
	form      FormService
	registry  RegistryService
	upload    UploadService
	events    EventService

	db   *gorm.DB
	hub  *realtime.Hub
	stop chan bool
}

func NewPlatform(
	db *gorm.DB, store storage.ObjectStore, userAuth auth.IdentityProvider, formSpec forms.FormSpec,
) Platform {
	hub := realtime.NewHub()

	return Platform{
		user:      UserService{db: db, userAuth: userAuth},
		squad:     SquadService{db: db, userAuth: userAuth},
		catalog:   CatalogService{db: db, userAuth: userAuth, hub: hub},
		inventory: InventoryService{db: db, userAuth: userAuth, hub: hub},
		payroll:   PayrollService{db: db, userAuth: userAuth},
		form:      FormService{db: db, spec: formSpec, userAuth: userAuth, hub: hub},
		registry:  RegistryService{db: db, userAuth: userAuth},
		upload:    UploadService{db: db, store: store, userAuth: userAuth},
		events:    EventService{db: db, hub: hub, userAuth: userAuth},

		db:   db,
		hub:  hub,
		stop: make(chan bool, 1),
	}
}

func (p *Platform) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/user", p.user.Routes())
	r.Mount("/squad", p.squad.Routes())
	r.Mount("/catalog", p.catalog.Routes())
	r.Mount("/inventory", p.inventory.Routes())
	r.Mount("/payroll", p.payroll.Routes())
	r.Mount("/form", p.form.Routes())
	r.Mount("/registry", p.registry.Routes())
	r.Mount("/upload", p.upload.Routes())
	r.Mount("/events", p.events.Routes())

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	return r
}

func (p *Platform) Hub() *realtime.Hub {
	return p.hub
}

func (p *Platform) sweepOverdueGoals() {
	var goals []schema.ProductionGoal

	now := time.Now().UTC()
	result := p.db.
		Where("status = ? AND deadline IS NOT NULL AND deadline < ?", schema.GoalPending, now).
		Find(&goals)
	if result.Error != nil {
		slog.Error("goal sweep: sql error querying overdue goals", "error", result.Error)
		return
	}

	for _, goal := range goals {
		slog.Warn("goal sweep: goal is past its deadline",
			"goal_id", goal.Id, "name", goal.Name, "deadline", goal.Deadline)
	}
}

// OverdueGoalSweep periodically flags pending goals whose deadline has
// passed. It only reports; goals are completed by hand.
func (p *Platform) OverdueGoalSweep(interval time.Duration) {
	slog.Info("goal sweep: starting")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweepOverdueGoals()
		case <-p.stop:
			slog.Info("goal sweep: process stopped")
			return
		}
	}
}

func (p *Platform) StopOverdueGoalSweep() {
	close(p.stop)
}

// Shutdown disconnects realtime subscribers so open streams terminate.
func (p *Platform) Shutdown() {
	p.hub.Close()
}
