package schema

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	FormDraft     = "draft"
	FormSubmitted = "submitted"

	PaymentFixed      = "fixed"
	PaymentProduction = "production"
	PaymentMixed      = "mixed"

	ActionProduced = "produced"
	ActionSent     = "sent"
	ActionProblem  = "problem"

	GoalPending   = "pending"
	GoalCompleted = "completed"

	ShipmentPending  = "pending"
	ShipmentReceived = "received"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Username string `gorm:"unique;size:50;not null"`
	Email    string `gorm:"unique;size:254;not null"`
	Password []byte

	IsAdmin bool `gorm:"not null;default:false"`

	Profile *Profile    `gorm:"constraint:OnDelete:CASCADE"`
	Squads  []UserSquad `gorm:"constraint:OnDelete:CASCADE"`
}

// Profile holds the canonical fields projected out of the onboarding form.
// It is written by the profile sync projector and by admins, never read back
// into the form.
type Profile struct {
	UserId uuid.UUID `gorm:"type:uuid;primaryKey"`

	DisplayName string `gorm:"size:100"`
	SpiritName  string `gorm:"size:100"`
	Phone       string `gorm:"size:30"`
	PhotoUrl    string `gorm:"size:500"`

	UpdatedAt time.Time
}

type Squad struct {
	Id   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"unique;size:100;not null"`
}

type UserSquad struct {
	UserId  uuid.UUID `gorm:"type:uuid;primaryKey"`
	SquadId uuid.UUID `gorm:"type:uuid;primaryKey"`
	IsLead  bool      `gorm:"not null;default:false"`

	User  *User  `gorm:"constraint:OnDelete:CASCADE"`
	Squad *Squad `gorm:"constraint:OnDelete:CASCADE"`
}

// FormDocument is the single onboarding form per user. Content is the
// free-form answer document; its keys are determined by the deployed form
// spec, not by this table.
type FormDocument struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Slug    string    `gorm:"unique;size:100;not null"`
	OwnerId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Content string `gorm:"type:text"`

	Status          string `gorm:"size:20;not null;default:'draft'"`
	LastSubmittedAt *time.Time
	UpdatedAt       time.Time

	Owner *User `gorm:"foreignKey:OwnerId;constraint:OnDelete:CASCADE"`
}

type WorkerSettings struct {
	UserId uuid.UUID `gorm:"type:uuid;primaryKey"`

	PaymentType    string          `gorm:"size:20;not null;default:'production'"`
	FixedSalary    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ProductionRate decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	PaymentDay int  `gorm:"not null;default:5"`
	Active     bool `gorm:"not null;default:true"`

	User *User `gorm:"constraint:OnDelete:CASCADE"`
}

type Product struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name          string `gorm:"size:100;not null"`
	TechnicalName string `gorm:"size:100"`

	Images []string `gorm:"serializer:json"`

	StockQuantity         int `gorm:"not null;default:0"`
	MonthlyProductionGoal int `gorm:"not null;default:0"`

	Sizes []string `gorm:"serializer:json"`
}

// ProductionLog is an immutable event record. UnitLaborCost is a snapshot of
// the acting worker's production rate at write time; later rate changes never
// alter historical entries.
type ProductionLog struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProductId uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`

	Action   string `gorm:"size:20;not null"`
	Quantity int    `gorm:"not null;default:0"`

	VariantQuantities map[string]int `gorm:"serializer:json"`

	UnitLaborCost decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	Description string `gorm:"type:text"`
	ImageUrl    string `gorm:"size:500"`

	CreatedAt time.Time `gorm:"index"`

	Product *Product `gorm:"constraint:OnDelete:CASCADE"`
	User    *User    `gorm:"constraint:OnDelete:CASCADE"`
}

type ProductionGoal struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProductId uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"size:100;not null"`

	Deadline *time.Time

	Targets  map[string]int `gorm:"serializer:json"`
	Progress map[string]int `gorm:"serializer:json"`

	Status string `gorm:"size:20;not null;default:'pending'"`

	Product *Product `gorm:"constraint:OnDelete:CASCADE"`
}

type Shipment struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Description     string `gorm:"type:text"`
	VoucherPhotoUrl string `gorm:"size:500"`
	PackagePhotoUrl string `gorm:"size:500"`

	ExpectedArrivalDate *time.Time

	Status string `gorm:"size:20;not null;default:'pending'"`

	Items []ShipmentItem `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}

type ShipmentItem struct {
	ShipmentId uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductId  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity   int       `gorm:"not null"`

	Product *Product `gorm:"constraint:OnDelete:CASCADE"`
}

// ProductionRequest asks workers to produce a quantity of a product, such
// as restocking before a fair. Fulfillment is marked by hand by an admin.
type ProductionRequest struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProductId uuid.UUID `gorm:"type:uuid;not null;index"`

	Quantity          int            `gorm:"not null"`
	VariantQuantities map[string]int `gorm:"serializer:json"`

	DueDate *time.Time
	Notes   string `gorm:"type:text"`

	Status string `gorm:"size:20;not null;default:'open'"`

	RequestedBy uuid.UUID `gorm:"type:uuid;not null"`

	CreatedAt time.Time

	Product *Product `gorm:"constraint:OnDelete:CASCADE"`
	User    *User    `gorm:"foreignKey:RequestedBy;constraint:OnDelete:CASCADE"`
}

type Expense struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Description string          `gorm:"size:200;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Category    string          `gorm:"size:50"`
	Date        time.Time

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	User      *User     `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE"`
}

type Tool struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name     string `gorm:"size:100;not null"`
	Quantity int    `gorm:"not null;default:0"`
	Location string `gorm:"size:100"`
}

type ToolReport struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ToolId uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId uuid.UUID `gorm:"type:uuid;not null"`

	Description string `gorm:"type:text;not null"`
	Status      string `gorm:"size:20;not null;default:'open'"`

	CreatedAt time.Time

	Tool *Tool `gorm:"constraint:OnDelete:CASCADE"`
	User *User `gorm:"constraint:OnDelete:CASCADE"`
}

type HarvestSeason struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name      string `gorm:"size:100;not null"`
	StartDate time.Time
	EndDate   *time.Time
	Notes     string `gorm:"type:text"`
}

type MaterialInput struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name       string `gorm:"size:100;not null"`
	Quantity   int    `gorm:"not null;default:0"`
	Unit       string `gorm:"size:20"`
	ReceivedAt time.Time
	Notes      string `gorm:"type:text"`
}

// AllModels lists every table for migration.
func AllModels() []interface{} {
	return []interface{}{
		&User{}, &Profile{}, &Squad{}, &UserSquad{},
		&FormDocument{}, &WorkerSettings{},
		&Product{}, &ProductionLog{}, &ProductionGoal{},
		&Shipment{}, &ShipmentItem{}, &ProductionRequest{},
		&Expense{}, &Tool{}, &ToolReport{}, &HarvestSeason{}, &MaterialInput{},
	}
}
