package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Disposal statuses a case moves through. The zero value is never stored.
const (
	StatusRegistered    = "Registered"
	StatusChargesheeted = "Chargesheeted"
	StatusFinalized     = "Finalized"
)

// Case holds the structure for the cases collection in mongo. A case is one
// First Information Report registered at a police station.
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the inner FIR record
type CaseDetails struct {
	CaseNumber     string          `json:"caseNumber" bson:"caseNumber"`
	ChargeSections []ChargeSection `json:"chargeSections" bson:"chargeSections"`

	// Station of record
	StationID   primitive.ObjectID `json:"stationID" bson:"stationID"`
	StationName string             `json:"stationName" bson:"stationName"`

	FilingDate       time.Time `json:"filingDate" bson:"filingDate"`
	SeriousnessClass int       `json:"seriousnessClass" bson:"seriousnessClass"` // 60, 90 or 180 days
	// DisposalDueDate is fixed when the case is registered and never recomputed.
	DisposalDueDate time.Time `json:"disposalDueDate" bson:"disposalDueDate"`

	DisposalStatus  string           `json:"disposalStatus" bson:"disposalStatus"`
	DisposalDate    *time.Time       `json:"disposalDate,omitempty" bson:"disposalDate,omitempty"`
	DisposalHistory []DisposalChange `json:"disposalHistory" bson:"disposalHistory"`

	Remarks  []Remark `json:"remarks" bson:"remarks"`
	IsActive bool     `json:"isActive" bson:"isActive"`

	CreatedBy string             `json:"createdBy" bson:"createdBy"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// ChargeSection is one (act, section) pair the case was registered under,
// e.g. ("BNS", "303(2)")
type ChargeSection struct {
	ActName      string `json:"actName" bson:"actName"`
	SectionLabel string `json:"sectionLabel" bson:"sectionLabel"`
}

// Remark is an append-only note on a case
type Remark struct {
	Text      string             `json:"text" bson:"text"`
	Author    string             `json:"author" bson:"author"`
	Timestamp primitive.DateTime `json:"timestamp" bson:"timestamp"`
}

// DisposalChange records a single applied disposal transition
type DisposalChange struct {
	FromStatus   string             `json:"fromStatus" bson:"fromStatus"`
	ToStatus     string             `json:"toStatus" bson:"toStatus"`
	DisposalDate time.Time          `json:"disposalDate" bson:"disposalDate"`
	UserID       string             `json:"userID" bson:"userID"`
	UserName     string             `json:"userName" bson:"userName"`
	Timestamp    primitive.DateTime `json:"timestamp" bson:"timestamp"`
}

// CaseView is a case as returned to dashboards, with the urgency fields
// computed at read time. DaysRemaining and Urgency are only set for
// Registered cases.
type CaseView struct {
	Case
	DaysRemaining *int   `json:"daysRemaining,omitempty"`
	Urgency       string `json:"urgency,omitempty"`
}
