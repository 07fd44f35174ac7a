package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Districts a station can belong to
const (
	DistrictNorthGoa = "North Goa"
	DistrictSouthGoa = "South Goa"
)

// Districts lists every district the registry accepts
var Districts = []string{DistrictNorthGoa, DistrictSouthGoa}

// Station holds the structure for the stations collection in mongo. Special
// units (cyber crime, coastal security, ...) have no subdivision.
type Station struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Code        string             `bson:"code" json:"code"`
	Subdivision string             `bson:"subdivision,omitempty" json:"subdivision,omitempty"`
	District    string             `bson:"district" json:"district"`
	SpecialUnit bool               `bson:"specialUnit" json:"specialUnit"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt   primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}

// StationHierarchy is the district -> subdivision -> station tree
type StationHierarchy struct {
	Districts    []DistrictNode `json:"districts"`
	SpecialUnits []Station      `json:"specialUnits"`
}

// DistrictNode is one district of the hierarchy
type DistrictNode struct {
	Name         string            `json:"name"`
	Subdivisions []SubdivisionNode `json:"subdivisions"`
}

// SubdivisionNode is one subdivision of a district
type SubdivisionNode struct {
	Name     string    `json:"name"`
	Stations []Station `json:"stations"`
}
