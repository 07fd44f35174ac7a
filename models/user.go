package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Roles an officer account can hold
const (
	RoleAdmin              = "admin"
	RoleStationOfficer     = "station-officer"
	RoleSubdivisionOfficer = "subdivision-officer"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details UserDetails        `json:"user" bson:"user"`
	Version int32              `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Email    string `json:"email" bson:"email"`
	Name     string `json:"name" bson:"name"`
	Password string `json:"-" bson:"password"`
	Role     string `json:"role" bson:"role"`
	// Station is set for station officers
	Station string `json:"station,omitempty" bson:"station,omitempty"`
	// Stations is set for subdivision officers
	Stations  []string           `json:"stations,omitempty" bson:"stations,omitempty"`
	Active    bool               `json:"active" bson:"active"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
