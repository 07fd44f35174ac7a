//go:build ignore

package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/police-fir-api/api/handlers"
	"github.com/linesmerrill/police-fir-api/config"
	"github.com/linesmerrill/police-fir-api/databases"
	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/models"
)

// Seeds the station registry and, when ADMIN_EMAIL and ADMIN_PASSWORD are
// set, a first admin account.
// Usage: go run scripts/seed_stations.go
var registry = []handlers.StationRequest{
	{Name: "Panaji PS", Code: "PNJ", Subdivision: "Panaji", District: models.DistrictNorthGoa},
	{Name: "Old Goa PS", Code: "OGA", Subdivision: "Panaji", District: models.DistrictNorthGoa},
	{Name: "Agassaim PS", Code: "AGS", Subdivision: "Panaji", District: models.DistrictNorthGoa},
	{Name: "Mapusa PS", Code: "MPS", Subdivision: "Mapusa", District: models.DistrictNorthGoa},
	{Name: "Anjuna PS", Code: "ANJ", Subdivision: "Mapusa", District: models.DistrictNorthGoa},
	{Name: "Calangute PS", Code: "CLG", Subdivision: "Porvorim", District: models.DistrictNorthGoa},
	{Name: "Porvorim PS", Code: "PVM", Subdivision: "Porvorim", District: models.DistrictNorthGoa},
	{Name: "Bicholim PS", Code: "BCH", Subdivision: "Bicholim", District: models.DistrictNorthGoa},
	{Name: "Pernem PS", Code: "PRN", Subdivision: "Pernem", District: models.DistrictNorthGoa},
	{Name: "Valpoi PS", Code: "VLP", Subdivision: "Valpoi", District: models.DistrictNorthGoa},
	{Name: "Margao Town PS", Code: "MGT", Subdivision: "Margao", District: models.DistrictSouthGoa},
	{Name: "Fatorda PS", Code: "FTD", Subdivision: "Margao", District: models.DistrictSouthGoa},
	{Name: "Colva PS", Code: "CLV", Subdivision: "Margao", District: models.DistrictSouthGoa},
	{Name: "Vasco PS", Code: "VSC", Subdivision: "Vasco", District: models.DistrictSouthGoa},
	{Name: "Verna PS", Code: "VRN", Subdivision: "Vasco", District: models.DistrictSouthGoa},
	{Name: "Ponda PS", Code: "PND", Subdivision: "Ponda", District: models.DistrictSouthGoa},
	{Name: "Quepem PS", Code: "QPM", Subdivision: "Quepem", District: models.DistrictSouthGoa},
	{Name: "Canacona PS", Code: "CNC", Subdivision: "Canacona", District: models.DistrictSouthGoa},
	{Name: "Cyber Crime PS", Code: "CYB", District: models.DistrictNorthGoa, SpecialUnit: true},
	{Name: "Women PS", Code: "WPS", District: models.DistrictNorthGoa, SpecialUnit: true},
	{Name: "Coastal Security PS", Code: "CSP", District: models.DistrictSouthGoa, SpecialUnit: true},
}

func main() {
	conf := config.New()
	log := zap.S().Named("seed")

	client, err := databases.NewClient(conf)
	if err != nil {
		log.Fatalw("failed to create mongo client", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		log.Fatalw("failed to connect to mongo", "error", err)
	}
	defer client.Disconnect(context.Background())

	db := databases.NewDatabase(conf, client)
	stations := databases.NewStationDatabase(db)
	if err := stations.EnsureIndexes(ctx); err != nil {
		log.Fatalw("failed to create station indexes", "error", err)
	}

	created, skipped := 0, 0
	for _, req := range registry {
		if err := handlers.ValidateStation(req); err != nil {
			log.Fatalw("invalid registry entry", "name", req.Name, "error", err)
		}
		now := primitive.NewDateTimeFromTime(time.Now().UTC())
		st := models.Station{
			ID:          primitive.NewObjectID(),
			Name:        req.Name,
			Code:        req.Code,
			Subdivision: req.Subdivision,
			District:    req.District,
			SpecialUnit: req.SpecialUnit,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := stations.InsertOne(ctx, &st); err != nil {
			if errors.Is(err, disposal.ErrConflict) {
				skipped++
				continue
			}
			log.Fatalw("failed to insert station", "name", st.Name, "error", err)
		}
		created++
	}
	log.Infow("station registry seeded", "created", created, "skipped", skipped)

	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalw("failed to hash admin password", "error", err)
	}
	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	admin := &models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Email:     email,
			Name:      "Administrator",
			Password:  string(hash),
			Role:      models.RoleAdmin,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if _, err := databases.NewUserDatabase(db).InsertOne(ctx, admin); err != nil {
		log.Fatalw("failed to create admin", "email", email, "error", err)
	}
	log.Infow("admin account created", "email", email)
}
