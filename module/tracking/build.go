package tracking

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/cache"
	handler "github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/handler/http"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/handler/subscriber"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/metrics"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database/postgres"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/publisher/rabbitmq"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/service"
)

// Options are the tracking knobs; zero values fall back to the reference
// defaults.
type Options struct {
	CacheTTL      time.Duration
	Speed         service.SpeedConfig
	ETA           service.ETAConfig
	Traffic       service.TrafficModel
	RetentionDays int
}

func (o *Options) fill() {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.Speed.DefaultLimit <= 0 {
		o.Speed = service.DefaultSpeedConfig()
	}
	if o.ETA.SpeedLookback <= 0 {
		o.ETA = service.DefaultETAConfig()
	}
	if o.Traffic == nil {
		o.Traffic = service.DefaultTrafficModel()
	}
	if o.RetentionDays <= 0 {
		o.RetentionDays = 90
	}
}

// Module wires the tracking subsystem. All dependencies are injected here
// at process start; there is no package-level client state.
type Module struct {
	LocationSvc *service.LocationService
	GeofenceSvc *service.GeofenceService
	SpeedSvc    *service.SpeedService
	ETASvc      *service.ETAService
	StatsSvc    *service.StatsService

	RetentionDays int

	handler    *handler.TrackingHandler
	subscriber *subscriber.LocationSubscriber
}

func Build(
	db *sql.DB,
	amqpConn *amqp.Connection,
	mqttClient mqtt.Client,
	directory domain.VehicleDirectory,
	routes domain.RouteDirectory,
	notifier domain.Notifier,
	reg prometheus.Registerer,
	logger *slog.Logger,
	opts Options,
) (*Module, error) {
	opts.fill()

	telemetryRepo := postgres.NewTelemetryRepo(db)
	geofenceRepo := postgres.NewGeofenceRepo(db)
	violationRepo := postgres.NewViolationRepo(db)
	arrivalRepo := postgres.NewArrivalRepo(db)

	eventPub, err := rabbitmq.NewEventPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}

	m := metrics.New(reg)
	locCache := cache.NewLocationCache(opts.CacheTTL)

	geofenceSvc := service.NewGeofenceService(geofenceRepo, eventPub, notifier, directory, m, logger)
	speedSvc := service.NewSpeedService(telemetryRepo, violationRepo, eventPub, notifier, directory, opts.Speed, m, logger)
	locationSvc := service.NewLocationService(telemetryRepo, locCache, directory, eventPub, m, logger, geofenceSvc, speedSvc)
	etaSvc := service.NewETAService(locationSvc, telemetryRepo, arrivalRepo, routes, opts.Traffic, opts.ETA, logger)
	statsSvc := service.NewStatsService(telemetryRepo, logger)

	h := handler.NewTrackingHandler(locationSvc, speedSvc, geofenceSvc, etaSvc, statsSvc)
	sub := subscriber.NewLocationSubscriber(mqttClient, locationSvc, logger)

	return &Module{
		LocationSvc:   locationSvc,
		GeofenceSvc:   geofenceSvc,
		SpeedSvc:      speedSvc,
		ETASvc:        etaSvc,
		StatsSvc:      statsSvc,
		RetentionDays: opts.RetentionDays,
		handler:       h,
		subscriber:    sub,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}
