package main

import (
	"os"

	appointmenthandler "medibook/internal/appointments/handler"
	appointmentrepo "medibook/internal/appointments/repository"
	appointmentservice "medibook/internal/appointments/service"
	appointmentvalidator "medibook/internal/appointments/validator"
	availabilityhandler "medibook/internal/availability/handler"
	availabilityservice "medibook/internal/availability/service"
	providerhandler "medibook/internal/providers/handler"
	providerrepo "medibook/internal/providers/repository"
	providerservice "medibook/internal/providers/service"
	providervalidator "medibook/internal/providers/validator"
	ratingservice "medibook/internal/ratings/service"
	"medibook/pkg/app"
	"medibook/pkg/config"
	"medibook/pkg/kafka"
	kafka_config "medibook/pkg/kafka/config"
)

const ServiceName = "appointments"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Appointments service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	notifier, closeNotifier := initNotifier(cfg)
	defer closeNotifier()

	providerSvc, appointmentSvc, availabilitySvc := initServices(cfg, notifier)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		providerhandler.NewProviderHandler(providerSvc, cfg.Log),
		appointmenthandler.NewAppointmentHandler(appointmentSvc, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availabilitySvc, cfg.Log),
	)
	serverApp.Run()
}

// initNotifier builds the Kafka notifier when brokers are configured and
// falls back to the no-op notifier otherwise, so a local run without a
// broker still serves bookings.
func initNotifier(cfg *config.Config) (appointmentservice.Notifier, func()) {
	if os.Getenv(kafka_config.EnvKafkaBrokers) == "" {
		cfg.Log.Info("Kafka brokers not configured, notification dispatch disabled")
		return appointmentservice.NewNoopNotifier(), func() {}
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotifyTopic, cfg.NotifyDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	return appointmentservice.NewKafkaNotifier(producer, ServiceName, cfg.Log), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}

func initServices(cfg *config.Config, notifier appointmentservice.Notifier) (
	providerservice.ProviderService,
	appointmentservice.AppointmentService,
	availabilityservice.AvailabilityService,
) {
	providerRepo := providerrepo.NewMongoProviderRepository(cfg)
	appointmentRepo := appointmentrepo.NewMongoAppointmentRepository(cfg)
	lockRepo := appointmentrepo.NewSlotLockRepository(cfg)

	providerSvc := providerservice.NewProviderService(
		providerRepo,
		appointmentRepo,
		providervalidator.NewProviderValidator(cfg.Log),
		cfg,
	)

	ratingSvc := ratingservice.NewRatingService(appointmentRepo, providerRepo, lockRepo, cfg)

	appointmentSvc := appointmentservice.NewAppointmentService(
		appointmentRepo,
		lockRepo,
		providerSvc,
		ratingSvc,
		notifier,
		appointmentvalidator.NewAppointmentValidator(cfg.Log),
		cfg,
	)

	availabilitySvc := availabilityservice.NewAvailabilityService(providerSvc, appointmentRepo, cfg)

	cfg.Log.Info("Appointment services initialized", "database", cfg.MongoDatabaseName)
	return providerSvc, appointmentSvc, availabilitySvc
}
