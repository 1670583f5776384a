//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/bookline/service-booking/internal/application"
	"github.com/bookline/service-booking/internal/domain/catalog"
	bookingEvents "github.com/bookline/service-booking/internal/events"
	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/database"
	"github.com/bookline/service-booking/internal/pkg/kafka"
	"github.com/bookline/service-booking/internal/pkg/redislock"
	"github.com/bookline/service-booking/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	Redis        *redis.Client
	KafkaBrokers []string
	Cleanup      func()
}

// bookingStack holds wired-up booking service components.
type bookingStack struct {
	Guard           *application.ConflictGuard
	Bookings        *application.BookingService
	BlockedSlots    *application.BlockedSlotService
	Availability    *application.AvailabilityService
	Payments        *application.PaymentService
	Catalog         *application.CatalogService
	Consumer        *bookingEvents.AuditEventConsumer
	CleanupProducer func()
}

// fixture is one customer, staff member, resource and service.
type fixture struct {
	Customer uuid.UUID
	Staff    uuid.UUID
	Resource uuid.UUID
	Service  uuid.UUID
}

// setupContainers starts PostgreSQL, Redis and Kafka testcontainers and
// migrates the schema with the SQL migrations.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pgConfig := database.PostgresConfig{
		Host:         pgHost,
		Port:         pgPort.Int(),
		User:         "test",
		Password:     "test",
		DBName:       "test_booking",
		SSLMode:      "disable",
		MaxOpenConns: 20,
		MaxIdleConns: 5,
	}

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(pgConfig, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(pgConfig.DatabaseURL(), "migrations", logger))

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")

	redisEndpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb, err := redislock.NewClient(redisEndpoint, "", 0)
	require.NoError(t, err, "failed to connect to Redis")

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, "booking.events")

	cleanup := func() {
		_ = rdb.Close()
		_ = database.Close(db)
		for name, c := range map[string]testcontainers.Container{
			"Kafka":      kafkaContainer,
			"Redis":      redisContainer,
			"PostgreSQL": pgContainer,
		} {
			if err := c.Terminate(ctx); err != nil {
				t.Logf("failed to terminate %s container: %v", name, err)
			}
		}
	}

	return &testInfra{
		DB:           db,
		Redis:        rdb,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBookingStack wires up the full booking service stack. A nil rdb runs
// admissions without the Redis lock.
func setupBookingStack(t *testing.T, db *gorm.DB, rdb *redis.Client, brokers []string) *bookingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	var locker redislock.Locker = redislock.NoopLocker{}
	if rdb != nil {
		locker = redislock.NewRedisLocker(rdb, 5*time.Second, 10*time.Second)
	}

	bookingRepo := repository.NewGormBookingRepository(db)
	producer := kafka.NewProducer(brokers, logger)
	guard := application.NewConflictGuard(bookingRepo, locker, logger)
	auditSvc := application.NewAuditService(repository.NewGormAuditRepository(db), logger)
	refs := repository.NewGormReferenceLookup(db)

	groupID := fmt.Sprintf("test-audit-%s", uuid.New().String()[:8])

	return &bookingStack{
		Guard:    guard,
		Bookings: application.NewBookingService(guard, bookingRepo, producer, logger),
		BlockedSlots: application.NewBlockedSlotService(repository.NewGormBlockedSlotRepository(db), refs, producer, logger),
		Availability: application.NewAvailabilityService(repository.NewGormAvailabilityRepository(db), refs, producer, logger),
		Payments:     application.NewPaymentService(repository.NewGormPaymentRepository(db), refs, producer, logger),
		Catalog: application.NewCatalogService(
			repository.NewGormMemberRepository(db),
			repository.NewGormResourceRepository(db),
			repository.NewGormServiceRepository(db),
			logger,
		),
		Consumer:        bookingEvents.NewAuditEventConsumer(brokers, groupID, auditSvc, logger),
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedFixture inserts a customer, a staff member, a resource and a 30 minute service.
func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := context.Background()
	members := repository.NewGormMemberRepository(db)
	suffix := uuid.New().String()[:8]

	customer, err := catalog.NewMember("Customer "+suffix, "customer-"+suffix+"@example.com", "", auth.RoleCustomer)
	require.NoError(t, err)
	require.NoError(t, members.Save(ctx, customer))

	staff, err := catalog.NewMember("Staff "+suffix, "staff-"+suffix+"@example.com", "", auth.RoleStaff)
	require.NoError(t, err)
	require.NoError(t, members.Save(ctx, staff))

	resource, err := catalog.NewResource("Room "+suffix, "")
	require.NoError(t, err)
	require.NoError(t, repository.NewGormResourceRepository(db).Save(ctx, resource))

	service, err := catalog.NewService("Consultation "+suffix, "", 5000, 30)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormServiceRepository(db).Save(ctx, service))

	return fixture{
		Customer: customer.ID(),
		Staff:    staff.ID(),
		Resource: resource.ID(),
		Service:  service.ID(),
	}
}

func (f fixture) candidate(start, end time.Time) application.Candidate {
	return application.Candidate{
		CustomerID: f.Customer,
		StaffID:    f.Staff,
		ResourceID: f.Resource,
		ServiceID:  f.Service,
		Start:      start,
		End:        end,
	}
}

// waitForAuditEntry polls audit_logs until an entry for entityID with action exists.
func waitForAuditEntry(t *testing.T, db *gorm.DB, entityID, action string, timeout time.Duration) repository.AuditLogModel {
	t.Helper()
	var result repository.AuditLogModel
	require.Eventually(t, func() bool {
		var model repository.AuditLogModel
		err := db.Where("entity_id = ? AND action = ?", entityID, action).First(&model).Error
		if err != nil {
			return false
		}
		result = model
		return true
	}, timeout, 200*time.Millisecond, "no %s audit entry for %s", action, entityID)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
