package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bookline/service-booking/internal/config"
	"github.com/bookline/service-booking/internal/domain/availability"
	"github.com/bookline/service-booking/internal/domain/catalog"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/database"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/bookline/service-booking/internal/pkg/logger"
	"github.com/bookline/service-booking/internal/repository"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	staffCount := flag.Int("staff", 5, "number of staff members")
	customerCount := flag.Int("customers", 20, "number of customers")
	resourceCount := flag.Int("resources", 4, "number of resources")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewNamed(cfg.AppEnv, "booking-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	gofakeit.Seed(time.Now().UnixNano())

	s := &seeder{
		members:   repository.NewGormMemberRepository(db),
		resources: repository.NewGormResourceRepository(db),
		services:  repository.NewGormServiceRepository(db),
		windows:   repository.NewGormAvailabilityRepository(db),
		log:       log,
	}

	admin := s.member(ctx, auth.RoleAdmin)
	var staff, customers []uuid.UUID
	for i := 0; i < *staffCount; i++ {
		id := s.member(ctx, auth.RoleStaff)
		s.workWeek(ctx, id)
		staff = append(staff, id)
	}
	for i := 0; i < *customerCount; i++ {
		customers = append(customers, s.member(ctx, auth.RoleCustomer))
	}
	for i := 0; i < *resourceCount; i++ {
		s.resource(ctx)
	}
	for _, duration := range []int{15, 30, 45, 60, 90} {
		s.service(ctx, duration)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer, 24*time.Hour, cfg.JWTConfig.RefreshTokenTTL)
	printToken(jwtManager, "admin", admin, auth.RoleAdmin)
	if len(staff) > 0 {
		printToken(jwtManager, "staff", staff[0], auth.RoleStaff)
	}
	if len(customers) > 0 {
		printToken(jwtManager, "customer", customers[0], auth.RoleCustomer)
	}

	log.Info("seed complete",
		zap.Int("staff", len(staff)),
		zap.Int("customers", len(customers)),
		zap.Int("resources", *resourceCount),
	)
}

type seeder struct {
	members   catalog.MemberRepository
	resources catalog.ResourceRepository
	services  catalog.ServiceRepository
	windows   availability.Repository
	log       *zap.Logger
}

func (s *seeder) member(ctx context.Context, role auth.Role) uuid.UUID {
	m, err := catalog.NewMember(gofakeit.Name(), gofakeit.Email(), gofakeit.Phone(), role)
	if err != nil {
		s.log.Fatal("invalid fake member", zap.Error(err))
	}
	s.save("member", s.members.Save(ctx, m))
	return m.ID()
}

func (s *seeder) resource(ctx context.Context) {
	r, err := catalog.NewResource(fmt.Sprintf("%s Room %d", gofakeit.Color(), gofakeit.Number(1, 999)), gofakeit.Sentence(8))
	if err != nil {
		s.log.Fatal("invalid fake resource", zap.Error(err))
	}
	s.save("resource", s.resources.Save(ctx, r))
}

func (s *seeder) service(ctx context.Context, durationMin int) {
	name := fmt.Sprintf("%s %s (%d min)", gofakeit.HipsterWord(), gofakeit.JobDescriptor(), durationMin)
	svc, err := catalog.NewService(name, gofakeit.Sentence(10), int64(gofakeit.Number(10, 200))*100, durationMin)
	if err != nil {
		s.log.Fatal("invalid fake service", zap.Error(err))
	}
	s.save("service", s.services.Save(ctx, svc))
}

// workWeek gives a staff member 09:00-17:00 UTC availability Monday to
// Friday, starting from the next Monday or today if it is one.
func (s *seeder) workWeek(ctx context.Context, staffID uuid.UUID) {
	now := time.Now().UTC()
	monday := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, time.UTC)
	monday = monday.AddDate(0, 0, (8-int(monday.Weekday()))%7)
	for i, day := range availability.Week[:5] {
		start := monday.AddDate(0, 0, i)
		window, err := schedule.NewTimeWindow(start, start.Add(8*time.Hour))
		if err != nil {
			s.log.Fatal("invalid availability window", zap.Error(err))
		}
		a, err := availability.New(&staffID, nil, day, window)
		if err != nil {
			s.log.Fatal("invalid availability", zap.Error(err))
		}
		s.save("availability", s.windows.Save(ctx, a))
	}
}

// save tolerates duplicate fake names and emails.
func (s *seeder) save(entity string, err error) {
	if err == nil {
		return
	}
	if domain.KindOf(err) == domain.KindConflict {
		s.log.Warn("skipping duplicate "+entity, zap.Error(err))
		return
	}
	s.log.Fatal("failed to seed "+entity, zap.Error(err))
}

func printToken(m *auth.JWTManager, label string, id uuid.UUID, role auth.Role) {
	token, err := m.GenerateAccessToken(id, role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign %s token: %v\n", label, err)
		return
	}
	fmt.Printf("%-8s %s\n%s\n\n", label, id, token)
}
