package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/adapters"
	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Policy      availability.Policy
	Logger      *slog.Logger
	SessionTTL  time.Duration
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Policy:      Policy(),
		SessionTTL:  24 * time.Hour,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.DiscardHandler)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithPolicy overrides the semester window and late cutoff.
func WithPolicy(policy availability.Policy) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Policy = policy
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services bundles every application service wired to the same repositories.
type Services struct {
	Users          *application.UserService
	Auth           *application.AuthService
	Rooms          *application.RoomService
	FixedSchedules *application.FixedScheduleService
	Bookings       *application.BookingService
	Cache          *application.MemoryAvailabilityCache
}

// NewServices wires every service over repos using the factory clock, ids and
// policy. Passwords are hashed with a cheap reversible scheme so tests stay fast.
func (f *ServiceFactory) NewServices(repos adapters.Repositories) Services {
	now := f.Clock.NowFunc()
	ids := f.IDGenerator.NextFunc()
	cache := application.NewMemoryAvailabilityCache(time.Minute, 128, now)

	return Services{
		Users:          application.NewUserServiceWithLogger(repos.Users, PlainHasher, ids, now, f.Logger),
		Auth:           application.NewAuthServiceWithLogger(repos.Users, repos.Sessions, PlainVerifier, ids, now, f.SessionTTL, f.Logger),
		Rooms:          application.NewRoomServiceWithLogger(repos.Rooms, cache, ids, now, f.Logger),
		FixedSchedules: application.NewFixedScheduleServiceWithLogger(repos.Schedules, repos.Rooms, cache, ids, now, f.Logger),
		Bookings:       application.NewBookingServiceWithLogger(repos.Rooms, repos.Schedules, repos.Bookings, cache, f.Policy, ids, now, f.Logger),
		Cache:          cache,
	}
}

// NewServicesForHarness is NewServices over the harness repositories.
func (f *ServiceFactory) NewServicesForHarness(h *SQLiteHarness) Services {
	return f.NewServices(h.Repositories)
}

const plainHashPrefix = "plain:"

// PlainHasher is a PasswordHasher for tests.
func PlainHasher(password string) (string, error) {
	return plainHashPrefix + password, nil
}

// PlainVerifier checks hashes produced by PlainHasher.
func PlainVerifier(hashedPassword, password string) error {
	if hashedPassword != plainHashPrefix+password {
		return application.ErrInvalidCredentials
	}
	return nil
}
