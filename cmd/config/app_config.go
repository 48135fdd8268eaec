package config

import (
	"context"
	"io"
	"strings"
	"time"

	"Cooki-Backend/internal/api/handlers"
	"Cooki-Backend/internal/api/routes"
	"Cooki-Backend/internal/middleware"
	"Cooki-Backend/internal/utils"
	"Cooki-Backend/internal/utils/mailing"
	"Cooki-Backend/internal/utils/storage"
	"Cooki-Backend/pkg/event"
	"Cooki-Backend/pkg/item"
	"Cooki-Backend/pkg/joinrequest"
	"Cooki-Backend/pkg/jwt"
	"Cooki-Backend/pkg/pantry"
	"Cooki-Backend/pkg/receipt"
	"Cooki-Backend/pkg/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// Services holds every wired service so the HTTP app and the CLI share one
// construction path.
type Services struct {
	JWT         jwt.JWTService
	User        user.UserService
	Pantry      pantry.PantryService
	Item        item.ItemService
	Receipt     receipt.ReceiptService
	JoinRequest joinrequest.JoinRequestService
	Event       event.EventService

	close func()
}

func (s *Services) Close() {
	if s.close != nil {
		s.close()
	}
}

func NewServices(ctx context.Context, db *gorm.DB) (*Services, error) {
	// utils
	s3 := storage.NewAwsS3()
	mailer := mailing.NewMailer()

	dynamo, err := ConnectDynamoDB(ctx)
	if err != nil {
		return nil, err
	}
	rdb, err := ConnectRedis(ctx)
	if err != nil {
		return nil, err
	}

	// Repository
	userRepository := user.NewUserRepository(db)
	pantryRepository := pantry.NewPantryRepository(db)
	itemRepository := item.NewItemRepository(db)
	receiptRepository := receipt.NewReceiptRepository(db)
	joinRequestRepository := joinrequest.NewJoinRequestRepository(db)
	eventRepository := event.NewEventRepository(dynamo, utils.GetConfigDefault("DYNAMODB_EVENTS_TABLE", "cooki-events"))

	// Service
	notifier := event.NewRedisNotifier(rdb)
	jwtService, err := jwt.NewJWTService()
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	eventService := event.NewEventService(eventRepository, notifier)
	pantryService := pantry.NewPantryService(pantryRepository, eventService)
	userService := user.NewUserService(userRepository, jwtService)
	itemService := item.NewItemService(itemRepository, pantryService, eventService, s3)
	receiptService := receipt.NewReceiptService(
		receiptRepository,
		receipt.NewClientFromConfig(),
		receipt.NewConverter(),
		pantryService,
		itemService,
		s3,
	)
	joinRequestService := joinrequest.NewJoinRequestService(joinRequestRepository, pantryService, eventService, notifier, mailer)

	return &Services{
		JWT:         jwtService,
		User:        userService,
		Pantry:      pantryService,
		Item:        itemService,
		Receipt:     receiptService,
		JoinRequest: joinRequestService,
		Event:       eventService,
		close:       func() { _ = rdb.Close() },
	}, nil
}

func NewApp(services *Services, accessLog io.Writer) *fiber.App {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     accessLog,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        utils.GetConfigInt("RATE_LIMIT_PER_SECOND", 10),
		Expiration: 1 * time.Second,
		Next: func(c *fiber.Ctx) bool {
			// long-lived streams are not rate limited
			return strings.HasPrefix(c.Path(), "/ws/")
		},
	}))

	// Handler
	userHandler := handlers.NewUserHandler(services.User, services.Pantry, validator)
	pantryHandler := handlers.NewPantryHandler(services.Pantry, services.Item, validator)
	itemHandler := handlers.NewItemHandler(services.Item, validator)
	receiptHandler := handlers.NewReceiptHandler(services.Receipt, validator)
	joinRequestHandler := handlers.NewJoinRequestHandler(services.JoinRequest, services.User, validator)
	eventHandler := handlers.NewEventHandler(services.Event, services.Pantry)
	streamHandler := handlers.NewStreamHandler(
		services.Event,
		services.Pantry,
		services.JoinRequest,
		time.Duration(utils.GetConfigInt("BANNER_SETTLE_MILLIS", 400))*time.Millisecond,
	)

	// routes
	routesConfig := routes.Config{
		App:                app,
		UserHandler:        userHandler,
		PantryHandler:      pantryHandler,
		ItemHandler:        itemHandler,
		ReceiptHandler:     receiptHandler,
		JoinRequestHandler: joinRequestHandler,
		EventHandler:       eventHandler,
		StreamHandler:      streamHandler,
		Middleware:         middlewares,
		JWTService:         services.JWT,
		PantryService:      services.Pantry,
	}
	routesConfig.Setup()
	return app
}
