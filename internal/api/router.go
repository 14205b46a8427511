// Package api wires the HTTP routes of the service onto a fiber app.
package api

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberws "github.com/gofiber/websocket/v2"

	"scoreledger/internal/api/handlers"
	"scoreledger/internal/metrics"
	"scoreledger/internal/service"
	"scoreledger/internal/validation"
	"scoreledger/internal/websocket"
)

// Dependencies are the services exposed over HTTP
type Dependencies struct {
	Matches     *service.MatchService
	Leaderboard *service.LeaderboardService
	Wallet      *service.WalletService
	Referrals   *service.ReferralService
	Players     *service.PlayerService
	Clicks      handlers.ClickQueue
	Hub         *websocket.Hub
	Metrics     *metrics.Metrics
	Validator   *validation.Validator
	Paging      handlers.Paging

	// AccessLog enables the request logger middleware
	AccessLog bool
}

// NewApp creates the fiber app with middleware and every route registered
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "scoreledger",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, " + handlers.HeaderUserID,
	}))

	matchHandler := handlers.NewMatchHandler(deps.Matches, deps.Paging)
	leaderboardHandler := handlers.NewLeaderboardHandler(deps.Leaderboard, deps.Paging)
	walletHandler := handlers.NewWalletHandler(deps.Wallet, deps.Validator)
	referralHandler := handlers.NewReferralHandler(deps.Referrals, deps.Validator)
	playerHandler := handlers.NewPlayerHandler(deps.Players, deps.Validator)
	downloadHandler := handlers.NewDownloadHandler(deps.Referrals, deps.Clicks)

	// Public routes are registered before the identity middleware so it never runs for them
	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	app.Get("/download", downloadHandler.Lookup)
	app.Post("/download/click", downloadHandler.Click)

	public := app.Group("/api/v1")
	public.Get("/health", leaderboardHandler.HealthCheck)
	public.Post("/players/sync", playerHandler.Sync)

	api := app.Group("/api/v1", handlers.RequireIdentity())

	api.Post("/games", matchHandler.AddMatch)
	api.Get("/games", matchHandler.History)
	api.Get("/leaderboard", leaderboardHandler.GetLeaderboard)

	api.Get("/wallet", walletHandler.GetWallet)
	api.Post("/wallet/adjust", walletHandler.Adjust)
	api.Post("/wallet/redeem", walletHandler.Redeem)
	api.Get("/points", walletHandler.GetPoints)

	api.Post("/referral", referralHandler.Submit)
	api.Get("/referral/code", referralHandler.MyCode)

	// WebSocket route with upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", fiberws.New(func(c *fiberws.Conn) {
		websocket.ServeWS(deps.Hub, c)
	}))

	return app
}

// errorHandler handles errors that escape the handlers (routing, panics, upgrades)
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong, please try again later"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   "Request failed",
		"message": message,
	})
}
