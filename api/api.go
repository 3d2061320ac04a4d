package api

import (
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
}

// NewAPIServer creates the fiber app; bodyLimitMB bounds request bodies including uploads
func NewAPIServer(listenAddress string, bodyLimitMB int) *APIServer {
	if bodyLimitMB < 1 {
		bodyLimitMB = 20
	}
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "Gamification API",
			ErrorHandler: response.ErrorHandler,
			BodyLimit:    bodyLimitMB * 1024 * 1024,
		}),
		listenAddress: listenAddress,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	log.Info("Starting API Server")
	log.Infof("Listening on %s", s.listenAddress)

	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}
