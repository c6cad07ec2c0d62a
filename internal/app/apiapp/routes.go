package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/auth"
	decksvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/decks"
	likessvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/likes"
	matchessvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/matches"
	swipesvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/swipes"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/transport/http/handlers"
)

type Dependencies struct {
	JWTManager   *authsvc.JWTManager
	SwipeService *swipesvc.Service
	DeckService  *decksvc.Service
	MatchService *matchessvc.Service
	LikesService *likessvc.Service
	Logger       *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	cardsHandler := handlers.NewCardsHandler(deps.DeckService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	likesHandler := handlers.NewLikesHandler(deps.LikesService)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/swipes", swipeHandler.Handle)
		r.Get("/swipes/status", swipeHandler.Status)
		r.Get("/cards", cardsHandler.Handle)
		r.Get("/matches", matchesHandler.List)
		r.Post("/unmatch", matchesHandler.Unmatch)
		r.Get("/likes/incoming", likesHandler.Incoming)
	})
}
