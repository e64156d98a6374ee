package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/launchbase/launchbase/modules/account"
	"github.com/launchbase/launchbase/modules/auth"
	"github.com/launchbase/launchbase/modules/home"
	"github.com/launchbase/launchbase/modules/subscription"
	"github.com/launchbase/launchbase/pkg/billing"
	"github.com/launchbase/launchbase/pkg/config"
	"github.com/launchbase/launchbase/pkg/environment"
	"github.com/launchbase/launchbase/pkg/httpserver"
	"github.com/launchbase/launchbase/pkg/httpx"
	"github.com/launchbase/launchbase/pkg/logger"
	"github.com/launchbase/launchbase/pkg/mongo"
	"github.com/launchbase/launchbase/pkg/oauth"
	"github.com/launchbase/launchbase/pkg/redis"
	"github.com/launchbase/launchbase/pkg/session"
	"github.com/launchbase/launchbase/pkg/user"
	"github.com/launchbase/launchbase/pkg/userfiles"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"launchbase"`
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	var (
		appCfg     appConfig
		sessionCfg session.Config
		redisCfg   redis.Config
		mongoCfg   mongo.Config
		googleCfg  oauth.GoogleConfig
		billingCfg billing.Config
		filesCfg   userfiles.Config
		serverCfg  httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&sessionCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&googleCfg)
	config.MustLoad(&billingCfg)
	config.MustLoad(&filesCfg)
	config.MustLoad(&serverCfg)

	env := environment.Parse(appCfg.Environment)
	log := logger.New(logger.WithEnvironment(string(env), appCfg.ServiceName))
	logger.SetAsDefault(log)

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		log.Error("redis connection failed", logger.Error(err))
		return err
	}
	defer func() { _ = redisClient.Close() }()

	db, err := mongo.NewWithDatabase(ctx, mongoCfg)
	if err != nil {
		log.Error("mongodb connection failed", logger.Error(err))
		return err
	}
	defer func() { _ = db.Client().Disconnect(ctx) }()

	users, err := user.NewMongoStore(ctx, db)
	if err != nil {
		log.Error("user store init failed", logger.Error(err))
		return err
	}

	sessionCfg.SecureCookies = sessionCfg.SecureCookies || env.IsProduction()
	sessions := session.New(session.NewRedisStore(redisClient),
		session.WithConfig(sessionCfg),
		session.WithLogger(log),
	)
	defer func() { _ = sessions.Close() }()

	oauthSvc := oauth.NewService(users,
		oauth.NewGoogleAdapter(googleCfg),
		oauth.NewRedisStateStore(redisClient),
		oauth.WithStateTTL(googleCfg.StateTTL),
		oauth.WithVerifiedOnly(googleCfg.VerifiedOnly),
		oauth.WithLogger(log),
	)

	var billingProvider billing.Provider
	if billingCfg.Enabled() {
		provider, err := billing.NewPaddleProvider(billingCfg)
		if err != nil {
			log.Error("billing provider init failed", logger.Error(err))
			return err
		}
		billingProvider = provider
	} else {
		log.Warn("billing is not configured, subscription features disabled")
	}

	var cleaner *userfiles.Cleaner
	if filesCfg.Enabled() {
		cleaner, err = userfiles.NewCleaner(ctx, filesCfg, userfiles.WithLogger(log))
		if err != nil {
			log.Error("userfiles cleaner init failed", logger.Error(err))
			return err
		}
	} else {
		log.Warn("user file storage is not configured, deletion skips the purge step")
	}

	deletion := account.NewDeletionService(users, billingProvider, cleaner, log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(environment.Middleware(env))
	r.Use(logger.Middleware(log))

	r.Get("/health", healthHandler(
		redis.Healthcheck(redisClient),
		mongo.Healthcheck(db.Client()),
	))

	r.Mount("/oauth", auth.Router(auth.Deps{
		Sessions: sessions,
		Users:    users,
		OAuth:    oauthSvc,
		Logger:   log,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Use(sessions.RequireSession)
		api.Mount("/auth", auth.APIRouter(auth.Deps{
			Sessions: sessions,
			Users:    users,
			OAuth:    oauthSvc,
			Logger:   log,
		}))
		api.Mount("/subscription", subscription.Router(subscription.Deps{
			Sessions: sessions,
			Users:    users,
			Provider: billingProvider,
			Config:   billingCfg,
			Logger:   log,
		}))
		api.Mount("/", account.Router(account.Deps{
			Sessions: sessions,
			Users:    users,
			Deletion: deletion,
			Logger:   log,
		}))
	})

	r.Mount("/", home.Router(home.Deps{
		Sessions: sessions,
		Users:    users,
		Billing:  billingProvider,
		Logger:   log,
	}))

	srv := httpserver.NewFromConfig(serverCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.Error("http server failed", logger.Error(err))
		return err
	}
	return nil
}

// healthHandler probes every backing service and reports the first failure.
func healthHandler(probes ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, probe := range probes {
			if err := probe(r.Context()); err != nil {
				httpx.Error(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
