package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/cache"
	"social-hub/infrastructure/clients/social"
	"social-hub/infrastructure/configuration"
	"social-hub/infrastructure/logger"
	"social-hub/infrastructure/oauth"
	"social-hub/infrastructure/persistence"
	"social-hub/infrastructure/pubsub"
	"social-hub/infrastructure/realtime"
	"social-hub/infrastructure/servicebus"
	httpHandler "social-hub/interfaces/http"
	"social-hub/server"
	"social-hub/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	db, usingMssql, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without engagement history")
		mongoDb = nil
	} else {
		if err := mongoDb.Ping(ctx, nil); err != nil {
			logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without engagement history")
			mongoDb = nil
		} else {
			logger.GetLogger().Info("MongoDB connected successfully")
		}
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without outcome events")
		pubSubClient = nil
	}

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without outcome events")
		azServiceBusClient = nil
	}

	redisClient, _ := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)

	// Repository wiring: SQL Server in production, otherwise PostgreSQL.
	var userRepository repository.IUser
	var credRepository repository.ICredential
	var postRepository repository.IPost
	if usingMssql {
		if err := persistence.EnsureSchemaMSSQL(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring mssql schema")
		}
		userRepository = persistence.NewUserRepositoryMSSQL(db)
		credRepository = persistence.NewCredentialRepositoryMSSQL(db)
		postRepository = persistence.NewPostRepositoryMSSQL(db)
	} else {
		if err := persistence.EnsureSchema(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring schema")
		}
		userRepository = persistence.NewUserRepository(db)
		credRepository = persistence.NewCredentialRepository(db)
		postRepository = persistence.NewPostRepository(db)
	}

	callTimeout := time.Duration(configuration.C.Publish.TimeoutSeconds) * time.Second
	refreshWindow := time.Duration(configuration.C.Publish.RefreshWindowMinutes) * time.Minute
	refresher := oauth.NewRefresher(credRepository, refreshWindow)

	publishers := []repository.ISocialPublisher{
		social.NewTwitterPublisher(callTimeout),
		social.NewLinkedInPublisher(callTimeout),
		social.NewFacebookPublisher(callTimeout),
		social.NewInstagramPublisher(callTimeout),
		social.NewRedditPublisher(callTimeout, configuration.C.Reddit.UserAgent, configuration.C.Reddit.DefaultSubreddit),
	}

	publishHub := realtime.NewPublishHub()
	outcomePubSub := pubsub.NewOutcomePubSub(pubSubClient, configuration.C.Pubsub.Topic)
	outcomeServiceBus := servicebus.NewOutcomeServiceBus(azServiceBusClient, configuration.C.ServiceBus.Queue)

	publishUsecase := usecase.NewPublishUsecase(credRepository, postRepository, refresher, publishers, callTimeout).
		WithBroadcaster(func(userID string, outcome model.PublishOutcome) {
			publishHub.BroadcastOutcome(userID, outcome)
			if pubSubClient != nil {
				pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
				if _, err := outcomePubSub.PublishOutcome(pubCtx, userID, outcome); err != nil {
					logger.GetLogger().WithField("error", err).Warn("Error while publishing outcome event")
				}
				pubCancel()
			}
			if azServiceBusClient != nil {
				if payload, err := json.Marshal(outcome); err == nil {
					if err := outcomeServiceBus.SendMessage(payload); err != nil {
						logger.GetLogger().WithField("error", err).Warn("Error while sending outcome to service bus")
					}
				}
			}
		})

	syncCfg := usecase.SyncConfig{
		BatchSize:  configuration.C.Engagement.BatchSize,
		CallDelay:  time.Duration(configuration.C.Engagement.CallDelayMs) * time.Millisecond,
		BatchDelay: time.Duration(configuration.C.Engagement.BatchDelayMs) * time.Millisecond,
	}
	engagementUsecase := usecase.NewEngagementUsecase(credRepository, postRepository, refresher, publishers, syncCfg).
		WithCache(cache.NewEngagementCache(redisClient)).
		WithHistory(persistence.NewEngagementHistoryRepository(mongoDb))

	userUsecase := usecase.NewUserUsecase(userRepository)

	userHandler := httpHandler.NewUserHandler(userUsecase)
	publishHandler := httpHandler.NewPublishHandler(publishUsecase)
	engagementHandler := httpHandler.NewEngagementHandler(engagementUsecase)
	credentialHandler := httpHandler.NewCredentialHandler(credRepository)

	router := server.InitiateRouter(userHandler, publishHandler, engagementHandler, credentialHandler, userRepository, publishHub)

	// Background engagement sync (simple ticker loop over connected users)
	syncInterval := time.Duration(configuration.C.Engagement.SyncIntervalMinutes) * time.Minute
	g.Go(func() error {
		ticker := time.NewTicker(syncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				syncCtx, cancelSync := context.WithTimeout(ctx, syncInterval/2)
				runScheduledSync(syncCtx, db, usingMssql, engagementUsecase)
				cancelSync()
			}
		}
	})

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	defer func() {
		signal.Stop(signalChan)
		cancel()
	}()

	port := app.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// runScheduledSync refreshes engagement for every user that has published
// posts. Each user's sync is throttled internally.
func runScheduledSync(ctx context.Context, db *sql.DB, usingMssql bool, engagementUsecase usecase.IEngagementUsecase) {
	if db == nil {
		return
	}
	query := `SELECT DISTINCT user_id FROM published_posts`
	if usingMssql {
		query = `SELECT DISTINCT user_id FROM dbo.[published_posts]`
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("scheduled sync: listing users failed")
		return
	}
	defer rows.Close()
	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			continue
		}
		users = append(users, userID)
	}
	for _, userID := range users {
		synced, failed, err := engagementUsecase.SyncAllPostsEngagement(ctx, userID)
		if err != nil {
			logger.GetLogger().WithField("user_id", userID).WithField("error", err).Warn("scheduled sync aborted")
			return
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"user_id": userID,
			"synced":  synced,
			"failed":  failed,
		}).Info("scheduled engagement sync finished")
	}
}

func InitiateDatabase() (*sql.DB, bool, error) {
	// Contract: return (db, usingMssql). Production and DB_VENDOR=mssql use
	// SQL Server; everything else uses PostgreSQL.
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" || env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, true, err
		}
		return mssql, true, nil
	}

	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, false, err
	}
	return postgres, false, nil
}
