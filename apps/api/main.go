package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/sheleads/intake/apps/api/echo"
	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/application"
	"github.com/sheleads/intake/core/course"
	drivesvc "github.com/sheleads/intake/services/drive"
	emailsvc "github.com/sheleads/intake/services/email"
	logsvc "github.com/sheleads/intake/services/logger"
	sheetsvc "github.com/sheleads/intake/services/sheets"
	"github.com/sheleads/intake/storage/database"
	sqlxrepos "github.com/sheleads/intake/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal("setting up database: %v", err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close: %v", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	var sheets core.SheetAppender
	var docs core.DocumentStore
	if conf.Google.CredentialsFile != "" {
		ctx := context.Background()
		if sheets, err = sheetsvc.NewGoogleService(ctx, conf); err != nil {
			logger.Fatal("setting up sheets client: %v", err)
		}
		if docs, err = drivesvc.NewGoogleService(ctx, conf); err != nil {
			logger.Fatal("setting up drive client: %v", err)
		}
	} else {
		logger.Warn("Google credentials not configured; using in-memory sheet and drive services")
		sheets = sheetsvc.NewDummyService()
		docs = drivesvc.NewDummyService()
	}

	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(db))
	appSvc := application.NewService(
		sqlxrepos.NewApplicationRepository(db),
		courseSvc,
		mailSvc,
		sheets,
		docs,
		logger,
		conf,
	)

	// =========================================================================
	// Initialize App

	logger.Info("Application initializing : version %q", conf.Build)
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger, conf)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error("debug server closed: %v", err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			CourseSvc:  courseSvc,
			AppSvc:     appSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal("server error: %v", err)

	case sig := <-server.ShutdownSignal():
		logger.Info("%v: Start shutdown...", sig)

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error("could not stop server gracefully: %v", err)

			if err = server.Close(); err != nil {
				logger.Fatal("could not force stop server: %v", err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	return database.Open(conf)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
