package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/api/evidence"
	"github.com/linesmerrill/secure-evidence-api/api/notify"
	"github.com/linesmerrill/secure-evidence-api/api/realtime"
	"github.com/linesmerrill/secure-evidence-api/api/scheduler"
	"github.com/linesmerrill/secure-evidence-api/api/storage"
	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/databases"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper

	gate      *api.Gate
	archive   evidence.Archiver
	auth      *api.Auth
	audit     *api.AuditRecorder
	ingest    *evidence.Service
	sockets   *realtime.SocketServer
	hub       *realtime.Hub
	scheduler *scheduler.Scheduler
	mail      *notify.Async
}

// chain wraps h so the first middleware runs outermost
func chain(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
	var out http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.gate == nil {
		gate, err := api.NewGate("")
		if err != nil {
			panic(fmt.Sprintf("built-in access policy is invalid: %v", err))
		}
		a.gate = gate
	}

	userDB := databases.NewUserDatabase(a.dbHelper)
	caseDB := databases.NewCaseDatabase(a.dbHelper)
	evidenceDB := databases.NewEvidenceDatabase(a.dbHelper)
	auditDB := databases.NewAuditLogDatabase(a.dbHelper)

	// setup go-guardian for middleware
	a.auth = api.NewAuth(userDB, a.Config.JWTSecret, a.Config.TokenTTL)
	a.audit = api.NewAuditRecorder(auditDB)
	a.sockets = realtime.NewSocketServer(a.auth, a.Config.AllowedOrigins)
	a.hub = realtime.NewHub(a.auth, a.Config.AllowedOrigins)

	broadcasters := notify.Fanout{a.sockets, a.hub}
	if a.Config.NotifyEmail && a.Config.SendGridAPIKey != "" {
		mailer := notify.NewMailBroadcaster(userDB, a.Config.SendGridAPIKey, a.Config.MailFrom, a.Config.BaseURL)
		a.mail = &notify.Async{Broadcaster: mailer}
		broadcasters = append(broadcasters, a.mail)
	}
	dispatcher := &notify.Dispatcher{
		DB:          databases.NewNotificationDatabase(a.dbHelper),
		Broadcaster: broadcasters,
	}

	a.ingest = &evidence.Service{
		Cases:    caseDB,
		Evidence: evidenceDB,
		Notifier: dispatcher,
		Archive:  a.archive,
	}

	u := User{DB: userDB, Auth: a.auth}
	c := Case{DB: caseDB, EDB: evidenceDB, UDB: userDB, Gate: a.gate, Notifier: dispatcher}
	e := Evidence{
		DB:       evidenceDB,
		CDB:      caseDB,
		Gate:     a.gate,
		Receiver: evidence.Receiver{Dir: a.Config.UploadDir, MaxBytes: a.Config.MaxUploadBytes},
		Service:  a.ingest,
	}
	n := Notification{Dispatcher: dispatcher}
	l := AuditLog{DB: auditDB}

	protect := a.auth.Middleware
	audit := a.audit.Audit
	role := a.gate.RequireRole

	r := mux.NewRouter()

	// healthchex
	r.HandleFunc("/health", api.HealthCheckHandler).Methods("GET")

	r.PathPrefix("/socket.io/").Handler(a.sockets)
	r.Handle("/ws/notifications", a.hub)

	apiCreate := r.PathPrefix("/api").Subrouter()

	apiCreate.Handle("/users", http.HandlerFunc(u.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/users/login", http.HandlerFunc(u.LoginHandler)).Methods("POST")
	apiCreate.Handle("/users/me", chain(u.MeHandler, protect)).Methods("GET")
	apiCreate.Handle("/users", chain(u.UsersHandler, protect, role(api.ActionListUsers))).Methods("GET")

	apiCreate.Handle("/cases", chain(c.CasesHandler, protect)).Methods("GET")
	apiCreate.Handle("/cases", chain(c.CreateCaseHandler, audit("Create Case"), protect, role(api.ActionCreateCase))).Methods("POST")
	apiCreate.Handle("/cases/{id}/report", chain(c.CaseReportHandler, audit("Export Case Report"), protect)).Methods("GET")
	apiCreate.Handle("/cases/{id}", chain(c.CaseByIDHandler, protect)).Methods("GET")
	apiCreate.Handle("/cases/{id}", chain(c.UpdateCaseHandler, audit("Update Case"), protect, role(api.ActionUpdateCase))).Methods("PUT")
	apiCreate.Handle("/cases/{id}", chain(c.DeleteCaseHandler, audit("Delete Case"), protect, role(api.ActionDeleteCase))).Methods("DELETE")

	apiCreate.Handle("/evidence", chain(e.UploadEvidenceHandler, audit("Upload Evidence"), protect)).Methods("POST")
	apiCreate.Handle("/evidence/{caseId}/list", chain(e.CaseEvidenceHandler, protect)).Methods("GET")
	apiCreate.Handle("/evidence/{id}/download", chain(e.DownloadEvidenceHandler, audit("Download Evidence"), protect)).Methods("GET")

	apiCreate.Handle("/notifications", chain(n.NotificationsHandler, protect)).Methods("GET")
	apiCreate.Handle("/notifications/read-by-case/{caseId}", chain(n.MarkReadByCaseHandler, protect)).Methods("PUT")
	apiCreate.Handle("/notifications/{id}/read", chain(n.MarkReadHandler, protect)).Methods("PUT")

	apiCreate.Handle("/logs", chain(l.LogsHandler, protect, role(api.ActionReadLogs))).Methods("GET")
	apiCreate.Handle("/logs/export", chain(l.ExportLogsHandler, audit("Export Audit Logs"), protect, role(api.ActionReadLogs))).Methods("GET")

	return r
}

// Handler returns the router wrapped in the CORS and request logging middleware
func (a *App) Handler() http.Handler {
	return api.CORS(a.Config.AllowedOrigins)(api.LoggingMiddleware(a.Router))
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	if err := a.Config.Validate(); err != nil {
		zap.S().Errorw("invalid configuration", "error", err)
		return err
	}
	config.SetProduction(a.Config.IsProduction())

	gate, err := api.NewGate(a.Config.AccessPolicyFile)
	if err != nil {
		zap.S().Errorw("failed to load access policy", "file", a.Config.AccessPolicyFile, "error", err)
		return err
	}
	a.gate = gate

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	zap.S().Info("secure-evidence-api has connected to the database")

	if err := databases.NewUserDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		zap.S().Errorw("failed to create user indexes", "error", err)
		return err
	}

	if a.Config.ArchiveEnabled() {
		archive, err := storage.NewArchive(ctx, &a.Config)
		if err != nil {
			zap.S().Errorw("failed to set up evidence archive", "bucket", a.Config.ArchiveBucket, "error", err)
			return err
		}
		a.archive = archive
		zap.S().Infow("evidence archive enabled", "bucket", a.Config.ArchiveBucket)
	}

	// initialize api router
	a.initializeRoutes()

	a.sockets.Serve()

	a.scheduler = scheduler.NewScheduler(
		databases.NewEvidenceDatabase(a.dbHelper),
		a.Config.UploadDir,
		a.Config.OrphanSweepSchedule,
		a.Config.OrphanGracePeriod,
	)
	if err := a.scheduler.Start(); err != nil {
		zap.S().Errorw("failed to start scheduler", "error", err)
		return err
	}
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Close stops background work, waits for pending audit, archive and mail work and disconnects
// from the database
func (a *App) Close(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.sockets != nil {
		if err := a.sockets.Close(); err != nil {
			zap.S().Warnw("failed to close socket.io server", "error", err)
		}
	}
	if a.audit != nil {
		a.audit.Wait()
	}
	if a.ingest != nil {
		a.ingest.Wait()
	}
	if a.mail != nil {
		a.mail.Wait()
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}
