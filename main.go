// main.go
// Bantay Central API - barangay EOC resident reporting backend
// Firebase Auth for residents, JWT for EOC staff, Firestore for all state

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bantay/auth"
	"bantay/config"
	"bantay/db"
	"bantay/handlers"
	"bantay/middleware"
	"bantay/models"

	"github.com/joho/godotenv"
)

// Global instances
var (
	cfg            *config.Config
	firestoreDB    *db.FirestoreDB
	jwtManager     *auth.JWTManager
	reportHandler  *handlers.ReportHandler
	trackerHandler *handlers.TrackerHandler
	profileHandler *handlers.ProfileHandler
	staffHandler   *handlers.StaffHandler
	rateLimiter    *middleware.RateLimiter
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	// Load configuration
	cfg = config.Load()
	cfg.Validate()
	loc := cfg.Location()

	log.Printf("🚀 Starting Bantay API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)
	log.Printf("🕐 Report day boundary: %s", loc)
	if cfg.IsDevelopment() {
		log.Printf("⚠️  Development mode: default JWT secret allowed")
	}

	// Initialize Firestore
	ctx := context.Background()
	var err error
	firestoreDB, err = db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	// Initialize JWT Manager for staff sessions
	jwtManager = auth.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.Expiration,
		cfg.JWT.RefreshTokenExpiration,
	)
	log.Printf("🔐 JWT Manager initialized (expiration: %v)", cfg.JWT.Expiration)

	// Initialize handlers
	reportHandler = handlers.NewReportHandler(firestoreDB, loc)
	trackerHandler = handlers.NewTrackerHandler(firestoreDB, loc)
	profileHandler = handlers.NewProfileHandler(firestoreDB)
	staffHandler = handlers.NewStaffHandler(firestoreDB, jwtManager)
	log.Printf("✅ Handlers initialized")

	// Initialize rate limiter
	rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.CleanupOldLimiters()
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Set up router
	mux := http.NewServeMux()

	// Public routes (no authentication required)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/staff/login", staffHandler.Login)
	mux.HandleFunc("/api/staff/refresh", staffHandler.RefreshToken)

	// Resident endpoints; submission and tracking accept anonymous callers
	optionalAuth := middleware.OptionalResidentAuth(firestoreDB)
	residentAuth := middleware.ResidentAuth(firestoreDB)

	mux.Handle("/api/reports", optionalAuth(http.HandlerFunc(handleReports)))
	mux.Handle("/api/reports/stream", optionalAuth(http.HandlerFunc(trackerHandler.Stream)))
	mux.Handle("/api/reports/prefill", residentAuth(http.HandlerFunc(reportHandler.Prefill)))
	mux.Handle("/api/profile", residentAuth(http.HandlerFunc(profileHandler.Handle)))

	// Staff endpoints
	staffAuth := middleware.StaffAuth(jwtManager, firestoreDB)
	deskOrAdmin := middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	mux.Handle("/api/staff/reports", staffAuth(deskOrAdmin(http.HandlerFunc(staffHandler.GetReports))))
	mux.Handle("/api/staff/reports/status", staffAuth(deskOrAdmin(http.HandlerFunc(staffHandler.UpdateStatus))))
	mux.Handle("/api/staff/export", staffAuth(adminOnly(http.HandlerFunc(staffHandler.ExportReports))))

	// Apply global middleware
	handler := middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(mux)
	handler = rateLimiter.Middleware()(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // tracker streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// handleReports dispatches the shared /api/reports route: POST submits,
// GET lists.
func handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		reportHandler.Submit(w, r)
	case http.MethodGet:
		reportHandler.List(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}
