package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/FACorreiaa/ai-course-generator/internal/api/admin"
	"github.com/FACorreiaa/ai-course-generator/internal/api/auth"
	"github.com/FACorreiaa/ai-course-generator/internal/api/banktransfer"
	"github.com/FACorreiaa/ai-course-generator/internal/api/course"
	"github.com/FACorreiaa/ai-course-generator/internal/api/exam"
	"github.com/FACorreiaa/ai-course-generator/internal/api/generation"
	"github.com/FACorreiaa/ai-course-generator/internal/api/health"
	"github.com/FACorreiaa/ai-course-generator/internal/api/notes"
	"github.com/FACorreiaa/ai-course-generator/internal/api/plan"
	"github.com/FACorreiaa/ai-course-generator/internal/api/subscription"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AllowedOrigins []string
	UploadsDir     string
	MetricsHandler http.Handler

	AuthHandler         *auth.HandlerImpl
	PlanHandler         *plan.HandlerImpl
	GenerationHandler   *generation.HandlerImpl
	CourseHandler       *course.HandlerImpl
	ExamHandler         *exam.HandlerImpl
	NotesHandler        *notes.HandlerImpl
	SubscriptionHandler *subscription.HandlerImpl
	BankTransferHandler *banktransfer.HandlerImpl
	AdminHandler        *admin.HandlerImpl
	HealthHandler       *health.HandlerImpl

	AuthenticateMiddleware func(http.Handler) http.Handler
	AdminMiddleware        func(http.Handler) http.Handler
	RateLimitMiddleware    func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) is applied in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if cfg.UploadsDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Handle("/uploads/*", fs)
	}

	r.Route("/api", func(r chi.Router) {
		// --- Public routes ---
		r.Group(func(r chi.Router) {
			r.Get("/health", cfg.HealthHandler.Health)
			r.Get("/ready", cfg.HealthHandler.Ready)

			r.Post("/signup", cfg.AuthHandler.Signup)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/social", cfg.AuthHandler.Social)
			r.Get("/auth/{provider}", cfg.AuthHandler.BeginOAuth)
			r.Get("/auth/{provider}/callback", cfg.AuthHandler.CompleteOAuth)

			r.Get("/plan-settings", cfg.PlanHandler.ListPlanSettings)
			r.Get("/shareable", cfg.CourseHandler.GetShareable)
			r.Post("/contact", cfg.AdminHandler.Contact)
		})

		// --- Authenticated routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/user-plan-limits", cfg.PlanHandler.UserPlanLimits)

			// Every call below reaches an AI or media provider.
			r.Group(func(r chi.Router) {
				if cfg.RateLimitMiddleware != nil {
					r.Use(cfg.RateLimitMiddleware)
				}
				r.Post("/prompt", cfg.GenerationHandler.Skeleton)
				r.Post("/generate", cfg.GenerationHandler.Generate)
				r.Post("/image", cfg.GenerationHandler.Image)
				r.Post("/yt", cfg.GenerationHandler.Video)
				r.Post("/transcript", cfg.GenerationHandler.Transcript)
				r.Post("/chat", cfg.GenerationHandler.Chat)

				r.Post("/course", cfg.CourseHandler.CreateCourse)
				r.Post("/course/{courseID}/subtopic", cfg.CourseHandler.GenerateSubtopic)
				r.Post("/aiexam", cfg.ExamHandler.Generate)
			})

			r.Post("/courseshared", cfg.CourseHandler.ShareCourse)
			r.Get("/courses", cfg.CourseHandler.ListCourses)
			r.Get("/course/{courseID}", cfg.CourseHandler.GetCourse)
			r.Post("/update", cfg.CourseHandler.UpdateContent)
			r.Post("/course/{courseID}/done", cfg.CourseHandler.MarkDone)
			r.Get("/course/{courseID}/progress", cfg.CourseHandler.Progress)
			r.Post("/finish", cfg.CourseHandler.Finish)
			r.Post("/deletecourse", cfg.CourseHandler.DeleteCourse)
			r.Get("/language", cfg.CourseHandler.GetLanguage)
			r.Post("/language", cfg.CourseHandler.SetLanguage)

			r.Post("/updateresult", cfg.ExamHandler.UpdateResult)
			r.Post("/getmyresult", cfg.ExamHandler.GetResult)

			r.Post("/getnotes", cfg.NotesHandler.GetNotes)
			r.Post("/savenotes", cfg.NotesHandler.SaveNotes)

			r.Post("/subscriptions", cfg.SubscriptionHandler.Checkout)
			r.Get("/subscriptions", cfg.SubscriptionHandler.History)
			r.Get("/subscription/active", cfg.SubscriptionHandler.Active)
			for _, method := range []string{
				types.MethodStripe,
				types.MethodPaypal,
				types.MethodPaystack,
				types.MethodFlutterwave,
				types.MethodRazorpay,
			} {
				r.Post("/"+method+"cancel", cfg.SubscriptionHandler.Cancel(method))
			}

			r.Post("/banktransfer", cfg.BankTransferHandler.Submit)

			// --- Admin routes ---
			r.Group(func(r chi.Router) {
				r.Use(cfg.AdminMiddleware)

				r.Post("/plan-settings", cfg.PlanHandler.UpsertPlanSettings)

				r.Post("/update-user-plan", cfg.SubscriptionHandler.UpdateUserPlan)
				r.Post("/cancel-user-subscription", cfg.SubscriptionHandler.CancelUserSubscription)
				r.Post("/extend-user-subscription", cfg.SubscriptionHandler.ExtendUserSubscription)

				r.Get("/pending-banktransfers", cfg.BankTransferHandler.ListPending)
				r.Get("/all-banktransfers", cfg.BankTransferHandler.ListAll)
				r.Post("/approve-banktransfer", cfg.BankTransferHandler.Approve)
				r.Post("/update-banktransfer-status", cfg.BankTransferHandler.UpdateStatus)

				r.Route("/admin", func(r chi.Router) {
					r.Get("/dashboard", cfg.AdminHandler.Dashboard)
					r.Get("/users", cfg.AdminHandler.ListUsers)
					r.Get("/courses", cfg.AdminHandler.ListCourses)
					r.Post("/deleteuser", cfg.AdminHandler.DeleteUser)
					r.Get("/admins", cfg.AdminHandler.ListAdmins)
					r.Post("/addadmin", cfg.AdminHandler.AddAdmin)
					r.Post("/removeadmin", cfg.AdminHandler.RemoveAdmin)
					r.Get("/contacts", cfg.AdminHandler.ListContacts)
				})
			})
		})
	})

	return r
}
