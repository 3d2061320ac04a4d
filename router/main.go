package router

import (
	"context"
	"time"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/handlers"
	assessment_handlers "github.com/gamifylearn/gamification-api/handlers/assessment"
	auth_handlers "github.com/gamifylearn/gamification-api/handlers/auth"
	course_handlers "github.com/gamifylearn/gamification-api/handlers/course"
	group_handlers "github.com/gamifylearn/gamification-api/handlers/group"
	notification_handlers "github.com/gamifylearn/gamification-api/handlers/notification"
	payment_handlers "github.com/gamifylearn/gamification-api/handlers/payment"
	superadmin_handlers "github.com/gamifylearn/gamification-api/handlers/superadmin"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/services"
	"github.com/gamifylearn/gamification-api/services/payment"
	"github.com/gamifylearn/gamification-api/services/storage"
	"github.com/gamifylearn/gamification-api/utils"
	"github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// TokenBlacklist revokes tokens and answers revocation checks
type TokenBlacklist interface {
	RevokeToken(ctx context.Context, jti, subjectID string, expiresAt time.Time, reason string) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Dependencies are the constructed collaborators the routes are built from.
// Optional members are left nil when their backing service is not configured.
type Dependencies struct {
	Store       database.Storage
	JWTManager  *auth.JWTManager
	FanoutLimit int

	Blacklist     TokenBlacklist
	BruteForce    *middleware.BruteForceProtection
	Uploader      storage.Uploader
	Notifications *services.NotificationService
	Payments      *payment.Service
	Ledger        payment_handlers.Ledger

	// Security is skipped when nil, which tests rely on
	Security *middleware.SecurityConfig
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	if deps.Security != nil {
		middleware.SetupSecurity(app, *deps.Security)
	}

	var revocations middleware.RevocationChecker
	var revoker auth_handlers.TokenRevoker
	if deps.Blacklist != nil {
		revocations = deps.Blacklist
		revoker = deps.Blacklist
	}

	var notifier services.Notifier
	if deps.Notifications != nil {
		notifier = deps.Notifications
	}

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTManager, deps.Store, revocations)
	authenticate := authMiddleware.Authenticate()
	adminOnly := middleware.Authorize(model.RoleAdmin)
	userOnly := middleware.Authorize(model.RoleUser)
	superAdminOnly := middleware.Authorize(model.RoleSuperAdmin)

	authHandler := auth_handlers.NewAuthHandler(deps.Store, deps.JWTManager, revoker, deps.BruteForce)
	superAdminHandler := superadmin_handlers.NewSuperAdminHandler(deps.Store, deps.JWTManager, deps.BruteForce)
	courseHandler := course_handlers.NewCourseHandler(deps.Store, deps.Uploader, notifier, deps.FanoutLimit)
	assessmentHandler := assessment_handlers.NewAssessmentHandler(deps.Store, deps.Uploader, notifier)
	groupHandler := group_handlers.NewGroupHandler(deps.Store)

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, deps.Store))
	app.Get("/", handlers.HandleWelcome)

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", deps.BruteForce.Guard(auth_handlers.LoginScope), authHandler.Login)
	authGroup.Get("/profile", authenticate, authHandler.GetProfile)
	authGroup.Post("/logout", authenticate, authHandler.Logout)

	// Super admin routes
	superAdmin := api.Group("/super-admin")
	superAdmin.Post("/login", deps.BruteForce.Guard(superadmin_handlers.LoginScope), superAdminHandler.Login)
	superAdmin.Get("/users", authenticate, superAdminOnly, superAdminHandler.ListUsers)
	superAdmin.Put("/users/:userId/role", authenticate, superAdminOnly, superAdminHandler.UpdateUserRole)

	// Course routes; static paths before /:courseId
	course := api.Group("/course", authenticate)
	course.Post("/create", adminOnly, course_handlers.CreateCourseValidator, courseHandler.CreateCourse)
	course.Get("/mine", adminOnly, courseHandler.ListInstructorCourses)
	course.Post("/:courseId/content", adminOnly, course_handlers.CreateCourseContentValidator, courseHandler.CreateCourseContent)
	course.Get("/:courseId/curriculum", course_handlers.CourseIDValidator, courseHandler.GetCourseCurriculum)
	course.Post("/:courseId/announcement", adminOnly, course_handlers.CreateAnnouncementValidator, courseHandler.CreateAnnouncement)
	course.Get("/:courseId/announcements", course_handlers.CourseIDValidator, courseHandler.GetAllAnnouncementsByCourse)
	course.Get("/:courseId", course_handlers.CourseIDValidator, courseHandler.GetCourse)

	// Assessment routes
	assessment := api.Group("/assessment", authenticate)
	assessment.Post("/create/:courseId", adminOnly, assessment_handlers.CreateAssessmentValidator, assessmentHandler.CreateAssessment)
	assessment.Put("/grade/:submissionId", adminOnly, assessment_handlers.GradeSubmissionValidator, assessmentHandler.GradeSubmission)
	assessment.Get("/submissions/:assessmentId", adminOnly, assessment_handlers.ViewLearnersValidator, assessmentHandler.GetSubmissionsForAssessment)
	assessment.Post("/submit/:assessmentId", userOnly, assessment_handlers.SubmissionValidator, assessmentHandler.SubmitAssessment)
	assessment.Get("/submission/:submissionId", assessment_handlers.SubmissionIDValidator, assessmentHandler.GetSubmission)
	assessment.Get("/:assessmentId", assessment_handlers.ViewLearnersValidator, assessmentHandler.GetAssessment)

	// Group routes
	group := api.Group("/group", authenticate, adminOnly)
	group.Post("/create", group_handlers.CreateGroupValidator, groupHandler.CreateGroup)
	group.Put("/edit/:groupId", group_handlers.EditGroupValidator, groupHandler.EditGroup)

	// Notification routes need the ledger database
	if deps.Notifications != nil {
		notificationHandler := notification_handlers.NewNotificationHandler(deps.Notifications)
		notification := api.Group("/notification", authenticate)
		notification.Get("/", notificationHandler.GetNotifications)
		notification.Patch("/read-all", notificationHandler.MarkAllAsRead)
		notification.Patch("/:id/read", notificationHandler.MarkAsRead)
	} else {
		log.Warn("Notifications disabled: ledger database not configured")
	}

	// Payment routes
	if deps.Payments != nil {
		paymentHandler := payment_handlers.NewPaymentHandler(deps.Store, deps.Payments, deps.Ledger)
		payments := api.Group("/payment", authenticate, userOnly)
		payments.Post("/course/:courseId", course_handlers.CourseIDValidator, paymentHandler.ProcessPayment)
		payments.Get("/verify/:transactionId", paymentHandler.VerifyPayment)
		payments.Post("/charge", paymentHandler.ChargeCard)
		payments.Post("/card", paymentHandler.SaveCard)
		payments.Delete("/card/:token", paymentHandler.DeleteCard)
	} else {
		log.Warn("Payments disabled: FLUTTERWAVE_SECRET_KEY not set")
	}

	api.Get("/", handlers.HandleWelcome)
}
