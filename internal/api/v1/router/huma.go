package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/erfajc97/anko-back/internal/api/v1/handler"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers groups every operation handler registered on the API.
type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Catalog     *handler.CatalogHandler
	UserPackage *handler.UserPackageHandler
	Schedule    *handler.ScheduleHandler
	Booking     *handler.BookingHandler
	Payment     *handler.PaymentHandler
	Report      *handler.ReportHandler
}

// SetupHumaAPI creates a Huma API instance
func SetupHumaAPI(authMiddleware func(http.Handler) http.Handler, logger zerolog.Logger) (*chi.Mux, huma.API) {
	// Create Chi router for Huma adapter
	chiRouter := chi.NewRouter()

	chiRouter.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for OpenAPI docs endpoints
			if isDocsPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			authMiddleware(next).ServeHTTP(w, r)
		})
	})

	// Get version from environment or default to development
	version := os.Getenv("GIT_COMMIT_SHA")
	if version == "" {
		version = "development"
	}

	// Configure Huma with OpenAPI 3.1
	humaConfig := huma.DefaultConfig("Anko Studio API v1", version)
	humaConfig.Info.Description = "Class packages, schedules and bookings for the studio"
	humaConfig.Servers = []*huma.Server{{URL: "/v1"}}
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}

	api := humachi.New(chiRouter, humaConfig)

	logger.Info().Str("version", version).Msg("Huma API initialized for /v1")
	return chiRouter, api
}

// isDocsPath matches the docs routes whatever prefix the API is mounted under.
func isDocsPath(p string) bool {
	return strings.HasSuffix(p, "/openapi.json") ||
		strings.HasSuffix(p, "/openapi.yaml") ||
		strings.HasSuffix(p, "/docs") ||
		strings.Contains(p, "/schemas/")
}

var bearer = []map[string][]string{{"bearer": {}}}

// RegisterRoutes registers all Huma operations
func RegisterRoutes(api huma.API, h Handlers, logger zerolog.Logger) {
	logger.Info().Msg("Registering routes")

	// ========== AUTH OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/auth/register",
		Summary:       "Register an account",
		Description:   "Creates an unverified user and emails a verification link",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
	}, h.Auth.Register)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in",
		Description: "Exchanges email and password for an access and refresh token pair",
		Tags:        []string{"auth"},
	}, h.Auth.Login)

	huma.Register(api, huma.Operation{
		OperationID: "refreshSession",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Refresh the session",
		Description: "Rotates the refresh token and issues a new access token",
		Tags:        []string{"auth"},
	}, h.Auth.Refresh)

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Log out",
		Description: "Revokes the current refresh token",
		Tags:        []string{"auth"},
		Security:    bearer,
	}, h.Auth.Logout)

	huma.Register(api, huma.Operation{
		OperationID: "verifyEmail",
		Method:      http.MethodPost,
		Path:        "/auth/verify-email",
		Summary:     "Verify email",
		Tags:        []string{"auth"},
	}, h.Auth.VerifyEmail)

	huma.Register(api, huma.Operation{
		OperationID: "resendVerification",
		Method:      http.MethodPost,
		Path:        "/auth/resend-verification",
		Summary:     "Resend the verification email",
		Tags:        []string{"auth"},
	}, h.Auth.ResendVerification)

	huma.Register(api, huma.Operation{
		OperationID: "forgotPassword",
		Method:      http.MethodPost,
		Path:        "/auth/forgot-password",
		Summary:     "Request a password reset link",
		Tags:        []string{"auth"},
	}, h.Auth.ForgotPassword)

	huma.Register(api, huma.Operation{
		OperationID: "resetPassword",
		Method:      http.MethodPost,
		Path:        "/auth/reset-password",
		Summary:     "Reset the password with an emailed token",
		Tags:        []string{"auth"},
	}, h.Auth.ResetPassword)

	huma.Register(api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPost,
		Path:        "/auth/change-password",
		Summary:     "Change the password",
		Tags:        []string{"auth"},
		Security:    bearer,
	}, h.Auth.ChangePassword)

	// ========== USER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Get user profile",
		Description: "Retrieves the profile of the authenticated user",
		Tags:        []string{"users"},
		Security:    bearer,
	}, h.User.GetUser)

	huma.Register(api, huma.Operation{
		OperationID: "updateUser",
		Method:      http.MethodPatch,
		Path:        "/users/me",
		Summary:     "Update user profile",
		Tags:        []string{"users"},
		Security:    bearer,
	}, h.User.UpdateUser)

	huma.Register(api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/admin/users",
		Summary:     "List users",
		Tags:        []string{"admin"},
		Security:    bearer,
	}, h.User.ListUsers)

	huma.Register(api, huma.Operation{
		OperationID: "getUserByID",
		Method:      http.MethodGet,
		Path:        "/admin/users/{userId}",
		Summary:     "Get a user",
		Tags:        []string{"admin"},
		Security:    bearer,
	}, h.User.GetUserByID)

	// ========== TEACHER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "createTeacher",
		Method:        http.MethodPost,
		Path:          "/teachers",
		Summary:       "Create a teacher",
		Tags:          []string{"teachers"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, h.Catalog.CreateTeacher)

	huma.Register(api, huma.Operation{
		OperationID: "listTeachers",
		Method:      http.MethodGet,
		Path:        "/teachers",
		Summary:     "List teachers",
		Tags:        []string{"teachers"},
	}, h.Catalog.ListTeachers)

	huma.Register(api, huma.Operation{
		OperationID: "getTeacher",
		Method:      http.MethodGet,
		Path:        "/teachers/{id}",
		Summary:     "Get a teacher",
		Tags:        []string{"teachers"},
	}, h.Catalog.GetTeacher)

	huma.Register(api, huma.Operation{
		OperationID: "updateTeacher",
		Method:      http.MethodPut,
		Path:        "/teachers/{id}",
		Summary:     "Update a teacher",
		Tags:        []string{"teachers"},
		Security:    bearer,
	}, h.Catalog.UpdateTeacher)

	huma.Register(api, huma.Operation{
		OperationID: "deleteTeacher",
		Method:      http.MethodDelete,
		Path:        "/teachers/{id}",
		Summary:     "Delete a teacher",
		Description: "Refused while the teacher still has class schedules",
		Tags:        []string{"teachers"},
		Security:    bearer,
	}, h.Catalog.DeleteTeacher)

	// ========== CLASS PACKAGE OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "createClassPackage",
		Method:        http.MethodPost,
		Path:          "/class-packages",
		Summary:       "Create a class package",
		Tags:          []string{"class-packages"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, h.Catalog.CreatePackage)

	huma.Register(api, huma.Operation{
		OperationID: "listClassPackages",
		Method:      http.MethodGet,
		Path:        "/class-packages",
		Summary:     "List class packages",
		Description: "Active packages only, unless called by an administrator",
		Tags:        []string{"class-packages"},
	}, h.Catalog.ListPackages)

	huma.Register(api, huma.Operation{
		OperationID: "getClassPackage",
		Method:      http.MethodGet,
		Path:        "/class-packages/{id}",
		Summary:     "Get a class package",
		Tags:        []string{"class-packages"},
	}, h.Catalog.GetPackage)

	huma.Register(api, huma.Operation{
		OperationID: "updateClassPackage",
		Method:      http.MethodPatch,
		Path:        "/class-packages/{id}",
		Summary:     "Update a class package",
		Description: "Changes apply to future purchases only",
		Tags:        []string{"class-packages"},
		Security:    bearer,
	}, h.Catalog.UpdatePackage)

	huma.Register(api, huma.Operation{
		OperationID: "deleteClassPackage",
		Method:      http.MethodDelete,
		Path:        "/class-packages/{id}",
		Summary:     "Delete a class package",
		Tags:        []string{"class-packages"},
		Security:    bearer,
	}, h.Catalog.DeletePackage)

	// ========== USER PACKAGE OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "assignUserPackage",
		Method:        http.MethodPost,
		Path:          "/user-packages",
		Summary:       "Assign a package to a user",
		Tags:          []string{"user-packages"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, h.UserPackage.Assign)

	huma.Register(api, huma.Operation{
		OperationID: "listUserPackages",
		Method:      http.MethodGet,
		Path:        "/user-packages",
		Summary:     "List purchased packages",
		Tags:        []string{"user-packages"},
		Security:    bearer,
	}, h.UserPackage.List)

	huma.Register(api, huma.Operation{
		OperationID: "listMyPackages",
		Method:      http.MethodGet,
		Path:        "/user-packages/me",
		Summary:     "List my packages",
		Tags:        []string{"user-packages"},
		Security:    bearer,
	}, h.UserPackage.ListMine)

	huma.Register(api, huma.Operation{
		OperationID: "getAvailableCredits",
		Method:      http.MethodGet,
		Path:        "/user-packages/me/available",
		Summary:     "Get my available credits",
		Description: "Sums the remaining credits of unexpired packages",
		Tags:        []string{"user-packages"},
		Security:    bearer,
	}, h.UserPackage.Available)

	huma.Register(api, huma.Operation{
		OperationID: "getUserPackage",
		Method:      http.MethodGet,
		Path:        "/user-packages/{id}",
		Summary:     "Get a purchased package",
		Tags:        []string{"user-packages"},
		Security:    bearer,
	}, h.UserPackage.Get)

	huma.Register(api, huma.Operation{
		OperationID: "updateUserPackage",
		Method:      http.MethodPatch,
		Path:        "/user-packages/{id}",
		Summary:     "Adjust a purchased package",
		Tags:        []string{"user-packages"},
		Security:    bearer,
	}, h.UserPackage.Update)

	huma.Register(api, huma.Operation{
		OperationID: "deleteUserPackage",
		Method:      http.MethodDelete,
		Path:        "/user-packages/{id}",
		Summary:     "Delete a purchased package",
		Tags:        []string{"user-packages"},
		Security:    bearer,
	}, h.UserPackage.Delete)

	// ========== CLASS SCHEDULE OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "generateClassSchedules",
		Method:        http.MethodPost,
		Path:          "/class-schedules",
		Summary:       "Generate class schedules",
		Description:   "Creates one-hour classes for every day of the range; nothing is created if any block overlaps the teacher's classes",
		Tags:          []string{"class-schedules"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, h.Schedule.Generate)

	huma.Register(api, huma.Operation{
		OperationID: "listClassSchedules",
		Method:      http.MethodGet,
		Path:        "/class-schedules",
		Summary:     "List class schedules",
		Tags:        []string{"class-schedules"},
	}, h.Schedule.List)

	huma.Register(api, huma.Operation{
		OperationID: "listAvailableClassSchedules",
		Method:      http.MethodGet,
		Path:        "/class-schedules/available",
		Summary:     "List class schedules with occupancy",
		Tags:        []string{"class-schedules"},
	}, h.Schedule.ListAvailable)

	huma.Register(api, huma.Operation{
		OperationID: "listClassSchedulesByRange",
		Method:      http.MethodGet,
		Path:        "/class-schedules/by-range",
		Summary:     "List class schedules grouped by teacher",
		Tags:        []string{"class-schedules"},
	}, h.Schedule.ListByRange)

	huma.Register(api, huma.Operation{
		OperationID: "getClassSchedule",
		Method:      http.MethodGet,
		Path:        "/class-schedules/{id}",
		Summary:     "Get a class schedule",
		Tags:        []string{"class-schedules"},
	}, h.Schedule.Get)

	huma.Register(api, huma.Operation{
		OperationID: "updateClassSchedule",
		Method:      http.MethodPatch,
		Path:        "/class-schedules/{id}",
		Summary:     "Update a class schedule",
		Tags:        []string{"class-schedules"},
		Security:    bearer,
	}, h.Schedule.Update)

	huma.Register(api, huma.Operation{
		OperationID: "deleteClassSchedule",
		Method:      http.MethodDelete,
		Path:        "/class-schedules/{id}",
		Summary:     "Delete a class schedule",
		Description: "Refunds every booked user before removing the class",
		Tags:        []string{"class-schedules"},
		Security:    bearer,
	}, h.Schedule.Delete)

	// ========== CALENDAR OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "getCalendar",
		Method:      http.MethodGet,
		Path:        "/calendar",
		Summary:     "Get the public calendar",
		Tags:        []string{"calendar"},
	}, h.Schedule.PublicCalendar)

	huma.Register(api, huma.Operation{
		OperationID: "getAdminCalendar",
		Method:      http.MethodGet,
		Path:        "/admin/calendar",
		Summary:     "Get the calendar with attendees",
		Tags:        []string{"admin", "calendar"},
		Security:    bearer,
	}, h.Schedule.AdminCalendar)

	// ========== BOOKING OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "createBooking",
		Method:        http.MethodPost,
		Path:          "/bookings",
		Summary:       "Book a class",
		Description:   "Consumes one credit from the oldest usable package",
		Tags:          []string{"bookings"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, h.Booking.Create)

	huma.Register(api, huma.Operation{
		OperationID: "listBookings",
		Method:      http.MethodGet,
		Path:        "/bookings",
		Summary:     "List bookings",
		Tags:        []string{"bookings"},
		Security:    bearer,
	}, h.Booking.List)

	huma.Register(api, huma.Operation{
		OperationID: "listMyBookings",
		Method:      http.MethodGet,
		Path:        "/bookings/me",
		Summary:     "List my bookings",
		Tags:        []string{"bookings"},
		Security:    bearer,
	}, h.Booking.ListMine)

	huma.Register(api, huma.Operation{
		OperationID: "getBooking",
		Method:      http.MethodGet,
		Path:        "/bookings/{id}",
		Summary:     "Get a booking",
		Tags:        []string{"bookings"},
		Security:    bearer,
	}, h.Booking.Get)

	huma.Register(api, huma.Operation{
		OperationID: "cancelBooking",
		Method:      http.MethodDelete,
		Path:        "/bookings/{id}",
		Summary:     "Cancel a booking",
		Description: "Removes the booking and refunds its credit",
		Tags:        []string{"bookings"},
		Security:    bearer,
	}, h.Booking.Cancel)

	// ========== PAYMENT OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "createPayment",
		Method:        http.MethodPost,
		Path:          "/payments",
		Summary:       "Record a payment attempt",
		Tags:          []string{"payments"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, h.Payment.Create)

	huma.Register(api, huma.Operation{
		OperationID: "listPendingPayments",
		Method:      http.MethodGet,
		Path:        "/payments/pending",
		Summary:     "List my pending payments",
		Tags:        []string{"payments"},
		Security:    bearer,
	}, h.Payment.ListPending)

	huma.Register(api, huma.Operation{
		OperationID: "getPayment",
		Method:      http.MethodGet,
		Path:        "/payments/{clientTransactionId}",
		Summary:     "Get a payment",
		Tags:        []string{"payments"},
		Security:    bearer,
	}, h.Payment.Get)

	huma.Register(api, huma.Operation{
		OperationID: "updatePaymentStatus",
		Method:      http.MethodPut,
		Path:        "/payments/{clientTransactionId}/status",
		Summary:     "Update a payment status",
		Description: "Completing a payment grants its package exactly once",
		Tags:        []string{"payments"},
		Security:    bearer,
	}, h.Payment.UpdateStatus)

	// ========== REPORT OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "getSalesReport",
		Method:      http.MethodGet,
		Path:        "/reports/sales",
		Summary:     "Sales report",
		Tags:        []string{"reports"},
		Security:    bearer,
	}, h.Report.Sales)

	huma.Register(api, huma.Operation{
		OperationID: "getClassUtilization",
		Method:      http.MethodGet,
		Path:        "/reports/class-utilization",
		Summary:     "Class utilization report",
		Tags:        []string{"reports"},
		Security:    bearer,
	}, h.Report.ClassUtilization)

	huma.Register(api, huma.Operation{
		OperationID: "getUserStatistics",
		Method:      http.MethodGet,
		Path:        "/reports/users",
		Summary:     "User statistics",
		Tags:        []string{"reports"},
		Security:    bearer,
	}, h.Report.UserStatistics)

	huma.Register(api, huma.Operation{
		OperationID: "getRevenue",
		Method:      http.MethodGet,
		Path:        "/reports/revenue",
		Summary:     "Revenue by period",
		Tags:        []string{"reports"},
		Security:    bearer,
	}, h.Report.Revenue)

	huma.Register(api, huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        "/reports/dashboard",
		Summary:     "Admin dashboard",
		Tags:        []string{"reports"},
		Security:    bearer,
	}, h.Report.Dashboard)

	logger.Info().Msg("Routes registered")
}
