// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	groupsfeature "github.com/ugcampus/grouphub/internal/app/features/groups"
	healthfeature "github.com/ugcampus/grouphub/internal/app/features/health"
	profilefeature "github.com/ugcampus/grouphub/internal/app/features/profile"
	registrationfeature "github.com/ugcampus/grouphub/internal/app/features/registration"
	pendingstore "github.com/ugcampus/grouphub/internal/app/store/pendingusers"
	resetstore "github.com/ugcampus/grouphub/internal/app/store/resettokens"
	userstore "github.com/ugcampus/grouphub/internal/app/store/users"
	"github.com/ugcampus/grouphub/internal/app/system/auth"
	"github.com/ugcampus/grouphub/internal/app/system/mailer"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// GroupHub mounts the public registration endpoints at the root, the
// bearer-token-protected group and profile endpoints under their own
// subrouters, and the health endpoint for load balancers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.GroupHubMongoDatabase

	issuer, err := auth.NewIssuer(appCfg.JWTSecret, appCfg.JWTAlgorithm, appCfg.AuthTokenTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	users := userstore.New(db)
	pending := pendingstore.New(db)
	tokens := resetstore.New(db)

	codes := registrationfeature.NewCodeManager(pending, mail, appCfg.SiteName, logger)
	resets := registrationfeature.NewResetManager(users, tokens, mail, appCfg.SiteName, appCfg.BaseURL, logger)

	// RequireAuth fetches fresh user data on each request, so profile
	// updates and deletions take effect immediately.
	requireAuth := auth.RequireAuth(issuer, users, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.GroupHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Signup, verification, sign-in, password reset (public)
	registrationHandler := registrationfeature.NewHandler(users, pending, codes, resets, issuer, logger)
	r.Mount("/", registrationfeature.Routes(registrationHandler))

	// Group CRUD and membership management (authenticated)
	groupsHandler := groupsfeature.NewHandler(db, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, requireAuth))

	// Current-user profile and derived group listings (authenticated)
	profileHandler := profilefeature.NewHandler(db, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, requireAuth))

	return r, nil
}
