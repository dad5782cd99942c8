// Package auth provides session authentication for the admin area.
//
// Only users with the admin flag can sign in. Accounts are created out of
// band (the create-admin and setup commands, or the bootstrap on serve when
// ADMIN_PASSWORD is set); there is no self-registration.
//
// # Configuration
//
//	SECRET_KEY=<random string>   # CSRF key material, generated when empty
//	SESSION_LIFETIME=24h         # Session duration
//	BCRYPT_COST=12               # bcrypt cost factor
//	SECURE_COOKIES=true          # HTTPS-only cookies
//	LOGIN_MAX_ATTEMPTS=5         # Failures before lockout
//
// # Usage
//
//	service := auth.NewService(users.NewRepository(db), cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(service, sessions)
//	router.Use(sessions.SessionLoadSave(), mw.LoadUser())
//	admin := router.Group("/admin", mw.RequireAdmin())
package auth
