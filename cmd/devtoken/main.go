// Command devtoken mints a bearer token for local testing against a
// development server. It refuses to run when the environment is production.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/auth"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		role    string
		partyID string
		userID  string
	)
	flag.StringVar(&role, "role", "retailer", "Role to embed: shop, retailer, doctor, distributor")
	flag.StringVar(&partyID, "party", "", "Party id the role acts for (default: random)")
	flag.StringVar(&userID, "user", "", "User id (default: random)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewForEnvironment(cfg.App.Env, "info", "console", "stderr")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.App.IsProduction() {
		log.Fatal("Refusing to mint tokens in production")
	}

	party := parseOrNew(log, "party", partyID)
	user := parseOrNew(log, "user", userID)
	r, err := shared.ParseRole(role, party)
	if err != nil {
		log.Fatal("Invalid role", zap.Error(err))
	}
	principal := shared.NewPrincipal(user, r)

	token, expiresAt, err := auth.NewJWTService(cfg.JWT).IssueAccessToken(principal)
	if err != nil {
		log.Fatal("Failed to sign token", zap.Error(err))
	}
	log.Info("Token issued",
		zap.String("role", r.Name()),
		zap.String("owner", principal.Owner().String()),
		zap.String("user_id", user.String()),
		zap.Time("expires_at", expiresAt.Truncate(time.Second)),
	)
	fmt.Println(token)
}

func parseOrNew(log *zap.Logger, name, value string) uuid.UUID {
	if value == "" {
		return uuid.New()
	}
	id, err := uuid.Parse(value)
	if err != nil {
		log.Fatal("Invalid uuid", zap.String("flag", name), zap.Error(err))
	}
	return id
}
