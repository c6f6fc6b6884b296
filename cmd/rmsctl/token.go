package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/service"
)

var (
	tokenUserID   string
	tokenUsername string
	tokenRole     string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an access token with the local JWT secret",
	Long: `Sign an access token with JWT_SECRET and JWT_ISSUER. Meant for local
development against a server sharing the same secret.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "user id stored as the request creator")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "username stored as the request creator")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(models.RoleOperator), "OPERATOR, ADMIN or SUPERADMIN")
	_ = tokenCmd.MarkFlagRequired("user-id")
}

func runToken(cmd *cobra.Command, args []string) error {
	role, err := parseRole(tokenRole)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	username := tokenUsername
	if username == "" {
		username = tokenUserID
	}

	auth := service.NewAuthService(service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	}, nil)
	signed, expiresAt, err := auth.IssueToken(tokenUserID, username, role)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(out, map[string]string{"token": signed, "expires_at": expiresAt.Format(time.RFC3339)})
	}
	fmt.Fprintln(out, signed)
	return nil
}

func parseRole(raw string) (models.UserRole, error) {
	role := models.UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case models.RoleOperator, models.RoleAdmin, models.RoleSuperAdmin:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}
