package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/database"
	"github.com/pagehub/pagehub-backend/internal/logger"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/repository"
	"github.com/pagehub/pagehub-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	resetEmail := flag.String("reset", "", "issue a password reset token for this admin email instead of creating one")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// No session cache: this tool never issues tokens.
	authService := service.NewAuthService(cfg, nil)
	adminService := service.NewAdminService(repository.NewAdminRepository(pool), authService, cfg.RegistrationCodes, log)

	if *resetEmail != "" {
		token, err := adminService.IssueResetToken(ctx, *resetEmail)
		if err != nil {
			log.Fatal().Err(err).Str("email", *resetEmail).Msg("Failed to issue reset token")
		}
		fmt.Printf("Reset token for %s (valid for 1 hour):\n%s\n", service.NormalizeEmail(*resetEmail), token)
		fmt.Println("Redeem it with POST /api/admins/reset-password.")
		return
	}

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Admin ===")

	name := prompt(reader, "Enter Name: ")
	if len(name) < 3 || len(name) > 30 {
		fmt.Println("Error: Name must be 3 to 30 characters")
		os.Exit(1)
	}

	email := prompt(reader, "Enter Email: ")
	if !strings.Contains(email, "@") {
		fmt.Println("Error: a valid email is required")
		os.Exit(1)
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}
	password := string(bytePassword)
	if len(password) < 6 || len(password) > 40 {
		fmt.Println("Error: Password must be 6 to 40 characters")
		os.Exit(1)
	}

	fmt.Println("Roles:")
	for i, r := range model.Roles {
		fmt.Printf("  %d) %s\n", i+1, r)
	}
	choice := prompt(reader, "Select Role (default 1): ")
	role := model.Roles[0]
	if choice != "" {
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(model.Roles) {
			fmt.Println("Error: invalid role selection")
			os.Exit(1)
		}
		role = model.Roles[n-1]
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	admin, err := adminService.Create(ctx, name, email, role, password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s, %s) created with ID: %d\n", admin.Name, admin.Email, admin.Role, admin.ID)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
