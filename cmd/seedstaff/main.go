// Command seedstaff provisions a staff account for the admin dashboard.
// There is no self-registration endpoint, so deployments run this once
// per staff member:
//
//	go run ./cmd/seedstaff -email ops@example.com -password secret -role ADMIN
package main

import (
    "context"
    "flag"
    "log"
    "strings"
    "time"

    "github.com/joho/godotenv"

    "github.com/iliyamo/restaurant-payments/internal/config"
    "github.com/iliyamo/restaurant-payments/internal/database"
    "github.com/iliyamo/restaurant-payments/internal/repository"
    "github.com/iliyamo/restaurant-payments/internal/utils"
)

func main() {
    email := flag.String("email", "", "staff email (required)")
    password := flag.String("password", "", "staff password (required)")
    role := flag.String("role", "ADMIN", "staff role: ADMIN or STAFF")
    flag.Parse()

    if *email == "" || *password == "" {
        log.Fatal("both -email and -password are required")
    }
    r := strings.ToUpper(*role)
    if r != "ADMIN" && r != "STAFF" {
        log.Fatalf("invalid role %q", *role)
    }

    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    hash, err := utils.HashPassword(*password, cfg.BcryptCost)
    if err != nil {
        log.Fatalf("hash password: %v", err)
    }

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    id, err := repository.NewStaffRepo(db).Create(ctx, strings.ToLower(strings.TrimSpace(*email)), hash, r)
    if err != nil {
        log.Fatalf("create staff: %v", err)
    }
    log.Printf("created staff account id=%d email=%s role=%s", id, *email, r)
}
