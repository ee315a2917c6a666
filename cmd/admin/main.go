package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"atlasacademico/internal/auth"
	"atlasacademico/internal/config"
	"atlasacademico/internal/database"
)

// Seeds an account with a random password, for bootstrapping environments.
func main() {
	var (
		email      = flag.String("email", "", "account email (required)")
		nome       = flag.String("nome", "", "profile name (required)")
		tipoPerfil = flag.String("tipo-perfil", database.ProfileTypeProfessor, "profile type: Estudante or Professor")
		dbHost     = flag.String("db-host", "", "database host (defaults to DATABASE_HOST)")
		dbPort     = flag.Int("db-port", 0, "database port (defaults to DATABASE_PORT)")
		dbName     = flag.String("db-name", "", "database name (defaults to POSTGRES_DB)")
		dbUser     = flag.String("db-user", "", "database user (defaults to POSTGRES_USER)")
		dbPass     = flag.String("db-password", "", "database password (defaults to POSTGRES_PASSWORD)")
		sslMode    = flag.String("db-sslmode", "", "database sslmode (defaults to DATABASE_SSLMODE)")
	)
	flag.Parse()

	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		log.Fatal("missing required flag: --email")
	}
	n := strings.TrimSpace(*nome)
	if n == "" {
		log.Fatal("missing required flag: --nome")
	}
	if *tipoPerfil != database.ProfileTypeStudent && *tipoPerfil != database.ProfileTypeProfessor {
		log.Fatalf("invalid --tipo-perfil %q: must be %s or %s", *tipoPerfil, database.ProfileTypeStudent, database.ProfileTypeProfessor)
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var existing database.User
	switch err := db.Where("email = ?", e).First(&existing).Error; {
	case err == nil:
		log.Fatalf("user %q already exists", e)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query user: %v", err)
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := database.User{
		Email:        e,
		PasswordHash: hashed,
		Profile: database.Profile{
			Nome:       n,
			TipoPerfil: *tipoPerfil,
		},
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create user: %v", err)
	}

	fmt.Printf("Conta criada com sucesso:\n")
	fmt.Printf("Email: %s\n", e)
	fmt.Printf("Senha inicial: %s\n", password)
	fmt.Printf("A senha é exibida apenas uma vez; troque-a após o primeiro login.\n")
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
