package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"adspace/internal/config"
	"adspace/internal/domain"
	"adspace/internal/store"
	"adspace/internal/util"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "email of the account to create (ADMIN_EMAIL)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "initial password, at least 8 characters (ADMIN_PASSWORD)")
	role := flag.String("role", string(domain.RoleSuperAdmin), "admin or superAdmin")
	flag.Parse()

	if err := run(*email, *password, domain.Role(*role)); err != nil {
		fmt.Fprintf(os.Stderr, "create_admin: %v\n", err)
		os.Exit(1)
	}
}

func run(email, password string, role domain.Role) error {
	if email == "" || len(password) < 8 || len(password) > 72 {
		return errors.New("an email and a password of 8 to 72 characters are required")
	}
	if !role.Valid() {
		return errors.Newf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, &cfg.Database, log)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer func() { _ = st.Close(context.Background()) }()

	if _, err := st.Users.GetByEmail(ctx, email); err == nil {
		fmt.Printf("User %s already exists!\n", email)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}
	u := &domain.User{Email: email, PasswordHash: hash, Role: role}
	u.Init(time.Now())
	if err := st.Users.Create(ctx, u); err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	fmt.Println("Admin user created successfully!")
	fmt.Printf("Email: %s\nRole:  %s\n", u.Email, u.Role)
	fmt.Println("Please change the password after first login!")
	return nil
}
