package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/config"
	"restaurant-admin/internal/connections/database"
	"restaurant-admin/internal/domain"
	authrepo "restaurant-admin/internal/microservices/auth/repository"
	authservice "restaurant-admin/internal/microservices/auth/service"
)

const (
	promptUsername = "Introduce el nombre de usuario para el administrador: "
	promptPassword = "Introduce la contraseña para el administrador: "
)

// AdminCreator is the part of the admin service the bootstrap command uses.
type AdminCreator interface {
	Create(ctx context.Context, in domain.AdminUserInput) (domain.AdminUser, error)
}

// CreateAdmin connects to the database and runs the interactive prompt.
func CreateAdmin(ctx context.Context, cfg *config.Config, lg *logger.Logger, in io.Reader, out io.Writer) error {
	db, err := database.ConnectDB(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	defer db.Close()

	admins := authservice.NewAdminService(authrepo.NewAdminRepository(db),
		authservice.NewPasswordHasher(cfg.Session.BcryptCost), lg.Named("auth"))
	return PromptAdmin(ctx, admins, in, out)
}

// PromptAdmin asks for a username and password and creates the admin user.
// An existing username is reported to the operator, not returned as an error.
func PromptAdmin(ctx context.Context, admins AdminCreator, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	username, err := ask(reader, out, promptUsername)
	if err != nil {
		return err
	}
	password, err := ask(reader, out, promptPassword)
	if err != nil {
		return err
	}

	user, err := admins.Create(ctx, domain.AdminUserInput{Username: username, Password: password})
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		fmt.Fprintf(out, "El usuario '%s' ya existe. Intenta con otro nombre de usuario.\n", strings.TrimSpace(username))
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(out, "Usuario administrador '%s' creado exitosamente.\n", user.Username)
	return nil
}

func ask(r *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
