package repository

import (
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(email, password, firstName, lastName string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	GetUserByID(userID string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
}

type userRepository struct {
	db         *sql.DB
	bcryptCost int
}

func NewUserRepository(db *sql.DB, bcryptCost int) UserRepository {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userRepository{db: db, bcryptCost: bcryptCost}
}

func (u *userRepository) CreateUser(email, password, firstName, lastName string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if email == "" {
		return models.User{}, apperr.InvalidInput("email is required")
	}
	if password == "" {
		return models.User{}, apperr.InvalidInput("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}

	user := models.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hash),
	}

	const query = `
		INSERT INTO lodgehub.users (email, first_name, last_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
	`
	err = u.db.QueryRow(query, user.Email, user.FirstName, user.LastName, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return models.User{}, apperr.Conflict("a user with this email already exists")
		}
		return models.User{}, errors.Wrap(err, "insert user")
	}

	return user, nil
}

func (u *userRepository) AuthenticateUser(email, password string) (models.User, error) {
	user, err := u.GetUserByEmail(email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return models.User{}, apperr.InvalidInput("invalid credentials")
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apperr.InvalidInput("invalid credentials")
	}

	return user, nil
}

func (u *userRepository) GetUserByID(userID string) (models.User, error) {
	const query = `
		SELECT id, email, first_name, last_name, password_hash, created_at
		FROM lodgehub.users
		WHERE id = $1;
	`

	var user models.User
	err := u.db.QueryRow(query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.NotFound("user not found: %s", userID)
		}
		return models.User{}, errors.Wrap(err, "get user")
	}

	return user, nil
}

func (u *userRepository) GetUserByEmail(email string) (models.User, error) {
	const query = `
		SELECT id, email, first_name, last_name, password_hash, created_at
		FROM lodgehub.users
		WHERE email = LOWER($1);
	`

	var user models.User
	err := u.db.QueryRow(query, email).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.NotFound("user not found: %s", email)
		}
		return models.User{}, errors.Wrap(err, "get user by email")
	}

	return user, nil
}
