package user

import (
	"database/sql"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
)

const (
	usersTable = "users"
)

// UserRow represents the database row for a user account
type UserRow struct {
	ID              sql.NullString `db:"id"`
	Email           sql.NullString `db:"email"`
	FirstName       sql.NullString `db:"first_name"`
	NotifyEmail     sql.NullBool   `db:"notify_email"`
	NotifyFrequency sql.NullString `db:"notify_frequency"`
	Status          sql.NullString `db:"status"`
}

var userStruct = database.NewStruct(new(UserRow))

// ToUser converts a database row to a domain model
func ToUser(row *UserRow) *models.User {
	return &models.User{
		ID:              row.ID.String,
		Email:           row.Email.String,
		FirstName:       row.FirstName.String,
		NotifyEmail:     row.NotifyEmail.Bool,
		NotifyFrequency: row.NotifyFrequency.String,
		Status:          row.Status.String,
	}
}

// ToUsers converts a slice of database rows to domain models
func ToUsers(rows []UserRow) []*models.User {
	users := make([]*models.User, len(rows))
	for i, row := range rows {
		users[i] = ToUser(&row)
	}
	return users
}
