package store

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/metallic-erp/support-hub/internal/domain"
)

// seedUsers returns the fixed dataset used when no users snapshot exists.
// Seed passwords are hashed on the way in; the plaintext values only ever
// exist here.
func seedUsers() []domain.User {
	return []domain.User{
		{ID: 1, Name: "Admin User", Email: "admin@metallic.com", Role: domain.RoleAdmin, PasswordHash: mustHash("admin")},
		{ID: 2, Name: "Karim", Email: "karim@metallic.com", Role: domain.RoleDeveloper, PasswordHash: mustHash("dev")},
		{ID: 3, Name: "Mariam", Email: "mariam@metallic.com", Role: domain.RoleDeveloper, PasswordHash: mustHash("dev")},
		{ID: 4, Name: "Mohamed", Email: "mohamed@metallic.com", Role: domain.RoleDeveloper, PasswordHash: mustHash("dev")},
	}
}

func mustHash(plain string) string {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hashed)
}
