package tokens

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of both token classes. Roles and permissions are not embedded;
// they are reloaded from storage when a route needs them.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into a numeric user id.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Subject is what a token is minted for.
type Subject struct {
	ID    uint
	Name  string
	Email string
}
