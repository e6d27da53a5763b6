package account

import "context"

// Account identifies a buyer. Guest accounts are created on the fly at
// checkout for buyers without a registered profile.
type Account struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Guest     bool
}

// Repository resolves buyers by email, creating a guest record when the
// email is unknown.
type Repository interface {
	FindOrCreateGuest(ctx context.Context, email, firstName, lastName string) (*Account, error)
}
