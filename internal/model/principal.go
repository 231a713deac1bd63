package model

// Realm identifies which credential store authenticated a principal.
type Realm string

const (
	RealmCustomer Realm = "customer"
	RealmAdmin    Realm = "admin"
)

// IsValid checks if the realm is one of the known stores.
func (r Realm) IsValid() bool {
	return r == RealmCustomer || r == RealmAdmin
}

// Principal is the authenticated identity produced by the auth gateway.
// Customer principals carry the numeric customer id; admin principals are
// flagged by realm.
type Principal struct {
	Realm Realm  `json:"realm"`
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// IsAdmin reports whether the principal authenticated against the admin
// realm.
func (p *Principal) IsAdmin() bool {
	return p.Realm == RealmAdmin
}
