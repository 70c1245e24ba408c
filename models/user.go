package models

// Address is a delivery address in a user's address book. At most one address
// per user carries IsDefault.
type Address struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Street    string `json:"street" binding:"required"`
	Area      string `json:"area,omitempty"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Pincode   string `json:"pincode" binding:"required"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"isDefault"`
}

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Addresses []Address `json:"addresses"`
}

func (u User) Clone() User {
	out := u
	if u.Addresses != nil {
		out.Addresses = append([]Address(nil), u.Addresses...)
	}
	return out
}

// DefaultAddress returns the address marked default, if any.
func (u User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

// ValidateAddresses enforces the single-default rule.
func ValidateAddresses(addrs []Address) error {
	defaults := 0
	for _, a := range addrs {
		if a.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return ErrMultipleDefaultAddresses
	}
	return nil
}

// UserPatch is a partial profile update; nil fields are left untouched.
type UserPatch struct {
	Name      *string   `json:"name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
}

// Apply merges the patch into a copy of u.
func (p UserPatch) Apply(u User) (User, error) {
	out := u.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Phone != nil {
		out.Phone = *p.Phone
	}
	if p.Addresses != nil {
		if err := ValidateAddresses(p.Addresses); err != nil {
			return u, err
		}
		out.Addresses = append([]Address(nil), p.Addresses...)
	}
	return out, nil
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignupRequest is the profile payload accepted by signup. Name may be given
// directly or split into first and last name.
type SignupRequest struct {
	Name      string `json:"name"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Phone     string `json:"phone"`
}

// DisplayName resolves the name to store for a new account.
func (r SignupRequest) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}
