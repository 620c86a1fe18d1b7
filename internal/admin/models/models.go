package models

// Admin is a registered institution administrator. PasswordHash is a bcrypt
// digest; the plaintext password is never persisted.
type Admin struct {
	Name         string `json:"name"`
	AdminID      string `json:"adminId"`
	PasswordHash string `json:"passwordHash"`
}

// Public strips credential material for responses.
func (a Admin) Public() PublicAdmin {
	return PublicAdmin{Name: a.Name, AdminID: a.AdminID}
}

// PublicAdmin is the response shape for admin listings.
type PublicAdmin struct {
	Name    string `json:"name"`
	AdminID string `json:"adminId"`
}
