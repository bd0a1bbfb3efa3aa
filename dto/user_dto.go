package dto

// UpdateMeDTO: all fields are optional pointers. The password fields are
// only read to reject the request.
type UpdateMeDTO struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

func (d UpdateMeDTO) HasPasswordFields() bool {
	return d.Password != nil || d.PasswordConfirm != nil
}
