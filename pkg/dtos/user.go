package dtos

// DTO for tenant registration
type DTOForUserCreate struct {
	Email    string `json:"email" binding:"required,isemail"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname"`
	Phone    string `json:"phone" binding:"omitempty,isphone"`
}

// DTO for tenant login
type DTOForUserLogin struct {
	Email    string `json:"email" binding:"required,isemail"`
	Password string `json:"password" binding:"required"`
}
