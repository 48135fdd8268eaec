package domain

var (
	MessageSuccessRegister = "user registered successfully"
	MessageSuccessLogin    = "login successful"
	MessageSuccessGetMe    = "user retrieved successfully"
	MessageFailedRegister  = "failed to register user"
	MessageFailedLogin     = "failed to login"
	MessageFailedGetMe     = "failed to retrieve user"
)

type (
	RegisterRequest struct {
		Name     string `json:"name" validate:"required,min=1,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"user_id"`
	}

	UserResponse struct {
		ID              string   `json:"id"`
		Name            string   `json:"name"`
		Email           string   `json:"email"`
		CurrentPantryID *string  `json:"current_pantry_id,omitempty"`
		PantryIDs       []string `json:"pantry_ids"`
	}

	RegisterResponse struct {
		User   UserResponse   `json:"user"`
		Pantry PantryResponse `json:"pantry"`
	}
)
