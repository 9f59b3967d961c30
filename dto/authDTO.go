package dto

type GoogleSignInRequest struct {
	IDToken      string `json:"idToken" binding:"required"`
	CaptchaToken string `json:"captchaToken"`
}

type SignInResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   TokenBody    `json:"token"`
}

type TokenBody struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
