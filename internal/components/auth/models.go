package auth

type (
	RegisterIn struct {
		Name     string
		Email    string
		Username string
		Password string
	}

	LoginIn struct {
		Username string
		Password string
	}
)
