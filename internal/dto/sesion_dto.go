package dto

// EventoSesionRequest is one auth provider notification. AccessToken is
// required for SIGNED_IN and TOKEN_REFRESHED.
type EventoSesionRequest struct {
	Evento      string `json:"evento"       validate:"required,oneof=SIGNED_IN SIGNED_OUT TOKEN_REFRESHED"`
	AccessToken string `json:"access_token" validate:"required_unless=Evento SIGNED_OUT"`
}

type UsuarioResponse struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Nombre     string  `json:"nombre"`
	Rol        string  `json:"rol"`
	FotoURL    *string `json:"foto_url"`
	Suspendido bool    `json:"suspendido"`
}

type SesionResponse struct {
	Estado      string           `json:"estado"`
	Autenticado bool             `json:"autenticado"`
	Usuario     *UsuarioResponse `json:"usuario"`
	// Navegar is a one-shot navigation target (e.g. /login or the remembered page).
	Navegar string `json:"navegar,omitempty"`
}

type EventoSesionResponse struct {
	Aplicado bool           `json:"aplicado"`
	Sesion   SesionResponse `json:"sesion"`
}
