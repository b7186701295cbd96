package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearConversacionRequest struct {
	VendedorID string `json:"vendedor_id" validate:"required,uuid"`
	ProductoID *int64 `json:"producto_id" validate:"omitempty,min=1"`
}

type EnviarMensajeRequest struct {
	Contenido string `json:"contenido" validate:"required,min=1,max=2000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ParticipanteResponse struct {
	ID      string  `json:"id"`
	Nombre  string  `json:"nombre"`
	FotoURL *string `json:"foto_url"`
}

type ConversacionResponse struct {
	ID             string               `json:"id"`
	ProductoID     *int64               `json:"producto_id"`
	ProductoNombre string               `json:"producto_nombre,omitempty"`
	Cliente        ParticipanteResponse `json:"cliente"`
	Vendedor       ParticipanteResponse `json:"vendedor"`
	NoLeido        bool                 `json:"no_leido"`
	Actualizado    string               `json:"actualizado"`
}

type ConversacionListResponse struct {
	Data     []ConversacionResponse `json:"data"`
	NoLeidas int                    `json:"no_leidas"`
}

type MensajeResponse struct {
	ID              string `json:"id"`
	ConversacionID  string `json:"conversacion_id"`
	RemitenteID     string `json:"remitente_id"`
	RemitenteNombre string `json:"remitente_nombre,omitempty"`
	Contenido       string `json:"contenido"`
	Leido           bool   `json:"leido"`
	Creado          string `json:"creado"`
}
