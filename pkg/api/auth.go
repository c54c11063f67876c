package api

// RegisterRequest представляет запрос на регистрацию нового устройства
type RegisterRequest struct {
	DeviceName string `json:"device_name" validate:"required,min=3,max=64"` // человекочитаемое имя устройства
	DeviceID   string `json:"device_id" validate:"required,uuid4"`          // клиентский UUID устройства
	Secret     string `json:"secret" validate:"required,min=8"`             // секрет устройства (хешируется на сервере)
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	DeviceID string `json:"device_id"`
	Message  string `json:"message"`
}

// LoginRequest представляет запрос на аутентификацию устройства
type LoginRequest struct {
	DeviceID string `json:"device_id" validate:"required,uuid4"`
	Secret   string `json:"secret" validate:"required"`
}

// TokenResponse представляет ответ с токеном доступа
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	ExpiresIn   int64  `json:"expires_in"`   // время жизни access token в секундах
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
