package models

import "time"

// Device представляет зарегистрированное устройство на сервере.
// Секрет хранится только как bcrypt-хеш.
type Device struct {
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SecretHash  string    `json:"-"`
}
